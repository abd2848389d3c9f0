package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportProjectWritesFullSet(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(dir, nil)

	arch := &ArchitectureDoc{
		ProjectStructure: map[string]any{
			"total_files": 42,
			"directories": map[string]any{"src": nil, "docs": nil},
			"file_types":  map[string]any{".go": 30, ".md": 12},
		},
		KeyComponents: []string{"API", "Worker"},
		Patterns:      []string{"Event-Driven"},
		Dependencies: map[string][]string{
			"frontend": {"react"},
			"backend":  {"gin", "gorm"},
		},
		MermaidDiagrams: []string{"graph TD\n    A --> B"},
	}
	components := []ComponentDoc{
		{Name: "Auth Service", Type: "Service", Description: "Handles login", Content: "## Details"},
		{Name: "Queue", Content: "## Queue docs"},
	}

	manifest, err := e.ExportProject("My Project", arch, components, "Run the binary.")
	require.NoError(t, err)

	projectDir := filepath.Join(dir, "my_project")
	assert.Equal(t, projectDir, manifest.ProjectDir)

	expected := []string{
		filepath.Join(projectDir, "01-architecture.md"),
		filepath.Join(projectDir, "components", "auth_service.md"),
		filepath.Join(projectDir, "components", "queue.md"),
		filepath.Join(projectDir, "02-components.md"),
		filepath.Join(projectDir, "03-usage-guide.md"),
		filepath.Join(projectDir, "README.md"),
	}
	assert.ElementsMatch(t, expected, manifest.Files)
	for _, path := range expected {
		_, err := os.Stat(path)
		assert.NoError(t, err, path)
	}

	archMD := readFile(t, filepath.Join(projectDir, "01-architecture.md"))
	assert.Contains(t, archMD, "# My Project - Architecture Overview")
	assert.Contains(t, archMD, "| `.go` | 30 |")
	assert.Contains(t, archMD, "- **API**")
	assert.Contains(t, archMD, "- `gin`")
	assert.Contains(t, archMD, "```mermaid\ngraph TD")

	compMD := readFile(t, filepath.Join(projectDir, "components", "auth_service.md"))
	assert.Contains(t, compMD, "# Auth Service")
	assert.Contains(t, compMD, "**Type:** Service")
	assert.Contains(t, compMD, "Handles login")

	indexMD := readFile(t, filepath.Join(projectDir, "02-components.md"))
	assert.Contains(t, indexMD, "[Auth Service](components/auth_service.md)")
	assert.Contains(t, indexMD, "Handles login")

	readme := readFile(t, filepath.Join(projectDir, "README.md"))
	assert.Contains(t, readme, "[Architecture Overview](01-architecture.md)")
	assert.Contains(t, readme, "documentation for 2 components")
	assert.Contains(t, readme, "[Usage Guide](03-usage-guide.md)")
}

func TestExportProjectSkipsMissingSections(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(dir, nil)

	manifest, err := e.ExportProject("empty", nil, nil, "")
	require.NoError(t, err)

	require.Len(t, manifest.Files, 1)
	assert.Equal(t, filepath.Join(dir, "empty", "README.md"), manifest.Files[0])

	readme := readFile(t, manifest.Files[0])
	assert.NotContains(t, readme, "01-architecture.md)** -")
	assert.NotContains(t, readme, "02-components.md)** -")
}

func TestArchitectureMarkdownLimitsDepsAndDiagrams(t *testing.T) {
	e := NewExporter(t.TempDir(), nil)

	deps := make([]string, 15)
	for i := range deps {
		deps[i] = "dep" + string(rune('a'+i))
	}
	diagrams := []string{"d1", "d2", "d3", "d4", "d5"}

	md := e.architectureMarkdown("p", &ArchitectureDoc{
		Dependencies:    map[string][]string{"backend": deps},
		MermaidDiagrams: diagrams,
	})

	assert.Equal(t, 10, strings.Count(md, "- `dep"))
	assert.Contains(t, md, "### Diagram 3")
	assert.NotContains(t, md, "### Diagram 4")
	assert.Contains(t, md, "No frontend dependencies identified")
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"Auth Service":     "auth_service",
		`bad<>:"/\|?*name`: "bad_name",
		"___":              "unnamed",
		"":                 "unnamed",
		"UPPER":            "upper",
		"multi   spaces":   "multi_spaces",
	}
	for in, want := range cases {
		assert.Equal(t, want, SanitizeFilename(in), "input %q", in)
	}

	long := strings.Repeat("a", 150)
	assert.Len(t, SanitizeFilename(long), 100)
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "first", firstLine("first\nsecond", 100))
	assert.Equal(t, "No description", firstLine("", 100))
	assert.Equal(t, strings.Repeat("x", 10)+"...", firstLine(strings.Repeat("x", 20), 10))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}
