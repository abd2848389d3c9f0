package export

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Exporter writes generated documentation to a local directory tree as
// Markdown, one subdirectory per project.
type Exporter struct {
	outputDir string
	logger    *log.Logger
}

// ArchitectureDoc is the architecture agent output consumed by the exporter.
type ArchitectureDoc struct {
	ProjectStructure map[string]any
	KeyComponents    []string
	Patterns         []string
	Dependencies     map[string][]string
	MermaidDiagrams  []string
}

// ComponentDoc is one component's documentation.
type ComponentDoc struct {
	Name        string
	Type        string
	Description string
	Content     string
}

// Manifest lists the files an export produced.
type Manifest struct {
	ProjectDir string   `json:"project_dir"`
	Files      []string `json:"files"`
}

func NewExporter(outputDir string, logger *log.Logger) *Exporter {
	if outputDir == "" {
		outputDir = "docs_export"
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Exporter{outputDir: outputDir, logger: logger}
}

// ExportProject writes the full documentation set for one project and
// returns a manifest of written files.
func (e *Exporter) ExportProject(projectName string, arch *ArchitectureDoc, components []ComponentDoc, usageGuide string) (*Manifest, error) {
	projectDir := filepath.Join(e.outputDir, SanitizeFilename(projectName))
	if err := os.MkdirAll(projectDir, 0o755); err != nil {
		return nil, fmt.Errorf("export: create project dir: %w", err)
	}

	manifest := &Manifest{ProjectDir: projectDir}

	if arch != nil {
		path := filepath.Join(projectDir, "01-architecture.md")
		if err := os.WriteFile(path, []byte(e.architectureMarkdown(projectName, arch)), 0o644); err != nil {
			return nil, fmt.Errorf("export: write architecture: %w", err)
		}
		manifest.Files = append(manifest.Files, path)
	}

	if len(components) > 0 {
		paths, err := e.exportComponents(projectDir, projectName, components)
		if err != nil {
			return nil, err
		}
		manifest.Files = append(manifest.Files, paths...)
	}

	if usageGuide != "" {
		path := filepath.Join(projectDir, "03-usage-guide.md")
		content := fmt.Sprintf("# %s - Usage Guide\n\n*Generated on %s*\n\n%s\n",
			projectName, timestamp(), usageGuide)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return nil, fmt.Errorf("export: write usage guide: %w", err)
		}
		manifest.Files = append(manifest.Files, path)
	}

	indexPath := filepath.Join(projectDir, "README.md")
	if err := os.WriteFile(indexPath, []byte(e.indexMarkdown(projectName, arch, components, usageGuide)), 0o644); err != nil {
		return nil, fmt.Errorf("export: write index: %w", err)
	}
	manifest.Files = append(manifest.Files, indexPath)

	e.logger.Printf("exported %d files for %s to %s", len(manifest.Files), projectName, projectDir)
	return manifest, nil
}

func (e *Exporter) architectureMarkdown(projectName string, arch *ArchitectureDoc) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s - Architecture Overview\n\n*Generated on %s*\n\n", projectName, timestamp())

	b.WriteString("## Project Structure\n\n### Overview\n")
	fmt.Fprintf(&b, "- **Total Files**: %v\n", valueOr(arch.ProjectStructure, "total_files", "Unknown"))
	if dirs, ok := arch.ProjectStructure["directories"].(map[string]any); ok {
		fmt.Fprintf(&b, "- **Directories**: %d\n", len(dirs))
	}

	if fileTypes, ok := arch.ProjectStructure["file_types"].(map[string]any); ok && len(fileTypes) > 0 {
		b.WriteString("\n### File Types Distribution\n\n| File Type | Count |\n|-----------|-------|\n")
		exts := make([]string, 0, len(fileTypes))
		for ext := range fileTypes {
			exts = append(exts, ext)
		}
		sort.Strings(exts)
		for _, ext := range exts {
			fmt.Fprintf(&b, "| `%s` | %v |\n", ext, fileTypes[ext])
		}
	}

	b.WriteString("\n## Key Components\n\n")
	for _, c := range arch.KeyComponents {
		fmt.Fprintf(&b, "- **%s**\n", c)
	}

	b.WriteString("\n## Architecture Patterns\n\n")
	for _, p := range arch.Patterns {
		fmt.Fprintf(&b, "- **%s**\n", p)
	}

	b.WriteString("\n## Dependencies\n")
	writeDeps(&b, "Frontend Dependencies", arch.Dependencies["frontend"])
	writeDeps(&b, "Backend Dependencies", arch.Dependencies["backend"])

	if len(arch.MermaidDiagrams) > 0 {
		b.WriteString("\n## Architecture Diagrams\n")
		limit := len(arch.MermaidDiagrams)
		if limit > 3 {
			limit = 3
		}
		for i := 0; i < limit; i++ {
			fmt.Fprintf(&b, "\n### Diagram %d\n\n```mermaid\n%s\n```\n", i+1, arch.MermaidDiagrams[i])
		}
	}

	return b.String()
}

func writeDeps(b *strings.Builder, title string, deps []string) {
	fmt.Fprintf(b, "\n### %s\n", title)
	if len(deps) == 0 {
		fmt.Fprintf(b, "- No %s identified\n", strings.ToLower(title))
		return
	}
	limit := len(deps)
	if limit > 10 {
		limit = 10
	}
	for _, dep := range deps[:limit] {
		fmt.Fprintf(b, "- `%s`\n", dep)
	}
}

func (e *Exporter) exportComponents(projectDir, projectName string, components []ComponentDoc) ([]string, error) {
	componentsDir := filepath.Join(projectDir, "components")
	if err := os.MkdirAll(componentsDir, 0o755); err != nil {
		return nil, fmt.Errorf("export: create components dir: %w", err)
	}

	var paths []string
	var index strings.Builder
	fmt.Fprintf(&index, "# %s - Components\n\n*Generated on %s*\n\n", projectName, timestamp())

	for _, comp := range components {
		filename := SanitizeFilename(comp.Name) + ".md"
		path := filepath.Join(componentsDir, filename)

		var b strings.Builder
		fmt.Fprintf(&b, "# %s\n\n", comp.Name)
		if comp.Type != "" {
			fmt.Fprintf(&b, "**Type:** %s\n\n", comp.Type)
		}
		if comp.Description != "" {
			fmt.Fprintf(&b, "%s\n\n", comp.Description)
		}
		b.WriteString(comp.Content)
		b.WriteString("\n")

		if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
			return nil, fmt.Errorf("export: write component %s: %w", comp.Name, err)
		}
		paths = append(paths, path)

		fmt.Fprintf(&index, "- [%s](components/%s) - %s\n", comp.Name, filename, firstLine(comp.Description, 100))
	}

	indexPath := filepath.Join(projectDir, "02-components.md")
	if err := os.WriteFile(indexPath, []byte(index.String()), 0o644); err != nil {
		return nil, fmt.Errorf("export: write components index: %w", err)
	}
	return append(paths, indexPath), nil
}

func (e *Exporter) indexMarkdown(projectName string, arch *ArchitectureDoc, components []ComponentDoc, usageGuide string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s Documentation\n\n*Generated on %s*\n\n## Contents\n\n", projectName, timestamp())

	if arch != nil {
		b.WriteString("1. **[Architecture Overview](01-architecture.md)** - System architecture, patterns, and dependencies\n")
	}
	if len(components) > 0 {
		fmt.Fprintf(&b, "2. **[Components](02-components.md)** - Detailed documentation for %d components\n", len(components))
	}
	if usageGuide != "" {
		b.WriteString("3. **[Usage Guide](03-usage-guide.md)** - Getting started, troubleshooting, and best practices\n")
	}

	b.WriteString("\n## Where to Start\n\n")
	b.WriteString("- **New to the project?** Start with the [Usage Guide](03-usage-guide.md)\n")
	b.WriteString("- **Want to understand the system?** Check the [Architecture Overview](01-architecture.md)\n")
	b.WriteString("- **Looking for specific components?** Browse the [Components](02-components.md) section\n")
	return b.String()
}

// SanitizeFilename makes a name safe for the filesystem: invalid characters
// become underscores, runs collapse, and the result is lowercased and capped
// at 100 characters.
func SanitizeFilename(name string) string {
	invalid := `<>:"/\|?* `
	mapped := strings.Map(func(r rune) rune {
		if strings.ContainsRune(invalid, r) {
			return '_'
		}
		return r
	}, name)

	parts := strings.FieldsFunc(mapped, func(r rune) bool { return r == '_' })
	out := strings.Join(parts, "_")
	if out == "" {
		out = "unnamed"
	}
	if len(out) > 100 {
		out = out[:100]
	}
	return strings.ToLower(out)
}

func valueOr(m map[string]any, key string, def any) any {
	if m == nil {
		return def
	}
	if v, ok := m[key]; ok {
		return v
	}
	return def
}

func firstLine(s string, limit int) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	if len(s) > limit {
		s = s[:limit] + "..."
	}
	if s == "" {
		s = "No description"
	}
	return s
}

func timestamp() string {
	return time.Now().Format("2006-01-02 15:04:05")
}
