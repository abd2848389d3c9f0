package component

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/docsmith/docgen/src/agents"
	aicore "github.com/docsmith/docgen/src/ai/core"
	sdkcore "github.com/docsmith/docgen/src/sdk/core"
)

// Agent produces per-component reference documentation from component
// metadata and optional source excerpts.
type Agent struct {
	ai     aicore.Client
	logger *log.Logger
	caps   sdkcore.Capabilities
}

func New(deps agents.RuntimeDeps, config map[string]any) (*Agent, error) {
	logger := deps.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Agent{
		ai:     deps.AI,
		logger: logger,
		caps: sdkcore.Capabilities{
			Name:               "component_documenter",
			Description:        "Generates detailed documentation for individual components",
			InputTypes:         []string{"component_info", "source_code"},
			OutputTypes:        []string{"component_documentation", "api_reference", "usage_examples"},
			SupportedLanguages: []string{"python", "javascript", "typescript", "java"},
			MaxParallelTasks:   5,
		},
	}, nil
}

func (a *Agent) Capabilities() sdkcore.Capabilities { return a.caps }

func (a *Agent) ProcessTask(ctx context.Context, task sdkcore.Task) (*sdkcore.Result, error) {
	name, _ := task.InputData["component_name"].(string)
	if name == "" {
		return &sdkcore.Result{
			TaskID:  task.ID,
			Success: false,
			Error:   "component_name is required",
		}, nil
	}

	source, _ := task.InputData["source_code"].(string)
	if len(source) > 10000 {
		source = source[:10000] + "\n... (truncated)"
	}

	analysis := a.analyze(ctx, name, source)
	content := a.document(ctx, name, analysis)

	return &sdkcore.Result{
		TaskID:  task.ID,
		Success: true,
		Data: map[string]any{
			"component_name":     name,
			"type":               analysis.Type,
			"description":        analysis.Description,
			"interfaces":         analysis.Interfaces,
			"dependencies":       analysis.Dependencies,
			"usage_examples":     analysis.UsageExamples,
			"confluence_content": content,
		},
		Metadata: map[string]any{"agent_type": a.caps.Name, "component": name},
	}, nil
}

type analysis struct {
	Type          string   `json:"type"`
	Description   string   `json:"description"`
	Interfaces    []string `json:"interfaces"`
	Dependencies  []string `json:"dependencies"`
	UsageExamples []string `json:"usage_examples"`
	Complexity    string   `json:"complexity"`
}

func (a *Agent) analyze(ctx context.Context, name, source string) analysis {
	prompt := fmt.Sprintf(`Analyze this component '%s' and its source code:

%s

Provide analysis in JSON format:
{
  "type": "Service|Module|API|Component|etc",
  "description": "Brief description of what this component does",
  "interfaces": ["list of public methods/props"],
  "dependencies": ["list of external dependencies"],
  "usage_examples": ["example usage patterns"],
  "complexity": "Low|Medium|High"
}`, name, source)

	fallback := analysis{
		Type:        "Component",
		Description: fmt.Sprintf("Component %s", name),
	}

	resp, err := a.ai.Generate(ctx, prompt, aicore.Options{Temperature: 0.2})
	if err != nil {
		a.logger.Printf("component: analysis of %s failed: %v", name, err)
		return fallback
	}

	var out analysis
	if err := json.Unmarshal([]byte(extractJSON(resp)), &out); err != nil {
		a.logger.Printf("component: unparseable analysis for %s: %v", name, err)
		return fallback
	}
	if out.Type == "" {
		out.Type = "Component"
	}
	if out.Description == "" {
		out.Description = fallback.Description
	}
	return out
}

func (a *Agent) document(ctx context.Context, name string, an analysis) string {
	analysisJSON, _ := json.MarshalIndent(an, "", "  ")
	prompt := fmt.Sprintf(`Generate comprehensive Markdown documentation for component '%s':

Analysis: %s

Include:
1. Component Overview
2. Purpose and Functionality
3. Public Interface (methods, props, APIs)
4. Dependencies and Requirements
5. Usage Examples with code
6. Configuration Options
7. Testing Guidelines
8. Known Issues/Limitations`, name, analysisJSON)

	resp, err := a.ai.Generate(ctx, prompt, aicore.Options{Temperature: 0.2})
	if err != nil {
		a.logger.Printf("component: documentation for %s failed: %v", name, err)
		return fallbackDoc(name, an)
	}
	return resp
}

func fallbackDoc(name string, an analysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s Component Documentation\n\n", name)
	b.WriteString("## Overview\n")
	fmt.Fprintf(&b, "%s\n\n**Type:** %s\n\n", an.Description, an.Type)
	b.WriteString("## Public Interface\n")
	writeItems(&b, an.Interfaces, "No public interfaces documented")
	b.WriteString("\n## Dependencies\n")
	writeItems(&b, an.Dependencies, "No dependencies identified")
	b.WriteString("\n## Usage Examples\n")
	writeItems(&b, an.UsageExamples, "No usage examples available")
	return b.String()
}

func writeItems(b *strings.Builder, items []string, empty string) {
	if len(items) == 0 {
		fmt.Fprintf(b, "- %s\n", empty)
		return
	}
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
}

// extractJSON trims a code fence or surrounding prose so the object can be
// unmarshaled even when the model wraps it.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
