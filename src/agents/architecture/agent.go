package architecture

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/docsmith/docgen/src/agents"
	aicore "github.com/docsmith/docgen/src/ai/core"
	sdkcore "github.com/docsmith/docgen/src/sdk/core"
)

const (
	maxComponents = 10
	maxPatterns   = 5
)

// Agent analyzes a repository's architecture and produces documentation
// content plus Mermaid diagrams.
type Agent struct {
	ai     aicore.Client
	logger *log.Logger
	caps   sdkcore.Capabilities
}

// New builds an architecture agent backed by the given model client.
func New(deps agents.RuntimeDeps, config map[string]any) (*Agent, error) {
	logger := deps.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Agent{
		ai:     deps.AI,
		logger: logger,
		caps: sdkcore.Capabilities{
			Name:               "architecture_analyzer",
			Description:        "Analyzes repository architecture and generates documentation",
			InputTypes:         []string{"repository_url", "project_structure"},
			OutputTypes:        []string{"architecture_analysis", "mermaid_diagrams", "confluence_content"},
			SupportedLanguages: []string{"python", "javascript", "typescript", "java", "go"},
			MaxParallelTasks:   3,
		},
	}, nil
}

func (a *Agent) Capabilities() sdkcore.Capabilities { return a.caps }

func (a *Agent) ProcessTask(ctx context.Context, task sdkcore.Task) (*sdkcore.Result, error) {
	repoURL, _ := task.InputData["repository_url"].(string)
	if repoURL == "" {
		return &sdkcore.Result{
			TaskID:  task.ID,
			Success: false,
			Error:   "repository_url is required",
		}, nil
	}

	structure := projectStructure(task.InputData)

	components := a.identifyComponents(ctx, structure)
	patterns := a.detectPatterns(ctx, structure)
	deps := dependenciesFrom(task.InputData)

	content := a.generateContent(ctx, repoURL, structure, components, patterns, deps)
	diagrams := a.generateDiagrams(ctx, components, deps)

	return &sdkcore.Result{
		TaskID:  task.ID,
		Success: true,
		Data: map[string]any{
			"project_structure":     structure,
			"key_components":        components,
			"architecture_patterns": patterns,
			"dependencies":          deps,
			"confluence_content":    content,
			"mermaid_diagrams":      diagrams,
		},
		Metadata: map[string]any{"agent_type": a.caps.Name},
	}, nil
}

// projectStructure normalizes the caller-supplied structure so downstream
// prompts always see the same shape.
func projectStructure(input map[string]any) map[string]any {
	if s, ok := input["project_structure"].(map[string]any); ok {
		return s
	}
	return map[string]any{
		"root_files":  []string{},
		"directories": map[string]any{},
		"file_types":  map[string]any{},
		"total_files": 0,
	}
}

func dependenciesFrom(input map[string]any) map[string]any {
	if d, ok := input["dependencies"].(map[string]any); ok {
		return d
	}
	return map[string]any{
		"frontend":          []string{},
		"backend":           []string{},
		"database":          []string{},
		"external_services": []string{},
	}
}

func (a *Agent) identifyComponents(ctx context.Context, structure map[string]any) []string {
	prompt := fmt.Sprintf(`Analyze this project structure and identify the key components:

Structure: %s

Identify the main modules, services, or components that form the core of this application.
Return a list of component names.`, compactJSON(structure))

	resp, err := a.ai.Generate(ctx, prompt, aicore.Options{Temperature: 0.1})
	if err != nil {
		a.logger.Printf("architecture: component identification failed: %v", err)
		return []string{"API", "Frontend", "Database", "Services"}
	}
	components := agents.ParseList(resp, maxComponents)
	if len(components) == 0 {
		return []string{"API", "Frontend", "Database", "Services"}
	}
	return components
}

func (a *Agent) detectPatterns(ctx context.Context, structure map[string]any) []string {
	prompt := fmt.Sprintf(`Based on this project structure, identify the architecture patterns being used:

Structure: %s

Common patterns include: MVC, MVP, MVVM, Microservices, Layered Architecture,
Component-Based, Event-Driven, etc.

Return a list of detected patterns.`, compactJSON(structure))

	resp, err := a.ai.Generate(ctx, prompt, aicore.Options{Temperature: 0.1})
	if err != nil {
		a.logger.Printf("architecture: pattern detection failed: %v", err)
		return []string{"Component-Based", "API-Driven"}
	}
	patterns := agents.ParseList(resp, maxPatterns)
	if len(patterns) == 0 {
		return []string{"Component-Based", "API-Driven"}
	}
	return patterns
}

func (a *Agent) generateContent(ctx context.Context, repoURL string, structure map[string]any, components, patterns []string, deps map[string]any) string {
	prompt := fmt.Sprintf(`Generate comprehensive architecture documentation in Markdown for the project at %s:

Project Structure: %s
Key Components: %s
Architecture Patterns: %s
Dependencies: %s

Include:
1. Executive Summary
2. Architecture Overview
3. Key Components Description
4. Architecture Patterns Used
5. Technology Stack
6. Component Interactions
7. Deployment Architecture`,
		repoURL, compactJSON(structure), strings.Join(components, ", "),
		strings.Join(patterns, ", "), compactJSON(deps))

	resp, err := a.ai.Generate(ctx, prompt, aicore.Options{Temperature: 0.1})
	if err != nil {
		a.logger.Printf("architecture: content generation failed: %v", err)
		return fallbackContent(structure, components, patterns)
	}
	return resp
}

func (a *Agent) generateDiagrams(ctx context.Context, components []string, deps map[string]any) []string {
	prompt := fmt.Sprintf(`Generate a Mermaid flowchart showing the system architecture for:
Components: %s
Dependencies: %s

Return only the Mermaid diagram source, starting with "graph TD".`,
		strings.Join(components, ", "), compactJSON(deps))

	resp, err := a.ai.Generate(ctx, prompt, aicore.Options{Temperature: 0.1})
	if err != nil {
		a.logger.Printf("architecture: diagram generation failed: %v", err)
		return fallbackDiagrams(components)
	}
	diagram := stripCodeFence(resp)
	if diagram == "" {
		return fallbackDiagrams(components)
	}
	return []string{diagram}
}

func fallbackContent(structure map[string]any, components, patterns []string) string {
	var b strings.Builder
	b.WriteString("# Architecture Documentation\n\n")
	b.WriteString("## Project Overview\n")
	fmt.Fprintf(&b, "This project consists of %v files organized across multiple directories.\n\n", structure["total_files"])
	b.WriteString("## Key Components\n")
	for _, c := range components {
		fmt.Fprintf(&b, "- %s\n", c)
	}
	b.WriteString("\n## Architecture Patterns\n")
	for _, p := range patterns {
		fmt.Fprintf(&b, "- %s\n", p)
	}
	if ft, ok := structure["file_types"].(map[string]any); ok && len(ft) > 0 {
		keys := make([]string, 0, len(ft))
		for k := range ft {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("\n## File Structure\n")
		fmt.Fprintf(&b, "- File types: %s\n", strings.Join(keys, ", "))
	}
	return b.String()
}

func fallbackDiagrams(components []string) []string {
	var b strings.Builder
	b.WriteString("graph TD\n")
	for i, c := range components {
		fmt.Fprintf(&b, "    C%d[%s]\n", i, c)
		if i > 0 {
			fmt.Fprintf(&b, "    C%d --> C%d\n", i-1, i)
		}
	}
	return []string{b.String()}
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```mermaid")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}

func compactJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
