package usage

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

const maxBestPractices = 15

// Agent generates getting-started guides, tutorials, and best practices.
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
			Name:               "usage_guide_generator",
			Description:        "Generates usage guides, tutorials, and best practices documentation",
			InputTypes:         []string{"project_info", "api_endpoints", "examples"},
			OutputTypes:        []string{"usage_guide", "tutorials", "best_practices"},
			SupportedLanguages: []string{"any"},
			MaxParallelTasks:   3,
		},
	}, nil
}

func (a *Agent) Capabilities() sdkcore.Capabilities { return a.caps }

func (a *Agent) ProcessTask(ctx context.Context, task sdkcore.Task) (*sdkcore.Result, error) {
	projectName, _ := task.InputData["project_name"].(string)
	if projectName == "" {
		projectName = "Project"
	}

	info := projectInfo(task.InputData)

	gettingStarted := a.gettingStarted(ctx, projectName, info)
	troubleshooting := a.troubleshooting(ctx, projectName, info)
	practices := a.bestPractices(ctx, projectName, info)
	content := assemble(projectName, gettingStarted, troubleshooting, practices)

	return &sdkcore.Result{
		TaskID:  task.ID,
		Success: true,
		Data: map[string]any{
			"getting_started":    gettingStarted,
			"troubleshooting":    troubleshooting,
			"best_practices":     practices,
			"confluence_content": content,
		},
		Metadata: map[string]any{"agent_type": a.caps.Name},
	}, nil
}

func projectInfo(input map[string]any) map[string]any {
	if info, ok := input["project_info"].(map[string]any); ok {
		return info
	}
	return map[string]any{}
}

func (a *Agent) gettingStarted(ctx context.Context, project string, info map[string]any) string {
	prompt := fmt.Sprintf(`Generate a comprehensive "Getting Started" guide for %s based on:

Project Info: %s

Include:
1. Prerequisites and requirements
2. Installation instructions
3. Basic configuration
4. First steps to run the application
5. Verification steps

Make it beginner-friendly and step-by-step.`, project, compactJSON(info))

	resp, err := a.ai.Generate(ctx, prompt, aicore.Options{Temperature: 0.3})
	if err != nil {
		a.logger.Printf("usage: getting started for %s failed: %v", project, err)
		return fallbackGettingStarted(project)
	}
	return resp
}

func (a *Agent) troubleshooting(ctx context.Context, project string, info map[string]any) string {
	prompt := fmt.Sprintf(`Generate a troubleshooting guide for %s.

Project Info: %s

Include common issues and solutions for:
1. Installation and setup problems
2. Configuration issues
3. Runtime errors
4. API connectivity problems
5. Performance issues

Format as FAQ with clear problem descriptions and step-by-step solutions.`, project, compactJSON(info))

	resp, err := a.ai.Generate(ctx, prompt, aicore.Options{Temperature: 0.3})
	if err != nil {
		a.logger.Printf("usage: troubleshooting for %s failed: %v", project, err)
		return fallbackTroubleshooting()
	}
	return resp
}

func (a *Agent) bestPractices(ctx context.Context, project string, info map[string]any) []string {
	prompt := fmt.Sprintf(`Generate best practices for using %s.

Project Info: %s

Return a list of practices covering development, configuration management,
API usage, testing, deployment, monitoring, and security.
Each practice should be concise and actionable.`, project, compactJSON(info))

	resp, err := a.ai.Generate(ctx, prompt, aicore.Options{Temperature: 0.3})
	if err != nil {
		a.logger.Printf("usage: best practices for %s failed: %v", project, err)
		return fallbackBestPractices()
	}
	practices := agents.ParseList(resp, maxBestPractices)
	if len(practices) == 0 {
		return fallbackBestPractices()
	}
	return practices
}

func assemble(project, gettingStarted, troubleshooting string, practices []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s Usage Guide\n\n", project)
	b.WriteString("## Getting Started\n")
	b.WriteString(gettingStarted)
	b.WriteString("\n\n## Troubleshooting\n")
	b.WriteString(troubleshooting)
	b.WriteString("\n\n## Best Practices\n")
	for _, p := range practices {
		fmt.Fprintf(&b, "- %s\n", p)
	}
	return b.String()
}

func fallbackGettingStarted(project string) string {
	return fmt.Sprintf(`# Getting Started with %s

## Prerequisites
- Runtime for the project's primary language
- Docker (if using containerization)

## Installation
1. Clone the repository
2. Install dependencies
3. Configure environment variables
4. Run the application

## Running the Application
Follow the instructions in the project README file.`, project)
}

func fallbackTroubleshooting() string {
	return `# Troubleshooting

## Installation Problems
- Check that all prerequisites are installed
- Verify network connectivity

## Configuration Issues
- Verify environment variables are set correctly
- Check configuration file syntax

## Runtime Errors
- Check application logs
- Verify all services are running`
}

func fallbackBestPractices() []string {
	return []string{
		"Follow consistent code style and formatting",
		"Write comprehensive unit tests for all components",
		"Use environment variables for configuration",
		"Implement proper error handling and logging",
		"Document all public APIs and interfaces",
		"Monitor application performance and errors",
		"Keep dependencies up to date",
		"Follow security best practices",
	}
}

func compactJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
