package mcp

// ToolDescriptor advertises one callable tool to MCP clients.
type ToolDescriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Method      string         `json:"method"`
	Endpoint    string         `json:"endpoint"`
	Parameters  map[string]any `json:"parameters"`
}

// Tools lists the documentation tools this server exposes.
func Tools() []ToolDescriptor {
	return []ToolDescriptor{
		{
			Name:        "list_projects",
			Description: "List every documented project with its repository URL and Confluence space.",
			Method:      "GET",
			Endpoint:    "/v1/projects",
			Parameters:  map[string]any{"type": "object", "properties": map[string]any{}},
		},
		{
			Name:        "get_project_architecture",
			Description: "Fetch the latest architecture analysis for a project: structure, key components, patterns, dependencies, and Mermaid diagrams.",
			Method:      "GET",
			Endpoint:    "/v1/projects/{project_id}/architecture",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"project_id": map[string]any{
						"type":        "string",
						"description": "Project identifier returned by list_projects.",
					},
				},
				"required": []string{"project_id"},
			},
		},
		{
			Name:        "search_components",
			Description: "List or search a project's documented components by name or description.",
			Method:      "GET",
			Endpoint:    "/v1/projects/{project_id}/components",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"project_id": map[string]any{
						"type":        "string",
						"description": "Project identifier.",
					},
					"q": map[string]any{
						"type":        "string",
						"description": "Optional substring to match against component names and descriptions.",
					},
				},
				"required": []string{"project_id"},
			},
		},
		{
			Name:        "get_project_statistics",
			Description: "Fetch component, documentation, and agent-run counts for a project.",
			Method:      "GET",
			Endpoint:    "/v1/projects/{project_id}/statistics",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"project_id": map[string]any{
						"type":        "string",
						"description": "Project identifier.",
					},
				},
				"required": []string{"project_id"},
			},
		},
		{
			Name:        "get_agent_capabilities",
			Description: "List every registered documentation agent with its input types, output types, languages, and concurrency limits.",
			Method:      "GET",
			Endpoint:    "/v1/agents",
			Parameters:  map[string]any{"type": "object", "properties": map[string]any{}},
		},
		{
			Name:        "trigger_documentation_generation",
			Description: "Queue documentation generation for a repository. Provide repo_url, optional space, and optional export_format (confluence, markdown, both).",
			Method:      "POST",
			Endpoint:    "/v1/generate",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"repo_url": map[string]any{
						"type":        "string",
						"description": "Git repository URL to document.",
					},
					"space": map[string]any{
						"type":        "string",
						"description": "Optional Confluence space key.",
					},
					"export_format": map[string]any{
						"type":        "string",
						"description": "Where to publish the result. Defaults to confluence.",
						"enum":        []string{"confluence", "markdown", "both"},
					},
				},
				"required": []string{"repo_url"},
			},
		},
	}
}
