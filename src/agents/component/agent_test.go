package component

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsmith/docgen/src/agents"
	aicore "github.com/docsmith/docgen/src/ai/core"
	sdkcore "github.com/docsmith/docgen/src/sdk/core"
)

type scriptedAI struct {
	analysisResp string
	docResp      string
	err          error
	prompts      []string
}

func (s *scriptedAI) Generate(ctx context.Context, prompt string, opts aicore.Options) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	if strings.Contains(prompt, "Provide analysis in JSON format") {
		return s.analysisResp, nil
	}
	return s.docResp, nil
}

func newAgent(t *testing.T, ai aicore.Client) *Agent {
	t.Helper()
	agent, err := New(agents.RuntimeDeps{AI: ai}, nil)
	require.NoError(t, err)
	return agent
}

func TestCapabilities(t *testing.T) {
	agent := newAgent(t, &scriptedAI{})

	caps := agent.Capabilities()
	assert.Equal(t, "component_documenter", caps.Name)
	assert.Equal(t, []string{"component_info", "source_code"}, caps.InputTypes)
	assert.Equal(t, 5, caps.MaxParallelTasks)
}

func TestProcessTaskRequiresComponentName(t *testing.T) {
	agent := newAgent(t, &scriptedAI{})

	res, err := agent.ProcessTask(context.Background(), sdkcore.Task{ID: "t1"})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "component_name is required", res.Error)
}

func TestProcessTaskDocumentsComponent(t *testing.T) {
	ai := &scriptedAI{
		analysisResp: `Here is the analysis:
{
  "type": "Service",
  "description": "Handles authentication",
  "interfaces": ["Login", "Logout"],
  "dependencies": ["redis"],
  "usage_examples": ["svc.Login(user)"],
  "complexity": "Medium"
}`,
		docResp: "# AuthService\n\nFull docs.",
	}
	agent := newAgent(t, ai)

	res, err := agent.ProcessTask(context.Background(), sdkcore.Task{
		ID: "t1",
		InputData: map[string]any{
			"component_name": "AuthService",
			"source_code":    "func Login() {}",
		},
	})
	require.NoError(t, err)
	require.True(t, res.Success)

	assert.Equal(t, "AuthService", res.Data["component_name"])
	assert.Equal(t, "Service", res.Data["type"])
	assert.Equal(t, "Handles authentication", res.Data["description"])
	assert.Equal(t, []string{"Login", "Logout"}, res.Data["interfaces"])
	assert.Equal(t, []string{"redis"}, res.Data["dependencies"])
	assert.Equal(t, "# AuthService\n\nFull docs.", res.Data["confluence_content"])
	assert.Equal(t, "AuthService", res.Metadata["component"])
}

func TestProcessTaskFallsBackWhenModelFails(t *testing.T) {
	ai := &scriptedAI{err: fmt.Errorf("quota exceeded")}
	agent := newAgent(t, ai)

	res, err := agent.ProcessTask(context.Background(), sdkcore.Task{
		ID:        "t1",
		InputData: map[string]any{"component_name": "Billing"},
	})
	require.NoError(t, err)
	require.True(t, res.Success)

	assert.Equal(t, "Component", res.Data["type"])
	assert.Equal(t, "Component Billing", res.Data["description"])

	content, _ := res.Data["confluence_content"].(string)
	assert.Contains(t, content, "# Billing Component Documentation")
	assert.Contains(t, content, "No public interfaces documented")
}

func TestProcessTaskFallsBackOnUnparseableAnalysis(t *testing.T) {
	ai := &scriptedAI{
		analysisResp: "I cannot produce JSON for this.",
		docResp:      "docs",
	}
	agent := newAgent(t, ai)

	res, err := agent.ProcessTask(context.Background(), sdkcore.Task{
		ID:        "t1",
		InputData: map[string]any{"component_name": "Gateway"},
	})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, "Component", res.Data["type"])
	assert.Equal(t, "Component Gateway", res.Data["description"])
}

func TestProcessTaskTruncatesLongSource(t *testing.T) {
	ai := &scriptedAI{
		analysisResp: `{"type": "Module", "description": "big"}`,
		docResp:      "docs",
	}
	agent := newAgent(t, ai)

	longSource := strings.Repeat("x", 20000)
	_, err := agent.ProcessTask(context.Background(), sdkcore.Task{
		ID: "t1",
		InputData: map[string]any{
			"component_name": "Big",
			"source_code":    longSource,
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, ai.prompts)
	analysisPrompt := ai.prompts[0]
	assert.Contains(t, analysisPrompt, "... (truncated)")
	assert.Less(t, len(analysisPrompt), 15000)
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, extractJSON("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, extractJSON(`The answer is {"a":1} as requested.`))
	assert.Equal(t, "no braces here", extractJSON("no braces here"))
}
