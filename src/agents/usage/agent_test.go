package usage

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
	responses map[string]string
	err       error
}

func (s *scriptedAI) Generate(ctx context.Context, prompt string, opts aicore.Options) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	for keyword, resp := range s.responses {
		if strings.Contains(prompt, keyword) {
			return resp, nil
		}
	}
	return "", fmt.Errorf("unexpected prompt")
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
	assert.Equal(t, "usage_guide_generator", caps.Name)
	assert.Equal(t, []string{"project_info", "api_endpoints", "examples"}, caps.InputTypes)
	assert.Equal(t, []string{"any"}, caps.SupportedLanguages)
	assert.Equal(t, 3, caps.MaxParallelTasks)
}

func TestProcessTaskAssemblesGuide(t *testing.T) {
	ai := &scriptedAI{responses: map[string]string{
		`"Getting Started" guide`: "Install and run the app.",
		"troubleshooting guide":   "Check the logs first.",
		"best practices":          "- Pin dependency versions\n- Run tests in CI",
	}}
	agent := newAgent(t, ai)

	res, err := agent.ProcessTask(context.Background(), sdkcore.Task{
		ID:        "t1",
		InputData: map[string]any{"project_name": "docgen"},
	})
	require.NoError(t, err)
	require.True(t, res.Success)

	assert.Equal(t, "Install and run the app.", res.Data["getting_started"])
	assert.Equal(t, "Check the logs first.", res.Data["troubleshooting"])
	assert.Equal(t, []string{"Pin dependency versions", "Run tests in CI"}, res.Data["best_practices"])

	content, _ := res.Data["confluence_content"].(string)
	assert.Contains(t, content, "# docgen Usage Guide")
	assert.Contains(t, content, "## Getting Started")
	assert.Contains(t, content, "## Troubleshooting")
	assert.Contains(t, content, "- Pin dependency versions")
	assert.Equal(t, "usage_guide_generator", res.Metadata["agent_type"])
}

func TestProcessTaskDefaultsProjectName(t *testing.T) {
	ai := &scriptedAI{err: fmt.Errorf("offline")}
	agent := newAgent(t, ai)

	res, err := agent.ProcessTask(context.Background(), sdkcore.Task{ID: "t1"})
	require.NoError(t, err)
	require.True(t, res.Success)

	content, _ := res.Data["confluence_content"].(string)
	assert.Contains(t, content, "# Project Usage Guide")
}

func TestProcessTaskFallsBackWhenModelFails(t *testing.T) {
	ai := &scriptedAI{err: fmt.Errorf("offline")}
	agent := newAgent(t, ai)

	res, err := agent.ProcessTask(context.Background(), sdkcore.Task{
		ID:        "t1",
		InputData: map[string]any{"project_name": "docgen"},
	})
	require.NoError(t, err)
	require.True(t, res.Success)

	gettingStarted, _ := res.Data["getting_started"].(string)
	assert.Contains(t, gettingStarted, "# Getting Started with docgen")

	practices, _ := res.Data["best_practices"].([]string)
	assert.Contains(t, practices, "Use environment variables for configuration")
	assert.Contains(t, practices, "Follow security best practices")
}

func TestBestPracticesCapped(t *testing.T) {
	var list strings.Builder
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&list, "- Practice %d\n", i)
	}
	ai := &scriptedAI{responses: map[string]string{
		`"Getting Started" guide`: "start",
		"troubleshooting guide":   "fix",
		"best practices":          list.String(),
	}}
	agent := newAgent(t, ai)

	res, err := agent.ProcessTask(context.Background(), sdkcore.Task{ID: "t1"})
	require.NoError(t, err)

	practices, _ := res.Data["best_practices"].([]string)
	assert.Len(t, practices, maxBestPractices)
}
