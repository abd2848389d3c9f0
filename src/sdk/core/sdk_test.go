package core

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteTaskUnknownAgent(t *testing.T) {
	s := NewSDK(nil)

	res := s.ExecuteTask(context.Background(), "ghost", Task{ID: "t1"})
	require.NotNil(t, res)
	assert.False(t, res.Success)
	assert.Equal(t, `agent "ghost" not found`, res.Error)
	assert.Equal(t, "t1", res.TaskID)
}

func TestRegisterAndExecuteTask(t *testing.T) {
	s := NewSDK(nil)
	s.RegisterAgent(&stubAgent{caps: testCaps("echo")})

	res := s.ExecuteTask(context.Background(), "echo", Task{ID: "t1"})
	assert.True(t, res.Success)
	assert.Equal(t, "t1", res.Data["echo"])
}

func TestRegisterReplacesSameName(t *testing.T) {
	s := NewSDK(nil)
	s.RegisterAgent(&stubAgent{caps: testCaps("echo")})
	s.RegisterAgent(&stubAgent{
		caps: testCaps("echo"),
		process: func(ctx context.Context, task Task) (*Result, error) {
			return &Result{TaskID: task.ID, Success: true, Data: map[string]any{"v": 2}}, nil
		},
	})

	res := s.ExecuteTask(context.Background(), "echo", Task{ID: "t1"})
	require.True(t, res.Success)
	assert.Equal(t, 2, res.Data["v"])
	assert.Len(t, s.ListAgents(), 1)
}

func TestUnregisterAgent(t *testing.T) {
	s := NewSDK(nil)
	s.RegisterAgent(&stubAgent{caps: testCaps("echo")})
	s.UnregisterAgent("echo")

	_, ok := s.Agent("echo")
	assert.False(t, ok)

	res := s.ExecuteTask(context.Background(), "echo", Task{ID: "t1"})
	assert.False(t, res.Success)
}

func TestListAgentsSorted(t *testing.T) {
	s := NewSDK(nil)
	s.RegisterAgent(&stubAgent{caps: testCaps("zeta")})
	s.RegisterAgent(&stubAgent{caps: testCaps("alpha")})

	infos := s.ListAgents()
	require.Len(t, infos, 2)
	assert.Equal(t, "alpha", infos[0].Name)
	assert.Equal(t, "zeta", infos[1].Name)
	assert.Equal(t, []string{"repository_url"}, infos[0].InputTypes)
}

func TestExecuteWorkflowMirrorsShape(t *testing.T) {
	s := NewSDK(nil)
	s.RegisterAgent(&stubAgent{caps: testCaps("arch")})
	s.RegisterAgent(&stubAgent{caps: testCaps("comp")})

	results := s.ExecuteWorkflow(context.Background(), Workflow{
		"arch": {{InputData: map[string]any{"repository_url": "https://github.com/x/y"}}},
		"comp": {
			{ID: "explicit"},
			{},
			{},
		},
	})

	require.Len(t, results, 2)
	require.Len(t, results["arch"], 1)
	require.Len(t, results["comp"], 3)

	// Missing ids are synthesized from the agent name and position.
	assert.Equal(t, "arch_0", results["arch"][0].TaskID)
	assert.Equal(t, "explicit", results["comp"][0].TaskID)
	assert.Equal(t, "comp_1", results["comp"][1].TaskID)
	assert.Equal(t, "comp_2", results["comp"][2].TaskID)

	for _, batch := range results {
		for _, res := range batch {
			assert.True(t, res.Success)
		}
	}
}

func TestExecuteWorkflowUnknownAgent(t *testing.T) {
	s := NewSDK(nil)
	s.RegisterAgent(&stubAgent{caps: testCaps("arch")})

	results := s.ExecuteWorkflow(context.Background(), Workflow{
		"arch":  {{}},
		"ghost": {{}, {}},
	})

	require.Len(t, results["ghost"], 1)
	assert.False(t, results["ghost"][0].Success)
	assert.Equal(t, `agent "ghost" not found`, results["ghost"][0].Error)
	assert.True(t, results["arch"][0].Success)
}

func TestExecuteWorkflowIsolatesFailures(t *testing.T) {
	s := NewSDK(nil)
	s.RegisterAgent(&stubAgent{caps: testCaps("good")})
	s.RegisterAgent(&stubAgent{
		caps: testCaps("bad"),
		process: func(ctx context.Context, task Task) (*Result, error) {
			return nil, fmt.Errorf("model refused")
		},
	})

	results := s.ExecuteWorkflow(context.Background(), Workflow{
		"good": {{}},
		"bad":  {{}},
	})

	assert.True(t, results["good"][0].Success)
	assert.False(t, results["bad"][0].Success)
	assert.Contains(t, results["bad"][0].Error, "model refused")
}

func TestSystemStatus(t *testing.T) {
	s := NewSDK(nil)
	s.RegisterAgent(&stubAgent{caps: testCaps("arch")})
	s.RegisterAgent(&stubAgent{caps: testCaps("comp")})

	status := s.SystemStatus()
	assert.Equal(t, 2, status.TotalAgents)
	assert.Equal(t, 0, status.TotalActiveTasks)
	require.Contains(t, status.Agents, "arch")
	assert.Equal(t, "arch", status.Agents["arch"].Name)
	assert.Equal(t, 2, status.Agents["arch"].Capabilities.MaxParallelTasks)
}

func TestSystemStatusCountsActiveTasks(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	s := NewSDK(nil)
	s.RegisterAgent(&stubAgent{
		caps: testCaps("busy"),
		process: func(ctx context.Context, task Task) (*Result, error) {
			close(started)
			<-release
			return &Result{TaskID: task.ID, Success: true}, nil
		},
	})

	done := make(chan struct{})
	go func() {
		s.ExecuteTask(context.Background(), "busy", Task{ID: "t1"})
		close(done)
	}()

	<-started
	status := s.SystemStatus()
	assert.Equal(t, 1, status.TotalActiveTasks)

	close(release)
	<-done
}
