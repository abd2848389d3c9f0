package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
)

// ErrUnknownAgent indicates no agent was registered under the provided name.
var ErrUnknownAgent = errors.New("sdk: unknown agent")

// TaskSpec is the raw form of a task inside a workflow; missing ids are
// synthesized from the owning agent name and batch position.
type TaskSpec struct {
	ID        string         `json:"id,omitempty"`
	Type      string         `json:"type,omitempty"`
	InputData map[string]any `json:"input_data,omitempty"`
	Priority  int            `json:"priority,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Workflow maps agent names to ordered task batches executed together.
type Workflow map[string][]TaskSpec

// AgentInfo summarizes one registered agent for listing surfaces.
type AgentInfo struct {
	Name               string      `json:"name"`
	Description        string      `json:"description"`
	InputTypes         []string    `json:"input_types"`
	OutputTypes        []string    `json:"output_types"`
	SupportedLanguages []string    `json:"supported_languages"`
	Status             AgentStatus `json:"status"`
}

// SDK coordinates live agent instances: it dispatches single tasks and whole
// multi-agent workflows and aggregates results. The agent map is guarded for
// concurrent use, but registration is expected from a single control path.
type SDK struct {
	logger *log.Logger

	mu     sync.RWMutex
	agents map[string]*Executor
}

// NewSDK returns an empty coordinator.
func NewSDK(logger *log.Logger) *SDK {
	return &SDK{
		logger: logger,
		agents: make(map[string]*Executor),
	}
}

// RegisterAgent wraps the agent in an executor and stores it under its
// capability name, replacing any prior registration of that name.
func (s *SDK) RegisterAgent(agent Agent) *Executor {
	exec := NewExecutor(agent, s.logger)
	s.RegisterExecutor(exec)
	return exec
}

// RegisterExecutor stores an already-wrapped agent, e.g. one built by the
// factory.
func (s *SDK) RegisterExecutor(exec *Executor) {
	name := exec.Capabilities().Name
	s.mu.Lock()
	s.agents[name] = exec
	s.mu.Unlock()
	s.logf("registered agent: %s", name)
}

// UnregisterAgent removes an agent by name.
func (s *SDK) UnregisterAgent(name string) {
	s.mu.Lock()
	_, existed := s.agents[name]
	delete(s.agents, name)
	s.mu.Unlock()
	if existed {
		s.logf("unregistered agent: %s", name)
	}
}

// Agent fetches a registered agent's executor by name.
func (s *SDK) Agent(name string) (*Executor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	exec, ok := s.agents[name]
	return exec, ok
}

// ListAgents describes all registered agents sorted by name.
func (s *SDK) ListAgents() []AgentInfo {
	s.mu.RLock()
	execs := make([]*Executor, 0, len(s.agents))
	for _, exec := range s.agents {
		execs = append(execs, exec)
	}
	s.mu.RUnlock()

	out := make([]AgentInfo, 0, len(execs))
	for _, exec := range execs {
		caps := exec.Capabilities()
		out = append(out, AgentInfo{
			Name:               caps.Name,
			Description:        caps.Description,
			InputTypes:         caps.InputTypes,
			OutputTypes:        caps.OutputTypes,
			SupportedLanguages: caps.SupportedLanguages,
			Status:             exec.Status(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ExecuteTask dispatches one task to the named agent. An unknown name yields
// a failure result, not an error.
func (s *SDK) ExecuteTask(ctx context.Context, agentName string, task Task) *Result {
	exec, ok := s.Agent(agentName)
	if !ok {
		return Failure(task.ID, fmt.Sprintf("agent %q not found", agentName), 0)
	}
	return exec.ExecuteTask(ctx, task)
}

// ExecuteWorkflow materializes each agent's task specs and runs all agents'
// batches concurrently through their bounded-parallel executors. The result
// shape mirrors the input: one slice per agent name whose length matches
// that agent's task count, or a single synthetic failure when the agent is
// unknown or its whole batch faulted.
func (s *SDK) ExecuteWorkflow(ctx context.Context, workflow Workflow) map[string][]*Result {
	results := make(map[string][]*Result, len(workflow))

	type batch struct {
		name  string
		exec  *Executor
		tasks []Task
	}
	var batches []batch

	var mu sync.Mutex
	for agentName, specs := range workflow {
		exec, ok := s.Agent(agentName)
		if !ok {
			results[agentName] = []*Result{Failure("unknown", fmt.Sprintf("agent %q not found", agentName), 0)}
			continue
		}
		batches = append(batches, batch{name: agentName, exec: exec, tasks: materializeTasks(agentName, specs)})
	}

	var wg sync.WaitGroup
	for _, b := range batches {
		wg.Add(1)
		go func(b batch) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					mu.Lock()
					results[b.name] = []*Result{Failure("unknown", fmt.Sprintf("workflow batch for %q panicked: %v", b.name, r), 0)}
					mu.Unlock()
				}
			}()
			batchResults := b.exec.ExecuteTasksParallel(ctx, b.tasks)
			mu.Lock()
			results[b.name] = batchResults
			mu.Unlock()
		}(b)
	}
	wg.Wait()

	return results
}

// SystemStatus reports totals and per-agent snapshots.
func (s *SDK) SystemStatus() SystemStatus {
	s.mu.RLock()
	execs := make(map[string]*Executor, len(s.agents))
	for name, exec := range s.agents {
		execs[name] = exec
	}
	s.mu.RUnlock()

	status := SystemStatus{
		TotalAgents: len(execs),
		Agents:      make(map[string]AgentStatus, len(execs)),
	}
	for name, exec := range execs {
		snap := exec.Status()
		status.Agents[name] = snap
		status.TotalActiveTasks += snap.ActiveTasks
	}
	return status
}

func materializeTasks(agentName string, specs []TaskSpec) []Task {
	tasks := make([]Task, len(specs))
	for i, spec := range specs {
		id := spec.ID
		if id == "" {
			id = fmt.Sprintf("%s_%d", agentName, i)
		}
		taskType := spec.Type
		if taskType == "" {
			taskType = "default"
		}
		tasks[i] = Task{
			ID:        id,
			Type:      taskType,
			InputData: spec.InputData,
			Priority:  spec.Priority,
			Metadata:  spec.Metadata,
		}
	}
	return tasks
}

func (s *SDK) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}
