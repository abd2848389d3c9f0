package core

import "time"

const (
	// DefaultMaxParallelTasks bounds concurrent task executions per agent
	// when the capability descriptor does not say otherwise.
	DefaultMaxParallelTasks = 5
	// DefaultTimeoutSeconds is the per-task deadline applied when neither
	// the task nor the capability descriptor sets one.
	DefaultTimeoutSeconds = 300
)

// Capabilities describes what an agent accepts, produces, and how much
// concurrency and time it is allowed. Name is the unique key under which an
// agent is known to a Registry or SDK instance.
type Capabilities struct {
	Name               string   `json:"name"`
	Description        string   `json:"description"`
	InputTypes         []string `json:"input_types"`
	OutputTypes        []string `json:"output_types"`
	SupportedLanguages []string `json:"supported_languages"`
	MaxParallelTasks   int      `json:"max_parallel_tasks"`
	TimeoutSeconds     int      `json:"timeout_seconds"`
}

// WithDefaults fills the numeric limits when unset.
func (c Capabilities) WithDefaults() Capabilities {
	if c.MaxParallelTasks <= 0 {
		c.MaxParallelTasks = DefaultMaxParallelTasks
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = DefaultTimeoutSeconds
	}
	return c
}

// Task is one unit of work submitted to an agent. Priority is advisory
// metadata only; no component schedules by it.
type Task struct {
	ID             string         `json:"id"`
	Type           string         `json:"type"`
	InputData      map[string]any `json:"input_data"`
	Priority       int            `json:"priority"`
	TimeoutSeconds int            `json:"timeout_seconds,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// Timeout resolves the task deadline against the owning agent's capabilities.
func (t Task) Timeout(caps Capabilities) time.Duration {
	secs := t.TimeoutSeconds
	if secs <= 0 {
		secs = caps.WithDefaults().TimeoutSeconds
	}
	return time.Duration(secs) * time.Second
}

// Result is the outcome of executing one task. Success implies Error is
// empty; a failure carries a human-readable message and no Data.
type Result struct {
	TaskID        string         `json:"task_id"`
	Success       bool           `json:"success"`
	Data          map[string]any `json:"data,omitempty"`
	Error         string         `json:"error,omitempty"`
	ExecutionTime float64        `json:"execution_time"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// Failure builds a failed result for a task.
func Failure(taskID, message string, elapsed time.Duration) *Result {
	return &Result{
		TaskID:        taskID,
		Success:       false,
		Error:         message,
		ExecutionTime: elapsed.Seconds(),
	}
}

// AgentStatus is a point-in-time snapshot of one agent's activity.
type AgentStatus struct {
	Name          string       `json:"name"`
	ActiveTasks   int          `json:"active_tasks"`
	ActiveTaskIDs []string     `json:"active_task_ids"`
	Capabilities  Capabilities `json:"capabilities"`
}

// SystemStatus aggregates agent status across an SDK instance.
type SystemStatus struct {
	TotalAgents      int                    `json:"total_agents"`
	TotalActiveTasks int                    `json:"total_active_tasks"`
	Agents           map[string]AgentStatus `json:"agents"`
}
