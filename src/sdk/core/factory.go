package core

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
)

// ErrUnknownAgentType is returned when a caller names an unregistered type.
var ErrUnknownAgentType = errors.New("factory: unknown agent type")

// Constructor builds an agent instance. A nil config requests the default
// construction; constructors that cannot honor the supplied config should
// return an error rather than guess.
type Constructor func(config map[string]any) (Agent, error)

// WorkflowStep configures one step of a multi-agent workflow.
type WorkflowStep struct {
	AgentType string         `json:"agent_type"`
	Config    map[string]any `json:"config,omitempty"`
	Inputs    map[string]any `json:"inputs,omitempty"`
}

// Factory creates agent instances from a compile-time registry of
// constructors and tracks every live instance in a flat pool.
type Factory struct {
	logger *log.Logger

	mu        sync.RWMutex
	types     map[string]Constructor
	instances map[string]*Executor
	created   int
}

// TypeInfo describes one registered agent type.
type TypeInfo struct {
	Type         string       `json:"type"`
	Capabilities Capabilities `json:"capabilities"`
}

// InstanceInfo describes one live instance in the pool.
type InstanceInfo struct {
	InstanceID string      `json:"instance_id"`
	Type       string      `json:"type"`
	Status     AgentStatus `json:"status"`
}

// NewFactory builds a factory with the supplied built-in types
// pre-registered. Nil constructors are rejected.
func NewFactory(builtins map[string]Constructor, logger *log.Logger) (*Factory, error) {
	f := &Factory{
		logger:    logger,
		types:     make(map[string]Constructor),
		instances: make(map[string]*Executor),
	}
	for name, ctor := range builtins {
		if err := f.RegisterType(name, ctor); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// RegisterType adds a new agent type. The constructor is probed once with a
// nil config to verify it satisfies the capability contract.
func (f *Factory) RegisterType(agentType string, ctor Constructor) error {
	if agentType == "" {
		return fmt.Errorf("factory: agent type name is required")
	}
	if ctor == nil {
		return fmt.Errorf("factory: constructor for %q is nil", agentType)
	}

	probe, err := ctor(nil)
	if err != nil {
		return fmt.Errorf("factory: constructor for %q failed probe: %w", agentType, err)
	}
	if probe == nil || probe.Capabilities().Name == "" {
		return fmt.Errorf("factory: type %q does not satisfy the agent capability contract", agentType)
	}

	f.mu.Lock()
	f.types[agentType] = ctor
	f.mu.Unlock()

	f.logf("registered agent type: %s", agentType)
	return nil
}

// LoadPlugin registers a custom agent type supplied by the embedding
// application. Same contract as RegisterType; the separate name marks the
// extension point.
func (f *Factory) LoadPlugin(agentType string, ctor Constructor) error {
	return f.RegisterType(agentType, ctor)
}

// CreateAgent builds an instance of the named type, stores it in the pool
// under a synthetic id, and returns its executor. A config the constructor
// rejects is retried as a default construction.
func (f *Factory) CreateAgent(agentType string, config map[string]any) (*Executor, string, error) {
	f.mu.RLock()
	ctor, ok := f.types[agentType]
	f.mu.RUnlock()
	if !ok {
		return nil, "", fmt.Errorf("%w: %s", ErrUnknownAgentType, agentType)
	}

	agent, err := ctor(config)
	if err != nil && config != nil {
		// Constructor rejected the config; fall back to default construction.
		agent, err = ctor(nil)
	}
	if err != nil {
		return nil, "", fmt.Errorf("factory: create %s: %w", agentType, err)
	}

	exec := NewExecutor(agent, f.logger)

	f.mu.Lock()
	instanceID := fmt.Sprintf("%s_%d", agentType, f.created)
	f.created++
	f.instances[instanceID] = exec
	f.mu.Unlock()

	f.logf("created agent instance: %s", instanceID)
	return exec, instanceID, nil
}

// CreateAgentPool builds size instances of one type. If any creation fails
// partway, every instance created by this call is destroyed before the error
// is returned.
func (f *Factory) CreateAgentPool(agentType string, size int, config map[string]any) ([]*Executor, error) {
	if size <= 0 {
		return nil, fmt.Errorf("factory: pool size must be positive")
	}

	pool := make([]*Executor, 0, size)
	ids := make([]string, 0, size)
	for i := 0; i < size; i++ {
		exec, id, err := f.CreateAgent(agentType, config)
		if err != nil {
			for _, createdID := range ids {
				f.DestroyInstance(createdID)
			}
			return nil, fmt.Errorf("factory: pool member %d: %w", i, err)
		}
		pool = append(pool, exec)
		ids = append(ids, id)
	}

	f.logf("created agent pool of %d %s agents", size, agentType)
	return pool, nil
}

// Instance fetches a live instance by id.
func (f *Factory) Instance(instanceID string) (*Executor, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	exec, ok := f.instances[instanceID]
	return exec, ok
}

// DestroyInstance removes an instance from the pool.
func (f *Factory) DestroyInstance(instanceID string) {
	f.mu.Lock()
	_, existed := f.instances[instanceID]
	delete(f.instances, instanceID)
	f.mu.Unlock()
	if existed {
		f.logf("destroyed agent instance: %s", instanceID)
	}
}

// InstanceCount reports the current pool size.
func (f *Factory) InstanceCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.instances)
}

// Capabilities returns the capability descriptor for a registered type, built
// from a throwaway default construction.
func (f *Factory) Capabilities(agentType string) (Capabilities, error) {
	f.mu.RLock()
	ctor, ok := f.types[agentType]
	f.mu.RUnlock()
	if !ok {
		return Capabilities{}, fmt.Errorf("%w: %s", ErrUnknownAgentType, agentType)
	}

	probe, err := ctor(nil)
	if err != nil {
		return Capabilities{}, fmt.Errorf("factory: capabilities for %s: %w", agentType, err)
	}
	return probe.Capabilities().WithDefaults(), nil
}

// ListTypes describes every registered type in name order.
func (f *Factory) ListTypes() []TypeInfo {
	f.mu.RLock()
	names := make([]string, 0, len(f.types))
	for name := range f.types {
		names = append(names, name)
	}
	f.mu.RUnlock()
	sort.Strings(names)

	out := make([]TypeInfo, 0, len(names))
	for _, name := range names {
		caps, err := f.Capabilities(name)
		if err != nil {
			f.logf("describe type %s: %v", name, err)
			continue
		}
		out = append(out, TypeInfo{Type: name, Capabilities: caps})
	}
	return out
}

// ListInstances describes every live instance in the pool.
func (f *Factory) ListInstances() []InstanceInfo {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]InstanceInfo, 0, len(f.instances))
	for id, exec := range f.instances {
		out = append(out, InstanceInfo{
			InstanceID: id,
			Type:       exec.Capabilities().Name,
			Status:     exec.Status(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InstanceID < out[j].InstanceID })
	return out
}

// ValidateWorkflowConfig reports every step that references an unknown agent
// type or omits a capability-declared required input. Pure validation, no
// side effects on the pool.
func (f *Factory) ValidateWorkflowConfig(workflow map[string]WorkflowStep) []string {
	var issues []string

	steps := make([]string, 0, len(workflow))
	for name := range workflow {
		steps = append(steps, name)
	}
	sort.Strings(steps)

	for _, stepName := range steps {
		step := workflow[stepName]
		if step.AgentType == "" {
			issues = append(issues, fmt.Sprintf("step %q: missing agent_type", stepName))
			continue
		}

		caps, err := f.Capabilities(step.AgentType)
		if err != nil {
			issues = append(issues, fmt.Sprintf("step %q: unknown agent_type %q", stepName, step.AgentType))
			continue
		}

		for _, required := range caps.InputTypes {
			if _, ok := step.Inputs[required]; !ok {
				issues = append(issues, fmt.Sprintf("step %q: missing required input %q", stepName, required))
			}
		}
	}
	return issues
}

// DestroyAllInstances empties the pool.
func (f *Factory) DestroyAllInstances() {
	f.mu.Lock()
	f.instances = make(map[string]*Executor)
	f.mu.Unlock()
	f.logf("destroyed all agent instances")
}

func (f *Factory) logf(format string, args ...any) {
	if f.logger != nil {
		f.logger.Printf(format, args...)
	}
}
