package core

import "context"

// Agent is the unit of documentation-generation capability. Implementations
// supply ProcessTask; the Executor wraps it with deadline enforcement, fault
// capture, and timing.
type Agent interface {
	Capabilities() Capabilities
	ProcessTask(ctx context.Context, task Task) (*Result, error)
}

// Lifecycle allows agents holding external resources to be started/stopped.
type Lifecycle interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context)
}
