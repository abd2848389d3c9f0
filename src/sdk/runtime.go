package sdk

import "github.com/docsmith/docgen/src/sdk/core"

// Re-exports so callers outside the SDK work against one import path.

type (
	Capabilities = core.Capabilities
	Task         = core.Task
	Result       = core.Result
	TaskSpec     = core.TaskSpec
	Workflow     = core.Workflow
	Agent        = core.Agent
	Executor     = core.Executor
	Factory      = core.Factory
	Registry     = core.Registry
	Requirements = core.Requirements
	SDK          = core.SDK
)

var (
	ErrUnknownAgent     = core.ErrUnknownAgent
	ErrUnknownAgentType = core.ErrUnknownAgentType
)
