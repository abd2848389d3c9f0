package sdk

import (
	"fmt"
	"log"

	"github.com/docsmith/docgen/src/agents"
	"github.com/docsmith/docgen/src/agents/architecture"
	"github.com/docsmith/docgen/src/agents/component"
	"github.com/docsmith/docgen/src/agents/usage"
	"github.com/docsmith/docgen/src/sdk/core"
)

// Runtime bundles the coordinator, factory, and registry with one instance of
// each built-in agent already registered.
type Runtime struct {
	SDK      *core.SDK
	Factory  *core.Factory
	Registry *core.Registry
}

// Builtins returns the constructor table for the documentation agents, with
// the runtime dependencies bound in.
func Builtins(deps agents.RuntimeDeps) map[string]core.Constructor {
	return map[string]core.Constructor{
		"architecture_analyzer": func(config map[string]any) (core.Agent, error) {
			return architecture.New(deps, config)
		},
		"component_documenter": func(config map[string]any) (core.Agent, error) {
			return component.New(deps, config)
		},
		"usage_guide_generator": func(config map[string]any) (core.Agent, error) {
			return usage.New(deps, config)
		},
	}
}

// Start builds the full agent runtime: a factory seeded with the built-in
// types, one live instance of each registered with the SDK, and a registry
// entry per agent backed by the given store.
func Start(deps agents.RuntimeDeps, store core.RegistryStore, logger *log.Logger) (*Runtime, error) {
	factory, err := core.NewFactory(Builtins(deps), logger)
	if err != nil {
		return nil, fmt.Errorf("sdk: build factory: %w", err)
	}

	coordinator := core.NewSDK(logger)
	registry := core.NewRegistry(store, logger)

	for _, info := range factory.ListTypes() {
		exec, instanceID, err := factory.CreateAgent(info.Type, nil)
		if err != nil {
			return nil, fmt.Errorf("sdk: create %s: %w", info.Type, err)
		}
		coordinator.RegisterExecutor(exec)
		if err := registry.Register(exec.Agent(), map[string]any{
			"agent_type":  info.Type,
			"instance_id": instanceID,
			"version":     "1.0.0",
		}); err != nil {
			return nil, fmt.Errorf("sdk: register %s: %w", info.Type, err)
		}
	}

	return &Runtime{SDK: coordinator, Factory: factory, Registry: registry}, nil
}
