package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/docsmith/docgen/src/agents"
	aicore "github.com/docsmith/docgen/src/ai/core"
	_ "github.com/docsmith/docgen/src/ai/providers"
	"github.com/docsmith/docgen/src/config"
	"github.com/docsmith/docgen/src/sdk"
	"github.com/docsmith/docgen/src/sdk/core"
	"github.com/docsmith/docgen/src/webclient"
)

var (
	repoFlag    = flag.String("repo", "https://github.com/example/sample-app", "Repository URL to document")
	agentFlag   = flag.String("agent", "architecture_analyzer", "Agent to exercise")
	timeoutFlag = flag.Duration("timeout", 120*time.Second, "Overall timeout")
)

func main() {
	log.SetFlags(0)
	flag.Parse()

	aiClient, err := aicore.NewClient(config.LoadAI())
	if err != nil {
		log.Fatalf("ai client: %v", err)
	}

	deps := agents.RuntimeDeps{
		HTTP:   webclient.NewDefault(60 * time.Second),
		AI:     aiClient,
		Logger: log.Default(),
	}

	runtime, err := sdk.Start(deps, core.NewMemoryStore(), log.Default())
	if err != nil {
		log.Fatalf("sdk: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeoutFlag)
	defer cancel()

	task := core.Task{
		ID:   "smoketest_0",
		Type: "default",
		InputData: map[string]any{
			"repository_url": *repoFlag,
			"component_name": "smoketest",
			"project_name":   "smoketest",
		},
	}

	result := runtime.SDK.ExecuteTask(ctx, *agentFlag, task)
	if !result.Success {
		log.Fatalf("task failed: %s", result.Error)
	}

	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))
	fmt.Printf("completed in %.2fs\n", result.ExecutionTime)
}
