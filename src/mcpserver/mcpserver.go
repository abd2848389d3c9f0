package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docsmith/docgen/src/agents"
	aicore "github.com/docsmith/docgen/src/ai/core"
	_ "github.com/docsmith/docgen/src/ai/providers"
	"github.com/docsmith/docgen/src/config"
	"github.com/docsmith/docgen/src/data"
	"github.com/docsmith/docgen/src/generator"
	"github.com/docsmith/docgen/src/mcp"
	"github.com/docsmith/docgen/src/sdk"
	"github.com/docsmith/docgen/src/sdk/core"
	"github.com/docsmith/docgen/src/webclient"
)

func main() {
	logger := log.New(os.Stdout, "[mcp] ", log.LstdFlags|log.Lmsgprefix)

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		mysqlDSN = "dev:test@tcp(localhost:3306)/docgen"
	}
	db := data.MustMySQL(mysqlDSN)
	if err := data.Migrate(db); err != nil {
		logger.Fatalf("migrate: %v", err)
	}

	base := config.LoadBase(db)
	rdb := data.MustRedis(base.RedisURL)

	aiClient, err := aicore.NewClient(config.LoadAI())
	if err != nil {
		logger.Printf("ai client unavailable: %v", err)
	}

	deps := agents.RuntimeDeps{
		DB:     db,
		HTTP:   webclient.NewDefault(60 * time.Second),
		AI:     aiClient,
		Logger: logger,
	}

	registryPath := config.GetSetting("registry_path", "REGISTRY_PATH", "agent_registry.json")
	runtime, err := sdk.Start(deps, core.NewFileStore(registryPath), logger)
	if err != nil {
		logger.Fatalf("sdk: %v", err)
	}

	store := data.NewStore(db)
	gen := generator.NewService(store, rdb, runtime, nil, nil, "", logger)

	mcpCfg := config.LoadMCP()
	server, err := mcp.NewServer(mcp.Config{
		ListenAddr: ":" + mcpCfg.Port,
		AuthToken:  mcpCfg.Token,
		Logger:     logger,
	}, store, runtime, gen)
	if err != nil {
		logger.Fatalf("mcp: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		logger.Fatalf("mcp: %v", err)
	}
}
