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
	"github.com/docsmith/docgen/src/confluence"
	"github.com/docsmith/docgen/src/data"
	"github.com/docsmith/docgen/src/export"
	"github.com/docsmith/docgen/src/generator"
	"github.com/docsmith/docgen/src/sdk"
	"github.com/docsmith/docgen/src/sdk/core"
	"github.com/docsmith/docgen/src/webclient"
)

const dequeueWait = 5 * time.Second

func main() {
	logger := log.New(os.Stdout, "[worker] ", log.LstdFlags|log.Lmsgprefix)

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
		logger.Fatalf("ai client: %v", err)
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

	var cfClient *confluence.Client
	cfCfg := config.LoadConfluence()
	if cfCfg.BaseURL != "" {
		cfClient, err = confluence.New(cfCfg)
		if err != nil {
			logger.Printf("confluence client unavailable: %v", err)
		} else if err := cfClient.TestConnection(context.Background()); err != nil {
			logger.Printf("confluence unreachable: %v", err)
		}
	}

	exporter := export.NewExporter(config.LoadExport().Dir, logger)
	gen := generator.NewService(store, rdb, runtime, cfClient, exporter, cfCfg.Space, logger)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		cancel()
	}()

	logger.Printf("worker started, waiting for jobs")
	for {
		select {
		case <-ctx.Done():
			logger.Printf("worker stopped")
			return
		default:
		}

		job, err := data.DequeueJob(ctx, rdb, dequeueWait)
		if err != nil {
			if ctx.Err() != nil {
				logger.Printf("worker stopped")
				return
			}
			logger.Printf("dequeue: %v", err)
			time.Sleep(time.Second)
			continue
		}
		if job == nil {
			continue
		}

		logger.Printf("processing job %s (%s)", job.ID, job.RepoURL)
		if err := gen.Process(ctx, *job); err != nil {
			logger.Printf("job %s failed: %v", job.ID, err)
		}
	}
}
