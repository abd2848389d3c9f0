package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docsmith/docgen/src/agents"
	aicore "github.com/docsmith/docgen/src/ai/core"
	_ "github.com/docsmith/docgen/src/ai/providers"
	"github.com/docsmith/docgen/src/api/webserver"
	"github.com/docsmith/docgen/src/config"
	"github.com/docsmith/docgen/src/confluence"
	"github.com/docsmith/docgen/src/data"
	"github.com/docsmith/docgen/src/export"
	"github.com/docsmith/docgen/src/generator"
	"github.com/docsmith/docgen/src/sdk"
	"github.com/docsmith/docgen/src/sdk/core"
	"github.com/docsmith/docgen/src/webclient"
)

func main() {
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.Lmsgprefix)

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

	var cfClient *confluence.Client
	cfCfg := config.LoadConfluence()
	if cfCfg.BaseURL != "" {
		cfClient, err = confluence.New(cfCfg)
		if err != nil {
			logger.Printf("confluence client unavailable: %v", err)
		}
	}

	exporter := export.NewExporter(config.LoadExport().Dir, logger)
	gen := generator.NewService(store, rdb, runtime, cfClient, exporter, cfCfg.Space, logger)

	apiCfg := config.LoadAPI()
	router := webserver.New(webserver.Deps{
		Config:    apiCfg,
		Store:     store,
		Redis:     rdb,
		Runtime:   runtime,
		Generator: gen,
	})

	httpSrv := &http.Server{
		Addr:         ":" + apiCfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Printf("listening on %s", apiCfg.Port)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(shutCtx)
}
