package webserver

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/docsmith/docgen/src/config"
	"github.com/docsmith/docgen/src/data"
	"github.com/docsmith/docgen/src/generator"
	"github.com/docsmith/docgen/src/sdk"
)

// Deps carries everything the HTTP handlers need.
type Deps struct {
	Config    config.API
	Store     *data.Store
	Redis     *redis.Client
	Runtime   *sdk.Runtime
	Generator *generator.Service
}

func New(deps Deps) *gin.Engine {
	g := gin.New()
	g.Use(gin.Logger(), gin.Recovery())
	attachRoutes(g, deps)
	return g
}
