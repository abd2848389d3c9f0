package webserver

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func attachRoutes(r *gin.Engine, deps Deps) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authH := NewAuth([]byte(deps.Config.JWTSecret))
	jobsH := NewJobs(deps.Store, deps.Redis, deps.Generator)
	agentsH := NewAgents(deps.Runtime)
	projectsH := NewProjects(deps.Store)

	v1 := r.Group("/v1")
	{
		v1.POST("/auth/token", authH.Token)

		secured := v1.Use(JWTMiddleware([]byte(deps.Config.JWTSecret)))
		secured.POST("/generate", jobsH.Generate)
		secured.GET("/jobs/:id", jobsH.Status)
		secured.GET("/agents", agentsH.List)
		secured.POST("/agents/recommend", agentsH.Recommend)
		secured.GET("/status", agentsH.SystemStatus)
		secured.GET("/projects", projectsH.List)
		secured.GET("/projects/:id/statistics", projectsH.Statistics)
		secured.GET("/projects/:id/components", projectsH.Components)
	}
}
