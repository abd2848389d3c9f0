package webserver

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/docsmith/docgen/src/data"
	"github.com/docsmith/docgen/src/generator"
)

type Jobs struct {
	store *data.Store
	rdb   *redis.Client
	gen   *generator.Service
}

func NewJobs(store *data.Store, rdb *redis.Client, gen *generator.Service) Jobs {
	return Jobs{store: store, rdb: rdb, gen: gen}
}

// Generate queues a documentation generation job.
func (j Jobs) Generate(c *gin.Context) {
	var req struct {
		RepoURL      string `json:"repo_url" binding:"required"`
		Space        string `json:"space,omitempty"`
		ExportFormat string `json:"export_format,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	job, err := j.gen.Submit(c.Request.Context(), req.RepoURL, req.Space, req.ExportFormat)
	if err != nil {
		log.Printf("generate: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"job_id":        job.ID,
		"status":        job.Status,
		"export_format": job.ExportFormat,
	})
}

// Status reports a job's progress, preferring the redis mirror with the
// database row as fallback.
func (j Jobs) Status(c *gin.Context) {
	jobID := c.Param("id")

	if mirror, err := data.GetJobStatus(c.Request.Context(), j.rdb, jobID); err == nil && mirror != nil {
		c.JSON(http.StatusOK, gin.H{
			"job_id":     jobID,
			"status":     mirror["status"],
			"error":      mirror["error"],
			"updated_at": mirror["updated_at"],
		})
		return
	}

	job, err := j.store.Job(jobID)
	if err != nil {
		log.Printf("job status: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"err": "lookup failed"})
		return
	}
	if job == nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "job not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"job_id": job.ID,
		"status": job.Status,
		"error":  job.ErrorMessage,
	})
}
