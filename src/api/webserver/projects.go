package webserver

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/docsmith/docgen/src/data"
)

type Projects struct {
	store *data.Store
}

func NewProjects(store *data.Store) Projects {
	return Projects{store: store}
}

func (p Projects) List(c *gin.Context) {
	projects, err := p.store.ListProjects()
	if err != nil {
		log.Printf("list projects: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"err": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

func (p Projects) Statistics(c *gin.Context) {
	stats, err := p.store.ProjectStatistics(c.Param("id"))
	if err != nil {
		log.Printf("project statistics: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"err": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Components lists or searches a project's components.
func (p Projects) Components(c *gin.Context) {
	projectID := c.Param("id")

	var (
		comps []data.Component
		err   error
	)
	if query := c.Query("q"); query != "" {
		comps, err = p.store.SearchComponents(projectID, query)
	} else {
		comps, err = p.store.ProjectComponents(projectID)
	}
	if err != nil {
		log.Printf("project components: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"err": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"components": comps})
}
