package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/docsmith/docgen/src/sdk"
	"github.com/docsmith/docgen/src/sdk/core"
)

type Agents struct {
	runtime *sdk.Runtime
}

func NewAgents(runtime *sdk.Runtime) Agents {
	return Agents{runtime: runtime}
}

// List returns every registered agent with its capabilities and activity.
func (a Agents) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"agents": a.runtime.SDK.ListAgents()})
}

// Recommend scores registered agents against per-step requirements and
// returns the top candidates for each step.
func (a Agents) Recommend(c *gin.Context) {
	var req map[string]core.Requirements
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": a.runtime.Registry.RecommendWorkflow(req)})
}

// SystemStatus reports totals and per-agent snapshots.
func (a Agents) SystemStatus(c *gin.Context) {
	c.JSON(http.StatusOK, a.runtime.SDK.SystemStatus())
}
