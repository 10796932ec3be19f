package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/playmatatu/poolsim/internal/shots"
)

// SimulateShot runs one shot for the authenticated client.
func SimulateShot(m *shots.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req shots.ShotRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid shot request: %v", err)})
			return
		}

		r, err := m.Simulate(c.Request.Context(), clientID(c), req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, r)
	}
}

// SimulateBatch runs independent shots concurrently. Per-shot failures are
// reported inline; the request itself only fails when it is malformed.
func SimulateBatch(runner *shots.BatchRunner, maxBatch int) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Shots []shots.ShotRequest `json:"shots"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid batch: %v", err)})
			return
		}
		if len(req.Shots) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "batch is empty"})
			return
		}
		if maxBatch > 0 && len(req.Shots) > maxBatch {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("batch limited to %d shots", maxBatch)})
			return
		}

		items := runner.Run(c.Request.Context(), req.Shots)
		failed := 0
		for _, it := range items {
			if it.Err != nil {
				failed++
			}
		}
		c.JSON(http.StatusOK, gin.H{"results": items, "failed": failed})
	}
}

// GetShot returns a previously simulated shot.
func GetShot(m *shots.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		r, err := m.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, r)
	}
}
