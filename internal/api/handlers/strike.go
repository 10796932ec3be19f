package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/playmatatu/poolsim/internal/game"
)

type strikePreviewRequest struct {
	game.CueStrike
	// Clamp pulls out-of-range parameters onto the limits instead of
	// rejecting them, the way the aiming UI does.
	Clamp bool `json:"clamp"`
}

// PreviewStrike reports the velocity and spin a stroke gives the struck ball
// without running a simulation.
func PreviewStrike(sim *game.ShotSimulator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req strikePreviewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid strike"})
			return
		}

		strike := req.CueStrike
		if req.Clamp {
			strike = sim.Config().Strike.Clamp(strike)
		}
		v, w, err := sim.StrikeVelocity(strike)
		if err != nil {
			writeError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"strike":           strike,
			"velocity":         v,
			"angular_velocity": w,
			"speed":            v.Len(),
			"limits":           sim.Config().Strike,
		})
	}
}
