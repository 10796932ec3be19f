package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/playmatatu/poolsim/internal/game"
	"github.com/playmatatu/poolsim/internal/shots"
)

// statusFor maps engine and service errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, game.ErrInvalidConfiguration),
		errors.Is(err, game.ErrInvalidCueStrike),
		errors.Is(err, game.ErrOverlappingInitialState):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrSimulationDidNotConverge),
		errors.Is(err, game.ErrDegenerateEvent):
		return http.StatusUnprocessableEntity
	case errors.Is(err, shots.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).WithField("path", c.FullPath()).Error("[API] request failed")
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// clientID returns the authenticated API client, or "anonymous" on open routes.
func clientID(c *gin.Context) string {
	if id := c.GetString(ContextClientID); id != "" {
		return id
	}
	return "anonymous"
}
