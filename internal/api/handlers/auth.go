package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/playmatatu/poolsim/internal/accounts"
	"github.com/playmatatu/poolsim/internal/config"
	"github.com/playmatatu/poolsim/internal/models"
)

// ContextClientID is the gin context key AuthMiddleware stores the client under.
const ContextClientID = "client_id"

// ClientAuthenticator checks API client credentials.
type ClientAuthenticator interface {
	Authenticate(clientID, secret string) (*models.APIClient, error)
}

// IssueToken exchanges client credentials for a bearer token.
func IssueToken(auth ClientAuthenticator, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			ClientID     string `json:"client_id"`
			ClientSecret string `json:"client_secret"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.ClientID == "" || req.ClientSecret == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "client_id and client_secret required"})
			return
		}

		client, err := auth.Authenticate(strings.TrimSpace(req.ClientID), req.ClientSecret)
		if errors.Is(err, accounts.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		if err != nil {
			log.WithError(err).Error("[AUTH] client lookup failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		ttl := time.Duration(cfg.TokenTTLMinutes) * time.Minute
		token, exp, err := accounts.IssueToken(cfg.JWTSecret, client.ClientID, ttl)
		if err != nil {
			log.WithError(err).Error("[AUTH] failed to sign token")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"access_token": token,
			"token_type":   "Bearer",
			"expires_at":   exp.UTC().Format(time.RFC3339),
		})
	}
}

// AuthMiddleware validates the bearer token and sets client_id in context.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		id, err := accounts.ParseToken(cfg.JWTSecret, strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(ContextClientID, id)
		c.Next()
	}
}
