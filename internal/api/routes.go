package api

import (
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/playmatatu/poolsim/internal/api/handlers"
	"github.com/playmatatu/poolsim/internal/config"
	"github.com/playmatatu/poolsim/internal/middleware"
	"github.com/playmatatu/poolsim/internal/observability"
	"github.com/playmatatu/poolsim/internal/shots"
	"github.com/playmatatu/poolsim/internal/ws"
)

// Services bundles what the handlers need.
type Services struct {
	Config  *config.Config
	Shots   *shots.Manager
	Batch   *shots.BatchRunner
	Clients handlers.ClientAuthenticator
	Hub     *ws.Hub
	Metrics *observability.Collector
}

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, s Services) {
	cfg := s.Config
	router.Use(s.Metrics.Middleware())
	router.Use(middleware.CORSMiddleware(cfg))

	if cfg.Environment != "production" {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Next()
		})
		log.Info("[DEV MODE] no-cache headers enabled for all routes")
	}

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(s.Metrics.Handler()))

	sim := s.Shots.Simulator()

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck)
		v1.POST("/auth/token", handlers.IssueToken(s.Clients, cfg))

		v1.POST("/strike/preview", handlers.PreviewStrike(sim))
		v1.POST("/racks", handlers.BuildRack(sim.Config()))

		shotsGroup := v1.Group("/shots")
		{
			shotsGroup.POST("", handlers.AuthMiddleware(cfg), handlers.SimulateShot(s.Shots))
			shotsGroup.POST("/batch", handlers.AuthMiddleware(cfg), handlers.SimulateBatch(s.Batch, cfg.MaxBatchSize))
			shotsGroup.GET("/:id", handlers.GetShot(s.Shots))
			shotsGroup.GET("/:id/ws", middleware.WebSocketCORSCheck(cfg),
				ws.HandlePlayback(s.Hub, s.Shots, cfg.PlaybackSpeed, s.Metrics))
		}

		v1.GET("/feed/ws", middleware.WebSocketCORSCheck(cfg), ws.HandleFeed(s.Hub))
	}
}
