package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/playmatatu/poolsim/internal/accounts"
	"github.com/playmatatu/poolsim/internal/api"
	"github.com/playmatatu/poolsim/internal/config"
	"github.com/playmatatu/poolsim/internal/database"
	"github.com/playmatatu/poolsim/internal/game"
	"github.com/playmatatu/poolsim/internal/migrations"
	"github.com/playmatatu/poolsim/internal/observability"
	"github.com/playmatatu/poolsim/internal/redis"
	"github.com/playmatatu/poolsim/internal/shots"
	"github.com/playmatatu/poolsim/internal/ws"
)

func main() {
	cfg := config.Load()

	log.SetLevel(cfg.ParsedLogLevel())
	if cfg.Environment == "production" {
		log.SetFormatter(&log.JSONFormatter{})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	physics, err := cfg.Physics()
	if err != nil {
		log.Fatalf("Failed to load physics profile: %v", err)
	}
	simOpts, err := cfg.SimulatorOptions()
	if err != nil {
		log.Fatalf("Invalid simulation settings: %v", err)
	}
	sim, err := game.NewShotSimulator(physics, simOpts...)
	if err != nil {
		log.Fatalf("Failed to create simulator: %v", err)
	}

	// Initialize database
	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if cfg.MigrateOnStart {
		log.Info("Running DB migrations on startup...")
		if err := migrations.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	// Initialize Redis
	rdb, err := redis.Connect(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer rdb.Close()

	metrics, err := observability.NewCollector(nil)
	if err != nil {
		log.Fatalf("Failed to register metrics: %v", err)
	}

	manager := shots.NewManager(sim,
		shots.WithCache(shots.NewRedisCache(rdb, time.Duration(cfg.TrajectoryCacheMin)*time.Minute)),
		shots.WithStore(shots.NewPostgresStore(db)),
		shots.WithPublisher(shots.NewRedisPublisher(rdb)),
		shots.WithMetrics(metrics),
	)

	hub := ws.NewHub()
	go hub.Run(ctx)
	ws.StartShotFeed(ctx, rdb, hub)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	api.SetupRoutes(router, api.Services{
		Config:  cfg,
		Shots:   manager,
		Batch:   shots.NewBatchRunner(manager, cfg.BatchWorkers),
		Clients: accounts.NewDirectory(db),
		Hub:     hub,
		Metrics: metrics,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("Starting poolsim server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Graceful shutdown failed: %v", err)
	}
}
