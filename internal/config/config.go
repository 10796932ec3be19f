package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/playmatatu/poolsim/internal/game"
)

type Config struct {
	// Environment
	Environment string
	LogLevel    string

	// Database
	DatabaseURL    string
	MigrateOnStart bool
	MigrationsDir  string

	// Redis
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Simulation
	PhysicsProfile     string
	SampleInterval     float64
	MaxEvents          int
	MaxSimulatedTime   float64
	Solver             string
	BatchWorkers       int
	MaxBatchSize       int
	TrajectoryCacheMin int
	PlaybackSpeed      float64

	// Security
	JWTSecret       string
	TokenTTLMinutes int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// Database
		DatabaseURL:    getEnv("DATABASE_URL", "postgres://localhost:5432/poolsim?sslmode=disable"),
		MigrateOnStart: getEnv("MIGRATE_ON_START", "false") == "true",
		MigrationsDir:  getEnv("MIGRATIONS_DIR", "migrations"),

		// Redis
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		// Simulation
		PhysicsProfile:     getEnv("PHYSICS_PROFILE", ""),
		SampleInterval:     getEnvFloat("SAMPLE_INTERVAL_SECONDS", game.DefaultSampleInterval),
		MaxEvents:          getEnvInt("MAX_EVENTS", game.DefaultMaxEvents),
		MaxSimulatedTime:   getEnvFloat("MAX_SIMULATED_SECONDS", game.DefaultMaxTime),
		Solver:             getEnv("TRANSITION_SOLVER", "exact"),
		BatchWorkers:       getEnvInt("BATCH_WORKERS", 4),
		MaxBatchSize:       getEnvInt("MAX_BATCH_SIZE", 64),
		TrajectoryCacheMin: getEnvInt("TRAJECTORY_CACHE_MINUTES", 60),
		PlaybackSpeed:      getEnvFloat("PLAYBACK_SPEED", 1.0),

		// Security
		JWTSecret:       getEnv("JWT_SECRET", "change-me-in-production"),
		TokenTTLMinutes: getEnvInt("TOKEN_TTL_MINUTES", 60),
	}
}

// Physics loads the physics profile named by PhysicsProfile, or the defaults
// when none is set.
func (c *Config) Physics() (game.PhysicsConfig, error) {
	if c.PhysicsProfile == "" {
		return game.DefaultPhysicsConfig(), nil
	}
	return LoadPhysicsProfile(c.PhysicsProfile)
}

// SimulatorOptions translates the simulation settings into engine options.
func (c *Config) SimulatorOptions() ([]game.Option, error) {
	opts := []game.Option{
		game.WithSampleInterval(c.SampleInterval),
		game.WithBudget(c.MaxEvents, c.MaxSimulatedTime),
	}
	switch c.Solver {
	case "", "exact":
	case "iterative":
		opts = append(opts, game.WithSolver(game.NewIterativeSolver()))
	default:
		return nil, fmt.Errorf("%w: unknown transition solver %q", game.ErrInvalidConfiguration, c.Solver)
	}
	return opts, nil
}

// LoadPhysicsProfile reads a YAML profile. Keys that are absent keep their
// default values.
func LoadPhysicsProfile(path string) (game.PhysicsConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return game.PhysicsConfig{}, fmt.Errorf("reading physics profile: %w", err)
	}
	return ParsePhysicsProfile(data)
}

func ParsePhysicsProfile(data []byte) (game.PhysicsConfig, error) {
	cfg := game.DefaultPhysicsConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return game.PhysicsConfig{}, fmt.Errorf("%w: physics profile: %v", game.ErrInvalidConfiguration, err)
	}
	if err := cfg.Validate(); err != nil {
		return game.PhysicsConfig{}, err
	}
	return cfg, nil
}

// ParsedLogLevel parses LogLevel, falling back to info.
func (c *Config) ParsedLogLevel() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
