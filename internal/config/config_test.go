package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playmatatu/poolsim/internal/game"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_PORT", "")
	t.Setenv("BATCH_WORKERS", "not-a-number")
	t.Setenv("SAMPLE_INTERVAL_SECONDS", "0.02")

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 4, cfg.BatchWorkers)
	assert.Equal(t, 0.02, cfg.SampleInterval)
	assert.Equal(t, game.DefaultMaxEvents, cfg.MaxEvents)
}

func TestSimulatorOptions(t *testing.T) {
	cfg := &Config{SampleInterval: 0.01, MaxEvents: 100, MaxSimulatedTime: 10, Solver: "iterative"}
	opts, err := cfg.SimulatorOptions()
	require.NoError(t, err)
	_, err = game.NewShotSimulator(game.DefaultPhysicsConfig(), opts...)
	assert.NoError(t, err)

	cfg.Solver = "guess"
	_, err = cfg.SimulatorOptions()
	assert.ErrorIs(t, err, game.ErrInvalidConfiguration)
}

func TestParsePhysicsProfile(t *testing.T) {
	cfg, err := ParsePhysicsProfile([]byte(`
sliding_friction: 0.25
cushion_restitution: 0.8
strike:
  max_strike: 5
`))
	require.NoError(t, err)
	assert.Equal(t, 0.25, cfg.SlidingFriction)
	assert.Equal(t, 0.8, cfg.CushionRestitution)
	assert.Equal(t, 5.0, cfg.Strike.MaxStrike)
	assert.Equal(t, game.DefaultRollingFriction, cfg.RollingFriction, "unset keys keep defaults")
	assert.Equal(t, game.DefaultMinStrike, cfg.Strike.MinStrike)

	_, err = ParsePhysicsProfile([]byte("rolling_friction: -1\n"))
	assert.ErrorIs(t, err, game.ErrInvalidConfiguration)

	_, err = ParsePhysicsProfile([]byte("sliding_friction: [oops\n"))
	assert.ErrorIs(t, err, game.ErrInvalidConfiguration)
}

func TestPhysicsFromProfileFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slow-cloth.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rolling_friction: 0.015\n"), 0o644))

	cfg := &Config{PhysicsProfile: path}
	phys, err := cfg.Physics()
	require.NoError(t, err)
	assert.Equal(t, 0.015, phys.RollingFriction)

	cfg.PhysicsProfile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = cfg.Physics()
	assert.Error(t, err)
}

func TestParsedLogLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, (&Config{LogLevel: "debug"}).ParsedLogLevel())
	assert.Equal(t, logrus.InfoLevel, (&Config{LogLevel: "chatty"}).ParsedLogLevel())
}
