package game

import (
	"fmt"
	"math"
)

// StrikeLimits bounds the cue parameters a player may choose.
type StrikeLimits struct {
	MinStrike    float64 `json:"min_strike" yaml:"min_strike"`
	MaxStrike    float64 `json:"max_strike" yaml:"max_strike"`
	MaxEnglish   float64 `json:"max_english" yaml:"max_english"`
	MaxElevation float64 `json:"max_elevation" yaml:"max_elevation"` // radians
}

// PhysicsConfig holds every physical parameter the engine reads. It is
// immutable once handed to a simulator.
type PhysicsConfig struct {
	SlidingFriction     float64 `json:"sliding_friction" yaml:"sliding_friction"`
	RollingFriction     float64 `json:"rolling_friction" yaml:"rolling_friction"`
	SpinningFriction    float64 `json:"spinning_friction" yaml:"spinning_friction"`
	BallBallRestitution float64 `json:"ball_ball_restitution" yaml:"ball_ball_restitution"`
	CushionRestitution  float64 `json:"cushion_restitution" yaml:"cushion_restitution"`
	Gravity             float64 `json:"gravity" yaml:"gravity"`
	BallBallFriction    float64 `json:"ball_ball_friction" yaml:"ball_ball_friction"`
	CushionFriction     float64 `json:"cushion_friction" yaml:"cushion_friction"`
	BallRadius          float64 `json:"ball_radius" yaml:"ball_radius"`
	BallMass            float64 `json:"ball_mass" yaml:"ball_mass"`
	CueMass             float64 `json:"cue_mass" yaml:"cue_mass"`

	Strike StrikeLimits `json:"strike" yaml:"strike"`
}

// DefaultPhysicsConfig returns regulation pool parameters.
func DefaultPhysicsConfig() PhysicsConfig {
	return PhysicsConfig{
		SlidingFriction:     DefaultSlidingFriction,
		RollingFriction:     DefaultRollingFriction,
		SpinningFriction:    DefaultSpinningFriction,
		BallBallRestitution: DefaultBallBallRestitution,
		CushionRestitution:  DefaultCushionRestitution,
		Gravity:             DefaultGravity,
		BallBallFriction:    DefaultBallBallFriction,
		CushionFriction:     DefaultCushionFriction,
		BallRadius:          DefaultBallRadius,
		BallMass:            DefaultBallMass,
		CueMass:             DefaultCueMass,
		Strike: StrikeLimits{
			MinStrike:    DefaultMinStrike,
			MaxStrike:    DefaultMaxStrike,
			MaxEnglish:   DefaultMaxEnglish,
			MaxElevation: DefaultMaxElevation,
		},
	}
}

// Validate reports the first out-of-range parameter wrapped in
// ErrInvalidConfiguration.
func (c PhysicsConfig) Validate() error {
	positive := []struct {
		name  string
		value float64
	}{
		{"sliding_friction", c.SlidingFriction},
		{"rolling_friction", c.RollingFriction},
		{"spinning_friction", c.SpinningFriction},
		{"gravity", c.Gravity},
		{"ball_radius", c.BallRadius},
		{"ball_mass", c.BallMass},
		{"cue_mass", c.CueMass},
	}
	for _, p := range positive {
		if !(p.value > 0) || math.IsInf(p.value, 0) {
			return fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidConfiguration, p.name, p.value)
		}
	}

	unitRange := []struct {
		name  string
		value float64
	}{
		{"ball_ball_restitution", c.BallBallRestitution},
		{"cushion_restitution", c.CushionRestitution},
	}
	for _, p := range unitRange {
		if !(p.value >= 0 && p.value <= 1) {
			return fmt.Errorf("%w: %s must be in [0, 1], got %v", ErrInvalidConfiguration, p.name, p.value)
		}
	}

	if !(c.BallBallFriction >= 0) || !(c.CushionFriction >= 0) {
		return fmt.Errorf("%w: contact friction must be non-negative", ErrInvalidConfiguration)
	}

	s := c.Strike
	if !(s.MinStrike > 0) || s.MaxStrike < s.MinStrike {
		return fmt.Errorf("%w: strike range [%v, %v]", ErrInvalidConfiguration, s.MinStrike, s.MaxStrike)
	}
	if !(s.MaxEnglish > 0 && s.MaxEnglish < 1) {
		return fmt.Errorf("%w: max_english must be in (0, 1), got %v", ErrInvalidConfiguration, s.MaxEnglish)
	}
	if !(s.MaxElevation >= 0 && s.MaxElevation < math.Pi/2) {
		return fmt.Errorf("%w: max_elevation must be in [0, pi/2), got %v", ErrInvalidConfiguration, s.MaxElevation)
	}
	return nil
}

// spinDecel is the angular deceleration of vertical spin in rad/s².
func (c *PhysicsConfig) spinDecel(radius float64) float64 {
	return 5 * c.SpinningFriction * c.Gravity / (2 * radius)
}
