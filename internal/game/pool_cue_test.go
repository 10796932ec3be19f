package game

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCentreBallHasNoSpin(t *testing.T) {
	sim := testSimulator(t)
	cfg := sim.Config()
	v, w := sim.DeriveInitialVelocity(2, 0, 0, 0)
	assert.InDelta(t, 2*2/(1+cfg.BallMass/cfg.CueMass), v[0], 1e-12)
	assert.Equal(t, 0.0, v[1])
	assert.InDelta(t, 0, w.Len(), 1e-12)
}

func TestNaturalRollHeight(t *testing.T) {
	sim := testSimulator(t)
	v, w := sim.DeriveInitialVelocity(2, 0, 0.4, 0)
	b := NewBall("cue", 0.5, 0.5, DefaultBallRadius, DefaultBallMass)
	b.Velocity, b.AngularVelocity = v, w
	assert.Equal(t, Rolling, b.Classify())
}

func TestDrawAndSideSpin(t *testing.T) {
	sim := testSimulator(t)

	_, draw := sim.DeriveInitialVelocity(2, 0, -0.3, 0)
	assert.Less(t, draw[1], 0.0, "low hit spins backwards")

	_, side := sim.DeriveInitialVelocity(2, 0.3, 0, 0)
	_, other := sim.DeriveInitialVelocity(2, -0.3, 0, 0)
	assert.NotEqual(t, 0.0, side[2])
	assert.InDelta(t, -side[2], other[2], 1e-12)
}

func TestElevationDropsVerticalImpulse(t *testing.T) {
	sim := testSimulator(t)
	flat, _ := sim.DeriveInitialVelocity(2, 0, 0, 0)
	raised, _ := sim.DeriveInitialVelocity(2, 0, 0, math.Pi/4)
	assert.Equal(t, 0.0, raised[2])
	assert.Less(t, raised[0], flat[0])
}

func TestStrikeValidation(t *testing.T) {
	limits := DefaultPhysicsConfig().Strike
	ok := CueStrike{V0: 2, A: 0.2, B: -0.2, Theta: 0.1}
	require.NoError(t, ok.Validate(limits))

	bad := []CueStrike{
		{V0: 0},
		{V0: limits.MaxStrike + 1},
		{V0: 2, A: 0.4, B: 0.4},
		{V0: 2, Theta: -0.1},
		{V0: 2, Theta: math.Pi / 2},
		{V0: math.NaN()},
	}
	for _, s := range bad {
		assert.ErrorIs(t, s.Validate(limits), ErrInvalidCueStrike, "%+v", s)
	}
}

func TestStrikeParamsStayInLimits(t *testing.T) {
	limits := DefaultPhysicsConfig().Strike
	p := NewStrikeParams(limits)

	p.SetPower(100)
	assert.Equal(t, limits.MaxStrike, p.Strike().V0)
	p.AdjustPower(-1000)
	assert.Equal(t, limits.MinStrike, p.Strike().V0)

	p.SetEnglish(1, 1)
	s := p.Strike()
	assert.InDelta(t, limits.MaxEnglish, math.Hypot(s.A, s.B), 1e-12)
	assert.InDelta(t, s.A, s.B, 1e-12)

	p.AdjustElevation(10)
	assert.Equal(t, limits.MaxElevation, p.Strike().Theta)
	p.SetElevation(-1)
	assert.Equal(t, 0.0, p.Strike().Theta)

	p.AimAt(Vec3{0, 0, 0}, Vec3{0, -1, 0})
	assert.InDelta(t, 3*math.Pi/2, p.Strike().Phi, 1e-12)
	assert.NoError(t, p.Strike().Validate(limits))
}
