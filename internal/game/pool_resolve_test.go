package game

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func momentum(balls ...BallState) Vec3 {
	var p Vec3
	for _, b := range balls {
		p = p.Add(planar(b.Velocity).Mul(b.Mass))
	}
	return p
}

func TestHeadOnCollision(t *testing.T) {
	cfg := DefaultPhysicsConfig()
	R := DefaultBallRadius
	a := rollingBall("a", 0.5, 0.5, Vec3{1, 0, 0})
	b := NewBall("b", 0.5+2*R, 0.5, R, DefaultBallMass)

	require.NoError(t, resolveBallBall(&a, &b, &cfg))
	e := cfg.BallBallRestitution
	assert.InDelta(t, (1-e)/2, a.Velocity[0], 1e-12)
	assert.InDelta(t, (1+e)/2, b.Velocity[0], 1e-12)
	assert.InDelta(t, 0, a.Velocity[1], 1e-12)
	assert.InDelta(t, 0, b.Velocity[1], 1e-12)
	assert.Equal(t, Sliding, a.Regime)
	assert.Equal(t, Sliding, b.Regime)
}

func TestBallBallConservesMomentum(t *testing.T) {
	cfg := DefaultPhysicsConfig()
	R := DefaultBallRadius
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 200; i++ {
		angle := 2 * math.Pi * rng.Float64()
		n := Vec3{math.Cos(angle), math.Sin(angle), 0}
		a := NewBall("a", 0.5, 0.5, R, DefaultBallMass)
		b := NewBall("b", 0, 0, R, DefaultBallMass*(0.5+rng.Float64()))
		b.Position = a.Position.Add(n.Mul(2 * R))
		a.Velocity = rotateZ(n, rng.Float64()-0.5).Mul(3 * rng.Float64())
		a.AngularVelocity = Vec3{rng.NormFloat64() * 50, rng.NormFloat64() * 50, rng.NormFloat64() * 50}
		b.AngularVelocity = Vec3{0, 0, rng.NormFloat64() * 20}

		before := momentum(a, b)
		require.NoError(t, resolveBallBall(&a, &b, &cfg))
		after := momentum(a, b)
		assert.InDelta(t, before[0], after[0], 1e-12)
		assert.InDelta(t, before[1], after[1], 1e-12)

		// The pair must leave the contact separating.
		rel := a.Velocity.Sub(b.Velocity).Dot(n)
		assert.LessOrEqual(t, rel, 1e-12)
	}
}

func TestBallBallSeparatesOverlap(t *testing.T) {
	cfg := DefaultPhysicsConfig()
	R := DefaultBallRadius
	a := rollingBall("a", 0.5, 0.5, Vec3{1, 0, 0})
	b := NewBall("b", 0.5+2*R-1e-7, 0.5, R, DefaultBallMass)

	require.NoError(t, resolveBallBall(&a, &b, &cfg))
	assert.GreaterOrEqual(t, planar(b.Position.Sub(a.Position)).Len(), 2*R-1e-15)
}

func TestBallBallSharedCentreIsDegenerate(t *testing.T) {
	cfg := DefaultPhysicsConfig()
	a := rollingBall("a", 0.5, 0.5, Vec3{1, 0, 0})
	b := NewBall("b", 0.5, 0.5, DefaultBallRadius, DefaultBallMass)
	assert.ErrorIs(t, resolveBallBall(&a, &b, &cfg), ErrDegenerateEvent)
}

func TestCushionReflectsNormalVelocity(t *testing.T) {
	cfg := DefaultPhysicsConfig()
	table := StandardPoolTable()
	left, ok := cushionByID(table, 5)
	require.True(t, ok)
	require.Equal(t, "left_lower", left.Name)

	b := NewBall("cue", DefaultBallRadius, 0.5, DefaultBallRadius, DefaultBallMass)
	b.Velocity = Vec3{-1, 0.5, 0}
	b.Regime = Sliding

	resolveCushion(&b, left, &cfg)
	assert.InDelta(t, cfg.CushionRestitution, b.Velocity[0], 1e-12)
	assert.LessOrEqual(t, math.Abs(b.Velocity[1]), 0.5)
	assert.Equal(t, Sliding, b.Regime)
	assert.NotEqual(t, 0.0, b.AngularVelocity[2], "rail friction induces side spin")
}

func TestCushionIgnoresRecedingBall(t *testing.T) {
	cfg := DefaultPhysicsConfig()
	table := StandardPoolTable()
	left, _ := cushionByID(table, 5)

	b := NewBall("cue", DefaultBallRadius, 0.5, DefaultBallRadius, DefaultBallMass)
	b.Velocity = Vec3{1, 0, 0}
	b.Regime = Sliding
	resolveCushion(&b, left, &cfg)
	assert.Equal(t, Vec3{1, 0, 0}, b.Velocity)
}

func TestTransitionKeepsKinematicsContinuous(t *testing.T) {
	d, cfg := newDetector()
	ball := slidingBall(Vec3{0.8, -0.3, 0}, Vec3{4, 2, 15})
	ball.Position = Vec3{0.6, 1.2, DefaultBallRadius}
	balls := []BallState{ball}

	ev, ok, err := d.next(balls, &Table{})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, EventTransition, ev.Type)

	balls[0] = Evolve(balls[0], ev.Time, cfg)
	before := balls[0]
	require.NoError(t, resolve(ev, balls, &Table{}, cfg))

	assert.Equal(t, before.Position, balls[0].Position)
	assert.Equal(t, before.Velocity, balls[0].Velocity)
	assert.Equal(t, before.AngularVelocity, balls[0].AngularVelocity)
	assert.Equal(t, Rolling, balls[0].Regime)
}

func TestPocketFreezesBall(t *testing.T) {
	b := rollingBall("3", 0.05, 0.05, Vec3{-1, -1, 0})
	at := b.Position
	resolvePocket(&b)
	assert.Equal(t, Pocketed, b.Regime)
	assert.Equal(t, at, b.Position)
	assert.Equal(t, Vec3{}, b.Velocity)
	assert.Equal(t, Vec3{}, b.AngularVelocity)
	assert.Equal(t, Pocketed, b.Classify())
}

func TestSlowBallContactIsInelastic(t *testing.T) {
	cfg := DefaultPhysicsConfig()
	R := DefaultBallRadius
	a := rollingBall("a", 0.5, 0.5, Vec3{RestingSpeed / 2, 0, 0})
	b := NewBall("b", 0.5+2*R, 0.5, R, DefaultBallMass)

	before := momentum(a, b)
	require.NoError(t, resolveBallBall(&a, &b, &cfg))
	assert.InDelta(t, a.Velocity[0], b.Velocity[0], 1e-15, "pair leaves with a common normal speed")
	assert.InDelta(t, before[0], momentum(a, b)[0], 1e-15)
	assert.GreaterOrEqual(t, planar(b.Position.Sub(a.Position)).Len(), 2*R+ContactSeparation-1e-15)
}

func TestSlowCushionContactIsInelastic(t *testing.T) {
	cfg := DefaultPhysicsConfig()
	table := StandardPoolTable()
	left, _ := cushionByID(table, 5)

	b := NewBall("cue", DefaultBallRadius, 0.5, DefaultBallRadius, DefaultBallMass)
	b.Velocity = Vec3{-RestingSpeed / 2, 0.3, 0}
	b.Regime = Sliding
	resolveCushion(&b, left, &cfg)
	assert.InDelta(t, 0, b.Velocity[0], 1e-15)
	assert.InDelta(t, ContactSeparation, left.distance(b.Position)-b.Radius, 1e-15)
}
