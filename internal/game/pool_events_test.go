package game

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDetector() (*detector, *PhysicsConfig) {
	cfg := DefaultPhysicsConfig()
	return &detector{cfg: &cfg, solver: ExactSolver{}}, &cfg
}

func rollingBall(id string, x, y float64, v Vec3) BallState {
	b := NewBall(id, x, y, DefaultBallRadius, DefaultBallMass)
	b.Velocity = v
	b.AngularVelocity = perpZ(v).Mul(1 / DefaultBallRadius)
	b.Regime = Rolling
	return b
}

func TestEventTieBreak(t *testing.T) {
	base := Event{Time: 0.5, Ball: 1, Target: 2}
	later := base
	later.Time += 1e-6

	cushion := base
	cushion.Type = EventCushion
	assert.True(t, base.precedes(cushion), "ball-ball beats cushion at the same time")
	assert.True(t, later.Type == EventBallBall && !later.precedes(cushion), "strictly earlier event wins")

	pocket := Event{Type: EventPocket, Time: 0.5 + TieTolerance/2, Ball: 0}
	transition := Event{Type: EventTransition, Time: 0.5, Ball: 0, Target: -1}
	assert.True(t, pocket.precedes(transition), "pocket beats transition within tolerance")
	assert.True(t, cushion.precedes(pocket))

	lowBall := Event{Type: EventBallBall, Time: 0.5, Ball: 0, Target: 3}
	assert.True(t, lowBall.precedes(base), "lower ball index wins")
	lowTarget := Event{Type: EventBallBall, Time: 0.5, Ball: 1, Target: 1}
	assert.True(t, lowTarget.precedes(base), "lower target index wins")
}

func TestDetectBallBallCollisionTime(t *testing.T) {
	d, cfg := newDetector()
	R := DefaultBallRadius
	a := rollingBall("a", 0.2, 0.5, Vec3{1, 0, 0})
	b := NewBall("b", 0.6, 0.5, R, DefaultBallMass)

	ev, ok, err := d.next([]BallState{a, b}, &Table{})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, EventBallBall, ev.Type)
	assert.Equal(t, 0, ev.Ball)
	assert.Equal(t, 1, ev.Target)

	acc := cfg.RollingFriction * cfg.Gravity
	dist := 0.4 - 2*R
	want := (1 - math.Sqrt(1-2*acc*dist)) / acc
	assert.InDelta(t, want, ev.Time, 1e-9)
}

func TestDetectTouchingApproachingIsImmediate(t *testing.T) {
	d, _ := newDetector()
	R := DefaultBallRadius
	a := rollingBall("a", 0.5, 0.5, Vec3{1, 0, 0})
	b := NewBall("b", 0.5+2*R, 0.5, R, DefaultBallMass)

	ev, ok, err := d.next([]BallState{a, b}, &Table{})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, EventBallBall, ev.Type)
	assert.Equal(t, Epsilon, ev.Time)
}

func TestDetectIgnoresSeparatingContact(t *testing.T) {
	d, _ := newDetector()
	R := DefaultBallRadius
	a := rollingBall("a", 0.5, 0.5, Vec3{-1, 0, 0})
	b := NewBall("b", 0.5+2*R, 0.5, R, DefaultBallMass)

	ev, ok, err := d.next([]BallState{a, b}, &Table{})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, EventTransition, ev.Type)
	assert.Equal(t, Stationary, ev.To)
}

func TestDetectNothingWhenAtRest(t *testing.T) {
	d, _ := newDetector()
	balls := []BallState{
		NewBall("a", 0.3, 0.3, DefaultBallRadius, DefaultBallMass),
		NewBall("b", 0.6, 0.6, DefaultBallRadius, DefaultBallMass),
	}
	_, ok, err := d.next(balls, StandardPoolTable())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDetectCushionOnRail(t *testing.T) {
	d, cfg := newDetector()
	table := StandardPoolTable()
	R := DefaultBallRadius
	y := table.Length / 4
	a := rollingBall("a", table.Width-0.3, y, Vec3{1, 0, 0})

	ev, ok, err := d.next([]BallState{a}, table)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, EventCushion, ev.Type)
	c, _ := cushionByID(table, ev.Target)
	assert.Equal(t, "right_lower", c.Name)

	acc := cfg.RollingFriction * cfg.Gravity
	dist := 0.3 - R
	assert.InDelta(t, (1-math.Sqrt(1-2*acc*dist))/acc, ev.Time, 1e-9)
}

func TestDetectSidePocketThroughGap(t *testing.T) {
	d, _ := newDetector()
	table := StandardPoolTable()
	a := rollingBall("a", table.Width-0.3, table.Length/2, Vec3{1, 0, 0})

	ev, ok, err := d.next([]BallState{a}, table)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, EventPocket, ev.Type)
	assert.Equal(t, 2, ev.Target)
}

func TestPocketTableGapsCovered(t *testing.T) {
	table := StandardPoolTable()
	R := DefaultBallRadius
	// A ball resting against the end of any rail segment is inside a pocket.
	for _, c := range table.Cushions {
		for _, end := range []Vec3{c.P1, c.P2} {
			centre := end.Add(c.Normal.Mul(R))
			inside := false
			for _, p := range table.Pockets {
				if planar(centre.Sub(p.Center)).Len() <= p.Radius+1e-12 {
					inside = true
				}
			}
			assert.True(t, inside, "%s end %v is not covered", c.Name, end)
		}
	}
}
