package game

import (
	"fmt"
	"math"
)

// Regime is the motion state of a ball. Each regime has its own equations of
// motion.
type Regime int

const (
	Stationary Regime = iota
	Sliding
	Rolling
	Spinning
	Pocketed
)

var regimeNames = [...]string{"stationary", "sliding", "rolling", "spinning", "pocketed"}

func (r Regime) String() string {
	if r < 0 || int(r) >= len(regimeNames) {
		return fmt.Sprintf("regime(%d)", int(r))
	}
	return regimeNames[r]
}

func (r Regime) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Regime) UnmarshalText(b []byte) error {
	for i, name := range regimeNames {
		if name == string(b) {
			*r = Regime(i)
			return nil
		}
	}
	return fmt.Errorf("unknown regime %q", b)
}

// BallState is the full kinematic state of one ball. The ball centre sits at
// z = Radius while it is on the table.
type BallState struct {
	ID              string  `json:"id" yaml:"id" msgpack:"id"`
	Position        Vec3    `json:"position" yaml:"position" msgpack:"p"`
	Velocity        Vec3    `json:"velocity" yaml:"velocity" msgpack:"v"`
	AngularVelocity Vec3    `json:"angular_velocity" yaml:"angular_velocity" msgpack:"w"`
	Radius          float64 `json:"radius" yaml:"radius" msgpack:"r"`
	Mass            float64 `json:"mass" yaml:"mass" msgpack:"m"`
	Regime          Regime  `json:"regime" yaml:"regime" msgpack:"s"`
}

// NewBall places a stationary ball with its centre at (x, y, radius).
func NewBall(id string, x, y, radius, mass float64) BallState {
	return BallState{
		ID:       id,
		Position: Vec3{x, y, radius},
		Radius:   radius,
		Mass:     mass,
		Regime:   Stationary,
	}
}

// ContactVelocity is the velocity of the point touching the cloth:
// u = v + ω × (−R ẑ).
func (b BallState) ContactVelocity() Vec3 {
	w := b.AngularVelocity
	return Vec3{
		b.Velocity[0] - b.Radius*w[1],
		b.Velocity[1] + b.Radius*w[0],
		0,
	}
}

// Classify derives the regime from the current velocities. Pocketed balls
// stay pocketed.
func (b BallState) Classify() Regime {
	if b.Regime == Pocketed {
		return Pocketed
	}
	v := planar(b.Velocity).Len()
	w := b.AngularVelocity
	perp := math.Hypot(w[0], w[1]) * b.Radius
	spin := math.Abs(w[2]) * b.Radius
	switch {
	case v <= VelocityTolerance && perp <= VelocityTolerance && spin <= VelocityTolerance:
		return Stationary
	case v <= VelocityTolerance && perp <= VelocityTolerance:
		return Spinning
	case b.ContactVelocity().Len() <= VelocityTolerance:
		return Rolling
	default:
		return Sliding
	}
}

// Translating reports whether the ball's centre is moving.
func (b BallState) Translating() bool {
	return b.Regime == Sliding || b.Regime == Rolling
}

// OnTable reports whether the ball still takes part in the shot.
func (b BallState) OnTable() bool {
	return b.Regime != Pocketed
}

// Speed is the planar speed of the centre.
func (b BallState) Speed() float64 {
	return planar(b.Velocity).Len()
}

// checkInitialState rejects overlapping balls and duplicate ids.
func checkInitialState(balls []BallState) error {
	seen := make(map[string]struct{}, len(balls))
	for i := range balls {
		if _, dup := seen[balls[i].ID]; dup {
			return fmt.Errorf("%w: duplicate ball id %q", ErrInvalidConfiguration, balls[i].ID)
		}
		seen[balls[i].ID] = struct{}{}
		if !(balls[i].Radius > 0) || !(balls[i].Mass > 0) {
			return fmt.Errorf("%w: ball %q needs positive radius and mass", ErrInvalidConfiguration, balls[i].ID)
		}
		if !finite(balls[i].Position) || !finite(balls[i].Velocity) || !finite(balls[i].AngularVelocity) {
			return fmt.Errorf("%w: ball %q has non-finite state", ErrInvalidConfiguration, balls[i].ID)
		}
	}
	for i := range balls {
		if !balls[i].OnTable() {
			continue
		}
		for j := i + 1; j < len(balls); j++ {
			if !balls[j].OnTable() {
				continue
			}
			d := planar(balls[j].Position.Sub(balls[i].Position)).Len()
			if d < balls[i].Radius+balls[j].Radius {
				return fmt.Errorf("%w: %q and %q are %.6fm apart", ErrOverlappingInitialState, balls[i].ID, balls[j].ID, d)
			}
		}
	}
	return nil
}
