package game

import (
	"fmt"
	"math"
)

// motionOf returns the position polynomial for b's current regime. Only
// sliding and rolling balls translate.
func motionOf(b BallState, cfg *PhysicsConfig) motion {
	m := motion{r0: b.Position}
	switch b.Regime {
	case Sliding:
		m.v0 = planar(b.Velocity)
		m.acc = unit(b.ContactVelocity()).Mul(-cfg.SlidingFriction * cfg.Gravity)
	case Rolling:
		m.v0 = planar(b.Velocity)
		m.acc = unit(m.v0).Mul(-cfg.RollingFriction * cfg.Gravity)
	}
	return m
}

// spinAt evolves vertical spin without clamping at zero.
func spinAt(wz, t, decel float64) float64 {
	if wz == 0 {
		return 0
	}
	return wz - math.Copysign(decel*t, wz)
}

// decaySpin evolves vertical spin, stopping at zero.
func decaySpin(wz, t, decel float64) float64 {
	if math.Abs(wz) <= decel*t {
		return 0
	}
	return spinAt(wz, t, decel)
}

// Evolve advances b by t seconds inside its current regime. The caller must
// keep t within the regime's transition time; beyond it the closed forms
// overshoot.
func Evolve(b BallState, t float64, cfg *PhysicsConfig) BallState {
	if t <= 0 {
		return b
	}
	out := b
	R := b.Radius
	switch b.Regime {
	case Sliding:
		m := motionOf(b, cfg)
		uhat := unit(b.ContactVelocity())
		a := cfg.SlidingFriction * cfg.Gravity
		out.Position = m.at(t)
		out.Velocity = planar(b.Velocity).Sub(uhat.Mul(a * t))
		dw := perpZ(uhat).Mul(5 * a * t / (2 * R))
		out.AngularVelocity = Vec3{
			b.AngularVelocity[0] + dw[0],
			b.AngularVelocity[1] + dw[1],
			decaySpin(b.AngularVelocity[2], t, cfg.spinDecel(R)),
		}
	case Rolling:
		m := motionOf(b, cfg)
		out.Position = m.at(t)
		out.Velocity = m.v0.Add(m.acc.Mul(t))
		w := perpZ(out.Velocity).Mul(1 / R)
		w[2] = decaySpin(b.AngularVelocity[2], t, cfg.spinDecel(R))
		out.AngularVelocity = w
	case Spinning:
		out.AngularVelocity = Vec3{0, 0, decaySpin(b.AngularVelocity[2], t, cfg.spinDecel(R))}
	}
	return out
}

// TransitionSolver computes how long a ball stays in its current regime.
// Implementations must agree to within 1e-6 relative error.
type TransitionSolver interface {
	SlideTime(b BallState, cfg *PhysicsConfig) (float64, error)
	RollTime(b BallState, cfg *PhysicsConfig) (float64, error)
	SpinTime(b BallState, cfg *PhysicsConfig) (float64, error)
}

// ExactSolver uses the closed-form regime durations.
type ExactSolver struct{}

func (ExactSolver) SlideTime(b BallState, cfg *PhysicsConfig) (float64, error) {
	return 2 * b.ContactVelocity().Len() / (7 * cfg.SlidingFriction * cfg.Gravity), nil
}

func (ExactSolver) RollTime(b BallState, cfg *PhysicsConfig) (float64, error) {
	return b.Speed() / (cfg.RollingFriction * cfg.Gravity), nil
}

func (ExactSolver) SpinTime(b BallState, cfg *PhysicsConfig) (float64, error) {
	return math.Abs(b.AngularVelocity[2]) / cfg.spinDecel(b.Radius), nil
}

// IterativeSolver finds regime durations numerically: it brackets the sign
// change of the decaying quantity by doubling a trial step, then bisects.
type IterativeSolver struct {
	InitialStep  float64
	MaxDoublings int
	Tolerance    float64 // relative width of the final bracket
}

// NewIterativeSolver returns a solver with settings that stay well inside
// the 1e-6 agreement bound.
func NewIterativeSolver() IterativeSolver {
	return IterativeSolver{InitialStep: 1e-3, MaxDoublings: 64, Tolerance: 1e-13}
}

func (s IterativeSolver) SlideTime(b BallState, cfg *PhysicsConfig) (float64, error) {
	u0 := b.ContactVelocity()
	uhat := unit(u0)
	if uhat == (Vec3{}) {
		return 0, nil
	}
	k := 3.5 * cfg.SlidingFriction * cfg.Gravity
	// Projection of u(t) on its initial direction, evolved without clamping.
	return s.root("slide", func(t float64) float64 {
		return u0.Sub(uhat.Mul(k * t)).Dot(uhat)
	})
}

func (s IterativeSolver) RollTime(b BallState, cfg *PhysicsConfig) (float64, error) {
	v0 := planar(b.Velocity)
	vhat := unit(v0)
	if vhat == (Vec3{}) {
		return 0, nil
	}
	a := cfg.RollingFriction * cfg.Gravity
	return s.root("roll", func(t float64) float64 {
		return v0.Sub(vhat.Mul(a * t)).Dot(vhat)
	})
}

func (s IterativeSolver) SpinTime(b BallState, cfg *PhysicsConfig) (float64, error) {
	wz := b.AngularVelocity[2]
	if wz == 0 {
		return 0, nil
	}
	decel := cfg.spinDecel(b.Radius)
	return s.root("spin", func(t float64) float64 {
		return math.Copysign(1, wz) * spinAt(wz, t, decel)
	})
}

func (s IterativeSolver) root(kind string, f func(float64) float64) (float64, error) {
	if f(0) <= 0 {
		return 0, nil
	}
	lo, hi := 0.0, s.InitialStep
	if !(hi > 0) {
		hi = 1e-3
	}
	for n := 0; f(hi) > 0; n++ {
		if n >= s.MaxDoublings || math.IsNaN(f(hi)) {
			return 0, fmt.Errorf("%w: %s time not bracketed below %gs", ErrDegenerateEvent, kind, hi)
		}
		lo, hi = hi, hi*2
	}
	for i := 0; i < 200 && hi-lo > s.Tolerance*hi; i++ {
		mid := 0.5 * (lo + hi)
		if mid <= lo || mid >= hi {
			break
		}
		if f(mid) > 0 {
			lo = mid
		} else {
			hi = mid
		}
	}
	return 0.5 * (lo + hi), nil
}

// nextTransition returns the time until b leaves its regime and the regime it
// enters. Balls that never change on their own return +Inf.
func nextTransition(solver TransitionSolver, b BallState, cfg *PhysicsConfig) (float64, Regime, error) {
	var (
		dt  float64
		err error
	)
	switch b.Regime {
	case Sliding:
		dt, err = solver.SlideTime(b, cfg)
	case Rolling:
		dt, err = solver.RollTime(b, cfg)
	case Spinning:
		dt, err = solver.SpinTime(b, cfg)
	default:
		return math.Inf(1), b.Regime, nil
	}
	if err != nil {
		return 0, b.Regime, err
	}

	end := Evolve(b, dt, cfg)
	spinning := math.Abs(end.AngularVelocity[2])*b.Radius > VelocityTolerance
	to := Stationary
	switch b.Regime {
	case Sliding:
		switch {
		case end.Speed() > VelocityTolerance:
			to = Rolling
		case spinning:
			to = Spinning
		}
	case Rolling:
		if spinning {
			to = Spinning
		}
	}
	return dt, to, nil
}
