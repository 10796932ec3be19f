package game

import (
	"fmt"
	"math"
)

// CueStrike describes a single stroke of the cue.
//
// A and B are the horizontal and vertical offsets of the contact point from
// the ball centre as fractions of the radius (positive B is top spin).
// Theta is the cue elevation and Phi the aim angle, both in radians, with
// Phi measured counter-clockwise from +x.
type CueStrike struct {
	Ball  string  `json:"ball" yaml:"ball"`
	V0    float64 `json:"v0" yaml:"v0"`
	A     float64 `json:"a" yaml:"a"`
	B     float64 `json:"b" yaml:"b"`
	Theta float64 `json:"theta" yaml:"theta"`
	Phi   float64 `json:"phi" yaml:"phi"`
}

// CueBallID is the ball struck when a CueStrike names none.
const CueBallID = "cue"

func (s CueStrike) ballID() string {
	if s.Ball == "" {
		return CueBallID
	}
	return s.Ball
}

// Validate checks the stroke against the configured limits.
func (s CueStrike) Validate(l StrikeLimits) error {
	for _, v := range []float64{s.V0, s.A, s.B, s.Theta, s.Phi} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite parameter", ErrInvalidCueStrike)
		}
	}
	if s.V0 < l.MinStrike || s.V0 > l.MaxStrike {
		return fmt.Errorf("%w: v0 %.3f outside [%.3f, %.3f]", ErrInvalidCueStrike, s.V0, l.MinStrike, l.MaxStrike)
	}
	if math.Hypot(s.A, s.B) > l.MaxEnglish+1e-12 {
		return fmt.Errorf("%w: english (%.3f, %.3f) beyond %.3f of the radius", ErrInvalidCueStrike, s.A, s.B, l.MaxEnglish)
	}
	if s.Theta < 0 || s.Theta > l.MaxElevation {
		return fmt.Errorf("%w: elevation %.4f outside [0, %.4f]", ErrInvalidCueStrike, s.Theta, l.MaxElevation)
	}
	return nil
}

// Clamp pulls every parameter back inside the limits. English is scaled
// along its direction rather than clipped per axis.
func (l StrikeLimits) Clamp(s CueStrike) CueStrike {
	s.V0 = math.Max(l.MinStrike, math.Min(l.MaxStrike, s.V0))
	if n := math.Hypot(s.A, s.B); n > l.MaxEnglish {
		s.A *= l.MaxEnglish / n
		s.B *= l.MaxEnglish / n
	}
	s.Theta = math.Max(0, math.Min(l.MaxElevation, s.Theta))
	s.Phi = math.Mod(s.Phi, 2*math.Pi)
	if s.Phi < 0 {
		s.Phi += 2 * math.Pi
	}
	return s
}

// cueImpact converts a stroke aimed along +x into the ball's velocity and
// angular velocity. The cue is a point mass hitting elastically at the
// contact point Q along direction D:
//
//	F = 2·m·V0 / (1 + m/M + 5/(2R²)·|Q × D|²)
//
// The vertical component of the linear impulse is absorbed by the cloth.
func cueImpact(cfg *PhysicsConfig, v0, a, b, theta float64) (Vec3, Vec3) {
	R := cfg.BallRadius
	m, M := cfg.BallMass, cfg.CueMass
	forward := Vec3{1, 0, 0}
	right := forward.Cross(zHat)
	c := R * math.Sqrt(math.Max(0, 1-a*a-b*b))

	q := forward.Mul(-c).Add(right.Mul(a * R)).Add(zHat.Mul(b * R))
	sin, cos := math.Sincos(theta)
	dir := Vec3{cos, 0, -sin}
	qxd := q.Cross(dir)

	f := 2 * m * v0 / (1 + m/M + 5/(2*R*R)*qxd.LenSqr())
	v := Vec3{f / m * cos, 0, 0}
	w := qxd.Mul(f / (0.4 * m * R * R))
	return v, w
}

// StrikeParams is an adjustable stroke, as edited by an aiming control. All
// setters keep the stroke inside the limits.
type StrikeParams struct {
	limits StrikeLimits
	strike CueStrike
}

// NewStrikeParams starts from a centre-ball stroke at the middle of the
// power range.
func NewStrikeParams(limits StrikeLimits) *StrikeParams {
	return &StrikeParams{
		limits: limits,
		strike: CueStrike{Ball: CueBallID, V0: (limits.MinStrike + limits.MaxStrike) / 2},
	}
}

func (p *StrikeParams) SetPower(v0 float64) {
	p.strike.V0 = v0
	p.strike = p.limits.Clamp(p.strike)
}

func (p *StrikeParams) AdjustPower(delta float64) {
	p.SetPower(p.strike.V0 + delta)
}

// SetEnglish moves the contact point. Offsets beyond the limit are scaled back
// onto the limit circle.
func (p *StrikeParams) SetEnglish(a, b float64) {
	p.strike.A, p.strike.B = a, b
	p.strike = p.limits.Clamp(p.strike)
}

func (p *StrikeParams) SetElevation(theta float64) {
	p.strike.Theta = theta
	p.strike = p.limits.Clamp(p.strike)
}

func (p *StrikeParams) AdjustElevation(delta float64) {
	p.SetElevation(p.strike.Theta + delta)
}

func (p *StrikeParams) SetAim(phi float64) {
	p.strike.Phi = phi
	p.strike = p.limits.Clamp(p.strike)
}

// AimAt points the stroke from one table position towards another.
func (p *StrikeParams) AimAt(from, to Vec3) {
	d := to.Sub(from)
	p.SetAim(math.Atan2(d[1], d[0]))
}

func (p *StrikeParams) SetBall(id string) {
	p.strike.Ball = id
}

// Strike returns the current stroke.
func (p *StrikeParams) Strike() CueStrike {
	return p.strike
}
