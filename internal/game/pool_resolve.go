package game

import (
	"fmt"
	"math"
)

// resolve applies the instantaneous state change of ev. Positions are assumed
// to be already advanced to the event time.
func resolve(ev Event, balls []BallState, table *Table, cfg *PhysicsConfig) error {
	switch ev.Type {
	case EventBallBall:
		if err := resolveBallBall(&balls[ev.Ball], &balls[ev.Target], cfg); err != nil {
			return err
		}
	case EventCushion:
		c, ok := cushionByID(table, ev.Target)
		if !ok {
			return fmt.Errorf("%w: unknown cushion %d", ErrDegenerateEvent, ev.Target)
		}
		resolveCushion(&balls[ev.Ball], c, cfg)
	case EventPocket:
		resolvePocket(&balls[ev.Ball])
	case EventTransition:
		balls[ev.Ball].Regime = ev.To
	}
	touched := []int{ev.Ball}
	if ev.Type == EventBallBall {
		touched = append(touched, ev.Target)
	}
	for _, i := range touched {
		b := balls[i]
		if !finite(b.Position) || !finite(b.Velocity) || !finite(b.AngularVelocity) {
			return fmt.Errorf("%w: %s left ball %q non-finite", ErrDegenerateEvent, ev.Type, b.ID)
		}
	}
	return nil
}

func cushionByID(t *Table, id int) (Cushion, bool) {
	for _, c := range t.Cushions {
		if c.ID == id {
			return c, true
		}
	}
	return Cushion{}, false
}

// resolveBallBall applies a normal restitution impulse along the line of
// centres and a Coulomb-limited friction impulse at the contact point.
func resolveBallBall(a, b *BallState, cfg *PhysicsConfig) error {
	d := planar(b.Position.Sub(a.Position))
	dist := d.Len()
	if dist == 0 {
		return fmt.Errorf("%w: %q and %q share a centre", ErrDegenerateEvent, a.ID, b.ID)
	}
	n := d.Mul(1 / dist)
	invMass := 1/a.Mass + 1/b.Mass

	if vn := a.Velocity.Sub(b.Velocity).Dot(n); vn > 0 {
		jn := (1 + restitution(cfg.BallBallRestitution, vn)) * vn / invMass
		a.Velocity = a.Velocity.Sub(n.Mul(jn / a.Mass))
		b.Velocity = b.Velocity.Add(n.Mul(jn / b.Mass))

		ra := n.Mul(a.Radius)
		rb := n.Mul(-b.Radius)
		ua := a.Velocity.Add(a.AngularVelocity.Cross(ra))
		ub := b.Velocity.Add(b.AngularVelocity.Cross(rb))
		rel := ua.Sub(ub)
		ut := rel.Sub(n.Mul(rel.Dot(n)))
		if slip := ut.Len(); slip > VelocityTolerance {
			// A tangential impulse J changes slip by 7/2·(1/m1 + 1/m2)·J.
			jt := math.Min(cfg.BallBallFriction*jn, slip/(3.5*invMass))
			J := ut.Mul(-jt / slip)
			a.Velocity = a.Velocity.Add(planar(J).Mul(1 / a.Mass))
			b.Velocity = b.Velocity.Sub(planar(J).Mul(1 / b.Mass))
			a.AngularVelocity = a.AngularVelocity.Add(ra.Cross(J).Mul(1 / inertia(a)))
			b.AngularVelocity = b.AngularVelocity.Add(rb.Cross(J.Mul(-1)).Mul(1 / inertia(b)))
		}
	}

	if push := a.Radius + b.Radius + ContactSeparation - dist; push > 0 {
		ma, mb := a.Mass/(a.Mass+b.Mass), b.Mass/(a.Mass+b.Mass)
		a.Position = a.Position.Sub(n.Mul(push * mb))
		b.Position = b.Position.Add(n.Mul(push * ma))
	}
	a.Regime = a.Classify()
	b.Regime = b.Classify()
	return nil
}

// resolveCushion reflects the normal velocity with restitution and applies
// rail friction at the contact point, which sits at the height of the ball
// centre.
func resolveCushion(b *BallState, c Cushion, cfg *PhysicsConfig) {
	n := c.Normal
	if vn := b.Velocity.Dot(n); vn < 0 {
		jn := -(1 + restitution(cfg.CushionRestitution, -vn)) * vn
		b.Velocity = b.Velocity.Add(n.Mul(jn))

		r := n.Mul(-b.Radius)
		u := b.Velocity.Add(b.AngularVelocity.Cross(r))
		ut := u.Sub(n.Mul(u.Dot(n)))
		if slip := ut.Len(); slip > VelocityTolerance {
			jt := math.Min(cfg.CushionFriction*jn, slip/3.5)
			J := ut.Mul(-jt / slip)
			b.Velocity = b.Velocity.Add(planar(J))
			b.AngularVelocity = b.AngularVelocity.Add(r.Cross(J).Mul(2.5 / (b.Radius * b.Radius)))
		}
	}
	if gap := c.distance(b.Position) - b.Radius - ContactSeparation; gap < 0 {
		b.Position = b.Position.Sub(n.Mul(gap))
	}
	b.Regime = b.Classify()
}

// resolvePocket removes the ball from play where it entered the pocket.
func resolvePocket(b *BallState) {
	b.Velocity = Vec3{}
	b.AngularVelocity = Vec3{}
	b.Regime = Pocketed
}

// restitution returns e for a contact closing at speed vn, or zero for a
// resting contact.
func restitution(e, vn float64) float64 {
	if vn < RestingSpeed {
		return 0
	}
	return e
}

func inertia(b *BallState) float64 {
	return 0.4 * b.Mass * b.Radius * b.Radius
}
