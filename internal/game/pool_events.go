package game

import (
	"fmt"
	"math"
)

// EventType identifies what happens at an event. The declaration order is
// also the priority used to break ties between simultaneous events.
type EventType int

const (
	EventBallBall EventType = iota
	EventCushion
	EventPocket
	EventTransition
)

var eventNames = [...]string{"ball", "cushion", "pocket", "transition"}

func (e EventType) String() string {
	if e < 0 || int(e) >= len(eventNames) {
		return fmt.Sprintf("event(%d)", int(e))
	}
	return eventNames[e]
}

func (e EventType) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

func (e *EventType) UnmarshalText(b []byte) error {
	for i, name := range eventNames {
		if name == string(b) {
			*e = EventType(i)
			return nil
		}
	}
	return fmt.Errorf("unknown event type %q", b)
}

// Event is the next thing that changes a ball's motion. Time is relative to
// the moment detection ran.
type Event struct {
	Type EventType
	Time float64
	// Ball is the index of the ball the event acts on, the lower index for a
	// ball-ball contact.
	Ball int
	// Target is the other ball index, the cushion id or the pocket id. It is
	// -1 for transitions.
	Target int
	// To is the regime entered by a transition.
	To Regime
}

// precedes orders events that fall within TieTolerance of each other by
// type, then ball index, then target index.
func (e Event) precedes(o Event) bool {
	if math.Abs(e.Time-o.Time) > TieTolerance {
		return e.Time < o.Time
	}
	if e.Type != o.Type {
		return e.Type < o.Type
	}
	if e.Ball != o.Ball {
		return e.Ball < o.Ball
	}
	return e.Target < o.Target
}

// detector finds the earliest future event for a set of balls.
type detector struct {
	cfg    *PhysicsConfig
	solver TransitionSolver
}

// next returns the earliest event, or false when every ball is at rest or
// pocketed. Returned times are never below Epsilon.
func (d *detector) next(balls []BallState, table *Table) (Event, bool, error) {
	horizon := make([]float64, len(balls))
	moves := make([]motion, len(balls))
	var (
		best  Event
		found bool
	)
	consider := func(e Event) {
		if e.Time < Epsilon {
			e.Time = Epsilon
		}
		if !found || e.precedes(best) {
			best, found = e, true
		}
	}

	for i := range balls {
		b := balls[i]
		moves[i] = motionOf(b, d.cfg)
		dt, to, err := nextTransition(d.solver, b, d.cfg)
		if err != nil {
			return Event{}, false, fmt.Errorf("ball %q: %w", b.ID, err)
		}
		horizon[i] = dt
		if !math.IsInf(dt, 1) {
			consider(Event{Type: EventTransition, Time: dt, Ball: i, Target: -1, To: to})
		}
	}

	for i := range balls {
		b := balls[i]
		if !b.Translating() {
			continue
		}
		for _, c := range table.Cushions {
			t, ok := firstEntering(gapToLine(moves[i], c.P1, c.Normal, b.Radius), horizon[i])
			if ok && c.spans(moves[i].at(t)) {
				consider(Event{Type: EventCushion, Time: t, Ball: i, Target: c.ID})
			}
		}
		for _, p := range table.Pockets {
			if t, ok := firstEntering(gapToPoint(moves[i], p.Center, p.Radius), horizon[i]); ok {
				consider(Event{Type: EventPocket, Time: t, Ball: i, Target: p.ID})
			}
		}
	}

	for i := range balls {
		if !balls[i].OnTable() {
			continue
		}
		for j := i + 1; j < len(balls); j++ {
			if !balls[j].OnTable() || (!balls[i].Translating() && !balls[j].Translating()) {
				continue
			}
			h := math.Min(horizon[i], horizon[j])
			p := gapBetween(moves[i], moves[j], balls[i].Radius+balls[j].Radius)
			if t, ok := firstEntering(p, h); ok {
				consider(Event{Type: EventBallBall, Time: t, Ball: i, Target: j})
			}
		}
	}
	return best, found, nil
}
