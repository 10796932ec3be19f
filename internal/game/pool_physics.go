package game

import (
	"encoding/json"
	"sort"
)

// EventRecord is one entry of a shot's event log, used for rule checking and
// sound playback.
type EventRecord struct {
	Time   float64   `json:"time" msgpack:"t"`
	Type   EventType `json:"type" msgpack:"k"`
	Ball   string    `json:"ball" msgpack:"b"`
	Target string    `json:"target,omitempty" msgpack:"o,omitempty"` // ball id, cushion or pocket name
	Speed  float64   `json:"speed" msgpack:"s"`                      // impact speed
	From   Regime    `json:"from" msgpack:"f"`
	To     Regime    `json:"to" msgpack:"r"`
}

// Frame is the state of every ball at one instant.
type Frame struct {
	Time  float64     `json:"time" msgpack:"t"`
	Balls []BallState `json:"balls" msgpack:"b"`
}

// Sample is one ball's state at one instant.
type Sample struct {
	Time  float64   `json:"time"`
	State BallState `json:"state"`
}

// Trajectory is the result of a simulation: frames on a uniform time grid
// plus one frame at every event, and the event log. Frame times are strictly
// increasing.
//
// The frame at an event time holds the state once the event is resolved.
// Positions are continuous across events, so only velocities and regimes
// differ from the instant before; the pre-event impact speed is kept in the
// event's EventRecord.Speed and its prior regime in From.
//
// Accessors return copies; the trajectory is never modified after Simulate
// returns.
type Trajectory struct {
	ids      []string
	frames   []Frame
	events   []EventRecord
	duration float64
}

func newTrajectory(balls []BallState) *Trajectory {
	ids := make([]string, len(balls))
	for i := range balls {
		ids[i] = balls[i].ID
	}
	return &Trajectory{ids: ids}
}

func (f Frame) clone() Frame {
	return Frame{Time: f.Time, Balls: append([]BallState(nil), f.Balls...)}
}

func cloneFrames(frames []Frame) []Frame {
	if frames == nil {
		return nil
	}
	out := make([]Frame, len(frames))
	for i, f := range frames {
		out[i] = f.clone()
	}
	return out
}

func (t *Trajectory) record(at float64, balls []BallState) {
	frame := Frame{Time: at, Balls: make([]BallState, len(balls))}
	copy(frame.Balls, balls)
	t.frames = append(t.frames, frame)
}

// describe builds the log entry for ev before it is resolved, so speeds are
// impact speeds.
func (t *Trajectory) describe(ev Event, balls []BallState, table *Table, at float64) EventRecord {
	b := balls[ev.Ball]
	rec := EventRecord{Time: at, Type: ev.Type, Ball: b.ID, From: b.Regime, To: b.Regime}
	switch ev.Type {
	case EventBallBall:
		o := balls[ev.Target]
		n := unit(planar(o.Position.Sub(b.Position)))
		rec.Target = o.ID
		rec.Speed = b.Velocity.Sub(o.Velocity).Dot(n)
	case EventCushion:
		if c, ok := cushionByID(table, ev.Target); ok {
			rec.Target = c.Name
			rec.Speed = -b.Velocity.Dot(c.Normal)
		}
	case EventPocket:
		for _, p := range table.Pockets {
			if p.ID == ev.Target {
				rec.Target = p.Name
			}
		}
		rec.Speed = b.Speed()
		rec.To = Pocketed
	case EventTransition:
		rec.To = ev.To
	}
	return rec
}

// BallIDs lists the balls in input order.
func (t *Trajectory) BallIDs() []string {
	return append([]string(nil), t.ids...)
}

// Frames returns every recorded frame in time order.
func (t *Trajectory) Frames() []Frame {
	return cloneFrames(t.frames)
}

// Events returns the event log in processing order.
func (t *Trajectory) Events() []EventRecord {
	return append([]EventRecord(nil), t.events...)
}

// Duration is the time of the last event.
func (t *Trajectory) Duration() float64 {
	return t.duration
}

// Samples returns the time series of one ball.
func (t *Trajectory) Samples(id string) []Sample {
	idx := t.index(id)
	if idx < 0 {
		return nil
	}
	out := make([]Sample, len(t.frames))
	for i, f := range t.frames {
		out[i] = Sample{Time: f.Time, State: f.Balls[idx]}
	}
	return out
}

// Final returns the settled state of every ball.
func (t *Trajectory) Final() []BallState {
	if len(t.frames) == 0 {
		return nil
	}
	return append([]BallState(nil), t.frames[len(t.frames)-1].Balls...)
}

// FinalState returns the settled state of one ball.
func (t *Trajectory) FinalState(id string) (BallState, bool) {
	idx := t.index(id)
	if idx < 0 || len(t.frames) == 0 {
		return BallState{}, false
	}
	return t.frames[len(t.frames)-1].Balls[idx], true
}

// AllStopped reports whether every ball ended at rest or in a pocket.
func (t *Trajectory) AllStopped() bool {
	for _, b := range t.Final() {
		if b.Regime != Stationary && b.Regime != Pocketed {
			return false
		}
	}
	return true
}

// Pocketed lists the balls that went down, in the order they dropped.
func (t *Trajectory) Pocketed() []string {
	var out []string
	for _, e := range t.events {
		if e.Type == EventPocket {
			out = append(out, e.Ball)
		}
	}
	return out
}

// At returns the most recent frame at or before time ts.
func (t *Trajectory) At(ts float64) (Frame, bool) {
	i := sort.Search(len(t.frames), func(i int) bool { return t.frames[i].Time > ts })
	if i == 0 {
		return Frame{}, false
	}
	return t.frames[i-1].clone(), true
}

func (t *Trajectory) index(id string) int {
	for i, v := range t.ids {
		if v == id {
			return i
		}
	}
	return -1
}

// Replay steps through a trajectory's frames in order.
type Replay struct {
	frames []Frame
	pos    int
}

// Replay starts a playback from the first frame.
func (t *Trajectory) Replay() *Replay {
	return &Replay{frames: t.frames}
}

// Next returns the next frame, or false at the end.
func (r *Replay) Next() (Frame, bool) {
	if r.pos >= len(r.frames) {
		return Frame{}, false
	}
	f := r.frames[r.pos].clone()
	r.pos++
	return f, true
}

func (r *Replay) Reset() {
	r.pos = 0
}

// TrajectoryData is the serialisable form of a Trajectory.
type TrajectoryData struct {
	BallIDs  []string      `json:"ball_ids" msgpack:"ids"`
	Frames   []Frame       `json:"frames" msgpack:"frames"`
	Events   []EventRecord `json:"events" msgpack:"events"`
	Duration float64       `json:"duration" msgpack:"duration"`
}

// Data returns a deep copy suitable for encoding.
func (t *Trajectory) Data() TrajectoryData {
	return TrajectoryData{
		BallIDs:  t.BallIDs(),
		Frames:   cloneFrames(t.frames),
		Events:   t.Events(),
		Duration: t.duration,
	}
}

// TrajectoryFromData rebuilds a trajectory, typically from a cache entry.
func TrajectoryFromData(d TrajectoryData) *Trajectory {
	return &Trajectory{ids: d.BallIDs, frames: d.Frames, events: d.Events, duration: d.Duration}
}

func (t *Trajectory) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Data())
}

func (t *Trajectory) UnmarshalJSON(b []byte) error {
	var d TrajectoryData
	if err := json.Unmarshal(b, &d); err != nil {
		return err
	}
	*t = *TrajectoryFromData(d)
	return nil
}
