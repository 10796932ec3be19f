package game

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// ShotSimulator runs event-driven shot simulations. A simulator holds only
// immutable settings and is safe for concurrent use.
type ShotSimulator struct {
	cfg            PhysicsConfig
	solver         TransitionSolver
	sampleInterval float64
	maxEvents      int
	maxTime        float64
	log            *logrus.Entry
}

// Option customises a ShotSimulator.
type Option func(*ShotSimulator)

// WithSolver selects the regime transition solver. ExactSolver is the default.
func WithSolver(s TransitionSolver) Option {
	return func(sim *ShotSimulator) { sim.solver = s }
}

// WithSampleInterval sets the spacing of the uniform time grid.
func WithSampleInterval(dt float64) Option {
	return func(sim *ShotSimulator) { sim.sampleInterval = dt }
}

// WithBudget bounds the number of events and the simulated time.
func WithBudget(maxEvents int, maxTime float64) Option {
	return func(sim *ShotSimulator) {
		sim.maxEvents = maxEvents
		sim.maxTime = maxTime
	}
}

func WithLogger(l *logrus.Entry) Option {
	return func(sim *ShotSimulator) { sim.log = l }
}

// NewShotSimulator validates cfg and returns a simulator.
func NewShotSimulator(cfg PhysicsConfig, opts ...Option) (*ShotSimulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sim := &ShotSimulator{
		cfg:            cfg,
		solver:         ExactSolver{},
		sampleInterval: DefaultSampleInterval,
		maxEvents:      DefaultMaxEvents,
		maxTime:        DefaultMaxTime,
		log:            logrus.WithField("component", "sim"),
	}
	for _, opt := range opts {
		opt(sim)
	}
	if sim.solver == nil {
		return nil, fmt.Errorf("%w: nil transition solver", ErrInvalidConfiguration)
	}
	if !(sim.sampleInterval > 0) {
		return nil, fmt.Errorf("%w: sample interval must be positive", ErrInvalidConfiguration)
	}
	if sim.maxEvents <= 0 || !(sim.maxTime > 0) {
		return nil, fmt.Errorf("%w: event budget must be positive", ErrInvalidConfiguration)
	}
	return sim, nil
}

// Config returns the physics parameters the simulator was built with.
func (s *ShotSimulator) Config() PhysicsConfig {
	return s.cfg
}

// DeriveInitialVelocity returns the velocity and angular velocity a stroke
// aimed along +x imparts to the ball. Rotate both by the aim angle for other
// directions.
func (s *ShotSimulator) DeriveInitialVelocity(v0, a, b, theta float64) (Vec3, Vec3) {
	return cueImpact(&s.cfg, v0, a, b, theta)
}

// StrikeVelocity validates strike and returns the velocity and angular
// velocity it gives the struck ball, rotated to the aim angle.
func (s *ShotSimulator) StrikeVelocity(strike CueStrike) (Vec3, Vec3, error) {
	if err := strike.Validate(s.cfg.Strike); err != nil {
		return Vec3{}, Vec3{}, err
	}
	v, w := cueImpact(&s.cfg, strike.V0, strike.A, strike.B, strike.Theta)
	return rotateZ(v, strike.Phi), rotateZ(w, strike.Phi), nil
}

// Simulate strikes the named ball and runs the shot until every ball is at
// rest or pocketed. The input slice is not modified.
func (s *ShotSimulator) Simulate(initial []BallState, strike CueStrike, table *Table) (*Trajectory, error) {
	v, w, err := s.StrikeVelocity(strike)
	if err != nil {
		return nil, err
	}
	balls := make([]BallState, len(initial))
	copy(balls, initial)

	cue := -1
	for i := range balls {
		if balls[i].ID == strike.ballID() {
			cue = i
			break
		}
	}
	if cue < 0 {
		return nil, fmt.Errorf("%w: no ball %q on the table", ErrInvalidCueStrike, strike.ballID())
	}
	if !balls[cue].OnTable() {
		return nil, fmt.Errorf("%w: ball %q is pocketed", ErrInvalidCueStrike, strike.ballID())
	}

	balls[cue].Velocity = v
	balls[cue].AngularVelocity = w
	s.log.Debugf("[SIM] strike %s v=%v w=%v", balls[cue].ID, balls[cue].Velocity, balls[cue].AngularVelocity)
	return s.run(balls, table)
}

// SimulateFrom runs balls that are already in motion, without a stroke.
func (s *ShotSimulator) SimulateFrom(initial []BallState, table *Table) (*Trajectory, error) {
	balls := make([]BallState, len(initial))
	copy(balls, initial)
	return s.run(balls, table)
}

func (s *ShotSimulator) run(balls []BallState, table *Table) (*Trajectory, error) {
	if table == nil {
		return nil, fmt.Errorf("%w: nil table", ErrInvalidConfiguration)
	}
	if err := checkInitialState(balls); err != nil {
		return nil, err
	}
	for i := range balls {
		if balls[i].OnTable() {
			balls[i].Position[2] = balls[i].Radius
			balls[i].Velocity[2] = 0
		}
		balls[i].Regime = balls[i].Classify()
	}

	det := detector{cfg: &s.cfg, solver: s.solver}
	traj := newTrajectory(balls)
	traj.record(0, balls)

	var (
		clock float64
		tick  = 1
	)
	for n := 0; ; n++ {
		ev, ok, err := det.next(balls, table)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if n >= s.maxEvents {
			return nil, fmt.Errorf("%w: more than %d events", ErrSimulationDidNotConverge, s.maxEvents)
		}
		end := clock + ev.Time
		if end > s.maxTime {
			return nil, fmt.Errorf("%w: shot still moving after %.1fs", ErrSimulationDidNotConverge, s.maxTime)
		}

		for ; float64(tick)*s.sampleInterval < end; tick++ {
			t := float64(tick) * s.sampleInterval
			frame := make([]BallState, len(balls))
			for i := range balls {
				frame[i] = Evolve(balls[i], t-clock, &s.cfg)
			}
			traj.record(t, frame)
		}

		for i := range balls {
			balls[i] = Evolve(balls[i], ev.Time, &s.cfg)
		}
		clock = end

		rec := traj.describe(ev, balls, table, clock)
		if err := resolve(ev, balls, table, &s.cfg); err != nil {
			return nil, fmt.Errorf("event %d at %.6fs: %w", n, clock, err)
		}
		traj.events = append(traj.events, rec)
		// One frame per instant: the resolved state.
		traj.record(clock, balls)
		for float64(tick)*s.sampleInterval <= clock {
			tick++
		}
		s.log.Debugf("[SIM] t=%.6f %s %s -> %s", clock, rec.Type, rec.Ball, rec.Target)
	}

	traj.duration = clock
	s.log.Debugf("[SIM] settled after %.3fs, %d events", clock, len(traj.events))
	return traj, nil
}
