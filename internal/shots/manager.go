package shots

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/playmatatu/poolsim/internal/game"
	"github.com/playmatatu/poolsim/internal/observability"
)

// ErrNotFound is returned by Get when neither the cache nor the store knows
// the shot.
var ErrNotFound = errors.New("shot not found")

// Summary is the headline of a simulated shot.
type Summary struct {
	Table    string         `json:"table" msgpack:"table"`
	Variant  string         `json:"variant,omitempty" msgpack:"variant,omitempty"`
	Duration float64        `json:"duration" msgpack:"duration"`
	Events   int            `json:"events" msgpack:"events"`
	Pocketed []string       `json:"pocketed" msgpack:"pocketed"`
	First    *FirstContact  `json:"first_contact,omitempty" msgpack:"first,omitempty"`
	Strike   game.CueStrike `json:"strike" msgpack:"strike"`
}

// FirstContact is the first ball the struck ball touched, which decides most
// fouls.
type FirstContact struct {
	Ball string  `json:"ball" msgpack:"ball"`
	Time float64 `json:"time" msgpack:"time"`
}

// Result is a simulated shot as returned to clients and kept in the cache.
type Result struct {
	ID          string              `json:"id" msgpack:"id"`
	RequestHash string              `json:"request_hash" msgpack:"hash"`
	Cached      bool                `json:"cached" msgpack:"-"`
	Summary     Summary             `json:"summary" msgpack:"summary"`
	Initial     []game.BallState    `json:"initial" msgpack:"initial"`
	Trajectory  game.TrajectoryData `json:"trajectory" msgpack:"trajectory"`
	CreatedAt   time.Time           `json:"created_at" msgpack:"created_at"`
}

// Cache holds recent results by request hash and by shot id.
type Cache interface {
	Get(ctx context.Context, key string) (*Result, bool, error)
	Put(ctx context.Context, key string, r *Result) error
}

// Store persists results.
type Store interface {
	Save(ctx context.Context, clientID string, r *Result) error
	Load(ctx context.Context, id string) (*Result, error)
}

// Publisher announces finished shots to other instances.
type Publisher interface {
	Publish(ctx context.Context, ev ShotEvent) error
}

// Manager runs shots through the simulator and keeps the cache, the store and
// subscribers up to date. Cache, store and publisher are optional; their
// failures are logged and never fail a simulation.
type Manager struct {
	sim       *game.ShotSimulator
	cache     Cache
	store     Store
	publisher Publisher
	metrics   *observability.Collector
	log       *logrus.Entry
	now       func() time.Time
}

type ManagerOption func(*Manager)

func WithCache(c Cache) ManagerOption {
	return func(m *Manager) { m.cache = c }
}

func WithStore(s Store) ManagerOption {
	return func(m *Manager) { m.store = s }
}

func WithPublisher(p Publisher) ManagerOption {
	return func(m *Manager) { m.publisher = p }
}

func WithMetrics(c *observability.Collector) ManagerOption {
	return func(m *Manager) { m.metrics = c }
}

func WithManagerLogger(l *logrus.Entry) ManagerOption {
	return func(m *Manager) { m.log = l }
}

func NewManager(sim *game.ShotSimulator, opts ...ManagerOption) *Manager {
	m := &Manager{
		sim: sim,
		log: logrus.WithField("component", "shots"),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Simulator() *game.ShotSimulator {
	return m.sim
}

// Simulate resolves the request, serves it from the cache when an identical
// request was seen recently, and otherwise simulates, stores and publishes it.
func (m *Manager) Simulate(ctx context.Context, clientID string, req ShotRequest) (*Result, error) {
	setup, err := req.Resolve()
	if err != nil {
		m.metrics.ObserveSimulation(observability.OutcomeRejected, 0, 0)
		return nil, err
	}
	hash, err := setup.Hash()
	if err != nil {
		m.metrics.ObserveSimulation(observability.OutcomeRejected, 0, 0)
		return nil, fmt.Errorf("%w: %v", game.ErrInvalidConfiguration, err)
	}

	if r := m.lookup(ctx, "req:"+hash); r != nil {
		m.metrics.ObserveSimulation(observability.OutcomeCached, 0, 0)
		return r, nil
	}

	r, err := m.run(setup, hash)
	if err != nil {
		return nil, err
	}

	if m.store != nil {
		if err := m.store.Save(ctx, clientID, r); err != nil {
			m.log.WithError(err).WithField("shot_id", r.ID).Warn("[DB] failed to store shot")
		}
	}
	m.remember(ctx, r)
	if m.publisher != nil {
		ev := ShotEvent{Type: EventShotCompleted, ShotID: r.ID, ClientID: clientID, Summary: r.Summary}
		if err := m.publisher.Publish(ctx, ev); err != nil {
			m.log.WithError(err).Warn("[WS] failed to publish shot_completed")
		}
	}
	return r, nil
}

// SimulateSetup runs an already resolved setup without touching the cache,
// the store or subscribers. BatchRunner uses it.
func (m *Manager) SimulateSetup(setup *Setup) (*Result, error) {
	hash, err := setup.Hash()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", game.ErrInvalidConfiguration, err)
	}
	return m.run(setup, hash)
}

func (m *Manager) run(setup *Setup, hash string) (*Result, error) {
	start := time.Now()
	traj, err := m.sim.Simulate(setup.Balls, setup.Strike, setup.Table)
	elapsed := time.Since(start)
	if err != nil {
		m.metrics.ObserveSimulation(outcomeOf(err), elapsed, 0)
		m.log.WithError(err).Debug("[SIM] shot rejected")
		return nil, err
	}
	m.metrics.ObserveSimulation(observability.OutcomeOK, elapsed, len(traj.Events()))

	r := &Result{
		ID:          uuid.NewString(),
		RequestHash: hash,
		Summary:     summarize(setup, traj),
		Initial:     setup.Balls,
		Trajectory:  traj.Data(),
		CreatedAt:   m.now().UTC(),
	}
	m.log.WithFields(logrus.Fields{
		"shot_id":  r.ID,
		"events":   r.Summary.Events,
		"duration": r.Summary.Duration,
		"elapsed":  elapsed,
	}).Debug("[SIM] shot simulated")
	return r, nil
}

// Get returns a stored shot, from the cache when possible.
func (m *Manager) Get(ctx context.Context, id string) (*Result, error) {
	if r := m.lookup(ctx, "shot:"+id); r != nil {
		return r, nil
	}
	if m.store == nil {
		return nil, ErrNotFound
	}
	r, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	m.remember(ctx, r)
	return r, nil
}

func (m *Manager) lookup(ctx context.Context, key string) *Result {
	if m.cache == nil {
		return nil
	}
	r, ok, err := m.cache.Get(ctx, key)
	if err != nil {
		m.log.WithError(err).Warn("[CACHE] lookup failed")
		return nil
	}
	m.metrics.CacheLookup(ok)
	if !ok {
		return nil
	}
	r.Cached = true
	return r
}

func (m *Manager) remember(ctx context.Context, r *Result) {
	if m.cache == nil {
		return
	}
	for _, key := range []string{"req:" + r.RequestHash, "shot:" + r.ID} {
		if err := m.cache.Put(ctx, key, r); err != nil {
			m.log.WithError(err).WithField("key", key).Warn("[CACHE] store failed")
		}
	}
}

func summarize(setup *Setup, traj *game.Trajectory) Summary {
	s := Summary{
		Table:    setup.Table.Name,
		Variant:  string(setup.Variant),
		Duration: traj.Duration(),
		Events:   len(traj.Events()),
		Pocketed: traj.Pocketed(),
		Strike:   setup.Strike,
	}
	if s.Pocketed == nil {
		s.Pocketed = []string{}
	}
	s.First = firstContact(setup.Strike.Ball, traj.Events())
	return s
}

// firstContact finds the first ball-ball event involving the struck ball.
func firstContact(struck string, events []game.EventRecord) *FirstContact {
	if struck == "" {
		struck = game.CueBallID
	}
	for _, ev := range events {
		if ev.Type != game.EventBallBall {
			continue
		}
		switch struck {
		case ev.Ball:
			return &FirstContact{Ball: ev.Target, Time: ev.Time}
		case ev.Target:
			return &FirstContact{Ball: ev.Ball, Time: ev.Time}
		}
	}
	return nil
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, game.ErrSimulationDidNotConverge), errors.Is(err, game.ErrDegenerateEvent):
		return observability.OutcomeDiverged
	case errors.Is(err, game.ErrInvalidConfiguration), errors.Is(err, game.ErrInvalidCueStrike),
		errors.Is(err, game.ErrOverlappingInitialState):
		return observability.OutcomeRejected
	}
	return observability.OutcomeInternal
}
