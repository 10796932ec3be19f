package shots

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playmatatu/poolsim/internal/game"
)

type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	failGet bool
}

func newMemCache() *memCache {
	return &memCache{entries: map[string][]byte{}}
}

// The fake goes through the real codec so cached results look exactly like
// the ones Redis would hand back.
func (c *memCache) Get(_ context.Context, key string) (*Result, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet {
		return nil, false, errors.New("connection refused")
	}
	data, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	r, err := DecodeResult(data)
	return r, err == nil, err
}

func (c *memCache) Put(_ context.Context, key string, r *Result) error {
	data, err := EncodeResult(r)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.entries[key] = data
	c.mu.Unlock()
	return nil
}

type memStore struct {
	mu    sync.Mutex
	shots map[string]*Result
	owner map[string]string
	err   error
}

func newMemStore() *memStore {
	return &memStore{shots: map[string]*Result{}, owner: map[string]string{}}
}

func (s *memStore) Save(_ context.Context, clientID string, r *Result) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shots[r.ID] = r
	s.owner[r.ID] = clientID
	return nil
}

func (s *memStore) Load(_ context.Context, id string) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.shots[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

type recordingPublisher struct {
	events []ShotEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev ShotEvent) error {
	p.events = append(p.events, ev)
	return nil
}

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func newTestManager(t *testing.T, opts ...ManagerOption) *Manager {
	t.Helper()
	sim, err := game.NewShotSimulator(game.DefaultPhysicsConfig(), game.WithLogger(quietLogger()), game.WithSampleInterval(0.05))
	require.NoError(t, err)
	return NewManager(sim, append([]ManagerOption{WithManagerLogger(quietLogger())}, opts...)...)
}

func straightRequest() ShotRequest {
	return ShotRequest{
		Table: "pool",
		Balls: []game.BallState{
			game.NewBall("cue", 0.6223, 0.6, game.DefaultBallRadius, game.DefaultBallMass),
			game.NewBall("1", 0.6223, 1.2, game.DefaultBallRadius, game.DefaultBallMass),
		},
		Strike: game.CueStrike{V0: 1.5, Phi: 1.5707963267948966},
	}
}

func TestResolveBuildsRack(t *testing.T) {
	setup, err := ShotRequest{Variant: "three_cushion", Seed: 3}.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "billiard", setup.Table.Name)
	assert.Len(t, setup.Balls, 3)
	assert.Equal(t, "white", setup.Strike.Ball)

	setup, err = ShotRequest{Variant: "nine_ball", Table: "pool"}.Resolve()
	require.NoError(t, err)
	assert.Len(t, setup.Balls, 10)
	assert.Equal(t, game.CueBallID, setup.Balls[0].ID)

	_, err = ShotRequest{}.Resolve()
	assert.ErrorIs(t, err, game.ErrInvalidConfiguration)
	_, err = ShotRequest{Variant: "nine_ball", Table: "snooker"}.Resolve()
	assert.ErrorIs(t, err, game.ErrInvalidConfiguration)
}

func TestHashStableAndSensitive(t *testing.T) {
	a, err := straightRequest().Resolve()
	require.NoError(t, err)
	b, err := straightRequest().Resolve()
	require.NoError(t, err)

	ha, err := a.Hash()
	require.NoError(t, err)
	hb, err := b.Hash()
	require.NoError(t, err)
	assert.Equal(t, ha, hb)

	b.Strike.V0 = 1.6
	hb, err = b.Hash()
	require.NoError(t, err)
	assert.NotEqual(t, ha, hb)
}

func TestSimulateStoresCachesAndPublishes(t *testing.T) {
	cache, store, pub := newMemCache(), newMemStore(), &recordingPublisher{}
	m := newTestManager(t, WithCache(cache), WithStore(store), WithPublisher(pub))
	ctx := context.Background()

	r, err := m.Simulate(ctx, "lab", straightRequest())
	require.NoError(t, err)
	assert.False(t, r.Cached)
	assert.NotEmpty(t, r.ID)
	require.NotNil(t, r.Summary.First)
	assert.Equal(t, "1", r.Summary.First.Ball)
	assert.Equal(t, len(r.Trajectory.Events), r.Summary.Events)

	assert.Equal(t, "lab", store.owner[r.ID])
	require.Len(t, pub.events, 1)
	assert.Equal(t, EventShotCompleted, pub.events[0].Type)
	assert.Equal(t, r.ID, pub.events[0].ShotID)

	again, err := m.Simulate(ctx, "lab", straightRequest())
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.Equal(t, r.ID, again.ID)
	assert.Equal(t, r.Trajectory, again.Trajectory)
	assert.Len(t, pub.events, 1, "cache hits are not re-published")
}

func TestSimulateSurvivesBrokenBackends(t *testing.T) {
	cache := newMemCache()
	cache.failGet = true
	store := newMemStore()
	store.err = errors.New("disk full")
	m := newTestManager(t, WithCache(cache), WithStore(store))

	r, err := m.Simulate(context.Background(), "lab", straightRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, r.ID)
}

func TestSimulateRejectsBadShots(t *testing.T) {
	m := newTestManager(t)
	req := straightRequest()
	req.Balls[1] = game.NewBall("1", 0.6223, 0.61, game.DefaultBallRadius, game.DefaultBallMass)
	_, err := m.Simulate(context.Background(), "lab", req)
	assert.ErrorIs(t, err, game.ErrOverlappingInitialState)

	req = straightRequest()
	req.Strike.V0 = 100
	_, err = m.Simulate(context.Background(), "lab", req)
	assert.ErrorIs(t, err, game.ErrInvalidCueStrike)
}

func TestGetFallsBackToStore(t *testing.T) {
	store := newMemStore()
	m := newTestManager(t, WithStore(store))
	r, err := m.Simulate(context.Background(), "lab", straightRequest())
	require.NoError(t, err)

	cache := newMemCache()
	m.cache = cache
	got, err := m.Get(context.Background(), r.ID)
	require.NoError(t, err)
	assert.False(t, got.Cached)
	assert.Equal(t, r.Summary, got.Summary)

	got, err = m.Get(context.Background(), r.ID)
	require.NoError(t, err)
	assert.True(t, got.Cached, "second read comes from the cache")

	_, err = m.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = newTestManager(t).Get(context.Background(), r.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCodecKeepsTrajectory(t *testing.T) {
	m := newTestManager(t)
	r, err := m.Simulate(context.Background(), "lab", straightRequest())
	require.NoError(t, err)

	data, err := EncodeResult(r)
	require.NoError(t, err)
	back, err := DecodeResult(data)
	require.NoError(t, err)

	traj := game.TrajectoryFromData(back.Trajectory)
	final, ok := traj.FinalState("1")
	require.True(t, ok)
	want, _ := game.TrajectoryFromData(r.Trajectory).FinalState("1")
	assert.Equal(t, want, final)
	assert.Equal(t, r.Trajectory.Events, back.Trajectory.Events)
	assert.True(t, r.CreatedAt.Equal(back.CreatedAt))

	_, err = DecodeResult([]byte{0xc1})
	assert.Error(t, err)
}

func TestStoreRowRoundTrip(t *testing.T) {
	m := newTestManager(t)
	r, err := m.Simulate(context.Background(), "lab", straightRequest())
	require.NoError(t, err)

	row, err := shotRow("lab", r)
	require.NoError(t, err)
	assert.Equal(t, r.Summary.Events, row.EventCount)

	back, err := resultFromRow(row)
	require.NoError(t, err)
	assert.Equal(t, r.Summary, back.Summary)
	assert.Equal(t, r.Initial, back.Initial)
	assert.Equal(t, len(r.Trajectory.Frames), len(back.Trajectory.Frames))
}

func TestBatchKeepsInputOrder(t *testing.T) {
	m := newTestManager(t)
	var reqs []ShotRequest
	for i := 0; i < 12; i++ {
		req := straightRequest()
		req.Strike.V0 = 0.5 + 0.25*float64(i)
		reqs = append(reqs, req)
	}
	bad := straightRequest()
	bad.Strike.A = 0.9
	reqs = append(reqs, bad)

	items := NewBatchRunner(m, 4).Run(context.Background(), reqs)
	require.Len(t, items, len(reqs))
	for i, it := range items[:12] {
		assert.Equal(t, i, it.Index)
		require.NoError(t, it.Err)
		assert.Equal(t, reqs[i].Strike.V0, it.Result.Summary.Strike.V0)
	}
	last := items[12]
	assert.ErrorIs(t, last.Err, game.ErrInvalidCueStrike)
	assert.NotEmpty(t, last.Error)

	serial := NewBatchRunner(m, 1).Run(context.Background(), reqs[:12])
	for i := range serial {
		assert.Equal(t, items[i].Result.Trajectory, serial[i].Result.Trajectory, "worker count changes nothing")
	}
}

func TestBatchHonoursCancellation(t *testing.T) {
	m := newTestManager(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	items := NewBatchRunner(m, 2).Run(ctx, []ShotRequest{straightRequest(), straightRequest()})
	for _, it := range items {
		assert.ErrorIs(t, it.Err, context.Canceled)
		assert.Nil(t, it.Result)
	}
}
