package game

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strconv"
)

// Variant selects a starting layout.
type Variant string

const (
	NineBall     Variant = "nine_ball"
	EightBall    Variant = "eight_ball"
	ThreeCushion Variant = "three_cushion"
)

// ParseVariant accepts the canonical names and a few common spellings.
func ParseVariant(s string) (Variant, error) {
	switch s {
	case "nine_ball", "9ball", "nine-ball":
		return NineBall, nil
	case "eight_ball", "8ball", "eight-ball":
		return EightBall, nil
	case "three_cushion", "3cushion", "three-cushion", "carom":
		return ThreeCushion, nil
	}
	return "", fmt.Errorf("%w: unknown rack variant %q", ErrInvalidConfiguration, s)
}

// Table returns the table a variant is played on.
func (v Variant) Table() *Table {
	if v == ThreeCushion {
		return StandardCaromTable()
	}
	return StandardPoolTable()
}

// BreakBall is the ball struck on the opening shot.
func (v Variant) BreakBall(whiteToBreak bool) string {
	if v != ThreeCushion {
		return CueBallID
	}
	if whiteToBreak {
		return "white"
	}
	return "yellow"
}

// Rack maps ball ids to their starting states.
type Rack map[string]BallState

// Ordered returns the balls with the cue ball (or white) first, numbered
// balls in numeric order, then everything else by id.
func (r Rack) Ordered() []BallState {
	out := make([]BallState, 0, len(r))
	for _, b := range r {
		out = append(out, b)
	}
	rank := func(id string) (int, int) {
		switch id {
		case CueBallID, "white":
			return 0, 0
		}
		if n, err := strconv.Atoi(id); err == nil {
			return 1, n
		}
		return 2, 0
	}
	sort.Slice(out, func(i, j int) bool {
		gi, ni := rank(out[i].ID)
		gj, nj := rank(out[j].ID)
		if gi != gj {
			return gi < gj
		}
		if ni != nj {
			return ni < nj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// NewRackRNG returns the explicitly seeded source Build draws from.
func NewRackRNG(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

type rackSettings struct {
	radius       float64
	mass         float64
	whiteToBreak bool
	wiggle       bool
}

// RackOption customises Build.
type RackOption func(*rackSettings)

// WithBallSpec sets the radius and mass of every racked ball.
func WithBallSpec(radius, mass float64) RackOption {
	return func(s *rackSettings) { s.radius, s.mass = radius, mass }
}

// WithWhiteToBreak picks which carom ball breaks. The default is white.
func WithWhiteToBreak(white bool) RackOption {
	return func(s *rackSettings) { s.whiteToBreak = white }
}

// WithoutWiggle places racked balls exactly on their lattice sites.
func WithoutWiggle() RackOption {
	return func(s *rackSettings) { s.wiggle = false }
}

// rackBuilder carries the working state of one Build call.
type rackBuilder struct {
	settings rackSettings
	table    *Table
	rng      *rand.Rand
	spacer   float64
	eff      float64
	balls    []BallState
	cue      BallState
}

func (rb *rackBuilder) jitter(p Vec3) Vec3 {
	if !rb.settings.wiggle {
		return p
	}
	ang := 2 * math.Pi * rb.rng.Float64()
	rad := rb.spacer * rb.rng.Float64()
	return p.Add(Vec3{rad * math.Cos(ang), rad * math.Sin(ang), 0})
}

// rackLayout is the three-step contract every variant implements.
type rackLayout struct {
	balls   func(rb *rackBuilder, ordered bool)
	arrange func(rb *rackBuilder)
	center  func(rb *rackBuilder)
}

// Lattice sites in units of (effective radius, √3·effective radius).
var (
	nineBallSites = [][2]float64{
		{0, 0},
		{-1, 1}, {1, 1},
		{-2, 2}, {0, 2}, {2, 2},
		{-1, 3}, {1, 3},
		{0, 4},
	}
	eightBallSites = [][2]float64{
		{0, 0},
		{-1, 1}, {1, 1},
		{-2, 2}, {0, 2}, {2, 2},
		{-3, 3}, {-1, 3}, {1, 3}, {3, 3},
		{-4, 4}, {-2, 4}, {0, 4}, {2, 4}, {4, 4},
	}
)

var rackLayouts = map[Variant]rackLayout{
	NineBall: {
		balls:   numberedBalls(9),
		arrange: arrangeLattice(nineBallSites),
		center:  centerOnApexSpot,
	},
	EightBall: {
		balls:   numberedBalls(NumberedPoolBalls),
		arrange: arrangeLattice(eightBallSites),
		center:  centerOnApexSpot,
	},
	ThreeCushion: {
		balls:   caromBalls,
		arrange: func(*rackBuilder) {},
		center:  centerCarom,
	},
}

func numberedBalls(n int) func(rb *rackBuilder, ordered bool) {
	return func(rb *rackBuilder, ordered bool) {
		s := rb.settings
		for i := 1; i <= n; i++ {
			rb.balls = append(rb.balls, NewBall(strconv.Itoa(i), 0, 0, s.radius, s.mass))
		}
		if !ordered {
			rb.rng.Shuffle(len(rb.balls), func(i, j int) {
				rb.balls[i], rb.balls[j] = rb.balls[j], rb.balls[i]
			})
		}
		rb.cue = NewBall(CueBallID, 0, 0, s.radius, s.mass)
	}
}

func caromBalls(rb *rackBuilder, _ bool) {
	s := rb.settings
	for _, id := range []string{"white", "yellow", "red"} {
		rb.balls = append(rb.balls, NewBall(id, 0, 0, s.radius, s.mass))
	}
}

func arrangeLattice(sites [][2]float64) func(rb *rackBuilder) {
	return func(rb *rackBuilder) {
		a := math.Sqrt(3)
		r := rb.eff
		for i, site := range sites {
			p := Vec3{site[0] * r, site[1] * a * r, rb.settings.radius}
			rb.balls[i].Position = rb.jitter(p)
		}
	}
}

// centerOnApexSpot moves the apex to (w/2, 6l/8) and places the cue ball
// behind the head string.
func centerOnApexSpot(rb *rackBuilder) {
	shift := Vec3{rb.table.Width / 2, rb.table.Length * 6 / 8, 0}
	for i := range rb.balls {
		rb.balls[i].Position = rb.balls[i].Position.Add(shift)
	}
	head := rb.table.HeadSpot()
	rb.cue.Position = Vec3{head[0] + 0.2, head[1], rb.settings.radius}
	rb.balls = append(rb.balls, rb.cue)
}

// centerCarom follows the USBA starting positions.
func centerCarom(rb *rackBuilder) {
	R := rb.settings.radius
	head, foot := rb.table.HeadSpot(), rb.table.FootSpot()
	breaker, other := 0, 1
	if !rb.settings.whiteToBreak {
		breaker, other = 1, 0
	}
	rb.balls[breaker].Position = Vec3{head[0] + 0.1825, head[1], R}
	rb.balls[other].Position = Vec3{head[0], head[1], R}
	rb.balls[2].Position = Vec3{foot[0], foot[1], R}
}

// Build lays out the starting balls for variant. Unless ordered is set the
// numbered balls are shuffled; racked balls are nudged by a random amount no
// larger than the spacer (spacingFactor × radius), which never closes the gap
// between neighbours. All randomness comes from rng.
func Build(variant Variant, table *Table, ordered bool, spacingFactor float64, rng *rand.Rand, opts ...RackOption) (Rack, error) {
	layout, ok := rackLayouts[variant]
	if !ok {
		return nil, fmt.Errorf("%w: unknown rack variant %q", ErrInvalidConfiguration, variant)
	}
	if table == nil {
		return nil, fmt.Errorf("%w: nil table", ErrInvalidConfiguration)
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: rack needs a seeded random source", ErrInvalidConfiguration)
	}
	if spacingFactor < 0 || math.IsNaN(spacingFactor) {
		return nil, fmt.Errorf("%w: spacing factor %v", ErrInvalidConfiguration, spacingFactor)
	}

	settings := rackSettings{radius: DefaultBallRadius, mass: DefaultBallMass, whiteToBreak: true, wiggle: true}
	for _, opt := range opts {
		opt(&settings)
	}
	if !(settings.radius > 0) || !(settings.mass > 0) {
		return nil, fmt.Errorf("%w: ball radius and mass must be positive", ErrInvalidConfiguration)
	}

	rb := &rackBuilder{
		settings: settings,
		table:    table,
		rng:      rng,
		spacer:   spacingFactor * settings.radius,
	}
	rb.eff = settings.radius + rb.spacer + rackTolerance

	layout.balls(rb, ordered)
	layout.arrange(rb)
	layout.center(rb)

	rack := make(Rack, len(rb.balls))
	for _, b := range rb.balls {
		if !table.Contains(b.Position, b.Radius) {
			return nil, fmt.Errorf("%w: ball %q does not fit on a %.3fx%.3f table", ErrInvalidConfiguration, b.ID, table.Width, table.Length)
		}
		rack[b.ID] = b
	}
	if err := checkInitialState(rack.Ordered()); err != nil {
		return nil, err
	}
	return rack, nil
}

// CanPlace reports whether ball id could be moved to pos, for ball-in-hand
// placement: the ball must fit on the table and touch no other ball still in
// play.
func CanPlace(table *Table, balls []BallState, id string, pos Vec3) bool {
	var moving *BallState
	for i := range balls {
		if balls[i].ID == id {
			moving = &balls[i]
		}
	}
	if moving == nil || !table.Contains(pos, moving.Radius) {
		return false
	}
	for i := range balls {
		if balls[i].ID == id || !balls[i].OnTable() {
			continue
		}
		if planar(balls[i].Position.Sub(pos)).Len() <= balls[i].Radius+moving.Radius {
			return false
		}
	}
	return true
}
