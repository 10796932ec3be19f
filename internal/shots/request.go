package shots

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/playmatatu/poolsim/internal/game"
)

// ShotRequest describes one shot. Either Balls lists the layout explicitly or
// Variant names a rack that is built from Seed.
type ShotRequest struct {
	Table   string           `json:"table,omitempty" yaml:"table"`
	Variant string           `json:"variant,omitempty" yaml:"variant"`
	Seed    int64            `json:"seed,omitempty" yaml:"seed"`
	Ordered bool             `json:"ordered,omitempty" yaml:"ordered"`
	Balls   []game.BallState `json:"balls,omitempty" yaml:"balls"`
	Strike  game.CueStrike   `json:"strike" yaml:"strike"`
}

// Setup is a request resolved into simulator inputs.
type Setup struct {
	Table   *game.Table
	Variant game.Variant
	Balls   []game.BallState
	Strike  game.CueStrike
}

// Resolve picks the table and builds the rack when no explicit layout is
// given. Errors wrap game.ErrInvalidConfiguration.
func (r ShotRequest) Resolve() (*Setup, error) {
	s := &Setup{Strike: r.Strike}

	if r.Variant != "" {
		v, err := game.ParseVariant(r.Variant)
		if err != nil {
			return nil, err
		}
		s.Variant = v
	}

	switch {
	case r.Table != "":
		t, err := game.TableByName(r.Table)
		if err != nil {
			return nil, err
		}
		s.Table = t
	case s.Variant != "":
		s.Table = s.Variant.Table()
	default:
		s.Table = game.StandardPoolTable()
	}

	if len(r.Balls) > 0 {
		s.Balls = append([]game.BallState(nil), r.Balls...)
		return s, nil
	}
	if s.Variant == "" {
		return nil, fmt.Errorf("%w: request needs balls or a variant", game.ErrInvalidConfiguration)
	}
	rack, err := game.Build(s.Variant, s.Table, r.Ordered, game.DefaultSpacingFactor, game.NewRackRNG(r.Seed))
	if err != nil {
		return nil, err
	}
	s.Balls = rack.Ordered()
	if s.Strike.Ball == "" {
		s.Strike.Ball = s.Variant.BreakBall(true)
	}
	return s, nil
}

// Hash identifies a resolved setup. Two requests with the same hash produce
// the same trajectory, so it keys the trajectory cache.
func (s *Setup) Hash() (string, error) {
	payload, err := json.Marshal(struct {
		Table  string           `json:"table"`
		Width  float64          `json:"width"`
		Length float64          `json:"length"`
		Balls  []game.BallState `json:"balls"`
		Strike game.CueStrike   `json:"strike"`
	}{s.Table.Name, s.Table.Width, s.Table.Length, s.Balls, s.Strike})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}
