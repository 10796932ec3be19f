package game

import "errors"

// Sentinel errors returned by the engine. Callers match with errors.Is; the
// wrapped message carries the detail.
var (
	ErrInvalidConfiguration     = errors.New("invalid physics configuration")
	ErrInvalidCueStrike         = errors.New("invalid cue strike")
	ErrOverlappingInitialState  = errors.New("overlapping initial state")
	ErrSimulationDidNotConverge = errors.New("simulation did not converge")
	ErrDegenerateEvent          = errors.New("degenerate event")
)
