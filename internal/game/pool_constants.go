package game

import "math"

// Physical defaults in SI units (metres, kilograms, seconds).
const (
	DefaultBallRadius          = 0.028575
	DefaultBallMass            = 0.170097
	DefaultCueMass             = 0.567
	DefaultSlidingFriction     = 0.2
	DefaultRollingFriction     = 0.01
	DefaultSpinningFriction    = 0.0127
	DefaultBallBallRestitution = 0.95
	DefaultCushionRestitution  = 0.85
	DefaultBallBallFriction    = 0.05
	DefaultCushionFriction     = 0.2
	DefaultGravity             = 9.8

	// Strike limits. English is a fraction of the ball radius.
	DefaultMinStrike  = 0.05
	DefaultMaxStrike  = 7.0
	DefaultMaxEnglish = 0.5
)

// DefaultMaxElevation is just under vertical.
var DefaultMaxElevation = 89.9 * math.Pi / 180

// Table defaults. The pool table is a 9ft playing surface.
const (
	PoolTableWidth    = 1.2446
	PoolTableLength   = 2.4892
	PoolPocketRadius  = 0.062
	CaromTableWidth   = 1.4224
	CaromTableLength  = 2.8448
	NumberedPoolBalls = 15
)

// Engine tolerances and budgets.
const (
	// Epsilon is the smallest time step the detector will ever return.
	Epsilon = 1e-9
	// TieTolerance groups events whose times differ by less than this.
	TieTolerance = 1e-12
	// VelocityTolerance is the speed below which a quantity counts as zero.
	VelocityTolerance = 1e-9

	// RestingSpeed is the closing speed below which a contact is resolved as
	// perfectly inelastic. It must exceed the speed friction can build up
	// across ContactSeparation.
	RestingSpeed = 0.01
	// ContactSeparation is the gap left between two bodies once a contact
	// has been resolved.
	ContactSeparation = 1e-5

	DefaultSampleInterval = 0.01
	DefaultMaxEvents      = 10000
	DefaultMaxTime        = 600.0

	DefaultSpacingFactor = 1e-3
	rackTolerance        = 1e-9
)
