package game

import (
	"fmt"
	"math"
)

// Cushion is a straight rail segment. Normal is a unit vector lying in the
// table plane and pointing into the playing area.
type Cushion struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	P1     Vec3   `json:"p1"`
	P2     Vec3   `json:"p2"`
	Normal Vec3   `json:"normal"`
}

// Length of the segment.
func (c Cushion) Length() float64 {
	return c.P2.Sub(c.P1).Len()
}

// direction is the unit vector from P1 to P2.
func (c Cushion) direction() Vec3 {
	return unit(c.P2.Sub(c.P1))
}

// distance is the signed distance of p from the rail line, positive on the
// playing side.
func (c Cushion) distance(p Vec3) float64 {
	return c.Normal.Dot(planar(p.Sub(c.P1)))
}

// spans reports whether p projects onto the segment.
func (c Cushion) spans(p Vec3) bool {
	s := c.direction().Dot(planar(p.Sub(c.P1)))
	return s >= -rackTolerance && s <= c.Length()+rackTolerance
}

// Pocket captures any ball whose centre enters the circle.
type Pocket struct {
	ID     int     `json:"id"`
	Name   string  `json:"name"`
	Center Vec3    `json:"center"`
	Radius float64 `json:"radius"`
}

// Table holds the playing surface geometry. The surface spans [0, Width] in x
// and [0, Length] in y with the origin at a corner.
type Table struct {
	Name     string    `json:"name"`
	Width    float64   `json:"width"`
	Length   float64   `json:"length"`
	Cushions []Cushion `json:"cushions"`
	Pockets  []Pocket  `json:"pockets"`
}

// Center of the playing surface.
func (t *Table) Center() Vec3 {
	return Vec3{t.Width / 2, t.Length / 2, 0}
}

// HeadSpot is the centre of the head string at a quarter of the length.
func (t *Table) HeadSpot() Vec3 {
	return Vec3{t.Width / 2, t.Length / 4, 0}
}

// FootSpot is the rack spot used by the carom layout.
func (t *Table) FootSpot() Vec3 {
	return Vec3{t.Width / 2, 3 * t.Length / 4, 0}
}

// Contains reports whether a ball of the given radius fits at p without
// crossing a rail line.
func (t *Table) Contains(p Vec3, radius float64) bool {
	return p[0] >= radius && p[0] <= t.Width-radius && p[1] >= radius && p[1] <= t.Length-radius
}

// NewBilliardTable builds a carom table: four full cushions, no pockets.
func NewBilliardTable(width, length float64) (*Table, error) {
	if !(width > 0) || !(length > 0) {
		return nil, fmt.Errorf("%w: table dimensions %vx%v", ErrInvalidConfiguration, width, length)
	}
	return &Table{
		Name:   "billiard",
		Width:  width,
		Length: length,
		Cushions: []Cushion{
			{ID: 0, Name: "bottom", P1: Vec3{0, 0, 0}, P2: Vec3{width, 0, 0}, Normal: Vec3{0, 1, 0}},
			{ID: 1, Name: "right", P1: Vec3{width, 0, 0}, P2: Vec3{width, length, 0}, Normal: Vec3{-1, 0, 0}},
			{ID: 2, Name: "top", P1: Vec3{width, length, 0}, P2: Vec3{0, length, 0}, Normal: Vec3{0, -1, 0}},
			{ID: 3, Name: "left", P1: Vec3{0, length, 0}, P2: Vec3{0, 0, 0}, Normal: Vec3{1, 0, 0}},
		},
	}, nil
}

// NewPocketTable builds a six-pocket table. Corner pockets are centred on the
// corners and side pockets on the middle of the long rails. Each rail stops
// where a ball resting against it would already be inside the pocket circle,
// so every gap between segments is covered by a pocket.
func NewPocketTable(width, length, pocketRadius, ballRadius float64) (*Table, error) {
	if !(width > 0) || !(length > 0) {
		return nil, fmt.Errorf("%w: table dimensions %vx%v", ErrInvalidConfiguration, width, length)
	}
	if !(pocketRadius > ballRadius) || !(ballRadius > 0) {
		return nil, fmt.Errorf("%w: pocket radius %v must exceed ball radius %v", ErrInvalidConfiguration, pocketRadius, ballRadius)
	}
	s := math.Sqrt(pocketRadius*pocketRadius - ballRadius*ballRadius)
	half := length / 2
	if 2*s >= width || 2*s >= half {
		return nil, fmt.Errorf("%w: pockets too large for a %vx%v table", ErrInvalidConfiguration, width, length)
	}

	t := &Table{Name: "pocket", Width: width, Length: length}
	t.Pockets = []Pocket{
		{ID: 0, Name: "bottom_left", Center: Vec3{0, 0, 0}, Radius: pocketRadius},
		{ID: 1, Name: "bottom_right", Center: Vec3{width, 0, 0}, Radius: pocketRadius},
		{ID: 2, Name: "side_right", Center: Vec3{width, half, 0}, Radius: pocketRadius},
		{ID: 3, Name: "top_right", Center: Vec3{width, length, 0}, Radius: pocketRadius},
		{ID: 4, Name: "top_left", Center: Vec3{0, length, 0}, Radius: pocketRadius},
		{ID: 5, Name: "side_left", Center: Vec3{0, half, 0}, Radius: pocketRadius},
	}

	rails := []struct {
		name   string
		p1, p2 Vec3
		normal Vec3
	}{
		{"bottom", Vec3{s, 0, 0}, Vec3{width - s, 0, 0}, Vec3{0, 1, 0}},
		{"right_lower", Vec3{width, s, 0}, Vec3{width, half - s, 0}, Vec3{-1, 0, 0}},
		{"right_upper", Vec3{width, half + s, 0}, Vec3{width, length - s, 0}, Vec3{-1, 0, 0}},
		{"top", Vec3{width - s, length, 0}, Vec3{s, length, 0}, Vec3{0, -1, 0}},
		{"left_upper", Vec3{0, length - s, 0}, Vec3{0, half + s, 0}, Vec3{1, 0, 0}},
		{"left_lower", Vec3{0, half - s, 0}, Vec3{0, s, 0}, Vec3{1, 0, 0}},
	}
	for i, r := range rails {
		t.Cushions = append(t.Cushions, Cushion{ID: i, Name: r.name, P1: r.p1, P2: r.p2, Normal: r.normal})
	}
	return t, nil
}

// StandardPoolTable is a 9ft six-pocket table sized for regulation balls.
func StandardPoolTable() *Table {
	t, err := NewPocketTable(PoolTableWidth, PoolTableLength, PoolPocketRadius, DefaultBallRadius)
	if err != nil {
		panic(err)
	}
	return t
}

// StandardCaromTable is a match carom table.
func StandardCaromTable() *Table {
	t, err := NewBilliardTable(CaromTableWidth, CaromTableLength)
	if err != nil {
		panic(err)
	}
	return t
}

// TableByName resolves the two built-in tables.
func TableByName(name string) (*Table, error) {
	switch name {
	case "", "pool", "pocket":
		return StandardPoolTable(), nil
	case "carom", "billiard":
		return StandardCaromTable(), nil
	}
	return nil, fmt.Errorf("%w: unknown table %q", ErrInvalidConfiguration, name)
}
