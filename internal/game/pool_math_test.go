package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolveQuadratic(t *testing.T) {
	roots := solveQuadratic(1, -3, 2)
	require.Len(t, roots, 2)
	assert.InDelta(t, 1.0, roots[0], 1e-15)
	assert.InDelta(t, 2.0, roots[1], 1e-15)

	assert.Empty(t, solveQuadratic(1, 0, 1))
	assert.Equal(t, []float64{-2}, solveQuadratic(0, 1, 2))

	// The small root must survive b² ≫ 4ac.
	roots = solveQuadratic(1, 1e8, 1)
	require.Len(t, roots, 2)
	assert.InEpsilon(t, -1e-8, roots[1], 1e-9)
}

func TestRootsInIntervalQuartic(t *testing.T) {
	// (t-0.5)(t-1)(t-2)(t+1)
	p := poly{-1, 2.5, 0, -2.5, 1}
	roots := rootsInInterval(p, 0, 3)
	require.Len(t, roots, 3)
	for i, want := range []float64{0.5, 1, 2} {
		assert.InDelta(t, want, roots[i], 1e-12)
	}

	roots = rootsInInterval(p, 1.5, 3)
	require.Len(t, roots, 1)
	assert.InDelta(t, 2.0, roots[0], 1e-12)
}

func TestFirstEntering(t *testing.T) {
	tests := []struct {
		name    string
		p       poly
		horizon float64
		want    float64
		ok      bool
	}{
		{"closing gap", poly{2, -3, 1}, 10, 1, true},
		{"beyond horizon", poly{2, -3, 1}, 0.5, 0, false},
		{"touching and approaching", poly{-1e-12, -1}, 10, 0, true},
		{"touching and separating", poly{-1e-12, 1}, 10, 0, false},
		{"never closes", poly{1, 0, 1}, 10, 0, false},
		{"resting but accelerating together", poly{0, 0, -1}, 10, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := firstEntering(tt.p, tt.horizon)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 1e-12)
			}
		})
	}
}

func TestGapBetweenMatchesDistance(t *testing.T) {
	m1 := motion{r0: Vec3{0, 0, 0}, v0: Vec3{1, 0.5, 0}, acc: Vec3{-0.3, 0.1, 0}}
	m2 := motion{r0: Vec3{1, 1, 0}, v0: Vec3{-0.2, 0, 0}, acc: Vec3{0, -0.05, 0}}
	p := gapBetween(m1, m2, 0.05)
	for _, ts := range []float64{0, 0.3, 1.1, 2.7} {
		d := m2.at(ts).Sub(m1.at(ts)).Len()
		assert.InDelta(t, d*d-0.05*0.05, p.eval(ts), 1e-12)
	}
}
