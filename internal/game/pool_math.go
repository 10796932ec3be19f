package game

import (
	"math"
	"sort"
)

// poly is a real polynomial with coefficients in ascending order of power.
type poly []float64

func (p poly) eval(t float64) float64 {
	var acc float64
	for i := len(p) - 1; i >= 0; i-- {
		acc = acc*t + p[i]
	}
	return acc
}

func (p poly) deriv() poly {
	if len(p) < 2 {
		return nil
	}
	d := make(poly, len(p)-1)
	for i := 1; i < len(p); i++ {
		d[i-1] = float64(i) * p[i]
	}
	return d
}

// trim drops exactly-zero leading coefficients.
func (p poly) trim() poly {
	n := len(p)
	for n > 0 && p[n-1] == 0 {
		n--
	}
	return p[:n]
}

// solveQuadratic returns the real roots of a·t² + b·t + c in ascending order,
// avoiding cancellation when b² ≫ 4ac.
func solveQuadratic(a, b, c float64) []float64 {
	if a == 0 {
		if b == 0 {
			return nil
		}
		return []float64{-c / b}
	}
	disc := b*b - 4*a*c
	if disc < 0 {
		return nil
	}
	if disc == 0 {
		return []float64{-b / (2 * a)}
	}
	q := -0.5 * (b + math.Copysign(math.Sqrt(disc), b))
	r1 := q / a
	var r2 float64
	if q != 0 {
		r2 = c / q
	} else {
		r2 = -r1
	}
	if r1 > r2 {
		r1, r2 = r2, r1
	}
	return []float64{r1, r2}
}

// rootsInInterval isolates the real roots of p inside [lo, hi]. Roots of the
// derivative split the interval into monotone pieces, each bisected
// independently. Tangential double roots that never change sign are skipped.
func rootsInInterval(p poly, lo, hi float64) []float64 {
	p = p.trim()
	var out []float64
	switch len(p) {
	case 0, 1:
		return nil
	case 2, 3:
		var cand []float64
		if len(p) == 2 {
			cand = []float64{-p[0] / p[1]}
		} else {
			cand = solveQuadratic(p[2], p[1], p[0])
		}
		for _, r := range cand {
			if r >= lo && r <= hi {
				out = append(out, r)
			}
		}
		return out
	}

	knots := []float64{lo}
	for _, c := range rootsInInterval(p.deriv(), lo, hi) {
		if c > knots[len(knots)-1] && c < hi {
			knots = append(knots, c)
		}
	}
	knots = append(knots, hi)

	for i := 0; i+1 < len(knots); i++ {
		a, b := knots[i], knots[i+1]
		fa, fb := p.eval(a), p.eval(b)
		switch {
		case fa == 0:
			out = appendRoot(out, a)
		case fa*fb < 0:
			out = appendRoot(out, bisect(p, a, b, fa))
		}
	}
	if p.eval(hi) == 0 {
		out = appendRoot(out, hi)
	}
	sort.Float64s(out)
	return out
}

func appendRoot(roots []float64, r float64) []float64 {
	if n := len(roots); n > 0 && roots[n-1] == r {
		return roots
	}
	return append(roots, r)
}

// bisect narrows a sign change in [a, b] down to floating point resolution.
func bisect(p poly, a, b, fa float64) float64 {
	for i := 0; i < 200; i++ {
		mid := 0.5 * (a + b)
		if mid <= a || mid >= b {
			break
		}
		fm := p.eval(mid)
		if fm == 0 {
			return mid
		}
		if (fm < 0) == (fa < 0) {
			a, fa = mid, fm
		} else {
			b = mid
		}
	}
	return 0.5 * (a + b)
}

// firstEntering returns the earliest t in [0, horizon] at which the gap
// function p goes from positive to non-positive. A gap that is already closed
// and still closing counts as entering at t = 0. Separating contacts never
// count.
func firstEntering(p poly, horizon float64) (float64, bool) {
	p = p.trim()
	if len(p) == 0 || !(horizon > 0) {
		return 0, false
	}
	d := p.deriv()
	if p.eval(0) <= 0 {
		slope := d.eval(0)
		if slope < 0 || (slope == 0 && d.deriv().eval(0) < 0) {
			return 0, true
		}
	}
	for _, r := range rootsInInterval(p, 0, horizon) {
		if r == 0 {
			continue
		}
		if d.eval(r) < 0 {
			return r, true
		}
	}
	return 0, false
}

// motion is the position polynomial r(t) = r0 + v0·t + ½·a·t² of one ball
// inside its current regime.
type motion struct {
	r0, v0, acc Vec3
}

func (m motion) at(t float64) Vec3 {
	return m.r0.Add(m.v0.Mul(t)).Add(m.acc.Mul(0.5 * t * t))
}

// gapToPoint is |r(t) − c|² − rad², the squared-distance gap to a fixed
// circle in the table plane.
func gapToPoint(m motion, c Vec3, rad float64) poly {
	d0 := planar(m.r0.Sub(c))
	v := planar(m.v0)
	a := planar(m.acc)
	return poly{
		d0.Dot(d0) - rad*rad,
		2 * d0.Dot(v),
		v.Dot(v) + d0.Dot(a),
		v.Dot(a),
		0.25 * a.Dot(a),
	}
}

// gapBetween is |r2(t) − r1(t)|² − (R1 + R2)².
func gapBetween(m1, m2 motion, contact float64) poly {
	rel := motion{
		r0:  m2.r0.Sub(m1.r0),
		v0:  m2.v0.Sub(m1.v0),
		acc: m2.acc.Sub(m1.acc),
	}
	return gapToPoint(rel, Vec3{}, contact)
}

// gapToLine is n·(r(t) − p) − R for a rail line through p with normal n.
func gapToLine(m motion, p, n Vec3, radius float64) poly {
	return poly{
		n.Dot(planar(m.r0.Sub(p))) - radius,
		n.Dot(planar(m.v0)),
		0.5 * n.Dot(planar(m.acc)),
	}
}
