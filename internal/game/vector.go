package game

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec3 is the engine's vector type. The table is the xy plane and z points up.
type Vec3 = mgl64.Vec3

var zHat = Vec3{0, 0, 1}

// planar drops the vertical component.
func planar(v Vec3) Vec3 {
	return Vec3{v[0], v[1], 0}
}

// unit returns v normalized, or the zero vector when v has no length.
func unit(v Vec3) Vec3 {
	l := v.Len()
	if l == 0 {
		return Vec3{}
	}
	return v.Mul(1 / l)
}

// rotateZ rotates v counter-clockwise about the vertical axis.
func rotateZ(v Vec3, angle float64) Vec3 {
	s, c := math.Sincos(angle)
	return Vec3{c*v[0] - s*v[1], s*v[0] + c*v[1], v[2]}
}

// perpZ returns ẑ × v for the planar part of v.
func perpZ(v Vec3) Vec3 {
	return Vec3{-v[1], v[0], 0}
}

func finite(v Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
