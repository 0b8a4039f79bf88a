package gjk

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Minimal support-mapped shapes, so the package tests stay free of the
// shape library.

type sphere struct {
	center mgl64.Vec3
	radius float64
}

func (s sphere) SupportWorld(direction mgl64.Vec3) mgl64.Vec3 {
	l := direction.Len()
	if l < 1e-12 {
		return s.center.Add(mgl64.Vec3{s.radius, 0, 0})
	}
	return s.center.Add(direction.Mul(s.radius / l))
}

func (s sphere) Center() mgl64.Vec3 { return s.center }

type box struct {
	center mgl64.Vec3
	half   mgl64.Vec3
}

func (b box) SupportWorld(direction mgl64.Vec3) mgl64.Vec3 {
	p := b.half
	for i := 0; i < 3; i++ {
		if direction[i] < 0 {
			p[i] = -p[i]
		}
	}
	return b.center.Add(p)
}

func (b box) Center() mgl64.Vec3 { return b.center }

type hull struct {
	points []mgl64.Vec3
}

func (h hull) SupportWorld(direction mgl64.Vec3) mgl64.Vec3 {
	best, bestDot := h.points[0], math.Inf(-1)
	for _, p := range h.points {
		if d := p.Dot(direction); d > bestDot {
			best, bestDot = p, d
		}
	}
	return best
}

func (h hull) Center() mgl64.Vec3 {
	var c mgl64.Vec3
	for _, p := range h.points {
		c = c.Add(p)
	}
	return c.Mul(1 / float64(len(h.points)))
}

func almostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}

func vec3AlmostEqual(a, b mgl64.Vec3, epsilon float64) bool {
	return almostEqual(a.X(), b.X(), epsilon) &&
		almostEqual(a.Y(), b.Y(), epsilon) &&
		almostEqual(a.Z(), b.Z(), epsilon)
}
