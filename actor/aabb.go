package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AABB represents an axis-aligned bounding box
type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// EmptyAABB returns an inverted box that any Union will replace.
func EmptyAABB() AABB {
	inf := math.Inf(1)
	return AABB{
		Min: mgl64.Vec3{inf, inf, inf},
		Max: mgl64.Vec3{-inf, -inf, -inf},
	}
}

// ContainsPoint checks if a point is inside the AABB
func (a AABB) ContainsPoint(point mgl64.Vec3) bool {
	return point.X() >= a.Min.X() && point.X() <= a.Max.X() &&
		point.Y() >= a.Min.Y() && point.Y() <= a.Max.Y() &&
		point.Z() >= a.Min.Z() && point.Z() <= a.Max.Z()
}

// Overlaps checks if two AABBs overlap
func (a AABB) Overlaps(other AABB) bool {
	// AABBs overlap if they overlap on all three axes
	return a.Max.X() >= other.Min.X() && a.Min.X() <= other.Max.X() &&
		a.Max.Y() >= other.Min.Y() && a.Min.Y() <= other.Max.Y() &&
		a.Max.Z() >= other.Min.Z() && a.Min.Z() <= other.Max.Z()
}

// Union returns the smallest box containing both a and other
func (a AABB) Union(other AABB) AABB {
	return AABB{
		Min: mgl64.Vec3{math.Min(a.Min[0], other.Min[0]), math.Min(a.Min[1], other.Min[1]), math.Min(a.Min[2], other.Min[2])},
		Max: mgl64.Vec3{math.Max(a.Max[0], other.Max[0]), math.Max(a.Max[1], other.Max[1]), math.Max(a.Max[2], other.Max[2])},
	}
}

// Extend grows the box to contain point
func (a AABB) Extend(point mgl64.Vec3) AABB {
	return a.Union(AABB{Min: point, Max: point})
}

// Inflate grows the box by margin on every side
func (a AABB) Inflate(margin float64) AABB {
	m := mgl64.Vec3{margin, margin, margin}
	return AABB{Min: a.Min.Sub(m), Max: a.Max.Add(m)}
}

// Sweep grows the box so it also covers itself translated by delta
func (a AABB) Sweep(delta mgl64.Vec3) AABB {
	return a.Union(AABB{Min: a.Min.Add(delta), Max: a.Max.Add(delta)})
}

// Size returns the full extent along each axis
func (a AABB) Size() mgl64.Vec3 {
	return a.Max.Sub(a.Min)
}

// Center returns the midpoint of the box
func (a AABB) Center() mgl64.Vec3 {
	return a.Min.Add(a.Max).Mul(0.5)
}

// IsValid reports whether Min <= Max on all axes and no component is NaN
func (a AABB) IsValid() bool {
	for i := 0; i < 3; i++ {
		if math.IsNaN(a.Min[i]) || math.IsNaN(a.Max[i]) || a.Min[i] > a.Max[i] {
			return false
		}
	}
	return true
}
