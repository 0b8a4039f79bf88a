package gjk

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	distanceMaxIterations = 64
	distanceTolerance     = 1e-9
)

// DistanceResult describes the closest points of two convex shapes. Normal is
// the unit vector from PointA to PointB. When Overlap is true the shapes
// intersect and the other fields are zero.
type DistanceResult struct {
	Distance float64
	PointA   mgl64.Vec3
	PointB   mgl64.Vec3
	Normal   mgl64.Vec3
	Overlap  bool
}

// Distance computes the separation between a and b with the GJK distance
// sub-algorithm.
func Distance(a, b Convex) DistanceResult {
	support := func(direction mgl64.Vec3) vertex {
		pa := a.SupportWorld(direction)
		pb := b.SupportWorld(direction.Mul(-1))
		return vertex{w: pa.Sub(pb), a: pa, b: pb}
	}

	direction := a.Center().Sub(b.Center())
	if direction.LenSqr() < 1e-16 {
		direction = mgl64.Vec3{1, 0, 0}
	}

	var simplex closestSimplex
	simplex.add(support(direction.Mul(-1)))
	simplex.weights[0] = 1
	v := simplex.vertices[0].w
	prev := math.Inf(1)

	for i := 0; i < distanceMaxIterations; i++ {
		vv := v.LenSqr()
		if vv < distanceTolerance*distanceTolerance {
			return DistanceResult{Overlap: true}
		}

		next := support(v.Mul(-1))
		// No further progress toward the origin
		if vv-v.Dot(next.w) <= 1e-10*math.Max(vv, 1) || simplex.contains(next.w) {
			break
		}

		simplex.add(next)
		if !simplex.solve() {
			return DistanceResult{Overlap: true}
		}

		v = simplex.point()
		if v.LenSqr() >= prev {
			break
		}
		prev = v.LenSqr()
	}

	pa, pb := simplex.witnesses()
	dist := v.Len()
	if dist < distanceTolerance {
		return DistanceResult{Overlap: true}
	}

	return DistanceResult{
		Distance: dist,
		PointA:   pa,
		PointB:   pb,
		Normal:   v.Mul(-1 / dist),
	}
}
