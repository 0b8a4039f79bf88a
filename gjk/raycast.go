package gjk

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const rayMaxIterations = 64

// RayCast intersects the ray origin + t*direction, t in [0, maxDistance],
// with a convex shape (van den Bergen's GJK ray cast). direction must be
// normalized. A ray starting inside the shape hits at t = 0 with a normal
// opposite to direction.
func RayCast(c Convex, origin, direction mgl64.Vec3, maxDistance float64) (float64, mgl64.Vec3, bool) {
	lambda := 0.0
	x := origin
	var normal mgl64.Vec3

	v := x.Sub(c.Center())
	var simplex closestSimplex

	for i := 0; i < rayMaxIterations; i++ {
		if v.LenSqr() < 1e-12 {
			break
		}

		p := c.SupportWorld(v)
		w := x.Sub(p)
		if v.Dot(w) > 0 {
			vr := v.Dot(direction)
			if vr >= 0 {
				return 0, mgl64.Vec3{}, false
			}
			lambda -= v.Dot(w) / vr
			if lambda > maxDistance {
				return 0, mgl64.Vec3{}, false
			}
			x = origin.Add(direction.Mul(lambda))
			normal = v
		}

		// The simplex stores shape points, w is rebuilt against the moving x
		for j := 0; j < simplex.count; j++ {
			simplex.vertices[j].w = x.Sub(simplex.vertices[j].a)
		}
		w = x.Sub(p)
		if simplex.contains(w) {
			// Support point already known, v cannot improve
			if v.LenSqr()-v.Dot(w) <= 1e-10*math.Max(v.LenSqr(), 1) {
				break
			}
		} else if simplex.count < 4 {
			simplex.add(vertex{w: w, a: p})
		}
		if !simplex.solve() {
			v = mgl64.Vec3{}
			break
		}
		v = simplex.point()
	}

	if v.LenSqr() > 1e-6 {
		return 0, mgl64.Vec3{}, false
	}

	if normal.LenSqr() < 1e-20 {
		return 0, direction.Mul(-1), true
	}

	l := normal.Len()
	if math.IsNaN(l) {
		return 0, mgl64.Vec3{}, false
	}
	return lambda, normal.Mul(1 / l), true
}
