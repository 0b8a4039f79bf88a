package impulse

import (
	"math"

	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/collide"
	"github.com/akmonengine/impulse/gjk"
	"github.com/go-gl/mathgl/mgl64"
)

const ccdMaxIterations = 32

// resolveCCD sweeps every awake dynamic CCDSwept body from its position at
// the start of the step to its integrated position against the static and
// kinematic colliders. On impact the body is moved back to the time of
// impact and loses its velocity into the hit normal.
func resolveCCD(grid *SpatialGrid, snapshots []bodySnapshot, refs []bodyRef, starts []mgl64.Vec3, epsilon float64) int {
	clamped := 0
	for i := range refs {
		ref := refs[i]
		body := ref.body
		if body == nil || !body.IsDynamic() || body.Sleeping || body.CCD != actor.CCDSwept {
			continue
		}
		if ref.collider == nil || ref.collider.IsTrigger {
			continue
		}

		start := starts[i]
		delta := ref.transform.Position.Sub(start)
		if delta.LenSqr() < 1e-12 {
			continue
		}

		t0 := *ref.transform
		t0.Position = start
		moving := ref.collider.Proxies(t0)
		swept := ref.collider.WorldAABB(t0).Sweep(delta).Inflate(epsilon)

		best := 1.0
		var normal mgl64.Vec3
		grid.Query(swept, func(j int) {
			other := &snapshots[j]
			if j == i || other.kind == actor.BodyKindDynamic || other.trigger || !other.collides {
				return
			}
			for _, obstacle := range obstacles(other.proxies, swept) {
				for _, proxy := range moving {
					toi, n, ok := timeOfImpact(proxy, obstacle, delta, epsilon)
					if ok && toi < best {
						best, normal = toi, n
					}
				}
			}
		})

		if best >= 1 {
			continue
		}
		ref.transform.Position = start.Add(delta.Mul(best))
		if vn := body.Velocity.Dot(normal); vn > 0 {
			body.Velocity = body.Velocity.Sub(normal.Mul(vn))
		}
		clamped++
	}
	return clamped
}

// obstacles expands heightmap proxies into the prisms under region.
func obstacles(proxies []actor.Proxy, region actor.AABB) []actor.Proxy {
	out := make([]actor.Proxy, 0, len(proxies))
	for _, p := range proxies {
		if p.Shape.Kind() != actor.ShapeKindHeightmap {
			out = append(out, p)
			continue
		}
		for _, prism := range collide.HeightmapPrisms(p, region) {
			out = append(out, prism.Proxy)
		}
	}
	return out
}

// timeOfImpact advances a along delta until it comes within epsilon of b,
// returning the fraction of delta travelled and the normal from a toward b.
// Shapes overlapping at the start report no impact.
func timeOfImpact(a, b actor.Proxy, delta mgl64.Vec3, epsilon float64) (float64, mgl64.Vec3, bool) {
	tolerance := 0.1*epsilon + 1e-6
	t := 0.0
	var normal mgl64.Vec3

	for iter := 0; iter < ccdMaxIterations; iter++ {
		result := gjk.Distance(a.Translated(delta.Mul(t)), b)
		if result.Overlap {
			if t == 0 {
				return 0, mgl64.Vec3{}, false
			}
			return t, normal, true
		}
		normal = result.Normal

		closing := delta.Dot(normal)
		if closing <= 1e-12 {
			return 0, mgl64.Vec3{}, false
		}
		gap := result.Distance - epsilon
		if gap <= tolerance {
			return t, normal, true
		}

		// The distance shrinks at most by closing per unit of t
		t += gap / closing
		if t >= 1 {
			return 0, mgl64.Vec3{}, false
		}
	}
	return math.Min(t, 1), normal, true
}
