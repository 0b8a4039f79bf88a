package impulse

import (
	"math"
	"slices"

	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// RaycastHit is one intersection of a world ray query.
type RaycastHit struct {
	Entity   actor.EntityID
	Point    mgl64.Vec3
	Normal   mgl64.Vec3
	Distance float64
	// Child is the compound child that was hit.
	Child int
}

// RaycastFilter returns false to skip a collider.
type RaycastFilter func(id actor.EntityID, collider *actor.Collider) bool

// IgnoreTriggers skips trigger colliders.
func IgnoreTriggers() RaycastFilter {
	return func(_ actor.EntityID, collider *actor.Collider) bool {
		return !collider.IsTrigger
	}
}

// IgnoreEntities skips the given entities.
func IgnoreEntities(ids ...actor.EntityID) RaycastFilter {
	return func(id actor.EntityID, _ *actor.Collider) bool {
		return !slices.Contains(ids, id)
	}
}

// Raycast returns the nearest hit along origin + t*direction, t in
// [0, maxDistance]. direction need not be normalized.
func (w *World) Raycast(origin, direction mgl64.Vec3, maxDistance float64, filters ...RaycastFilter) (RaycastHit, bool) {
	best := RaycastHit{Distance: math.Inf(1)}
	found := false
	w.raycast(origin, direction, maxDistance, filters, func(hit RaycastHit) {
		if hit.Distance < best.Distance {
			best = hit
			found = true
		}
	})
	return best, found
}

// RaycastAll returns every collider hit by the ray, in no particular order.
func (w *World) RaycastAll(origin, direction mgl64.Vec3, maxDistance float64, filters ...RaycastFilter) []RaycastHit {
	var hits []RaycastHit
	w.raycast(origin, direction, maxDistance, filters, func(hit RaycastHit) {
		hits = append(hits, hit)
	})
	return hits
}

func (w *World) raycast(origin, direction mgl64.Vec3, maxDistance float64, filters []RaycastFilter, report func(RaycastHit)) {
	if w.scene == nil || direction.LenSqr() < 1e-24 {
		return
	}

	for _, id := range w.scene.Entities(CapabilityCollider) {
		transform, collider := w.scene.Transform(id), w.scene.Collider(id)
		if transform == nil || collider == nil || actor.Validate(collider.Shape) != nil {
			continue
		}
		if !acceptCollider(id, collider, filters) {
			continue
		}

		// Cheap reject against the bounds
		bounds := collider.WorldAABB(*transform).Inflate(1e-6)
		if _, ok := actor.RayCast(actor.Box{HalfExtents: bounds.Size().Mul(0.5)}, bounds.Center(), mgl64.QuatIdent(), origin, direction, maxDistance); !ok {
			continue
		}

		position, rotation := collider.Pose(*transform)
		hit, ok := actor.RayCast(collider.WorldShape(*transform), position, rotation, origin, direction, maxDistance)
		if !ok {
			continue
		}
		report(RaycastHit{Entity: id, Point: hit.Point, Normal: hit.Normal, Distance: hit.Distance, Child: hit.Child})
	}
}

func acceptCollider(id actor.EntityID, collider *actor.Collider, filters []RaycastFilter) bool {
	for _, filter := range filters {
		if !filter(id, collider) {
			return false
		}
	}
	return true
}
