package impulse

import (
	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/collide"
	"github.com/akmonengine/impulse/constraint"
)

// contactResult is the narrowphase output for one pair. Trigger pairs carry
// a manifold for event reporting but never reach the solver.
type contactResult struct {
	pair     Pair
	manifold *constraint.ContactManifold
	trigger  bool
}

// BroadPhase rebuilds the grid from the snapshots and returns the candidate
// pairs, sorted by index.
func BroadPhase(grid *SpatialGrid, snapshots []bodySnapshot) []Pair {
	aabbs := make([]actor.AABB, len(snapshots))
	for i := range snapshots {
		if snapshots[i].collides {
			aabbs[i] = snapshots[i].aabb
		} else {
			aabbs[i] = actor.EmptyAABB()
		}
	}
	grid.Rebuild(aabbs)

	return grid.FindPairs(func(a, b int) bool {
		return acceptPair(&snapshots[a], &snapshots[b])
	})
}

// acceptPair filters the pairs that can never produce a response or event.
// Pairs of sleeping bodies are kept: their contacts hold sleeping islands
// together and keep their events alive.
func acceptPair(a, b *bodySnapshot) bool {
	dynamic := a.kind == actor.BodyKindDynamic || b.kind == actor.BodyKindDynamic
	if dynamic {
		return true
	}
	// Kinematic bodies still report trigger overlaps
	kinematic := a.kind == actor.BodyKindKinematic || b.kind == actor.BodyKindKinematic
	return kinematic && (a.trigger || b.trigger)
}

// NarrowPhase runs the exact tests of every pair on workers goroutines.
// Results keep the pair order. The returned error reports the chunks that
// panicked; their pairs are missing from the results.
func NarrowPhase(snapshots []bodySnapshot, pairs []Pair, workers int) ([]contactResult, error) {
	return task(workers, pairs, func(pair Pair) (contactResult, bool) {
		a, b := &snapshots[pair.A], &snapshots[pair.B]
		manifold, ok := collidePair(a, b)
		if !ok {
			return contactResult{}, false
		}
		manifold.BodyA, manifold.BodyB = pair.A, pair.B
		return contactResult{pair: pair, manifold: manifold, trigger: a.trigger || b.trigger}, true
	})
}

// collidePair tests every proxy of a against every proxy of b and merges the
// points into one manifold, normal from a toward b.
func collidePair(a, b *bodySnapshot) (*constraint.ContactManifold, bool) {
	var points []constraint.ContactPoint
	for _, proxyA := range a.proxies {
		for _, proxyB := range b.proxies {
			if !proxyA.AABB().Overlaps(proxyB.AABB()) {
				continue
			}
			result, ok := collide.Collide(proxyA, proxyB)
			if !ok {
				continue
			}
			points = append(points, result.Points...)
		}
	}
	if len(points) == 0 {
		return nil, false
	}

	deepest := 0
	for i := range points {
		if points[i].Depth > points[deepest].Depth {
			deepest = i
		}
	}
	normal := points[deepest].Normal

	manifold := &constraint.ContactManifold{
		A:           a.entity,
		B:           b.entity,
		Normal:      normal,
		Points:      constraint.ReduceManifold(points, normal),
		Friction:    constraint.CombineFriction(a.friction, b.friction),
		Restitution: constraint.CombineRestitution(a.restitution, b.restitution),
	}
	manifold.SetTangents()
	return manifold, true
}

// splitContacts separates solver manifolds from trigger overlaps.
func splitContacts(results []contactResult) (contacts, triggers []*constraint.ContactManifold) {
	for _, r := range results {
		if r.trigger {
			triggers = append(triggers, r.manifold)
		} else {
			contacts = append(contacts, r.manifold)
		}
	}
	return contacts, triggers
}
