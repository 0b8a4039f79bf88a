package impulse

import (
	"github.com/akmonengine/impulse/actor"
)

// broadphaseMargin is added to every awake body's AABB.
const broadphaseMargin = 0.01

// bodySnapshot is the immutable copy of a body that the narrowphase reads.
// It holds values only, so workers never touch the Scene.
type bodySnapshot struct {
	entity   actor.EntityID
	kind     actor.BodyKind
	trigger  bool
	sleeping bool
	collides bool

	proxies []actor.Proxy
	aabb    actor.AABB

	friction    float64
	restitution float64
}

// bodyRef points at the Scene components of a snapshot. Only the calling
// goroutine dereferences it.
type bodyRef struct {
	transform *actor.Transform
	collider  *actor.Collider
	body      *actor.RigidBody
}

// active reports whether the body moves this step.
func (s *bodySnapshot) active() bool {
	return s.kind != actor.BodyKindStatic && !s.sleeping
}

// newSnapshot copies the collision state of one entity. collider may be nil,
// or invalid, in which case the snapshot never collides.
func newSnapshot(id actor.EntityID, ref bodyRef, cfg Config, dt float64) bodySnapshot {
	snap := bodySnapshot{
		entity:      id,
		kind:        actor.BodyKindStatic,
		aabb:        actor.EmptyAABB(),
		friction:    cfg.DefaultFriction,
		restitution: cfg.DefaultRestitution,
	}
	if ref.body != nil {
		snap.kind = ref.body.Kind
		snap.sleeping = ref.body.Sleeping
		if m := ref.body.Material; m != nil {
			snap.friction = m.Friction
			snap.restitution = m.Restitution
		}
	}
	if ref.collider == nil {
		return snap
	}

	transform := *ref.transform
	snap.collides = true
	snap.trigger = ref.collider.IsTrigger
	snap.proxies = ref.collider.Proxies(transform)
	snap.aabb = ref.collider.WorldAABB(transform)

	if snap.active() && ref.body != nil {
		// Cover this step's motion
		snap.aabb = snap.aabb.Sweep(ref.body.Velocity.Mul(dt)).Inflate(broadphaseMargin)
	}
	return snap
}
