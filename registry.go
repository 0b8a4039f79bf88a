package impulse

import (
	"slices"

	"github.com/akmonengine/impulse/actor"
)

// Registry is an in-memory Scene. It is not safe for concurrent use.
type Registry struct {
	next       actor.EntityID
	transforms map[actor.EntityID]*actor.Transform
	colliders  map[actor.EntityID]*actor.Collider
	bodies     map[actor.EntityID]*actor.RigidBody
	scripts    map[actor.EntityID]ScriptHandler
}

func NewRegistry() *Registry {
	return &Registry{
		next:       1,
		transforms: make(map[actor.EntityID]*actor.Transform),
		colliders:  make(map[actor.EntityID]*actor.Collider),
		bodies:     make(map[actor.EntityID]*actor.RigidBody),
		scripts:    make(map[actor.EntityID]ScriptHandler),
	}
}

// Spawn creates an entity with transform t.
func (r *Registry) Spawn(t actor.Transform) actor.EntityID {
	id := r.next
	r.next++
	r.transforms[id] = &t
	return id
}

// SpawnBody creates an entity with a collider and a rigid body.
func (r *Registry) SpawnBody(t actor.Transform, collider actor.Collider, body *actor.RigidBody) actor.EntityID {
	id := r.Spawn(t)
	r.SetCollider(id, collider)
	if body != nil {
		r.SetRigidBody(id, body)
	}
	return id
}

// Despawn removes the entity and all its components.
func (r *Registry) Despawn(id actor.EntityID) {
	delete(r.transforms, id)
	delete(r.colliders, id)
	delete(r.bodies, id)
	delete(r.scripts, id)
}

func (r *Registry) SetCollider(id actor.EntityID, collider actor.Collider) {
	if _, ok := r.transforms[id]; ok {
		r.colliders[id] = &collider
	}
}

func (r *Registry) SetRigidBody(id actor.EntityID, body *actor.RigidBody) {
	if _, ok := r.transforms[id]; ok {
		r.bodies[id] = body
	}
}

func (r *Registry) SetScript(id actor.EntityID, script ScriptHandler) {
	if _, ok := r.transforms[id]; ok {
		r.scripts[id] = script
	}
}

// Entities returns the matching entities in ascending order.
func (r *Registry) Entities(capability Capability) []actor.EntityID {
	var ids []actor.EntityID
	switch capability {
	case CapabilityCollider:
		ids = keys(r.colliders)
	case CapabilityRigidBody:
		ids = keys(r.bodies)
	case CapabilityScript:
		ids = keys(r.scripts)
	}
	slices.Sort(ids)
	return ids
}

func (r *Registry) Transform(id actor.EntityID) *actor.Transform {
	return r.transforms[id]
}

func (r *Registry) Collider(id actor.EntityID) *actor.Collider {
	return r.colliders[id]
}

func (r *Registry) RigidBody(id actor.EntityID) *actor.RigidBody {
	return r.bodies[id]
}

func (r *Registry) Script(id actor.EntityID) ScriptHandler {
	return r.scripts[id]
}

func keys[V any](m map[actor.EntityID]V) []actor.EntityID {
	ids := make([]actor.EntityID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	return ids
}
