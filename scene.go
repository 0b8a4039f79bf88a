package impulse

import "github.com/akmonengine/impulse/actor"

// Capability selects the entities a Scene enumerates.
type Capability uint8

const (
	// CapabilityCollider entities have a transform and a collider.
	CapabilityCollider Capability = iota
	// CapabilityRigidBody entities have a transform and a rigid body.
	CapabilityRigidBody
	// CapabilityScript entities receive their own events.
	CapabilityScript
)

// Scene is the entity storage the world simulates. Components are returned
// by pointer: the world reads and writes them during Step, on the calling
// goroutine only. A nil result means the entity lacks the component.
type Scene interface {
	Entities(capability Capability) []actor.EntityID
	Transform(id actor.EntityID) *actor.Transform
	Collider(id actor.EntityID) *actor.Collider
	RigidBody(id actor.EntityID) *actor.RigidBody
	Script(id actor.EntityID) ScriptHandler
}

// ScriptHandler receives the events that involve its entity. A returned
// error is logged and does not interrupt the step.
type ScriptHandler interface {
	HandleEvent(event Event) error
}

// ScriptHandlerFunc adapts a function to ScriptHandler.
type ScriptHandlerFunc func(event Event) error

func (f ScriptHandlerFunc) HandleEvent(event Event) error {
	return f(event)
}
