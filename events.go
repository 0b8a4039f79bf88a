package impulse

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"

	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/constraint"
)

const (
	TRIGGER_ENTER EventType = iota
	COLLISION_ENTER
	TRIGGER_STAY
	COLLISION_STAY
	TRIGGER_EXIT
	COLLISION_EXIT
	ON_SLEEP
	ON_WAKE
)

type EventType uint8

func (t EventType) String() string {
	switch t {
	case TRIGGER_ENTER:
		return "trigger_enter"
	case COLLISION_ENTER:
		return "collision_enter"
	case TRIGGER_STAY:
		return "trigger_stay"
	case COLLISION_STAY:
		return "collision_stay"
	case TRIGGER_EXIT:
		return "trigger_exit"
	case COLLISION_EXIT:
		return "collision_exit"
	case ON_SLEEP:
		return "sleep"
	case ON_WAKE:
		return "wake"
	}
	return fmt.Sprintf("EventType(%d)", uint8(t))
}

// Event interface - all events implement this
type Event interface {
	Type() EventType
	entities() []actor.EntityID
}

// PairEvent is the payload shared by trigger and collision events. A < B.
// Manifold is nil on exit events.
type PairEvent struct {
	A, B     actor.EntityID
	Manifold *constraint.ContactManifold
}

func (e PairEvent) entities() []actor.EntityID { return []actor.EntityID{e.A, e.B} }

// Trigger events
type TriggerEnterEvent struct{ PairEvent }

func (e TriggerEnterEvent) Type() EventType { return TRIGGER_ENTER }

type TriggerStayEvent struct{ PairEvent }

func (e TriggerStayEvent) Type() EventType { return TRIGGER_STAY }

type TriggerExitEvent struct{ PairEvent }

func (e TriggerExitEvent) Type() EventType { return TRIGGER_EXIT }

// Collision events
type CollisionEnterEvent struct{ PairEvent }

func (e CollisionEnterEvent) Type() EventType { return COLLISION_ENTER }

type CollisionStayEvent struct{ PairEvent }

func (e CollisionStayEvent) Type() EventType { return COLLISION_STAY }

type CollisionExitEvent struct{ PairEvent }

func (e CollisionExitEvent) Type() EventType { return COLLISION_EXIT }

// Sleep/Wake events
type SleepEvent struct {
	Entity actor.EntityID
}

func (e SleepEvent) Type() EventType             { return ON_SLEEP }
func (e SleepEvent) entities() []actor.EntityID { return []actor.EntityID{e.Entity} }

type WakeEvent struct {
	Entity actor.EntityID
}

func (e WakeEvent) Type() EventType             { return ON_WAKE }
func (e WakeEvent) entities() []actor.EntityID { return []actor.EntityID{e.Entity} }

// EventListener - callback for events
type EventListener func(event Event)

type activePair struct {
	trigger bool
	// quiet pairs have no awake participant and emit no stay event
	quiet    bool
	manifold *constraint.ContactManifold
}

// Events manager
type Events struct {
	// Listeners by event type
	listeners map[EventType][]EventListener

	// Event buffer to send at flush
	buffer []Event

	// Collision tracking for Enter/Stay/Exit detection
	previousActivePairs map[constraint.PairKey]activePair
	currentActivePairs  map[constraint.PairKey]activePair

	sleepStates map[actor.EntityID]bool
}

func NewEvents() Events {
	return Events{
		listeners:           make(map[EventType][]EventListener),
		buffer:              make([]Event, 0, 256),
		previousActivePairs: make(map[constraint.PairKey]activePair),
		currentActivePairs:  make(map[constraint.PairKey]activePair),
		sleepStates:         make(map[actor.EntityID]bool),
	}
}

// Subscribe adds a listener for an event type
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

// reset forgets every tracked pair and sleep state without emitting events.
func (e *Events) reset() {
	clear(e.previousActivePairs)
	clear(e.currentActivePairs)
	clear(e.sleepStates)
	e.buffer = e.buffer[:0]
}

// recordPairs marks the manifolds as touching this step.
func (e *Events) recordPairs(manifolds []*constraint.ContactManifold, trigger bool, snapshots []bodySnapshot) {
	for _, m := range manifolds {
		a, b := &snapshots[m.BodyA], &snapshots[m.BodyB]
		e.currentActivePairs[constraint.MakePairKey(m.A, m.B)] = activePair{
			trigger:  trigger,
			quiet:    !a.active() && !b.active(),
			manifold: m,
		}
	}
}

// processCollisionEvents compares current and previous pairs to detect
// Enter/Stay/Exit.
func (e *Events) processCollisionEvents() {
	for _, key := range sortedKeys(e.currentActivePairs) {
		pair := e.currentActivePairs[key]
		payload := PairEvent{A: key.A, B: key.B, Manifold: pair.manifold}

		if _, ok := e.previousActivePairs[key]; ok {
			if pair.quiet {
				continue
			}
			if pair.trigger {
				e.buffer = append(e.buffer, TriggerStayEvent{payload})
			} else {
				e.buffer = append(e.buffer, CollisionStayEvent{payload})
			}
			continue
		}

		if pair.trigger {
			e.buffer = append(e.buffer, TriggerEnterEvent{payload})
		} else {
			e.buffer = append(e.buffer, CollisionEnterEvent{payload})
		}
	}

	for _, key := range sortedKeys(e.previousActivePairs) {
		if _, ok := e.currentActivePairs[key]; ok {
			continue
		}
		payload := PairEvent{A: key.A, B: key.B}
		if e.previousActivePairs[key].trigger {
			e.buffer = append(e.buffer, TriggerExitEvent{payload})
		} else {
			e.buffer = append(e.buffer, CollisionExitEvent{payload})
		}
	}

	// Swap for next frame and clear current
	e.previousActivePairs, e.currentActivePairs = e.currentActivePairs, e.previousActivePairs
	clear(e.currentActivePairs)
}

// processSleepEvents emits Sleep/Wake for every dynamic body whose state
// flipped since the last step. Untracked bodies are recorded silently.
func (e *Events) processSleepEvents(snapshots []bodySnapshot, refs []bodyRef) {
	seen := make(map[actor.EntityID]bool, len(snapshots))
	for i := range snapshots {
		body := refs[i].body
		if body == nil || !body.IsDynamic() {
			continue
		}
		id := snapshots[i].entity
		seen[id] = true

		tracked, exists := e.sleepStates[id]
		e.sleepStates[id] = body.Sleeping
		if !exists || tracked == body.Sleeping {
			continue
		}
		if body.Sleeping {
			e.buffer = append(e.buffer, SleepEvent{Entity: id})
		} else {
			e.buffer = append(e.buffer, WakeEvent{Entity: id})
		}
	}

	for id := range e.sleepStates {
		if !seen[id] {
			delete(e.sleepStates, id)
		}
	}
}

// flush sends all buffered events to the listeners and to the scripts of the
// entities involved, then clears the buffer. A panicking listener or failing
// script is logged and skipped.
func (e *Events) flush(scene Scene, logger *slog.Logger) {
	e.processCollisionEvents()

	for _, event := range e.buffer {
		for _, listener := range e.listeners[event.Type()] {
			callListener(listener, event, logger)
		}
		if scene == nil {
			continue
		}
		for _, id := range event.entities() {
			if script := scene.Script(id); script != nil {
				callScript(script, id, event, logger)
			}
		}
	}
	e.buffer = e.buffer[:0]
}

func callListener(listener EventListener, event Event, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("event listener panicked",
				slog.String("event", event.Type().String()),
				slog.Any("panic", r))
		}
	}()
	listener(event)
}

func callScript(script ScriptHandler, id actor.EntityID, event Event, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("script handler panicked",
				slog.Any("entity", id),
				slog.String("event", event.Type().String()),
				slog.Any("panic", r))
		}
	}()
	if err := script.HandleEvent(event); err != nil {
		logger.Error("script handler failed",
			slog.Any("entity", id),
			slog.String("event", event.Type().String()),
			slog.Any("error", err))
	}
}

func sortedKeys(pairs map[constraint.PairKey]activePair) []constraint.PairKey {
	keys := make([]constraint.PairKey, 0, len(pairs))
	for key := range pairs {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, func(p, q constraint.PairKey) int {
		if p.A != q.A {
			return cmp.Compare(p.A, q.A)
		}
		return cmp.Compare(p.B, q.B)
	})
	return keys
}
