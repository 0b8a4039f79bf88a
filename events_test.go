package impulse

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type eventCapture struct {
	events []Event
}

func (ec *eventCapture) capture(event Event) {
	ec.events = append(ec.events, event)
}

func (ec *eventCapture) reset() {
	ec.events = ec.events[:0]
}

func (ec *eventCapture) types() []EventType {
	types := make([]EventType, len(ec.events))
	for i, e := range ec.events {
		types[i] = e.Type()
	}
	return types
}

func (ec *eventCapture) subscribeAll(events *Events) {
	for t := TRIGGER_ENTER; t <= ON_WAKE; t++ {
		events.Subscribe(t, ec.capture)
	}
}

func eventSnapshot(id actor.EntityID, kind actor.BodyKind, sleeping bool) bodySnapshot {
	return bodySnapshot{entity: id, kind: kind, sleeping: sleeping, collides: true}
}

func touching(a, b actor.EntityID, ia, ib int) *constraint.ContactManifold {
	return &constraint.ContactManifold{
		A: a, B: b, BodyA: ia, BodyB: ib,
		Normal: mgl64.Vec3{0, 1, 0},
		Points: []constraint.ContactPoint{{Normal: mgl64.Vec3{0, 1, 0}, Depth: 0.01}},
	}
}

func sameTypes(got, want []EventType) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestEventType_String(t *testing.T) {
	tests := map[EventType]string{
		TRIGGER_ENTER:  "trigger_enter",
		COLLISION_STAY: "collision_stay",
		COLLISION_EXIT: "collision_exit",
		ON_SLEEP:       "sleep",
		ON_WAKE:        "wake",
		EventType(42):  "EventType(42)",
	}
	for eventType, want := range tests {
		if got := eventType.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}

func TestEvents_CollisionLifecycle(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}
	capture.subscribeAll(&events)

	snapshots := []bodySnapshot{
		eventSnapshot(1, actor.BodyKindDynamic, false),
		eventSnapshot(2, actor.BodyKindStatic, false),
	}
	m := touching(1, 2, 0, 1)

	// Frame 1: enter
	events.recordPairs([]*constraint.ContactManifold{m}, false, snapshots)
	events.flush(nil, discardLogger)
	if !sameTypes(capture.types(), []EventType{COLLISION_ENTER}) {
		t.Fatalf("frame 1 events = %v", capture.types())
	}
	enter := capture.events[0].(CollisionEnterEvent)
	if enter.A != 1 || enter.B != 2 || enter.Manifold != m {
		t.Errorf("enter payload = %+v", enter.PairEvent)
	}
	capture.reset()

	// Frame 2: stay
	events.recordPairs([]*constraint.ContactManifold{m}, false, snapshots)
	events.flush(nil, discardLogger)
	if !sameTypes(capture.types(), []EventType{COLLISION_STAY}) {
		t.Fatalf("frame 2 events = %v", capture.types())
	}
	capture.reset()

	// Frame 3: exit, without a manifold
	events.flush(nil, discardLogger)
	if !sameTypes(capture.types(), []EventType{COLLISION_EXIT}) {
		t.Fatalf("frame 3 events = %v", capture.types())
	}
	if exit := capture.events[0].(CollisionExitEvent); exit.Manifold != nil {
		t.Error("exit event should not carry a manifold")
	}
	capture.reset()

	// Frame 4: nothing left
	events.flush(nil, discardLogger)
	if len(capture.events) != 0 {
		t.Errorf("frame 4 events = %v", capture.types())
	}
}

func TestEvents_TriggerLifecycle(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}
	capture.subscribeAll(&events)

	snapshots := []bodySnapshot{
		eventSnapshot(3, actor.BodyKindStatic, false),
		eventSnapshot(7, actor.BodyKindDynamic, false),
	}
	snapshots[0].trigger = true
	m := touching(7, 3, 1, 0)

	for frame := 0; frame < 3; frame++ {
		events.recordPairs([]*constraint.ContactManifold{m}, true, snapshots)
		events.flush(nil, discardLogger)
	}
	events.flush(nil, discardLogger)
	got := capture.types()

	want := []EventType{TRIGGER_ENTER, TRIGGER_STAY, TRIGGER_STAY, TRIGGER_EXIT}
	if !sameTypes(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}

	// The pair is keyed with the smaller entity first
	enter := capture.events[0].(TriggerEnterEvent)
	if enter.A != 3 || enter.B != 7 {
		t.Errorf("enter pair = (%v, %v), want (3, 7)", enter.A, enter.B)
	}
}

func TestEvents_QuietPairHasNoStay(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}
	capture.subscribeAll(&events)

	snapshots := []bodySnapshot{
		eventSnapshot(1, actor.BodyKindDynamic, true),
		eventSnapshot(2, actor.BodyKindDynamic, true),
	}
	m := touching(1, 2, 0, 1)

	events.recordPairs([]*constraint.ContactManifold{m}, false, snapshots)
	events.flush(nil, discardLogger)
	events.recordPairs([]*constraint.ContactManifold{m}, false, snapshots)
	events.flush(nil, discardLogger)

	if !sameTypes(capture.types(), []EventType{COLLISION_ENTER}) {
		t.Errorf("events = %v, want only the enter", capture.types())
	}

	// One side wakes up: stay events resume
	capture.reset()
	snapshots[1].sleeping = false
	events.recordPairs([]*constraint.ContactManifold{m}, false, snapshots)
	events.flush(nil, discardLogger)
	if !sameTypes(capture.types(), []EventType{COLLISION_STAY}) {
		t.Errorf("events = %v, want a stay", capture.types())
	}
}

func TestEvents_EnterExitEnter(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}
	capture.subscribeAll(&events)

	snapshots := []bodySnapshot{
		eventSnapshot(1, actor.BodyKindDynamic, false),
		eventSnapshot(2, actor.BodyKindDynamic, false),
	}
	m := touching(1, 2, 0, 1)

	events.recordPairs([]*constraint.ContactManifold{m}, false, snapshots)
	events.flush(nil, discardLogger)
	events.flush(nil, discardLogger)
	events.recordPairs([]*constraint.ContactManifold{m}, false, snapshots)
	events.flush(nil, discardLogger)

	want := []EventType{COLLISION_ENTER, COLLISION_EXIT, COLLISION_ENTER}
	if !sameTypes(capture.types(), want) {
		t.Errorf("events = %v, want %v", capture.types(), want)
	}
}

func TestEvents_Reset(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}
	capture.subscribeAll(&events)

	snapshots := []bodySnapshot{
		eventSnapshot(1, actor.BodyKindDynamic, false),
		eventSnapshot(2, actor.BodyKindStatic, false),
	}
	events.recordPairs([]*constraint.ContactManifold{touching(1, 2, 0, 1)}, false, snapshots)
	events.flush(nil, discardLogger)
	capture.reset()

	events.reset()
	events.flush(nil, discardLogger)
	if len(capture.events) != 0 {
		t.Errorf("reset should not emit exits, got %v", capture.types())
	}
	if len(events.listeners[COLLISION_ENTER]) != 1 {
		t.Error("reset should keep the listeners")
	}
}

func TestEvents_SleepWake(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}
	capture.subscribeAll(&events)

	shape := actor.Sphere{Radius: 0.5}
	body := actor.MustRigidBody(actor.BodyKindDynamic, 1, shape)
	ground := actor.MustRigidBody(actor.BodyKindStatic, 0, shape)
	snapshots := []bodySnapshot{
		eventSnapshot(1, actor.BodyKindDynamic, false),
		eventSnapshot(2, actor.BodyKindStatic, false),
	}
	refs := []bodyRef{{body: body}, {body: ground}}

	// First sighting is recorded silently
	events.processSleepEvents(snapshots, refs)
	events.flush(nil, discardLogger)
	if len(capture.events) != 0 {
		t.Fatalf("first step events = %v", capture.types())
	}

	body.Sleep()
	events.processSleepEvents(snapshots, refs)
	events.flush(nil, discardLogger)
	if !sameTypes(capture.types(), []EventType{ON_SLEEP}) {
		t.Fatalf("events = %v, want one sleep", capture.types())
	}
	if e := capture.events[0].(SleepEvent); e.Entity != 1 {
		t.Errorf("sleep entity = %v, want 1", e.Entity)
	}
	capture.reset()

	// No repeat while the state holds
	events.processSleepEvents(snapshots, refs)
	events.flush(nil, discardLogger)
	if len(capture.events) != 0 {
		t.Fatalf("steady state events = %v", capture.types())
	}

	body.SetLinearVelocity(mgl64.Vec3{1, 0, 0})
	events.processSleepEvents(snapshots, refs)
	events.flush(nil, discardLogger)
	if !sameTypes(capture.types(), []EventType{ON_WAKE}) {
		t.Fatalf("events = %v, want one wake", capture.types())
	}
}

func TestEvents_SleepStateForgottenWhenBodyLeaves(t *testing.T) {
	events := NewEvents()
	body := actor.MustRigidBody(actor.BodyKindDynamic, 1, actor.Sphere{Radius: 1})
	snapshots := []bodySnapshot{eventSnapshot(5, actor.BodyKindDynamic, false)}

	events.processSleepEvents(snapshots, []bodyRef{{body: body}})
	if _, ok := events.sleepStates[5]; !ok {
		t.Fatal("body should be tracked")
	}

	events.processSleepEvents(nil, nil)
	if len(events.sleepStates) != 0 {
		t.Errorf("sleepStates = %v, want empty", events.sleepStates)
	}
}

func TestEvents_ListenerPanicIsRecovered(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	events := NewEvents()
	called := 0
	events.Subscribe(COLLISION_ENTER, func(Event) { panic("listener bug") })
	events.Subscribe(COLLISION_ENTER, func(Event) { called++ })

	snapshots := []bodySnapshot{
		eventSnapshot(1, actor.BodyKindDynamic, false),
		eventSnapshot(2, actor.BodyKindStatic, false),
	}
	events.recordPairs([]*constraint.ContactManifold{touching(1, 2, 0, 1)}, false, snapshots)
	events.flush(nil, logger)

	if called != 1 {
		t.Errorf("second listener called %d times, want 1", called)
	}
	if !strings.Contains(logs.String(), "event listener panicked") || !strings.Contains(logs.String(), "listener bug") {
		t.Errorf("panic not logged: %q", logs.String())
	}
	if len(events.buffer) != 0 {
		t.Error("buffer should be cleared after flush")
	}
}

func TestEvents_Scripts(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	registry := NewRegistry()
	a := registry.Spawn(actor.NewTransform())
	b := registry.Spawn(actor.NewTransform())

	var gotA, gotB []EventType
	registry.SetScript(a, ScriptHandlerFunc(func(event Event) error {
		gotA = append(gotA, event.Type())
		return nil
	}))
	registry.SetScript(b, ScriptHandlerFunc(func(event Event) error {
		gotB = append(gotB, event.Type())
		return errors.New("door jammed")
	}))

	events := NewEvents()
	snapshots := []bodySnapshot{
		eventSnapshot(a, actor.BodyKindDynamic, false),
		eventSnapshot(b, actor.BodyKindStatic, false),
	}
	snapshots[1].trigger = true
	events.recordPairs([]*constraint.ContactManifold{touching(a, b, 0, 1)}, true, snapshots)
	events.flush(registry, logger)

	if !sameTypes(gotA, []EventType{TRIGGER_ENTER}) || !sameTypes(gotB, []EventType{TRIGGER_ENTER}) {
		t.Errorf("scripts got %v and %v", gotA, gotB)
	}
	if !strings.Contains(logs.String(), "script handler failed") || !strings.Contains(logs.String(), "door jammed") {
		t.Errorf("script error not logged: %q", logs.String())
	}
}

func BenchmarkEvents_Flush(b *testing.B) {
	events := NewEvents()
	events.Subscribe(COLLISION_STAY, func(Event) {})

	snapshots := make([]bodySnapshot, 200)
	manifolds := make([]*constraint.ContactManifold, 0, 100)
	for i := range snapshots {
		snapshots[i] = eventSnapshot(actor.EntityID(i+1), actor.BodyKindDynamic, false)
	}
	for i := 0; i < len(snapshots); i += 2 {
		manifolds = append(manifolds, touching(actor.EntityID(i+1), actor.EntityID(i+2), i, i+1))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		events.recordPairs(manifolds, false, snapshots)
		events.flush(nil, discardLogger)
	}
}
