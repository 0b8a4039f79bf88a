package impulse

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync/atomic"

	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

const defaultGridCells = 4096

var (
	// ErrStepInProgress is returned by a Step called from inside another
	// Step, typically from an event listener.
	ErrStepInProgress = errors.New("step already in progress")
	// ErrInvalidTimeStep is returned for a non-positive or non-finite dt.
	ErrInvalidTimeStep = errors.New("invalid time step")
)

// World simulates the rigid bodies of a Scene. It is not safe for
// concurrent use; a Step reads and writes the Scene components on the
// calling goroutine.
type World struct {
	Config Config
	Logger *slog.Logger
	Events Events

	scene  Scene
	grid   *SpatialGrid
	solver *constraint.Solver
	cache  *constraint.ContactCache
	joints []constraint.Joint
	warned map[warning]bool

	stepping atomic.Bool

	snapshots []bodySnapshot
	refs      []bodyRef
	index     map[actor.EntityID]int
	contacts  []*constraint.ContactManifold
	islands   int
}

// NewWorld creates a world simulating scene.
func NewWorld(cfg Config, scene Scene) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if scene == nil {
		return nil, errors.New("new world: nil scene")
	}

	return &World{
		Config: cfg,
		Logger: slog.Default(),
		Events: NewEvents(),
		scene:  scene,
		grid:   NewSpatialGrid(cfg.CellSize, defaultGridCells),
		solver: constraint.NewSolver(cfg.SolverIterations, constraint.ContactSettings{}),
		cache:  constraint.NewContactCache(),
		warned: make(map[warning]bool),
		index:  make(map[actor.EntityID]int),
	}, nil
}

func (w *World) Scene() Scene {
	return w.scene
}

// SetScene switches to another scene and resets the world.
func (w *World) SetScene(scene Scene) {
	w.scene = scene
	w.Reset()
}

// Reset drops contacts, warm-start impulses, joints, islands and event
// tracking. Listeners stay subscribed. No exit events are emitted.
func (w *World) Reset() {
	w.cache.Reset()
	w.joints = nil
	w.Events.reset()
	clear(w.warned)
	clear(w.index)
	w.snapshots, w.refs, w.contacts = nil, nil, nil
	w.islands = 0

	if w.scene == nil {
		return
	}
	for _, id := range w.scene.Entities(CapabilityRigidBody) {
		if body := w.scene.RigidBody(id); body != nil {
			body.Island = -1
			body.LowMotionTime = 0
			body.ClearForces()
		}
	}
}

// AddJoint adds a joint, solved from the next Step until removed.
func (w *World) AddJoint(joint constraint.Joint) {
	w.joints = append(w.joints, joint)
}

// RemoveJoint reports whether joint was found and removed.
func (w *World) RemoveJoint(joint constraint.Joint) bool {
	i := slices.Index(w.joints, joint)
	if i < 0 {
		return false
	}
	w.joints = slices.Delete(w.joints, i, i+1)
	return true
}

func (w *World) Joints() []constraint.Joint {
	return slices.Clone(w.joints)
}

// Contacts returns the solver manifolds of the last sub-step.
func (w *World) Contacts() []*constraint.ContactManifold {
	return w.contacts
}

// IslandCount returns the number of islands of the last sub-step.
func (w *World) IslandCount() int {
	return w.islands
}

// Step advances the simulation by dt seconds.
func (w *World) Step(dt float64) error {
	if !w.stepping.CompareAndSwap(false, true) {
		return ErrStepInProgress
	}
	defer w.stepping.Store(false)

	if !(dt > 0) || math.IsInf(dt, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidTimeStep, dt)
	}
	if err := w.Config.Validate(); err != nil {
		return err
	}

	h := dt / float64(w.Config.Substeps)
	for range w.Config.Substeps {
		w.substep(h)
	}

	w.Events.processSleepEvents(w.snapshots, w.refs)
	w.Events.flush(w.scene, w.Logger)
	return nil
}

func (w *World) substep(h float64) {
	// Phase 1: Velocities and snapshots
	w.prepare(h)

	// Phase 2.0: Collision pair finding - Broad phase
	pairs := BroadPhase(w.grid, w.snapshots)

	// Phase 2.1: Collision pair finding - narrow phase
	results, err := NarrowPhase(w.snapshots, pairs, w.Config.Workers)
	if err != nil {
		w.Logger.Error("narrowphase worker failed", slog.Any("error", err))
	}
	contacts, triggers := splitContacts(results)
	joints := w.bindJoints()

	// Phase 2.2: Islands, woken as a whole before solving
	wakeTouched(w.snapshots, w.refs, contacts, joints)
	islands, count := buildIslands(w.refs, contacts, joints)
	wakeIslands(w.snapshots, w.refs, islands, count)

	// Phase 3: Solver
	bodies := w.solverBodies()
	w.solve(bodies, contacts, joints, h)

	// Phase 4: Positions
	starts := w.integrate(bodies, h)
	resolveCCD(w.grid, w.snapshots, w.refs, starts, w.Config.CCDEpsilon)

	// Phase 5: Sleeping
	updateSleep(w.refs, islands, count, w.Config, h)
	w.islands = count
	w.contacts = contacts

	w.Events.recordPairs(contacts, false, w.snapshots)
	w.Events.recordPairs(triggers, true, w.snapshots)
}

// prepare resolves the simulated entities, integrates their velocities and
// copies the narrowphase snapshots. Dynamic bodies without a usable mass
// are left out of the step, with a warning logged once.
func (w *World) prepare(h float64) {
	ids := slices.Concat(w.scene.Entities(CapabilityCollider), w.scene.Entities(CapabilityRigidBody))
	slices.Sort(ids)
	ids = slices.Compact(ids)

	w.snapshots = w.snapshots[:0]
	w.refs = w.refs[:0]
	clear(w.index)

	for _, id := range ids {
		transform := w.scene.Transform(id)
		if transform == nil {
			continue
		}
		ref := bodyRef{
			transform: transform,
			collider:  w.scene.Collider(id),
			body:      w.scene.RigidBody(id),
		}
		if ref.body != nil {
			if err := ref.body.Validate(); err != nil {
				w.warnOnce(id, "body skipped", err)
				continue
			}
		}
		if ref.collider != nil {
			if err := w.checkCollider(ref); err != nil {
				w.warnOnce(id, "collider skipped", err)
				ref.collider = nil
			}
		}

		if ref.body != nil {
			if ref.body.Sleeping && (ref.body.Velocity.LenSqr() > 0 || ref.body.AngularVelocity.LenSqr() > 0) {
				// Sleep zeroes motion, so this velocity was written directly
				ref.body.Wake()
			}
			ref.body.UpdateInertia(transform.Orientation())
			ref.body.IntegrateVelocity(h, w.Config.Gravity)
		}

		w.index[id] = len(w.refs)
		w.refs = append(w.refs, ref)
		w.snapshots = append(w.snapshots, newSnapshot(id, ref, w.Config, h))
	}
}

// warning identifies a message logged once per entity until Reset.
type warning struct {
	entity actor.EntityID
	msg    string
}

func (w *World) warnOnce(id actor.EntityID, msg string, err error) {
	key := warning{entity: id, msg: msg}
	if w.warned[key] {
		return
	}
	w.warned[key] = true
	w.Logger.Warn(msg, slog.Any("entity", id), slog.Any("error", err))
}

func (w *World) checkCollider(ref bodyRef) error {
	if err := actor.Validate(ref.collider.Shape); err != nil {
		return err
	}
	if ref.body != nil && ref.body.IsDynamic() && ref.collider.Shape.Kind() == actor.ShapeKindHeightmap {
		return fmt.Errorf("dynamic body cannot use a heightmap: %w", actor.ErrDegenerateShape)
	}
	return nil
}

// bindJoints resolves the joint entities to snapshot indices. Joints whose
// entities left the scene are dropped.
func (w *World) bindJoints() []constraint.BoundJoint {
	bound := make([]constraint.BoundJoint, 0, len(w.joints))
	kept := w.joints[:0]
	for _, joint := range w.joints {
		a, b := joint.Entities()
		ia, okA := w.index[a]
		ib, okB := w.index[b]
		if !okA || !okB {
			w.Logger.Debug("joint dropped", slog.Any("entity_a", a), slog.Any("entity_b", b))
			continue
		}
		kept = append(kept, joint)
		bound = append(bound, constraint.BoundJoint{Joint: joint, A: ia, B: ib})
	}
	clear(w.joints[len(kept):])
	w.joints = kept
	return bound
}

// solverBodies builds the solver view. Only awake dynamic bodies get a
// non-zero inverse mass.
func (w *World) solverBodies() []constraint.Body {
	bodies := make([]constraint.Body, len(w.refs))
	for i, ref := range w.refs {
		b := &bodies[i]
		b.Position = ref.transform.Position
		b.Rotation = ref.transform.Orientation()

		body := ref.body
		if body == nil || body.Sleeping {
			continue
		}
		b.Velocity = body.Velocity
		b.AngularVelocity = body.AngularVelocity
		if body.IsDynamic() {
			b.InverseMass = body.InverseMass()
			b.InverseInertia = body.InverseInertiaWorld
		}
	}
	return bodies
}

func (w *World) solve(bodies []constraint.Body, contacts []*constraint.ContactManifold, joints []constraint.BoundJoint, h float64) {
	w.solver.Iterations = w.Config.SolverIterations
	w.solver.WarmStart = !w.Config.DisableWarmStart
	w.solver.Contact = constraint.ContactSettings{
		Baumgarte:            w.Config.Baumgarte,
		LinearSlop:           w.Config.LinearSlop,
		RestitutionThreshold: w.Config.RestitutionThreshold,
	}

	if w.solver.WarmStart {
		w.cache.Apply(contacts)
	}
	w.solver.Solve(bodies, contacts, joints, h)
	w.cache.Store(contacts)
}

// integrate writes the solved velocities back and advances the positions.
// It returns the positions before integration.
func (w *World) integrate(bodies []constraint.Body, h float64) []mgl64.Vec3 {
	starts := make([]mgl64.Vec3, len(w.refs))
	for i, ref := range w.refs {
		starts[i] = ref.transform.Position

		body := ref.body
		if body == nil || body.Sleeping {
			continue
		}
		if body.IsDynamic() {
			constraint.ClampSmallVelocities(&bodies[i])
			body.Velocity = bodies[i].Velocity
			body.AngularVelocity = bodies[i].AngularVelocity
		}
		body.IntegratePosition(ref.transform, h)
	}
	return starts
}
