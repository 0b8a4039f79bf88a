package actor

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// BodyKind represents the kind of rigid body
type BodyKind int

const (
	// BodyKindStatic bodies never move and have infinite mass (ground, walls).
	BodyKindStatic BodyKind = iota

	// BodyKindKinematic bodies are moved by the application through their
	// velocity. They push dynamic bodies but are never pushed back.
	BodyKindKinematic

	// BodyKindDynamic bodies are affected by forces, gravity and contacts.
	BodyKindDynamic
)

func (k BodyKind) String() string {
	switch k {
	case BodyKindStatic:
		return "static"
	case BodyKindKinematic:
		return "kinematic"
	case BodyKindDynamic:
		return "dynamic"
	}
	return fmt.Sprintf("BodyKind(%d)", int(k))
}

// CCDMode selects continuous collision detection for a body.
type CCDMode int

const (
	CCDNone CCDMode = iota
	CCDSwept
)

// Material overrides the world default restitution and friction.
type Material struct {
	Restitution float64 // 0 = no rebound, 1 = perfect restitution
	Friction    float64
}

// RigidBody holds the dynamic state of a physics-enabled entity. Position and
// orientation live in the entity Transform.
type RigidBody struct {
	Kind BodyKind

	mass        float64
	inverseMass float64

	// Linear motion
	Velocity      mgl64.Vec3 // m/s
	LinearDamping float64    // 1/s, typical 0.01

	// Angular motion
	AngularVelocity mgl64.Vec3 // rad/s
	AngularDamping  float64    // 1/s, typical 0.05

	InertiaLocal        mgl64.Mat3
	InverseInertiaLocal mgl64.Mat3
	InverseInertiaWorld mgl64.Mat3

	accumulatedForce  mgl64.Vec3
	accumulatedTorque mgl64.Vec3

	// Material nil means the world defaults.
	Material *Material
	CCD      CCDMode

	Sleeping      bool
	LowMotionTime float64
	Island        int
}

// NewRigidBody creates a body of the given kind. Mass and shape are used to
// compute the inertia of dynamic bodies and are ignored otherwise.
func NewRigidBody(kind BodyKind, mass float64, shape Shape) (*RigidBody, error) {
	rb := &RigidBody{Kind: kind, Island: -1}

	if kind != BodyKindDynamic {
		rb.mass = math.Inf(1)
		return rb, nil
	}

	if !finitePositive(mass) {
		return nil, fmt.Errorf("dynamic body mass %v: %w", mass, ErrInvalidMass)
	}
	if err := Validate(shape); err != nil {
		return nil, fmt.Errorf("dynamic body: %w", err)
	}
	if shape.Kind() == ShapeKindHeightmap {
		return nil, fmt.Errorf("dynamic body cannot use a heightmap: %w", ErrDegenerateShape)
	}

	rb.mass = mass
	rb.inverseMass = 1.0 / mass
	rb.InertiaLocal = ComputeInertia(shape, mass)
	rb.InverseInertiaLocal = invertInertia(rb.InertiaLocal)
	rb.InverseInertiaWorld = rb.InverseInertiaLocal

	return rb, nil
}

// MustRigidBody is NewRigidBody for parameters known to be valid.
func MustRigidBody(kind BodyKind, mass float64, shape Shape) *RigidBody {
	rb, err := NewRigidBody(kind, mass, shape)
	if err != nil {
		panic(err)
	}
	return rb
}

func invertInertia(m mgl64.Mat3) mgl64.Mat3 {
	if math.Abs(m.Det()) < 1e-12 {
		return mgl64.Mat3{}
	}
	return m.Inv()
}

func (rb *RigidBody) Mass() float64 {
	return rb.mass
}

// InverseMass is zero for every non-dynamic body, including one created
// dynamic whose Kind was changed afterwards.
func (rb *RigidBody) InverseMass() float64 {
	if rb.Kind != BodyKindDynamic {
		return 0
	}
	return rb.inverseMass
}

// Validate reports a dynamic body without a usable mass: a zero value
// RigidBody, or one created with another kind and switched to dynamic.
func (rb *RigidBody) Validate() error {
	if rb.Kind == BodyKindDynamic && !(finitePositive(rb.mass) && rb.inverseMass > 0) {
		return fmt.Errorf("dynamic body mass %v: %w", rb.mass, ErrInvalidMass)
	}
	return nil
}

func (rb *RigidBody) IsDynamic() bool {
	return rb.Kind == BodyKindDynamic
}

// UpdateInertia recomputes the world inverse inertia for orientation rot.
func (rb *RigidBody) UpdateInertia(rot mgl64.Quat) {
	if rb.Kind != BodyKindDynamic {
		rb.InverseInertiaWorld = mgl64.Mat3{}
		return
	}

	// I_world^(-1) = R * I_local^(-1) * R^T
	R := normalizeQuat(rot).Mat4().Mat3()
	rb.InverseInertiaWorld = R.Mul3(rb.InverseInertiaLocal).Mul3(R.Transpose())
}

// InertiaWorld returns the world inertia tensor for orientation rot.
func (rb *RigidBody) InertiaWorld(rot mgl64.Quat) mgl64.Mat3 {
	R := normalizeQuat(rot).Mat4().Mat3()
	return R.Mul3(rb.InertiaLocal).Mul3(R.Transpose())
}

// SetLinearVelocity is an external velocity write and wakes the body.
func (rb *RigidBody) SetLinearVelocity(v mgl64.Vec3) {
	rb.Velocity = v
	rb.Wake()
}

// SetAngularVelocity is an external velocity write and wakes the body.
func (rb *RigidBody) SetAngularVelocity(w mgl64.Vec3) {
	rb.AngularVelocity = w
	rb.Wake()
}

// AddForce accumulates a force in newtons, applied during the next step.
func (rb *RigidBody) AddForce(force mgl64.Vec3) {
	if rb.Kind != BodyKindDynamic {
		return
	}
	rb.Wake()
	rb.accumulatedForce = rb.accumulatedForce.Add(force)
}

// AddTorque accumulates a torque in N·m, applied during the next step.
func (rb *RigidBody) AddTorque(torque mgl64.Vec3) {
	if rb.Kind != BodyKindDynamic {
		return
	}
	rb.Wake()
	rb.accumulatedTorque = rb.accumulatedTorque.Add(torque)
}

// AddImpulse changes the linear velocity immediately.
func (rb *RigidBody) AddImpulse(impulse mgl64.Vec3) {
	if rb.Kind != BodyKindDynamic {
		return
	}
	rb.Wake()
	rb.Velocity = rb.Velocity.Add(impulse.Mul(rb.inverseMass))
}

func (rb *RigidBody) ClearForces() {
	rb.accumulatedForce = mgl64.Vec3{}
	rb.accumulatedTorque = mgl64.Vec3{}
}

// Sleep marks the body asleep and zeroes its motion.
func (rb *RigidBody) Sleep() {
	rb.Sleeping = true
	rb.ClearForces()
	rb.Velocity = mgl64.Vec3{}
	rb.AngularVelocity = mgl64.Vec3{}
}

func (rb *RigidBody) Wake() {
	rb.Sleeping = false
	rb.LowMotionTime = 0
}

// IntegrateVelocity applies gravity, accumulated forces and damping.
func (rb *RigidBody) IntegrateVelocity(dt float64, gravity mgl64.Vec3) {
	if rb.Kind != BodyKindDynamic || rb.Sleeping {
		rb.ClearForces()
		return
	}

	// Linear
	acceleration := gravity.Add(rb.accumulatedForce.Mul(rb.inverseMass))
	rb.Velocity = rb.Velocity.Add(acceleration.Mul(dt))
	rb.Velocity = rb.Velocity.Mul(math.Exp(-rb.LinearDamping * dt))

	// Angular
	angularAccel := rb.InverseInertiaWorld.Mul3x1(rb.accumulatedTorque)
	rb.AngularVelocity = rb.AngularVelocity.Add(angularAccel.Mul(dt))
	rb.AngularVelocity = rb.AngularVelocity.Mul(math.Exp(-rb.AngularDamping * dt))

	rb.ClearForces()
}

// IntegratePosition advances t by the current velocities. Kinematic bodies
// move too, static and sleeping bodies do not.
func (rb *RigidBody) IntegratePosition(t *Transform, dt float64) {
	if rb.Kind == BodyKindStatic || rb.Sleeping {
		return
	}

	t.Position = t.Position.Add(rb.Velocity.Mul(dt))

	if rb.AngularVelocity.LenSqr() == 0 {
		return
	}
	rotation := t.Orientation()
	omegaQuat := mgl64.Quat{V: rb.AngularVelocity, W: 0}
	qDot := omegaQuat.Mul(rotation).Scale(0.5)
	t.Rotation = rotation.Add(qDot.Scale(dt)).Normalize()
}

// KineticEnergy returns the linear plus rotational kinetic energy.
func (rb *RigidBody) KineticEnergy(rot mgl64.Quat) float64 {
	if rb.Kind != BodyKindDynamic {
		return 0
	}
	linear := 0.5 * rb.mass * rb.Velocity.LenSqr()
	angular := 0.5 * rb.AngularVelocity.Dot(rb.InertiaWorld(rot).Mul3x1(rb.AngularVelocity))
	return linear + angular
}
