package actor

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func almostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}

func vec3AlmostEqual(a, b mgl64.Vec3, epsilon float64) bool {
	return almostEqual(a.X(), b.X(), epsilon) &&
		almostEqual(a.Y(), b.Y(), epsilon) &&
		almostEqual(a.Z(), b.Z(), epsilon)
}

func quatAlmostEqual(a, b mgl64.Quat, epsilon float64) bool {
	// q and -q are the same rotation
	d := math.Abs(a.Dot(b))
	return almostEqual(d, 1, epsilon)
}

func unitBox() Box {
	return Box{HalfExtents: mgl64.Vec3{0.5, 0.5, 0.5}}
}

// =============================================================================
// Construction
// =============================================================================

func TestBodyKind_String(t *testing.T) {
	tests := []struct {
		kind BodyKind
		want string
	}{
		{BodyKindStatic, "static"},
		{BodyKindKinematic, "kinematic"},
		{BodyKindDynamic, "dynamic"},
		{BodyKind(7), "BodyKind(7)"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestNewRigidBody_InverseMassInvariant(t *testing.T) {
	tests := []struct {
		name        string
		kind        BodyKind
		mass        float64
		wantInverse float64
	}{
		{"dynamic", BodyKindDynamic, 4, 0.25},
		{"light dynamic", BodyKindDynamic, 0.001, 1000},
		{"static", BodyKindStatic, 0, 0},
		{"static ignores mass", BodyKindStatic, 10, 0},
		{"kinematic", BodyKindKinematic, 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rb, err := NewRigidBody(tt.kind, tt.mass, unitBox())
			if err != nil {
				t.Fatalf("NewRigidBody() error = %v", err)
			}
			if !almostEqual(rb.InverseMass(), tt.wantInverse, 1e-12) {
				t.Errorf("InverseMass() = %v, want %v", rb.InverseMass(), tt.wantInverse)
			}
			if tt.kind == BodyKindDynamic {
				if !almostEqual(rb.Mass()*rb.InverseMass(), 1, 1e-12) {
					t.Errorf("mass * inverse mass = %v, want 1", rb.Mass()*rb.InverseMass())
				}
			} else if !math.IsInf(rb.Mass(), 1) {
				t.Errorf("non-dynamic mass = %v, want +Inf", rb.Mass())
			}
			if rb.Island != -1 {
				t.Errorf("Island = %d, want -1", rb.Island)
			}
		})
	}
}

func TestNewRigidBody_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mass    float64
		shape   Shape
		wantErr error
	}{
		{"zero mass", 0, unitBox(), ErrInvalidMass},
		{"negative mass", -1, unitBox(), ErrInvalidMass},
		{"infinite mass", math.Inf(1), unitBox(), ErrInvalidMass},
		{"nan mass", math.NaN(), unitBox(), ErrInvalidMass},
		{"degenerate shape", 1, Sphere{Radius: -1}, ErrDegenerateShape},
		{"heightmap", 1, Heightmap{Heights: make([]float64, 4), Rows: 2, Cols: 2, CellSize: mgl64.Vec2{1, 1}}, ErrDegenerateShape},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rb, err := NewRigidBody(BodyKindDynamic, tt.mass, tt.shape)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if rb != nil {
				t.Error("body should be nil on error")
			}
		})
	}
}

func TestRigidBody_KindChangeKeepsInverseMassInvariant(t *testing.T) {
	rb := MustRigidBody(BodyKindDynamic, 2, unitBox())

	rb.Kind = BodyKindStatic
	if rb.InverseMass() != 0 {
		t.Errorf("static InverseMass() = %v, want 0", rb.InverseMass())
	}
	rb.Kind = BodyKindKinematic
	if rb.InverseMass() != 0 {
		t.Errorf("kinematic InverseMass() = %v, want 0", rb.InverseMass())
	}
	rb.Kind = BodyKindDynamic
	if !almostEqual(rb.InverseMass(), 0.5, 1e-12) {
		t.Errorf("dynamic InverseMass() = %v, want 0.5", rb.InverseMass())
	}
	if err := rb.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestRigidBody_Validate(t *testing.T) {
	switched := MustRigidBody(BodyKindStatic, 0, unitBox())
	switched.Kind = BodyKindDynamic

	tests := []struct {
		name    string
		body    *RigidBody
		wantErr error
	}{
		{"zero value dynamic", &RigidBody{Kind: BodyKindDynamic}, ErrInvalidMass},
		{"static switched to dynamic", switched, ErrInvalidMass},
		{"zero value static", &RigidBody{}, nil},
		{"built dynamic", MustRigidBody(BodyKindDynamic, 1, unitBox()), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.body.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestMustRigidBody_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustRigidBody should panic on invalid mass")
		}
	}()
	MustRigidBody(BodyKindDynamic, 0, unitBox())
}

// =============================================================================
// Inertia
// =============================================================================

func TestUpdateInertia(t *testing.T) {
	rb := MustRigidBody(BodyKindDynamic, 12, Box{HalfExtents: mgl64.Vec3{0.5, 1, 1.5}})

	rb.UpdateInertia(mgl64.QuatIdent())
	want := mgl64.Diag3(mgl64.Vec3{1.0 / 13, 1.0 / 10, 1.0 / 5})
	if !mat3Equal(rb.InverseInertiaWorld, want, 1e-9) {
		t.Errorf("identity InverseInertiaWorld = %v, want %v", rb.InverseInertiaWorld, want)
	}

	// A quarter turn around Z swaps the X and Y axes
	rb.UpdateInertia(mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 0, 1}))
	want = mgl64.Diag3(mgl64.Vec3{1.0 / 10, 1.0 / 13, 1.0 / 5})
	if !mat3Equal(rb.InverseInertiaWorld, want, 1e-9) {
		t.Errorf("rotated InverseInertiaWorld = %v, want %v", rb.InverseInertiaWorld, want)
	}

	inertia := rb.InertiaWorld(mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 0, 1}))
	if !mat3Equal(inertia.Mul3(rb.InverseInertiaWorld), mgl64.Ident3(), 1e-9) {
		t.Error("InertiaWorld should invert InverseInertiaWorld")
	}

	static := MustRigidBody(BodyKindStatic, 0, unitBox())
	static.UpdateInertia(mgl64.QuatIdent())
	if static.InverseInertiaWorld != (mgl64.Mat3{}) {
		t.Error("static inverse inertia should be zero")
	}
}

// =============================================================================
// Integration
// =============================================================================

func TestIntegrateVelocity(t *testing.T) {
	gravity := mgl64.Vec3{0, -10, 0}

	tests := []struct {
		name string
		kind BodyKind
		want mgl64.Vec3
	}{
		{"dynamic", BodyKindDynamic, mgl64.Vec3{0, -1, 0}},
		{"static", BodyKindStatic, mgl64.Vec3{}},
		{"kinematic keeps its velocity", BodyKindKinematic, mgl64.Vec3{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rb := MustRigidBody(tt.kind, 2, unitBox())
			rb.IntegrateVelocity(0.1, gravity)
			if !vec3AlmostEqual(rb.Velocity, tt.want, 1e-12) {
				t.Errorf("Velocity = %v, want %v", rb.Velocity, tt.want)
			}
		})
	}
}

func TestIntegrateVelocity_Forces(t *testing.T) {
	rb := MustRigidBody(BodyKindDynamic, 2, unitBox())
	rb.AddForce(mgl64.Vec3{4, 0, 0})
	rb.IntegrateVelocity(0.5, mgl64.Vec3{})

	if !vec3AlmostEqual(rb.Velocity, mgl64.Vec3{1, 0, 0}, 1e-12) {
		t.Errorf("Velocity = %v, want {1 0 0}", rb.Velocity)
	}

	// Forces are cleared after each integration
	rb.IntegrateVelocity(0.5, mgl64.Vec3{})
	if !vec3AlmostEqual(rb.Velocity, mgl64.Vec3{1, 0, 0}, 1e-12) {
		t.Errorf("Velocity after second step = %v, want {1 0 0}", rb.Velocity)
	}
}

func TestIntegrateVelocity_Torque(t *testing.T) {
	rb := MustRigidBody(BodyKindDynamic, 5, Sphere{Radius: 2}) // I = 8
	rb.UpdateInertia(mgl64.QuatIdent())
	rb.AddTorque(mgl64.Vec3{0, 16, 0})
	rb.IntegrateVelocity(1, mgl64.Vec3{})

	if !vec3AlmostEqual(rb.AngularVelocity, mgl64.Vec3{0, 2, 0}, 1e-9) {
		t.Errorf("AngularVelocity = %v, want {0 2 0}", rb.AngularVelocity)
	}
}

func TestIntegrateVelocity_Damping(t *testing.T) {
	rb := MustRigidBody(BodyKindDynamic, 1, unitBox())
	rb.Velocity = mgl64.Vec3{10, 0, 0}
	rb.AngularVelocity = mgl64.Vec3{0, 10, 0}
	rb.LinearDamping = 1
	rb.AngularDamping = 2

	rb.IntegrateVelocity(0.5, mgl64.Vec3{})

	if !almostEqual(rb.Velocity.X(), 10*math.Exp(-0.5), 1e-9) {
		t.Errorf("Velocity = %v, want %v", rb.Velocity.X(), 10*math.Exp(-0.5))
	}
	if !almostEqual(rb.AngularVelocity.Y(), 10*math.Exp(-1), 1e-9) {
		t.Errorf("AngularVelocity = %v, want %v", rb.AngularVelocity.Y(), 10*math.Exp(-1))
	}
}

func TestIntegrateVelocity_SleepingBodyIgnoresGravity(t *testing.T) {
	rb := MustRigidBody(BodyKindDynamic, 1, unitBox())
	rb.Sleep()
	rb.IntegrateVelocity(1, mgl64.Vec3{0, -10, 0})

	if rb.Velocity != (mgl64.Vec3{}) {
		t.Errorf("sleeping body velocity = %v", rb.Velocity)
	}
}

func TestIntegratePosition(t *testing.T) {
	tests := []struct {
		name     string
		kind     BodyKind
		sleeping bool
		want     mgl64.Vec3
	}{
		{"dynamic", BodyKindDynamic, false, mgl64.Vec3{1, 2, 0}},
		{"kinematic", BodyKindKinematic, false, mgl64.Vec3{1, 2, 0}},
		{"static", BodyKindStatic, false, mgl64.Vec3{1, 0, 0}},
		{"sleeping", BodyKindDynamic, true, mgl64.Vec3{1, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rb := MustRigidBody(tt.kind, 1, unitBox())
			rb.Velocity = mgl64.Vec3{0, 4, 0}
			rb.Sleeping = tt.sleeping
			transform := NewTransformAt(mgl64.Vec3{1, 0, 0})

			rb.IntegratePosition(&transform, 0.5)
			if !vec3AlmostEqual(transform.Position, tt.want, 1e-12) {
				t.Errorf("Position = %v, want %v", transform.Position, tt.want)
			}
		})
	}
}

func TestIntegratePosition_Rotation(t *testing.T) {
	rb := MustRigidBody(BodyKindDynamic, 1, unitBox())
	rb.AngularVelocity = mgl64.Vec3{0, math.Pi / 2, 0}
	transform := NewTransform()

	// Small steps converge to the exact rotation
	const steps = 1000
	for i := 0; i < steps; i++ {
		rb.IntegratePosition(&transform, 1.0/steps)
	}

	want := mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 1, 0})
	if !quatAlmostEqual(transform.Rotation, want, 1e-4) {
		t.Errorf("Rotation = %v, want %v", transform.Rotation, want)
	}
	if !almostEqual(transform.Rotation.Len(), 1, 1e-9) {
		t.Errorf("rotation not normalized: |q| = %v", transform.Rotation.Len())
	}
}

// =============================================================================
// Sleep / wake
// =============================================================================

func TestSleepAndWake(t *testing.T) {
	rb := MustRigidBody(BodyKindDynamic, 1, unitBox())
	rb.Velocity = mgl64.Vec3{1, 0, 0}
	rb.AngularVelocity = mgl64.Vec3{0, 1, 0}
	rb.LowMotionTime = 2

	rb.Sleep()
	if !rb.Sleeping || rb.Velocity != (mgl64.Vec3{}) || rb.AngularVelocity != (mgl64.Vec3{}) {
		t.Fatalf("Sleep() left %+v", rb)
	}

	rb.SetLinearVelocity(mgl64.Vec3{0, 3, 0})
	if rb.Sleeping {
		t.Error("SetLinearVelocity should wake the body")
	}
	if rb.LowMotionTime != 0 {
		t.Errorf("LowMotionTime = %v, want 0", rb.LowMotionTime)
	}

	rb.Sleep()
	rb.SetAngularVelocity(mgl64.Vec3{1, 0, 0})
	if rb.Sleeping {
		t.Error("SetAngularVelocity should wake the body")
	}

	rb.Sleep()
	rb.AddImpulse(mgl64.Vec3{2, 0, 0})
	if rb.Sleeping || !vec3AlmostEqual(rb.Velocity, mgl64.Vec3{2, 0, 0}, 1e-12) {
		t.Errorf("AddImpulse should wake and change velocity, got %v sleeping=%v", rb.Velocity, rb.Sleeping)
	}
}

func TestNonDynamicIgnoresForces(t *testing.T) {
	rb := MustRigidBody(BodyKindKinematic, 0, unitBox())
	rb.Sleeping = true
	rb.AddForce(mgl64.Vec3{1, 0, 0})
	rb.AddTorque(mgl64.Vec3{1, 0, 0})
	rb.AddImpulse(mgl64.Vec3{1, 0, 0})

	if rb.Velocity != (mgl64.Vec3{}) {
		t.Errorf("Velocity = %v, want zero", rb.Velocity)
	}
	if !rb.Sleeping {
		t.Error("forces on a non-dynamic body should not wake it")
	}
}

func TestKineticEnergy(t *testing.T) {
	rb := MustRigidBody(BodyKindDynamic, 5, Sphere{Radius: 2})
	rb.Velocity = mgl64.Vec3{2, 0, 0}
	rb.AngularVelocity = mgl64.Vec3{0, 1, 0}

	// 0.5*5*4 + 0.5*8*1
	if got := rb.KineticEnergy(mgl64.QuatIdent()); !almostEqual(got, 14, 1e-9) {
		t.Errorf("KineticEnergy() = %v, want 14", got)
	}

	static := MustRigidBody(BodyKindStatic, 0, unitBox())
	static.Velocity = mgl64.Vec3{1, 0, 0}
	if got := static.KineticEnergy(mgl64.QuatIdent()); got != 0 {
		t.Errorf("static KineticEnergy() = %v", got)
	}
}
