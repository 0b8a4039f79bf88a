package constraint

import (
	"math"
	"testing"

	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
)

func transformOf(b Body) actor.Transform {
	return actor.Transform{Position: b.Position, Rotation: b.Rotation, Scale: mgl64.Vec3{1, 1, 1}}
}

func solveJoint(j Joint, bodies []Body, iterations int, dt float64) {
	solver := NewSolver(iterations, testSettings)
	solver.Solve(bodies, nil, []BoundJoint{{Joint: j, A: 0, B: 1}}, dt)
}

// integrate advances positions only, rotations are left alone.
func integrate(bodies []Body, dt float64) {
	for i := range bodies {
		if bodies[i].InverseMass == 0 {
			continue
		}
		bodies[i].Position = bodies[i].Position.Add(bodies[i].Velocity.Mul(dt))
	}
}

func TestJoint_Entities(t *testing.T) {
	joints := []Joint{
		NewDistanceJoint(1, 2, mgl64.Vec3{}, mgl64.Vec3{}, 1),
		NewBallSocketJoint(1, 2, actor.NewTransform(), actor.NewTransform(), mgl64.Vec3{}),
		NewFixedJoint(1, 2, actor.NewTransform(), actor.NewTransform(), mgl64.Vec3{}),
		NewHingeJoint(1, 2, actor.NewTransform(), actor.NewTransform(), mgl64.Vec3{}, mgl64.Vec3{0, 0, 1}),
		NewSliderJoint(1, 2, actor.NewTransform(), actor.NewTransform(), mgl64.Vec3{}, mgl64.Vec3{1, 0, 0}),
	}
	for _, j := range joints {
		a, b := j.Entities()
		if a != 1 || b != 2 {
			t.Errorf("%T.Entities() = %d, %d, want 1, 2", j, a, b)
		}
	}
}

func TestDistanceJoint_Converges(t *testing.T) {
	const dt = 1.0 / 60
	bodies := []Body{staticBody(mgl64.Vec3{}), dynamicBody(mgl64.Vec3{3, 0, 0}, 1)}
	joint := NewDistanceJoint(1, 2, mgl64.Vec3{}, mgl64.Vec3{}, 2)

	for step := 0; step < 300; step++ {
		solveJoint(joint, bodies, 10, dt)
		integrate(bodies, dt)
	}

	if d := bodies[1].Position.Len(); !almostEqual(d, 2, 1e-3) {
		t.Errorf("distance = %v, want 2", d)
	}
	if len(joint.Rows()) != 1 {
		t.Errorf("got %d rows, want 1", len(joint.Rows()))
	}
}

func TestDistanceJoint_RemovesRadialVelocity(t *testing.T) {
	bodies := []Body{staticBody(mgl64.Vec3{}), dynamicBody(mgl64.Vec3{2, 0, 0}, 1)}
	bodies[1].Velocity = mgl64.Vec3{3, 1, 0}
	joint := NewDistanceJoint(1, 2, mgl64.Vec3{}, mgl64.Vec3{}, 2)

	solveJoint(joint, bodies, 10, 1.0/60)

	if !vec3AlmostEqual(bodies[1].Velocity, mgl64.Vec3{0, 1, 0}, 1e-9) {
		t.Errorf("Velocity = %v, want {0 1 0}", bodies[1].Velocity)
	}
}

func TestDistanceJoint_CoincidentAnchors(t *testing.T) {
	bodies := []Body{staticBody(mgl64.Vec3{}), dynamicBody(mgl64.Vec3{}, 1)}
	joint := NewDistanceJoint(1, 2, mgl64.Vec3{}, mgl64.Vec3{}, 1)

	solveJoint(joint, bodies, 10, 1.0/60)

	v := bodies[1].Velocity
	if math.IsNaN(v.X()) || math.IsNaN(v.Y()) || math.IsNaN(v.Z()) {
		t.Fatalf("Velocity = %v", v)
	}
	// Pushed out along the fallback axis
	if v.X() <= 0 {
		t.Errorf("Velocity = %v, want a push along +x", v)
	}
}

func TestBallSocketJoint_PinsAnchor(t *testing.T) {
	bodies := []Body{staticBody(mgl64.Vec3{}), dynamicBody(mgl64.Vec3{1, 0, 0}, 1)}
	bodies[1].Velocity = mgl64.Vec3{0, 2, 0}
	bodies[1].AngularVelocity = mgl64.Vec3{1, 0, 0}

	joint := NewBallSocketJoint(1, 2, transformOf(bodies[0]), transformOf(bodies[1]), mgl64.Vec3{0.5, 0, 0})
	if !vec3AlmostEqual(joint.LocalAnchorB, mgl64.Vec3{-0.5, 0, 0}, epsilon) {
		t.Fatalf("LocalAnchorB = %v, want {-0.5 0 0}", joint.LocalAnchorB)
	}

	solveJoint(joint, bodies, 20, 1.0/60)

	anchorVelocity := bodies[1].VelocityAt(mgl64.Vec3{-0.5, 0, 0})
	if !vec3AlmostEqual(anchorVelocity, mgl64.Vec3{}, 1e-6) {
		t.Errorf("anchor velocity = %v, want zero", anchorVelocity)
	}
	// Spin about the anchor axis is free
	if !almostEqual(bodies[1].AngularVelocity.X(), 1, 1e-6) {
		t.Errorf("AngularVelocity = %v, want x = 1", bodies[1].AngularVelocity)
	}
	if len(joint.Rows()) != 3 {
		t.Errorf("got %d rows, want 3", len(joint.Rows()))
	}
}

func TestFixedJoint_RemovesRelativeMotion(t *testing.T) {
	bodies := []Body{staticBody(mgl64.Vec3{}), dynamicBody(mgl64.Vec3{1, 0, 0}, 1)}
	bodies[1].Velocity = mgl64.Vec3{0, 1, 0.5}
	bodies[1].AngularVelocity = mgl64.Vec3{0.3, -0.2, 3}

	joint := NewFixedJoint(1, 2, transformOf(bodies[0]), transformOf(bodies[1]), mgl64.Vec3{0.5, 0, 0})
	solveJoint(joint, bodies, 100, 1.0/60)

	if !vec3AlmostEqual(bodies[1].Velocity, mgl64.Vec3{}, 1e-4) {
		t.Errorf("Velocity = %v, want zero", bodies[1].Velocity)
	}
	if !vec3AlmostEqual(bodies[1].AngularVelocity, mgl64.Vec3{}, 1e-4) {
		t.Errorf("AngularVelocity = %v, want zero", bodies[1].AngularVelocity)
	}
	if len(joint.Rows()) != 6 {
		t.Errorf("got %d rows, want 6", len(joint.Rows()))
	}
}

func TestFixedJoint_ReferenceRotation(t *testing.T) {
	ta := actor.NewTransform()
	tb := actor.NewTransform()
	tb.Rotation = mgl64.QuatRotate(0.4, mgl64.Vec3{0, 1, 0})

	joint := NewFixedJoint(1, 2, ta, tb, mgl64.Vec3{})
	if !almostEqual(math.Abs(joint.ReferenceRotation.Dot(tb.Rotation)), 1, 1e-9) {
		t.Errorf("ReferenceRotation = %v, want %v", joint.ReferenceRotation, tb.Rotation)
	}

	// At the reference pose the angular rows carry no bias
	bodies := []Body{staticBody(mgl64.Vec3{}), dynamicBody(mgl64.Vec3{}, 1)}
	bodies[1].Rotation = tb.Rotation
	joint.Prepare(&bodies[0], &bodies[1], 0.2, 1.0/60)
	for i, row := range joint.Rows()[3:] {
		if !almostEqual(row.Target, 0, 1e-9) {
			t.Errorf("angular row %d target = %v, want 0", i, row.Target)
		}
	}
}

func TestHingeJoint_Angle(t *testing.T) {
	bodies := []Body{staticBody(mgl64.Vec3{}), dynamicBody(mgl64.Vec3{1, 0, 0}, 1)}
	joint := NewHingeJoint(1, 2, transformOf(bodies[0]), transformOf(bodies[1]), mgl64.Vec3{}, mgl64.Vec3{0, 0, 1})

	if angle := joint.Angle(&bodies[0], &bodies[1]); !almostEqual(angle, 0, 1e-9) {
		t.Errorf("initial Angle = %v, want 0", angle)
	}

	bodies[1].Rotation = mgl64.QuatRotate(0.3, mgl64.Vec3{0, 0, 1})
	if angle := joint.Angle(&bodies[0], &bodies[1]); !almostEqual(angle, 0.3, 1e-9) {
		t.Errorf("Angle = %v, want 0.3", angle)
	}
}

func TestHingeJoint_FreeAxisOnly(t *testing.T) {
	bodies := []Body{staticBody(mgl64.Vec3{}), dynamicBody(mgl64.Vec3{1, 0, 0}, 1)}
	bodies[1].Velocity = mgl64.Vec3{0, 2, 0}
	bodies[1].AngularVelocity = mgl64.Vec3{1, 0.5, 2}

	joint := NewHingeJoint(1, 2, transformOf(bodies[0]), transformOf(bodies[1]), mgl64.Vec3{}, mgl64.Vec3{0, 0, 1})
	solveJoint(joint, bodies, 100, 1.0/60)

	w := bodies[1].AngularVelocity
	if !almostEqual(w.X(), 0, 1e-4) || !almostEqual(w.Y(), 0, 1e-4) {
		t.Errorf("AngularVelocity = %v, want rotation about z only", w)
	}
	if !almostEqual(w.Z(), 2, 1e-3) {
		t.Errorf("AngularVelocity = %v, hinge rotation changed", w)
	}
	anchorVelocity := bodies[1].VelocityAt(mgl64.Vec3{-1, 0, 0})
	if !vec3AlmostEqual(anchorVelocity, mgl64.Vec3{}, 1e-4) {
		t.Errorf("anchor velocity = %v, want zero", anchorVelocity)
	}
}

func TestHingeJoint_Limits(t *testing.T) {
	bodies := []Body{staticBody(mgl64.Vec3{}), dynamicBody(mgl64.Vec3{1, 0, 0}, 1)}
	joint := NewHingeJoint(1, 2, transformOf(bodies[0]), transformOf(bodies[1]), mgl64.Vec3{}, mgl64.Vec3{0, 0, 1})
	joint.SetLimits(0.1, -0.1)

	if joint.LowerAngle != -0.1 || joint.UpperAngle != 0.1 || !joint.EnableLimit {
		t.Fatalf("SetLimits did not order the bounds: %v %v", joint.LowerAngle, joint.UpperAngle)
	}

	// Inside the range: no limit row
	joint.Prepare(&bodies[0], &bodies[1], 0.2, 1.0/60)
	if len(joint.Rows()) != 5 {
		t.Errorf("got %d rows inside the limits, want 5", len(joint.Rows()))
	}

	// Past the upper bound and still opening
	rotation := mgl64.QuatRotate(0.2, mgl64.Vec3{0, 0, 1})
	bodies[1].Rotation = rotation
	bodies[1].Position = rotation.Rotate(mgl64.Vec3{1, 0, 0})
	bodies[1].AngularVelocity = mgl64.Vec3{0, 0, 1}
	bodies[1].Velocity = bodies[1].AngularVelocity.Cross(bodies[1].Position)

	solveJoint(joint, bodies, 100, 1.0/60)
	if len(joint.Rows()) != 6 {
		t.Errorf("got %d rows past the limit, want 6", len(joint.Rows()))
	}
	if bodies[1].AngularVelocity.Z() >= 0 {
		t.Errorf("AngularVelocity = %v, want the hinge driven back", bodies[1].AngularVelocity)
	}
}

func TestSliderJoint_Translation(t *testing.T) {
	bodies := []Body{staticBody(mgl64.Vec3{}), dynamicBody(mgl64.Vec3{1, 0, 0}, 1)}
	joint := NewSliderJoint(1, 2, transformOf(bodies[0]), transformOf(bodies[1]), mgl64.Vec3{1, 0, 0}, mgl64.Vec3{1, 0, 0})

	if got := joint.Translation(&bodies[0], &bodies[1]); !almostEqual(got, 0, 1e-9) {
		t.Errorf("initial Translation = %v, want 0", got)
	}
	bodies[1].Position = mgl64.Vec3{1.5, 0, 0}
	if got := joint.Translation(&bodies[0], &bodies[1]); !almostEqual(got, 0.5, 1e-9) {
		t.Errorf("Translation = %v, want 0.5", got)
	}
}

func TestSliderJoint_KeepsAxialMotion(t *testing.T) {
	bodies := []Body{staticBody(mgl64.Vec3{}), dynamicBody(mgl64.Vec3{1, 0, 0}, 1)}
	bodies[1].Velocity = mgl64.Vec3{2, 1, -1}
	bodies[1].AngularVelocity = mgl64.Vec3{0, 0, 1}

	joint := NewSliderJoint(1, 2, transformOf(bodies[0]), transformOf(bodies[1]), mgl64.Vec3{1, 0, 0}, mgl64.Vec3{1, 0, 0})
	solveJoint(joint, bodies, 20, 1.0/60)

	if !vec3AlmostEqual(bodies[1].Velocity, mgl64.Vec3{2, 0, 0}, 1e-6) {
		t.Errorf("Velocity = %v, want {2 0 0}", bodies[1].Velocity)
	}
	if !vec3AlmostEqual(bodies[1].AngularVelocity, mgl64.Vec3{}, 1e-6) {
		t.Errorf("AngularVelocity = %v, want zero", bodies[1].AngularVelocity)
	}
}

func TestSliderJoint_Limits(t *testing.T) {
	bodies := []Body{staticBody(mgl64.Vec3{}), dynamicBody(mgl64.Vec3{1, 0, 0}, 1)}
	joint := NewSliderJoint(1, 2, transformOf(bodies[0]), transformOf(bodies[1]), mgl64.Vec3{1, 0, 0}, mgl64.Vec3{1, 0, 0})
	joint.SetLimits(0, 0.2)

	bodies[1].Position = mgl64.Vec3{1.3, 0, 0}
	bodies[1].Velocity = mgl64.Vec3{1, 0, 0}
	solveJoint(joint, bodies, 20, 1.0/60)

	if bodies[1].Velocity.X() >= 0 {
		t.Errorf("Velocity = %v, want the slider driven back inside its range", bodies[1].Velocity)
	}

	// Below the lower bound the row only pushes outward
	bodies[1].Position = mgl64.Vec3{0.95, 0, 0}
	bodies[1].Velocity = mgl64.Vec3{0.5, 0, 0}
	solveJoint(joint, bodies, 20, 1.0/60)
	if bodies[1].Velocity.X() < 0.5-1e-9 {
		t.Errorf("Velocity = %v, lower limit pulled the body back", bodies[1].Velocity)
	}
}
