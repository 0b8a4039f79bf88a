package constraint

import (
	"math"

	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// HingeJoint lets A and B rotate relative to each other about one shared
// axis through a shared anchor. The hinge angle is measured from the pose
// at creation and can be limited to [LowerAngle, UpperAngle].
type HingeJoint struct {
	jointBase
	LocalAnchorA mgl64.Vec3
	LocalAnchorB mgl64.Vec3
	LocalAxisA   mgl64.Vec3
	LocalAxisB   mgl64.Vec3

	// Zero-angle reference, perpendicular to the axis
	LocalRefA mgl64.Vec3
	LocalRefB mgl64.Vec3

	EnableLimit bool
	LowerAngle  float64 // radians
	UpperAngle  float64
}

// NewHingeJoint joins a and b at the world point anchor, rotating about the
// world direction axis.
func NewHingeJoint(a, b actor.EntityID, ta, tb actor.Transform, anchor, axis mgl64.Vec3) *HingeJoint {
	axis = normalizeOr(axis, mgl64.Vec3{0, 1, 0})
	ref := actor.AnyPerpendicular(axis)

	return &HingeJoint{
		jointBase:    jointBase{EntityA: a, EntityB: b},
		LocalAnchorA: localPoint(ta, anchor),
		LocalAnchorB: localPoint(tb, anchor),
		LocalAxisA:   localDirection(ta, axis),
		LocalAxisB:   localDirection(tb, axis),
		LocalRefA:    localDirection(ta, ref),
		LocalRefB:    localDirection(tb, ref),
	}
}

// SetLimits bounds the hinge angle, in radians.
func (j *HingeJoint) SetLimits(lower, upper float64) {
	j.EnableLimit = true
	j.LowerAngle = math.Min(lower, upper)
	j.UpperAngle = math.Max(lower, upper)
}

// Angle returns the current hinge angle of B relative to A.
func (j *HingeJoint) Angle(a, b *Body) float64 {
	axis := normalizeOr(a.Rotation.Rotate(j.LocalAxisA), mgl64.Vec3{0, 1, 0})
	refA := a.Rotation.Rotate(j.LocalRefA)
	refB := b.Rotation.Rotate(j.LocalRefB)

	// Project refB onto the hinge plane
	refB = refB.Sub(axis.Mul(refB.Dot(axis)))
	return math.Atan2(refA.Cross(refB).Dot(axis), refA.Dot(refB))
}

func (j *HingeJoint) Prepare(a, b *Body, beta, dt float64) {
	rA, rB, pA, pB := anchors(a, b, j.LocalAnchorA, j.LocalAnchorB)
	axisA := normalizeOr(a.Rotation.Rotate(j.LocalAxisA), mgl64.Vec3{0, 1, 0})
	axisB := normalizeOr(b.Rotation.Rotate(j.LocalAxisB), axisA)

	j.begin()
	j.addPointRows(rA, rB, pA, pB, beta, dt)

	// Two angular rows keep the axes aligned: C = (axisA x axisB)·t
	misalignment := axisA.Cross(axisB)
	t1, t2 := actor.TangentBasis(axisA)
	for _, t := range [2]mgl64.Vec3{t1, t2} {
		j.add(NewRow(AngularJacobian(t), baumgarte(beta, dt, misalignment.Dot(t))), tagAngular)
	}

	if j.EnableLimit {
		j.addLimitRows(AngularJacobian(axisA), j.Angle(a, b), j.LowerAngle, j.UpperAngle, beta, dt)
	}
	j.end()
}
