package constraint

import (
	"math"

	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// SliderJoint (prismatic) lets B translate relative to A along one axis
// fixed in A, with no relative rotation. The translation can be limited to
// [LowerTranslation, UpperTranslation].
type SliderJoint struct {
	jointBase
	LocalAnchorA      mgl64.Vec3
	LocalAnchorB      mgl64.Vec3
	LocalAxisA        mgl64.Vec3
	ReferenceRotation mgl64.Quat

	EnableLimit      bool
	LowerTranslation float64
	UpperTranslation float64
}

// NewSliderJoint lets b slide along the world direction axis through anchor.
func NewSliderJoint(a, b actor.EntityID, ta, tb actor.Transform, anchor, axis mgl64.Vec3) *SliderJoint {
	axis = normalizeOr(axis, mgl64.Vec3{1, 0, 0})

	return &SliderJoint{
		jointBase:         jointBase{EntityA: a, EntityB: b},
		LocalAnchorA:      localPoint(ta, anchor),
		LocalAnchorB:      localPoint(tb, anchor),
		LocalAxisA:        localDirection(ta, axis),
		ReferenceRotation: ta.Orientation().Conjugate().Mul(tb.Orientation()).Normalize(),
	}
}

// SetLimits bounds the translation along the axis.
func (j *SliderJoint) SetLimits(lower, upper float64) {
	j.EnableLimit = true
	j.LowerTranslation = math.Min(lower, upper)
	j.UpperTranslation = math.Max(lower, upper)
}

// Translation returns the current offset of B's anchor along the axis.
func (j *SliderJoint) Translation(a, b *Body) float64 {
	_, _, pA, pB := anchors(a, b, j.LocalAnchorA, j.LocalAnchorB)
	axis := normalizeOr(a.Rotation.Rotate(j.LocalAxisA), mgl64.Vec3{1, 0, 0})
	return pB.Sub(pA).Dot(axis)
}

func (j *SliderJoint) Prepare(a, b *Body, beta, dt float64) {
	rA, rB, pA, pB := anchors(a, b, j.LocalAnchorA, j.LocalAnchorB)
	axis := normalizeOr(a.Rotation.Rotate(j.LocalAxisA), mgl64.Vec3{1, 0, 0})
	d := pB.Sub(pA)

	// The axis is attached to A, so A's rotation moves the constraint too:
	// the lever of A is rA + d.
	leverA := rA.Add(d)

	j.begin()
	t1, t2 := actor.TangentBasis(axis)
	for _, t := range [2]mgl64.Vec3{t1, t2} {
		j.add(NewRow(PointJacobian(t, leverA, rB), baumgarte(beta, dt, d.Dot(t))), tagLinear)
	}
	j.addOrientationRows(a, b, j.ReferenceRotation, beta, dt)

	if j.EnableLimit {
		j.addLimitRows(PointJacobian(axis, leverA, rB), d.Dot(axis), j.LowerTranslation, j.UpperTranslation, beta, dt)
	}
	j.end()
}
