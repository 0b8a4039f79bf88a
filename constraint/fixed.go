package constraint

import (
	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// FixedJoint removes all 6 relative DOF: B keeps the position and
// orientation relative to A it had at creation.
type FixedJoint struct {
	jointBase
	LocalAnchorA mgl64.Vec3
	LocalAnchorB mgl64.Vec3
	// ReferenceRotation is conj(qA)*qB at creation.
	ReferenceRotation mgl64.Quat
}

// NewFixedJoint welds a and b at the world point anchor.
func NewFixedJoint(a, b actor.EntityID, ta, tb actor.Transform, anchor mgl64.Vec3) *FixedJoint {
	return &FixedJoint{
		jointBase:         jointBase{EntityA: a, EntityB: b},
		LocalAnchorA:      localPoint(ta, anchor),
		LocalAnchorB:      localPoint(tb, anchor),
		ReferenceRotation: ta.Orientation().Conjugate().Mul(tb.Orientation()).Normalize(),
	}
}

func (j *FixedJoint) Prepare(a, b *Body, beta, dt float64) {
	rA, rB, pA, pB := anchors(a, b, j.LocalAnchorA, j.LocalAnchorB)

	j.begin()
	j.addPointRows(rA, rB, pA, pB, beta, dt)
	j.addOrientationRows(a, b, j.ReferenceRotation, beta, dt)
	j.end()
}
