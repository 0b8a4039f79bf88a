package constraint

import (
	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// BallSocketJoint pins an anchor of A to an anchor of B, leaving rotation free.
type BallSocketJoint struct {
	jointBase
	LocalAnchorA mgl64.Vec3
	LocalAnchorB mgl64.Vec3
}

// NewBallSocketJoint joins a and b at the world point anchor.
func NewBallSocketJoint(a, b actor.EntityID, ta, tb actor.Transform, anchor mgl64.Vec3) *BallSocketJoint {
	return &BallSocketJoint{
		jointBase:    jointBase{EntityA: a, EntityB: b},
		LocalAnchorA: localPoint(ta, anchor),
		LocalAnchorB: localPoint(tb, anchor),
	}
}

func (j *BallSocketJoint) Prepare(a, b *Body, beta, dt float64) {
	rA, rB, pA, pB := anchors(a, b, j.LocalAnchorA, j.LocalAnchorB)

	j.begin()
	j.addPointRows(rA, rB, pA, pB, beta, dt)
	j.end()
}
