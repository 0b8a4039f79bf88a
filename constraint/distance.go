package constraint

import (
	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// DistanceJoint keeps the anchors of A and B at Distance from each other.
type DistanceJoint struct {
	jointBase
	LocalAnchorA mgl64.Vec3
	LocalAnchorB mgl64.Vec3
	Distance     float64

	axis mgl64.Vec3
}

func NewDistanceJoint(a, b actor.EntityID, localAnchorA, localAnchorB mgl64.Vec3, distance float64) *DistanceJoint {
	return &DistanceJoint{
		jointBase:    jointBase{EntityA: a, EntityB: b},
		LocalAnchorA: localAnchorA,
		LocalAnchorB: localAnchorB,
		Distance:     distance,
	}
}

func (j *DistanceJoint) Prepare(a, b *Body, beta, dt float64) {
	rA, rB, pA, pB := anchors(a, b, j.LocalAnchorA, j.LocalAnchorB)

	delta := pB.Sub(pA)
	length := delta.Len()
	fallback := j.axis
	if fallback.LenSqr() == 0 {
		fallback = mgl64.Vec3{1, 0, 0}
	}
	// Coincident anchors keep the last known axis
	j.axis = normalizeOr(delta, fallback)

	j.begin()
	j.add(NewRow(PointJacobian(j.axis, rA, rB), baumgarte(beta, dt, length-j.Distance)), tagLinear)
	j.end()
}
