package constraint

import (
	"math"

	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// Joint is a persistent constraint between two entities. Every step the
// solver calls Prepare with the current poses, then iterates over Rows.
type Joint interface {
	Entities() (actor.EntityID, actor.EntityID)
	// Prepare rebuilds the rows for the current poses. beta is the
	// Baumgarte factor.
	Prepare(a, b *Body, beta, dt float64)
	Rows() []Row
}

const (
	tagLinear = iota
	tagAngular
	tagLowerLimit
	tagUpperLimit
)

// jointBase holds the entity handles shared by every joint kind.
type jointBase struct {
	EntityA actor.EntityID
	EntityB actor.EntityID
	rowSet
}

func (j *jointBase) Entities() (actor.EntityID, actor.EntityID) {
	return j.EntityA, j.EntityB
}

// anchors returns the world offsets and the world positions of local
// anchors on each body.
func anchors(a, b *Body, localA, localB mgl64.Vec3) (rA, rB, pA, pB mgl64.Vec3) {
	rA = a.Rotation.Rotate(localA)
	rB = b.Rotation.Rotate(localB)
	return rA, rB, a.Position.Add(rA), b.Position.Add(rB)
}

// addPointRows removes the 3 relative translation DOF at the anchors.
func (s *rowSet) addPointRows(rA, rB, pA, pB mgl64.Vec3, beta, dt float64) {
	separation := pB.Sub(pA)
	for _, axis := range [3]mgl64.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}} {
		s.add(NewRow(PointJacobian(axis, rA, rB), baumgarte(beta, dt, separation.Dot(axis))), tagLinear)
	}
}

// addOrientationRows removes the 3 relative rotation DOF, keeping
// conj(qA)*qB equal to reference.
func (s *rowSet) addOrientationRows(a, b *Body, reference mgl64.Quat, beta, dt float64) {
	target := a.Rotation.Mul(reference)
	qErr := b.Rotation.Mul(target.Conjugate())
	if qErr.W < 0 {
		qErr = qErr.Scale(-1)
	}
	angleError := qErr.V.Mul(2)

	for _, axis := range [3]mgl64.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}} {
		s.add(NewRow(AngularJacobian(axis), baumgarte(beta, dt, angleError.Dot(axis))), tagAngular)
	}
}

// addLimitRows adds a one-sided row when value is outside [lower, upper].
func (s *rowSet) addLimitRows(j Jacobian, value, lower, upper, beta, dt float64) {
	if value <= lower {
		row := NewRow(j, baumgarte(beta, dt, value-lower))
		row.Lower, row.Upper = 0, math.Inf(1)
		s.add(row, tagLowerLimit)
	} else if value >= upper {
		row := NewRow(j, baumgarte(beta, dt, value-upper))
		row.Lower, row.Upper = math.Inf(-1), 0
		s.add(row, tagUpperLimit)
	}
}

func normalizeOr(v, fallback mgl64.Vec3) mgl64.Vec3 {
	if l := v.Len(); l > 1e-9 {
		return v.Mul(1 / l)
	}
	return fallback
}

func localPoint(t actor.Transform, world mgl64.Vec3) mgl64.Vec3 {
	return t.Orientation().Conjugate().Rotate(world.Sub(t.Position))
}

func localDirection(t actor.Transform, world mgl64.Vec3) mgl64.Vec3 {
	return normalizeOr(t.Orientation().Conjugate().Rotate(world), mgl64.Vec3{0, 1, 0})
}
