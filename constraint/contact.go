package constraint

import (
	"math"

	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// MaxManifoldPoints is the number of points kept per manifold.
const MaxManifoldPoints = 4

// ContactPoint is one point of a manifold. NormalImpulse and TangentImpulse
// are the accumulated solver impulses, carried to the next step by the
// ContactCache while ID keeps being observed.
type ContactPoint struct {
	Position mgl64.Vec3
	Normal   mgl64.Vec3 // from A toward B
	Depth    float64    // positive when penetrating
	Tangents [2]mgl64.Vec3
	ID       uint32

	NormalImpulse  float64
	TangentImpulse [2]float64

	rA, rB         mgl64.Vec3
	normalRow      Row
	tangentRows    [2]Row
	restitutionVel float64
}

// ContactManifold holds up to MaxManifoldPoints contacts between two bodies.
// A < B; BodyA and BodyB index the solver body slice.
type ContactManifold struct {
	A, B   actor.EntityID
	Normal mgl64.Vec3
	Points []ContactPoint

	Friction    float64
	Restitution float64

	BodyA, BodyB int
}

// SetTangents fills the friction directions of every point.
func (m *ContactManifold) SetTangents() {
	for i := range m.Points {
		p := &m.Points[i]
		if p.Normal.LenSqr() == 0 {
			p.Normal = m.Normal
		}
		p.Tangents[0], p.Tangents[1] = actor.TangentBasis(p.Normal)
	}
}

// Flip swaps the roles of A and B, reversing every normal.
func (m *ContactManifold) Flip() {
	m.A, m.B = m.B, m.A
	m.BodyA, m.BodyB = m.BodyB, m.BodyA
	m.Normal = m.Normal.Mul(-1)
	for i := range m.Points {
		m.Points[i].Normal = m.Points[i].Normal.Mul(-1)
		m.Points[i].Tangents[0], m.Points[i].Tangents[1] = actor.TangentBasis(m.Points[i].Normal)
	}
}

// MaxDepth returns the deepest penetration of the manifold.
func (m *ContactManifold) MaxDepth() float64 {
	depth := math.Inf(-1)
	for _, p := range m.Points {
		depth = math.Max(depth, p.Depth)
	}
	return depth
}

// ContactSettings are the contact parameters of a solver run.
type ContactSettings struct {
	Baumgarte            float64
	LinearSlop           float64
	RestitutionThreshold float64
}

// prepare builds the normal and friction rows. The restitution target is
// computed here once, from the velocities before any impulse of this step.
func (m *ContactManifold) prepare(a, b *Body, settings ContactSettings, dt float64) {
	for i := range m.Points {
		p := &m.Points[i]
		p.rA = p.Position.Sub(a.Position)
		p.rB = p.Position.Sub(b.Position)

		relative := b.VelocityAt(p.rB).Sub(a.VelocityAt(p.rA))
		normalVel := relative.Dot(p.Normal)

		p.restitutionVel = 0
		if normalVel < -settings.RestitutionThreshold {
			p.restitutionVel = -m.Restitution * normalVel
		}

		penetrationBias := 0.0
		if dt > 0 {
			penetrationBias = settings.Baumgarte / dt * math.Max(p.Depth-settings.LinearSlop, 0)
		}

		p.normalRow = Row{
			J:       PointJacobian(p.Normal, p.rA, p.rB),
			Target:  math.Max(p.restitutionVel, penetrationBias),
			Lower:   0,
			Upper:   math.Inf(1),
			Impulse: p.NormalImpulse,
		}
		p.normalRow.Prepare(a, b)

		for k := 0; k < 2; k++ {
			p.tangentRows[k] = Row{
				J:       PointJacobian(p.Tangents[k], p.rA, p.rB),
				Lower:   math.Inf(-1),
				Upper:   math.Inf(1),
				Impulse: p.TangentImpulse[k],
			}
			p.tangentRows[k].Prepare(a, b)
		}
	}
}

func (m *ContactManifold) warmStart(a, b *Body) {
	for i := range m.Points {
		p := &m.Points[i]
		p.normalRow.WarmStart(a, b)
		p.tangentRows[0].WarmStart(a, b)
		p.tangentRows[1].WarmStart(a, b)
	}
}

// solve runs one pass: friction first (bounded by the current normal
// impulse), then the non-penetration row.
func (m *ContactManifold) solve(a, b *Body) {
	for i := range m.Points {
		p := &m.Points[i]

		// Coulomb disc: |jt| <= mu * jn
		maxFriction := m.Friction * p.normalRow.Impulse
		var oldT, newT [2]float64
		for k := 0; k < 2; k++ {
			row := &p.tangentRows[k]
			oldT[k] = row.Impulse
			newT[k] = oldT[k]
			if row.effectiveMass > 0 {
				newT[k] = oldT[k] - row.J.Velocity(a, b)*row.effectiveMass
			}
		}
		if mag := math.Hypot(newT[0], newT[1]); mag > maxFriction {
			if mag > 0 {
				scale := maxFriction / mag
				newT[0] *= scale
				newT[1] *= scale
			}
		}
		for k := 0; k < 2; k++ {
			p.tangentRows[k].Impulse = newT[k]
			p.tangentRows[k].J.Apply(a, b, newT[k]-oldT[k])
		}

		p.normalRow.Solve(a, b)
	}
}

// store copies the accumulated row impulses back to the points.
func (m *ContactManifold) store() {
	for i := range m.Points {
		p := &m.Points[i]
		p.NormalImpulse = p.normalRow.Impulse
		p.TangentImpulse[0] = p.tangentRows[0].Impulse
		p.TangentImpulse[1] = p.tangentRows[1].Impulse
	}
}
