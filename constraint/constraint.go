// Package constraint implements the sequential-impulse (projected Gauss-Seidel)
// velocity solver: contact rows with Coulomb friction and restitution, joint
// rows, and the warm-start cache carrying impulses across steps.
package constraint

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Body is the solver view of a rigid body. Static, kinematic and sleeping
// bodies carry a zero inverse mass and inverse inertia, so no impulse ever
// changes their velocity.
type Body struct {
	Position        mgl64.Vec3
	Rotation        mgl64.Quat
	Velocity        mgl64.Vec3
	AngularVelocity mgl64.Vec3
	InverseMass     float64
	InverseInertia  mgl64.Mat3
}

// VelocityAt returns the velocity of the body point at offset r from its
// center of mass.
func (b *Body) VelocityAt(r mgl64.Vec3) mgl64.Vec3 {
	return b.Velocity.Add(b.AngularVelocity.Cross(r))
}

// ApplyImpulse applies impulse at offset r from the center of mass.
func (b *Body) ApplyImpulse(impulse, r mgl64.Vec3) {
	if b.InverseMass == 0 {
		return
	}
	b.Velocity = b.Velocity.Add(impulse.Mul(b.InverseMass))
	b.AngularVelocity = b.AngularVelocity.Add(b.InverseInertia.Mul3x1(r.Cross(impulse)))
}

// CombineRestitution mixes the restitution of two materials.
func CombineRestitution(a, b float64) float64 {
	// Average (more realistic than max for mixed materials)
	return (a + b) / 2.0
}

// CombineFriction mixes two friction coefficients with the geometric mean.
func CombineFriction(a, b float64) float64 {
	return math.Sqrt(math.Max(a, 0) * math.Max(b, 0))
}

// ClampSmallVelocities zeroes velocities below numerical noise.
func ClampSmallVelocities(b *Body) {
	const velocityThreshold = 1e-5

	if b.Velocity.Len() < velocityThreshold {
		b.Velocity = mgl64.Vec3{}
	}
	if b.AngularVelocity.Len() < velocityThreshold {
		b.AngularVelocity = mgl64.Vec3{}
	}
}
