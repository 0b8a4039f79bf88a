package constraint

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Jacobian maps the velocities of two bodies to the velocity of one
// constraint row: Cdot = LinearA·vA + AngularA·ωA + LinearB·vB + AngularB·ωB.
type Jacobian struct {
	LinearA  mgl64.Vec3
	AngularA mgl64.Vec3
	LinearB  mgl64.Vec3
	AngularB mgl64.Vec3
}

// PointJacobian is the Jacobian of the relative velocity of two anchor points
// (offsets rA, rB) along axis.
func PointJacobian(axis, rA, rB mgl64.Vec3) Jacobian {
	return Jacobian{
		LinearA:  axis.Mul(-1),
		AngularA: rA.Cross(axis).Mul(-1),
		LinearB:  axis,
		AngularB: rB.Cross(axis),
	}
}

// AngularJacobian is the Jacobian of the relative angular velocity about axis.
func AngularJacobian(axis mgl64.Vec3) Jacobian {
	return Jacobian{AngularA: axis.Mul(-1), AngularB: axis}
}

// Velocity evaluates the row velocity for the current body velocities.
func (j Jacobian) Velocity(a, b *Body) float64 {
	return j.LinearA.Dot(a.Velocity) + j.AngularA.Dot(a.AngularVelocity) +
		j.LinearB.Dot(b.Velocity) + j.AngularB.Dot(b.AngularVelocity)
}

// EffectiveMassInverse returns J M^-1 J^T.
func (j Jacobian) EffectiveMassInverse(a, b *Body) float64 {
	return a.InverseMass*j.LinearA.Dot(j.LinearA) +
		j.AngularA.Dot(a.InverseInertia.Mul3x1(j.AngularA)) +
		b.InverseMass*j.LinearB.Dot(j.LinearB) +
		j.AngularB.Dot(b.InverseInertia.Mul3x1(j.AngularB))
}

// Apply changes both bodies' velocities by the impulse lambda along the row.
func (j Jacobian) Apply(a, b *Body, lambda float64) {
	if a.InverseMass != 0 {
		a.Velocity = a.Velocity.Add(j.LinearA.Mul(a.InverseMass * lambda))
		a.AngularVelocity = a.AngularVelocity.Add(a.InverseInertia.Mul3x1(j.AngularA.Mul(lambda)))
	}
	if b.InverseMass != 0 {
		b.Velocity = b.Velocity.Add(j.LinearB.Mul(b.InverseMass * lambda))
		b.AngularVelocity = b.AngularVelocity.Add(b.InverseInertia.Mul3x1(j.AngularB.Mul(lambda)))
	}
}

// Row is one scalar velocity constraint. The solver drives J·v toward
// Target while keeping the accumulated Impulse within [Lower, Upper].
type Row struct {
	J       Jacobian
	Target  float64
	Lower   float64
	Upper   float64
	Impulse float64

	effectiveMass float64
	tag           int
}

// NewRow creates an equality row (unbounded impulse).
func NewRow(j Jacobian, target float64) Row {
	return Row{J: j, Target: target, Lower: math.Inf(-1), Upper: math.Inf(1)}
}

// Prepare computes the effective mass for the current poses.
func (r *Row) Prepare(a, b *Body) {
	k := r.J.EffectiveMassInverse(a, b)
	if k > 1e-12 {
		r.effectiveMass = 1 / k
	} else {
		r.effectiveMass = 0
	}
}

// WarmStart re-applies the accumulated impulse.
func (r *Row) WarmStart(a, b *Body) {
	if r.Impulse != 0 {
		r.J.Apply(a, b, r.Impulse)
	}
}

// Solve performs one projected Gauss-Seidel update.
func (r *Row) Solve(a, b *Body) {
	if r.effectiveMass == 0 {
		return
	}
	lambda := (r.Target - r.J.Velocity(a, b)) * r.effectiveMass

	old := r.Impulse
	r.Impulse = math.Max(r.Lower, math.Min(r.Upper, old+lambda))
	r.J.Apply(a, b, r.Impulse-old)
}

// rowSet rebuilds the rows of a joint every step while keeping the
// accumulated impulse of rows that stay at the same index with the same tag.
type rowSet struct {
	rows []Row
	next int
}

func (s *rowSet) begin() {
	s.next = 0
}

func (s *rowSet) add(row Row, tag int) {
	row.tag = tag
	if s.next < len(s.rows) {
		if s.rows[s.next].tag == tag {
			row.Impulse = s.rows[s.next].Impulse
		}
		s.rows[s.next] = row
	} else {
		s.rows = append(s.rows, row)
	}
	s.next++
}

func (s *rowSet) end() {
	s.rows = s.rows[:s.next]
}

// Rows returns the rows built by the last Prepare.
func (s *rowSet) Rows() []Row {
	return s.rows
}

// baumgarte converts a position error into a velocity target.
func baumgarte(beta, dt, positionError float64) float64 {
	if dt <= 0 {
		return 0
	}
	return -beta / dt * positionError
}
