// Package gjk answers queries on pairs of convex shapes known only through
// their support mapping: the boolean overlap test run by the narrowphase,
// the distance between disjoint shapes used by continuous collision, and
// ray casts against a single shape.
//
// References:
//   - Gilbert, Johnson, Keerthi: "A Fast Procedure for Computing the Distance Between
//     Complex Objects in Three-Dimensional Space" (1988)
//   - Van den Bergen: "Collision Detection in Interactive 3D Environments" (2003)
package gjk

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	maxIterations = 32
	degenerateEps = 1e-10
)

// Convex is a support-mapped shape placed in world space.
type Convex interface {
	// SupportWorld returns the point of the shape furthest along direction.
	SupportWorld(direction mgl64.Vec3) mgl64.Vec3
	// Center returns any point inside the shape.
	Center() mgl64.Vec3
}

// Simplex holds 1 to 4 points of the Minkowski difference A - B, the most
// recent one last. After a successful GJK it is a tetrahedron enclosing the
// origin, the starting polytope of EPA.
type Simplex struct {
	Points [4]mgl64.Vec3
	Count  int
}

func (s *Simplex) Reset() {
	s.Count = 0
}

func (s *Simplex) push(p mgl64.Vec3) {
	s.Points[s.Count] = p
	s.Count++
}

// set replaces the simplex, oldest point first.
func (s *Simplex) set(points ...mgl64.Vec3) {
	s.Count = copy(s.Points[:], points)
}

var SimplexPool = sync.Pool{
	New: func() any {
		return &Simplex{}
	},
}

// MinkowskiSupport returns the point of A - B furthest along direction.
func MinkowskiSupport(a, b Convex, direction mgl64.Vec3) mgl64.Vec3 {
	return a.SupportWorld(direction).Sub(b.SupportWorld(direction.Mul(-1)))
}

// GJK reports whether a and b overlap. Touching shapes count as
// overlapping. simplex is overwritten; on overlap it usually ends as a
// tetrahedron containing the origin, but degenerate contacts may stop
// earlier with fewer points.
func GJK(a, b Convex, simplex *Simplex) bool {
	direction := b.Center().Sub(a.Center())
	if direction.LenSqr() < 1e-8 {
		direction = mgl64.Vec3{1, 0, 0}
	}

	simplex.set(MinkowskiSupport(a, b, direction))
	direction = simplex.Points[0].Mul(-1)
	if direction.LenSqr() < 1e-16 {
		return true
	}

	for iter := 0; iter < maxIterations; iter++ {
		p := MinkowskiSupport(a, b, direction)
		if p.Dot(direction) <= 0 {
			// p does not pass the origin: a separating axis
			return false
		}
		simplex.push(p)

		var enclosed bool
		direction, enclosed = simplex.evolve()
		if enclosed {
			return true
		}
	}
	return false
}

// evolve keeps the feature of the simplex nearest to the origin and returns
// the next search direction, or true once the origin is enclosed.
func (s *Simplex) evolve() (mgl64.Vec3, bool) {
	switch s.Count {
	case 2:
		return s.segment()
	case 3:
		return s.triangle()
	case 4:
		return s.tetrahedron()
	}
	return mgl64.Vec3{}, false
}

func (s *Simplex) segment() (mgl64.Vec3, bool) {
	b, a := s.Points[0], s.Points[1]
	ab, ao := b.Sub(a), a.Mul(-1)

	if ab.LenSqr() < 1e-8 || ab.Dot(ao) <= 0 {
		if ao.LenSqr() < 1e-8 {
			return mgl64.Vec3{}, true
		}
		s.set(a)
		return ao, false
	}

	perp := tripleCross(ab, ao)
	if perp.LenSqr() < 1e-8 {
		// Origin on the segment
		return mgl64.Vec3{}, true
	}
	return perp, false
}

func (s *Simplex) triangle() (mgl64.Vec3, bool) {
	c, b, a := s.Points[0], s.Points[1], s.Points[2]
	ab, ac, ao := b.Sub(a), c.Sub(a), a.Mul(-1)
	n := ab.Cross(ac)

	if n.LenSqr() < degenerateEps {
		s.set(b, a)
		return s.segment()
	}

	if ab.Cross(n).Dot(ao) > 0 {
		s.set(b, a)
		return tripleCross(ab, ao), false
	}
	if n.Cross(ac).Dot(ao) > 0 {
		s.set(c, a)
		return tripleCross(ac, ao), false
	}

	if n.Dot(ao) > 0 {
		return n, false
	}
	// Wind the triangle so its normal faces the origin
	s.set(a, c, b)
	return n.Mul(-1), false
}

func (s *Simplex) tetrahedron() (mgl64.Vec3, bool) {
	d, c, b, a := s.Points[0], s.Points[1], s.Points[2], s.Points[3]
	ab, ac, ad, ao := b.Sub(a), c.Sub(a), d.Sub(a), a.Mul(-1)

	faces := [3]struct {
		normal   mgl64.Vec3
		opposite mgl64.Vec3
		keep     [3]mgl64.Vec3
	}{
		{ab.Cross(ac), ad, [3]mgl64.Vec3{c, b, a}},
		{ac.Cross(ad), ab, [3]mgl64.Vec3{d, c, a}},
		{ad.Cross(ab), ac, [3]mgl64.Vec3{b, d, a}},
	}

	for i := range faces {
		if faces[i].normal.LenSqr() < degenerateEps {
			s.set(c, b, a)
			return s.triangle()
		}
		// Outward: away from the vertex not on the face
		if faces[i].normal.Dot(faces[i].opposite) > 0 {
			faces[i].normal = faces[i].normal.Mul(-1)
		}
	}

	for _, face := range faces {
		if face.normal.Dot(ao) > 0 {
			s.set(face.keep[:]...)
			return s.triangle()
		}
	}
	return mgl64.Vec3{}, true
}

// tripleCross returns (u × v) × u, the component of v perpendicular to u.
func tripleCross(u, v mgl64.Vec3) mgl64.Vec3 {
	return u.Cross(v).Cross(u)
}
