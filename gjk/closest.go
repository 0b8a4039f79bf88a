package gjk

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// vertex is a point of the Minkowski difference with the support points of
// each shape that produced it, so witness points can be rebuilt from the
// barycentric coordinates of the closest point.
type vertex struct {
	w mgl64.Vec3
	a mgl64.Vec3
	b mgl64.Vec3
}

// closestSimplex holds up to 4 vertices with their barycentric weights.
type closestSimplex struct {
	vertices [4]vertex
	weights  [4]float64
	count    int
}

func (s *closestSimplex) add(v vertex) {
	s.vertices[s.count] = v
	s.count++
}

func (s *closestSimplex) contains(w mgl64.Vec3) bool {
	for i := 0; i < s.count; i++ {
		if s.vertices[i].w.Sub(w).LenSqr() < 1e-20 {
			return true
		}
	}
	return false
}

// point returns the closest point to the origin, Σ λi wi.
func (s *closestSimplex) point() mgl64.Vec3 {
	var p mgl64.Vec3
	for i := 0; i < s.count; i++ {
		p = p.Add(s.vertices[i].w.Mul(s.weights[i]))
	}
	return p
}

// witnesses returns the closest points on each shape.
func (s *closestSimplex) witnesses() (mgl64.Vec3, mgl64.Vec3) {
	var pa, pb mgl64.Vec3
	for i := 0; i < s.count; i++ {
		pa = pa.Add(s.vertices[i].a.Mul(s.weights[i]))
		pb = pb.Add(s.vertices[i].b.Mul(s.weights[i]))
	}
	return pa, pb
}

// keep reduces the simplex to the listed vertices with their weights.
func (s *closestSimplex) keep(indices []int, weights []float64) {
	var vertices [4]vertex
	for i, idx := range indices {
		vertices[i] = s.vertices[idx]
	}
	s.vertices = vertices
	s.count = len(indices)
	for i := range s.weights {
		s.weights[i] = 0
	}
	copy(s.weights[:], weights)
}

// solve moves the simplex to the smallest sub-simplex supporting the point
// closest to the origin. It returns false when the origin lies inside a
// full tetrahedron.
func (s *closestSimplex) solve() bool {
	switch s.count {
	case 1:
		s.weights[0] = 1
	case 2:
		s.solveSegment(0, 1)
	case 3:
		s.solveTriangle(0, 1, 2)
	case 4:
		return s.solveTetrahedron()
	}
	return true
}

func (s *closestSimplex) solveSegment(i, j int) {
	a, b := s.vertices[i].w, s.vertices[j].w
	ab := b.Sub(a)
	denom := ab.LenSqr()
	if denom < 1e-20 {
		s.keep([]int{i}, []float64{1})
		return
	}

	t := -a.Dot(ab) / denom
	switch {
	case t <= 0:
		s.keep([]int{i}, []float64{1})
	case t >= 1:
		s.keep([]int{j}, []float64{1})
	default:
		s.keep([]int{i, j}, []float64{1 - t, t})
	}
}

// solveTriangle finds the closest point of triangle (i, j, k) to the origin
// using Voronoi region tests.
func (s *closestSimplex) solveTriangle(i, j, k int) {
	a, b, c := s.vertices[i].w, s.vertices[j].w, s.vertices[k].w
	ab := b.Sub(a)
	ac := c.Sub(a)
	ap := a.Mul(-1)

	d1 := ab.Dot(ap)
	d2 := ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		s.keep([]int{i}, []float64{1})
		return
	}

	bp := b.Mul(-1)
	d3 := ab.Dot(bp)
	d4 := ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		s.keep([]int{j}, []float64{1})
		return
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		v := d1 / (d1 - d3)
		s.keep([]int{i, j}, []float64{1 - v, v})
		return
	}

	cp := c.Mul(-1)
	d5 := ab.Dot(cp)
	d6 := ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		s.keep([]int{k}, []float64{1})
		return
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		w := d2 / (d2 - d6)
		s.keep([]int{i, k}, []float64{1 - w, w})
		return
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		s.keep([]int{j, k}, []float64{1 - w, w})
		return
	}

	sum := va + vb + vc
	if math.Abs(sum) < 1e-20 {
		// Collinear points
		s.solveSegment(i, j)
		return
	}
	v := vb / sum
	w := vc / sum
	s.keep([]int{i, j, k}, []float64{1 - v - w, v, w})
}

func (s *closestSimplex) solveTetrahedron() bool {
	w := [4]mgl64.Vec3{s.vertices[0].w, s.vertices[1].w, s.vertices[2].w, s.vertices[3].w}
	faces := [4][4]int{
		{0, 1, 2, 3},
		{0, 2, 3, 1},
		{0, 3, 1, 2},
		{1, 3, 2, 0},
	}

	volume := w[1].Sub(w[0]).Cross(w[2].Sub(w[0])).Dot(w[3].Sub(w[0]))
	flat := math.Abs(volume) < 1e-14

	best := math.Inf(1)
	var bestSimplex closestSimplex
	outside := false

	for _, f := range faces {
		a, b, c, d := w[f[0]], w[f[1]], w[f[2]], w[f[3]]
		n := b.Sub(a).Cross(c.Sub(a))
		if !flat && n.Dot(a.Mul(-1))*n.Dot(d.Sub(a)) >= 0 {
			// Origin on the inner side of this face
			continue
		}
		outside = true

		candidate := *s
		candidate.solveTriangle(f[0], f[1], f[2])
		if dist := candidate.point().LenSqr(); dist < best {
			best = dist
			bestSimplex = candidate
		}
	}

	if !outside {
		return false
	}
	*s = bestSimplex
	return !(flat && best < 1e-20)
}
