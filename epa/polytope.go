package epa

import (
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/akmonengine/impulse/gjk"
	"github.com/go-gl/mathgl/mgl64"
)

// face is a triangle of the polytope. Its vertices index polytope.vertices
// and are wound counter-clockwise seen from outside.
type face struct {
	v        [3]int
	normal   mgl64.Vec3
	distance float64
}

// sees reports whether point lies strictly in front of the face.
func (f face) sees(point mgl64.Vec3, vertices []mgl64.Vec3) bool {
	return f.normal.Dot(point.Sub(vertices[f.v[0]])) > 0
}

type edge struct {
	from, to int
}

// polytope is the hull EPA grows inside the Minkowski difference. interior
// is the centroid of the starting tetrahedron: the hull only grows, so it
// stays inside and orients every new face.
type polytope struct {
	vertices []mgl64.Vec3
	faces    []face
	horizon  []edge
	visible  []bool
	interior mgl64.Vec3
}

var polytopePool = sync.Pool{
	New: func() any {
		return &polytope{
			vertices: make([]mgl64.Vec3, 0, polytopeInitialCapacity),
			faces:    make([]face, 0, polytopeInitialCapacity),
			horizon:  make([]edge, 0, polytopeInitialCapacity),
			visible:  make([]bool, 0, polytopeInitialCapacity),
		}
	},
}

func (p *polytope) reset() {
	p.vertices = p.vertices[:0]
	p.faces = p.faces[:0]
	p.horizon = p.horizon[:0]
	p.visible = p.visible[:0]
	p.interior = mgl64.Vec3{}
}

// seed turns a tetrahedron simplex into the four starting faces.
func (p *polytope) seed(simplex *gjk.Simplex) error {
	if simplex.Count != 4 {
		return fmt.Errorf("epa: simplex has %d points, need 4", simplex.Count)
	}

	p.vertices = append(p.vertices, simplex.Points[:]...)
	for _, v := range p.vertices {
		p.interior = p.interior.Add(v)
	}
	p.interior = p.interior.Mul(0.25)

	for _, tri := range [4][3]int{{0, 1, 2}, {0, 3, 1}, {0, 2, 3}, {1, 3, 2}} {
		p.addFace(tri[0], tri[1], tri[2])
	}
	return nil
}

// addFace appends triangle abc, swapping its winding when the normal would
// point toward the interior. A zero-area triangle stays part of the hull
// but can never be the closest face.
func (p *polytope) addFace(a, b, c int) {
	pa := p.vertices[a]
	normal := p.vertices[b].Sub(pa).Cross(p.vertices[c].Sub(pa))
	length := normal.Len()
	if length < 1e-8 {
		p.faces = append(p.faces, face{v: [3]int{a, b, c}, distance: math.Inf(1)})
		return
	}

	normal = normal.Mul(1 / length)
	if normal.Dot(pa.Sub(p.interior)) < 0 {
		normal = normal.Mul(-1)
		b, c = c, b
	}

	p.faces = append(p.faces, face{
		v:        [3]int{a, b, c},
		normal:   snapNormalToAxis(normal),
		distance: math.Max(normal.Dot(pa), 0),
	})
}

// closest returns the index of the face nearest to the origin, or -1.
func (p *polytope) closest() int {
	best := -1
	for i := range p.faces {
		if best < 0 || p.faces[i].distance < p.faces[best].distance {
			best = i
		}
	}
	return best
}

func (p *polytope) removeFace(i int) {
	last := len(p.faces) - 1
	p.faces[i] = p.faces[last]
	p.faces = p.faces[:last]
}

// expand adds point to the hull. Every face that sees it is removed, then
// the horizon left behind is stitched to the point. Two removed faces share
// an edge in opposite directions, so interior edges cancel out and only the
// horizon remains, already wound for the new faces.
func (p *polytope) expand(point mgl64.Vec3, closest int) {
	p.visible = p.visible[:0]
	for i, f := range p.faces {
		p.visible = append(p.visible, i == closest || f.sees(point, p.vertices))
	}
	if !slices.Contains(p.visible, false) {
		// Rounding: never empty the hull
		clear(p.visible)
		p.visible[closest] = true
	}

	p.horizon = p.horizon[:0]
	kept := p.faces[:0]
	for i, f := range p.faces {
		if !p.visible[i] {
			kept = append(kept, f)
			continue
		}
		for j := 0; j < 3; j++ {
			p.addHorizon(edge{from: f.v[j], to: f.v[(j+1)%3]})
		}
	}
	p.faces = kept

	index := len(p.vertices)
	p.vertices = append(p.vertices, point)
	for _, e := range p.horizon {
		p.addFace(e.from, e.to, index)
	}
}

func (p *polytope) addHorizon(e edge) {
	if i := slices.Index(p.horizon, edge{from: e.to, to: e.from}); i >= 0 {
		p.horizon = slices.Delete(p.horizon, i, i+1)
		return
	}
	p.horizon = append(p.horizon, e)
}
