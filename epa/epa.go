// Package epa implements the Expanding Polytope Algorithm for computing penetration depth.
//
// EPA is run after GJK detects an overlap to determine the penetration depth
// and the contact normal. It expands a polytope (starting from GJK's final
// simplex) toward the origin in the Minkowski difference space; the face
// closest to the origin gives the minimum translation vector. GenerateManifold
// then turns that normal into 1-4 contact points by clipping the touching
// features of both shapes.
//
// References:
//   - Van den Bergen: "Proximity Queries and Penetration Depth Computation on 3D Game Objects" (2001)
package epa

import (
	"errors"
	"fmt"
	"math"

	"github.com/akmonengine/impulse/gjk"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// EPAMaxIterations bounds polytope expansion.
	// Typical convergence: 5-15 iterations for simple shapes.
	EPAMaxIterations = 32

	// EPAConvergenceTolerance: once a new support point improves the closest
	// face distance by less than this, the face is the answer.
	EPAConvergenceTolerance = 0.0001

	// EPAMinFaceDistance is the minimum face distance before we skip it.
	// Faces very close to or behind the origin are likely degenerate.
	EPAMinFaceDistance = 0.0001

	// NormalSnapThreshold is used to clamp nearly-zero normal components to exactly zero.
	NormalSnapThreshold = 1e-8

	// DegeneratePenetrationEstimate is the fallback depth when the simplex
	// cannot be completed into a tetrahedron.
	DegeneratePenetrationEstimate = 0.01

	polytopeInitialCapacity = 4
)

// ErrNoConvergence is returned when the polytope stops expanding toward the
// origin within EPAMaxIterations.
var ErrNoConvergence = errors.New("epa: no convergence")

// Result is the minimum translation: moving B by Normal*Depth separates the
// shapes. Normal points from A toward B.
type Result struct {
	Normal mgl64.Vec3
	Depth  float64
}

// EPA computes penetration depth and normal for overlapping convex shapes.
//
// Algorithm overview:
//  1. Complete the GJK simplex into a tetrahedron containing the origin
//  2. Find the polytope face closest to the origin
//  3. Get the support point along that face normal
//  4. If it does not improve the distance, done
//  5. Otherwise expand the polytope with the support point and repeat
func EPA(a, b gjk.Convex, simplex *gjk.Simplex) (Result, error) {
	if simplex.Count < 4 && !completeSimplex(a, b, simplex) {
		return degenerateResult(a, b, simplex), nil
	}

	poly := polytopePool.Get().(*polytope)
	defer polytopePool.Put(poly)
	poly.reset()

	if err := poly.seed(simplex); err != nil {
		return Result{}, err
	}

	var best Result
	for i := 0; i < EPAMaxIterations; i++ {
		closest := poly.closest()
		if closest < 0 || math.IsInf(poly.faces[closest].distance, 1) {
			break
		}
		f := poly.faces[closest]

		if f.distance < EPAMinFaceDistance && len(poly.faces) > 1 {
			// Touching face, try the others first
			poly.removeFace(closest)
			continue
		}

		best = Result{Normal: f.normal, Depth: f.distance}

		support := gjk.MinkowskiSupport(a, b, f.normal)
		if support.Dot(f.normal)-f.distance < EPAConvergenceTolerance {
			return best, nil
		}

		poly.expand(support, closest)
	}

	if best.Normal.LenSqr() > 0 {
		// Best estimate so far is still usable for a contact
		return best, nil
	}
	return Result{}, fmt.Errorf("%w after %d iterations", ErrNoConvergence, EPAMaxIterations)
}

// completeSimplex grows a 1-3 point simplex into a tetrahedron by sampling
// the Minkowski difference along directions orthogonal to what it already
// spans. Returns false when the difference is flat along every direction.
func completeSimplex(a, b gjk.Convex, simplex *gjk.Simplex) bool {
	axes := [6]mgl64.Vec3{{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1}}

	if simplex.Count == 0 {
		simplex.Points[0] = gjk.MinkowskiSupport(a, b, axes[0])
		simplex.Count = 1
	}

	if simplex.Count == 1 {
		for _, axis := range axes {
			p := gjk.MinkowskiSupport(a, b, axis)
			if p.Sub(simplex.Points[0]).LenSqr() > 1e-12 {
				simplex.Points[1] = p
				simplex.Count = 2
				break
			}
		}
		if simplex.Count < 2 {
			return false
		}
	}

	if simplex.Count == 2 {
		edge := simplex.Points[1].Sub(simplex.Points[0])
		perp := anyPerpendicular(edge)
		rotation := mgl64.QuatRotate(math.Pi/3, edge.Normalize())
		for i := 0; i < 6; i++ {
			p := gjk.MinkowskiSupport(a, b, perp)
			if p.Sub(simplex.Points[0]).Cross(edge).LenSqr() > 1e-12 {
				simplex.Points[2] = p
				simplex.Count = 3
				break
			}
			perp = rotation.Rotate(perp)
		}
		if simplex.Count < 3 {
			return false
		}
	}

	if simplex.Count == 3 {
		normal := simplex.Points[1].Sub(simplex.Points[0]).Cross(simplex.Points[2].Sub(simplex.Points[0]))
		if normal.LenSqr() < 1e-20 {
			return false
		}
		for _, dir := range [2]mgl64.Vec3{normal, normal.Mul(-1)} {
			p := gjk.MinkowskiSupport(a, b, dir)
			if math.Abs(p.Sub(simplex.Points[0]).Dot(normal)) > 1e-10 {
				simplex.Points[3] = p
				simplex.Count = 4
				return true
			}
		}
		return false
	}

	return simplex.Count == 4
}

// degenerateResult estimates a contact when the shapes only touch (the
// Minkowski difference is flat around the origin).
func degenerateResult(a, b gjk.Convex, simplex *gjk.Simplex) Result {
	if simplex.Count >= 2 {
		p0, p1 := simplex.Points[0], simplex.Points[1]
		closest := p0
		if p1.LenSqr() < p0.LenSqr() {
			closest = p1
		}
		if l := closest.Len(); l > NormalSnapThreshold {
			return Result{Normal: snapNormalToAxis(closest.Mul(1 / l)), Depth: l}
		}
	}

	normal := b.Center().Sub(a.Center())
	normalLen := normal.Len()
	if normalLen < NormalSnapThreshold {
		normal = mgl64.Vec3{0, 1, 0}
	} else {
		normal = normal.Mul(1.0 / normalLen)
	}

	return Result{Normal: normal, Depth: DegeneratePenetrationEstimate}
}

func anyPerpendicular(v mgl64.Vec3) mgl64.Vec3 {
	axis := mgl64.Vec3{1, 0, 0}
	if math.Abs(v.X()) > 0.9*v.Len() {
		axis = mgl64.Vec3{0, 1, 0}
	}
	p := v.Cross(axis)
	if p.LenSqr() < 1e-20 {
		return mgl64.Vec3{0, 0, 1}
	}
	return p.Normalize()
}

// snapNormalToAxis clamps nearly-zero components of a normal vector to exactly zero
// and renormalizes, so axis-aligned contacts get exact tangents.
func snapNormalToAxis(normal mgl64.Vec3) mgl64.Vec3 {
	const threshold = NormalSnapThreshold

	x, y, z := normal[0], normal[1], normal[2]
	if math.Abs(x) < threshold {
		x = 0
	}
	if math.Abs(y) < threshold {
		y = 0
	}
	if math.Abs(z) < threshold {
		z = 0
	}

	clamped := mgl64.Vec3{x, y, z}
	length := clamped.Len()
	if length <= 1e-8 {
		return mgl64.Vec3{0, 1, 0}
	}
	return clamped.Mul(1.0 / length)
}
