package collide

import (
	"math"

	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

const epsilon = 1e-9

func sphereSphere(centerA mgl64.Vec3, radiusA float64, centerB mgl64.Vec3, radiusB float64) (Result, bool) {
	delta := centerB.Sub(centerA)
	distSq := delta.LenSqr()
	radius := radiusA + radiusB
	if distSq > radius*radius {
		return Result{}, false
	}

	dist := math.Sqrt(distSq)
	normal := mgl64.Vec3{0, 1, 0}
	if dist > epsilon {
		normal = delta.Mul(1 / dist)
	}
	depth := radius - dist

	return Result{
		Normal: normal,
		Points: []constraint.ContactPoint{{
			Position: centerA.Add(normal.Mul(radiusA - depth/2)),
			Normal:   normal,
			Depth:    depth,
		}},
	}, true
}

// sphereBox tests a sphere (A) against an axis-aligned box (B).
func sphereBox(center mgl64.Vec3, radius float64, box actor.AABB) (Result, bool) {
	closest := mgl64.Vec3{
		math.Max(box.Min[0], math.Min(center[0], box.Max[0])),
		math.Max(box.Min[1], math.Min(center[1], box.Max[1])),
		math.Max(box.Min[2], math.Min(center[2], box.Max[2])),
	}

	delta := center.Sub(closest)
	distSq := delta.LenSqr()
	if distSq > radius*radius {
		return Result{}, false
	}

	if distSq > epsilon*epsilon {
		dist := math.Sqrt(distSq)
		normal := delta.Mul(-1 / dist)
		depth := radius - dist
		return Result{
			Normal: normal,
			Points: []constraint.ContactPoint{{
				Position: closest.Add(normal.Mul(depth / 2)),
				Normal:   normal,
				Depth:    depth,
			}},
		}, true
	}

	// Center inside the box: push out through the nearest face
	axis, sign := 0, 1.0
	faceDist := math.Inf(1)
	for i := 0; i < 3; i++ {
		if d := box.Max[i] - center[i]; d < faceDist {
			faceDist, axis, sign = d, i, 1
		}
		if d := center[i] - box.Min[i]; d < faceDist {
			faceDist, axis, sign = d, i, -1
		}
	}

	var normal mgl64.Vec3
	normal[axis] = -sign
	return Result{
		Normal: normal,
		Points: []constraint.ContactPoint{{
			Position: center,
			Normal:   normal,
			Depth:    radius + faceDist,
			ID:       uint32(axis*2) + uint32((1-sign)/2) + 1,
		}},
	}, true
}

// boxBox tests two axis-aligned boxes. The normal is the axis of least
// overlap and the points are the corners of the overlap rectangle.
func boxBox(a, b actor.AABB) (Result, bool) {
	var overlap [3]float64
	for i := 0; i < 3; i++ {
		overlap[i] = math.Min(a.Max[i], b.Max[i]) - math.Max(a.Min[i], b.Min[i])
		if overlap[i] < 0 {
			return Result{}, false
		}
	}

	axis := 0
	for i := 1; i < 3; i++ {
		if overlap[i] < overlap[axis] {
			axis = i
		}
	}

	sign := 1.0
	if b.Center()[axis] < a.Center()[axis] {
		sign = -1
	}
	var normal mgl64.Vec3
	normal[axis] = sign
	depth := overlap[axis]

	// Contact plane halfway through the overlap along the axis
	var plane float64
	if sign > 0 {
		plane = (a.Max[axis] + b.Min[axis]) / 2
	} else {
		plane = (a.Min[axis] + b.Max[axis]) / 2
	}

	u, v := (axis+1)%3, (axis+2)%3
	uMin, uMax := math.Max(a.Min[u], b.Min[u]), math.Min(a.Max[u], b.Max[u])
	vMin, vMax := math.Max(a.Min[v], b.Min[v]), math.Min(a.Max[v], b.Max[v])

	faceID := uint32(axis*2) + uint32((1-sign)/2)
	corners := [4][2]float64{{uMin, vMin}, {uMax, vMin}, {uMax, vMax}, {uMin, vMax}}
	points := make([]constraint.ContactPoint, 0, 4)
	for i, c := range corners {
		var p mgl64.Vec3
		p[axis] = plane
		p[u] = c[0]
		p[v] = c[1]
		points = append(points, constraint.ContactPoint{
			Position: p,
			Normal:   normal,
			Depth:    depth,
			ID:       faceID<<4 | uint32(i),
		})
	}

	return Result{Normal: normal, Points: points}, true
}

func capsuleSegment(p actor.Proxy, c actor.Capsule) (mgl64.Vec3, mgl64.Vec3) {
	axis := p.Rotation.Rotate(mgl64.Vec3{0, c.HalfHeight, 0})
	return p.Position.Sub(axis), p.Position.Add(axis)
}

// sphereCapsule tests a sphere (A) against the capsule segment p0-p1 (B).
func sphereCapsule(center mgl64.Vec3, radius float64, p0, p1 mgl64.Vec3, capsuleRadius float64) (Result, bool) {
	t := closestOnSegment(center, p0, p1)
	return sphereSphere(center, radius, p0.Add(p1.Sub(p0).Mul(t)), capsuleRadius)
}

// capsuleCapsule tests two capsule segments. Parallel overlapping segments
// produce two points so a capsule can rest on its side.
func capsuleCapsule(a0, a1 mgl64.Vec3, radiusA float64, b0, b1 mgl64.Vec3, radiusB float64) (Result, bool) {
	dA := a1.Sub(a0)
	dB := b1.Sub(b0)

	if lenA, lenB := dA.Len(), dB.Len(); lenA > epsilon && lenB > epsilon {
		if dA.Cross(dB).Len() < 1e-3*lenA*lenB {
			if result, ok := parallelCapsules(a0, a1, radiusA, b0, b1, radiusB); ok {
				return result, true
			}
		}
	}

	s, t := closestSegmentSegment(a0, a1, b0, b1)
	pa := a0.Add(dA.Mul(s))
	pb := b0.Add(dB.Mul(t))
	result, ok := sphereSphere(pa, radiusA, pb, radiusB)
	if ok {
		result.Points[0].ID = 2
	}
	return result, ok
}

func parallelCapsules(a0, a1 mgl64.Vec3, radiusA float64, b0, b1 mgl64.Vec3, radiusB float64) (Result, bool) {
	dA := a1.Sub(a0)
	lenSq := dA.LenSqr()

	// Overlap of B's projection on A, in A's parameter
	t0 := b0.Sub(a0).Dot(dA) / lenSq
	t1 := b1.Sub(a0).Dot(dA) / lenSq
	lo := math.Max(0, math.Min(t0, t1))
	hi := math.Min(1, math.Max(t0, t1))
	if hi-lo < 1e-6 {
		return Result{}, false
	}

	var result Result
	for i, t := range [2]float64{lo, hi} {
		pa := a0.Add(dA.Mul(t))
		pb := b0.Add(b1.Sub(b0).Mul(closestOnSegment(pa, b0, b1)))
		r, ok := sphereSphere(pa, radiusA, pb, radiusB)
		if !ok {
			continue
		}
		r.Points[0].ID = uint32(i)
		result.Normal = r.Normal
		result.Points = append(result.Points, r.Points[0])
	}
	return result, len(result.Points) > 0
}

// closestOnSegment returns the parameter in [0, 1] of the point of segment
// p0-p1 closest to point.
func closestOnSegment(point, p0, p1 mgl64.Vec3) float64 {
	d := p1.Sub(p0)
	lenSq := d.LenSqr()
	if lenSq < epsilon {
		return 0
	}
	return math.Max(0, math.Min(1, point.Sub(p0).Dot(d)/lenSq))
}

// closestSegmentSegment returns the parameters of the closest points of
// segments p1-q1 and p2-q2.
func closestSegmentSegment(p1, q1, p2, q2 mgl64.Vec3) (float64, float64) {
	d1 := q1.Sub(p1)
	d2 := q2.Sub(p2)
	r := p1.Sub(p2)
	a := d1.Dot(d1)
	e := d2.Dot(d2)
	f := d2.Dot(r)

	if a <= epsilon && e <= epsilon {
		return 0, 0
	}
	if a <= epsilon {
		return 0, clamp01(f / e)
	}

	c := d1.Dot(r)
	if e <= epsilon {
		return clamp01(-c / a), 0
	}

	b := d1.Dot(d2)
	denom := a*e - b*b
	s := 0.0
	if denom > epsilon {
		s = clamp01((b*f - c*e) / denom)
	}

	t := (b*s + f) / e
	switch {
	case t < 0:
		return clamp01(-c / a), 0
	case t > 1:
		return clamp01((b - c) / a), 1
	}
	return s, t
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
