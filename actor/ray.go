package actor

import (
	"math"

	"github.com/akmonengine/impulse/gjk"
	"github.com/go-gl/mathgl/mgl64"
)

// RayHit is the nearest intersection of a ray with a shape. Child is the
// compound child index that was hit, or 0.
type RayHit struct {
	Distance float64
	Point    mgl64.Vec3
	Normal   mgl64.Vec3
	Child    int
}

// RayCast intersects the ray origin + t*direction, t in [0, maxDistance],
// with shape placed at position/rotation. A ray starting inside a solid
// shape hits at distance 0 with a normal opposite to direction.
func RayCast(shape Shape, position mgl64.Vec3, rotation mgl64.Quat, origin, direction mgl64.Vec3, maxDistance float64) (RayHit, bool) {
	l := direction.Len()
	if l < 1e-12 || maxDistance < 0 {
		return RayHit{}, false
	}
	direction = direction.Mul(1 / l)
	rotation = normalizeQuat(rotation)

	switch s := shape.(type) {
	case Box:
		return rayBox(s.HalfExtents, position, mgl64.QuatIdent(), origin, direction, maxDistance)
	case OrientedBox:
		return rayBox(s.HalfExtents, position, rotation, origin, direction, maxDistance)
	case Sphere:
		return raySphere(position, s.Radius, origin, direction, maxDistance)
	case Capsule:
		return rayCapsule(s, position, rotation, origin, direction, maxDistance)
	case ConvexHull:
		proxy := NewProxy(s, position, rotation, 0)
		t, normal, ok := gjk.RayCast(proxy, origin, direction, maxDistance)
		if !ok {
			return RayHit{}, false
		}
		return RayHit{Distance: t, Point: origin.Add(direction.Mul(t)), Normal: normal}, true
	case Compound:
		best := RayHit{Distance: math.Inf(1)}
		found := false
		for i, child := range s.Children {
			childPos := position.Add(rotation.Rotate(child.Offset))
			childRot := rotation.Mul(normalizeQuat(child.Rotation))
			hit, ok := RayCast(child.Shape, childPos, childRot, origin, direction, maxDistance)
			if ok && hit.Distance < best.Distance {
				best = hit
				best.Child = i
				found = true
			}
		}
		return best, found
	case Heightmap:
		return rayHeightmap(s, position, rotation, origin, direction, maxDistance)
	}
	return RayHit{}, false
}

// rayBox is the slab test, done in box space.
func rayBox(h, position mgl64.Vec3, rotation mgl64.Quat, origin, direction mgl64.Vec3, maxDistance float64) (RayHit, bool) {
	inverse := rotation.Conjugate()
	o := inverse.Rotate(origin.Sub(position))
	d := inverse.Rotate(direction)

	tMin, tMax := 0.0, maxDistance
	axis, sign := -1, 0.0
	for i := 0; i < 3; i++ {
		if math.Abs(d[i]) < 1e-12 {
			if o[i] < -h[i] || o[i] > h[i] {
				return RayHit{}, false
			}
			continue
		}

		inv := 1 / d[i]
		t1 := (-h[i] - o[i]) * inv
		t2 := (h[i] - o[i]) * inv
		s := -1.0
		if t1 > t2 {
			t1, t2 = t2, t1
			s = 1
		}
		if t1 > tMin {
			tMin, axis, sign = t1, i, s
		}
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return RayHit{}, false
		}
	}

	if axis < 0 {
		// Origin inside the box
		return RayHit{Point: origin, Normal: direction.Mul(-1)}, true
	}

	var normal mgl64.Vec3
	normal[axis] = sign
	return RayHit{
		Distance: tMin,
		Point:    origin.Add(direction.Mul(tMin)),
		Normal:   rotation.Rotate(normal),
	}, true
}

func raySphere(center mgl64.Vec3, radius float64, origin, direction mgl64.Vec3, maxDistance float64) (RayHit, bool) {
	m := origin.Sub(center)
	b := m.Dot(direction)
	c := m.LenSqr() - radius*radius

	if c <= 0 {
		return RayHit{Point: origin, Normal: direction.Mul(-1)}, true
	}
	if b > 0 {
		// Outside and pointing away
		return RayHit{}, false
	}

	disc := b*b - c
	if disc < 0 {
		return RayHit{}, false
	}

	t := -b - math.Sqrt(disc)
	if t > maxDistance {
		return RayHit{}, false
	}
	point := origin.Add(direction.Mul(t))
	return RayHit{Distance: t, Point: point, Normal: point.Sub(center).Mul(1 / radius)}, true
}

// rayCapsule tests the infinite cylinder around the segment, clipped to the
// segment, then both cap spheres.
func rayCapsule(c Capsule, position mgl64.Vec3, rotation mgl64.Quat, origin, direction mgl64.Vec3, maxDistance float64) (RayHit, bool) {
	inverse := rotation.Conjugate()
	o := inverse.Rotate(origin.Sub(position))
	d := inverse.Rotate(direction)

	// Inside test against the segment
	closestY := math.Max(-c.HalfHeight, math.Min(c.HalfHeight, o.Y()))
	if o.Sub(mgl64.Vec3{0, closestY, 0}).LenSqr() <= c.Radius*c.Radius {
		return RayHit{Point: origin, Normal: direction.Mul(-1)}, true
	}

	best := RayHit{Distance: math.Inf(1)}
	found := false

	a := d.X()*d.X() + d.Z()*d.Z()
	if a > 1e-12 {
		b := o.X()*d.X() + o.Z()*d.Z()
		cc := o.X()*o.X() + o.Z()*o.Z() - c.Radius*c.Radius
		if disc := b*b - a*cc; disc >= 0 {
			t := (-b - math.Sqrt(disc)) / a
			y := o.Y() + t*d.Y()
			if t >= 0 && t <= maxDistance && math.Abs(y) <= c.HalfHeight {
				p := o.Add(d.Mul(t))
				best = RayHit{Distance: t, Normal: mgl64.Vec3{p.X(), 0, p.Z()}.Mul(1 / c.Radius)}
				found = true
			}
		}
	}

	for _, capY := range [2]float64{-c.HalfHeight, c.HalfHeight} {
		hit, ok := raySphere(mgl64.Vec3{0, capY, 0}, c.Radius, o, d, maxDistance)
		if ok && hit.Distance < best.Distance {
			best = hit
			found = true
		}
	}

	if !found {
		return RayHit{}, false
	}
	best.Point = origin.Add(direction.Mul(best.Distance))
	best.Normal = rotation.Rotate(best.Normal)
	return best, true
}

// rayHeightmap marches the ray across the grid cells it crosses (2D DDA in
// the XZ plane) and tests both triangles of each cell. The first cell with a
// hit holds the nearest one.
func rayHeightmap(h Heightmap, position mgl64.Vec3, rotation mgl64.Quat, origin, direction mgl64.Vec3, maxDistance float64) (RayHit, bool) {
	inverse := rotation.Conjugate()
	o := inverse.Rotate(origin.Sub(position))
	d := inverse.Rotate(direction)

	// Clip the ray to the heightmap bounds
	bounds := LocalAABB(h)
	tEnter, tExit := 0.0, maxDistance
	for i := 0; i < 3; i++ {
		if math.Abs(d[i]) < 1e-12 {
			if o[i] < bounds.Min[i] || o[i] > bounds.Max[i] {
				return RayHit{}, false
			}
			continue
		}
		t1 := (bounds.Min[i] - o[i]) / d[i]
		t2 := (bounds.Max[i] - o[i]) / d[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tEnter = math.Max(tEnter, t1)
		tExit = math.Min(tExit, t2)
		if tEnter > tExit {
			return RayHit{}, false
		}
	}

	start := o.Add(d.Mul(tEnter))
	col := clampInt(int(math.Floor((start.X()+h.halfWidth())/h.CellSize[0])), 0, h.Cols-2)
	row := clampInt(int(math.Floor((start.Z()+h.halfDepth())/h.CellSize[1])), 0, h.Rows-2)

	stepCol, tDeltaX, tNextX := ddaAxis(start.X()+h.halfWidth(), d.X(), h.CellSize[0], col)
	stepRow, tDeltaZ, tNextZ := ddaAxis(start.Z()+h.halfDepth(), d.Z(), h.CellSize[1], row)
	tNextX += tEnter
	tNextZ += tEnter

	for row >= 0 && row < h.Rows-1 && col >= 0 && col < h.Cols-1 {
		best := math.Inf(1)
		var bestNormal mgl64.Vec3
		for _, tri := range h.CellTriangles(row, col) {
			if t, n, ok := rayTriangle(o, d, tri); ok && t >= 0 && t <= maxDistance && t < best {
				best, bestNormal = t, n
			}
		}
		if !math.IsInf(best, 1) {
			return RayHit{
				Distance: best,
				Point:    origin.Add(direction.Mul(best)),
				Normal:   rotation.Rotate(bestNormal),
			}, true
		}

		if math.Min(tNextX, tNextZ) > tExit {
			break
		}
		if tNextX < tNextZ {
			col += stepCol
			tNextX += tDeltaX
		} else {
			row += stepRow
			tNextZ += tDeltaZ
		}
		if stepCol == 0 && stepRow == 0 {
			break
		}
	}

	return RayHit{}, false
}

// ddaAxis returns the cell step, the ray distance between cell borders and
// the distance to the first border along one grid axis.
func ddaAxis(offset, d, cellSize float64, cell int) (int, float64, float64) {
	switch {
	case d > 1e-12:
		return 1, cellSize / d, (float64(cell+1)*cellSize - offset) / d
	case d < -1e-12:
		return -1, -cellSize / d, (float64(cell)*cellSize - offset) / d
	}
	return 0, math.Inf(1), math.Inf(1)
}

// rayTriangle is the Möller-Trumbore intersection. The normal faces the ray.
func rayTriangle(origin, direction mgl64.Vec3, tri [3]mgl64.Vec3) (float64, mgl64.Vec3, bool) {
	e1 := tri[1].Sub(tri[0])
	e2 := tri[2].Sub(tri[0])
	p := direction.Cross(e2)
	det := e1.Dot(p)
	if math.Abs(det) < 1e-12 {
		return 0, mgl64.Vec3{}, false
	}

	inv := 1 / det
	s := origin.Sub(tri[0])
	u := s.Dot(p) * inv
	if u < -1e-9 || u > 1+1e-9 {
		return 0, mgl64.Vec3{}, false
	}
	q := s.Cross(e1)
	v := direction.Dot(q) * inv
	if v < -1e-9 || u+v > 1+1e-9 {
		return 0, mgl64.Vec3{}, false
	}

	normal := e1.Cross(e2).Normalize()
	if normal.Dot(direction) > 0 {
		normal = normal.Mul(-1)
	}
	return e2.Dot(q) * inv, normal, true
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
