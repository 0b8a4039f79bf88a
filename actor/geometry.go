package actor

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// LocalAABB returns the bounds of shape in its own local space.
func LocalAABB(shape Shape) AABB {
	switch s := shape.(type) {
	case Box:
		return AABB{Min: s.HalfExtents.Mul(-1), Max: s.HalfExtents}
	case OrientedBox:
		return AABB{Min: s.HalfExtents.Mul(-1), Max: s.HalfExtents}
	case Sphere:
		r := mgl64.Vec3{s.Radius, s.Radius, s.Radius}
		return AABB{Min: r.Mul(-1), Max: r}
	case Capsule:
		h := mgl64.Vec3{s.Radius, s.Radius + s.HalfHeight, s.Radius}
		return AABB{Min: h.Mul(-1), Max: h}
	case ConvexHull:
		box := EmptyAABB()
		for _, p := range s.Points {
			box = box.Extend(p)
		}
		return box
	case Compound:
		box := EmptyAABB()
		for _, c := range s.Children {
			box = box.Union(WorldAABB(c.Shape, c.Offset, normalizeQuat(c.Rotation)))
		}
		return box
	case Heightmap:
		minH, maxH := math.Inf(1), math.Inf(-1)
		for _, h := range s.Heights {
			minH = math.Min(minH, h)
			maxH = math.Max(maxH, h)
		}
		hw, hd := s.halfWidth(), s.halfDepth()
		return AABB{Min: mgl64.Vec3{-hw, minH, -hd}, Max: mgl64.Vec3{hw, maxH, hd}}
	}
	return AABB{}
}

// WorldAABB computes the bounds of shape placed at position/rotation. Box
// ignores rotation.
func WorldAABB(shape Shape, position mgl64.Vec3, rotation mgl64.Quat) AABB {
	switch s := shape.(type) {
	case Box:
		return AABB{Min: position.Sub(s.HalfExtents), Max: position.Add(s.HalfExtents)}
	case Sphere:
		// Sphere AABB is not affected by rotation, only by position
		r := mgl64.Vec3{s.Radius, s.Radius, s.Radius}
		return AABB{Min: position.Sub(r), Max: position.Add(r)}
	case Capsule:
		axis := rotation.Rotate(mgl64.Vec3{0, s.HalfHeight, 0})
		r := mgl64.Vec3{s.Radius, s.Radius, s.Radius}
		box := AABB{Min: position.Add(axis).Sub(r), Max: position.Add(axis).Add(r)}
		return box.Union(AABB{Min: position.Sub(axis).Sub(r), Max: position.Sub(axis).Add(r)})
	case ConvexHull:
		box := EmptyAABB()
		for _, p := range s.Points {
			box = box.Extend(position.Add(rotation.Rotate(p)))
		}
		return box
	case Compound:
		box := EmptyAABB()
		for _, c := range s.Children {
			childPos := position.Add(rotation.Rotate(c.Offset))
			childRot := rotation.Mul(normalizeQuat(c.Rotation))
			box = box.Union(WorldAABB(c.Shape, childPos, childRot))
		}
		return box
	}

	// OrientedBox and Heightmap: transform the 8 local corners
	local := LocalAABB(shape)
	box := EmptyAABB()
	for i := 0; i < 8; i++ {
		corner := mgl64.Vec3{local.Min[0], local.Min[1], local.Min[2]}
		if i&1 != 0 {
			corner[0] = local.Max[0]
		}
		if i&2 != 0 {
			corner[1] = local.Max[1]
		}
		if i&4 != 0 {
			corner[2] = local.Max[2]
		}
		box = box.Extend(position.Add(rotation.Rotate(corner)))
	}
	return box
}

// Support returns the point of a convex shape furthest along direction, in local space.
// Non-convex shapes return the origin.
func Support(shape Shape, direction mgl64.Vec3) mgl64.Vec3 {
	switch s := shape.(type) {
	case Box:
		return boxSupport(s.HalfExtents, direction)
	case OrientedBox:
		return boxSupport(s.HalfExtents, direction)
	case Sphere:
		l := direction.Len()
		if l < 1e-12 {
			return mgl64.Vec3{s.Radius, 0, 0}
		}
		return direction.Mul(s.Radius / l)
	case Capsule:
		tip := mgl64.Vec3{0, s.HalfHeight, 0}
		if direction.Y() < 0 {
			tip[1] = -s.HalfHeight
		}
		l := direction.Len()
		if l < 1e-12 {
			return tip.Add(mgl64.Vec3{s.Radius, 0, 0})
		}
		return tip.Add(direction.Mul(s.Radius / l))
	case ConvexHull:
		best := 0
		bestDot := math.Inf(-1)
		for i, p := range s.Points {
			if d := p.Dot(direction); d > bestDot {
				bestDot = d
				best = i
			}
		}
		if len(s.Points) == 0 {
			return mgl64.Vec3{}
		}
		return s.Points[best]
	}
	return mgl64.Vec3{}
}

func boxSupport(h, direction mgl64.Vec3) mgl64.Vec3 {
	hx, hy, hz := h.X(), h.Y(), h.Z()

	if direction.X() < 0 {
		hx = -hx
	}
	if direction.Y() < 0 {
		hy = -hy
	}
	if direction.Z() < 0 {
		hz = -hz
	}

	return mgl64.Vec3{hx, hy, hz}
}

// ContactFeature returns the local-space feature (point, edge or face
// polygon) of a convex shape most aligned with direction, and an identifier
// of that feature stable while the same feature stays in contact.
func ContactFeature(shape Shape, direction mgl64.Vec3) ([]mgl64.Vec3, int) {
	switch s := shape.(type) {
	case Box:
		return boxFeature(s.HalfExtents, direction)
	case OrientedBox:
		return boxFeature(s.HalfExtents, direction)
	case Sphere:
		return []mgl64.Vec3{Support(s, direction)}, 0
	case Capsule:
		return capsuleFeature(s, direction)
	case ConvexHull:
		return hullFeature(s.Points, direction)
	}
	return nil, 0
}

func boxFeature(h mgl64.Vec3, direction mgl64.Vec3) ([]mgl64.Vec3, int) {
	hx, hy, hz := h.X(), h.Y(), h.Z()

	// Face vertices are CCW seen from outside
	faces := [6]struct {
		normal   mgl64.Vec3
		vertices [4]mgl64.Vec3
	}{
		{normal: mgl64.Vec3{1, 0, 0}, vertices: [4]mgl64.Vec3{{hx, -hy, -hz}, {hx, hy, -hz}, {hx, hy, hz}, {hx, -hy, hz}}},
		{normal: mgl64.Vec3{-1, 0, 0}, vertices: [4]mgl64.Vec3{{-hx, -hy, hz}, {-hx, hy, hz}, {-hx, hy, -hz}, {-hx, -hy, -hz}}},
		{normal: mgl64.Vec3{0, 1, 0}, vertices: [4]mgl64.Vec3{{-hx, hy, -hz}, {-hx, hy, hz}, {hx, hy, hz}, {hx, hy, -hz}}},
		{normal: mgl64.Vec3{0, -1, 0}, vertices: [4]mgl64.Vec3{{-hx, -hy, hz}, {-hx, -hy, -hz}, {hx, -hy, -hz}, {hx, -hy, hz}}},
		{normal: mgl64.Vec3{0, 0, 1}, vertices: [4]mgl64.Vec3{{-hx, -hy, hz}, {hx, -hy, hz}, {hx, hy, hz}, {-hx, hy, hz}}},
		{normal: mgl64.Vec3{0, 0, -1}, vertices: [4]mgl64.Vec3{{hx, -hy, -hz}, {-hx, -hy, -hz}, {-hx, hy, -hz}, {hx, hy, -hz}}},
	}

	best := 0
	bestDot := math.Inf(-1)
	for i, face := range faces {
		if dot := direction.Dot(face.normal); dot > bestDot {
			bestDot = dot
			best = i
		}
	}

	out := make([]mgl64.Vec3, 4)
	copy(out, faces[best].vertices[:])
	return out, best
}

func capsuleFeature(c Capsule, direction mgl64.Vec3) ([]mgl64.Vec3, int) {
	l := direction.Len()
	if l < 1e-12 {
		return []mgl64.Vec3{Support(c, direction)}, 0
	}
	d := direction.Mul(1 / l)

	// Side of the capsule: the whole segment touches
	if math.Abs(d.Y()) < 0.1 && c.HalfHeight > 0 {
		side := mgl64.Vec3{d.X(), 0, d.Z()}
		side = side.Normalize().Mul(c.Radius)
		return []mgl64.Vec3{
			mgl64.Vec3{0, c.HalfHeight, 0}.Add(side),
			mgl64.Vec3{0, -c.HalfHeight, 0}.Add(side),
		}, 1
	}

	if d.Y() >= 0 {
		return []mgl64.Vec3{Support(c, d)}, 0
	}
	return []mgl64.Vec3{Support(c, d)}, 2
}

func hullFeature(points []mgl64.Vec3, direction mgl64.Vec3) ([]mgl64.Vec3, int) {
	if len(points) == 0 {
		return nil, 0
	}
	maxDot := math.Inf(-1)
	for _, p := range points {
		maxDot = math.Max(maxDot, p.Dot(direction))
	}
	tolerance := 1e-4 * (1 + math.Abs(maxDot))

	indices := make([]int, 0, 4)
	for i, p := range points {
		if p.Dot(direction) >= maxDot-tolerance {
			indices = append(indices, i)
		}
	}

	id := indices[0]
	if len(indices) <= 2 {
		out := make([]mgl64.Vec3, len(indices))
		for i, idx := range indices {
			out[i] = points[idx]
		}
		return out, id
	}

	// Order the face polygon by angle around its centroid
	var centroid mgl64.Vec3
	for _, idx := range indices {
		centroid = centroid.Add(points[idx])
	}
	centroid = centroid.Mul(1 / float64(len(indices)))
	t1, t2 := TangentBasis(direction)
	sort.Slice(indices, func(i, j int) bool {
		a := points[indices[i]].Sub(centroid)
		b := points[indices[j]].Sub(centroid)
		return math.Atan2(a.Dot(t2), a.Dot(t1)) < math.Atan2(b.Dot(t2), b.Dot(t1))
	})

	out := make([]mgl64.Vec3, len(indices))
	for i, idx := range indices {
		out[i] = points[idx]
	}
	return out, id
}

// TangentBasis returns two unit vectors orthogonal to normal and to each other.
// A zero normal yields the X/Z axes.
func TangentBasis(normal mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	if normal.LenSqr() < 1e-20 {
		return mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 0, 1}
	}
	normal = normal.Normalize()

	var tangent1 mgl64.Vec3
	if math.Abs(normal.X()) > 0.9 {
		tangent1 = mgl64.Vec3{0, 1, 0}
	} else {
		tangent1 = mgl64.Vec3{1, 0, 0}
	}

	tangent1 = tangent1.Sub(normal.Mul(tangent1.Dot(normal))).Normalize()
	tangent2 := normal.Cross(tangent1).Normalize()

	return tangent1, tangent2
}

// AnyPerpendicular returns a unit vector orthogonal to v, used as fallback
// axis when an edge or normal collapses.
func AnyPerpendicular(v mgl64.Vec3) mgl64.Vec3 {
	t, _ := TangentBasis(v)
	return t
}
