package collide

import (
	"math"

	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/epa"
	"github.com/go-gl/mathgl/mgl64"
)

// Prism is one heightmap triangle extruded downward into a convex proxy.
type Prism struct {
	Proxy    actor.Proxy
	Triangle [3]mgl64.Vec3 // heightmap local space
	ID       uint32
}

// HeightmapPrisms returns the prisms of every heightmap triangle under the
// world-space region. h must hold an actor.Heightmap.
func HeightmapPrisms(h actor.Proxy, region actor.AABB) []Prism {
	hm, ok := h.Shape.(actor.Heightmap)
	if !ok {
		return nil
	}

	local := actor.EmptyAABB()
	for i := 0; i < 8; i++ {
		corner := region.Min
		if i&1 != 0 {
			corner[0] = region.Max[0]
		}
		if i&2 != 0 {
			corner[1] = region.Max[1]
		}
		if i&4 != 0 {
			corner[2] = region.Max[2]
		}
		local = local.Extend(h.ToLocal(corner))
	}

	r0, r1, c0, c1, inside := hm.CellRange(local)
	if !inside {
		return nil
	}
	depth := math.Max(local.Size().Y(), 1)

	prisms := make([]Prism, 0, (r1-r0+1)*(c1-c0+1)*2)
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			for t, triangle := range hm.CellTriangles(row, col) {
				prisms = append(prisms, Prism{
					Proxy:    actor.NewProxy(actor.CellPrism(triangle, depth), h.Position, h.Rotation, h.Child),
					Triangle: triangle,
					ID:       uint32((row*(hm.Cols-1)+col)*2 + t),
				})
			}
		}
	}
	return prisms
}

// collideHeightmap tests a convex proxy against the heightmap proxy h. The
// normal points from the heightmap toward other.
func collideHeightmap(h, other actor.Proxy) (Result, bool) {
	if !actor.IsConvex(other.Shape) {
		return Result{}, false
	}

	var result Result
	deepest := math.Inf(-1)
	for _, prism := range HeightmapPrisms(h, other.AABB()) {
		r, ok := collideTriangle(prism.Proxy, prism.Triangle, h, other)
		if !ok {
			continue
		}
		for _, p := range r.Points {
			p.ID ^= prism.ID << 4
			if p.Depth > deepest {
				deepest = p.Depth
				result.Normal = p.Normal
			}
			result.Points = append(result.Points, p)
		}
	}

	return result, len(result.Points) > 0
}

// collideTriangle runs the general path against one prism. Normals pointing
// away from the triangle face (internal prism edges) are replaced by the
// face normal so bodies slide across cell boundaries.
func collideTriangle(prism actor.Proxy, triangle [3]mgl64.Vec3, h, other actor.Proxy) (Result, bool) {
	result, ok := general(prism, other)
	if !ok {
		return Result{}, false
	}

	faceNormal := triangle[1].Sub(triangle[0]).Cross(triangle[2].Sub(triangle[0]))
	if faceNormal.LenSqr() < 1e-20 {
		return result, true
	}
	faceNormal = h.Rotation.Rotate(faceNormal.Normalize())

	// Over the terrain the surface pushes along its face normal, so the
	// inner walls of a prism never produce sideways contacts. Past the
	// outer edge the prism is a plain convex and keeps its own normal.
	deepest := other.SupportWorld(faceNormal.Mul(-1))
	local := h.ToLocal(deepest)
	if _, inside := h.Shape.(actor.Heightmap).HeightAt(local.X(), local.Z()); !inside {
		return result, true
	}

	depth := h.ToWorld(triangle[0]).Sub(deepest).Dot(faceNormal)
	if depth <= 0 {
		return Result{}, false
	}

	points := epa.GenerateManifold(prism, other, faceNormal, depth)
	return Result{Normal: faceNormal, Points: points}, true
}
