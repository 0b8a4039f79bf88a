package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

func (h Heightmap) halfWidth() float64 {
	return float64(h.Cols-1) * h.CellSize[0] / 2
}

func (h Heightmap) halfDepth() float64 {
	return float64(h.Rows-1) * h.CellSize[1] / 2
}

// Vertex returns the local position of sample (row, col).
func (h Heightmap) Vertex(row, col int) mgl64.Vec3 {
	return mgl64.Vec3{
		float64(col)*h.CellSize[0] - h.halfWidth(),
		h.Heights[row*h.Cols+col],
		float64(row)*h.CellSize[1] - h.halfDepth(),
	}
}

// CellRange returns the inclusive cell rows/cols whose footprint overlaps the
// local-space box. ok is false when the box lies outside the grid.
func (h Heightmap) CellRange(local AABB) (r0, r1, c0, c1 int, ok bool) {
	c0 = int(math.Floor((local.Min.X() + h.halfWidth()) / h.CellSize[0]))
	c1 = int(math.Floor((local.Max.X() + h.halfWidth()) / h.CellSize[0]))
	r0 = int(math.Floor((local.Min.Z() + h.halfDepth()) / h.CellSize[1]))
	r1 = int(math.Floor((local.Max.Z() + h.halfDepth()) / h.CellSize[1]))

	c0 = max(c0, 0)
	r0 = max(r0, 0)
	c1 = min(c1, h.Cols-2)
	r1 = min(r1, h.Rows-2)

	return r0, r1, c0, c1, r0 <= r1 && c0 <= c1
}

// CellTriangles returns the two triangles of cell (row, col), wound so their
// normals point up.
func (h Heightmap) CellTriangles(row, col int) [2][3]mgl64.Vec3 {
	v00 := h.Vertex(row, col)
	v01 := h.Vertex(row, col+1)
	v10 := h.Vertex(row+1, col)
	v11 := h.Vertex(row+1, col+1)

	return [2][3]mgl64.Vec3{
		{v00, v10, v11},
		{v00, v11, v01},
	}
}

// HeightAt interpolates the surface height at local (x, z). ok is false
// outside the grid.
func (h Heightmap) HeightAt(x, z float64) (float64, bool) {
	fx := (x + h.halfWidth()) / h.CellSize[0]
	fz := (z + h.halfDepth()) / h.CellSize[1]
	if fx < 0 || fz < 0 || fx > float64(h.Cols-1) || fz > float64(h.Rows-1) {
		return 0, false
	}

	col := min(int(fx), h.Cols-2)
	row := min(int(fz), h.Rows-2)
	u := fx - float64(col)
	v := fz - float64(row)

	h00 := h.Heights[row*h.Cols+col]
	h01 := h.Heights[row*h.Cols+col+1]
	h10 := h.Heights[(row+1)*h.Cols+col]
	h11 := h.Heights[(row+1)*h.Cols+col+1]

	// Same diagonal split as CellTriangles
	if v >= u {
		return h00 + v*(h10-h00) + u*(h11-h10), true
	}
	return h00 + u*(h01-h00) + v*(h11-h01), true
}

// CellPrism returns the points of a triangle of the heightmap extruded
// downward by depth, giving GJK a solid to work with.
func CellPrism(triangle [3]mgl64.Vec3, depth float64) ConvexHull {
	down := mgl64.Vec3{0, -depth, 0}
	return ConvexHull{Points: []mgl64.Vec3{
		triangle[0], triangle[1], triangle[2],
		triangle[0].Add(down), triangle[1].Add(down), triangle[2].Add(down),
	}}
}
