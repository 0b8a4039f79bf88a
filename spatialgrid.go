package impulse

import (
	"math"
	"slices"
	"sort"

	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// ============================================================================
// Types
// ============================================================================

// CellKey is the integer coordinate of a grid cell.
type CellKey struct {
	X, Y, Z int
}

// Cell holds the indices of the AABBs overlapping it.
type Cell struct {
	indices []int
}

// Pair is a candidate pair of snapshot indices, A < B.
type Pair struct {
	A, B int
}

const (
	minCellSize = 0.1
	// AABBs spanning more cells are kept aside and tested against everything.
	maxCellsPerAABB = 4096
)

// SpatialGrid is a uniform hashed grid used by the broadphase. It is rebuilt
// from scratch every step.
type SpatialGrid struct {
	cellSize  float64
	fixedSize bool
	cells     []Cell
	cellMask  int

	aabbs     []actor.AABB
	oversized []int
	seen      []int
	stamp     int
}

// ============================================================================
// Constructor
// ============================================================================

// NewSpatialGrid creates a grid of numCells hash buckets. A cellSize of 0
// picks twice the median AABB extent on every Rebuild.
func NewSpatialGrid(cellSize float64, numCells int) *SpatialGrid {
	numCells = nextPowerOfTwo(numCells)

	cells := make([]Cell, numCells)
	for i := range cells {
		cells[i].indices = make([]int, 0, 8)
	}

	return &SpatialGrid{
		cellSize:  math.Max(cellSize, minCellSize),
		fixedSize: cellSize > 0,
		cells:     cells,
		cellMask:  numCells - 1,
	}
}

func nextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++
	return n
}

func (sg *SpatialGrid) CellSize() float64 {
	return sg.cellSize
}

// ============================================================================
// Build
// ============================================================================

// Rebuild clears the grid and inserts aabbs, indexed by their position in
// the slice. Invalid AABBs are ignored.
func (sg *SpatialGrid) Rebuild(aabbs []actor.AABB) {
	sg.Clear()
	sg.aabbs = aabbs
	if !sg.fixedSize {
		sg.cellSize = autoCellSize(aabbs)
	}

	if cap(sg.seen) < len(aabbs) {
		sg.seen = make([]int, len(aabbs))
		sg.stamp = 0
	}
	sg.seen = sg.seen[:len(aabbs)]

	for i, box := range aabbs {
		sg.Insert(i, box)
	}
}

// Insert adds index to every cell box overlaps.
func (sg *SpatialGrid) Insert(index int, box actor.AABB) {
	if !box.IsValid() {
		return
	}
	minCell, maxCell, ok := sg.cellRange(box)
	if !ok {
		sg.oversized = append(sg.oversized, index)
		return
	}

	for x := minCell.X; x <= maxCell.X; x++ {
		for y := minCell.Y; y <= maxCell.Y; y++ {
			for z := minCell.Z; z <= maxCell.Z; z++ {
				cell := &sg.cells[sg.hashCell(CellKey{x, y, z})]
				// Distinct keys may share a bucket
				if n := len(cell.indices); n > 0 && cell.indices[n-1] == index {
					continue
				}
				cell.indices = append(cell.indices, index)
			}
		}
	}
}

func (sg *SpatialGrid) Clear() {
	for i := range sg.cells {
		sg.cells[i].indices = sg.cells[i].indices[:0]
	}
	sg.oversized = sg.oversized[:0]
	sg.aabbs = nil
}

// autoCellSize returns twice the median of the largest AABB extents.
func autoCellSize(aabbs []actor.AABB) float64 {
	extents := make([]float64, 0, len(aabbs))
	for _, box := range aabbs {
		if !box.IsValid() {
			continue
		}
		size := box.Size()
		extent := math.Max(size.X(), math.Max(size.Y(), size.Z()))
		if math.IsInf(extent, 0) || math.IsNaN(extent) {
			continue
		}
		extents = append(extents, extent)
	}
	if len(extents) == 0 {
		return 1
	}
	sort.Float64s(extents)
	return math.Max(2*extents[len(extents)/2], minCellSize)
}

// ============================================================================
// Queries
// ============================================================================

// FindPairs returns every overlapping pair accepted by accept, sorted.
func (sg *SpatialGrid) FindPairs(accept func(a, b int) bool) []Pair {
	pairs := make([]Pair, 0, len(sg.aabbs))

	for i, box := range sg.aabbs {
		if !box.IsValid() || slices.Contains(sg.oversized, i) {
			continue
		}
		sg.query(box, func(j int) {
			if j <= i || !sg.aabbs[i].Overlaps(sg.aabbs[j]) || !accept(i, j) {
				return
			}
			pairs = append(pairs, Pair{A: i, B: j})
		})
	}

	// Oversized boxes against everything else
	for _, o := range sg.oversized {
		for k, box := range sg.aabbs {
			if k == o || !box.IsValid() || !box.Overlaps(sg.aabbs[o]) {
				continue
			}
			if slices.Contains(sg.oversized, k) && k < o {
				continue
			}
			a, b := min(o, k), max(o, k)
			if accept(a, b) {
				pairs = append(pairs, Pair{A: a, B: b})
			}
		}
	}

	slices.SortFunc(pairs, func(p, q Pair) int {
		if p.A != q.A {
			return p.A - q.A
		}
		return p.B - q.B
	})
	return pairs
}

// Query calls fn once for every index whose AABB overlaps box.
func (sg *SpatialGrid) Query(box actor.AABB, fn func(index int)) {
	sg.query(box, func(j int) {
		if sg.aabbs[j].Overlaps(box) {
			fn(j)
		}
	})
	for _, o := range sg.oversized {
		if sg.aabbs[o].Overlaps(box) {
			fn(o)
		}
	}
}

// query visits each index sharing a cell with box exactly once.
func (sg *SpatialGrid) query(box actor.AABB, fn func(index int)) {
	minCell, maxCell, ok := sg.cellRange(box)
	if !ok {
		// Too large to walk cell by cell
		for j := range sg.aabbs {
			if !slices.Contains(sg.oversized, j) && sg.aabbs[j].IsValid() {
				fn(j)
			}
		}
		return
	}

	sg.stamp++
	for x := minCell.X; x <= maxCell.X; x++ {
		for y := minCell.Y; y <= maxCell.Y; y++ {
			for z := minCell.Z; z <= maxCell.Z; z++ {
				cell := &sg.cells[sg.hashCell(CellKey{x, y, z})]
				for _, j := range cell.indices {
					if sg.seen[j] == sg.stamp {
						continue
					}
					sg.seen[j] = sg.stamp
					fn(j)
				}
			}
		}
	}
}

// ============================================================================
// Helpers
// ============================================================================

func (sg *SpatialGrid) cellRange(box actor.AABB) (CellKey, CellKey, bool) {
	minCell := sg.worldToCell(box.Min)
	maxCell := sg.worldToCell(box.Max)

	count := 1.0
	for _, span := range []int{maxCell.X - minCell.X, maxCell.Y - minCell.Y, maxCell.Z - minCell.Z} {
		count *= float64(span + 1)
	}
	if count > maxCellsPerAABB || math.IsInf(box.Size().LenSqr(), 0) {
		return minCell, maxCell, false
	}
	return minCell, maxCell, true
}

func (sg *SpatialGrid) worldToCell(pos mgl64.Vec3) CellKey {
	return CellKey{
		X: int(math.Floor(clampCoord(pos.X() / sg.cellSize))),
		Y: int(math.Floor(clampCoord(pos.Y() / sg.cellSize))),
		Z: int(math.Floor(clampCoord(pos.Z() / sg.cellSize))),
	}
}

// clampCoord keeps huge coordinates convertible to int.
func clampCoord(v float64) float64 {
	const limit = 1 << 40
	return math.Max(-limit, math.Min(limit, v))
}

func (sg *SpatialGrid) hashCell(key CellKey) int {
	// Large primes to spread the keys
	h := (key.X * 73856093) ^ (key.Y * 19349663) ^ (key.Z * 83492791)
	return h & sg.cellMask
}
