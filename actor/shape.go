package actor

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ShapeKind represents the type of collision shape
type ShapeKind int

const (
	ShapeKindBox ShapeKind = iota
	ShapeKindSphere
	ShapeKindCapsule
	ShapeKindOrientedBox
	ShapeKindConvexHull
	ShapeKindCompound
	ShapeKindHeightmap
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeKindBox:
		return "box"
	case ShapeKindSphere:
		return "sphere"
	case ShapeKindCapsule:
		return "capsule"
	case ShapeKindOrientedBox:
		return "oriented-box"
	case ShapeKindConvexHull:
		return "convex-hull"
	case ShapeKindCompound:
		return "compound"
	case ShapeKindHeightmap:
		return "heightmap"
	}
	return "unknown"
}

var (
	ErrDegenerateShape = errors.New("degenerate shape")
	ErrNestedCompound  = errors.New("compound children cannot be compound")
	ErrInvalidMass     = errors.New("invalid mass")
)

// Shape is the closed set of collision shapes. Every operation over shapes
// (bounds, support, features, mass, ray casts) is a type switch in this
// package, the shapes themselves are plain values.
type Shape interface {
	Kind() ShapeKind
	isShape()
}

// Box is an axis-aligned box: it follows its body's position but ignores
// its orientation.
type Box struct {
	HalfExtents mgl64.Vec3
}

// Sphere represents a spherical collision shape
type Sphere struct {
	Radius float64
}

// Capsule is a segment along the local Y axis of length 2*HalfHeight swept by Radius.
type Capsule struct {
	Radius     float64
	HalfHeight float64
}

// OrientedBox represents an oriented box collision shape
// The box is defined by its half-extents (half-width, half-height, half-depth)
type OrientedBox struct {
	HalfExtents mgl64.Vec3
}

// ConvexHull is the convex hull of Points, in local space.
type ConvexHull struct {
	Points []mgl64.Vec3
}

// CompoundChild places a convex shape inside a Compound.
type CompoundChild struct {
	Shape    Shape
	Offset   mgl64.Vec3
	Rotation mgl64.Quat
}

// Compound groups convex children. Children never nest further.
type Compound struct {
	Children []CompoundChild
}

// Heightmap is a Rows x Cols grid of heights (row-major, row along +Z,
// column along +X), centred on its local origin.
type Heightmap struct {
	Heights  []float64
	Rows     int
	Cols     int
	CellSize mgl64.Vec2 // spacing along X and Z
}

func (Box) Kind() ShapeKind         { return ShapeKindBox }
func (Sphere) Kind() ShapeKind      { return ShapeKindSphere }
func (Capsule) Kind() ShapeKind     { return ShapeKindCapsule }
func (OrientedBox) Kind() ShapeKind { return ShapeKindOrientedBox }
func (ConvexHull) Kind() ShapeKind  { return ShapeKindConvexHull }
func (Compound) Kind() ShapeKind    { return ShapeKindCompound }
func (Heightmap) Kind() ShapeKind   { return ShapeKindHeightmap }

func (Box) isShape()         {}
func (Sphere) isShape()      {}
func (Capsule) isShape()     {}
func (OrientedBox) isShape() {}
func (ConvexHull) isShape()  {}
func (Compound) isShape()    {}
func (Heightmap) isShape()   {}

// IsConvex reports whether GJK/EPA can consume the shape directly.
func IsConvex(shape Shape) bool {
	switch shape.(type) {
	case Compound, Heightmap:
		return false
	}
	return shape != nil
}

// Validate rejects shapes whose parameters cannot produce bounds, mass or contacts.
func Validate(shape Shape) error {
	switch s := shape.(type) {
	case nil:
		return fmt.Errorf("%w: nil shape", ErrDegenerateShape)
	case Box:
		return validateExtents(s.Kind(), s.HalfExtents)
	case OrientedBox:
		return validateExtents(s.Kind(), s.HalfExtents)
	case Sphere:
		if !finitePositive(s.Radius) {
			return fmt.Errorf("%w: sphere radius %v", ErrDegenerateShape, s.Radius)
		}
	case Capsule:
		if !finitePositive(s.Radius) || s.HalfHeight < 0 || math.IsInf(s.HalfHeight, 0) || math.IsNaN(s.HalfHeight) {
			return fmt.Errorf("%w: capsule radius %v half height %v", ErrDegenerateShape, s.Radius, s.HalfHeight)
		}
	case ConvexHull:
		if len(s.Points) == 0 {
			return fmt.Errorf("%w: empty convex hull", ErrDegenerateShape)
		}
		for _, p := range s.Points {
			if !finiteVec(p) {
				return fmt.Errorf("%w: convex hull point %v", ErrDegenerateShape, p)
			}
		}
	case Compound:
		if len(s.Children) == 0 {
			return fmt.Errorf("%w: empty compound", ErrDegenerateShape)
		}
		for i, child := range s.Children {
			switch child.Shape.(type) {
			case Compound:
				return fmt.Errorf("child %d: %w", i, ErrNestedCompound)
			case Heightmap:
				return fmt.Errorf("%w: child %d is a heightmap", ErrDegenerateShape, i)
			}
			if err := Validate(child.Shape); err != nil {
				return fmt.Errorf("child %d: %w", i, err)
			}
		}
	case Heightmap:
		if s.Rows < 2 || s.Cols < 2 || len(s.Heights) != s.Rows*s.Cols {
			return fmt.Errorf("%w: heightmap %dx%d with %d samples", ErrDegenerateShape, s.Rows, s.Cols, len(s.Heights))
		}
		if !finitePositive(s.CellSize[0]) || !finitePositive(s.CellSize[1]) {
			return fmt.Errorf("%w: heightmap cell size %v", ErrDegenerateShape, s.CellSize)
		}
	default:
		return fmt.Errorf("%w: unknown shape %T", ErrDegenerateShape, shape)
	}
	return nil
}

// ScaleShape returns shape scaled by s. Spheres take the largest component,
// capsules the largest horizontal one for their radius.
func ScaleShape(shape Shape, s mgl64.Vec3) Shape {
	s = mgl64.Vec3{math.Abs(s[0]), math.Abs(s[1]), math.Abs(s[2])}
	if s == (mgl64.Vec3{1, 1, 1}) {
		return shape
	}

	switch sh := shape.(type) {
	case Box:
		return Box{HalfExtents: mulElem(sh.HalfExtents, s)}
	case OrientedBox:
		return OrientedBox{HalfExtents: mulElem(sh.HalfExtents, s)}
	case Sphere:
		return Sphere{Radius: sh.Radius * math.Max(s[0], math.Max(s[1], s[2]))}
	case Capsule:
		return Capsule{Radius: sh.Radius * math.Max(s[0], s[2]), HalfHeight: sh.HalfHeight * s[1]}
	case ConvexHull:
		points := make([]mgl64.Vec3, len(sh.Points))
		for i, p := range sh.Points {
			points[i] = mulElem(p, s)
		}
		return ConvexHull{Points: points}
	case Compound:
		children := make([]CompoundChild, len(sh.Children))
		for i, c := range sh.Children {
			children[i] = CompoundChild{Shape: ScaleShape(c.Shape, s), Offset: mulElem(c.Offset, s), Rotation: c.Rotation}
		}
		return Compound{Children: children}
	case Heightmap:
		heights := make([]float64, len(sh.Heights))
		for i, h := range sh.Heights {
			heights[i] = h * s[1]
		}
		return Heightmap{Heights: heights, Rows: sh.Rows, Cols: sh.Cols, CellSize: mgl64.Vec2{sh.CellSize[0] * s[0], sh.CellSize[1] * s[2]}}
	}
	return shape
}

func validateExtents(kind ShapeKind, h mgl64.Vec3) error {
	if !finitePositive(h[0]) || !finitePositive(h[1]) || !finitePositive(h[2]) {
		return fmt.Errorf("%w: %s half extents %v", ErrDegenerateShape, kind, h)
	}
	return nil
}

func finitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

func finiteVec(v mgl64.Vec3) bool {
	for i := 0; i < 3; i++ {
		if math.IsInf(v[i], 0) || math.IsNaN(v[i]) {
			return false
		}
	}
	return true
}

func mulElem(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}
