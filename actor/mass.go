package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Volume returns the enclosed volume of shape. Heightmaps have none.
func Volume(shape Shape) float64 {
	switch s := shape.(type) {
	case Box:
		return 8.0 * s.HalfExtents.X() * s.HalfExtents.Y() * s.HalfExtents.Z()
	case OrientedBox:
		return 8.0 * s.HalfExtents.X() * s.HalfExtents.Y() * s.HalfExtents.Z()
	case Sphere:
		// Volume of sphere = (4/3) * π * r³
		return (4.0 / 3.0) * math.Pi * math.Pow(s.Radius, 3)
	case Capsule:
		return math.Pi*s.Radius*s.Radius*2*s.HalfHeight + (4.0/3.0)*math.Pi*math.Pow(s.Radius, 3)
	case ConvexHull:
		size := LocalAABB(s).Size()
		return size.X() * size.Y() * size.Z()
	case Compound:
		v := 0.0
		for _, c := range s.Children {
			v += Volume(c.Shape)
		}
		return v
	}
	return 0
}

// ComputeInertia returns the local inertia tensor of a body of the given
// mass and shape. Convex hulls use their bounding box.
func ComputeInertia(shape Shape, mass float64) mgl64.Mat3 {
	switch s := shape.(type) {
	case Box:
		return boxInertia(s.HalfExtents, mass)
	case OrientedBox:
		return boxInertia(s.HalfExtents, mass)
	case Sphere:
		// Pour une sphère : I = (2/5) * m * r²
		i := (2.0 / 5.0) * mass * s.Radius * s.Radius
		return mgl64.Diag3(mgl64.Vec3{i, i, i})
	case Capsule:
		return capsuleInertia(s, mass)
	case ConvexHull:
		return boxInertia(LocalAABB(s).Size().Mul(0.5), mass)
	case Compound:
		return compoundInertia(s, mass)
	}
	return mgl64.Mat3{}
}

func boxInertia(h mgl64.Vec3, mass float64) mgl64.Mat3 {
	x := h.X() * 2
	y := h.Y() * 2
	z := h.Z() * 2

	// I = (m/12) * (d1² + d2²)
	factor := mass / 12.0
	return mgl64.Diag3(mgl64.Vec3{
		factor * (y*y + z*z),
		factor * (x*x + z*z),
		factor * (x*x + y*y),
	})
}

func capsuleInertia(c Capsule, mass float64) mgl64.Mat3 {
	r := c.Radius
	h := 2 * c.HalfHeight
	cylinder := math.Pi * r * r * h
	spheres := (4.0 / 3.0) * math.Pi * r * r * r
	total := cylinder + spheres
	if total <= 0 {
		return mgl64.Mat3{}
	}

	mc := mass * cylinder / total
	ms := mass * spheres / total

	iy := mc*r*r/2 + ms*2*r*r/5
	ixz := mc*(r*r/4+h*h/12) + ms*(2*r*r/5+h*h/4+3*h*r/8)
	return mgl64.Diag3(mgl64.Vec3{ixz, iy, ixz})
}

func compoundInertia(c Compound, mass float64) mgl64.Mat3 {
	total := Volume(c)
	var inertia mgl64.Mat3
	if total <= 0 {
		return inertia
	}

	for _, child := range c.Children {
		m := mass * Volume(child.Shape) / total
		R := normalizeQuat(child.Rotation).Mat4().Mat3()
		local := R.Mul3(ComputeInertia(child.Shape, m)).Mul3(R.Transpose())

		// Parallel axis: m * (|d|² I - d dᵀ)
		d := child.Offset
		shift := mgl64.Ident3().Mul(d.Dot(d)).Sub(d.OuterProd3(d)).Mul(m)
		inertia = inertia.Add(local.Add(shift))
	}
	return inertia
}
