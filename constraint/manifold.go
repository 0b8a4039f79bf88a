package constraint

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ReduceManifold keeps at most MaxManifoldPoints points spanning the largest
// area: the deepest point, the point farthest from it, the point forming the
// largest triangle with both, then the point adding the most area outside
// that triangle.
func ReduceManifold(points []ContactPoint, normal mgl64.Vec3) []ContactPoint {
	if len(points) <= MaxManifoldPoints {
		return points
	}

	// 1. Deepest
	first := 0
	for i, p := range points {
		if p.Depth > points[first].Depth {
			first = i
		}
	}

	// 2. Farthest from the first
	second := -1
	bestDist := -1.0
	for i, p := range points {
		if i == first {
			continue
		}
		if d := p.Position.Sub(points[first].Position).LenSqr(); d > bestDist {
			bestDist = d
			second = i
		}
	}

	// 3. Largest triangle, signed so the triangle winds around normal
	a, b := points[first].Position, points[second].Position
	third := -1
	bestArea := 0.0
	for i, p := range points {
		if i == first || i == second {
			continue
		}
		area := signedArea(a, b, p.Position, normal)
		if math.Abs(area) > math.Abs(bestArea) || third < 0 {
			bestArea = area
			third = i
		}
	}
	if bestArea < 0 {
		second, third = third, second
		b = points[second].Position
	}
	c := points[third].Position

	// 4. Point adding the most area beyond one of the triangle edges
	fourth := -1
	bestArea = 0
	for i, p := range points {
		if i == first || i == second || i == third {
			continue
		}
		area := math.Max(-signedArea(a, b, p.Position, normal),
			math.Max(-signedArea(b, c, p.Position, normal), -signedArea(c, a, p.Position, normal)))
		if area > bestArea {
			bestArea = area
			fourth = i
		}
	}

	result := make([]ContactPoint, 0, MaxManifoldPoints)
	result = append(result, points[first], points[second], points[third])
	if fourth >= 0 {
		result = append(result, points[fourth])
	}
	return result
}

func signedArea(a, b, c, normal mgl64.Vec3) float64 {
	return b.Sub(a).Cross(c.Sub(a)).Dot(normal) / 2
}
