package epa

import (
	"math"

	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

// GenerateManifold creates contact points for a collision using Sutherland-Hodgman clipping.
//
// Algorithm:
//  1. Get the contact feature (point, edge or face) of each shape along the normal
//  2. Transform features to world space
//  3. The feature with more points is the reference, the other the incident
//  4. Clip the incident feature against the side planes of the reference
//  5. Keep points behind the reference plane, with their own depth
//  6. Reduce to max 4 points
//
// normal points from a toward b, depth is the EPA penetration depth. Point
// IDs combine the feature IDs of both shapes with the clipped vertex index.
func GenerateManifold(a, b actor.Proxy, normal mgl64.Vec3, depth float64) []constraint.ContactPoint {
	featureA, idA := actor.ContactFeature(a.Shape, a.InverseRotation.Rotate(normal))
	featureB, idB := actor.ContactFeature(b.Shape, b.InverseRotation.Rotate(normal.Mul(-1)))

	worldFeatureA := transformFeature(featureA, a)
	worldFeatureB := transformFeature(featureB, b)

	featureID := uint32(idA&0xff)<<8 | uint32(idB&0xff)

	if len(worldFeatureA) == 0 || len(worldFeatureB) == 0 {
		return []constraint.ContactPoint{deepestPoint(b, normal, depth, featureID)}
	}

	// Reference is the richer feature. Its outward normal faces the other shape.
	reference, incident := worldFeatureA, worldFeatureB
	refNormal := normal
	referenceIsA := true
	if len(worldFeatureB) > len(worldFeatureA) {
		reference, incident = worldFeatureB, worldFeatureA
		refNormal = normal.Mul(-1)
		referenceIsA = false
	}

	if len(incident) == 1 {
		// Point contact: halfway between the surfaces
		position := incident[0]
		if referenceIsA {
			position = position.Add(normal.Mul(depth / 2))
		} else {
			position = position.Sub(normal.Mul(depth / 2))
		}
		return []constraint.ContactPoint{{Position: position, Normal: normal, Depth: depth, ID: featureID << 8}}
	}

	clipped := clipIncidentAgainstReference(incident, reference, refNormal)

	planeNormal := refNormal
	if len(reference) >= 3 {
		faceNormal := reference[1].Sub(reference[0]).Cross(reference[2].Sub(reference[0]))
		if faceNormal.LenSqr() > 1e-20 {
			faceNormal = faceNormal.Normalize()
			if faceNormal.Dot(refNormal) < 0 {
				faceNormal = faceNormal.Mul(-1)
			}
			planeNormal = faceNormal
		}
	}
	offset := reference[0].Dot(planeNormal)

	const tolerance = 1e-4
	contactPoints := make([]constraint.ContactPoint, 0, len(clipped))
	for i, point := range clipped {
		separation := point.Dot(planeNormal) - offset
		if separation > tolerance {
			continue
		}
		// Midway between the incident point and its projection on the reference
		position := point.Sub(planeNormal.Mul(separation / 2))
		contactPoints = append(contactPoints, constraint.ContactPoint{
			Position: position,
			Normal:   normal,
			Depth:    math.Max(-separation, 0),
			ID:       featureID<<8 | uint32(i&0xff),
		})
	}

	if len(contactPoints) == 0 {
		return []constraint.ContactPoint{deepestPoint(b, normal, depth, featureID)}
	}

	return constraint.ReduceManifold(contactPoints, normal)
}

func deepestPoint(b actor.Proxy, normal mgl64.Vec3, depth float64, featureID uint32) constraint.ContactPoint {
	deepest := b.SupportWorld(normal.Mul(-1))
	return constraint.ContactPoint{
		Position: deepest.Add(normal.Mul(depth / 2)),
		Normal:   normal,
		Depth:    depth,
		ID:       featureID << 8,
	}
}

// clipIncidentAgainstReference clips the incident polygon against the side
// planes of the reference feature. An edge reference clips against the
// planes through its endpoints.
func clipIncidentAgainstReference(incident, reference []mgl64.Vec3, normal mgl64.Vec3) []mgl64.Vec3 {
	switch len(reference) {
	case 0, 1:
		return incident
	case 2:
		edge := reference[1].Sub(reference[0])
		output := clipPolygonAgainstPlane(incident, reference[0], edge)
		return clipPolygonAgainstPlane(output, reference[1], edge.Mul(-1))
	}

	output := incident
	center := computeCenter(reference)
	for i := 0; i < len(reference); i++ {
		if len(output) == 0 {
			break
		}

		v1 := reference[i]
		v2 := reference[(i+1)%len(reference)]

		// Side plane, normal pointing toward the inside of the reference
		clipNormal := v2.Sub(v1).Cross(normal)
		if clipNormal.LenSqr() < 1e-20 {
			continue
		}
		clipNormal = clipNormal.Normalize()
		if center.Sub(v1).Dot(clipNormal) < 0 {
			clipNormal = clipNormal.Mul(-1)
		}

		output = clipPolygonAgainstPlane(output, v1, clipNormal)
	}

	return output
}

// clipPolygonAgainstPlane keeps the part of polygon on the positive side of
// the plane (Sutherland-Hodgman for a single plane).
func clipPolygonAgainstPlane(polygon []mgl64.Vec3, planePoint, planeNormal mgl64.Vec3) []mgl64.Vec3 {
	if len(polygon) == 0 {
		return polygon
	}
	const tolerance = 1e-6

	if len(polygon) == 2 {
		// Segment: clip the endpoints instead of walking a closed loop
		d0 := polygon[0].Sub(planePoint).Dot(planeNormal)
		d1 := polygon[1].Sub(planePoint).Dot(planeNormal)
		switch {
		case d0 >= -tolerance && d1 >= -tolerance:
			return polygon
		case d0 < -tolerance && d1 < -tolerance:
			return nil
		case d0 < -tolerance:
			return []mgl64.Vec3{lineIntersectPlane(polygon[0], polygon[1], planePoint, planeNormal), polygon[1]}
		default:
			return []mgl64.Vec3{polygon[0], lineIntersectPlane(polygon[0], polygon[1], planePoint, planeNormal)}
		}
	}

	output := make([]mgl64.Vec3, 0, len(polygon)+2)
	for i := 0; i < len(polygon); i++ {
		current := polygon[i]
		next := polygon[(i+1)%len(polygon)]

		currentDist := current.Sub(planePoint).Dot(planeNormal)
		nextDist := next.Sub(planePoint).Dot(planeNormal)

		if currentDist >= -tolerance {
			output = append(output, current)
			if nextDist < -tolerance {
				output = append(output, lineIntersectPlane(current, next, planePoint, planeNormal))
			}
		} else if nextDist >= -tolerance {
			output = append(output, lineIntersectPlane(current, next, planePoint, planeNormal))
		}
	}

	return output
}

// lineIntersectPlane returns where segment p1-p2 crosses the plane.
func lineIntersectPlane(p1, p2, planePoint, planeNormal mgl64.Vec3) mgl64.Vec3 {
	dir := p2.Sub(p1)
	dist := p1.Sub(planePoint).Dot(planeNormal)
	denom := dir.Dot(planeNormal)

	if math.Abs(denom) < 1e-10 {
		return p1 // Segment parallel to plane
	}

	t := math.Max(0, math.Min(1, -dist/denom))
	return p1.Add(dir.Mul(t))
}

func computeCenter(points []mgl64.Vec3) mgl64.Vec3 {
	if len(points) == 0 {
		return mgl64.Vec3{}
	}

	var sum mgl64.Vec3
	for _, p := range points {
		sum = sum.Add(p)
	}
	return sum.Mul(1.0 / float64(len(points)))
}

func transformFeature(feature []mgl64.Vec3, proxy actor.Proxy) []mgl64.Vec3 {
	result := make([]mgl64.Vec3, len(feature))
	for i, point := range feature {
		result[i] = proxy.ToWorld(point)
	}
	return result
}
