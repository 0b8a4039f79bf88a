// Package collide is the narrowphase: it decides whether two world-space
// proxies overlap and produces their contact points. Common pairs use exact
// analytic tests; every other pair goes through GJK, EPA and feature clipping.
package collide

import (
	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/constraint"
	"github.com/akmonengine/impulse/epa"
	"github.com/akmonengine/impulse/gjk"
	"github.com/go-gl/mathgl/mgl64"
)

// Result holds the contacts of one proxy pair. Normal points from A toward B.
type Result struct {
	Normal mgl64.Vec3
	Points []constraint.ContactPoint
}

// Collide tests a against b. Point IDs are stable while the same features
// (and compound children) stay in contact.
func Collide(a, b actor.Proxy) (Result, bool) {
	result, ok := dispatch(a, b)
	if !ok || len(result.Points) == 0 {
		return Result{}, false
	}

	for i := range result.Points {
		p := &result.Points[i]
		if p.Normal.LenSqr() == 0 {
			p.Normal = result.Normal
		}
		p.ID ^= uint32(a.Child&0xff)<<24 | uint32(b.Child&0xff)<<16
	}
	return result, true
}

func dispatch(a, b actor.Proxy) (Result, bool) {
	kindA, kindB := a.Shape.Kind(), b.Shape.Kind()

	switch {
	case kindA == actor.ShapeKindHeightmap && kindB == actor.ShapeKindHeightmap:
		return Result{}, false
	case kindA == actor.ShapeKindHeightmap:
		return collideHeightmap(a, b)
	case kindB == actor.ShapeKindHeightmap:
		return flip(collideHeightmap(b, a))
	}

	switch sa := a.Shape.(type) {
	case actor.Sphere:
		switch sb := b.Shape.(type) {
		case actor.Sphere:
			return sphereSphere(a.Position, sa.Radius, b.Position, sb.Radius)
		case actor.Box:
			return sphereBox(a.Position, sa.Radius, b.AABB())
		case actor.Capsule:
			p0, p1 := capsuleSegment(b, sb)
			return sphereCapsule(a.Position, sa.Radius, p0, p1, sb.Radius)
		}
	case actor.Box:
		switch sb := b.Shape.(type) {
		case actor.Sphere:
			return flip(sphereBox(b.Position, sb.Radius, a.AABB()))
		case actor.Box:
			return boxBox(a.AABB(), b.AABB())
		}
	case actor.Capsule:
		switch sb := b.Shape.(type) {
		case actor.Sphere:
			p0, p1 := capsuleSegment(a, sa)
			return flip(sphereCapsule(b.Position, sb.Radius, p0, p1, sa.Radius))
		case actor.Capsule:
			a0, a1 := capsuleSegment(a, sa)
			b0, b1 := capsuleSegment(b, sb)
			return capsuleCapsule(a0, a1, sa.Radius, b0, b1, sb.Radius)
		}
	}

	return general(a, b)
}

// general is the GJK + EPA path for any pair of convex proxies.
func general(a, b actor.Proxy) (Result, bool) {
	if !actor.IsConvex(a.Shape) || !actor.IsConvex(b.Shape) {
		return Result{}, false
	}

	simplex := gjk.SimplexPool.Get().(*gjk.Simplex)
	defer gjk.SimplexPool.Put(simplex)
	simplex.Reset()

	if !gjk.GJK(a, b, simplex) {
		return Result{}, false
	}

	penetration, err := epa.EPA(a, b, simplex)
	if err != nil {
		return Result{}, false
	}

	points := epa.GenerateManifold(a, b, penetration.Normal, penetration.Depth)
	return Result{Normal: penetration.Normal, Points: points}, true
}

func flip(result Result, ok bool) (Result, bool) {
	if !ok {
		return result, false
	}
	result.Normal = result.Normal.Mul(-1)
	for i := range result.Points {
		result.Points[i].Normal = result.Points[i].Normal.Mul(-1)
	}
	return result, true
}
