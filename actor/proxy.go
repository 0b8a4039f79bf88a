package actor

import "github.com/go-gl/mathgl/mgl64"

// Proxy is a convex leaf shape placed in world space. Colliders expand into
// one proxy per compound child; narrowphase, CCD and ray casts work on
// proxies only. Child is the compound child index, or 0.
type Proxy struct {
	Shape           Shape
	Position        mgl64.Vec3
	Rotation        mgl64.Quat
	InverseRotation mgl64.Quat
	Child           int
}

// NewProxy places shape at position/rotation. Box proxies drop the rotation.
func NewProxy(shape Shape, position mgl64.Vec3, rotation mgl64.Quat, child int) Proxy {
	rotation = normalizeQuat(rotation)
	if shape != nil && shape.Kind() == ShapeKindBox {
		rotation = mgl64.QuatIdent()
	}
	return Proxy{
		Shape:           shape,
		Position:        position,
		Rotation:        rotation,
		InverseRotation: rotation.Conjugate(),
		Child:           child,
	}
}

// SupportWorld returns the world-space support point along direction.
func (p Proxy) SupportWorld(direction mgl64.Vec3) mgl64.Vec3 {
	// 1. Direction to local space
	localDirection := p.InverseRotation.Rotate(direction)

	// 2. Local support
	localSupport := Support(p.Shape, localDirection)

	// 3. Back to world space
	return p.Position.Add(p.Rotation.Rotate(localSupport))
}

// Center returns the proxy origin, used to seed GJK.
func (p Proxy) Center() mgl64.Vec3 {
	return p.Position
}

// AABB returns the world bounds of the proxy.
func (p Proxy) AABB() AABB {
	return WorldAABB(p.Shape, p.Position, p.Rotation)
}

// ToLocal converts a world point into proxy space.
func (p Proxy) ToLocal(point mgl64.Vec3) mgl64.Vec3 {
	return p.InverseRotation.Rotate(point.Sub(p.Position))
}

// ToWorld converts a proxy-space point into world space.
func (p Proxy) ToWorld(point mgl64.Vec3) mgl64.Vec3 {
	return p.Position.Add(p.Rotation.Rotate(point))
}

// Translated returns the proxy moved by delta.
func (p Proxy) Translated(delta mgl64.Vec3) Proxy {
	p.Position = p.Position.Add(delta)
	return p
}
