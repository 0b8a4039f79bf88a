package actor

import "github.com/go-gl/mathgl/mgl64"

// Collider attaches a shape to an entity, offset from the entity transform.
// Trigger colliders only report overlaps and never produce a response.
type Collider struct {
	Shape     Shape
	Offset    mgl64.Vec3
	Rotation  mgl64.Quat
	IsTrigger bool
}

// NewCollider creates a non-trigger collider centred on the entity.
func NewCollider(shape Shape) Collider {
	return Collider{Shape: shape, Rotation: mgl64.QuatIdent()}
}

// NewTrigger creates a trigger collider centred on the entity.
func NewTrigger(shape Shape) Collider {
	c := NewCollider(shape)
	c.IsTrigger = true
	return c
}

// Pose returns the world position and rotation of the collider origin.
func (c Collider) Pose(t Transform) (mgl64.Vec3, mgl64.Quat) {
	rotation := t.Orientation()
	position := t.Position.Add(rotation.Rotate(mulElem(c.Offset, t.ScaleOrOne())))
	return position, rotation.Mul(normalizeQuat(c.Rotation))
}

// WorldShape returns the collider shape with the transform scale applied.
func (c Collider) WorldShape(t Transform) Shape {
	return ScaleShape(c.Shape, t.ScaleOrOne())
}

// WorldAABB returns the collider bounds under transform t.
func (c Collider) WorldAABB(t Transform) AABB {
	position, rotation := c.Pose(t)
	return WorldAABB(c.WorldShape(t), position, rotation)
}

// Proxies expands the collider into world-space leaves. Compound children
// become individual proxies, heightmaps stay a single proxy.
func (c Collider) Proxies(t Transform) []Proxy {
	position, rotation := c.Pose(t)
	shape := c.WorldShape(t)

	compound, ok := shape.(Compound)
	if !ok {
		return []Proxy{NewProxy(shape, position, rotation, 0)}
	}

	proxies := make([]Proxy, 0, len(compound.Children))
	for i, child := range compound.Children {
		childPos := position.Add(rotation.Rotate(child.Offset))
		childRot := rotation.Mul(normalizeQuat(child.Rotation))
		proxies = append(proxies, NewProxy(child.Shape, childPos, childRot, i))
	}
	return proxies
}
