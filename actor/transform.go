package actor

import "github.com/go-gl/mathgl/mgl64"

// Transform is the externally owned placement of an entity. The physics world
// reads it by pointer at the start of a step and writes Position and Rotation
// back for every awake dynamic or kinematic body.
type Transform struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
	Scale    mgl64.Vec3
}

// NewTransform creates an identity transform
func NewTransform() Transform {
	return Transform{
		Position: mgl64.Vec3{0, 0, 0},
		Rotation: mgl64.QuatIdent(),
		Scale:    mgl64.Vec3{1, 1, 1},
	}
}

// NewTransformAt creates an unrotated, unscaled transform at position
func NewTransformAt(position mgl64.Vec3) Transform {
	t := NewTransform()
	t.Position = position
	return t
}

// Orientation returns the normalized rotation, treating a zero quaternion as identity.
func (t Transform) Orientation() mgl64.Quat {
	return normalizeQuat(t.Rotation)
}

// ScaleOrOne returns the scale, substituting 1 for zero components so a
// zero-valued Transform behaves as unscaled.
func (t Transform) ScaleOrOne() mgl64.Vec3 {
	s := t.Scale
	for i := 0; i < 3; i++ {
		if s[i] == 0 {
			s[i] = 1
		}
	}
	return s
}

func normalizeQuat(q mgl64.Quat) mgl64.Quat {
	if q.W == 0 && q.V.LenSqr() == 0 {
		return mgl64.QuatIdent()
	}
	return q.Normalize()
}
