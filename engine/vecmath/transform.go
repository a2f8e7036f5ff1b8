package vecmath

import (
	"github.com/memmaker/lockstep/engine/fixed"
)

// Transform is a comparable value: == is the change test used by shape caches.
type Transform struct {
	Position FixedVec3 `json:"translation"`
	Rotation FixedQuat `json:"rotation"`
	Scale    FixedVec3 `json:"scale"`
}

func IdentityTransform() Transform {
	return Transform{
		Rotation: QuatIdent[fixed.Fixed](),
		Scale:    FixedV3(1, 1, 1),
	}
}

func NewTransform(position FixedVec3, rotation FixedQuat, scale FixedVec3) Transform {
	return Transform{Position: position, Rotation: rotation, Scale: scale}
}

func TranslationTransform(position FixedVec3) Transform {
	t := IdentityTransform()
	t.Position = position
	return t
}

// Apply maps a local point to world space: rotate, then translate.
// Scale is not applied; shape dimensions are already in world units.
func (t Transform) Apply(local FixedVec3) FixedVec3 {
	return t.Rotation.Rotate(local).Add(t.Position)
}

func (t Transform) WithPosition(position FixedVec3) Transform {
	t.Position = position
	return t
}

func (t Transform) WithRotation(rotation FixedQuat) Transform {
	t.Rotation = rotation
	return t
}
