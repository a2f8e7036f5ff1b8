package vecmath

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/memmaker/lockstep/engine/fixed"
)

// Conversions to and from mathgl for render handoff and host import.
// Float values never flow back into simulation state through these helpers
// unless the host imports them explicitly, e.g. when authoring a scene.

func ToMgl32(v FixedVec3) mgl32.Vec3 {
	return mgl32.Vec3{v.X.Float32(), v.Y.Float32(), v.Z.Float32()}
}

func FromMgl32(v mgl32.Vec3) FixedVec3 {
	return FixedVec3{
		X: fixed.FromFloat64(float64(v.X())),
		Y: fixed.FromFloat64(float64(v.Y())),
		Z: fixed.FromFloat64(float64(v.Z())),
	}
}

// ToF32 converts to the render-only float vector.
func ToF32(v FixedVec3) Vec3[fixed.F32] {
	return Vec3[fixed.F32]{v.X.ToF32(), v.Y.ToF32(), v.Z.ToF32()}
}

func QuatToMgl32(q FixedQuat) mgl32.Quat {
	return mgl32.Quat{W: q.W.Float32(), V: mgl32.Vec3{q.X.Float32(), q.Y.Float32(), q.Z.Float32()}}
}

func QuatFromMgl32(q mgl32.Quat) FixedQuat {
	v := FromMgl32(q.V)
	return FixedQuat{W: fixed.FromFloat64(float64(q.W)), X: v.X, Y: v.Y, Z: v.Z}
}

func TransformFromMgl32(position mgl32.Vec3, rotation mgl32.Quat, scale mgl32.Vec3) Transform {
	return NewTransform(FromMgl32(position), QuatFromMgl32(rotation), FromMgl32(scale))
}

// Mat4 returns the model matrix T * R * S for rendering.
func (t Transform) Mat4() mgl32.Mat4 {
	pos := ToMgl32(t.Position)
	scale := ToMgl32(t.Scale)
	translation := mgl32.Translate3D(pos.X(), pos.Y(), pos.Z())
	rotation := QuatToMgl32(t.Rotation).Mat4()
	return translation.Mul4(rotation).Mul4(mgl32.Scale3D(scale.X(), scale.Y(), scale.Z()))
}
