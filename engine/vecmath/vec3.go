package vecmath

import (
	"github.com/memmaker/lockstep/engine/fixed"
)

// Vec3 is a 3-component vector over any fixed.Number.
type Vec3[N fixed.Number[N]] struct {
	X N `json:"x"`
	Y N `json:"y"`
	Z N `json:"z"`
}

// FixedVec3 is the vector type used by simulation state.
type FixedVec3 = Vec3[fixed.Fixed]

func V3[N fixed.Number[N]](x, y, z N) Vec3[N] {
	return Vec3[N]{X: x, Y: y, Z: z}
}

// FixedV3 builds a FixedVec3 from whole units.
func FixedV3(x, y, z int32) FixedVec3 {
	return FixedVec3{X: fixed.FromInt(x), Y: fixed.FromInt(y), Z: fixed.FromInt(z)}
}

func UnitY[N fixed.Number[N]]() Vec3[N] {
	var n N
	return Vec3[N]{X: n, Y: n.FromInt(1), Z: n}
}

func (v Vec3[N]) Add(o Vec3[N]) Vec3[N] {
	return Vec3[N]{v.X.Add(o.X), v.Y.Add(o.Y), v.Z.Add(o.Z)}
}

func (v Vec3[N]) Sub(o Vec3[N]) Vec3[N] {
	return Vec3[N]{v.X.Sub(o.X), v.Y.Sub(o.Y), v.Z.Sub(o.Z)}
}

func (v Vec3[N]) Scale(s N) Vec3[N] {
	return Vec3[N]{v.X.Mul(s), v.Y.Mul(s), v.Z.Mul(s)}
}

func (v Vec3[N]) Neg() Vec3[N] {
	return Vec3[N]{v.X.Neg(), v.Y.Neg(), v.Z.Neg()}
}

func (v Vec3[N]) Dot(o Vec3[N]) N {
	return v.X.Mul(o.X).Add(v.Y.Mul(o.Y)).Add(v.Z.Mul(o.Z))
}

func (v Vec3[N]) Cross(o Vec3[N]) Vec3[N] {
	return Vec3[N]{
		X: v.Y.Mul(o.Z).Sub(v.Z.Mul(o.Y)),
		Y: v.Z.Mul(o.X).Sub(v.X.Mul(o.Z)),
		Z: v.X.Mul(o.Y).Sub(v.Y.Mul(o.X)),
	}
}

// LenSquared saturates like any product of N; use Len to compare magnitudes.
func (v Vec3[N]) LenSquared() N { return v.Dot(v) }
func (v Vec3[N]) Len() N        { return v.X.Hypot(v.Y, v.Z) }

func (v Vec3[N]) IsZero() bool {
	return v.X.IsZero() && v.Y.IsZero() && v.Z.IsZero()
}

// Normalize divides by Len. A zero vector returns an error wrapping
// fixed.ErrDivisionByZero. Vectors shorter than one unit are scaled up by
// 256 (at most twice) first, which is exact and keeps the quotient precise.
func (v Vec3[N]) Normalize() (Vec3[N], error) {
	one := v.X.FromInt(1)
	for i := 0; i < 2 && !v.IsZero() && v.Len().Less(one); i++ {
		v = v.Scale(v.X.FromInt(256))
	}
	l := v.Len()
	x, err := v.X.Div(l)
	if err != nil {
		return Vec3[N]{}, err
	}
	y, _ := v.Y.Div(l)
	z, _ := v.Z.Div(l)
	return Vec3[N]{x, y, z}, nil
}

func (v Vec3[N]) DistanceSquared(o Vec3[N]) N { return o.Sub(v).LenSquared() }
func (v Vec3[N]) Distance(o Vec3[N]) N        { return o.Sub(v).Len() }

func minN[N fixed.Number[N]](a, b N) N {
	if b.Less(a) {
		return b
	}
	return a
}

func maxN[N fixed.Number[N]](a, b N) N {
	if a.Less(b) {
		return b
	}
	return a
}

func (v Vec3[N]) ComponentwiseMin(o Vec3[N]) Vec3[N] {
	return Vec3[N]{minN(v.X, o.X), minN(v.Y, o.Y), minN(v.Z, o.Z)}
}

func (v Vec3[N]) ComponentwiseMax(o Vec3[N]) Vec3[N] {
	return Vec3[N]{maxN(v.X, o.X), maxN(v.Y, o.Y), maxN(v.Z, o.Z)}
}

// Clamp limits every component to [lo, hi].
func (v Vec3[N]) Clamp(lo, hi Vec3[N]) Vec3[N] {
	return v.ComponentwiseMax(lo).ComponentwiseMin(hi)
}

// Axis returns component i (0=X, 1=Y, 2=Z).
func (v Vec3[N]) Axis(i int) N {
	switch i {
	case 0:
		return v.X
	case 1:
		return v.Y
	}
	return v.Z
}

// WithAxis returns v with component i replaced.
func (v Vec3[N]) WithAxis(i int, n N) Vec3[N] {
	switch i {
	case 0:
		v.X = n
	case 1:
		v.Y = n
	default:
		v.Z = n
	}
	return v
}
