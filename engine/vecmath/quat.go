package vecmath

import (
	"github.com/memmaker/lockstep/engine/fixed"
)

// Quat is a rotation quaternion W + Xi + Yj + Zk.
type Quat[N fixed.Number[N]] struct {
	W N `json:"w"`
	X N `json:"x"`
	Y N `json:"y"`
	Z N `json:"z"`
}

type FixedQuat = Quat[fixed.Fixed]

func QuatIdent[N fixed.Number[N]]() Quat[N] {
	var n N
	return Quat[N]{W: n.FromInt(1)}
}

// QuatFromAxisAngle expects a unit axis; the angle is in turns.
func QuatFromAxisAngle(tbl *fixed.Table, axis FixedVec3, turns fixed.Fixed) FixedQuat {
	half := turns.Mul(fixed.Half)
	s := tbl.Sin(half)
	return FixedQuat{
		W: tbl.Cos(half),
		X: axis.X.Mul(s),
		Y: axis.Y.Mul(s),
		Z: axis.Z.Mul(s),
	}
}

func (q Quat[N]) V() Vec3[N] { return Vec3[N]{q.X, q.Y, q.Z} }

// Mul is the Hamilton product; q.Mul(o) rotates by o first, then q.
func (q Quat[N]) Mul(o Quat[N]) Quat[N] {
	return Quat[N]{
		W: q.W.Mul(o.W).Sub(q.X.Mul(o.X)).Sub(q.Y.Mul(o.Y)).Sub(q.Z.Mul(o.Z)),
		X: q.W.Mul(o.X).Add(q.X.Mul(o.W)).Add(q.Y.Mul(o.Z)).Sub(q.Z.Mul(o.Y)),
		Y: q.W.Mul(o.Y).Sub(q.X.Mul(o.Z)).Add(q.Y.Mul(o.W)).Add(q.Z.Mul(o.X)),
		Z: q.W.Mul(o.Z).Add(q.X.Mul(o.Y)).Sub(q.Y.Mul(o.X)).Add(q.Z.Mul(o.W)),
	}
}

func (q Quat[N]) Conjugate() Quat[N] {
	return Quat[N]{W: q.W, X: q.X.Neg(), Y: q.Y.Neg(), Z: q.Z.Neg()}
}

// Rotate computes v + 2w(u×v) + 2u×(u×v) with u the vector part.
// The identity quaternion returns v unchanged, bit for bit.
func (q Quat[N]) Rotate(v Vec3[N]) Vec3[N] {
	u := q.V()
	t := u.Cross(v).Scale(q.W.FromInt(2))
	return v.Add(t.Scale(q.W)).Add(u.Cross(t))
}
