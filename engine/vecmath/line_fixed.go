package vecmath

import (
	"github.com/memmaker/lockstep/engine/fixed"
)

// Fixed segments solve their closest-point parameters in 128-bit integers.
// Products of squared lengths overflow Q16.16 once segments pass ~13 units.

const oneRaw = int64(1) << fixed.FracBits

// dotRaw is u·v in Q16.16 raw units held in an int64. Each term is
// truncated toward zero like Fixed.Mul, but the sum never saturates.
func dotRaw(u, v FixedVec3) int64 {
	return int64(u.X.Raw())*int64(v.X.Raw())/oneRaw +
		int64(u.Y.Raw())*int64(v.Y.Raw())/oneRaw +
		int64(u.Z.Raw())*int64(v.Z.Raw())/oneRaw
}

func ratioRaw(num, den int64) fixed.Fixed {
	return fixed.Ratio(fixed.WideFromInt64(num), fixed.WideFromInt64(den))
}

func closestPointWide(l FixedLine, p FixedVec3) FixedVec3 {
	ab := l.Direction()
	denom := dotRaw(ab, ab)
	if denom == 0 {
		return l.Start
	}
	return l.PointAt(ratioRaw(dotRaw(p.Sub(l.Start), ab), denom))
}

func closestPointsWide(l, o FixedLine) (FixedVec3, FixedVec3) {
	d1 := l.Direction()
	d2 := o.Direction()
	r := l.Start.Sub(o.Start)
	a := dotRaw(d1, d1)
	e := dotRaw(d2, d2)
	f := dotRaw(d2, r)

	var s, t fixed.Fixed
	switch {
	case a == 0 && e == 0:
		return l.Start, o.Start
	case a == 0:
		t = ratioRaw(f, e)
	default:
		c := dotRaw(d1, r)
		if e == 0 {
			s = ratioRaw(-c, a)
			break
		}
		b := dotRaw(d1, d2)
		denom := fixed.MulWide(a, e).Sub(fixed.MulWide(b, b))
		if denom.Sign() > 0 {
			s = fixed.Ratio(fixed.MulWide(b, f).Sub(fixed.MulWide(c, e)), denom)
		}
		// tn = b*s + f and the bound e, both scaled by one more Q16.16 factor
		tn := fixed.MulWide(b, int64(s.Raw())).Add(fixed.MulWide(f, oneRaw))
		eScaled := fixed.MulWide(e, oneRaw)
		switch {
		case tn.Sign() < 0:
			t = fixed.Zero
			s = ratioRaw(-c, a)
		case tn.Cmp(eScaled) > 0:
			t = fixed.One
			s = ratioRaw(b-c, a)
		default:
			t = fixed.Ratio(tn, eScaled)
		}
	}
	return l.PointAt(s), o.PointAt(t)
}
