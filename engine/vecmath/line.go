package vecmath

import (
	"github.com/memmaker/lockstep/engine/fixed"
)

// Line is a segment from Start to End.
type Line[N fixed.Number[N]] struct {
	Start Vec3[N] `json:"start"`
	End   Vec3[N] `json:"end"`
}

type FixedLine = Line[fixed.Fixed]

func (l Line[N]) Direction() Vec3[N] { return l.End.Sub(l.Start) }
func (l Line[N]) Length() N          { return l.Direction().Len() }

// PointAt returns Start + t*(End-Start).
func (l Line[N]) PointAt(t N) Vec3[N] {
	return l.Start.Add(l.Direction().Scale(t))
}

func clamp01[N fixed.Number[N]](t N) N {
	var zero N
	one := zero.FromInt(1)
	if t.Less(zero) {
		return zero
	}
	if one.Less(t) {
		return one
	}
	return t
}

// ratio returns num/den clamped to [0,1]; den must be non-zero.
func ratio[N fixed.Number[N]](num, den N) N {
	t, err := num.Div(den)
	if err != nil {
		var zero N
		return zero
	}
	return clamp01(t)
}

// ClosestPoint projects p onto the segment with the parameter clamped to [0,1].
// A degenerate segment returns Start.
func (l Line[N]) ClosestPoint(p Vec3[N]) Vec3[N] {
	if fl, ok := any(l).(FixedLine); ok {
		return any(closestPointWide(fl, any(p).(FixedVec3))).(Vec3[N])
	}
	ab := l.Direction()
	denom := ab.LenSquared()
	if denom.IsZero() {
		return l.Start
	}
	return l.Start.Add(ab.Scale(ratio(p.Sub(l.Start).Dot(ab), denom)))
}

// ClosestPoints returns the pair of points, one on each segment, with minimal
// distance. For parallel segments the search starts from s=0 on l, which keeps
// the chosen pair deterministic.
func (l Line[N]) ClosestPoints(o Line[N]) (Vec3[N], Vec3[N]) {
	if fl, ok := any(l).(FixedLine); ok {
		pa, pb := closestPointsWide(fl, any(o).(FixedLine))
		return any(pa).(Vec3[N]), any(pb).(Vec3[N])
	}
	var zero N
	one := zero.FromInt(1)

	d1 := l.Direction()
	d2 := o.Direction()
	r := l.Start.Sub(o.Start)
	a := d1.LenSquared()
	e := d2.LenSquared()
	f := d2.Dot(r)

	var s, t N
	switch {
	case a.IsZero() && e.IsZero():
		return l.Start, o.Start
	case a.IsZero():
		t = ratio(f, e)
	default:
		c := d1.Dot(r)
		if e.IsZero() {
			s = ratio(c.Neg(), a)
			break
		}
		b := d1.Dot(d2)
		denom := a.Mul(e).Sub(b.Mul(b))
		if !denom.IsZero() {
			s = ratio(b.Mul(f).Sub(c.Mul(e)), denom)
		}
		tn := b.Mul(s).Add(f)
		switch {
		case tn.Less(zero):
			t = zero
			s = ratio(c.Neg(), a)
		case e.Less(tn):
			t = one
			s = ratio(b.Sub(c), a)
		default:
			t, _ = tn.Div(e)
		}
	}
	return l.PointAt(s), o.PointAt(t)
}
