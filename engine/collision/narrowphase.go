package collision

import (
	"fmt"

	"github.com/memmaker/lockstep/engine/fixed"
	"github.com/memmaker/lockstep/engine/util"
	"github.com/memmaker/lockstep/engine/vecmath"
	"github.com/pkg/errors"
)

// Manifold describes an overlap. Normal is unit length and points from the
// first shape toward the second; Penetration is never negative.
type Manifold struct {
	Penetration fixed.Fixed       `json:"penetration"`
	Normal      vecmath.FixedVec3 `json:"normal"`
}

// Flipped is the same contact seen from the other shape.
func (m Manifold) Flipped() Manifold {
	return Manifold{Penetration: m.Penetration, Normal: m.Normal.Neg()}
}

type pairTest func(a, b *Shape) (Manifold, bool)

// dispatch holds canonical pairs only (row kind <= column kind).
var dispatch = [kindCount][kindCount]pairTest{
	KindSphere: {
		KindSphere:  sphereSphere,
		KindCapsule: sphereCapsule,
		KindAabb:    sphereAabb,
	},
	KindCapsule: {
		KindCapsule: capsuleCapsule,
		KindAabb:    capsuleAabb,
	},
	KindAabb: {
		KindAabb: aabbAabb,
	},
}

// Colliding tests a against b. The manifold normal points from a toward b.
//
// Pairs are reordered into canonical order before testing and the normal is
// negated when a swap happened, so Colliding(b, a) is the exact mirror of
// Colliding(a, b). Same-kind pairs are ordered by their world geometry.
// Two geometrically identical shapes cannot be told apart and both orders
// report +Y; use CollidingTagged when the caller has stable identities.
func Colliding(a, b *Shape) (Manifold, bool, error) {
	return CollidingTagged(a, 0, b, 0)
}

// CollidingTagged is Colliding with a tie-break for geometrically identical
// shapes: the one with the lower tag goes first. With distinct tags the two
// call orders always mirror each other exactly.
func CollidingTagged(a *Shape, tagA int, b *Shape, tagB int) (Manifold, bool, error) {
	first, second, swapped := a, b, false
	if canonicalAfter(a, tagA, b, tagB) {
		first, second, swapped = b, a, true
	}
	var test pairTest
	if first.kind < kindCount && second.kind < kindCount {
		test = dispatch[first.kind][second.kind]
	}
	if test == nil {
		util.LogCollisionError(fmt.Sprintf("no collision test for %s vs %s", a.kind, b.kind))
		return Manifold{}, false, errors.Wrapf(ErrUnsupportedShapePair, "%s vs %s", a.kind, b.kind)
	}
	m, ok := test(first, second)
	if ok && swapped {
		m = m.Flipped()
	}
	return m, ok, nil
}

func (s *Shape) Colliding(other *Shape) (Manifold, bool, error) {
	return Colliding(s, other)
}

// canonicalAfter reports whether b must be tested before a.
func canonicalAfter(a *Shape, tagA int, b *Shape, tagB int) bool {
	if a.kind != b.kind {
		return b.kind < a.kind
	}
	if c := compareKeys(b.key(), a.key()); c != 0 {
		return c < 0
	}
	return tagB < tagA
}

func sphereSphere(a, b *Shape) (Manifold, bool) {
	return pointsOverlap(a.point, a.radius, b.point, b.radius)
}

func sphereCapsule(a, b *Shape) (Manifold, bool) {
	return pointsOverlap(a.point, a.radius, b.line.ClosestPoint(a.point), b.radius)
}

func capsuleCapsule(a, b *Shape) (Manifold, bool) {
	pa, pb := a.line.ClosestPoints(b.line)
	return pointsOverlap(pa, a.radius, pb, b.radius)
}

func sphereAabb(a, b *Shape) (Manifold, bool) {
	return pointBox(a.point, a.radius, b.box)
}

func capsuleAabb(a, b *Shape) (Manifold, bool) {
	return pointBox(segmentPointNearestBox(a.line, b.box), a.radius, b.box)
}

func aabbAabb(a, b *Shape) (Manifold, bool) {
	m := a.box.MinkowskiDifference(b.box)
	axis := -1
	penetration := fixed.MaxValue
	for i := 0; i < 3; i++ {
		overlap := m.halfExtents.Axis(i).Sub(m.center.Axis(i).Abs())
		if overlap.Sign() <= 0 {
			return Manifold{}, false
		}
		if overlap.Less(penetration) {
			axis, penetration = i, overlap
		}
	}
	n := fixed.One
	if m.center.Axis(axis).Sign() < 0 {
		n = n.Neg()
	}
	return Manifold{Penetration: penetration, Normal: vecmath.FixedVec3{}.WithAxis(axis, n)}, true
}

// pointsOverlap treats c1 and c2 as the centers of two spheres. The normal
// runs from c1 to c2; concentric centers get +Y.
func pointsOverlap(c1 vecmath.FixedVec3, r1 fixed.Fixed, c2 vecmath.FixedVec3, r2 fixed.Fixed) (Manifold, bool) {
	r := r1.Add(r2)
	delta := c2.Sub(c1)
	// per-axis reject before the square root
	if !delta.X.Abs().Less(r) || !delta.Y.Abs().Less(r) || !delta.Z.Abs().Less(r) {
		return Manifold{}, false
	}
	d := delta.Len()
	if !d.Less(r) {
		return Manifold{}, false
	}
	normal := vecmath.UnitY[fixed.Fixed]()
	if !delta.IsZero() {
		if n, err := delta.Normalize(); err == nil {
			normal = n
		}
	}
	return Manifold{Penetration: r.Sub(d), Normal: normal}, true
}

// pointBox tests a sphere (c, r) against box. The normal runs from the sphere to the box.
func pointBox(c vecmath.FixedVec3, r fixed.Fixed, box AABB) (Manifold, bool) {
	q := box.ClosestPoint(c)
	if q != c {
		return pointsOverlap(c, r, q, fixed.Zero)
	}
	// center inside: push out through the nearest face
	axis, dir, depth := box.exitAxis(c)
	n := fixed.FromInt(int32(-dir))
	return Manifold{
		Penetration: r.Add(depth),
		Normal:      vecmath.FixedVec3{}.WithAxis(axis, n),
	}, true
}

const ternaryIterations = 40

// segmentPointNearestBox minimizes the distance from the segment to box over
// the raw parameter t in [0, 1]. The distance is convex in t, so a ternary
// search converges; ties keep the lower parameter.
func segmentPointNearestBox(l vecmath.FixedLine, box AABB) vecmath.FixedVec3 {
	lo, hi := int32(0), fixed.One.Raw()
	for i := 0; i < ternaryIterations && hi-lo > 2; i++ {
		third := (hi - lo) / 3
		m1, m2 := lo+third, hi-third
		if boxDistance(l.PointAt(fixed.FromRaw(m1)), box).Cmp(boxDistance(l.PointAt(fixed.FromRaw(m2)), box)) <= 0 {
			hi = m2
		} else {
			lo = m1
		}
	}
	best := l.PointAt(fixed.FromRaw(lo))
	bestDist := boxDistance(best, box)
	for t := lo + 1; t <= hi; t++ {
		p := l.PointAt(fixed.FromRaw(t))
		if d := boxDistance(p, box); d.Cmp(bestDist) < 0 {
			best, bestDist = p, d
		}
	}
	return best
}

// boxDistance is the squared distance from p to box in raw units, exact in 128 bits.
func boxDistance(p vecmath.FixedVec3, box AABB) fixed.Wide {
	minVal, maxVal := box.Min(), box.Max()
	var d fixed.Wide
	for i := 0; i < 3; i++ {
		v := int64(p.Axis(i).Raw())
		var excess int64
		if lo := int64(minVal.Axis(i).Raw()); v < lo {
			excess = lo - v
		} else if hi := int64(maxVal.Axis(i).Raw()); v > hi {
			excess = v - hi
		}
		d = d.Add(fixed.MulWide(excess, excess))
	}
	return d
}
