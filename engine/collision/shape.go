package collision

import (
	"fmt"

	"github.com/memmaker/lockstep/engine/fixed"
	"github.com/memmaker/lockstep/engine/util"
	"github.com/memmaker/lockstep/engine/vecmath"
	"github.com/pkg/errors"
)

type Kind uint8

const (
	KindNone Kind = iota
	KindSphere
	KindCapsule
	KindAabb
	kindCount
)

func (k Kind) String() string {
	switch k {
	case KindSphere:
		return "Sphere"
	case KindCapsule:
		return "Capsule"
	case KindAabb:
		return "Aabb"
	}
	return "None"
}

// Shape is a closed union over Sphere, Capsule and Aabb.
//
// Every shape rests on the entity origin with local up = +Y:
//   - Sphere: center (0, r, 0)
//   - Capsule: core segment (0, r, 0) to (0, r+length, 0)
//   - Aabb: box centered at (0, half.Y, 0)
//
// World-space geometry is cached for exactly the transform stored in previous.
// The zero value is KindNone, which collides with nothing and reports an error.
type Shape struct {
	kind        Kind
	radius      fixed.Fixed
	length      fixed.Fixed
	halfExtents vecmath.FixedVec3

	point vecmath.FixedVec3
	line  vecmath.FixedLine
	box   AABB

	previous       vecmath.Transform
	recomputations int
}

func NewSphere(radius fixed.Fixed) Shape {
	s := Shape{kind: KindSphere, radius: radius}
	s.recompute(vecmath.IdentityTransform())
	return s
}

// NewCapsule builds a capsule whose cylindrical part is length units tall.
func NewCapsule(radius, length fixed.Fixed) Shape {
	s := Shape{kind: KindCapsule, radius: radius, length: length}
	s.recompute(vecmath.IdentityTransform())
	return s
}

func NewAabb(halfExtents vecmath.FixedVec3) Shape {
	s := Shape{kind: KindAabb, halfExtents: halfExtents}
	s.recompute(vecmath.IdentityTransform())
	return s
}

func (s *Shape) Kind() Kind                     { return s.kind }
func (s *Shape) Radius() fixed.Fixed            { return s.radius }
func (s *Shape) Length() fixed.Fixed            { return s.length }
func (s *Shape) HalfExtents() vecmath.FixedVec3 { return s.halfExtents }

// Validate rejects unassigned shapes and negative dimensions.
func (s *Shape) Validate() error {
	switch s.kind {
	case KindSphere:
		if s.radius.Sign() < 0 {
			return errors.Wrapf(ErrInvalidShape, "sphere radius %s", s.radius)
		}
	case KindCapsule:
		if s.radius.Sign() < 0 || s.length.Sign() < 0 {
			return errors.Wrapf(ErrInvalidShape, "capsule radius %s length %s", s.radius, s.length)
		}
	case KindAabb:
		h := s.halfExtents
		if h.X.Sign() < 0 || h.Y.Sign() < 0 || h.Z.Sign() < 0 {
			return errors.Wrapf(ErrInvalidShape, "aabb half extents %v", h)
		}
	default:
		return errors.Wrap(ErrInvalidShape, "no shape assigned")
	}
	return nil
}

// UpdateTransform refreshes the cached world geometry if t differs from the
// transform it was computed for. Repeating the same transform is a no-op.
func (s *Shape) UpdateTransform(t vecmath.Transform) {
	if t == s.previous {
		return
	}
	s.recompute(t)
	s.recomputations++
	if util.LogEnabled(util.LogCollision, util.LogLevelDebug) {
		util.LogCollisionDebug(fmt.Sprintf("%s recomputed at %v (%d)", s.kind, t.Position, s.recomputations))
	}
}

func (s *Shape) recompute(t vecmath.Transform) {
	switch s.kind {
	case KindSphere:
		s.point = t.Apply(vecmath.FixedVec3{Y: s.radius})
	case KindCapsule:
		s.line = vecmath.FixedLine{
			Start: t.Apply(vecmath.FixedVec3{Y: s.radius}),
			End:   t.Apply(vecmath.FixedVec3{Y: s.radius.Add(s.length)}),
		}
	case KindAabb:
		center := t.Apply(vecmath.FixedVec3{Y: s.halfExtents.Y})
		s.box = NewAABB(center, rotatedBounds(t.Rotation, s.halfExtents))
	}
	s.previous = t
}

// Recomputations counts cache refreshes caused by UpdateTransform.
func (s *Shape) Recomputations() int { return s.recomputations }

func (s *Shape) WorldSpaceTransform() vecmath.Transform { return s.previous }

// WorldPoint is the sphere center.
func (s *Shape) WorldPoint() vecmath.FixedVec3 { return s.point }

// WorldLine is the capsule core segment.
func (s *Shape) WorldLine() vecmath.FixedLine { return s.line }

func (s *Shape) WorldBox() AABB { return s.box }

// ClosestCorePoint returns the point of the shape's core (sphere center,
// capsule segment, box volume) nearest to p.
func (s *Shape) ClosestCorePoint(p vecmath.FixedVec3) vecmath.FixedVec3 {
	switch s.kind {
	case KindSphere:
		return s.point
	case KindCapsule:
		return s.line.ClosestPoint(p)
	case KindAabb:
		return s.box.ClosestPoint(p)
	}
	return p
}

// ContainsPoint uses inclusive bounds: on the surface counts as inside.
func (s *Shape) ContainsPoint(p vecmath.FixedVec3) bool {
	switch s.kind {
	case KindSphere:
		return withinRadius(p.Sub(s.point), s.radius)
	case KindCapsule:
		return withinRadius(p.Sub(s.line.ClosestPoint(p)), s.radius)
	case KindAabb:
		return s.box.Contains(p)
	}
	return false
}

// withinRadius reports |d| <= r exactly, comparing squares in 128 bits.
func withinRadius(d vecmath.FixedVec3, r fixed.Fixed) bool {
	if r.Less(d.X.Abs()) || r.Less(d.Y.Abs()) || r.Less(d.Z.Abs()) {
		return false
	}
	sq := func(f fixed.Fixed) fixed.Wide { return fixed.MulWide(int64(f.Raw()), int64(f.Raw())) }
	return sq(d.X).Add(sq(d.Y)).Add(sq(d.Z)).Cmp(sq(r)) <= 0
}

// key orders shapes of the same kind; see Colliding.
func (s *Shape) key() [8]int32 {
	switch s.kind {
	case KindSphere:
		return [8]int32{s.point.X.Raw(), s.point.Y.Raw(), s.point.Z.Raw(), s.radius.Raw()}
	case KindCapsule:
		a, b := s.line.Start, s.line.End
		return [8]int32{a.X.Raw(), a.Y.Raw(), a.Z.Raw(), b.X.Raw(), b.Y.Raw(), b.Z.Raw(), s.radius.Raw(), s.length.Raw()}
	case KindAabb:
		c, h := s.box.center, s.box.halfExtents
		return [8]int32{c.X.Raw(), c.Y.Raw(), c.Z.Raw(), h.X.Raw(), h.Y.Raw(), h.Z.Raw()}
	}
	return [8]int32{}
}

func compareKeys(a, b [8]int32) int {
	for i := range a {
		if a[i] < b[i] {
			return -1
		}
		if a[i] > b[i] {
			return 1
		}
	}
	return 0
}
