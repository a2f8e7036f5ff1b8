package collision

import (
	"github.com/memmaker/lockstep/engine/fixed"
	"github.com/memmaker/lockstep/engine/vecmath"
)

// AABB is an axis-aligned box stored as center and half extents.
// Bounds are inclusive.
type AABB struct {
	center      vecmath.FixedVec3
	halfExtents vecmath.FixedVec3 // extend from the center to the max and min
}

func NewAABB(center, halfExtents vecmath.FixedVec3) AABB {
	return AABB{
		center:      center,
		halfExtents: halfExtents,
	}
}

func (a AABB) Min() vecmath.FixedVec3 {
	return a.center.Sub(a.halfExtents)
}

func (a AABB) Max() vecmath.FixedVec3 {
	return a.center.Add(a.halfExtents)
}

func (a AABB) Center() vecmath.FixedVec3 {
	return a.center
}

func (a AABB) HalfExtents() vecmath.FixedVec3 {
	return a.halfExtents
}

// MinkowskiDifference returns other ⊖ a. It contains the origin iff the boxes overlap.
func (a AABB) MinkowskiDifference(other AABB) AABB {
	return NewAABB(other.center.Sub(a.center), a.halfExtents.Add(other.halfExtents))
}

func (a AABB) Contains(p vecmath.FixedVec3) bool {
	minVal := a.Min()
	maxVal := a.Max()
	return minVal.X.LessEq(p.X) && p.X.LessEq(maxVal.X) &&
		minVal.Y.LessEq(p.Y) && p.Y.LessEq(maxVal.Y) &&
		minVal.Z.LessEq(p.Z) && p.Z.LessEq(maxVal.Z)
}

// ClosestPoint clamps p into the box.
func (a AABB) ClosestPoint(p vecmath.FixedVec3) vecmath.FixedVec3 {
	return p.Clamp(a.Min(), a.Max())
}

// exitAxis returns the face through which an interior point p leaves the box
// with the least travel: axis index, direction (+1 max face, -1 min face) and depth.
// Ties go to the lower axis, then to the min face.
func (a AABB) exitAxis(p vecmath.FixedVec3) (axis int, dir int, depth fixed.Fixed) {
	minVal, maxVal := a.Min(), a.Max()
	depth = fixed.MaxValue
	for i := 0; i < 3; i++ {
		if d := p.Axis(i).Sub(minVal.Axis(i)); d.Less(depth) {
			axis, dir, depth = i, -1, d
		}
		if d := maxVal.Axis(i).Sub(p.Axis(i)); d.Less(depth) {
			axis, dir, depth = i, 1, d
		}
	}
	return axis, dir, depth
}

// rotatedBounds returns the half extents of the axis-aligned box enclosing
// a box with half extents h rotated by q: |R|·h.
func rotatedBounds(q vecmath.FixedQuat, h vecmath.FixedVec3) vecmath.FixedVec3 {
	var out vecmath.FixedVec3
	for j := 0; j < 3; j++ {
		col := q.Rotate(vecmath.FixedVec3{}.WithAxis(j, h.Axis(j)))
		out = out.Add(vecmath.FixedVec3{X: col.X.Abs(), Y: col.Y.Abs(), Z: col.Z.Abs()})
	}
	return out
}
