package collision

import (
	"fmt"
	"math"
	"testing"

	"github.com/memmaker/lockstep/engine/fixed"
	"github.com/memmaker/lockstep/engine/vecmath"
	"github.com/pkg/errors"
)

func fx(s string) fixed.Fixed { return fixed.MustParse(s) }

func vec(x, y, z string) vecmath.FixedVec3 {
	return vecmath.FixedVec3{X: fx(x), Y: fx(y), Z: fx(z)}
}

func placed(s Shape, x, y, z string) *Shape {
	s.UpdateTransform(vecmath.TranslationTransform(vec(x, y, z)))
	return &s
}

func TestRecomputeOnlyOnChange(t *testing.T) {
	s := NewSphere(fixed.One)
	if s.Recomputations() != 0 {
		t.Fatalf("constructor counted %d recomputations", s.Recomputations())
	}
	s.UpdateTransform(vecmath.IdentityTransform())
	if s.Recomputations() != 0 {
		t.Fatal("identity update after construction recomputed the cache")
	}

	tr := vecmath.TranslationTransform(vecmath.FixedV3(1, 2, 3))
	s.UpdateTransform(tr)
	s.UpdateTransform(tr)
	if s.Recomputations() != 1 {
		t.Fatalf("two identical updates gave %d recomputations, want 1", s.Recomputations())
	}
	if got := s.WorldPoint(); got != vecmath.FixedV3(1, 3, 3) {
		t.Errorf("WorldPoint = %v", got)
	}
	if s.WorldSpaceTransform() != tr {
		t.Errorf("WorldSpaceTransform = %v", s.WorldSpaceTransform())
	}

	s.UpdateTransform(tr.WithPosition(vecmath.FixedV3(0, 0, 0)))
	if s.Recomputations() != 2 {
		t.Fatalf("changed transform gave %d recomputations, want 2", s.Recomputations())
	}
}

func TestWorldGeometry(t *testing.T) {
	c := NewCapsule(fixed.One, fixed.FromInt(10))
	if got := c.WorldLine(); got.Start != vecmath.FixedV3(0, 1, 0) || got.End != vecmath.FixedV3(0, 11, 0) {
		t.Fatalf("identity capsule line = %v", got)
	}
	c.UpdateTransform(vecmath.TranslationTransform(vecmath.FixedV3(5, 0, -5)))
	if got := c.WorldLine(); got.Start != vecmath.FixedV3(5, 1, -5) || got.End != vecmath.FixedV3(5, 11, -5) {
		t.Fatalf("translated capsule line = %v", got)
	}

	b := NewAabb(vecmath.FixedV3(2, 1, 1))
	if got := b.WorldBox(); got.Min() != vecmath.FixedV3(-2, 0, -1) || got.Max() != vecmath.FixedV3(2, 2, 1) {
		t.Fatalf("identity box = %v..%v", got.Min(), got.Max())
	}

	tbl := fixed.NewTable()
	quarter := vecmath.QuatFromAxisAngle(tbl, vecmath.FixedV3(0, 1, 0), fixed.Degrees(90))
	b.UpdateTransform(vecmath.IdentityTransform().WithRotation(quarter))
	h := b.WorldBox().HalfExtents()
	want := [3]float64{1, 1, 2}
	for i, w := range want {
		if math.Abs(h.Axis(i).Float64()-w) > 1e-3 {
			t.Errorf("rotated half extents = %v, want %v", h, want)
			break
		}
	}
}

func TestSphereSphere(t *testing.T) {
	small := placed(NewSphere(fixed.One), "0", "-1", "0")
	big := placed(NewSphere(fixed.FromInt(2)), "2.5", "-2", "0")
	if small.WorldPoint() != vecmath.FixedV3(0, 0, 0) || big.WorldPoint() != vec("2.5", "0", "0") {
		t.Fatalf("centers %v %v", small.WorldPoint(), big.WorldPoint())
	}

	m, ok, err := Colliding(small, big)
	if err != nil || !ok {
		t.Fatalf("Colliding = %v, %v", ok, err)
	}
	if m.Penetration != fx("0.5") {
		t.Errorf("penetration = %s, want 0.5", m.Penetration)
	}
	if m.Normal != vecmath.FixedV3(1, 0, 0) {
		t.Errorf("normal = %v, want (1,0,0)", m.Normal)
	}

	far := placed(NewSphere(fixed.FromInt(2)), "4", "-2", "0")
	if _, ok, _ := Colliding(small, far); ok {
		t.Error("spheres at distance 4 with radii 1 and 2 collided")
	}

	touching := placed(NewSphere(fixed.FromInt(2)), "3", "-2", "0")
	if _, ok, _ := Colliding(small, touching); ok {
		t.Error("touching spheres reported a contact")
	}
}

func TestConcentricSpheres(t *testing.T) {
	a := placed(NewSphere(fixed.One), "0", "-1", "0")
	b := placed(NewSphere(fixed.FromInt(2)), "0", "-2", "0")
	m, ok, err := Colliding(a, b)
	if err != nil || !ok {
		t.Fatalf("Colliding = %v, %v", ok, err)
	}
	if m.Penetration != fixed.FromInt(3) {
		t.Errorf("penetration = %s", m.Penetration)
	}
	if m.Normal.Y.Abs() != fixed.One || m.Normal.X != fixed.Zero || m.Normal.Z != fixed.Zero {
		t.Errorf("normal = %v, want ±Y", m.Normal)
	}
}

func TestSphereCapsule(t *testing.T) {
	capsule := placed(NewCapsule(fixed.One, fixed.FromInt(10)), "0", "-1", "0")
	line := capsule.WorldLine()
	if line.Start != vecmath.FixedV3(0, 0, 0) || line.End != vecmath.FixedV3(0, 10, 0) {
		t.Fatalf("capsule line = %v", line)
	}

	query := vecmath.FixedV3(0, -10, 0)
	if got, want := capsule.ClosestCorePoint(query), line.ClosestPoint(query); got != want || got != line.Start {
		t.Fatalf("closest point = %v, want %v", got, want)
	}

	far := placed(NewSphere(fixed.One), "0", "-11", "0")
	if _, ok, _ := Colliding(far, capsule); ok {
		t.Error("sphere 10 units below the capsule collided")
	}

	near := placed(NewSphere(fixed.One), "0", "-2.5", "0")
	m, ok, err := Colliding(near, capsule)
	if err != nil || !ok {
		t.Fatalf("Colliding = %v, %v", ok, err)
	}
	if m.Penetration != fx("0.5") || m.Normal != vecmath.FixedV3(0, 1, 0) {
		t.Errorf("manifold = %+v", m)
	}

	side := placed(NewSphere(fixed.One), "1.5", "4", "0")
	m, ok, _ = Colliding(capsule, side)
	if !ok || m.Penetration != fx("0.5") || m.Normal != vecmath.FixedV3(1, 0, 0) {
		t.Errorf("capsule vs side sphere = %+v, %v", m, ok)
	}
}

func TestCapsuleCapsule(t *testing.T) {
	a := placed(NewCapsule(fx("0.5"), fixed.FromInt(4)), "0", "0", "0")
	b := placed(NewCapsule(fx("0.5"), fixed.FromInt(4)), "0.75", "2", "0")
	m, ok, err := Colliding(a, b)
	if err != nil || !ok {
		t.Fatalf("Colliding = %v, %v", ok, err)
	}
	if m.Penetration != fx("0.25") || m.Normal != vecmath.FixedV3(1, 0, 0) {
		t.Errorf("manifold = %+v", m)
	}

	c := placed(NewCapsule(fx("0.5"), fixed.FromInt(4)), "0", "4.5", "0")
	m, ok, _ = Colliding(a, c)
	if !ok || m.Penetration != fx("0.5") || m.Normal != vecmath.FixedV3(0, 1, 0) {
		t.Errorf("stacked capsules = %+v, %v", m, ok)
	}
}

func TestAabbPairs(t *testing.T) {
	unit := vecmath.FixedV3(1, 1, 1)
	box := placed(NewAabb(unit), "0", "0", "0")

	tests := []struct {
		name        string
		other       *Shape
		ok          bool
		penetration string
		normal      vecmath.FixedVec3
	}{
		{"overlapping boxes", placed(NewAabb(unit), "1.5", "0", "0"), true, "0.5", vecmath.FixedV3(1, 0, 0)},
		{"box below", placed(NewAabb(unit), "0.5", "-1.75", "0.25"), true, "0.25", vecmath.FixedV3(0, -1, 0)},
		{"touching boxes", placed(NewAabb(unit), "2", "0", "0"), false, "", vecmath.FixedVec3{}},
		{"sphere beside", placed(NewSphere(fixed.One), "1.5", "0", "0"), true, "0.5", vecmath.FixedV3(1, 0, 0)},
		{"sphere far", placed(NewSphere(fixed.One), "2.5", "0", "0"), false, "", vecmath.FixedVec3{}},
		{"sphere center inside", placed(NewSphere(fixed.One), "0.25", "0", "0"), true, "1.75", vecmath.FixedV3(1, 0, 0)},
		{"capsule beside", placed(NewCapsule(fx("0.5"), fixed.FromInt(4)), "1.25", "0", "0"), true, "0.25", vecmath.FixedV3(1, 0, 0)},
		{"capsule above", placed(NewCapsule(fx("0.5"), fixed.FromInt(4)), "0", "2", "0"), false, "", vecmath.FixedVec3{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok, err := Colliding(box, tt.other)
			if err != nil {
				t.Fatal(err)
			}
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v (manifold %+v)", ok, tt.ok, m)
			}
			if !ok {
				return
			}
			if m.Penetration != fx(tt.penetration) || m.Normal != tt.normal {
				t.Errorf("manifold = %+v, want %s along %v", m, tt.penetration, tt.normal)
			}
		})
	}
}

func TestCollidingIsSymmetric(t *testing.T) {
	tbl := fixed.NewTable()
	tilted := NewCapsule(fx("0.5"), fixed.FromInt(3))
	tilted.UpdateTransform(vecmath.NewTransform(
		vec("0.5", "0", "0.25"),
		vecmath.QuatFromAxisAngle(tbl, vecmath.FixedV3(0, 0, 1), fixed.Degrees(-60)),
		vecmath.FixedV3(1, 1, 1),
	))
	turned := NewAabb(vec("1.5", "0.5", "0.75"))
	turned.UpdateTransform(vecmath.NewTransform(
		vec("-0.5", "0.5", "0"),
		vecmath.QuatFromAxisAngle(tbl, vecmath.FixedV3(0, 1, 0), fixed.Degrees(30)),
		vecmath.FixedV3(1, 1, 1),
	))

	shapes := []*Shape{
		placed(NewSphere(fixed.One), "0", "0", "0"),
		placed(NewSphere(fx("0.75")), "1", "0.5", "0"),
		placed(NewSphere(fx("0.5")), "0", "0", "0"),
		placed(NewCapsule(fx("0.5"), fixed.FromInt(2)), "0.25", "-1", "0.5"),
		placed(NewCapsule(fx("0.25"), fixed.FromInt(4)), "-1", "-2", "0"),
		&tilted,
		placed(NewAabb(vecmath.FixedV3(1, 1, 1)), "0.5", "-0.5", "0"),
		placed(NewAabb(vec("0.5", "2", "0.5")), "-0.75", "-1", "0.25"),
		&turned,
		placed(NewSphere(fixed.One), "40", "0", "0"),
		placed(NewSphere(fixed.FromInt(150)), "300", "0", "0"),
		placed(NewSphere(fixed.FromInt(120)), "520", "40", "10"),
		placed(NewCapsule(fixed.FromInt(100), fixed.FromInt(25)), "310", "90", "180"),
		placed(NewAabb(vecmath.FixedV3(200, 50, 200)), "400", "-60", "100"),
	}
	for i, a := range shapes {
		for j, b := range shapes {
			if i == j {
				continue
			}
			t.Run(fmt.Sprintf("%d-%s_vs_%d-%s", i, a.Kind(), j, b.Kind()), func(t *testing.T) {
				ab, okAB, err := Colliding(a, b)
				if err != nil {
					t.Fatal(err)
				}
				ba, okBA, err := b.Colliding(a)
				if err != nil {
					t.Fatal(err)
				}
				if okAB != okBA {
					t.Fatalf("Colliding(a,b)=%v but Colliding(b,a)=%v", okAB, okBA)
				}
				if !okAB {
					return
				}
				if ab.Penetration != ba.Penetration || ab.Normal != ba.Normal.Neg() {
					t.Fatalf("asymmetric manifolds %+v and %+v", ab, ba)
				}
				if ab.Penetration.Sign() < 0 {
					t.Fatalf("negative penetration %s", ab.Penetration)
				}
				if l := ab.Normal.Len().Float64(); math.Abs(l-1) > 1e-3 {
					t.Fatalf("|normal| = %v for %v", l, ab.Normal)
				}
			})
		}
	}
}

func near(a vecmath.FixedVec3, x, y, z, eps float64) bool {
	return math.Abs(a.X.Float64()-x) <= eps && math.Abs(a.Y.Float64()-y) <= eps && math.Abs(a.Z.Float64()-z) <= eps
}

func TestLargeShapes(t *testing.T) {
	tbl := fixed.NewTable()
	crossing := NewCapsule(fixed.One, fixed.FromInt(20))
	crossing.UpdateTransform(vecmath.NewTransform(
		vec("10", "11", "1.5"),
		vecmath.QuatFromAxisAngle(tbl, vecmath.FixedV3(0, 0, 1), fixed.Degrees(90)),
		vecmath.FixedV3(1, 1, 1),
	))

	tests := []struct {
		name       string
		a, b       *Shape
		ok         bool
		pen        float64
		nx, ny, nz float64
	}{
		{
			"spheres of radius 150",
			placed(NewSphere(fixed.FromInt(150)), "0", "0", "0"),
			placed(NewSphere(fixed.FromInt(150)), "250", "0", "0"),
			true, 50, 1, 0, 0,
		},
		{
			"spheres just apart",
			placed(NewSphere(fixed.FromInt(100)), "0", "0", "0"),
			placed(NewSphere(fixed.FromInt(85)), "198.5", "15", "0"),
			false, 0, 0, 0, 0,
		},
		{
			"spheres overlapping diagonally",
			placed(NewSphere(fixed.FromInt(110)), "0", "0", "0"),
			placed(NewSphere(fixed.FromInt(100)), "120", "10", "160"),
			true, 10, 0.6, 0, 0.8,
		},
		{
			"sphere beside a long capsule",
			placed(NewSphere(fixed.FromInt(100)), "140", "200", "0"),
			placed(NewCapsule(fixed.FromInt(50), fixed.FromInt(400)), "0", "0", "0"),
			true, 10, -1, 0, 0,
		},
		{
			"capsules of length 20 crossing",
			placed(NewCapsule(fixed.One, fixed.FromInt(20)), "0", "0", "0"),
			&crossing,
			true, 0.5, 0, 0, 1,
		},
		{
			"sphere resting in a wide box",
			placed(NewSphere(fixed.FromInt(120)), "0", "80", "0"),
			placed(NewAabb(vecmath.FixedV3(200, 50, 200)), "0", "0", "0"),
			true, 20, 0, -1, 0,
		},
		{
			"tall capsule touching down on a wide box",
			placed(NewCapsule(fixed.One, fixed.FromInt(30)), "50", "99.5", "50"),
			placed(NewAabb(vecmath.FixedV3(200, 50, 200)), "0", "0", "0"),
			true, 0.5, 0, -1, 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok, err := Colliding(tt.a, tt.b)
			if err != nil {
				t.Fatal(err)
			}
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v (%+v)", ok, tt.ok, m)
			}
			if !ok {
				return
			}
			if math.Abs(m.Penetration.Float64()-tt.pen) > 1e-3 {
				t.Errorf("penetration = %s, want %v", m.Penetration, tt.pen)
			}
			if !near(m.Normal, tt.nx, tt.ny, tt.nz, 1e-3) {
				t.Errorf("normal = %v, want (%v, %v, %v)", m.Normal, tt.nx, tt.ny, tt.nz)
			}
			if l := m.Normal.Len().Float64(); math.Abs(l-1) > 1e-3 {
				t.Errorf("|normal| = %v", l)
			}
		})
	}
}

func TestIdenticalShapesMirrorWithTags(t *testing.T) {
	a := placed(NewSphere(fixed.One), "3", "0", "3")
	b := placed(NewSphere(fixed.One), "3", "0", "3")

	ab, ok, err := CollidingTagged(a, 4, b, 9)
	if err != nil || !ok {
		t.Fatalf("CollidingTagged = %v, %v", ok, err)
	}
	ba, _, _ := CollidingTagged(b, 9, a, 4)
	if ab.Normal != ba.Normal.Neg() || ab.Penetration != ba.Penetration {
		t.Fatalf("tagged manifolds do not mirror: %+v and %+v", ab, ba)
	}
	if ab.Normal != vecmath.FixedV3(0, 1, 0) {
		t.Errorf("lower tag first should see +Y, got %v", ab.Normal)
	}

	untagged, _, _ := Colliding(b, a)
	if untagged.Normal != vecmath.FixedV3(0, 1, 0) {
		t.Errorf("untagged identical shapes = %v, want +Y", untagged.Normal)
	}
}

func TestUnsupportedPair(t *testing.T) {
	var none Shape
	sphere := NewSphere(fixed.One)
	_, ok, err := Colliding(&none, &sphere)
	if ok || !errors.Is(err, ErrUnsupportedShapePair) {
		t.Fatalf("Colliding(None, Sphere) = %v, %v", ok, err)
	}
	_, _, err = Colliding(&sphere, &none)
	if !errors.Is(err, ErrUnsupportedShapePair) {
		t.Fatalf("Colliding(Sphere, None) error = %v", err)
	}
}

func TestContainsPoint(t *testing.T) {
	sphere := NewSphere(fixed.One)
	capsule := NewCapsule(fixed.One, fixed.FromInt(10))
	box := NewAabb(vecmath.FixedV3(1, 1, 1))
	big := NewSphere(fixed.FromInt(300))

	tests := []struct {
		name  string
		shape *Shape
		p     vecmath.FixedVec3
		want  bool
	}{
		{"sphere center", &sphere, vecmath.FixedV3(0, 1, 0), true},
		{"sphere surface", &sphere, vecmath.FixedV3(0, 2, 0), true},
		{"sphere outside", &sphere, vec("0", "2.01", "0"), false},
		{"sphere far away", &sphere, vecmath.FixedV3(900, 0, 0), false},
		{"capsule axis", &capsule, vecmath.FixedV3(0, 6, 0), true},
		{"capsule side surface", &capsule, vecmath.FixedV3(1, 6, 0), true},
		{"capsule cap", &capsule, vec("0", "11.5", "0.5"), true},
		{"capsule beyond cap", &capsule, vecmath.FixedV3(0, 13, 0), false},
		{"box corner", &box, vecmath.FixedV3(1, 2, -1), true},
		{"box outside", &box, vec("1", "2.001", "0"), false},
		{"large sphere surface", &big, vecmath.FixedV3(180, 540, 0), true},
		{"large sphere just outside", &big, vec("180", "540.01", "0"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.shape.ContainsPoint(tt.p); got != tt.want {
				t.Fatalf("ContainsPoint(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	var none Shape
	negative := NewSphere(fixed.FromInt(-1))
	flat := NewAabb(vecmath.FixedV3(1, 0, 1))
	for _, s := range []*Shape{&none, &negative} {
		if err := s.Validate(); !errors.Is(err, ErrInvalidShape) {
			t.Errorf("Validate(%s) = %v", s.Kind(), err)
		}
	}
	if err := flat.Validate(); err != nil {
		t.Errorf("zero-height box rejected: %v", err)
	}
}

// execute with: go test -bench=. -test.benchmem
func BenchmarkCollidingCapsules(b *testing.B) {
	a := placed(NewCapsule(fx("0.5"), fixed.FromInt(4)), "0", "0", "0")
	c := placed(NewCapsule(fx("0.5"), fixed.FromInt(4)), "0.75", "2", "0.5")
	for i := 0; i < b.N; i++ {
		_, _, _ = Colliding(a, c)
	}
}

func BenchmarkCollidingCapsuleAabb(b *testing.B) {
	a := placed(NewCapsule(fx("0.5"), fixed.FromInt(4)), "1.25", "0", "0")
	c := placed(NewAabb(vecmath.FixedV3(1, 1, 1)), "0", "0", "0")
	for i := 0; i < b.N; i++ {
		_, _, _ = Colliding(a, c)
	}
}
