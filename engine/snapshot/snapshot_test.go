package snapshot

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/memmaker/lockstep/engine/collision"
	"github.com/memmaker/lockstep/engine/fixed"
	"github.com/memmaker/lockstep/engine/vecmath"
	"github.com/memmaker/lockstep/engine/wire"
	"github.com/memmaker/lockstep/engine/world"
	"github.com/pkg/errors"
)

func scene(t *testing.T) *world.Simulation {
	t.Helper()
	cfg := world.DefaultConfig()
	cfg.MaxEntities = 16
	sim, err := world.NewSimulation(cfg)
	if err != nil {
		t.Fatal(err)
	}
	tbl := fixed.NewTable()
	tilt := vecmath.QuatFromAxisAngle(tbl, vecmath.FixedV3(1, 0, 0), fixed.Degrees(20))

	capsule := collision.NewCapsule(fixed.Half, fixed.FromInt(2))
	capsule.UpdateTransform(vecmath.NewTransform(vecmath.FixedV3(20, 40, 20), tilt, vecmath.FixedV3(1, 1, 1)))
	steps := []struct {
		slot  int
		shape collision.Shape
	}{
		{0, collision.NewSphere(fixed.One)},
		{3, capsule},
		{7, collision.NewAabb(vecmath.FixedV3(2, 1, 2))},
	}
	for _, s := range steps {
		if err := sim.SetShape(s.slot, s.shape); err != nil {
			t.Fatal(err)
		}
	}
	_ = sim.SpawnParticle(0, vecmath.FixedV3(20, 30, 20), vecmath.FixedV3(0, 1, 0), fixed.One)
	_ = sim.SpawnParticle(3, vecmath.FixedV3(21, 34, 20), vecmath.FixedVec3{}, fixed.Half)
	_ = sim.SpawnParticle(9, vecmath.FixedV3(5, 5, 5), vecmath.FixedV3(1, 0, 0), fixed.Zero)
	for i := 0; i < 30; i++ {
		if _, err := sim.Step(); err != nil {
			t.Fatal(err)
		}
	}
	return sim
}

func TestEncodeDecode(t *testing.T) {
	crc := wire.NewCRCTable()
	snap := Capture(scene(t))
	if len(snap.Entities) != 4 || snap.Tick != 30 {
		t.Fatalf("captured %d entities at tick %d", len(snap.Entities), snap.Tick)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, snap, crc); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(bytes.NewReader(buf.Bytes()), crc)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(got, snap) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, snap)
	}
}

func TestDecodeRejectsCorruption(t *testing.T) {
	crc := wire.NewCRCTable()
	var buf bytes.Buffer
	if err := Encode(&buf, Capture(scene(t)), crc); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()
	data[len(data)/2] ^= 0x40
	if _, err := Decode(bytes.NewReader(data), crc); !errors.Is(err, wire.ErrChecksum) {
		t.Fatalf("Decode corrupted = %v", err)
	}
	if _, err := Decode(bytes.NewReader(nil), crc); !errors.Is(err, wire.ErrShortBuffer) {
		t.Fatalf("Decode empty = %v", err)
	}
}

func TestRestoreReplaysIdentically(t *testing.T) {
	crc := wire.NewCRCTable()
	original := scene(t)
	snap := Capture(original)

	restored, err := world.NewSimulation(original.Config())
	if err != nil {
		t.Fatal(err)
	}
	if err := Restore(restored, snap); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if restored.Tick() != original.Tick() {
		t.Fatalf("tick %d, want %d", restored.Tick(), original.Tick())
	}

	for i := 0; i < 60; i++ {
		if _, err := original.Step(); err != nil {
			t.Fatal(err)
		}
		if _, err := restored.Step(); err != nil {
			t.Fatal(err)
		}
		want, err := Digest(Capture(original), crc)
		if err != nil {
			t.Fatal(err)
		}
		got, err := Digest(Capture(restored), crc)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Fatalf("tick %d: digest %08x, want %08x", original.Tick(), got, want)
		}
	}
}

func TestRestoreValidates(t *testing.T) {
	cfg := world.DefaultConfig()
	cfg.MaxEntities = 2
	sim, err := world.NewSimulation(cfg)
	if err != nil {
		t.Fatal(err)
	}
	snap := Snapshot{Version: FormatVersion + 1}
	if err := Restore(sim, snap); !errors.Is(err, ErrVersion) {
		t.Errorf("future version = %v", err)
	}
	snap = Snapshot{Version: FormatVersion, Entities: []Entity{{Slot: 5}}}
	if err := Restore(sim, snap); !errors.Is(err, ErrMismatch) {
		t.Errorf("slot past capacity = %v", err)
	}
	snap = Snapshot{Version: FormatVersion, Entities: []Entity{{
		Slot: 1, ShapeKind: 9,
		Shape: make([]int32, shapeFields), Transform: make([]int32, transformFields), Particle: make([]int32, particleFields),
	}}}
	if err := Restore(sim, snap); !errors.Is(err, ErrMismatch) {
		t.Errorf("unknown kind = %v", err)
	}
}

func TestDigestChangesWithState(t *testing.T) {
	crc := wire.NewCRCTable()
	sim := scene(t)
	before, _ := Digest(Capture(sim), crc)
	again, _ := Digest(Capture(sim), crc)
	if before != again {
		t.Fatal("digest not stable for unchanged state")
	}
	if _, err := sim.Step(); err != nil {
		t.Fatal(err)
	}
	after, _ := Digest(Capture(sim), crc)
	if after == before {
		t.Error("digest unchanged after a step")
	}
}
