// Package snapshot persists simulation state as gzipped NBT with a CRC-32
// trailer, and computes per-tick digests for desync detection.
//
//	TAG_Compound("lockstep", {
//	    "version": TAG_Int(),
//	    "tick": TAG_Long(),
//	    "entities": TAG_List([
//	        TAG_Compound({
//	            "slot": TAG_Int(),
//	            "shape_kind": TAG_Byte(),
//	            "shape": TAG_Int_Array(radius, length, hx, hy, hz),
//	            "transform": TAG_Int_Array(px, py, pz, rw, rx, ry, rz, sx, sy, sz),
//	            "has_particle": TAG_Byte(),
//	            "particle": TAG_Int_Array(inv_mass, px, py, pz, ox, oy, oz, fx, fy, fz)
//	        })
//	        ...
//	    ])
//	})
//
// Every fixed-point value is stored as its raw int32.
package snapshot

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/Tnze/go-mc/nbt"
	"github.com/memmaker/lockstep/engine/collision"
	"github.com/memmaker/lockstep/engine/fixed"
	"github.com/memmaker/lockstep/engine/util"
	"github.com/memmaker/lockstep/engine/vecmath"
	"github.com/memmaker/lockstep/engine/verlet"
	"github.com/memmaker/lockstep/engine/wire"
	"github.com/memmaker/lockstep/engine/world"
	"github.com/pkg/errors"
)

const (
	FormatVersion = 1
	rootTag       = "lockstep"

	shapeFields     = 5
	transformFields = 10
	particleFields  = 10
)

var (
	ErrVersion  = errors.New("unsupported snapshot version")
	ErrMismatch = errors.New("snapshot does not fit simulation")
)

type Snapshot struct {
	Version  int32    `nbt:"version"`
	Tick     int64    `nbt:"tick"`
	Entities []Entity `nbt:"entities"`
}

type Entity struct {
	Slot        int32   `nbt:"slot"`
	ShapeKind   byte    `nbt:"shape_kind"`
	Shape       []int32 `nbt:"shape"`
	Transform   []int32 `nbt:"transform"`
	HasParticle byte    `nbt:"has_particle"`
	Particle    []int32 `nbt:"particle"`
}

func appendRaw(dst []int32, values ...fixed.Fixed) []int32 {
	for _, v := range values {
		dst = append(dst, v.Raw())
	}
	return dst
}

func appendVec(dst []int32, v vecmath.FixedVec3) []int32 {
	return appendRaw(dst, v.X, v.Y, v.Z)
}

func vecAt(raw []int32, i int) vecmath.FixedVec3 {
	return vecmath.FixedVec3{X: fixed.FromRaw(raw[i]), Y: fixed.FromRaw(raw[i+1]), Z: fixed.FromRaw(raw[i+2])}
}

// Capture records every slot that has a shape or an active particle, in slot order.
func Capture(sim *world.Simulation) Snapshot {
	snap := Snapshot{Version: FormatVersion, Tick: int64(sim.Tick())}
	shapes := sim.Shapes()
	particles := sim.Particles().Particles()
	for slot := range shapes {
		s := &shapes[slot]
		p := particles[slot]
		if s.Kind() == collision.KindNone && !p.IsActive {
			continue
		}
		e := Entity{
			Slot:      int32(slot),
			ShapeKind: byte(s.Kind()),
			Shape:     make([]int32, 0, shapeFields),
			Transform: make([]int32, 0, transformFields),
			Particle:  make([]int32, 0, particleFields),
		}
		e.Shape = appendRaw(e.Shape, s.Radius(), s.Length())
		e.Shape = appendVec(e.Shape, s.HalfExtents())
		t := s.WorldSpaceTransform()
		e.Transform = appendVec(e.Transform, t.Position)
		e.Transform = appendRaw(e.Transform, t.Rotation.W, t.Rotation.X, t.Rotation.Y, t.Rotation.Z)
		e.Transform = appendVec(e.Transform, t.Scale)
		if p.IsActive {
			e.HasParticle = 1
		}
		e.Particle = appendRaw(e.Particle, p.InvMass)
		e.Particle = appendVec(e.Particle, p.Position)
		e.Particle = appendVec(e.Particle, p.OldPosition)
		e.Particle = appendVec(e.Particle, p.Force)
		snap.Entities = append(snap.Entities, e)
	}
	return snap
}

func (e Entity) shape() (collision.Shape, error) {
	if len(e.Shape) != shapeFields || len(e.Transform) != transformFields {
		return collision.Shape{}, errors.Wrapf(ErrMismatch, "slot %d: malformed shape record", e.Slot)
	}
	var s collision.Shape
	switch collision.Kind(e.ShapeKind) {
	case collision.KindNone:
		return s, nil
	case collision.KindSphere:
		s = collision.NewSphere(fixed.FromRaw(e.Shape[0]))
	case collision.KindCapsule:
		s = collision.NewCapsule(fixed.FromRaw(e.Shape[0]), fixed.FromRaw(e.Shape[1]))
	case collision.KindAabb:
		s = collision.NewAabb(vecAt(e.Shape, 2))
	default:
		return s, errors.Wrapf(ErrMismatch, "slot %d: unknown shape kind %d", e.Slot, e.ShapeKind)
	}
	raw := e.Transform
	rotation := vecmath.FixedQuat{
		W: fixed.FromRaw(raw[3]), X: fixed.FromRaw(raw[4]), Y: fixed.FromRaw(raw[5]), Z: fixed.FromRaw(raw[6]),
	}
	s.UpdateTransform(vecmath.NewTransform(vecAt(raw, 0), rotation, vecAt(raw, 7)))
	return s, nil
}

func (e Entity) particle() (verlet.Particle, error) {
	if len(e.Particle) != particleFields {
		return verlet.Particle{}, errors.Wrapf(ErrMismatch, "slot %d: malformed particle record", e.Slot)
	}
	if e.HasParticle == 0 {
		return verlet.Particle{}, nil
	}
	return verlet.Particle{
		InvMass:     fixed.FromRaw(e.Particle[0]),
		Position:    vecAt(e.Particle, 1),
		OldPosition: vecAt(e.Particle, 4),
		Force:       vecAt(e.Particle, 7),
		IsActive:    true,
	}, nil
}

// Restore clears sim and loads snap into it. On error sim is left cleared.
func Restore(sim *world.Simulation, snap Snapshot) error {
	if snap.Version != FormatVersion {
		return errors.Wrapf(ErrVersion, "version %d", snap.Version)
	}
	capacity := len(sim.Shapes())
	for slot := 0; slot < capacity; slot++ {
		sim.Despawn(slot)
	}
	for _, e := range snap.Entities {
		if e.Slot < 0 || int(e.Slot) >= capacity {
			return errors.Wrapf(ErrMismatch, "slot %d outside capacity %d", e.Slot, capacity)
		}
		shape, err := e.shape()
		if err != nil {
			return err
		}
		if shape.Kind() != collision.KindNone {
			if err := sim.SetShape(int(e.Slot), shape); err != nil {
				return err
			}
		}
		p, err := e.particle()
		if err != nil {
			return err
		}
		if p.IsActive {
			if err := sim.Particles().Set(int(e.Slot), p); err != nil {
				return err
			}
		}
	}
	sim.SetTick(uint64(snap.Tick))
	return nil
}

func encodeNBT(snap Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	if err := nbt.NewEncoder(&buf).Encode(snap, rootTag); err != nil {
		return nil, errors.Wrap(err, "encode nbt")
	}
	return buf.Bytes(), nil
}

// Digest is the CRC-32 of the uncompressed NBT encoding.
func Digest(snap Snapshot, crc *wire.CRCTable) (uint32, error) {
	body, err := encodeNBT(snap)
	if err != nil {
		return 0, err
	}
	return crc.Checksum(body), nil
}

// Encode writes gzip(NBT) followed by the little-endian CRC-32 of the compressed bytes.
func Encode(w io.Writer, snap Snapshot, crc *wire.CRCTable) error {
	body, err := encodeNBT(snap)
	if err != nil {
		return err
	}
	var compressed bytes.Buffer
	zw := gzip.NewWriter(&compressed)
	if _, err := zw.Write(body); err != nil {
		return errors.Wrap(err, "compress snapshot")
	}
	if err := zw.Close(); err != nil {
		return errors.Wrap(err, "compress snapshot")
	}
	framed := crc.AppendChecksum(compressed.Bytes())
	if _, err := w.Write(framed); err != nil {
		return errors.Wrap(err, "write snapshot")
	}
	util.LogSnapshotInfo(fmt.Sprintf("snapshot tick %d: %d entities, %d bytes", snap.Tick, len(snap.Entities), len(framed)))
	return nil
}

func Decode(r io.Reader, crc *wire.CRCTable) (Snapshot, error) {
	var snap Snapshot
	framed, err := io.ReadAll(r)
	if err != nil {
		return snap, errors.Wrap(err, "read snapshot")
	}
	compressed, err := crc.VerifyChecksum(framed)
	if err != nil {
		util.LogSnapshotError(fmt.Sprintf("snapshot rejected: %v", err))
		return snap, err
	}
	zr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return snap, errors.Wrap(err, "decompress snapshot")
	}
	defer zr.Close()
	if _, err := nbt.NewDecoder(zr).Decode(&snap); err != nil {
		return snap, errors.Wrap(err, "decode nbt")
	}
	if snap.Version != FormatVersion {
		return snap, errors.Wrapf(ErrVersion, "version %d", snap.Version)
	}
	return snap, nil
}
