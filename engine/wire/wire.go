// Package wire holds the 4-byte little-endian scalar encoding shared by
// network payloads and snapshots, plus the CRC-32 integrity check.
package wire

import (
	"encoding/binary"
	"hash/crc32"
	"math"

	"github.com/memmaker/lockstep/engine/fixed"
	"github.com/memmaker/lockstep/engine/vecmath"
	"github.com/pkg/errors"
)

const ScalarSize = 4

var (
	ErrShortBuffer = errors.New("short buffer")
	ErrChecksum    = errors.New("checksum mismatch")
)

func short(what string, have int, need int) error {
	return errors.Wrapf(ErrShortBuffer, "%s: have %d bytes, need %d", what, have, need)
}

func SerializeI32(v int32) [ScalarSize]byte {
	var b [ScalarSize]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v))
	return b
}

func DeserializeI32(b []byte) (int32, error) {
	if len(b) < ScalarSize {
		return 0, short("i32", len(b), ScalarSize)
	}
	return int32(binary.LittleEndian.Uint32(b)), nil
}

func SerializeFixed(v fixed.Fixed) [ScalarSize]byte {
	return SerializeI32(v.Raw())
}

func DeserializeFixed(b []byte) (fixed.Fixed, error) {
	raw, err := DeserializeI32(b)
	if err != nil {
		return fixed.Zero, errors.Wrap(err, "fixed")
	}
	return fixed.FromRaw(raw), nil
}

// SerializeF32 writes the IEEE-754 bit pattern, so NaN payloads survive.
func SerializeF32(v float32) [ScalarSize]byte {
	var b [ScalarSize]byte
	binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
	return b
}

func DeserializeF32(b []byte) (float32, error) {
	if len(b) < ScalarSize {
		return 0, short("f32", len(b), ScalarSize)
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b)), nil
}

func AppendFixed(dst []byte, v fixed.Fixed) []byte {
	b := SerializeFixed(v)
	return append(dst, b[:]...)
}

func AppendVec3(dst []byte, v vecmath.FixedVec3) []byte {
	dst = AppendFixed(dst, v.X)
	dst = AppendFixed(dst, v.Y)
	return AppendFixed(dst, v.Z)
}

// ReadVec3 decodes X, Y, Z and returns the remaining bytes.
func ReadVec3(b []byte) (vecmath.FixedVec3, []byte, error) {
	if len(b) < 3*ScalarSize {
		return vecmath.FixedVec3{}, b, short("vec3", len(b), 3*ScalarSize)
	}
	var v vecmath.FixedVec3
	v.X, _ = DeserializeFixed(b[0:])
	v.Y, _ = DeserializeFixed(b[4:])
	v.Z, _ = DeserializeFixed(b[8:])
	return v, b[3*ScalarSize:], nil
}

// CRCTable is an owned CRC-32 table for the reflected IEEE polynomial 0xEDB88320.
// Build it once with NewCRCTable and pass it to whoever needs checksums.
type CRCTable struct {
	table *crc32.Table
}

func NewCRCTable() *CRCTable {
	return &CRCTable{table: crc32.MakeTable(crc32.IEEE)}
}

func (t *CRCTable) Checksum(data []byte) uint32 {
	return crc32.Checksum(data, t.table)
}

// Update continues a running checksum.
func (t *CRCTable) Update(crc uint32, data []byte) uint32 {
	return crc32.Update(crc, t.table, data)
}

// AppendChecksum appends the little-endian CRC of data to data.
func (t *CRCTable) AppendChecksum(data []byte) []byte {
	return binary.LittleEndian.AppendUint32(data, t.Checksum(data))
}

// VerifyChecksum splits a payload written by AppendChecksum and checks it.
func (t *CRCTable) VerifyChecksum(framed []byte) ([]byte, error) {
	if len(framed) < ScalarSize {
		return nil, short("checksum", len(framed), ScalarSize)
	}
	body := framed[:len(framed)-ScalarSize]
	want := binary.LittleEndian.Uint32(framed[len(body):])
	if got := t.Checksum(body); got != want {
		return nil, errors.Wrapf(ErrChecksum, "got %08x, want %08x", got, want)
	}
	return body, nil
}
