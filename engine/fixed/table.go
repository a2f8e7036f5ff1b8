package fixed

// Angles are measured in turns: One is a full rotation.
const (
	tableBits   = 10
	tableSize   = 1 << tableBits // entries per turn
	quarterSize = tableSize / 4
	lerpBits    = FracBits - tableBits
	lerpMask    = 1<<lerpBits - 1

	q30       = 1 << 30
	halfPiQ30 = 1686629713 // pi/2 in Q2.30
)

// Table holds the quarter-wave sine table. It is built once by the host with
// NewTable and passed by pointer; it is never mutated afterwards.
type Table struct {
	quarter [quarterSize + 1]int32
}

// NewTable builds the table with integer arithmetic only (Taylor series in Q2.30),
// so every platform produces the same entries.
func NewTable() *Table {
	t := &Table{}
	for i := 0; i <= quarterSize; i++ {
		x := int64(halfPiQ30) * int64(i) / quarterSize
		t.quarter[i] = int32((sinQ30(x) + 1<<13) >> 14)
	}
	return t
}

func sinQ30(x int64) int64 {
	x2 := x * x / q30
	term, sum := x, x
	for k := int64(1); term != 0; k++ {
		term = -term * x2 / q30 / ((2 * k) * (2*k + 1))
		sum += term
	}
	return sum
}

func (t *Table) entry(i int32) int32 {
	i &= tableSize - 1
	j := i & (quarterSize - 1)
	switch i / quarterSize {
	case 0:
		return t.quarter[j]
	case 1:
		return t.quarter[quarterSize-j]
	case 2:
		return -t.quarter[j]
	default:
		return -t.quarter[quarterSize-j]
	}
}

// Sin interpolates linearly between adjacent table entries on the low 6 bits of
// the angle, truncating toward zero.
func (t *Table) Sin(turns Fixed) Fixed {
	frac := uint32(turns.raw) & (oneRaw - 1)
	idx := int32(frac >> lerpBits)
	rem := int32(frac & lerpMask)
	s0 := t.entry(idx)
	s1 := t.entry(idx + 1)
	return Fixed{s0 + (s1-s0)*rem/(1<<lerpBits)}
}

func (t *Table) Cos(turns Fixed) Fixed {
	return t.Sin(Fixed{turns.raw + oneRaw/4})
}

// Degrees converts whole degrees to turns.
func Degrees(deg int32) Fixed {
	return saturate((int64(deg) << FracBits) / 360)
}
