package fixed

import (
	"math"
	"strconv"
)

// Q16.16 layout
const (
	FracBits = 16
	oneRaw   = 1 << FracBits
)

// Fixed is a signed Q16.16 number backed by an int32.
// Two values are equal iff their raw integers are equal, so == is exact on every platform.
// All operations saturate at MinValue/MaxValue instead of wrapping. The range
// is symmetric, so Neg is exact for every saturated result.
type Fixed struct {
	raw int32
}

var (
	Zero     = Fixed{}
	One      = Fixed{oneRaw}
	Half     = Fixed{oneRaw / 2}
	Epsilon  = Fixed{1}
	MaxValue = Fixed{math.MaxInt32}
	MinValue = Fixed{-math.MaxInt32}
)

func saturate(v int64) Fixed {
	if v > math.MaxInt32 {
		return MaxValue
	}
	if v < -math.MaxInt32 {
		return MinValue
	}
	return Fixed{int32(v)}
}

func FromInt(i int32) Fixed  { return saturate(int64(i) << FracBits) }
func FromRaw(r int32) Fixed  { return Fixed{r} }
func (a Fixed) Raw() int32   { return a.raw }
func (a Fixed) ToInt() int32 { return a.raw / oneRaw }

// FromFraction returns num/den rounded toward zero.
func FromFraction(num, den int32) (Fixed, error) {
	if den == 0 {
		return Zero, divisionByZero("FromFraction", FromInt(num))
	}
	return saturate((int64(num) << FracBits) / int64(den)), nil
}

// FromFloat64 converts a host float. Only use at the boundary to non-simulation code
// (config import, render data); the conversion itself is exact truncation.
func FromFloat64(f float64) Fixed {
	if math.IsNaN(f) {
		return Zero
	}
	scaled := f * oneRaw
	if scaled >= math.MaxInt32 {
		return MaxValue
	}
	if scaled <= -math.MaxInt32 {
		return MinValue
	}
	return Fixed{int32(scaled)}
}

func (a Fixed) Float32() float32 { return float32(a.raw) / oneRaw }
func (a Fixed) Float64() float64 { return float64(a.raw) / oneRaw }

func (a Fixed) String() string {
	return strconv.FormatFloat(a.Float64(), 'f', -1, 64)
}

// --- Arithmetic ---

func (a Fixed) Add(b Fixed) Fixed { return saturate(int64(a.raw) + int64(b.raw)) }
func (a Fixed) Sub(b Fixed) Fixed { return saturate(int64(a.raw) - int64(b.raw)) }
func (a Fixed) Neg() Fixed        { return saturate(-int64(a.raw)) }

// Mul rounds toward zero, so (-a)*b == -(a*b) bit for bit.
func (a Fixed) Mul(b Fixed) Fixed {
	return saturate(int64(a.raw) * int64(b.raw) / oneRaw)
}

// Div rounds toward zero. A zero divisor returns an error wrapping ErrDivisionByZero.
func (a Fixed) Div(b Fixed) (Fixed, error) {
	if b.raw == 0 {
		return Zero, divisionByZero("Div", a)
	}
	return saturate((int64(a.raw) << FracBits) / int64(b.raw)), nil
}

// Sqrt is the floor of the exact square root; negative inputs yield Zero.
func (a Fixed) Sqrt() Fixed {
	if a.raw <= 0 {
		return Zero
	}
	return Fixed{int32(isqrt(uint64(a.raw) << FracBits))}
}

func isqrt(n uint64) uint64 {
	var res uint64
	bit := uint64(1) << 62
	for bit > n {
		bit >>= 2
	}
	for bit != 0 {
		if n >= res+bit {
			n -= res + bit
			res = (res >> 1) + bit
		} else {
			res >>= 1
		}
		bit >>= 2
	}
	return res
}

func (a Fixed) Abs() Fixed {
	if a.raw < 0 {
		return a.Neg()
	}
	return a
}

// Hypot returns sqrt(a²+b²+c²), the floor of the exact value. The squares
// are summed in raw units, so lengths up to MaxValue never saturate midway.
func (a Fixed) Hypot(b, c Fixed) Fixed {
	sum := square(a.raw) + square(b.raw) + square(c.raw)
	return saturateU(isqrt(sum))
}

// square fits in 62 bits for any int32, so three of them fit a uint64.
func square(r int32) uint64 {
	v := int64(r)
	return uint64(v * v)
}

func saturateU(v uint64) Fixed {
	if v > math.MaxInt32 {
		return MaxValue
	}
	return Fixed{int32(v)}
}

// --- Comparison ---

func (a Fixed) Less(b Fixed) bool   { return a.raw < b.raw }
func (a Fixed) LessEq(b Fixed) bool { return a.raw <= b.raw }
func (a Fixed) IsZero() bool        { return a.raw == 0 }

func (a Fixed) Cmp(b Fixed) int {
	switch {
	case a.raw < b.raw:
		return -1
	case a.raw > b.raw:
		return 1
	}
	return 0
}

func (a Fixed) Sign() int { return a.Cmp(Zero) }

func Min(a, b Fixed) Fixed {
	if b.raw < a.raw {
		return b
	}
	return a
}

func Max(a, b Fixed) Fixed {
	if b.raw > a.raw {
		return b
	}
	return a
}

func (a Fixed) Clamp(lo, hi Fixed) Fixed {
	return Min(Max(a, lo), hi)
}

// FromInt satisfies Number; the receiver is ignored.
func (Fixed) FromInt(i int32) Fixed { return FromInt(i) }
