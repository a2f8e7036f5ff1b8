package fixed

import (
	"math/bits"
)

// Wide is a signed 128-bit two's complement integer for intermediate products
// of raw values. Geometry uses it where a product of products would saturate
// a Fixed. It never ends up in simulation state.
type Wide struct {
	hi, lo uint64
}

func WideFromInt64(v int64) Wide {
	hi := uint64(0)
	if v < 0 {
		hi = ^uint64(0)
	}
	return Wide{hi: hi, lo: uint64(v)}
}

// MulWide returns the exact product a*b.
func MulWide(a, b int64) Wide {
	neg := (a < 0) != (b < 0)
	hi, lo := bits.Mul64(absU(a), absU(b))
	w := Wide{hi: hi, lo: lo}
	if neg {
		return w.Neg()
	}
	return w
}

func absU(v int64) uint64 {
	if v < 0 {
		return uint64(-v)
	}
	return uint64(v)
}

func (w Wide) Add(o Wide) Wide {
	lo, carry := bits.Add64(w.lo, o.lo, 0)
	hi, _ := bits.Add64(w.hi, o.hi, carry)
	return Wide{hi: hi, lo: lo}
}

func (w Wide) Sub(o Wide) Wide {
	lo, borrow := bits.Sub64(w.lo, o.lo, 0)
	hi, _ := bits.Sub64(w.hi, o.hi, borrow)
	return Wide{hi: hi, lo: lo}
}

func (w Wide) Neg() Wide {
	return Wide{}.Sub(w)
}

func (w Wide) Sign() int {
	switch {
	case int64(w.hi) < 0:
		return -1
	case w.hi == 0 && w.lo == 0:
		return 0
	}
	return 1
}

func (w Wide) Cmp(o Wide) int {
	return w.Sub(o).Sign()
}

// Ratio returns num/den clamped to [0, One] and truncated toward zero.
// A non-positive den yields Zero.
func Ratio(num, den Wide) Fixed {
	if den.Sign() <= 0 || num.Sign() <= 0 {
		return Zero
	}
	if num.Cmp(den) >= 0 {
		return One
	}
	// num < den: drop low bits of both until den fits 47 bits, so the
	// shifted numerator stays inside an int64.
	n, d := num, den
	for d.hi != 0 || d.lo >= 1<<47 {
		n = n.shr1()
		d = d.shr1()
	}
	return Fixed{int32((n.lo << FracBits) / d.lo)}
}

func (w Wide) shr1() Wide {
	return Wide{hi: w.hi >> 1, lo: w.lo>>1 | w.hi<<63}
}
