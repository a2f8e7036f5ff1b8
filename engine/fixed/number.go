package fixed

import "math"

// Number is the scalar contract shared by Fixed and F32.
// Generic geometry (vecmath) is written against it.
type Number[N any] interface {
	comparable
	Add(N) N
	Sub(N) N
	Mul(N) N
	Div(N) (N, error)
	Neg() N
	Sqrt() N
	Hypot(N, N) N
	Less(N) bool
	IsZero() bool
	FromInt(int32) N
}

// F32 is a float32 scalar for render-only code. It is NOT deterministic across
// machines and must never feed simulation state.
type F32 float32

func (a F32) Add(b F32) F32 { return a + b }
func (a F32) Sub(b F32) F32 { return a - b }
func (a F32) Mul(b F32) F32 { return a * b }
func (a F32) Neg() F32      { return -a }

func (a F32) Div(b F32) (F32, error) {
	if b == 0 {
		return 0, ErrDivisionByZero
	}
	return a / b, nil
}

func (a F32) Sqrt() F32 {
	if a <= 0 {
		return 0
	}
	return F32(math.Sqrt(float64(a)))
}

func (a F32) Hypot(b, c F32) F32 {
	x, y, z := float64(a), float64(b), float64(c)
	return F32(math.Sqrt(x*x + y*y + z*z))
}

func (a F32) Less(b F32) bool   { return a < b }
func (a F32) IsZero() bool      { return a == 0 }
func (F32) FromInt(i int32) F32 { return F32(i) }
func (a F32) ToFixed() Fixed    { return FromFloat64(float64(a)) }
func (a Fixed) ToF32() F32      { return F32(a.Float32()) }

func implementsNumber[N Number[N]]() {}

var (
	_ = implementsNumber[Fixed]
	_ = implementsNumber[F32]
)
