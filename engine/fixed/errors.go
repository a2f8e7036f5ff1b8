package fixed

import (
	"fmt"

	"github.com/memmaker/lockstep/engine/util"
	"github.com/pkg/errors"
)

// ArithmeticError reports an operation without a representable result.
// Simulation code must surface it; there is no NaN or infinity to fall back on.
type ArithmeticError struct {
	Op string
}

func (e *ArithmeticError) Error() string { return "arithmetic error: " + e.Op }

var (
	ErrDivisionByZero error = &ArithmeticError{Op: "division by zero"}
	ErrSyntax               = errors.New("invalid fixed-point literal")
)

func divisionByZero(op string, lhs Fixed) error {
	util.LogNumericWarning(fmt.Sprintf("%s(%s, 0): division by zero", op, lhs))
	return errors.Wrapf(ErrDivisionByZero, "%s(%s, 0)", op, lhs)
}
