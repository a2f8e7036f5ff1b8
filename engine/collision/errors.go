package collision

import (
	"github.com/pkg/errors"
)

var (
	ErrUnsupportedShapePair = errors.New("unsupported shape pair")
	ErrInvalidShape         = errors.New("invalid shape")
)
