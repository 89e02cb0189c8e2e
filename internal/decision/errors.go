package decision

import (
	"errors"
	"fmt"
	"strings"

	"trd-cea-lab/internal/domain"
)

// Decision errors
var (
	ErrStrategyNotFound = errors.New("strategy not found")
	ErrNoStrategies     = errors.New("at least two strategies are required")
	ErrMissingPrice     = errors.New("focal strategy has no list price")
	ErrInvalidGrid      = errors.New("invalid lambda grid")
)

// MissingStrategiesError lists requested strategies absent from the draw
// table of a perspective.
type MissingStrategiesError struct {
	Perspective domain.Perspective
	Names       []string
}

func (e *MissingStrategiesError) Error() string {
	return fmt.Sprintf("%s: %s missing under %s", ErrStrategyNotFound, strings.Join(e.Names, ", "), e.Perspective)
}

func (e *MissingStrategiesError) Unwrap() error {
	return ErrStrategyNotFound
}
