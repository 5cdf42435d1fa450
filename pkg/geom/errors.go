package geom

import (
	"errors"
	"fmt"
	"math"
)

// ErrGeometry matches every *GeometryError via errors.Is.
var ErrGeometry = errors.New("invalid geometry")

// GeometryError reports an invalid scalar configuration: a non-positive
// radius, a wall thicker than the footprint, an inner sphere that swallows
// the pyramid, or a degenerate angular step.
type GeometryError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("geometry: %s = %g: %s", e.Field, e.Value, e.Reason)
}

// Is reports whether target is ErrGeometry.
func (e *GeometryError) Is(target error) bool {
	return target == ErrGeometry
}

// Invalid returns a *GeometryError for field.
func Invalid(field string, value float64, reason string) error {
	return &GeometryError{Field: field, Value: value, Reason: reason}
}

// RequirePositive fails unless v is finite and strictly positive.
func RequirePositive(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Invalid(field, v, "must be finite")
	}
	if v <= 0 {
		return Invalid(field, v, "must be positive")
	}
	return nil
}
