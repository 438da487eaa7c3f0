package aggregation

import (
	"errors"
	"fmt"
)

var (
	// ErrUnregisteredType is returned when no registration exists for a type.
	ErrUnregisteredType = errors.New("aggregation type not registered")

	// ErrDuplicateType is returned when a type is registered twice.
	ErrDuplicateType = errors.New("aggregation type already registered")

	// ErrValidation is wrapped by every *ValidationError.
	ErrValidation = errors.New("aggregation result failed validation")

	// ErrRecordSource wraps failures loading records. It is a compute failure,
	// not a programmer error.
	ErrRecordSource = errors.New("record source failed")
)

// ValidationError reports a computed result rejected by its validator.
type ValidationError struct {
	Type   string
	Reason error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("aggregation %q: invalid result: %v", e.Type, e.Reason)
}

func (e *ValidationError) Unwrap() []error {
	return []error{ErrValidation, e.Reason}
}

// IsHardError reports whether err must reach the caller unchanged instead of
// triggering a fallback.
func IsHardError(err error) bool {
	return errors.Is(err, ErrUnregisteredType) || errors.Is(err, ErrValidation)
}
