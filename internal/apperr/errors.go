// Package apperr holds the error taxonomy shared by the core and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation: malformed input, rejected before any write.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound: an id does not resolve.
	ErrNotFound = errors.New("not found")

	// ErrConflict: the change would break an invariant (density, last admin, ...).
	ErrConflict = errors.New("conflict")

	// ErrDelivery: broadcast, notification or mail delivery failed. Never
	// returned to the caller of a mutation.
	ErrDelivery = errors.New("delivery failed")
)

func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func NotFound(what string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, what)
}

func Conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

func Delivery(err error, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %w", ErrDelivery, fmt.Sprintf(format, args...), err)
}

// Kind reports which sentinel err wraps, or nil for unclassified errors.
func Kind(err error) error {
	for _, k := range []error{ErrValidation, ErrNotFound, ErrConflict, ErrDelivery} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
