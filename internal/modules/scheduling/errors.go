// README: Validation error taxonomy for slot suggestion.
package scheduling

import (
	"errors"
	"fmt"
)

// ErrInvalidInput matches every *ValidationError via errors.Is.
var ErrInvalidInput = errors.New("invalid input")

// ValidationError reports the first request field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
