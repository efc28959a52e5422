package booking

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an operation names an unknown booking ID.
var ErrNotFound = errors.New("booking: not found")

// ErrorKind classifies a rejected booking.
type ErrorKind string

const (
	// KindInvalid covers malformed or missing input.
	KindInvalid ErrorKind = "invalid"
	// KindConflict covers time overlaps and double-booked people.
	KindConflict ErrorKind = "conflict"
)

// ValidationError explains why a booking was not admitted. Nothing has been
// written when one is returned.
type ValidationError struct {
	Kind    ErrorKind
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Kind: KindInvalid, Field: field, Message: fmt.Sprintf(format, args...)}
}

func conflict(field, format string, args ...any) *ValidationError {
	return &ValidationError{Kind: KindConflict, Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsConflict reports whether err is a conflict rejection.
func IsConflict(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) && ve.Kind == KindConflict
}
