package services

import (
	"errors"
	"fmt"
)

// ValidationError rejects an intent before any state mutation: wrong player
// count, queue at capacity, duplicate names, action from the wrong lifecycle
// state. Surfaced to the initiating client only.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Validationf builds a ValidationError.
func Validationf(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// errNoChange aborts a store mutation that turned out to be a no-op so the
// sweepers don't bump versions or broadcast for nothing.
var errNoChange = errors.New("no change")
