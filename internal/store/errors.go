package store

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by relationship lookups for unknown owners. It is a
// normal outcome, not a failure.
var ErrNotFound = errors.New("not found")

// ErrInvalidRange is returned when a recall time range has start after end.
var ErrInvalidRange = errors.New("invalid time range: start is after end")

// ValidationError reports a malformed parameter, rejected before any storage
// access. Field names the violated parameter.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a parameter validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) || errors.Is(err, ErrInvalidRange)
}
