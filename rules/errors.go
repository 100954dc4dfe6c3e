package rules

import (
	"errors"
	"fmt"
)

// Common errors returned by rule set operations.
var (
	// ErrIndexOutOfRange is returned when a rule index does not exist.
	ErrIndexOutOfRange = errors.New("rule index out of range")

	// ErrEmptyLabel is returned when a rule has no label.
	ErrEmptyLabel = errors.New("rule label must not be empty")

	// ErrEmptyPattern is returned when a rule has no pattern.
	ErrEmptyPattern = errors.New("rule pattern must not be empty")
)

// InvalidPatternError indicates a pattern could not be compiled
type InvalidPatternError struct {
	Pattern string
	Err     error
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %v", e.Pattern, e.Err)
}

func (e *InvalidPatternError) Unwrap() error {
	return e.Err
}
