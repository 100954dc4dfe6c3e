package store

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by a Backend when no document exists for a name.
var ErrNotFound = errors.New("document not found")

// LoadError indicates the stored document could not be read or decoded
type LoadError struct {
	Name string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load config %q: %v", e.Name, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
