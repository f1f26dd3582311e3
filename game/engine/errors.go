package engine

import (
	"errors"
	"fmt"
)

var (
	ErrLevelNotFound  = errors.New("level not found")
	ErrMalformedLevel = errors.New("malformed level")
	ErrEmptyLevel     = errors.New("empty level")
)

// LoadError describes a failed board load. Err is one of the sentinel errors above,
// possibly wrapped with detail.
type LoadError struct {
	Level int
	Err   error
}

func (e *LoadError) Error() string {
	if e.Level > 0 {
		return fmt.Sprintf("load level %d: %v", e.Level, e.Err)
	}
	return fmt.Sprintf("load level: %v", e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
