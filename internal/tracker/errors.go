package tracker

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks a failed scoping lookup: the organization, or a
	// project/task within it, does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalid marks input rejected at the boundary: a missing required
	// field or a status outside its enumeration.
	ErrInvalid = errors.New("invalid input")
)

// Error is a domain error with a client-facing message.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func notFoundf(format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

func invalidf(format string, args ...any) error {
	return &Error{Kind: ErrInvalid, Message: fmt.Sprintf(format, args...)}
}

// IsNotFound reports whether err is a scoping-lookup failure.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsInvalid reports whether err is a boundary validation failure.
func IsInvalid(err error) bool { return errors.Is(err, ErrInvalid) }
