package grid

import (
	"errors"
	"fmt"
)

// Error is a grid access error carrying a stable code.
//
// Two errors are considered equal by errors.Is when their codes match. A key
// error also matches ErrOutOfBounds.
type Error struct {
	Code    string // Error code (e.g., "GRID-BOUNDS")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code || (e.Code == codeKey && t.Code == codeBounds)
}

func newError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithDetails returns a copy of the error with additional details.
func (e *Error) WithDetails(format string, args ...any) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: fmt.Sprintf(format, args...),
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *Error) WithCause(cause error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// Code extracts the error code from err, or "" if err is not a grid error.
func Code(err error) string {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Code
	}
	return ""
}

const (
	codeBounds = "GRID-BOUNDS"
	codeKey    = "GRID-KEY"
)

var (
	// ErrInvalidReference indicates a nil grid or a lock table that was never initialized.
	ErrInvalidReference = newError("GRID-REF", "invalid grid reference")

	// ErrOutOfBounds indicates a row or column outside the grid.
	ErrOutOfBounds = newError(codeBounds, "position out of bounds")

	// ErrInvalidKey indicates a partition key outside [0, keys).
	ErrInvalidKey = newError(codeKey, "partition key out of range")

	// ErrTimeout indicates the partition lock was not acquired in time.
	ErrTimeout = newError("GRID-TIMEOUT", "lock wait timed out")

	// ErrInvalidMode indicates an unknown access mode.
	ErrInvalidMode = newError("GRID-MODE", "invalid access mode")

	// ErrNotHeld indicates a release of a partition lock nobody holds.
	ErrNotHeld = newError("GRID-NOTHELD", "lock not held")

	// ErrInvalidGeometry indicates a constructor argument out of range.
	ErrInvalidGeometry = newError("GRID-GEOMETRY", "invalid grid geometry")

	// ErrAlreadyInitialized indicates a second call to Init.
	ErrAlreadyInitialized = newError("GRID-INIT", "grid already initialized")
)
