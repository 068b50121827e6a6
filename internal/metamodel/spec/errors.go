package spec

import (
	"errors"
	"fmt"

	"github.com/conduit-lang/metamodel/internal/metamodel/facetapi"
)

// Sentinel errors
var (
	// ErrObjectNotFound is returned when a store has no object for an identifier.
	ErrObjectNotFound = errors.New("object not found")
	// ErrNotIdentifiable is returned when an object has no bookmark.
	ErrNotIdentifiable = errors.New("object is not identifiable")
)

// AssertionError reports a violated precondition. It is raised with panic:
// the caller is at fault, not the data.
type AssertionError struct {
	Message string
}

// Error implements the error interface
func (e *AssertionError) Error() string {
	return "assertion failed: " + e.Message
}

func assertionFailed(format string, args ...any) {
	panic(&AssertionError{Message: fmt.Sprintf(format, args...)})
}

// InvocationError reports a method that could not be invoked, or that
// panicked while running.
type InvocationError struct {
	Identifier facetapi.Identifier
	Cause      error
}

// Error implements the error interface
func (e *InvocationError) Error() string {
	return fmt.Sprintf("failed to invoke %s: %v", e.Identifier, e.Cause)
}

// Unwrap returns the cause
func (e *InvocationError) Unwrap() error {
	return e.Cause
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrObjectNotFound)
}

// IsInvocationError checks if an error is an invocation error
func IsInvocationError(err error) bool {
	var ie *InvocationError
	return errors.As(err, &ie)
}
