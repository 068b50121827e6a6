package value

import (
	"errors"
	"fmt"
)

// Sentinel causes of a ParseError
var (
	// ErrEntryRequired is the cause when blank text is entered for a type
	// that cannot represent absence.
	ErrEntryRequired = errors.New("entry required")

	// ErrMalformed is the cause when text cannot be parsed.
	ErrMalformed = errors.New("malformed entry")
)

// ParseError reports text entry that could not be turned into a value. It
// is recoverable: the user corrects the entry.
type ParseError struct {
	Text    string
	Message string
	Cause   error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("cannot parse %q: %s", e.Text, e.Message)
	}
	return fmt.Sprintf("cannot parse %q: %v", e.Text, e.Cause)
}

// Unwrap returns the cause
func (e *ParseError) Unwrap() error {
	return e.Cause
}

func entryRequired(text string) error {
	return &ParseError{Text: text, Message: "a value is required", Cause: ErrEntryRequired}
}

func malformed(text string, cause error) error {
	return &ParseError{Text: text, Cause: fmt.Errorf("%w: %v", ErrMalformed, cause)}
}

// IsParseError reports whether err is, or wraps, a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
