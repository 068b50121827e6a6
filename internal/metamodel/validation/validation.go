// Package validation collects metamodel validation failures. Failures are
// gathered while the metamodel is assembled and reported together; they
// never abort the load.
package validation

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/conduit-lang/metamodel/internal/metamodel/facetapi"
	"github.com/conduit-lang/metamodel/internal/metamodel/spec"
)

// Sink receives validation failures.
type Sink interface {
	OnFailure(id facetapi.Identifier, message string)
}

// Validator checks one specification once the metamodel is assembled.
type Validator interface {
	Validate(s *spec.Specification, sink Sink)
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(s *spec.Specification, sink Sink)

// Validate implements Validator
func (f ValidatorFunc) Validate(s *spec.Specification, sink Sink) {
	f(s, sink)
}

// Failure is one validation failure.
type Failure struct {
	Identifier facetapi.Identifier
	Message    string
}

// String implements fmt.Stringer
func (f Failure) String() string {
	return fmt.Sprintf("%s: %s", f.Identifier, f.Message)
}

// Report is a Sink collecting failures. It is safe for concurrent use.
type Report struct {
	mu       sync.Mutex
	failures []Failure
}

// NewReport creates an empty report
func NewReport() *Report {
	return &Report{}
}

// OnFailure implements Sink
func (r *Report) OnFailure(id facetapi.Identifier, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, Failure{Identifier: id, Message: message})
}

// Failures returns the failures sorted by identifier.
func (r *Report) Failures() []Failure {
	r.mu.Lock()
	out := append([]Failure(nil), r.failures...)
	r.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Identifier.String() < out[j].Identifier.String()
	})
	return out
}

// HasFailures returns true if there are any failures
func (r *Report) HasFailures() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.failures) > 0
}

// Count returns the number of failures
func (r *Report) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.failures)
}

// Err returns the failures as an error, or nil when there are none.
func (r *Report) Err() error {
	if !r.HasFailures() {
		return nil
	}
	return &Error{Failures: r.Failures()}
}

// MarshalJSON implements json.Marshaler
func (r *Report) MarshalJSON() ([]byte, error) {
	type failure struct {
		Identifier string `json:"identifier"`
		Message    string `json:"message"`
	}
	failures := r.Failures()
	out := make([]failure, len(failures))
	for i, f := range failures {
		out[i] = failure{Identifier: f.Identifier.String(), Message: f.Message}
	}
	return json.Marshal(struct {
		Valid    bool      `json:"valid"`
		Failures []failure `json:"failures"`
	}{
		Valid:    len(out) == 0,
		Failures: out,
	})
}

// Error is a failed validation surfaced as an error.
type Error struct {
	Failures []Failure
}

// Error implements the error interface
func (e *Error) Error() string {
	if len(e.Failures) == 1 {
		return fmt.Sprintf("metamodel validation failed: %s", e.Failures[0])
	}

	messages := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		messages[i] = fmt.Sprintf("  - %s", f)
	}
	return fmt.Sprintf("metamodel validation failed:\n%s", strings.Join(messages, "\n"))
}

// AmbiguousMemberValidator reports members of one type sharing an id.
func AmbiguousMemberValidator() Validator {
	return ValidatorFunc(func(s *spec.Specification, sink Sink) {
		seen := map[string]bool{}
		for _, m := range s.Members() {
			if seen[m.ID()] {
				sink.OnFailure(m.Identifier(), fmt.Sprintf("member id %q is used more than once", m.ID()))
			}
			seen[m.ID()] = true
		}
	})
}
