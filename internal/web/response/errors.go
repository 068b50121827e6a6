// Package response renders JSON bodies and errors for the introspection API.
package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/conduit-lang/metamodel/internal/metamodel/facets/value"
	"github.com/conduit-lang/metamodel/internal/metamodel/spec"
	"github.com/conduit-lang/metamodel/internal/persistence"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// RenderJSON writes v as the JSON body with the given status.
func RenderJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// RenderError renders a standard error response
func RenderError(w http.ResponseWriter, statusCode int, err error) {
	RenderJSON(w, statusCode, &ErrorResponse{
		Error:   "error",
		Message: err.Error(),
		Code:    errorCodeFromStatus(statusCode),
	})
}

// RenderNotFound renders a 404 Not Found error
func RenderNotFound(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Resource not found"
	}
	RenderError(w, http.StatusNotFound, errors.New(message))
}

// RenderDomainError maps metamodel and persistence errors onto statuses:
// missing objects are 404, unidentifiable or unparsable identifiers 400,
// everything else 500.
func RenderDomainError(w http.ResponseWriter, err error) {
	RenderError(w, StatusOf(err), err)
}

// StatusOf returns the HTTP status RenderDomainError uses for err.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, spec.ErrObjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, spec.ErrNotIdentifiable),
		errors.Is(err, persistence.ErrNotPersistable),
		errors.Is(err, value.ErrMalformed),
		errors.Is(err, value.ErrEntryRequired):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// errorCodeFromStatus generates an error code from HTTP status
func errorCodeFromStatus(statusCode int) string {
	switch statusCode {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusInternalServerError:
		return "internal_error"
	case http.StatusServiceUnavailable:
		return "service_unavailable"
	default:
		return "error"
	}
}
