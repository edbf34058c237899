package api

import (
	"errors"
	"net/http"

	"github.com/smilemakc/patterex/pattern"
)

// APIError is a machine-readable error response, the same shape the teacher
// uses on its REST surface: a stable Code for programmatic handling, a
// human Message, and an HTTP status that never leaks into the JSON body.
type APIError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	HTTPStatus int            `json:"-"`
}

func (e *APIError) Error() string {
	return e.Message
}

func NewAPIError(code, message string, httpStatus int) *APIError {
	return &APIError{Code: code, Message: message, HTTPStatus: httpStatus}
}

func NewAPIErrorWithDetails(code, message string, httpStatus int, details map[string]any) *APIError {
	return &APIError{Code: code, Message: message, Details: details, HTTPStatus: httpStatus}
}

var (
	ErrInvalidJSON      = NewAPIError("INVALID_JSON", "Invalid JSON in request body", http.StatusBadRequest)
	ErrMissingParameter = NewAPIError("MISSING_PARAMETER", "Required parameter is missing", http.StatusBadRequest)
	ErrExecutionNotFound = NewAPIError("EXECUTION_NOT_FOUND", "Execution not found", http.StatusNotFound)
	ErrInternalServer   = NewAPIError("INTERNAL_ERROR", "Internal server error", http.StatusInternalServerError)
)

// TranslateError maps an error returned from pattern deserialization or the
// reactor into an APIError, following the teacher's TranslateError
// switchboard shape but against this engine's much smaller error surface.
func TranslateError(err error) *APIError {
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var valErr *pattern.ValidationError
	if errors.As(err, &valErr) {
		return NewAPIErrorWithDetails(
			"VALIDATION_FAILED",
			valErr.Message,
			http.StatusBadRequest,
			map[string]any{"field": valErr.Field},
		)
	}

	return NewAPIError("INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
}
