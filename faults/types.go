package faults

import (
	"errors"
	"net/http"
)

type ErrorCategory string

const (
	// NetworkError means the transport never produced a response.
	NetworkError ErrorCategory = "Network"
	// DecodeError means a response body was present but not valid JSON.
	DecodeError ErrorCategory = "Decode"
	// APIError means Harbor answered with a well-formed error body.
	APIError ErrorCategory = "ApiError"
	// UnknownError means a failure status without a parseable error body.
	UnknownError ErrorCategory = "Unknown"
	// ValidationError is raised before any remote call is made.
	ValidationError ErrorCategory = "Validation"
)

// TypedError is the error value carried through reconciliation results.
// StatusCode is zero when no HTTP response was received.
type TypedError struct {
	Category   ErrorCategory `json:"cause" yaml:"cause"`
	StatusCode int           `json:"httpStatus,omitempty" yaml:"httpStatus,omitempty"`
	Message    string        `json:"message" yaml:"message"`
	Cause      error         `json:"-" yaml:"-"`
}

func (e *TypedError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Message != "" && e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return string(e.Category)
}

func (e *TypedError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// HTTPStatus reports the response status, if one was received.
func (e *TypedError) HTTPStatus() (int, bool) {
	if e == nil || e.StatusCode == 0 {
		return 0, false
	}
	return e.StatusCode, true
}

func NewTypedError(category ErrorCategory, message string, cause error) *TypedError {
	return &TypedError{
		Category: category,
		Message:  message,
		Cause:    cause,
	}
}

func NewStatusError(category ErrorCategory, statusCode int, message string) *TypedError {
	return &TypedError{
		Category:   category,
		StatusCode: statusCode,
		Message:    message,
	}
}

func IsCategory(err error, category ErrorCategory) bool {
	if err == nil {
		return false
	}

	var typedErr *TypedError
	if !errors.As(err, &typedErr) {
		return false
	}
	return typedErr.Category == category
}

// AsTyped returns err as a TypedError, wrapping foreign errors as UnknownError.
func AsTyped(err error) *TypedError {
	if err == nil {
		return nil
	}

	var typedErr *TypedError
	if errors.As(err, &typedErr) {
		return typedErr
	}
	return NewTypedError(UnknownError, "", err)
}

// IsNotFound reports whether err carries a 404 from the remote API.
func IsNotFound(err error) bool {
	var typedErr *TypedError
	if !errors.As(err, &typedErr) {
		return false
	}
	return typedErr.StatusCode == http.StatusNotFound
}
