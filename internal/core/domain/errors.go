package domain

import (
	"errors"
	"fmt"
)

// ErrorCode classifies every failure a use case may return.
type ErrorCode string

const (
	// Caller errors — not retryable.
	ErrInvalidInput          ErrorCode = "INVALID_INPUT"
	ErrMissingRequiredField  ErrorCode = "MISSING_REQUIRED_FIELD"
	ErrInvalidCoordinates    ErrorCode = "INVALID_COORDINATES"
	ErrInvalidTimeConstraint ErrorCode = "INVALID_TIME_CONSTRAINT"

	// Collaborator errors — retryable.
	ErrGeocodingFailed    ErrorCode = "GEOCODING_FAILED"
	ErrIsochroneFailed    ErrorCode = "ISOCHRONE_FAILED"
	ErrPOISearchFailed    ErrorCode = "POI_SEARCH_FAILED"
	ErrRoutingFailed      ErrorCode = "ROUTING_FAILED"
	ErrOptimizationFailed ErrorCode = "OPTIMIZATION_FAILED"

	// Business outcomes — not errors in the exceptional sense, not retryable.
	ErrNoResultsFound         ErrorCode = "NO_RESULTS_FOUND"
	ErrTimeConstraintExceeded ErrorCode = "TIME_CONSTRAINT_EXCEEDED"
	ErrTooManyResults         ErrorCode = "TOO_MANY_RESULTS"

	// Catch-all — retryable.
	ErrUnknown ErrorCode = "UNKNOWN_ERROR"
)

// Retryable reports whether a caller may retry the same request.
func (c ErrorCode) Retryable() bool {
	switch c {
	case ErrGeocodingFailed, ErrIsochroneFailed, ErrPOISearchFailed,
		ErrRoutingFailed, ErrOptimizationFailed, ErrUnknown:
		return true
	}
	return false
}

// Error is the typed failure crossing every use-case boundary. Nothing
// panics across that boundary; collaborator failures are wrapped with the
// matching code and the original error kept as the cause.
type Error struct {
	Code      ErrorCode      `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Retryable bool           `json:"retryable"`

	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying collaborator error for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.cause
}

// NewError builds a typed error with retryability derived from the code.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message, Retryable: code.Retryable()}
}

// WrapError builds a typed error that keeps err as the cause.
func WrapError(code ErrorCode, message string, err error) *Error {
	e := NewError(code, message)
	e.cause = err
	return e
}

// WithDetail attaches a key/value pair to the error's details.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// AsDomainError converts any error into a *Error. Already-typed errors pass
// through unchanged; everything else becomes UNKNOWN_ERROR.
func AsDomainError(err error) *Error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return de
	}
	return WrapError(ErrUnknown, err.Error(), err)
}
