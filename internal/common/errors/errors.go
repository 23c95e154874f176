// Package errors provides standardized error handling for workflow activities.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	ErrCodeGeocodeLookupFailed ErrorCode = "GEOCODE_LOOKUP_FAILED"
	ErrCodeGeocodeTimeout      ErrorCode = "GEOCODE_TIMEOUT"

	ErrCodeLLMCallFailed ErrorCode = "LLM_CALL_FAILED"
	ErrCodeLLMTimeout    ErrorCode = "LLM_TIMEOUT"

	ErrCodeExtractionEmpty ErrorCode = "EXTRACTION_EMPTY"

	ErrCodeStoreFailed ErrorCode = "STORE_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Retryable bool      `json:"retryable"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// NewValidationError creates a non-retryable input validation error.
// Validation is deterministic, so retrying it has no value.
func NewValidationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Input validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewGeocodeLookupFailedError creates a retryable geocoding error.
func NewGeocodeLookupFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeGeocodeLookupFailed,
		Message:   "Geocoding lookup failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewGeocodeTimeoutError creates a retryable geocoding timeout error.
func NewGeocodeTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeGeocodeTimeout,
		Message:   "Geocoding service timeout",
		Details:   "lookup exceeded timeout threshold",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewLLMCallFailedError creates a retryable language-model error.
func NewLLMCallFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMCallFailed,
		Message:   "Language model API error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewLLMTimeoutError creates a retryable language-model timeout error.
func NewLLMTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMTimeout,
		Message:   "Language model call timeout",
		Details:   "call exceeded timeout threshold",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewExtractionEmptyError creates a non-retryable extraction error.
// An empty extraction must surface as a failure, never as "no interests".
func NewExtractionEmptyError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeExtractionEmpty,
		Message:   "Could not parse model response and no interests found in text",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreFailedError creates a retryable workflow-store error.
func NewStoreFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreFailed,
		Message:   "Workflow store operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// Generic constructors

func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "EXTERNAL_SERVICE_ERROR",
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "TIMEOUT_ERROR",
		Message:   fmt.Sprintf("Service '%s' timeout", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// IsRetryable reports whether err should be retried by an activity's retry
// policy. Unknown errors are treated as transient.
func IsRetryable(err error) bool {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Retryable
	}
	return true
}

// CodeOf returns the error code carried by err, or UNKNOWN_ERROR.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code
	}
	return "UNKNOWN_ERROR"
}
