// Package errors provides standardized error handling for the relay's webhook handlers
// and helpdesk calls.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Inbound event errors
const (
	ErrCodeAuthenticationFailed ErrorCode = "AUTHENTICATION_FAILED"
	ErrCodeUnsignedTestEvent    ErrorCode = "UNSIGNED_TEST_EVENT"
	ErrCodeNotRelevant          ErrorCode = "NOT_RELEVANT"
	ErrCodeInvalidPayload       ErrorCode = "INVALID_PAYLOAD"
	ErrCodeMissingIdentity      ErrorCode = "MISSING_IDENTITY"
)

// Helpdesk errors
const (
	ErrCodeResolutionFailed  ErrorCode = "RESOLUTION_FAILED"
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrCodeTransportError    ErrorCode = "TRANSPORT_ERROR"
	ErrCodeUpstreamError     ErrorCode = "UPSTREAM_ERROR"
)

const ErrCodeInternal ErrorCode = "INTERNAL_ERROR"

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata returns the error with key set in its metadata.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. Error Constructors
// ==========================

// NewAuthenticationError creates a non-retryable signature error.
func NewAuthenticationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAuthenticationFailed,
		Message:   "Invalid webhook signature",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnsignedTestEventError marks a request that carried no signature at all.
func NewUnsignedTestEventError() *StandardError {
	return &StandardError{
		Code:      ErrCodeUnsignedTestEvent,
		Message:   "Unsigned test webhook",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotRelevantError creates an error for events that require no action.
func NewNotRelevantError(reason string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotRelevant,
		Message:   reason,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidPayloadError creates a non-retryable payload error.
func NewInvalidPayloadError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidPayload,
		Message:   "Invalid webhook payload",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMissingIdentityError creates an error for relevant events without an email.
func NewMissingIdentityError() *StandardError {
	return &StandardError{
		Code:      ErrCodeMissingIdentity,
		Message:   "no email",
		Details:   "contact payload carries no email address",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewResolutionFailedError creates an error for a failed contact find-or-create.
// status and body describe the upstream response; status is 0 when no response was received.
func NewResolutionFailedError(email string, status int, body string, cause error) *StandardError {
	details := fmt.Sprintf("email: %s, status: %d", email, status)
	if cause != nil {
		details = fmt.Sprintf("%s, error: %s", details, cause.Error())
	}
	return &StandardError{
		Code:      ErrCodeResolutionFailed,
		Message:   "cannot resolve contact",
		Details:   details,
		Retryable: true,
		Metadata: map[string]interface{}{
			"status": status,
			"body":   body,
		},
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewRateLimitExceededError creates a retryable error after exhausting 429 retries.
func NewRateLimitExceededError(method, path string, attempts int) *StandardError {
	return &StandardError{
		Code:      ErrCodeRateLimitExceeded,
		Message:   "Helpdesk rate limit exceeded",
		Details:   fmt.Sprintf("%s %s gave up after %d attempts", method, path, attempts),
		Retryable: true,
		Metadata: map[string]interface{}{
			"attempts": attempts,
		},
		Timestamp: time.Now().UTC(),
	}
}

// NewTransportError creates a retryable network-level error.
func NewTransportError(method, path string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTransportError,
		Message:   "Helpdesk request failed",
		Details:   fmt.Sprintf("%s %s: %s", method, path, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewUpstreamError creates an error for a non-success helpdesk response.
func NewUpstreamError(operation string, status int, body string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUpstreamError,
		Message:   fmt.Sprintf("%s failed", operation),
		Details:   fmt.Sprintf("status %d: %s", status, body),
		Retryable: status >= http.StatusInternalServerError,
		Metadata: map[string]interface{}{
			"status": status,
			"body":   body,
		},
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps an unexpected error.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// AsStandard extracts a *StandardError from err's chain.
func AsStandard(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// CodeOf returns the code of the first StandardError in err's chain, or "" if none.
func CodeOf(err error) ErrorCode {
	if stdErr, ok := AsStandard(err); ok {
		return stdErr.Code
	}
	return ""
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	switch code {
	case ErrCodeResolutionFailed, ErrCodeRateLimitExceeded, ErrCodeTransportError:
		return true
	}
	return false
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeAuthenticationFailed, ErrCodeUnsignedTestEvent:
		return "authentication"
	case ErrCodeNotRelevant, ErrCodeInvalidPayload, ErrCodeMissingIdentity:
		return "input"
	case ErrCodeResolutionFailed, ErrCodeUpstreamError:
		return "helpdesk"
	case ErrCodeRateLimitExceeded, ErrCodeTransportError:
		return "transport"
	default:
		return "internal"
	}
}
