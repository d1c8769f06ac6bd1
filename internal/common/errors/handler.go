package errors

import (
	"net/http"
	"time"
)

// ErrorHandler turns handler errors into HTTP statuses with standardized logging.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle normalizes err, logs it and returns the status the caller should respond with.
func (h *ErrorHandler) Handle(source string, err error) (int, *StandardError) {
	stdErr := Normalize(err)
	status := HTTPStatus(stdErr.Code)

	fields := map[string]interface{}{
		"source":        source,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
		"status":        status,
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("Webhook failed", fields)
	} else {
		h.logger.Warn("Webhook rejected", fields)
	}

	return status, stdErr
}

// Normalize ensures we always have a StandardError
func Normalize(err error) *StandardError {
	if stdErr, ok := AsStandard(err); ok {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// HTTPStatus maps an error code to the status returned to the webhook sender.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeAuthenticationFailed:
		return http.StatusUnauthorized
	case ErrCodeUnsignedTestEvent, ErrCodeNotRelevant:
		return http.StatusOK
	case ErrCodeInvalidPayload, ErrCodeMissingIdentity:
		return http.StatusBadRequest
	case ErrCodeRateLimitExceeded:
		return http.StatusServiceUnavailable
	case ErrCodeResolutionFailed, ErrCodeTransportError, ErrCodeUpstreamError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ErrorResponse is the JSON body written for a failed webhook.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Response builds the webhook error body for e.
func (e *StandardError) Response() ErrorResponse {
	return ErrorResponse{
		Error:   string(e.Code),
		Message: e.Message,
		Details: e.Details,
	}
}
