package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// APIError represents a failed GitHub REST API call
type APIError struct {
	Op      string // Operation that failed
	Message string // Error message
	Status  int    // HTTP status code (zero when no response was received)
	Err     error  // Underlying error
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (HTTP %d)", e.Op, e.Message, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Kind maps the HTTP status onto the failure taxonomy. A missing status means
// the request never completed and is reported as a network failure.
func (e *APIError) Kind() Kind {
	switch e.Status {
	case 0:
		return KindNetwork
	case http.StatusUnauthorized, http.StatusNotFound:
		return KindAuthFailed
	case http.StatusForbidden:
		return KindPermissionDenied
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return KindNetwork
	}
	return KindUnknown
}

// NewAPIError creates a new APIError without an HTTP status
func NewAPIError(op, message string, err error) *APIError {
	return &APIError{
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// NewAPIHTTPError creates a new APIError with HTTP status
func NewAPIHTTPError(op string, status int, message string, err error) *APIError {
	return &APIError{
		Op:      op,
		Status:  status,
		Message: message,
		Err:     err,
	}
}

// IsNotFound checks if the error indicates a resource was not found
func IsNotFound(err error) bool {
	var ae *APIError
	if stderrors.As(err, &ae) {
		return ae.Status == http.StatusNotFound
	}
	return false
}

// IsRateLimitExceeded checks if the error indicates rate limit was exceeded
func IsRateLimitExceeded(err error) bool {
	var ae *APIError
	if stderrors.As(err, &ae) {
		return ae.Status == http.StatusTooManyRequests
	}
	return false
}
