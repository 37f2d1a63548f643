package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorType represents the different failure kinds an API call can end with
type ErrorType string

const (
	// ErrorTypeNetwork is a connection, DNS or timeout failure before any status was received
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeRateLimit is a 429 that survived every retry
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeHTTPStatus is any completed exchange whose status was not 200
	ErrorTypeHTTPStatus ErrorType = "http_status"
	// ErrorTypeProtocol is a 200 whose body was not a successful envelope
	ErrorTypeProtocol ErrorType = "protocol"
	// ErrorTypeRequest means the request could not be built
	ErrorTypeRequest ErrorType = "request"
	// ErrorTypeIO is a local failure while writing a download sink
	ErrorTypeIO ErrorType = "io"
)

// Error is the single error kind surfaced by the API client
type Error struct {
	Type    ErrorType
	Message string
	// Code is the HTTP status, 0 when none is known
	Code int
	// Body is the raw response body for protocol errors
	Body string
	// RetryAfter is the raw Retry-After header of a 429, if sent
	RetryAfter string
	// Err is the underlying cause, if any
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error without an underlying cause
func New(errorType ErrorType, code int, message string) *Error {
	return &Error{
		Type:    errorType,
		Message: message,
		Code:    code,
	}
}

// Wrap creates an Error around cause
func Wrap(errorType ErrorType, code int, cause error, message string) *Error {
	return &Error{
		Type:    errorType,
		Message: fmt.Sprintf("%s: %v", message, cause),
		Code:    code,
		Err:     cause,
	}
}

// NewStatusError builds the error for an unexpected HTTP status
func NewStatusError(code int) *Error {
	errorType := ErrorTypeHTTPStatus
	if code == http.StatusTooManyRequests {
		errorType = ErrorTypeRateLimit
	}
	return New(errorType, code, fmt.Sprintf("Unexpected status code %d", code))
}

// NewProtocolError builds the error for a body that is not a successful envelope
func NewProtocolError(body []byte, cause error) *Error {
	return &Error{
		Type:    ErrorTypeProtocol,
		Message: fmt.Sprintf("Unsuccessful api response. %s", body),
		Body:    string(body),
		Err:     cause,
	}
}

// As returns the *Error in err's chain, if any
func As(err error) (*Error, bool) {
	var apiErr *Error
	if stderrors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// StatusCode returns the HTTP status carried by err, or 0
func StatusCode(err error) int {
	if apiErr, ok := As(err); ok {
		return apiErr.Code
	}
	return 0
}

// IsType reports whether err carries the given type
func IsType(err error, errorType ErrorType) bool {
	apiErr, ok := As(err)
	return ok && apiErr.Type == errorType
}

// IsNotFound reports whether err is a 404, i.e. the resource is absent
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsRateLimited reports whether err is a 429 that exhausted its retries
func IsRateLimited(err error) bool {
	return StatusCode(err) == http.StatusTooManyRequests
}

// IsRetryable checks if an error type should be retried.
// Only rate limiting is retried; network and server failures fail fast.
func IsRetryable(errorType ErrorType) bool {
	return errorType == ErrorTypeRateLimit
}

// IsRetryableStatusCode checks if an HTTP status code should be retried
func IsRetryableStatusCode(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests
}
