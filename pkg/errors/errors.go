package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the category of a backup failure
type ErrorType string

const (
	ErrorTypeAuth          ErrorType = "auth"
	ErrorTypeTransport     ErrorType = "transport"
	ErrorTypeAPI           ErrorType = "api"
	ErrorTypeInvalidInput  ErrorType = "invalid_input"
	ErrorTypeConfiguration ErrorType = "configuration"
	ErrorTypeUnknown       ErrorType = "unknown"
)

// Error represents a classified error with optional HTTP or API code
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Code != 0 {
		return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, msg)
	}
	return fmt.Sprintf("%s error: %s", e.Type, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a typed error
func New(t ErrorType, message string) *Error {
	return &Error{Type: t, Message: message}
}

// Newf creates a typed error with a formatted message
func Newf(t ErrorType, format string, args ...interface{}) *Error {
	return &Error{Type: t, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a type and message to an underlying cause
func Wrap(t ErrorType, err error, message string) *Error {
	return &Error{Type: t, Message: message, Err: err}
}

// WithCode returns a copy of e carrying the given code
func (e *Error) WithCode(code int) *Error {
	c := *e
	c.Code = code
	return &c
}

// TypeOf returns the type of the first *Error in err's chain, or
// ErrorTypeUnknown.
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// IsType reports whether err carries the given type
func IsType(err error, t ErrorType) bool {
	return err != nil && TypeOf(err) == t
}

// IsRetryable checks if an error type should be retried.
// Only transport faults are transient; remote-reported faults are not
// retried since there is no backoff policy for them.
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeTransport:
		return true
	default:
		return false
	}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case 502, 503, 504: // Gateway errors
		return true
	default:
		return false
	}
}
