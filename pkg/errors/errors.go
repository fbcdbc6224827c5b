// Package errors provides a single typed error used across the session
// manager so that RPC boundaries (ICP status codes, admin-API HTTP status)
// can map failures without string sniffing.
package errors

import "net/http"

// ErrorType classifies an Error for status-code mapping and logging level.
type ErrorType string

// Recognized error types, per SPEC_FULL.md section 7.
const (
	ErrDecode             ErrorType = "decode_error"
	ErrNotFound           ErrorType = "not_found"
	ErrPermissionDenied   ErrorType = "permission_denied"
	ErrTimeout            ErrorType = "timeout"
	ErrShutdownInProgress ErrorType = "shutdown_in_progress"
	ErrInvalidArgument    ErrorType = "invalid_argument"
	ErrInternal           ErrorType = "internal"
	ErrFatal              ErrorType = "fatal"
)

// Error is the session manager's error type. Message is human-readable;
// Cause, when present, is wrapped and reachable via errors.Unwrap.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
}

// New constructs an Error without a wrapped cause.
func New(t ErrorType, message string) *Error {
	return &Error{Type: t, Message: message}
}

// Wrap constructs an Error wrapping cause.
func Wrap(t ErrorType, message string, cause error) *Error {
	return &Error{Type: t, Message: message, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return string(e.Type) + ": " + e.Message
	}
	return string(e.Type) + ": " + e.Message + ": " + e.Cause.Error()
}

// Unwrap lets errors.Is/errors.As reach the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Code maps err to an HTTP status code for the administrative API. Errors
// that are not *Error map to 500; this mirrors pkg/api/errors in the
// teacher repo, which logs the full error for 5xx and returns the message
// verbatim for 4xx.
func Code(err error) int {
	var se *Error
	if !As(err, &se) {
		return http.StatusInternalServerError
	}
	switch se.Type {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrPermissionDenied:
		return http.StatusForbidden
	case ErrInvalidArgument, ErrDecode:
		return http.StatusBadRequest
	case ErrTimeout:
		return http.StatusGatewayTimeout
	case ErrShutdownInProgress:
		return http.StatusServiceUnavailable
	case ErrFatal, ErrInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// As is a small local indirection over the standard errors.As so that Code
// doesn't force every caller to import both packages under different names.
func As(err error, target **Error) bool {
	for err != nil {
		if se, ok := err.(*Error); ok {
			*target = se
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
