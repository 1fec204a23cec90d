package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrorTypeValidation       ErrorType = "VALIDATION"
	ErrorTypeUnauthenticated  ErrorType = "UNAUTHENTICATED"
	ErrorTypeForbidden        ErrorType = "FORBIDDEN"
	ErrorTypeNotFound         ErrorType = "NOT_FOUND"
	ErrorTypeMethodNotAllowed ErrorType = "METHOD_NOT_ALLOWED"
	ErrorTypeNotAcceptable    ErrorType = "NOT_ACCEPTABLE"
	ErrorTypeConflict         ErrorType = "CONFLICT"
	ErrorTypeRateLimited      ErrorType = "RATE_LIMITED"
	ErrorTypeInternal         ErrorType = "INTERNAL_SERVER_ERROR"
)

var statusByType = map[ErrorType]int{
	ErrorTypeValidation:       http.StatusBadRequest,
	ErrorTypeUnauthenticated:  http.StatusUnauthorized,
	ErrorTypeForbidden:        http.StatusForbidden,
	ErrorTypeNotFound:         http.StatusNotFound,
	ErrorTypeMethodNotAllowed: http.StatusMethodNotAllowed,
	ErrorTypeNotAcceptable:    http.StatusNotAcceptable,
	ErrorTypeConflict:         http.StatusConflict,
	ErrorTypeRateLimited:      http.StatusTooManyRequests,
	ErrorTypeInternal:         http.StatusInternalServerError,
}

// TypedError is an error that knows how it should be presented to clients.
type TypedError interface {
	error
	ErrorType() ErrorType
	StatusCode() int
}

// AppError carries a client-facing message, its status and an optional payload.
type AppError struct {
	Type    ErrorType
	Status  int
	Message string
	Data    any
	err     error
}

func (e *AppError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.err)
	}
	return e.Message
}

func (e *AppError) ErrorType() ErrorType { return e.Type }
func (e *AppError) StatusCode() int      { return e.Status }
func (e *AppError) Unwrap() error        { return e.err }

// WithData returns a copy of e carrying data in the response envelope.
func (e *AppError) WithData(data any) *AppError {
	cp := *e
	cp.Data = data
	return &cp
}

func NewTypedError(message string, errorType ErrorType) *AppError {
	status, ok := statusByType[errorType]
	if !ok {
		status = http.StatusInternalServerError
	}
	return &AppError{Type: errorType, Status: status, Message: message}
}

func Validation(format string, args ...any) *AppError {
	return NewTypedError(fmt.Sprintf(format, args...), ErrorTypeValidation)
}

func NotFound(message string) *AppError {
	return NewTypedError(message, ErrorTypeNotFound)
}

func Conflict(message string) *AppError {
	return NewTypedError(message, ErrorTypeConflict)
}

func RateLimited(message string) *AppError {
	return NewTypedError(message, ErrorTypeRateLimited)
}

func Unauthorized(message string) *AppError {
	return NewTypedError(message, ErrorTypeUnauthenticated)
}

func Forbidden(message string) *AppError {
	return NewTypedError(message, ErrorTypeForbidden)
}

func MethodNotAllowed(message string) *AppError {
	return NewTypedError(message, ErrorTypeMethodNotAllowed)
}

func NotAcceptable(message string) *AppError {
	return NewTypedError(message, ErrorTypeNotAcceptable)
}

// InternalServerError wraps err so it is logged in full but rendered generically.
func InternalServerError(err error, message string, args ...any) *AppError {
	e := NewTypedError(fmt.Sprintf(message, args...), ErrorTypeInternal)
	e.err = err
	return e
}

// As reports whether err is, or wraps, an *AppError.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stdErrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

var _ TypedError = (*AppError)(nil)
