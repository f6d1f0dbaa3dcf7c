// Package errors defines the sentinel errors shared across albumdb and an
// AppError wrapper that carries an HTTP status alongside the cause.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidRecord   = errors.New("invalid record")
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnknownStrategy = errors.New("unknown store strategy")
	ErrUnknownSource   = errors.New("unknown record source")
	ErrNotFinalized    = errors.New("store not finalized")
	ErrInternal        = errors.New("internal error")
	ErrTimeout         = errors.New("operation timed out")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// HTTPStatusCode maps err to a response status. An AppError's own status
// wins over the sentinel mapping.
func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrInvalidRecord), errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrUnknownStrategy), errors.Is(err, ErrUnknownSource):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFinalized):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
