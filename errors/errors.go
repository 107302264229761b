package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is the error type rendered to HTTP clients. Message is what the
// client sees in the "detail" field; Err stays server side.
type AppError struct {
	Code    int    `json:"-"`
	Message string `json:"detail"`
	Op      string `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func E(op string, err error, message string, code int) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Op:      op,
		Err:     err,
	}
}

func InvalidInput(op string, err error, message string) *AppError {
	return E(op, err, message, http.StatusBadRequest)
}

func Unprocessable(op string, err error, message string) *AppError {
	return E(op, err, message, http.StatusUnprocessableEntity)
}

func NotFound(op string, err error, message string) *AppError {
	return E(op, err, message, http.StatusNotFound)
}

func Unavailable(op string, err error, message string) *AppError {
	return E(op, err, message, http.StatusServiceUnavailable)
}

func Internal(op string, err error, message string) *AppError {
	return E(op, err, message, http.StatusInternalServerError)
}

// As reports whether err carries an *AppError and returns it.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func IsNotFound(err error) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == http.StatusNotFound
}
