package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError carries the HTTP status a handler failure should map to.
// Handlers attach one with c.Error and the error middleware renders the
// response envelope from it.
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// NotFound reports a missing resource.
func NotFound(message string) *AppError {
	return &AppError{Code: http.StatusNotFound, Message: message}
}

// BadRequest reports a malformed or invalid request.
func BadRequest(message string) *AppError {
	return &AppError{Code: http.StatusBadRequest, Message: message}
}

// Unprocessable reports a well-formed request the analysis cannot act on,
// such as a series too short for the requested stage.
func Unprocessable(message string) *AppError {
	return &AppError{Code: http.StatusUnprocessableEntity, Message: message}
}

// Internal wraps an unexpected failure behind a client-safe message.
func Internal(err error, message string) *AppError {
	return &AppError{Code: http.StatusInternalServerError, Message: message, Err: err}
}

// GetStatusCode maps an error onto its HTTP status, defaulting to 500.
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return http.StatusInternalServerError
}
