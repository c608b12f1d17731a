package errors

import (
	"fmt"
	"net/http"
)

// ErrorCode represents a stable machine-readable error code carried on
// every error response.
type ErrorCode string

const (
	ErrCodeValidation      ErrorCode = "VALIDATION_ERROR"
	ErrCodeNotFound        ErrorCode = "NOT_FOUND"
	ErrCodeDuplicate       ErrorCode = "DUPLICATE"
	ErrCodeUpload          ErrorCode = "UPLOAD_ERROR"
	ErrCodeMissingFiles    ErrorCode = "MISSING_REQUIRED_FILES"
	ErrCodeTransport       ErrorCode = "TRANSPORT_ERROR"
	ErrCodePersistence     ErrorCode = "PERSISTENCE_ERROR"
	ErrCodeBadRequest      ErrorCode = "BAD_REQUEST"
	ErrCodeApplicationMiss ErrorCode = "APPLICATION_NOT_FOUND"
)

// AppError represents an application error with a stable code.
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the error code to the response status.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case ErrCodeNotFound, ErrCodeApplicationMiss:
		return http.StatusNotFound
	case ErrCodeValidation, ErrCodeDuplicate, ErrCodeUpload,
		ErrCodeMissingFiles, ErrCodeBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap wraps an underlying error with an AppError.
func Wrap(code ErrorCode, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// IsNotFound checks if the error is a not-found condition.
func IsNotFound(err error) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == ErrCodeNotFound || appErr.Code == ErrCodeApplicationMiss
	}
	return false
}

// IsDuplicate checks if the error is a uniqueness violation.
func IsDuplicate(err error) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == ErrCodeDuplicate
	}
	return false
}
