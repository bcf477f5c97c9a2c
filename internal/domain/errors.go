package domain

import (
	"errors"
	"net/http"
)

// Error codes for business logic errors.
const (
	CodeNotFound           = 1
	CodeValidation         = 3
	CodeInternal           = 4
	CodeUnauthorized       = 5
	CodeInvalidFilterValue = 6
	CodeSearchFailed       = 7
	CodeUpstream           = 8
)

// AppError represents a business logic error with a code, message, and optional wrapped error.
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the wrapped error for use with errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined business errors.
//
// Match categories with the helper functions (IsNotFound, IsSearchFailed, ...)
// rather than errors.Is: the helpers compare codes, so freshly constructed
// errors from NewAppError match as well as these sentinels.
var (
	ErrNotFound      = &AppError{Code: CodeNotFound, Message: "not found"}
	ErrValidation    = &AppError{Code: CodeValidation, Message: "validation error"}
	ErrInternal      = &AppError{Code: CodeInternal, Message: "internal error"}
	ErrUnauthorized  = &AppError{Code: CodeUnauthorized, Message: "unauthorized"}
	ErrSearchFailed  = &AppError{Code: CodeSearchFailed, Message: "failed to search rooms"}
	ErrInvalidFilter = &AppError{Code: CodeInvalidFilterValue, Message: "invalid filter value"}
)

// NewAppError creates a new AppError with the given code, message, and wrapped error.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsNotFound reports whether err is or wraps an AppError with CodeNotFound.
func IsNotFound(err error) bool {
	return hasCode(err, CodeNotFound)
}

// IsValidation reports whether err is or wraps an AppError with CodeValidation.
func IsValidation(err error) bool {
	return hasCode(err, CodeValidation)
}

// IsInternal reports whether err is or wraps an AppError with CodeInternal.
func IsInternal(err error) bool {
	return hasCode(err, CodeInternal)
}

// IsUnauthorized reports whether err is or wraps an AppError with CodeUnauthorized.
func IsUnauthorized(err error) bool {
	return hasCode(err, CodeUnauthorized)
}

// IsInvalidFilterValue reports whether err is or wraps an AppError with CodeInvalidFilterValue.
func IsInvalidFilterValue(err error) bool {
	return hasCode(err, CodeInvalidFilterValue)
}

// IsSearchFailed reports whether err is or wraps an AppError with CodeSearchFailed.
func IsSearchFailed(err error) bool {
	return hasCode(err, CodeSearchFailed)
}

// IsUpstream reports whether err is or wraps an AppError with CodeUpstream.
func IsUpstream(err error) bool {
	return hasCode(err, CodeUpstream)
}

// hasCode checks whether err is or wraps an *AppError with the given code.
// The outermost AppError in the chain decides.
func hasCode(err error, code int) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// UserMessage returns the message of the outermost AppError in err, or
// fallback when err carries none.
func UserMessage(err error, fallback string) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}

// HTTPStatusCode maps an error to an HTTP status code.
// If the error is an *AppError, the code is mapped; otherwise http.StatusInternalServerError is returned.
func HTTPStatusCode(err error) int {
	var appErr *AppError
	if err != nil && errors.As(err, &appErr) {
		switch appErr.Code {
		case CodeNotFound:
			return http.StatusNotFound
		case CodeValidation, CodeInvalidFilterValue:
			return http.StatusBadRequest
		case CodeUnauthorized:
			return http.StatusUnauthorized
		case CodeSearchFailed, CodeUpstream:
			return http.StatusBadGateway
		case CodeInternal:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}
