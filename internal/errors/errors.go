package errors

import (
	"errors"
	"fmt"
)

// ErrorCode identifies an error category to API clients.
type ErrorCode string

const (
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"

	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeAlreadyExists ErrorCode = "ALREADY_EXISTS"

	ErrCodeEntriesClosed      ErrorCode = "ENTRIES_CLOSED"
	ErrCodeInsufficientPoints ErrorCode = "INSUFFICIENT_POINTS"
	ErrCodeEntryLimitReached  ErrorCode = "ENTRY_LIMIT_REACHED"

	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// AppError is a structured error safe to return to clients.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func Unauthorized(message string) *AppError {
	return New(ErrCodeUnauthorized, message)
}

func Forbidden(message string) *AppError {
	return New(ErrCodeForbidden, message)
}

func NotFound(resource string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource))
}

func AlreadyExists(resource string) *AppError {
	return New(ErrCodeAlreadyExists, fmt.Sprintf("%s already exists", resource))
}

func EntriesClosed() *AppError {
	return New(ErrCodeEntriesClosed, "Entries are closed for this event")
}

func EntryLimitReached() *AppError {
	return New(ErrCodeEntryLimitReached, "Entry limit reached for this event")
}

func RateLimitExceeded() *AppError {
	return New(ErrCodeRateLimitExceeded, "Rate limit exceeded")
}

func Internal(message string) *AppError {
	return New(ErrCodeInternal, message)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
