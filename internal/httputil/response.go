package httputil

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/streamerhub/hub-server-go/internal/errors"
)

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error string              `json:"error"`
	Code  apperrors.ErrorCode `json:"code"`
}

// WriteError writes an AppError as an HTTP response with appropriate status code
func WriteError(w http.ResponseWriter, err error) {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		// Wrap unknown errors as internal errors
		appErr = apperrors.Internal("An unexpected error occurred")
	}

	WriteJSON(w, statusFromCode(appErr.Code), ErrorResponse{
		Error: appErr.Message,
		Code:  appErr.Code,
	})
}

// statusFromCode maps ErrorCode to HTTP status code
func statusFromCode(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeEntriesClosed,
		apperrors.ErrCodeInsufficientPoints,
		apperrors.ErrCodeEntryLimitReached:
		return http.StatusBadRequest

	case apperrors.ErrCodeUnauthorized:
		return http.StatusUnauthorized

	case apperrors.ErrCodeForbidden:
		return http.StatusForbidden

	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound

	case apperrors.ErrCodeAlreadyExists:
		return http.StatusConflict

	case apperrors.ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests

	default:
		return http.StatusInternalServerError
	}
}
