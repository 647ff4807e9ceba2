package utils

import (
	"errors"
	"net/http"
)

type AppError struct {
	Code    string
	Message string
	Origin  error // Original error that caused this error, if any
}

func (appErr *AppError) Error() string {
	if appErr.Origin != nil {
		return appErr.Message + ": " + appErr.Origin.Error()
	}
	return appErr.Message
}

func (appErr *AppError) Unwrap() error {
	return appErr.Origin
}

// Standard error codes for the application
const (
	// Resource errors
	ErrNotFound     = "NOT_FOUND"
	ErrDuplicate    = "DUPLICATE"
	ErrInvalidInput = "INVALID_INPUT"

	// Authentication/Authorization errors
	ErrUnauthenticated = "UNAUTHENTICATED" // no session token at all
	ErrUnauthorized    = "UNAUTHORIZED"
	ErrInvalidToken    = "INVALID_TOKEN"

	// Comment interaction errors
	ErrCommentLiked     = "COMMENT_LIKED"
	ErrEditInProgress   = "EDIT_IN_PROGRESS"
	ErrSubmitInProgress = "SUBMIT_IN_PROGRESS"

	// Collaborator errors
	ErrBackend  = "BACKEND_FAILURE"
	ErrGateway  = "GATEWAY_ERROR"
	ErrDatabase = "DATABASE_ERROR"

	// Actor communication errors
	ErrActorTimeout    = "ACTOR_TIMEOUT"
	ErrMessageRejected = "MESSAGE_REJECTED"
)

// Error creation helper functions
func NewAppError(code string, message string, originalErr error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Origin:  originalErr,
	}
}

func NewNotFoundError(what, id string) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: what + " not found: " + id,
	}
}

func NewInvalidInputError(reason string) *AppError {
	return &AppError{
		Code:    ErrInvalidInput,
		Message: reason,
	}
}

func NewActorTimeoutError(actorName string, err error) *AppError {
	return &AppError{
		Code:    ErrActorTimeout,
		Message: "Actor communication timeout: " + actorName,
		Origin:  err,
	}
}

// IsErrorCode reports whether err, or anything it wraps, is an AppError with code.
func IsErrorCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// AsAppError converts any error into an AppError, keeping existing codes.
func AsAppError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewAppError(ErrBackend, "Unexpected failure", err)
}

// IsAuthError reports whether the error means the viewer must sign in again.
func IsAuthError(err error) bool {
	return IsErrorCode(err, ErrUnauthenticated) ||
		IsErrorCode(err, ErrUnauthorized) ||
		IsErrorCode(err, ErrInvalidToken)
}

// AppErrorToHTTPStatus converts an AppError code to an HTTP status code.
func AppErrorToHTTPStatus(errorCode string) int {
	switch errorCode {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrInvalidInput:
		return http.StatusBadRequest
	case ErrUnauthenticated, ErrUnauthorized, ErrInvalidToken:
		return http.StatusUnauthorized
	case ErrDuplicate, ErrCommentLiked, ErrEditInProgress, ErrSubmitInProgress:
		return http.StatusConflict
	case ErrGateway:
		return http.StatusBadGateway
	case ErrActorTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
