package utils

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorMessageIncludesOrigin(t *testing.T) {
	err := NewAppError(ErrDatabase, "Failed to save comment", errors.New("disk full"))
	assert.Equal(t, "Failed to save comment: disk full", err.Error())

	bare := NewAppError(ErrNotFound, "Comment not found", nil)
	assert.Equal(t, "Comment not found", bare.Error())
}

func TestIsErrorCodeSeesWrappedErrors(t *testing.T) {
	inner := NewAppError(ErrCommentLiked, "liked", nil)
	wrapped := fmt.Errorf("enter edit: %w", inner)

	assert.True(t, IsErrorCode(wrapped, ErrCommentLiked))
	assert.False(t, IsErrorCode(wrapped, ErrNotFound))
	assert.False(t, IsErrorCode(errors.New("plain"), ErrNotFound))
}

func TestAsAppError(t *testing.T) {
	assert.Nil(t, AsAppError(nil))

	known := NewNotFoundError("Comment", "7")
	assert.Same(t, known, AsAppError(known))

	converted := AsAppError(errors.New("boom"))
	assert.Equal(t, ErrBackend, converted.Code)
	assert.EqualError(t, converted.Origin, "boom")
}

func TestIsAuthError(t *testing.T) {
	assert.True(t, IsAuthError(NewAppError(ErrUnauthenticated, "login", nil)))
	assert.True(t, IsAuthError(NewAppError(ErrInvalidToken, "bad", nil)))
	assert.False(t, IsAuthError(NewAppError(ErrCommentLiked, "liked", nil)))
}

func TestAppErrorToHTTPStatus(t *testing.T) {
	cases := map[string]int{
		ErrNotFound:         http.StatusNotFound,
		ErrInvalidInput:     http.StatusBadRequest,
		ErrUnauthenticated:  http.StatusUnauthorized,
		ErrCommentLiked:     http.StatusConflict,
		ErrEditInProgress:   http.StatusConflict,
		ErrSubmitInProgress: http.StatusConflict,
		ErrGateway:          http.StatusBadGateway,
		ErrActorTimeout:     http.StatusGatewayTimeout,
		ErrDatabase:         http.StatusInternalServerError,
		"SOMETHING_ELSE":    http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, AppErrorToHTTPStatus(code), code)
	}
}
