package dto

import (
	"errors"
	"net/http"
	"testing"

	"github.com/estatecrm/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code   string
		status int
	}{
		{CodeNotFound, http.StatusNotFound},
		{CodeAlreadyExists, http.StatusConflict},
		{CodeInvalidInput, http.StatusBadRequest},
		{CodeInvalidID, http.StatusBadRequest},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeSessionRevoked, http.StatusUnauthorized},
		{CodeRateLimited, http.StatusTooManyRequests},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, GetHTTPStatus(tt.code), tt.code)
	}
}

func TestFromError(t *testing.T) {
	t.Run("domain error maps by code", func(t *testing.T) {
		status, resp := FromError(shared.ErrNotFound, false)
		assert.Equal(t, http.StatusNotFound, status)
		assert.False(t, resp.Success)
		assert.False(t, resp.JWTExpired)
	})

	t.Run("401 carries jwtExpired", func(t *testing.T) {
		status, resp := FromError(shared.ErrSessionRevoked, false)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.True(t, resp.JWTExpired)
		assert.Equal(t, "User is already logged out, try to login again", resp.Message)
	})

	t.Run("unknown error detail suppressed outside development", func(t *testing.T) {
		status, resp := FromError(errors.New("pq: connection refused"), false)
		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, "An unexpected error occurred", resp.Message)

		_, dev := FromError(errors.New("pq: connection refused"), true)
		assert.Equal(t, "pq: connection refused", dev.Message)
	})
}
