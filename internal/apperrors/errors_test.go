package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"Validation", Validation("All fields are required"), http.StatusBadRequest, "All fields are required"},
		{"Conflict", Conflict("Email already exists"), http.StatusConflict, "Email already exists"},
		{"Auth", Auth("Invalid credentials"), http.StatusUnauthorized, "Invalid credentials"},
		{"NotFound", NotFound("User not found"), http.StatusNotFound, "User not found"},
		{"InternalHidesCause", Internal(errors.New("disk I/O error")), http.StatusInternalServerError, "Internal server error"},
		{"Wrapped", fmt.Errorf("signup: %w", Conflict("Email already exists")), http.StatusConflict, "Email already exists"},
		{"Plain", errors.New("boom"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, msg := HTTPStatus(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantMsg, msg)
		})
	}
}

func TestErrorsIs(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NotFound("User not found"))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrAuth)

	cause := errors.New("database is locked")
	internal := Internal(cause)
	assert.ErrorIs(t, internal, ErrInternal)
	assert.ErrorIs(t, internal, cause)
}
