package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainError(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))

	conflict := NewConflict("email already registered", nil)
	wrapped := fmt.Errorf("register: %w", conflict)
	de := ToDomainError(wrapped)
	require.NotNil(t, de)
	assert.Equal(t, http.StatusConflict, de.HTTPStatus)
	assert.Equal(t, "email already registered", de.Message)

	cause := errors.New("connection reset")
	de = ToDomainError(cause)
	assert.Equal(t, http.StatusInternalServerError, de.HTTPStatus)
	assert.Equal(t, "Internal server error", de.Message)
	assert.ErrorIs(t, de, cause)
}

func TestValidateStruct(t *testing.T) {
	type payload struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=6"`
	}

	assert.NoError(t, ValidateStruct(payload{Email: "a@example.com", Password: "secret1"}))

	err := ValidateStruct(payload{Email: "nope", Password: "123"})
	de := ToDomainError(err)
	require.NotNil(t, de)
	assert.Equal(t, http.StatusBadRequest, de.HTTPStatus)
	assert.Equal(t, "email must be a valid email", de.Details["email"])
	assert.Equal(t, "password must be at least 6 characters", de.Details["password"])
}
