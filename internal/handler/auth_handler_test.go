package handler

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/symbohub-api/internal/models"
	appErrors "github.com/noah-isme/symbohub-api/pkg/errors"
)

func TestAuthHandlerLoginInvalidBody(t *testing.T) {
	svc := &authStub{}
	handler := NewAuthHandler(svc)
	c, w := newContext(http.MethodPost, "/api/auth/college/login", bytes.NewBufferString(`{"email":`), nil)
	c.Request.Header.Set("Content-Type", "application/json")

	handler.LoginCollege(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, appErrors.ErrValidation.Code, decodeEnvelope(t, w).ErrorCode)
	assert.Empty(t, svc.calls)
}

func TestAuthHandlerLoginSuccess(t *testing.T) {
	svc := &authStub{}
	handler := NewAuthHandler(svc)
	c, w := newContext(http.MethodPost, "/api/auth/department/login", jsonBody(t, models.LoginRequest{Email: "cs@acme.edu", Password: "secret1"}), nil)
	c.Request.Header.Set("Content-Type", "application/json")

	handler.LoginDepartment(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"token":"tok"`)
	assert.Contains(t, w.Body.String(), `"type":"Bearer"`)
	assert.Equal(t, []string{string(models.RoleDepartment)}, svc.calls)
}

func TestAuthHandlerLoginMapsServiceErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"bad password", appErrors.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"pending college", appErrors.Clone(appErrors.ErrIllegalState, "college is not approved"), http.StatusBadRequest, "ILLEGAL_STATE"},
		{"throttled", appErrors.ErrTooManyAttempts, http.StatusTooManyRequests, "TOO_MANY_ATTEMPTS"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewAuthHandler(&authStub{err: tc.err})
			c, w := newContext(http.MethodPost, "/api/auth/college/login", jsonBody(t, models.LoginRequest{Email: "acme@example.com", Password: "x"}), nil)
			c.Request.Header.Set("Content-Type", "application/json")

			handler.LoginCollege(c)

			require.Equal(t, tc.status, w.Code)
			env := decodeEnvelope(t, w)
			assert.False(t, env.Success)
			assert.Equal(t, tc.code, env.ErrorCode)
		})
	}
}

func TestAuthHandlerMe(t *testing.T) {
	handler := NewAuthHandler(&authStub{})

	c, w := newContext(http.MethodGet, "/api/auth/me", nil, nil)
	handler.Me(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	c, w = newContext(http.MethodGet, "/api/auth/me", nil, collegePrincipal)
	handler.Me(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"COLLEGE"`)
}
