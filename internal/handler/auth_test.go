package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Whizard545/roomsync-prod/internal/model"
)

func TestRegisterValidation(t *testing.T) {
	h := &AuthHandler{}
	cases := []struct {
		name string
		body string
	}{
		{"not json", `{{{`},
		{"missing email", `{"password":"supersecret"}`},
		{"bad email", `{"email":"not-an-email","password":"supersecret"}`},
		{"short password", `{"email":"new@example.com","password":"short"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newJSONCtx(t, http.MethodPost, "/v1/auth/register", tc.body, model.Principal{})
			require.NoError(t, h.Register(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestLoginValidation(t *testing.T) {
	h := &AuthHandler{}
	cases := []struct {
		name string
		body string
	}{
		{"missing email", `{"password":"supersecret"}`},
		{"missing password", `{"email":"alice@example.com"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newJSONCtx(t, http.MethodPost, "/v1/auth/login", tc.body, model.Principal{})
			require.NoError(t, h.Login(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestRefreshRequiresToken(t *testing.T) {
	h := &AuthHandler{}
	c, rec := newJSONCtx(t, http.MethodPost, "/v1/auth/refresh", `{}`, model.Principal{})
	require.NoError(t, h.Refresh(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogoutRequiresToken(t *testing.T) {
	h := &AuthHandler{}
	c, rec := newJSONCtx(t, http.MethodPost, "/v1/auth/logout", `{}`, model.Principal{})
	require.NoError(t, h.Logout(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogoutAllRequiresPrincipal(t *testing.T) {
	h := &AuthHandler{}
	c, rec := newJSONCtx(t, http.MethodPost, "/v1/auth/logout", `{"all":true}`, model.Principal{})
	require.NoError(t, h.Logout(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
