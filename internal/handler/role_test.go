package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Whizard545/roomsync-prod/internal/model"
)

func TestGrantRoleRequiresAdmin(t *testing.T) {
	h := &RoleHandler{Gate: userGate()}
	c, rec := newJSONCtx(t, http.MethodPost, "/v1/admin/roles",
		`{"email":"bob@example.com","role":"admin"}`, alice())
	require.NoError(t, h.GrantRole(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGrantRoleRequiresPrincipal(t *testing.T) {
	h := &RoleHandler{Gate: adminGate()}
	c, rec := newJSONCtx(t, http.MethodPost, "/v1/admin/roles",
		`{"email":"bob@example.com","role":"admin"}`, model.Principal{})
	require.NoError(t, h.GrantRole(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGrantRoleValidation(t *testing.T) {
	h := &RoleHandler{Gate: adminGate()}
	cases := []struct {
		name string
		body string
	}{
		{"bad email", `{"email":"not-an-email","role":"admin"}`},
		{"unknown role", `{"email":"bob@example.com","role":"owner"}`},
		{"empty role", `{"email":"bob@example.com","role":""}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newJSONCtx(t, http.MethodPost, "/v1/admin/roles", tc.body, alice())
			require.NoError(t, h.GrantRole(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestUpdateRoleValidation(t *testing.T) {
	h := &RoleHandler{Gate: adminGate()}

	c, rec := newJSONCtx(t, http.MethodPut, "/v1/admin/roles/abc", `{"role":"admin"}`, alice())
	c.SetParamNames("id")
	c.SetParamValues("abc")
	require.NoError(t, h.UpdateRole(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = newJSONCtx(t, http.MethodPut, "/v1/admin/roles/3", `{"role":"owner"}`, alice())
	c.SetParamNames("id")
	c.SetParamValues("3")
	require.NoError(t, h.UpdateRole(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
