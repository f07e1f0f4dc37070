package handler

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/Whizard545/roomsync-prod/internal/auth"
	"github.com/Whizard545/roomsync-prod/internal/model"
)

// fixedRoleStore resolves every principal to one fixed role.
type fixedRoleStore struct {
	role model.Role
}

func (s fixedRoleStore) RoleOf(context.Context, model.Principal) (model.Role, error) {
	return s.role, nil
}

func adminGate() *auth.Gate { return auth.NewGate(fixedRoleStore{role: model.RoleAdmin}) }
func userGate() *auth.Gate  { return auth.NewGate(fixedRoleStore{role: model.RoleUser}) }

// newJSONCtx builds an Echo context carrying a JSON body and, when
// principal is non-zero, the authenticated principal the JWT middleware
// would have injected.
func newJSONCtx(t *testing.T, method, target, body string, principal model.Principal) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if !principal.IsZero() {
		c.Set("principal", principal)
	}
	return c, rec
}

var e = echo.New()

func alice() model.Principal { return model.AuthenticatedPrincipal(1, "alice@example.com") }
