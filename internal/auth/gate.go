// Package auth implements the authorization gate: an explicit
// capability check composed at each mutating entry point. Routing-level
// role middleware is deliberately absent; handlers that need a
// privilege call Gate.Require themselves, which keeps the requirement
// visible at the call site and lets role changes take effect on the
// next request rather than the next login.
package auth

import (
	"context"
	"errors"

	"github.com/Whizard545/roomsync-prod/internal/model"
)

// ErrNoPrincipal indicates the request carries no authenticated
// principal at all. Handlers translate it to HTTP 401.
var ErrNoPrincipal = errors.New("no authenticated principal")

// ErrForbidden indicates the principal's resolved role does not meet
// the required minimum. Handlers translate it to HTTP 403.
var ErrForbidden = errors.New("insufficient role")

// RoleStore resolves the role of a principal. Principals without an
// assignment resolve to the default user role. Implemented by
// repository.RoleRepo; kept as an interface so the gate can be
// exercised against a stub in tests.
type RoleStore interface {
	RoleOf(ctx context.Context, p model.Principal) (model.Role, error)
}

// Gate wraps mutating operations with a capability check against the
// role store. It has no side effects beyond returning an error.
type Gate struct {
	roles RoleStore
}

// NewGate constructs a Gate over the given role store.
func NewGate(roles RoleStore) *Gate {
	if roles == nil {
		panic("nil RoleStore passed to NewGate")
	}
	return &Gate{roles: roles}
}

// Require checks that the principal's resolved role meets the minimum.
// It returns ErrNoPrincipal for an empty principal, ErrForbidden when
// the role does not suffice, and passes through store errors so the
// caller can map them to a 500.
func (g *Gate) Require(ctx context.Context, p model.Principal, minimum model.Role) error {
	if p.IsZero() {
		return ErrNoPrincipal
	}
	role, err := g.roles.RoleOf(ctx, p)
	if err != nil {
		return err
	}
	if !role.Meets(minimum) {
		return ErrForbidden
	}
	return nil
}
