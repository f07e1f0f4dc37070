package handler

import (
	"errors"
	"net/http"
	"net/mail"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/Whizard545/roomsync-prod/internal/auth"
	"github.com/Whizard545/roomsync-prod/internal/model"
	"github.com/Whizard545/roomsync-prod/internal/repository"
)

// RoleHandler serves the admin role assignment endpoints. Grants are
// keyed by email so an admin can provision a role before the target
// account exists; the user id column is filled in when that user first
// registers or logs in.
type RoleHandler struct {
	Roles *repository.RoleRepo
	Gate  *auth.Gate
}

// NewRoleHandler constructs a RoleHandler. Dependencies must be
// non-nil.
func NewRoleHandler(roles *repository.RoleRepo, gate *auth.Gate) *RoleHandler {
	if roles == nil || gate == nil {
		panic("nil dependency passed to NewRoleHandler")
	}
	return &RoleHandler{Roles: roles, Gate: gate}
}

// ListRoles handles GET /v1/admin/roles: every assignment, newest
// first, pending grants included.
func (h *RoleHandler) ListRoles(c echo.Context) error {
	if _, ok := requireAdmin(c, h.Gate); !ok {
		return nil
	}
	assignments, err := h.Roles.List(c.Request().Context())
	if err != nil {
		logrus.WithError(err).Error("list roles failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load roles"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": assignments})
}

type grantRoleReq struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// GrantRole handles POST /v1/admin/roles. A given email can hold at
// most one assignment; granting twice is a conflict, use the update
// endpoint to change an existing assignment.
func (h *RoleHandler) GrantRole(c echo.Context) error {
	principal, ok := requireAdmin(c, h.Gate)
	if !ok {
		return nil
	}
	var req grantRoleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid email address"})
	}
	role := model.Role(strings.ToLower(strings.TrimSpace(req.Role)))
	if !role.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role must be user or admin"})
	}

	assignment, err := h.Roles.Grant(c.Request().Context(), req.Email, role, principal.Label())
	if err != nil {
		if errors.Is(err, repository.ErrRoleExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already has a role assignment"})
		}
		logrus.WithError(err).Error("grant role failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to grant role"})
	}
	return c.JSON(http.StatusCreated, assignment)
}

type updateRoleReq struct {
	Role string `json:"role"`
}

// UpdateRole handles PUT /v1/admin/roles/:id, changing the role of an
// existing assignment. The change is effective on the target's next
// request since roles are resolved per request, not baked into tokens.
func (h *RoleHandler) UpdateRole(c echo.Context) error {
	principal, ok := requireAdmin(c, h.Gate)
	if !ok {
		return nil
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid assignment id"})
	}
	var req updateRoleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	role := model.Role(strings.ToLower(strings.TrimSpace(req.Role)))
	if !role.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role must be user or admin"})
	}

	ctx := c.Request().Context()
	if err := h.Roles.UpdateByID(ctx, id, role, principal.Label()); err != nil {
		if errors.Is(err, repository.ErrRoleNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "role assignment not found"})
		}
		logrus.WithError(err).Error("update role failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update role"})
	}
	assignment, err := h.Roles.GetByID(ctx, id)
	if err != nil {
		logrus.WithError(err).Error("update role: reload failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update role"})
	}
	return c.JSON(http.StatusOK, assignment)
}
