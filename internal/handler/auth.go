package handler

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/Whizard545/roomsync-prod/internal/config"
	"github.com/Whizard545/roomsync-prod/internal/middleware"
	"github.com/Whizard545/roomsync-prod/internal/repository"
	"github.com/Whizard545/roomsync-prod/internal/utils"
)

// AuthHandler serves registration, login, token refresh and logout.
// Access tokens carry identity only; the user's role lives in the role
// store and is resolved fresh on every protected request, so a role
// change takes effect on the next request without reissuing tokens.
type AuthHandler struct {
	Users  *repository.UserRepo
	Tokens *repository.TokenRepo
	Roles  *repository.RoleRepo
	Cfg    config.Config
}

// NewAuthHandler constructs an AuthHandler. All repositories must be
// non-nil.
func NewAuthHandler(users *repository.UserRepo, tokens *repository.TokenRepo, roles *repository.RoleRepo, cfg config.Config) *AuthHandler {
	if users == nil || tokens == nil || roles == nil {
		panic("nil dependency passed to NewAuthHandler")
	}
	return &AuthHandler{Users: users, Tokens: tokens, Roles: roles, Cfg: cfg}
}

type registerReq struct {
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

// Register handles POST /v1/auth/register. After creating the user it
// reconciles any pre-provisioned role grant: an admin may have granted
// a role against this email before the account existed, and the grant
// row is waiting with a NULL user id.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid email address"})
	}
	if len(req.Password) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 8 characters"})
	}

	ctx := c.Request().Context()
	id, err := h.Users.Create(ctx, req.Email, req.Password, req.FirstName, req.LastName, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
		}
		logrus.WithError(err).Error("register: user insert failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to register"})
	}

	if err := h.Roles.ReconcilePending(ctx, req.Email, id); err != nil {
		// The grant stays keyed by email and will reconcile on login.
		logrus.WithError(err).WithField("email", req.Email).Warn("register: role reconcile failed")
	}

	return c.JSON(http.StatusCreated, echo.Map{"id": id, "email": req.Email})
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /v1/auth/login, issuing an access and refresh
// token pair on valid credentials. Unknown email and wrong password
// produce the same response.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}

	ctx := c.Request().Context()
	user, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if !utils.VerifyPassword(user.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	if err := h.Roles.ReconcilePending(ctx, user.Email, user.ID); err != nil {
		logrus.WithError(err).WithField("email", user.Email).Warn("login: role reconcile failed")
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, user.ID, user.Email, h.Cfg.AccessTTLMin)
	if err != nil {
		logrus.WithError(err).Error("login: access token signing failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to issue tokens"})
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		logrus.WithError(err).Error("login: refresh token generation failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to issue tokens"})
	}
	if err := h.Tokens.StoreRefresh(ctx, user.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		logrus.WithError(err).Error("login: refresh token store failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to issue tokens"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"access_token":  access.Token,
		"expires_at":    access.Exp.Format(time.RFC3339),
		"refresh_token": refresh.Raw,
	})
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh handles POST /v1/auth/refresh: validates the presented
// refresh token, rotates it and returns a new token pair. The old
// refresh token is revoked so each one is single-use.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token is required"})
	}

	ctx := c.Request().Context()
	hash := utils.HashRefreshRaw(req.RefreshToken)
	userID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}
	user, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}

	if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
		logrus.WithError(err).Error("refresh: token revoke failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to refresh"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, user.ID, user.Email, h.Cfg.AccessTTLMin)
	if err != nil {
		logrus.WithError(err).Error("refresh: access token signing failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to refresh"})
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		logrus.WithError(err).Error("refresh: refresh token generation failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to refresh"})
	}
	if err := h.Tokens.StoreRefresh(ctx, user.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		logrus.WithError(err).Error("refresh: refresh token store failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to refresh"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"access_token":  access.Token,
		"expires_at":    access.Exp.Format(time.RFC3339),
		"refresh_token": refresh.Raw,
	})
}

// Logout handles POST /v1/auth/logout: revokes the presented refresh
// token. Authenticated callers may instead pass all=true to revoke
// every session.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req struct {
		RefreshToken string `json:"refresh_token"`
		All          bool   `json:"all"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ctx := c.Request().Context()

	if req.All {
		principal, ok := middleware.PrincipalFrom(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		userID, _ := principal.UserID()
		if err := h.Tokens.RevokeAllForUser(ctx, userID); err != nil {
			logrus.WithError(err).Error("logout: revoke all failed")
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to log out"})
		}
		return c.JSON(http.StatusOK, echo.Map{"success": true})
	}

	if req.RefreshToken == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token is required"})
	}
	if err := h.Tokens.RevokeByHash(ctx, utils.HashRefreshRaw(req.RefreshToken)); err != nil {
		logrus.WithError(err).Error("logout: token revoke failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to log out"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// Me handles GET /v1/me: returns the authenticated user's profile along
// with their currently effective role.
func (h *AuthHandler) Me(c echo.Context) error {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	userID, _ := principal.UserID()

	ctx := c.Request().Context()
	user, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		logrus.WithError(err).Error("me: user lookup failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load profile"})
	}
	role, err := h.Roles.RoleOf(ctx, principal)
	if err != nil {
		logrus.WithError(err).Error("me: role resolution failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load profile"})
	}
	return c.JSON(http.StatusOK, echo.Map{"user": user, "role": role})
}
