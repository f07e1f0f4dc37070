package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/Whizard545/roomsync-prod/internal/auth"
	"github.com/Whizard545/roomsync-prod/internal/middleware"
	"github.com/Whizard545/roomsync-prod/internal/model"
	"github.com/Whizard545/roomsync-prod/internal/repository"
)

// RoomHandler serves the room registry: public listing for users plus
// admin-only create, soft-delete and full listing. Soft-deleted rooms
// keep their row and their booking history; they only disappear from
// the user-facing listing and stop accepting new bookings.
type RoomHandler struct {
	RoomRepo    *repository.RoomRepo
	BookingRepo *repository.BookingRepo
	Gate        *auth.Gate
}

// NewRoomHandler constructs a RoomHandler. All dependencies must be
// non-nil.
func NewRoomHandler(roomRepo *repository.RoomRepo, bookingRepo *repository.BookingRepo, gate *auth.Gate) *RoomHandler {
	if roomRepo == nil || bookingRepo == nil || gate == nil {
		panic("nil dependency passed to NewRoomHandler")
	}
	return &RoomHandler{RoomRepo: roomRepo, BookingRepo: bookingRepo, Gate: gate}
}

// requireAdmin resolves the request principal's role and translates
// gate errors to HTTP responses. Returns nil, false when a response has
// already been written.
func requireAdmin(c echo.Context, gate *auth.Gate) (model.Principal, bool) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		_ = c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		return model.Principal{}, false
	}
	if err := gate.Require(c.Request().Context(), principal, model.RoleAdmin); err != nil {
		switch {
		case errors.Is(err, auth.ErrNoPrincipal):
			_ = c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		case errors.Is(err, auth.ErrForbidden):
			_ = c.JSON(http.StatusForbidden, echo.Map{"error": "admin role required"})
		default:
			logrus.WithError(err).Error("role resolution failed")
			_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		return model.Principal{}, false
	}
	return principal, true
}

// ListRooms handles GET /v1/rooms: active rooms only, ordered by name.
func (h *RoomHandler) ListRooms(c echo.Context) error {
	if _, ok := middleware.PrincipalFrom(c); !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	rooms, err := h.RoomRepo.List(c.Request().Context(), false)
	if err != nil {
		logrus.WithError(err).Error("list rooms failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load rooms"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": rooms})
}

// ListAllRooms handles GET /v1/admin/rooms: the full registry including
// soft-deleted rooms, for admins.
func (h *RoomHandler) ListAllRooms(c echo.Context) error {
	if _, ok := requireAdmin(c, h.Gate); !ok {
		return nil
	}
	rooms, err := h.RoomRepo.List(c.Request().Context(), true)
	if err != nil {
		logrus.WithError(err).Error("list all rooms failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load rooms"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": rooms})
}

type createRoomReq struct {
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	Capacity    *int     `json:"capacity"`
	Equipment   *string  `json:"equipment"`
	LocationX   *float64 `json:"location_x"`
	LocationY   *float64 `json:"location_y"`
}

// CreateRoom handles POST /v1/admin/rooms. Name is the only required
// field; capacity when present must be positive.
func (h *RoomHandler) CreateRoom(c echo.Context) error {
	if _, ok := requireAdmin(c, h.Gate); !ok {
		return nil
	}
	var req createRoomReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	if req.Capacity != nil && *req.Capacity <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "capacity must be positive"})
	}
	room := &model.Room{
		Name:        req.Name,
		Description: req.Description,
		Capacity:    req.Capacity,
		Equipment:   req.Equipment,
		LocationX:   req.LocationX,
		LocationY:   req.LocationY,
		IsActive:    true,
	}
	id, err := h.RoomRepo.Create(c.Request().Context(), room)
	if err != nil {
		logrus.WithError(err).Error("create room failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create room"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// DeleteRoom handles DELETE /v1/admin/rooms/:id. The room is
// soft-deleted, never dropped, and only when no live bookings reference
// it: the check and the flag flip run in one transaction under the room
// row lock, so a booking racing in through the scheduler either commits
// before the check (delete rejected) or blocks on the lock and finds
// the room inactive. A live booking is any non-cancelled booking whose
// window has not fully ended.
func (h *RoomHandler) DeleteRoom(c echo.Context) error {
	if _, ok := requireAdmin(c, h.Gate); !ok {
		return nil
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}

	ctx := c.Request().Context()
	tx, err := h.RoomRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		logrus.WithError(err).Error("delete room: begin transaction failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := h.RoomRepo.LockActiveTx(ctx, tx, id); err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		logrus.WithError(err).Error("delete room: room lock failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	live, err := h.BookingRepo.CountLiveByRoomTx(ctx, tx, id, time.Now().UTC())
	if err != nil {
		logrus.WithError(err).Error("delete room: live booking count failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if live > 0 {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":         "room has active bookings",
			"live_bookings": live,
		})
	}

	if err := h.RoomRepo.DeactivateTx(ctx, tx, id); err != nil {
		logrus.WithError(err).Error("delete room: deactivate failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete room"})
	}
	if err := tx.Commit(); err != nil {
		logrus.WithError(err).Error("delete room: commit failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
