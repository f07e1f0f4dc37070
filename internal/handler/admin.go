package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/Whizard545/roomsync-prod/internal/auth"
	"github.com/Whizard545/roomsync-prod/internal/repository"
)

// AdminHandler serves aggregate counters for the admin dashboard.
type AdminHandler struct {
	Users    *repository.UserRepo
	Rooms    *repository.RoomRepo
	Bookings *repository.BookingRepo
	Roles    *repository.RoleRepo
	Gate     *auth.Gate
}

// NewAdminHandler constructs an AdminHandler. Dependencies must be
// non-nil.
func NewAdminHandler(users *repository.UserRepo, rooms *repository.RoomRepo, bookings *repository.BookingRepo, roles *repository.RoleRepo, gate *auth.Gate) *AdminHandler {
	if users == nil || rooms == nil || bookings == nil || roles == nil || gate == nil {
		panic("nil dependency passed to NewAdminHandler")
	}
	return &AdminHandler{Users: users, Rooms: rooms, Bookings: bookings, Roles: roles, Gate: gate}
}

// Stats handles GET /v1/admin/stats. Counts are read without a
// transaction; they are informational and a little skew between them is
// acceptable.
func (h *AdminHandler) Stats(c echo.Context) error {
	if _, ok := requireAdmin(c, h.Gate); !ok {
		return nil
	}
	ctx := c.Request().Context()

	users, err := h.Users.CountActive(ctx)
	if err != nil {
		logrus.WithError(err).Error("stats: user count failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load stats"})
	}
	rooms, err := h.Rooms.CountActive(ctx)
	if err != nil {
		logrus.WithError(err).Error("stats: room count failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load stats"})
	}
	totalBookings, todayBookings, err := h.Bookings.CountsForStats(ctx, time.Now().UTC())
	if err != nil {
		logrus.WithError(err).Error("stats: booking counts failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load stats"})
	}
	roleAssignments, err := h.Roles.Count(ctx)
	if err != nil {
		logrus.WithError(err).Error("stats: role count failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load stats"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"users":            users,
		"active_rooms":     rooms,
		"total_bookings":   totalBookings,
		"bookings_today":   todayBookings,
		"role_assignments": roleAssignments,
	})
}
