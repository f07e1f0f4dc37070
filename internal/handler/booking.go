package handler

import (
	"context"
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
	"github.com/Whizard545/roomsync-prod/internal/queue"
	"github.com/Whizard545/roomsync-prod/internal/repository"
	queue_publisher "github.com/Whizard545/roomsync-prod/internal/service"
)

// BookingHandler implements the reservation scheduler endpoints:
// creating a booking (conflict detection + atomic commit), cancelling
// one, and listing. The conflict check and the insert run inside a
// single transaction with the room row locked, so two concurrent
// requests for overlapping windows on the same room cannot both
// succeed: whoever locks second re-runs the check against the winner's
// committed row and receives a conflict.
type BookingHandler struct {
	RoomRepo    *repository.RoomRepo
	BookingRepo *repository.BookingRepo
	Gate        *auth.Gate
}

// NewBookingHandler constructs a BookingHandler. All dependencies must
// be non-nil.
func NewBookingHandler(roomRepo *repository.RoomRepo, bookingRepo *repository.BookingRepo, gate *auth.Gate) *BookingHandler {
	if roomRepo == nil || bookingRepo == nil || gate == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{RoomRepo: roomRepo, BookingRepo: bookingRepo, Gate: gate}
}

type createBookingReq struct {
	RoomID      uint64  `json:"room_id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
}

// CreateBooking handles POST /v1/bookings. Input is validated before
// any store access: the room id must be positive, the title non-empty,
// the timestamps RFC3339 with start strictly before end. Responds 201
// with the new booking, 404 when the room is missing or inactive, 409
// with the rejected window when the interval overlaps an existing
// non-cancelled booking. The request is never retried server-side.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.RoomID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "room_id is required"})
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
	}
	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_time must be RFC3339"})
	}
	end, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_time must be RFC3339"})
	}
	start, end = start.UTC(), end.UTC()
	if !start.Before(end) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_time must be after start_time"})
	}
	userID, _ := principal.UserID()

	ctx := c.Request().Context()
	tx, err := h.BookingRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		logrus.WithError(err).Error("create booking: begin transaction failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Lock the room row: serializes the conflict check and insert
	// against every other writer on the same room.
	roomName, err := h.RoomRepo.LockActiveTx(ctx, tx, req.RoomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		logrus.WithError(err).Error("create booking: room lock failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	if err := h.BookingRepo.FindOverlapTx(ctx, tx, req.RoomID, start, end); err != nil {
		var conflict *repository.ConflictError
		if errors.As(err, &conflict) {
			return c.JSON(http.StatusConflict, echo.Map{
				"error":      "room is already booked for this window",
				"room_id":    conflict.RoomID,
				"room_name":  roomName,
				"start_time": conflict.Start.Format(time.RFC3339),
				"end_time":   conflict.End.Format(time.RFC3339),
			})
		}
		logrus.WithError(err).Error("create booking: conflict check failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	b := &model.Booking{
		RoomID:      req.RoomID,
		UserID:      userID,
		UserEmail:   principal.Label(),
		Title:       req.Title,
		Description: req.Description,
		StartTime:   start,
		EndTime:     end,
	}
	if err := h.BookingRepo.CreateTx(ctx, tx, b); err != nil {
		logrus.WithError(err).Error("create booking: insert failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create booking"})
	}
	if err := tx.Commit(); err != nil {
		logrus.WithError(err).Error("create booking: commit failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	// Best-effort event publication, after and outside the transaction.
	go func(ev queue.ReservationConfirmedEvent) {
		_ = queue_publisher.PublishReservationConfirmed(context.Background(), ev)
	}(queue.ReservationConfirmedEvent{
		BookingID: b.ID,
		RoomID:    b.RoomID,
		RoomName:  roomName,
		UserID:    b.UserID,
		UserEmail: b.UserEmail,
		Title:     b.Title,
		StartsAt:  b.StartTime.Format(time.RFC3339),
		EndsAt:    b.EndTime.Format(time.RFC3339),
		CreatedAt: b.CreatedAt.UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusCreated, echo.Map{"id": b.ID})
}

// CancelBooking handles POST /v1/bookings/:id/cancel. Only the owning
// principal or an admin may cancel. Cancellation flips the soft flag;
// the row and all of its other fields stay untouched. Cancelling an
// already-cancelled booking succeeds idempotently.
func (h *BookingHandler) CancelBooking(c echo.Context) error {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	ctx := c.Request().Context()
	b, err := h.BookingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		logrus.WithError(err).Error("cancel booking: lookup failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	// Ownership or admin role.
	if userID, _ := principal.UserID(); userID != b.UserID {
		if err := h.Gate.Require(ctx, principal, model.RoleAdmin); err != nil {
			switch {
			case errors.Is(err, auth.ErrNoPrincipal):
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			case errors.Is(err, auth.ErrForbidden):
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			default:
				logrus.WithError(err).Error("cancel booking: role resolution failed")
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
			}
		}
	}

	if err := h.BookingRepo.Cancel(ctx, id); err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		logrus.WithError(err).Error("cancel booking: update failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to cancel booking"})
	}

	go func(ev queue.ReservationCancelledEvent) {
		_ = queue_publisher.PublishReservationCancelled(context.Background(), ev)
	}(queue.ReservationCancelledEvent{
		BookingID:   b.ID,
		RoomID:      b.RoomID,
		UserEmail:   b.UserEmail,
		CancelledBy: principal.Label(),
		CancelledAt: time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// ListBookings handles GET /v1/bookings?filter=all|upcoming|past. The
// listing joins each booking with its room name, excludes cancelled
// rows and is ordered ascending by start time. The filter splits on
// the start time relative to now: upcoming is strictly after, past is
// at-or-before.
func (h *BookingHandler) ListBookings(c echo.Context) error {
	if _, ok := middleware.PrincipalFrom(c); !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	filter := model.BookingFilter(strings.ToLower(strings.TrimSpace(c.QueryParam("filter"))))
	if filter == "" {
		filter = model.BookingFilterAll
	}
	if !filter.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "filter must be all, upcoming or past"})
	}
	details, err := h.BookingRepo.List(c.Request().Context(), filter, time.Now().UTC())
	if err != nil {
		logrus.WithError(err).Error("list bookings failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": details})
}
