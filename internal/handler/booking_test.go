package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Whizard545/roomsync-prod/internal/model"
)

// Validation runs before any store access, so these tests exercise the
// scheduler's input contract with a bare handler.

func TestCreateBookingRequiresPrincipal(t *testing.T) {
	h := &BookingHandler{Gate: userGate()}
	c, rec := newJSONCtx(t, http.MethodPost, "/v1/bookings", `{}`, model.Principal{})
	require.NoError(t, h.CreateBooking(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateBookingValidation(t *testing.T) {
	h := &BookingHandler{Gate: userGate()}
	cases := []struct {
		name string
		body string
	}{
		{"not json", `{{{`},
		{"missing room id", `{"title":"standup","start_time":"2026-03-10T10:00:00Z","end_time":"2026-03-10T11:00:00Z"}`},
		{"empty title", `{"room_id":1,"title":"  ","start_time":"2026-03-10T10:00:00Z","end_time":"2026-03-10T11:00:00Z"}`},
		{"bad start time", `{"room_id":1,"title":"standup","start_time":"tomorrow","end_time":"2026-03-10T11:00:00Z"}`},
		{"bad end time", `{"room_id":1,"title":"standup","start_time":"2026-03-10T10:00:00Z","end_time":"later"}`},
		{"start equals end", `{"room_id":1,"title":"standup","start_time":"2026-03-10T10:00:00Z","end_time":"2026-03-10T10:00:00Z"}`},
		{"start after end", `{"room_id":1,"title":"standup","start_time":"2026-03-10T12:00:00Z","end_time":"2026-03-10T11:00:00Z"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newJSONCtx(t, http.MethodPost, "/v1/bookings", tc.body, alice())
			require.NoError(t, h.CreateBooking(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestListBookingsRejectsUnknownFilter(t *testing.T) {
	h := &BookingHandler{Gate: userGate()}
	c, rec := newJSONCtx(t, http.MethodGet, "/v1/bookings?filter=cancelled", "", alice())
	require.NoError(t, h.ListBookings(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCancelBookingRejectsBadID(t *testing.T) {
	h := &BookingHandler{Gate: userGate()}
	c, rec := newJSONCtx(t, http.MethodPost, "/v1/bookings/abc/cancel", "", alice())
	c.SetParamNames("id")
	c.SetParamValues("abc")
	require.NoError(t, h.CancelBooking(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
