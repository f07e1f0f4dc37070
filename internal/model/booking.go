package model

import "time"

// Booking records a time-bounded claim on a Room by a user as stored in
// the `bookings` table. Bookings are immutable once created except for
// the IsCancelled flag; there is no reschedule operation. The user
// email is denormalized onto the row so past bookings stay displayable
// even if the user record changes.
//
// Fields:
//  ID          - primary key identifier.
//  RoomID      - room being booked.
//  UserID      - user who made the booking.
//  UserEmail   - denormalized email of the booking user.
//  Title       - non-empty summary of the meeting.
//  Description - optional details.
//  StartTime   - inclusive start of the interval, UTC.
//  EndTime     - exclusive end of the interval, UTC; always after StartTime.
//  IsCancelled - soft-cancel marker; cancelled rows are never removed.
//  CreatedAt   - timestamp of creation.
//  UpdatedAt   - timestamp of last update.
type Booking struct {
	ID          uint64    `json:"id"`
	RoomID      uint64    `json:"room_id"`
	UserID      uint64    `json:"user_id"`
	UserEmail   string    `json:"user_email"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	IsCancelled bool      `json:"is_cancelled"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. Two bookings conflict iff each one starts
// before the other ends; back-to-back intervals sharing a boundary
// instant do not overlap. This is the same predicate the booking
// repository evaluates in SQL during the locked conflict check.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// BookingFilter selects which bookings a listing returns relative to a
// reference instant.
type BookingFilter string

const (
	BookingFilterAll      BookingFilter = "all"
	BookingFilterUpcoming BookingFilter = "upcoming" // start_time > now
	BookingFilterPast     BookingFilter = "past"     // start_time <= now
)

// Valid reports whether f is a known filter value.
func (f BookingFilter) Valid() bool {
	return f == BookingFilterAll || f == BookingFilterUpcoming || f == BookingFilterPast
}
