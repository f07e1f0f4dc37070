// Package queue defines message payloads exchanged over the message
// broker and the background consumer that turns them into an audit log.
package queue

// ReservationConfirmedEvent is published after a booking commits. It
// carries enough denormalized detail for downstream consumers to log or
// feed analytics without querying the primary database.
type ReservationConfirmedEvent struct {
	BookingID uint64 `json:"booking_id"`
	RoomID    uint64 `json:"room_id"`
	RoomName  string `json:"room_name"`
	UserID    uint64 `json:"user_id"`
	UserEmail string `json:"user_email"`
	Title     string `json:"title"`
	StartsAt  string `json:"starts_at"`
	EndsAt    string `json:"ends_at"`
	CreatedAt string `json:"created_at"`
}

// ReservationCancelledEvent is published after a booking is cancelled.
type ReservationCancelledEvent struct {
	BookingID   uint64 `json:"booking_id"`
	RoomID      uint64 `json:"room_id"`
	UserEmail   string `json:"user_email"`
	CancelledBy string `json:"cancelled_by"`
	CancelledAt string `json:"cancelled_at"`
}
