// Package repository defines error values that are reused across
// multiple repositories. These sentinels allow handlers to distinguish
// failure scenarios without inspecting driver errors: the not-found
// sentinels map to HTTP 404 and the conflict values to 409. Storage
// failures that are none of these are logged by the
// caller and surfaced as a generic 500.
package repository

import (
	"errors"
	"fmt"
	"time"
)

// ErrRoomNotFound is returned when a room id does not reference an
// active room.
var ErrRoomNotFound = errors.New("room not found")

// ErrBookingNotFound is returned when a booking id does not exist.
var ErrBookingNotFound = errors.New("booking not found")

// ErrRoleNotFound is returned when a role assignment id does not exist.
var ErrRoleNotFound = errors.New("role assignment not found")

// ErrRoleExists is returned when a second role grant is attempted for a
// label that already has an assignment. Grants are never silently
// duplicated.
var ErrRoleExists = errors.New("role already assigned")

// ErrEmailExists is returned when registering with an email that is
// already taken.
var ErrEmailExists = errors.New("email already exists")

// ConflictError reports an overlapping booking. It names the room and
// the requested window so the caller can explain exactly what was
// rejected; the conflicting booking's id is included for diagnostics.
type ConflictError struct {
	RoomID        uint64
	Start, End    time.Time
	ConflictingID uint64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("room %d is already booked between %s and %s",
		e.RoomID, e.Start.UTC().Format(time.RFC3339), e.End.UTC().Format(time.RFC3339))
}
