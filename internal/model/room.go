package model

import "time"

// Room represents a bookable meeting room as stored in the `rooms`
// table. Rooms are never hard-deleted: flipping IsActive to false hides
// the room from listings while keeping it referencable by historical
// bookings.
//
// Fields:
//  ID          - primary key identifier.
//  Name        - display name, non-empty.
//  Description - optional free-text description.
//  Capacity    - optional seat count (positive when present).
//  Equipment   - optional free-text equipment list.
//  LocationX   - optional x coordinate on the office map.
//  LocationY   - optional y coordinate on the office map.
//  IsActive    - soft-delete marker.
//  CreatedAt   - timestamp of creation.
//  UpdatedAt   - timestamp of last update.
type Room struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Capacity    *int      `json:"capacity,omitempty"`
	Equipment   *string   `json:"equipment,omitempty"`
	LocationX   *float64  `json:"location_x,omitempty"`
	LocationY   *float64  `json:"location_y,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
