package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Whizard545/roomsync-prod/internal/model"
)

// RoomRepo provides CRUD operations for rooms. Rooms are soft-deleted:
// the is_active flag hides a room from listings while rows referencing
// it (past bookings) stay intact. The repository also exposes the
// per-room lock used to serialize the booking conflict check and the
// soft-delete guard (an InnoDB row lock taken with SELECT ... FOR
// UPDATE on the rooms row).
type RoomRepo struct {
	db *sql.DB
}

// NewRoomRepo returns a new RoomRepo bound to the given database.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

// DB exposes the underlying handle so handlers can begin transactions.
func (r *RoomRepo) DB() *sql.DB { return r.db }

// Create inserts a new room and returns its generated id. Name must be
// validated non-empty by the caller.
func (r *RoomRepo) Create(ctx context.Context, room *model.Room) (uint64, error) {
	const q = `INSERT INTO rooms (name, description, capacity, equipment, location_x, location_y)
			   VALUES (?, ?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, q,
		room.Name, room.Description, room.Capacity, room.Equipment,
		room.LocationX, room.LocationY)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	room.ID = uint64(id)
	return room.ID, nil
}

// LockActiveTx verifies that the room exists and is active, taking an
// exclusive row lock on it for the remainder of the transaction. Every
// writer that must not interleave with other per-room writers (booking
// creation, room soft-delete) locks through here first, which makes the
// subsequent check-then-write sequences behave as if serialized per
// room. Returns the room name on success and ErrRoomNotFound for
// missing or inactive rooms.
func (r *RoomRepo) LockActiveTx(ctx context.Context, tx *sql.Tx, id uint64) (string, error) {
	const q = `SELECT name FROM rooms WHERE id = ? AND is_active = 1 FOR UPDATE`
	var name string
	err := tx.QueryRowContext(ctx, q, id).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrRoomNotFound
	}
	return name, err
}

// DeactivateTx flips is_active off within the caller's transaction. The
// caller must already hold the row lock and have re-validated that no
// live bookings reference the room.
func (r *RoomRepo) DeactivateTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	const q = `UPDATE rooms SET is_active = 0, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, id)
	return err
}

// List returns rooms ordered by name. When includeInactive is false,
// soft-deleted rooms are filtered out; admins pass true to see the full
// registry including history-only rooms.
func (r *RoomRepo) List(ctx context.Context, includeInactive bool) ([]model.Room, error) {
	q := `SELECT id, name, description, capacity, equipment, location_x, location_y,
				 is_active, created_at, updated_at
		  FROM rooms`
	if !includeInactive {
		q += ` WHERE is_active = 1`
	}
	q += ` ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	rooms := make([]model.Room, 0)
	for rows.Next() {
		var rm model.Room
		if err := rows.Scan(
			&rm.ID, &rm.Name, &rm.Description, &rm.Capacity, &rm.Equipment,
			&rm.LocationX, &rm.LocationY, &rm.IsActive, &rm.CreatedAt, &rm.UpdatedAt,
		); err != nil {
			return nil, err
		}
		rooms = append(rooms, rm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rooms, nil
}

// CountActive returns the number of active rooms, for admin stats.
func (r *RoomRepo) CountActive(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rooms WHERE is_active = 1`).Scan(&n)
	return n, err
}
