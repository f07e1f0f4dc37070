package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Whizard545/roomsync-prod/internal/model"
)

// BookingRepo provides CRUD operations for bookings. A booking claims a
// half-open interval [start_time, end_time) on a room; for a fixed room
// the set of non-cancelled bookings must remain pairwise
// non-overlapping. The check-then-insert that preserves this invariant
// is split into FindOverlapTx and CreateTx, both of which must run in
// the same transaction, after the caller has locked the room row via
// RoomRepo.LockActiveTx to serialize writers per room. All timestamps
// are stored and compared in UTC.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the underlying handle so handlers can begin transactions.
func (r *BookingRepo) DB() *sql.DB { return r.db }

// FindOverlapTx looks for any non-cancelled booking on the room whose
// interval overlaps [start, end). Two intervals overlap iff each starts
// before the other ends, so back-to-back bookings sharing a boundary do
// not conflict. On overlap a *ConflictError naming the room, the
// requested window and the first conflicting row is returned; nil means
// the window is free. Must be called with the room row locked.
func (r *BookingRepo) FindOverlapTx(ctx context.Context, tx *sql.Tx, roomID uint64, start, end time.Time) error {
	const q = `SELECT id FROM bookings
			   WHERE room_id = ? AND is_cancelled = 0
				 AND start_time < ? AND end_time > ?
			   ORDER BY start_time LIMIT 1`
	var conflictID uint64
	err := tx.QueryRowContext(ctx, q, roomID, end, start).Scan(&conflictID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	return &ConflictError{RoomID: roomID, Start: start, End: end, ConflictingID: conflictID}
}

// CreateTx inserts a new booking within the scope of an existing
// transaction and populates the generated id and timestamps on the
// provided record. The caller must commit or rollback the transaction.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `INSERT INTO bookings (room_id, user_id, user_email, title, description, start_time, end_time)
			   VALUES (?, ?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q,
		b.RoomID, b.UserID, b.UserEmail, b.Title, b.Description,
		b.StartTime.UTC(), b.EndTime.UTC())
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	// Query back the full row to populate timestamps and defaults.
	const sel = `SELECT id, room_id, user_id, user_email, title, description,
						start_time, end_time, is_cancelled, created_at, updated_at
				 FROM bookings WHERE id = ?`
	return tx.QueryRowContext(ctx, sel, b.ID).Scan(
		&b.ID, &b.RoomID, &b.UserID, &b.UserEmail, &b.Title, &b.Description,
		&b.StartTime, &b.EndTime, &b.IsCancelled, &b.CreatedAt, &b.UpdatedAt,
	)
}

// GetByID returns a single booking regardless of its cancelled state.
// ErrBookingNotFound is returned when the id does not exist.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	const q = `SELECT id, room_id, user_id, user_email, title, description,
					  start_time, end_time, is_cancelled, created_at, updated_at
			   FROM bookings WHERE id = ?`
	var b model.Booking
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&b.ID, &b.RoomID, &b.UserID, &b.UserEmail, &b.Title, &b.Description,
		&b.StartTime, &b.EndTime, &b.IsCancelled, &b.CreatedAt, &b.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Cancel flips is_cancelled on a booking. The row itself is never
// removed and every other field stays untouched, preserving the
// historical record. Cancelling an already-cancelled booking is a
// no-op. ErrBookingNotFound is returned when the id does not exist.
func (r *BookingRepo) Cancel(ctx context.Context, id uint64) error {
	const q = `UPDATE bookings
			   SET is_cancelled = 1, updated_at = CURRENT_TIMESTAMP
			   WHERE id = ?`
	result, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish "missing" from "already cancelled": RowsAffected
		// is 0 for both on MySQL when the row is unchanged.
		var exists uint64
		err := r.db.QueryRowContext(ctx, `SELECT id FROM bookings WHERE id = ?`, id).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrBookingNotFound
		}
		return err
	}
	return nil
}

// CountLiveByRoomTx counts non-cancelled bookings on the room whose end
// time is still in the future ("live" bookings, including ones in
// progress). It is used by the room soft-delete guard and must run in
// the same transaction that deactivates the room, with the room row
// locked, so a concurrent booking creation cannot slip in between the
// check and the write.
func (r *BookingRepo) CountLiveByRoomTx(ctx context.Context, tx *sql.Tx, roomID uint64, now time.Time) (int, error) {
	const q = `SELECT COUNT(*) FROM bookings
			   WHERE room_id = ? AND is_cancelled = 0 AND end_time > ?`
	var n int
	if err := tx.QueryRowContext(ctx, q, roomID, now.UTC()).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// BookingDetail is a booking joined with its room name, as returned by
// listings for display.
type BookingDetail struct {
	model.Booking
	RoomName string `json:"room_name"`
}

// List returns non-cancelled bookings joined with their room name,
// ordered ascending by start time. The filter narrows the result
// relative to now: upcoming keeps bookings starting strictly after now,
// past keeps the rest, all keeps everything. The listing is a read-only
// projection; no isolation beyond read committed is needed.
func (r *BookingRepo) List(ctx context.Context, filter model.BookingFilter, now time.Time) ([]BookingDetail, error) {
	q := `SELECT b.id, b.room_id, b.user_id, b.user_email, b.title, b.description,
				 b.start_time, b.end_time, b.is_cancelled, b.created_at, b.updated_at,
				 r.name
		  FROM bookings b
		  JOIN rooms r ON r.id = b.room_id
		  WHERE b.is_cancelled = 0`
	args := []interface{}{}
	switch filter {
	case model.BookingFilterUpcoming:
		q += ` AND b.start_time > ?`
		args = append(args, now.UTC())
	case model.BookingFilterPast:
		q += ` AND b.start_time <= ?`
		args = append(args, now.UTC())
	}
	q += ` ORDER BY b.start_time`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]BookingDetail, 0)
	for rows.Next() {
		var d BookingDetail
		if err := rows.Scan(
			&d.ID, &d.RoomID, &d.UserID, &d.UserEmail, &d.Title, &d.Description,
			&d.StartTime, &d.EndTime, &d.IsCancelled, &d.CreatedAt, &d.UpdatedAt,
			&d.RoomName,
		); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

// CountsForStats returns the total number of non-cancelled bookings and
// how many of them start today (UTC). Used by the admin stats endpoint.
func (r *BookingRepo) CountsForStats(ctx context.Context, now time.Time) (total, today int, err error) {
	if err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE is_cancelled = 0`).Scan(&total); err != nil {
		return 0, 0, err
	}
	dayStart := now.UTC().Truncate(24 * time.Hour)
	dayEnd := dayStart.Add(24 * time.Hour)
	if err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE is_cancelled = 0 AND start_time >= ? AND start_time < ?`,
		dayStart, dayEnd).Scan(&today); err != nil {
		return 0, 0, err
	}
	return total, today, nil
}
