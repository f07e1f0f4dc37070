package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

const overlapQuery = `SELECT id FROM bookings WHERE room_id = ? AND is_cancelled = 0 AND start_time < ? AND end_time > ? ORDER BY start_time LIMIT 1`

func TestFindOverlapTxReturnsConflict(t *testing.T) {
	db, mock := newMockDB(t)
	start := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(overlapQuery)).
		WithArgs(uint64(3), end, start).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

	tx, err := db.Begin()
	require.NoError(t, err)
	err = NewBookingRepo(db).FindOverlapTx(context.Background(), tx, 3, start, end)

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, uint64(3), conflict.RoomID)
	assert.Equal(t, uint64(42), conflict.ConflictingID)
	assert.True(t, conflict.Start.Equal(start))
	assert.True(t, conflict.End.Equal(end))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Cancelled rows never count as conflicts, so after a booking is
// cancelled its window can be claimed again. The overlap query carries
// the is_cancelled filter; a free result means no error.
func TestFindOverlapTxFreeWindow(t *testing.T) {
	db, mock := newMockDB(t)
	start := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(overlapQuery)).
		WithArgs(uint64(3), end, start).
		WillReturnError(sql.ErrNoRows)

	tx, err := db.Begin()
	require.NoError(t, err)
	assert.NoError(t, NewBookingRepo(db).FindOverlapTx(context.Background(), tx, 3, start, end))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelMissingBooking(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE bookings SET is_cancelled = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`)).
		WithArgs(uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM bookings WHERE id = ?`)).
		WithArgs(uint64(9)).
		WillReturnError(sql.ErrNoRows)

	err := NewBookingRepo(db).Cancel(context.Background(), 9)
	assert.ErrorIs(t, err, ErrBookingNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelAlreadyCancelledIsNoOp(t *testing.T) {
	db, mock := newMockDB(t)

	// MySQL reports 0 rows affected when the flag was already set; the
	// follow-up existence check distinguishes that from a missing row.
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE bookings SET is_cancelled = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`)).
		WithArgs(uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM bookings WHERE id = ?`)).
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))

	assert.NoError(t, NewBookingRepo(db).Cancel(context.Background(), 9))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountLiveByRoomTxExcludesEnded(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM bookings WHERE room_id = ? AND is_cancelled = 0 AND end_time > ?`)).
		WithArgs(uint64(3), now).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(2))

	tx, err := db.Begin()
	require.NoError(t, err)
	n, err := NewBookingRepo(db).CountLiveByRoomTx(context.Background(), tx, 3, now)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
