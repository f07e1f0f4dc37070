package handler

import (
	"database/sql"
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Whizard545/roomsync-prod/internal/repository"
)

// These tests run the handlers against repositories backed by a mocked
// database, driving the transactional branches the validation tests
// cannot reach: booking conflicts, the room delete guard and duplicate
// role grants.

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

const (
	lockRoomQuery  = `SELECT name FROM rooms WHERE id = ? AND is_active = 1 FOR UPDATE`
	overlapQuery   = `SELECT id FROM bookings WHERE room_id = ? AND is_cancelled = 0 AND start_time < ? AND end_time > ? ORDER BY start_time LIMIT 1`
	liveCountQuery = `SELECT COUNT(*) FROM bookings WHERE room_id = ? AND is_cancelled = 0 AND end_time > ?`
)

func TestCreateBookingConflict(t *testing.T) {
	db, mock := newMockDB(t)
	h := NewBookingHandler(repository.NewRoomRepo(db), repository.NewBookingRepo(db), userGate())

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockRoomQuery)).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Aurora"))
	mock.ExpectQuery(regexp.QuoteMeta(overlapQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))
	mock.ExpectRollback()

	body := `{"room_id":3,"title":"standup","start_time":"2026-09-01T09:00:00Z","end_time":"2026-09-01T10:00:00Z"}`
	c, rec := newJSONCtx(t, http.MethodPost, "/v1/bookings", body, alice())
	require.NoError(t, h.CreateBooking(c))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "Aurora")
	assert.Contains(t, rec.Body.String(), "2026-09-01T09:00:00Z")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingCommits(t *testing.T) {
	db, mock := newMockDB(t)
	h := NewBookingHandler(repository.NewRoomRepo(db), repository.NewBookingRepo(db), userGate())
	start := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	now := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockRoomQuery)).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Aurora"))
	mock.ExpectQuery(regexp.QuoteMeta(overlapQuery)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO bookings (room_id, user_id, user_email, title, description, start_time, end_time) VALUES (?, ?, ?, ?, ?, ?, ?)`)).
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM bookings WHERE id = ?`)).
		WithArgs(uint64(11)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "room_id", "user_id", "user_email", "title", "description",
			"start_time", "end_time", "is_cancelled", "created_at", "updated_at",
		}).AddRow(11, 3, 1, "alice@example.com", "standup", nil, start, end, false, now, now))
	mock.ExpectCommit()

	body := `{"room_id":3,"title":"standup","start_time":"2026-09-01T09:00:00Z","end_time":"2026-09-01T10:00:00Z"}`
	c, rec := newJSONCtx(t, http.MethodPost, "/v1/bookings", body, alice())
	require.NoError(t, h.CreateBooking(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":11`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteRoomBlockedByLiveBookings(t *testing.T) {
	db, mock := newMockDB(t)
	h := NewRoomHandler(repository.NewRoomRepo(db), repository.NewBookingRepo(db), adminGate())

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockRoomQuery)).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Aurora"))
	mock.ExpectQuery(regexp.QuoteMeta(liveCountQuery)).
		WithArgs(uint64(3), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(2))
	mock.ExpectRollback()

	c, rec := newJSONCtx(t, http.MethodDelete, "/v1/admin/rooms/3", "", alice())
	c.SetParamNames("id")
	c.SetParamValues("3")
	require.NoError(t, h.DeleteRoom(c))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `"live_bookings":2`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteRoomSucceedsWhenIdle(t *testing.T) {
	db, mock := newMockDB(t)
	h := NewRoomHandler(repository.NewRoomRepo(db), repository.NewBookingRepo(db), adminGate())

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockRoomQuery)).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Aurora"))
	mock.ExpectQuery(regexp.QuoteMeta(liveCountQuery)).
		WithArgs(uint64(3), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE rooms SET is_active = 0, updated_at = CURRENT_TIMESTAMP WHERE id = ?`)).
		WithArgs(uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, rec := newJSONCtx(t, http.MethodDelete, "/v1/admin/rooms/3", "", alice())
	c.SetParamNames("id")
	c.SetParamValues("3")
	require.NoError(t, h.DeleteRoom(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGrantRoleDuplicateEmail(t *testing.T) {
	db, mock := newMockDB(t)
	h := NewRoleHandler(repository.NewRoleRepo(db), adminGate())

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM users WHERE email = ? LIMIT 1`)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO user_roles (user_id, user_email, role, granted_by) VALUES (?, ?, ?, ?)`)).
		WillReturnError(&mysql.MySQLError{
			Number:  1062,
			Message: "Duplicate entry 'taken@example.com' for key 'user_roles.uniq_user_roles_email'",
		})

	c, rec := newJSONCtx(t, http.MethodPost, "/v1/admin/roles",
		`{"email":"taken@example.com","role":"admin"}`, alice())
	require.NoError(t, h.GrantRole(c))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
