package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	deactivateMapsQuery = `UPDATE office_maps SET is_active = 0, updated_at = CURRENT_TIMESTAMP WHERE is_active = 1`
	insertMapQuery      = `INSERT INTO office_maps (filename, original_name, file_url, is_active) VALUES (?, ?, ?, 1)`
	mapByIDQuery        = `SELECT id, filename, original_name, file_url, is_active, created_at, updated_at FROM office_maps WHERE id = ?`
)

// Publishing deactivates the previous version and inserts the new one
// inside a single transaction, so the single-active invariant holds at
// every commit point.
func TestPublishReplacesActiveAtomically(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(deactivateMapsQuery)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertMapQuery)).
		WithArgs("office-map-1.png", "floor.png", "/uploads/office-map-1.png").
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectQuery(regexp.QuoteMeta(mapByIDQuery)).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "filename", "original_name", "file_url", "is_active", "created_at", "updated_at",
		}).AddRow(3, "office-map-1.png", "floor.png", "/uploads/office-map-1.png", true, now, now))
	mock.ExpectCommit()

	m, err := NewOfficeMapRepo(db).Publish(context.Background(), "office-map-1.png", "floor.png", "/uploads/office-map-1.png")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), m.ID)
	assert.True(t, m.IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// If the insert fails the deactivation must not survive on its own,
// otherwise the store would be left with zero active versions.
func TestPublishRollsBackWhenInsertFails(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(deactivateMapsQuery)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertMapQuery)).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := NewOfficeMapRepo(db).Publish(context.Background(), "office-map-2.png", "floor.png", "/uploads/office-map-2.png")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
