package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Whizard545/roomsync-prod/internal/model"
)

const (
	userByEmailQuery = `SELECT id FROM users WHERE email = ? LIMIT 1`
	grantInsertQuery = `INSERT INTO user_roles (user_id, user_email, role, granted_by) VALUES (?, ?, ?, ?)`
	roleByIDQuery    = `SELECT id, user_id, user_email, role, granted_by, granted_at, created_at, updated_at FROM user_roles WHERE id = ?`
)

func TestGrantDuplicateEmail(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(userByEmailQuery)).
		WithArgs("taken@example.com").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta(grantInsertQuery)).
		WillReturnError(&mysql.MySQLError{
			Number:  1062,
			Message: "Duplicate entry 'taken@example.com' for key 'user_roles.uniq_user_roles_email'",
		})

	// Mixed case in, lowered before it hits the store.
	_, err := NewRoleRepo(db).Grant(context.Background(), " Taken@Example.com ", model.RoleAdmin, "root@example.com")
	assert.ErrorIs(t, err, ErrRoleExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGrantPreProvisionedKeepsNullUserID(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

	// Nobody registered under this email yet: the assignment is stored
	// with a NULL user id and reconciled on first authentication.
	mock.ExpectQuery(regexp.QuoteMeta(userByEmailQuery)).
		WithArgs("new@example.com").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta(grantInsertQuery)).
		WithArgs(nil, "new@example.com", "admin", "root@example.com").
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectQuery(regexp.QuoteMeta(roleByIDQuery)).
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "user_email", "role", "granted_by", "granted_at", "created_at", "updated_at",
		}).AddRow(5, nil, "new@example.com", "admin", "root@example.com", now, now, now))

	a, err := NewRoleRepo(db).Grant(context.Background(), "new@example.com", model.RoleAdmin, "root@example.com")
	require.NoError(t, err)
	assert.Nil(t, a.UserID)
	assert.Equal(t, model.RoleAdmin, a.Role)
	assert.Equal(t, "new@example.com", a.UserEmail)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGrantAttachesExistingUserID(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(userByEmailQuery)).
		WithArgs("bob@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(8))
	mock.ExpectExec(regexp.QuoteMeta(grantInsertQuery)).
		WithArgs(uint64(8), "bob@example.com", "admin", "root@example.com").
		WillReturnResult(sqlmock.NewResult(6, 1))
	mock.ExpectQuery(regexp.QuoteMeta(roleByIDQuery)).
		WithArgs(uint64(6)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "user_email", "role", "granted_by", "granted_at", "created_at", "updated_at",
		}).AddRow(6, 8, "bob@example.com", "admin", "root@example.com", now, now, now))

	a, err := NewRoleRepo(db).Grant(context.Background(), "bob@example.com", model.RoleAdmin, "root@example.com")
	require.NoError(t, err)
	require.NotNil(t, a.UserID)
	assert.Equal(t, uint64(8), *a.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
