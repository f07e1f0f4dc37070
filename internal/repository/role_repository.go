package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/Whizard545/roomsync-prod/internal/model"
)

// RoleRepo is the role store: it tracks the mapping from principal to
// role in the user_roles table. Assignments are keyed by email so an
// admin can grant a role to someone who has never registered; such
// pre-provisioned rows carry a NULL user_id until ReconcilePending
// attaches them to the real user on first authentication. At most one
// assignment exists per email.
type RoleRepo struct {
	db *sql.DB
}

// NewRoleRepo returns a new RoleRepo bound to the given database.
func NewRoleRepo(db *sql.DB) *RoleRepo { return &RoleRepo{db: db} }

// RoleOf resolves the role of a principal. Authenticated principals are
// looked up by user id, pending ones by their label. When no assignment
// exists the principal implicitly holds the default user role.
func (r *RoleRepo) RoleOf(ctx context.Context, p model.Principal) (model.Role, error) {
	var role string
	var err error
	if id, ok := p.UserID(); ok {
		err = r.db.QueryRowContext(ctx,
			`SELECT role FROM user_roles WHERE user_id = ? LIMIT 1`, id).Scan(&role)
	} else {
		err = r.db.QueryRowContext(ctx,
			`SELECT role FROM user_roles WHERE user_email = ? LIMIT 1`,
			strings.ToLower(p.Label())).Scan(&role)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return model.RoleUser, nil
	}
	if err != nil {
		return "", err
	}
	if got := model.Role(role); got.Valid() {
		return got, nil
	}
	return model.RoleUser, nil
}

// Grant creates a role assignment for the given email. If a user with
// that email already exists its id is attached immediately; otherwise
// the assignment is pre-provisioned with a NULL user_id and reconciled
// later. A second grant for the same email fails with ErrRoleExists
// (enforced by the unique index on user_email), never silently
// duplicated.
func (r *RoleRepo) Grant(ctx context.Context, email string, role model.Role, grantedBy string) (*model.RoleAssignment, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	// Attach the user id up front when the principal already registered.
	var userID *uint64
	var id uint64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM users WHERE email = ? LIMIT 1`, email).Scan(&id)
	switch {
	case err == nil:
		userID = &id
	case errors.Is(err, sql.ErrNoRows):
		// pre-provisioned grant, reconciled on first login
	default:
		return nil, err
	}

	const q = `INSERT INTO user_roles (user_id, user_email, role, granted_by)
			   VALUES (?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, q, userID, email, string(role), grantedBy)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return nil, ErrRoleExists
		}
		return nil, err
	}
	newID, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, uint64(newID))
}

// GetByID fetches an assignment by its primary key.
func (r *RoleRepo) GetByID(ctx context.Context, id uint64) (*model.RoleAssignment, error) {
	const q = `SELECT id, user_id, user_email, role, granted_by, granted_at, created_at, updated_at
			   FROM user_roles WHERE id = ?`
	var a model.RoleAssignment
	var userID sql.NullInt64
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&a.ID, &userID, &a.UserEmail, &a.Role, &a.GrantedBy,
		&a.GrantedAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoleNotFound
	}
	if err != nil {
		return nil, err
	}
	if userID.Valid {
		uid := uint64(userID.Int64)
		a.UserID = &uid
	}
	return &a, nil
}

// UpdateByID changes the role of an existing assignment, recording who
// made the change. Keyed by the assignment id so pending rows (no user
// id yet) can be updated too. ErrRoleNotFound when the id is unknown.
func (r *RoleRepo) UpdateByID(ctx context.Context, id uint64, role model.Role, grantedBy string) error {
	const q = `UPDATE user_roles
			   SET role = ?, granted_by = ?, updated_at = CURRENT_TIMESTAMP
			   WHERE id = ?`
	result, err := r.db.ExecContext(ctx, q, string(role), grantedBy, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists uint64
		err := r.db.QueryRowContext(ctx, `SELECT id FROM user_roles WHERE id = ?`, id).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRoleNotFound
		}
		return err
	}
	return nil
}

// List returns all role assignments, newest first.
func (r *RoleRepo) List(ctx context.Context) ([]model.RoleAssignment, error) {
	const q = `SELECT id, user_id, user_email, role, granted_by, granted_at, created_at, updated_at
			   FROM user_roles ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.RoleAssignment, 0)
	for rows.Next() {
		var a model.RoleAssignment
		var userID sql.NullInt64
		if err := rows.Scan(
			&a.ID, &userID, &a.UserEmail, &a.Role, &a.GrantedBy,
			&a.GrantedAt, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if userID.Valid {
			uid := uint64(userID.Int64)
			a.UserID = &uid
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ReconcilePending re-keys a pre-provisioned assignment to the real
// user id the first time the labeled principal authenticates. A no-op
// when no pending assignment exists for the email.
func (r *RoleRepo) ReconcilePending(ctx context.Context, email string, userID uint64) error {
	const q = `UPDATE user_roles
			   SET user_id = ?, updated_at = CURRENT_TIMESTAMP
			   WHERE user_email = ? AND user_id IS NULL`
	_, err := r.db.ExecContext(ctx, q, userID, strings.ToLower(strings.TrimSpace(email)))
	return err
}

// Count returns the number of role assignments, for admin stats.
func (r *RoleRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_roles`).Scan(&n)
	return n, err
}
