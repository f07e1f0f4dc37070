package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Whizard545/roomsync-prod/internal/model"
)

// OfficeMapRepo is a single-active-version store for office map
// uploads. The invariant it protects: across all rows of office_maps at
// most one has is_active=1. Publishing deactivates the current row and
// inserts the replacement as one transaction, so readers never observe
// zero or two active rows as the durable state. There is no delete;
// deactivated rows are the retained history.
type OfficeMapRepo struct {
	db *sql.DB
}

// NewOfficeMapRepo returns a new OfficeMapRepo bound to the given database.
func NewOfficeMapRepo(db *sql.DB) *OfficeMapRepo { return &OfficeMapRepo{db: db} }

// Publish atomically replaces the active office map: every currently
// active row is deactivated and the new row inserted active, both under
// one transaction that either commits together or not at all. The
// populated record is returned.
func (r *OfficeMapRepo) Publish(ctx context.Context, filename, originalName, fileURL string) (*model.OfficeMap, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx,
		`UPDATE office_maps SET is_active = 0, updated_at = CURRENT_TIMESTAMP WHERE is_active = 1`,
	); err != nil {
		return nil, err
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO office_maps (filename, original_name, file_url, is_active) VALUES (?, ?, ?, 1)`,
		filename, originalName, fileURL)
	if err != nil {
		return nil, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	var m model.OfficeMap
	const sel = `SELECT id, filename, original_name, file_url, is_active, created_at, updated_at
				 FROM office_maps WHERE id = ?`
	if err := tx.QueryRowContext(ctx, sel, id).Scan(
		&m.ID, &m.Filename, &m.OriginalName, &m.FileURL, &m.IsActive, &m.CreatedAt, &m.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return &m, nil
}

// Current returns the active office map, or (nil, nil) when none has
// been published yet.
func (r *OfficeMapRepo) Current(ctx context.Context) (*model.OfficeMap, error) {
	const q = `SELECT id, filename, original_name, file_url, is_active, created_at, updated_at
			   FROM office_maps WHERE is_active = 1 ORDER BY created_at DESC LIMIT 1`
	var m model.OfficeMap
	err := r.db.QueryRowContext(ctx, q).Scan(
		&m.ID, &m.Filename, &m.OriginalName, &m.FileURL, &m.IsActive, &m.CreatedAt, &m.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// History returns all office map rows, newest first, including the
// active one. Inactive rows are never deleted so this is the complete
// upload history.
func (r *OfficeMapRepo) History(ctx context.Context) ([]model.OfficeMap, error) {
	const q = `SELECT id, filename, original_name, file_url, is_active, created_at, updated_at
			   FROM office_maps ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.OfficeMap, 0)
	for rows.Next() {
		var m model.OfficeMap
		if err := rows.Scan(
			&m.ID, &m.Filename, &m.OriginalName, &m.FileURL, &m.IsActive, &m.CreatedAt, &m.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
