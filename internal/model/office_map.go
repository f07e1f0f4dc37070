package model

import "time"

// OfficeMap mirrors a row of the `office_maps` table. The table is a
// single-active-version store: across all rows at most one has
// IsActive=true, and publishing a new map deactivates the previous one
// and inserts the new row in a single transaction. Inactive rows form
// the retained history and are never deleted.
//
// Fields:
//  ID           - primary key identifier.
//  Filename     - generated name of the stored file.
//  OriginalName - filename as uploaded by the admin.
//  FileURL      - opaque reference to the stored bytes (serving path).
//  IsActive     - whether this row is the current map.
//  CreatedAt    - timestamp of creation.
//  UpdatedAt    - timestamp of last update.
type OfficeMap struct {
	ID           uint64    `json:"id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"original_name"`
	FileURL      string    `json:"file_url"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
