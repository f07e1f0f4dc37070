package model

import "time"

// Role enumerates the two access levels of the system. Every principal
// implicitly holds RoleUser; RoleAdmin requires an explicit grant
// recorded in the user_roles table.
type Role string

const (
	RoleUser  Role = "user"  // default role, implicit when no assignment exists
	RoleAdmin Role = "admin" // explicit grant required
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool { return r == RoleUser || r == RoleAdmin }

// Meets reports whether r satisfies the given minimum role. Admin
// satisfies everything; user satisfies only user.
func (r Role) Meets(minimum Role) bool {
	if minimum == RoleAdmin {
		return r == RoleAdmin
	}
	return r.Valid()
}

// RoleAssignment mirrors a row of the `user_roles` table. At most one
// assignment exists per distinct email. UserID is nil while the
// assignment is pre-provisioned (the person has never logged in); it is
// filled in when the assignment is reconciled on first authentication.
//
// Fields:
//  ID        - primary key identifier.
//  UserID    - user_roles.user_id (nullable until reconciled).
//  UserEmail - user_roles.user_email (unique label key).
//  Role      - user_roles.role ("user" or "admin").
//  GrantedBy - label of the granting admin, or "system".
//  GrantedAt - when the grant was made.
//  CreatedAt - timestamp of creation.
//  UpdatedAt - timestamp of last update.
type RoleAssignment struct {
	ID        uint64    `json:"id"`
	UserID    *uint64   `json:"user_id,omitempty"`
	UserEmail string    `json:"user_email"`
	Role      Role      `json:"role"`
	GrantedBy string    `json:"granted_by"`
	GrantedAt time.Time `json:"granted_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
