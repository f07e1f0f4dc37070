package model

import "fmt"

// Principal identifies the actor behind a request. It is either an
// authenticated user (carrying the stable user ID from the users table)
// or a pending principal known only by a label such as an email address.
// Pending principals exist because admins may grant a role to someone
// who has never registered; the assignment is reconciled to a real user
// ID the first time that person authenticates.
//
// The zero value is not a valid principal. Construct values with
// AuthenticatedPrincipal or PendingPrincipal and inspect them with
// UserID/Label rather than poking at raw strings.
type Principal struct {
	userID uint64 // zero when the principal is pending
	label  string // display label, normally the email address
}

// AuthenticatedPrincipal builds a principal for a logged-in user.
func AuthenticatedPrincipal(userID uint64, label string) Principal {
	return Principal{userID: userID, label: label}
}

// PendingPrincipal builds a principal for a label that has not yet
// materialized through authentication.
func PendingPrincipal(label string) Principal {
	return Principal{label: label}
}

// UserID returns the stable user ID and true when the principal is
// authenticated. For pending principals it returns (0, false).
func (p Principal) UserID() (uint64, bool) {
	return p.userID, p.userID != 0
}

// Label returns the display label (email) of the principal.
func (p Principal) Label() string { return p.label }

// IsZero reports whether the principal carries no identity at all.
func (p Principal) IsZero() bool { return p.userID == 0 && p.label == "" }

// String renders the principal for log lines. It never invents an
// ad hoc key format; storage keys are the repositories' concern.
func (p Principal) String() string {
	if p.userID != 0 {
		return fmt.Sprintf("user:%d(%s)", p.userID, p.label)
	}
	return fmt.Sprintf("pending(%s)", p.label)
}
