// Package clinic holds the scheduling domain vocabulary shared by all
// modules: caller identity, roles, shift labels, and calendar helpers.
package clinic

import "dental_clinic_backend/platform/apperr"

// Role names as issued by the identity provider.
const (
	RoleDentist      = "dentist"
	RolePatient      = "patient"
	RoleReceptionist = "receptionist"
	RoleOwner        = "owner"
)

// Caller is the authenticated actor on whose behalf an operation runs.
// It is threaded explicitly into every mutating service call; a zero Caller
// means no identity was resolved and every operation must fail closed.
type Caller struct {
	Role    string
	ActorID int64
}

// IsZero reports whether no caller identity is present.
func (c Caller) IsZero() bool {
	return c.Role == "" || c.ActorID == 0
}

// Require checks the caller holds the given role. It returns Unauthorized
// for an absent identity and Forbidden for a role mismatch. This is always
// the first check of a mutating operation, before any persisted state is
// touched, so unauthorized callers never learn whether a record exists.
func (c Caller) Require(role string) error {
	if c.IsZero() {
		return apperr.Unauthorized("caller identity required")
	}
	if c.Role != role {
		return apperr.Forbidden("operation requires role " + role)
	}
	return nil
}
