package domain

import (
	"slices"
	"time"

	"github.com/aussiebroadwan/dentaldesk/pkg/dentalsdk"
)

type Role = dentalsdk.Role

const (
	RolePatient = dentalsdk.RolePatient
	RoleDoctor  = dentalsdk.RoleDoctor
	RoleAdmin   = dentalsdk.RoleAdmin
)

// UserIdentity is the principal behind an authenticated session, derived from
// the bearer token's claims.
type UserIdentity struct {
	ID          string
	Email       string
	Role        Role
	Permissions []Permission // Admin only
	ExpiresAt   time.Time
}

// Can reports whether the user holds p. Only admins carry permissions.
func (u *UserIdentity) Can(p Permission) bool {
	if u == nil || u.Role != RoleAdmin {
		return false
	}
	return slices.Contains(u.Permissions, p)
}
