package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the access-token claims the dental API issues. The client only
// reads them for routing decisions; signature checks belong to the server.
type Claims struct {
	jwt.RegisteredClaims

	// UserID is the principal identifier ("id"). Older tokens only carry "sub".
	UserID string `json:"id,omitempty"`

	// Email of the signed-in principal.
	Email string `json:"email,omitempty"`

	// Type is the role discriminator: "patient", "doctor" or "admin".
	Type string `json:"type,omitempty"`

	// RoleName is accepted as a fallback discriminator when "type" is absent.
	RoleName string `json:"role,omitempty"`

	// MustChangePassword is set on accounts created with a temporary password.
	MustChangePassword bool `json:"mustChangePassword,omitempty"`

	// Permissions are admin capability strings such as "patients.view".
	Permissions []string `json:"permissions,omitempty"`
}

// Role returns the role discriminator, preferring "type" over "role".
func (c *Claims) Role() string {
	if c.Type != "" {
		return c.Type
	}
	return c.RoleName
}

// Identity returns the principal id, falling back to the subject claim.
func (c *Claims) Identity() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}

// ExpiredAt reports whether the claims are expired at now. The comparison is
// done in milliseconds and a token expiring exactly at now is expired.
func (c *Claims) ExpiredAt(now time.Time) bool {
	if c.ExpiresAt == nil {
		return true
	}
	return c.ExpiresAt.UnixMilli() <= now.UnixMilli()
}

// ValidateExpiry returns ErrExpired when the claims are expired at now.
func (c *Claims) ValidateExpiry(now time.Time) error {
	if c.ExpiredAt(now) {
		return ErrExpired
	}
	return nil
}
