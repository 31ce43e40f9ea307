package models

import (
	"time"
)

// School roles. Every account starts as a clerk; the principal account is the
// one that approves leaving certificates.
const (
	RoleClerk     = "CLERK"
	RolePrincipal = "PRINCIPAL"
)

// School is a registered school account. SchoolName is a denormalized display
// field; all joins use the UUID primary key.
type School struct {
	ID             string
	SchoolName     string
	PrincipalName  string
	SchoolEmail    string
	PrincipalEmail string
	Village        string
	Tehsil         string
	District       string
	PinCode        string
	BoardName      string
	Username       string
	PasswordHash   string
	Role           string

	// Temporary credential pair. Either both are set or both are nil.
	TempPasswordHash      *string
	TempPasswordExpiresAt *time.Time

	PasswordChangedAt *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// HasTempPassword reports whether a temporary credential is stored,
// regardless of expiry.
func (s *School) HasTempPassword() bool {
	return s.TempPasswordHash != nil && s.TempPasswordExpiresAt != nil
}

// TempPasswordValidAt reports whether the temporary credential is usable at
// the given instant. The expiry bound is inclusive.
func (s *School) TempPasswordValidAt(now time.Time) bool {
	return s.HasTempPassword() && !now.After(*s.TempPasswordExpiresAt)
}
