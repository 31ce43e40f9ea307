package models

import "github.com/golang-jwt/jwt/v5"

// Token types minted by the token manager.
const (
	TokenTypeSession        = "session"
	TokenTypePasswordChange = "password_change"
)

// SessionClaims are the JWT claims carried by both session tokens and the
// single-use password-change token minted after a temp-password login.
type SessionClaims struct {
	Type       string `json:"typ"`
	SchoolID   string `json:"sid"`
	Username   string `json:"usr"`
	SchoolName string `json:"sch"`
	Role       string `json:"role"`
	TempLogin  bool   `json:"tmp,omitempty"`
	jwt.RegisteredClaims
}
