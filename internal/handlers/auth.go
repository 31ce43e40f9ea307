package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/mahadigital/schooldesk/internal/auth"
	"github.com/mahadigital/schooldesk/internal/models"
	"github.com/mahadigital/schooldesk/internal/services"
	pkghttp "github.com/mahadigital/schooldesk/pkg/http"
)

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Login(ctx context.Context, username, password string) (*services.LoginResult, error)
	IssueTempPassword(ctx context.Context, email string) (*services.TempIssueResult, error)
	ChangePassword(ctx context.Context, schoolID, currentPassword, newPassword string) error
	ChangePasswordFromTempLogin(ctx context.Context, changeToken, newPassword string) error
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

// Request DTOs

// LoginRequest represents the request body for login
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ForgotPasswordRequest represents the request body for temp password issuance
type ForgotPasswordRequest struct {
	SchoolEmail string `json:"school_email" validate:"required,email"`
}

// ChangePasswordRequest represents the request body for an authenticated password change
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
}

// TempChangePasswordRequest represents the request body for the temp-login password change
type TempChangePasswordRequest struct {
	PasswordChangeToken string `json:"password_change_token" validate:"required"`
	NewPassword         string `json:"new_password" validate:"required"`
}

// ForgotPasswordResponse confirms issuance without exposing the credential
type ForgotPasswordResponse struct {
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expires_at"`
}

// MessageResponse is a generic confirmation body
type MessageResponse struct {
	Message string `json:"message"`
}

// Login handles school login against the primary or temporary credential
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	result, err := h.service.Login(r.Context(), strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrUnauthorized):
			pkghttp.WriteUnauthorized(w, "Invalid username or password")
		default:
			pkghttp.WriteInternalError(w, "Login failed")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, result)
}

// ForgotPassword issues a temporary password and emails it to the school
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	result, err := h.service.IssueTempPassword(r.Context(), req.SchoolEmail)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "No account registered under this email")
		default:
			pkghttp.WriteInternalError(w, "Failed to issue temporary password")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, ForgotPasswordResponse{
		Message:   "A temporary password has been sent to the registered school email",
		ExpiresAt: result.ExpiresAt,
	})
}

// ChangePassword replaces the permanent password for the authenticated school
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	session := auth.GetSessionFromContext(r)
	if session == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req ChangePasswordRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	err := h.service.ChangePassword(r.Context(), session.SchoolID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		writePasswordChangeError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Password changed successfully"})
}

// ChangePasswordFromTempLogin replaces the permanent password using the
// single-use token minted at temp login
func (h *AuthHandler) ChangePasswordFromTempLogin(w http.ResponseWriter, r *http.Request) {
	var req TempChangePasswordRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	err := h.service.ChangePasswordFromTempLogin(r.Context(), req.PasswordChangeToken, req.NewPassword)
	if err != nil {
		writePasswordChangeError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Password changed successfully"})
}

func writePasswordChangeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrWeakPassword):
		pkghttp.WriteBadRequest(w, "New password must be at least 6 characters")
	case errors.Is(err, models.ErrUnauthorized):
		pkghttp.WriteUnauthorized(w, "Invalid credentials")
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "Account not found")
	default:
		pkghttp.WriteInternalError(w, "Failed to change password")
	}
}
