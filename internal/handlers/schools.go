package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mahadigital/schooldesk/internal/auth"
	"github.com/mahadigital/schooldesk/internal/models"
	"github.com/mahadigital/schooldesk/internal/services"
	pkghttp "github.com/mahadigital/schooldesk/pkg/http"
)

// SchoolServiceInterface defines the interface for school account logic
type SchoolServiceInterface interface {
	Register(ctx context.Context, input services.RegisterSchoolInput) (*services.SchoolInfo, error)
	GetInfo(ctx context.Context, schoolID string) (*services.SchoolInfo, error)
}

// SchoolHandler handles school account HTTP requests
type SchoolHandler struct {
	service SchoolServiceInterface
}

// NewSchoolHandler creates a new SchoolHandler
func NewSchoolHandler(service SchoolServiceInterface) *SchoolHandler {
	return &SchoolHandler{service: service}
}

// RegisterSchoolRequest represents the request body for school registration
type RegisterSchoolRequest struct {
	SchoolName     string `json:"school_name" validate:"required,min=1,max=255"`
	PrincipalName  string `json:"principal_name" validate:"required,min=1,max=255"`
	SchoolEmail    string `json:"school_email" validate:"required,email"`
	PrincipalEmail string `json:"principal_email" validate:"required,email"`
	Village        string `json:"village" validate:"required"`
	Tehsil         string `json:"tehsil" validate:"required"`
	District       string `json:"district" validate:"required"`
	PinCode        string `json:"pin_code" validate:"required,min=4,max=10"`
	BoardName      string `json:"board_name" validate:"required"`
	Username       string `json:"username" validate:"required,min=3,max=100"`
	Password       string `json:"password" validate:"required"`
	Role           string `json:"role" validate:"omitempty,oneof=CLERK PRINCIPAL"`
}

// Register handles school account creation
func (h *SchoolHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterSchoolRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	info, err := h.service.Register(r.Context(), services.RegisterSchoolInput{
		SchoolName:     req.SchoolName,
		PrincipalName:  req.PrincipalName,
		SchoolEmail:    req.SchoolEmail,
		PrincipalEmail: req.PrincipalEmail,
		Village:        req.Village,
		Tehsil:         req.Tehsil,
		District:       req.District,
		PinCode:        req.PinCode,
		BoardName:      req.BoardName,
		Username:       req.Username,
		Password:       req.Password,
		Role:           req.Role,
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrWeakPassword):
			pkghttp.WriteBadRequest(w, "Password must be at least 6 characters")
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, "Username or school email already registered")
		default:
			pkghttp.WriteInternalError(w, "Failed to register school")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, info)
}

// GetInfo returns the authenticated school's profile
func (h *SchoolHandler) GetInfo(w http.ResponseWriter, r *http.Request) {
	session := auth.GetSessionFromContext(r)
	if session == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	info, err := h.service.GetInfo(r.Context(), session.SchoolID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "School not found")
		default:
			pkghttp.WriteInternalError(w, "Failed to load school info")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, info)
}
