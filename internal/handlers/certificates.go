package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mahadigital/schooldesk/internal/auth"
	"github.com/mahadigital/schooldesk/internal/models"
	"github.com/mahadigital/schooldesk/internal/services"
	pkghttp "github.com/mahadigital/schooldesk/pkg/http"
)

// CertificateServiceInterface defines the interface for the approval workflow
type CertificateServiceInterface interface {
	Request(ctx context.Context, studentID, schoolID, requestedBy string) (string, error)
	ListPending(ctx context.Context, schoolID string) ([]*models.CertificateRecord, error)
	ListAll(ctx context.Context, schoolID string) ([]*models.CertificateRecord, error)
	Approve(ctx context.Context, id, approvedBy string) error
	Reject(ctx context.Context, id, rejectedBy, reason string) error
	Download(ctx context.Context, id, schoolID string) (*services.CertificateDownload, error)
}

// CertificateHandler handles leaving-certificate HTTP requests
type CertificateHandler struct {
	service CertificateServiceInterface
}

// NewCertificateHandler creates a new CertificateHandler
func NewCertificateHandler(service CertificateServiceInterface) *CertificateHandler {
	return &CertificateHandler{service: service}
}

// RequestCertificateRequest represents the request body for opening a request
type RequestCertificateRequest struct {
	StudentID string `json:"student_id" validate:"required,uuid"`
}

// RejectCertificateRequest represents the request body for a rejection
type RejectCertificateRequest struct {
	Reason string `json:"reason" validate:"required,min=1"`
}

// RequestCertificateResponse confirms a newly opened request
type RequestCertificateResponse struct {
	CertificateID string `json:"certificate_id"`
	Status        string `json:"status"`
}

// CertificateResponse represents a certificate request in API responses
type CertificateResponse struct {
	ID              string     `json:"id"`
	StudentID       string     `json:"student_id"`
	StudentName     string     `json:"student_name"`
	Standard        string     `json:"standard"`
	SchoolID        string     `json:"school_id"`
	SchoolName      string     `json:"school_name"`
	Status          string     `json:"status"`
	RequestedBy     string     `json:"requested_by"`
	RequestedAt     time.Time  `json:"requested_at"`
	ApprovedBy      *string    `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
}

func toCertificateResponse(rec *models.CertificateRecord) CertificateResponse {
	return CertificateResponse{
		ID:              rec.ID,
		StudentID:       rec.StudentID,
		StudentName:     rec.StudentName,
		Standard:        rec.Standard,
		SchoolID:        rec.SchoolID,
		SchoolName:      rec.SchoolName,
		Status:          rec.Status,
		RequestedBy:     rec.RequestedBy,
		RequestedAt:     rec.RequestedAt,
		ApprovedBy:      rec.ApprovedBy,
		ApprovedAt:      rec.ApprovedAt,
		RejectionReason: rec.RejectionReason,
	}
}

func toCertificateResponses(records []*models.CertificateRecord) []CertificateResponse {
	out := make([]CertificateResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, toCertificateResponse(rec))
	}
	return out
}

// Request opens a certificate request for a student
func (h *CertificateHandler) Request(w http.ResponseWriter, r *http.Request) {
	session := auth.GetSessionFromContext(r)
	if session == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req RequestCertificateRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	id, err := h.service.Request(r.Context(), req.StudentID, session.SchoolID, session.Username)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Student not found")
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, "An active certificate request already exists for this student")
		default:
			pkghttp.WriteInternalError(w, "Failed to request certificate")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, RequestCertificateResponse{
		CertificateID: id,
		Status:        models.StatusPending,
	})
}

// ListPending returns requests awaiting a decision
func (h *CertificateHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	session := auth.GetSessionFromContext(r)
	if session == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	records, err := h.service.ListPending(r.Context(), session.SchoolID)
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to list pending certificates")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, toCertificateResponses(records))
}

// ListAll returns every request for the school
func (h *CertificateHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	session := auth.GetSessionFromContext(r)
	if session == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	records, err := h.service.ListAll(r.Context(), session.SchoolID)
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to list certificates")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, toCertificateResponses(records))
}

// Approve decides a pending request in favor
func (h *CertificateHandler) Approve(w http.ResponseWriter, r *http.Request) {
	session := auth.GetSessionFromContext(r)
	if session == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	id := chi.URLParam(r, "id")

	if err := h.service.Approve(r.Context(), id, session.Username); err != nil {
		writeDecisionError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Certificate approved"})
}

// Reject decides a pending request against, with a mandatory reason
func (h *CertificateHandler) Reject(w http.ResponseWriter, r *http.Request) {
	session := auth.GetSessionFromContext(r)
	if session == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	id := chi.URLParam(r, "id")

	var req RejectCertificateRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.Reject(r.Context(), id, session.Username, req.Reason); err != nil {
		if errors.Is(err, models.ErrBadRequest) {
			pkghttp.WriteBadRequest(w, "A rejection reason is required")
			return
		}
		writeDecisionError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Certificate rejected"})
}

// Download streams the rendered PDF for an approved request
func (h *CertificateHandler) Download(w http.ResponseWriter, r *http.Request) {
	session := auth.GetSessionFromContext(r)
	if session == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	id := chi.URLParam(r, "id")

	download, err := h.service.Download(r.Context(), id, session.SchoolID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Certificate not found or not approved")
		default:
			pkghttp.WriteInternalError(w, "Failed to render certificate")
		}
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", download.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(download.Content)
}

func writeDecisionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrAlreadyProcessed):
		pkghttp.WriteConflict(w, "Certificate not found or already processed")
	default:
		pkghttp.WriteInternalError(w, "Failed to process certificate")
	}
}
