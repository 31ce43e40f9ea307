package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/mahadigital/schooldesk/internal/documents"
	"github.com/mahadigital/schooldesk/internal/models"
	pkglogger "github.com/mahadigital/schooldesk/pkg/logger"
)

// CertificateRepository defines the persistence operations the workflow needs
type CertificateRepository interface {
	CreateRequest(ctx context.Context, studentID, schoolID, requestedBy string) (string, error)
	Approve(ctx context.Context, id, approvedBy string) error
	Reject(ctx context.Context, id, approvedBy, reason string) error
	ListPending(ctx context.Context, schoolID string) ([]*models.CertificateRecord, error)
	ListAll(ctx context.Context, schoolID string) ([]*models.CertificateRecord, error)
	GetApproved(ctx context.Context, id string) (*models.CertificateRecord, error)
}

// CertificateService runs the leaving-certificate approval workflow.
type CertificateService struct {
	repo     CertificateRepository
	students StudentRepository
	logger   *slog.Logger
	audit    *pkglogger.AuditLogger
}

// NewCertificateService creates a new CertificateService
func NewCertificateService(repo CertificateRepository, students StudentRepository, logger *slog.Logger, audit *pkglogger.AuditLogger) *CertificateService {
	return &CertificateService{
		repo:     repo,
		students: students,
		logger:   logger,
		audit:    audit,
	}
}

// CertificateDownload is a rendered certificate ready to serve
type CertificateDownload struct {
	Filename string
	Content  []byte
}

// Request opens a certificate request for a student. A student may hold at
// most one active (pending or approved) request; a prior rejection is
// discarded and replaced with a fresh pending request.
func (s *CertificateService) Request(ctx context.Context, studentID, schoolID, requestedBy string) (string, error) {
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return "", models.ErrNotFound
		}
		s.logger.Error("failed to get student", slog.String("student_id", studentID), slog.Any("error", err))
		return "", models.ErrInternalServer
	}
	if student.SchoolID != schoolID {
		return "", models.ErrNotFound
	}

	id, err := s.repo.CreateRequest(ctx, studentID, schoolID, requestedBy)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return "", models.ErrConflict
		}
		s.logger.Error("failed to create certificate request", slog.String("student_id", studentID), slog.Any("error", err))
		return "", models.ErrInternalServer
	}

	s.logger.Info("certificate requested",
		slog.String("certificate_id", id),
		slog.String("student_id", studentID),
		slog.String("school_id", schoolID))
	s.audit.LogWorkflowDecision("certificate_requested", id, requestedBy)

	return id, nil
}

// ListPending returns the requests awaiting a decision, oldest last.
func (s *CertificateService) ListPending(ctx context.Context, schoolID string) ([]*models.CertificateRecord, error) {
	records, err := s.repo.ListPending(ctx, schoolID)
	if err != nil {
		s.logger.Error("failed to list pending certificates", slog.String("school_id", schoolID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return records, nil
}

// ListAll returns every request for the school regardless of status.
func (s *CertificateService) ListAll(ctx context.Context, schoolID string) ([]*models.CertificateRecord, error) {
	records, err := s.repo.ListAll(ctx, schoolID)
	if err != nil {
		s.logger.Error("failed to list certificates", slog.String("school_id", schoolID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return records, nil
}

// Approve moves a pending request to approved. A request that is already
// decided is not re-decided; the caller gets ErrAlreadyProcessed.
func (s *CertificateService) Approve(ctx context.Context, id, approvedBy string) error {
	if err := s.repo.Approve(ctx, id, approvedBy); err != nil {
		if errors.Is(err, models.ErrAlreadyProcessed) {
			return models.ErrAlreadyProcessed
		}
		s.logger.Error("failed to approve certificate", slog.String("certificate_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("certificate approved", slog.String("certificate_id", id))
	s.audit.LogWorkflowDecision("certificate_approved", id, approvedBy)
	return nil
}

// Reject moves a pending request to rejected with a mandatory reason.
func (s *CertificateService) Reject(ctx context.Context, id, rejectedBy, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return models.ErrBadRequest
	}

	if err := s.repo.Reject(ctx, id, rejectedBy, reason); err != nil {
		if errors.Is(err, models.ErrAlreadyProcessed) {
			return models.ErrAlreadyProcessed
		}
		s.logger.Error("failed to reject certificate", slog.String("certificate_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("certificate rejected", slog.String("certificate_id", id))
	s.audit.LogWorkflowDecision("certificate_rejected", id, rejectedBy)
	return nil
}

// Download renders the PDF for an approved request. An unapproved or unknown
// id is indistinguishable to the caller; both come back ErrNotFound.
func (s *CertificateService) Download(ctx context.Context, id, schoolID string) (*CertificateDownload, error) {
	record, err := s.repo.GetApproved(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get approved certificate", slog.String("certificate_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if record.SchoolID != schoolID {
		return nil, models.ErrNotFound
	}

	student, err := s.students.GetByID(ctx, record.StudentID)
	if err != nil {
		s.logger.Error("failed to get student for certificate", slog.String("certificate_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	approvedAt := record.RequestedAt
	if record.ApprovedAt != nil {
		approvedAt = *record.ApprovedAt
	}

	content, err := documents.RenderLeavingCertificate(record.SchoolName, student, approvedAt)
	if err != nil {
		s.logger.Error("failed to render certificate", slog.String("certificate_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return &CertificateDownload{
		Filename: documents.CertificateFilename(student.Name),
		Content:  content,
	}, nil
}
