package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahadigital/schooldesk/internal/models"
	pkglogger "github.com/mahadigital/schooldesk/pkg/logger"
)

func newTestCertificateService(repo CertificateRepository, students StudentRepository) *CertificateService {
	logger := slog.Default()
	return NewCertificateService(repo, students, logger, pkglogger.NewAuditLogger(logger))
}

func testStudent(id, schoolID string) *models.Student {
	return &models.Student{
		ID:         id,
		SchoolID:   schoolID,
		SchoolName: "St. Example High School",
		Name:       "Asha Patil",
		Standard:   "7th",
	}
}

func TestCertificateService_Request_Success(t *testing.T) {
	students := &MockStudentRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Student, error) {
			return testStudent("student1", "school1"), nil
		},
	}
	repo := &MockCertificateRepository{
		CreateRequestFunc: func(ctx context.Context, studentID, schoolID, requestedBy string) (string, error) {
			assert.Equal(t, "student1", studentID)
			assert.Equal(t, "school1", schoolID)
			assert.Equal(t, "clerk1", requestedBy)
			return "cert1", nil
		},
	}

	svc := newTestCertificateService(repo, students)

	id, err := svc.Request(context.Background(), "student1", "school1", "clerk1")

	require.NoError(t, err)
	assert.Equal(t, "cert1", id)
}

func TestCertificateService_Request_UnknownStudent(t *testing.T) {
	svc := newTestCertificateService(&MockCertificateRepository{}, &MockStudentRepository{})

	_, err := svc.Request(context.Background(), "missing", "school1", "clerk1")

	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCertificateService_Request_OtherSchoolsStudent(t *testing.T) {
	students := &MockStudentRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Student, error) {
			return testStudent("student1", "other-school"), nil
		},
	}

	svc := newTestCertificateService(&MockCertificateRepository{}, students)

	_, err := svc.Request(context.Background(), "student1", "school1", "clerk1")

	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCertificateService_Request_ActiveRequestExists(t *testing.T) {
	students := &MockStudentRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Student, error) {
			return testStudent("student1", "school1"), nil
		},
	}
	repo := &MockCertificateRepository{
		CreateRequestFunc: func(ctx context.Context, studentID, schoolID, requestedBy string) (string, error) {
			return "", models.ErrConflict
		},
	}

	svc := newTestCertificateService(repo, students)

	_, err := svc.Request(context.Background(), "student1", "school1", "clerk1")

	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestCertificateService_Approve_AlreadyProcessed(t *testing.T) {
	repo := &MockCertificateRepository{
		ApproveFunc: func(ctx context.Context, id, approvedBy string) error {
			return models.ErrAlreadyProcessed
		},
	}

	svc := newTestCertificateService(repo, &MockStudentRepository{})

	err := svc.Approve(context.Background(), "cert1", "principal1")

	assert.ErrorIs(t, err, models.ErrAlreadyProcessed)
}

func TestCertificateService_Reject_RequiresReason(t *testing.T) {
	called := false
	repo := &MockCertificateRepository{
		RejectFunc: func(ctx context.Context, id, approvedBy, reason string) error {
			called = true
			return nil
		},
	}

	svc := newTestCertificateService(repo, &MockStudentRepository{})

	err := svc.Reject(context.Background(), "cert1", "principal1", "   ")

	assert.ErrorIs(t, err, models.ErrBadRequest)
	assert.False(t, called, "a blank reason must never reach the repository")
}

func TestCertificateService_Reject_Success(t *testing.T) {
	repo := &MockCertificateRepository{
		RejectFunc: func(ctx context.Context, id, approvedBy, reason string) error {
			assert.Equal(t, "records incomplete", reason)
			return nil
		},
	}

	svc := newTestCertificateService(repo, &MockStudentRepository{})

	err := svc.Reject(context.Background(), "cert1", "principal1", "records incomplete")

	assert.NoError(t, err)
}

func TestCertificateService_Download_Approved(t *testing.T) {
	approvedAt := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	repo := &MockCertificateRepository{
		GetApprovedFunc: func(ctx context.Context, id string) (*models.CertificateRecord, error) {
			return &models.CertificateRecord{
				Certificate: models.Certificate{
					ID:         "cert1",
					StudentID:  "student1",
					SchoolID:   "school1",
					Status:     models.StatusApproved,
					ApprovedAt: &approvedAt,
				},
				StudentName: "Asha Patil",
				Standard:    "7th",
				SchoolName:  "St. Example High School",
			}, nil
		},
	}
	students := &MockStudentRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Student, error) {
			return testStudent("student1", "school1"), nil
		},
	}

	svc := newTestCertificateService(repo, students)

	download, err := svc.Download(context.Background(), "cert1", "school1")

	require.NoError(t, err)
	assert.Equal(t, "Leaving_Certificate_Asha_Patil.pdf", download.Filename)
	assert.NotEmpty(t, download.Content)
	assert.Equal(t, "%PDF", string(download.Content[:4]))
}

func TestCertificateService_Download_NotApproved(t *testing.T) {
	// Pending, rejected and nonexistent ids are indistinguishable: the
	// repository only surfaces approved rows.
	svc := newTestCertificateService(&MockCertificateRepository{}, &MockStudentRepository{})

	download, err := svc.Download(context.Background(), "cert1", "school1")

	assert.Nil(t, download)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCertificateService_Download_OtherSchool(t *testing.T) {
	repo := &MockCertificateRepository{
		GetApprovedFunc: func(ctx context.Context, id string) (*models.CertificateRecord, error) {
			return &models.CertificateRecord{
				Certificate: models.Certificate{
					ID:        "cert1",
					StudentID: "student1",
					SchoolID:  "other-school",
					Status:    models.StatusApproved,
				},
			}, nil
		},
	}

	svc := newTestCertificateService(repo, &MockStudentRepository{})

	download, err := svc.Download(context.Background(), "cert1", "school1")

	assert.Nil(t, download)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
