package services

import (
	"context"
	"time"

	"github.com/mahadigital/schooldesk/internal/models"
)

// MockSchoolRepository implements SchoolRepository for testing
type MockSchoolRepository struct {
	CreateFunc            func(ctx context.Context, school *models.School) (*models.School, error)
	GetByIDFunc           func(ctx context.Context, id string) (*models.School, error)
	GetByUsernameFunc     func(ctx context.Context, username string) (*models.School, error)
	GetByEmailFunc        func(ctx context.Context, email string) (*models.School, error)
	UpdatePasswordFunc    func(ctx context.Context, id, passwordHash string) error
	SetTempPasswordFunc   func(ctx context.Context, id, tempHash string, expiresAt time.Time) error
	ClearTempPasswordFunc func(ctx context.Context, id string) error
}

func (m *MockSchoolRepository) Create(ctx context.Context, school *models.School) (*models.School, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, school)
	}
	return nil, models.ErrInternalServer
}

func (m *MockSchoolRepository) GetByID(ctx context.Context, id string) (*models.School, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockSchoolRepository) GetByUsername(ctx context.Context, username string) (*models.School, error) {
	if m.GetByUsernameFunc != nil {
		return m.GetByUsernameFunc(ctx, username)
	}
	return nil, models.ErrNotFound
}

func (m *MockSchoolRepository) GetByEmail(ctx context.Context, email string) (*models.School, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockSchoolRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, id, passwordHash)
	}
	return nil
}

func (m *MockSchoolRepository) SetTempPassword(ctx context.Context, id, tempHash string, expiresAt time.Time) error {
	if m.SetTempPasswordFunc != nil {
		return m.SetTempPasswordFunc(ctx, id, tempHash, expiresAt)
	}
	return nil
}

func (m *MockSchoolRepository) ClearTempPassword(ctx context.Context, id string) error {
	if m.ClearTempPasswordFunc != nil {
		return m.ClearTempPasswordFunc(ctx, id)
	}
	return nil
}

// MockStudentRepository implements StudentRepository for testing
type MockStudentRepository struct {
	CreateFunc        func(ctx context.Context, student *models.Student) (*models.Student, error)
	GetByIDFunc       func(ctx context.Context, id string) (*models.Student, error)
	ListBySchoolFunc  func(ctx context.Context, schoolID string) ([]*models.Student, error)
	SearchFunc        func(ctx context.Context, schoolID, name, standard string) ([]*models.Student, error)
	CountBySchoolFunc func(ctx context.Context, schoolID string) (int64, error)
}

func (m *MockStudentRepository) Create(ctx context.Context, student *models.Student) (*models.Student, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, student)
	}
	return nil, models.ErrInternalServer
}

func (m *MockStudentRepository) GetByID(ctx context.Context, id string) (*models.Student, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockStudentRepository) ListBySchool(ctx context.Context, schoolID string) ([]*models.Student, error) {
	if m.ListBySchoolFunc != nil {
		return m.ListBySchoolFunc(ctx, schoolID)
	}
	return []*models.Student{}, nil
}

func (m *MockStudentRepository) Search(ctx context.Context, schoolID, name, standard string) ([]*models.Student, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, schoolID, name, standard)
	}
	return []*models.Student{}, nil
}

func (m *MockStudentRepository) CountBySchool(ctx context.Context, schoolID string) (int64, error) {
	if m.CountBySchoolFunc != nil {
		return m.CountBySchoolFunc(ctx, schoolID)
	}
	return 0, nil
}

// MockCertificateRepository implements CertificateRepository for testing
type MockCertificateRepository struct {
	CreateRequestFunc func(ctx context.Context, studentID, schoolID, requestedBy string) (string, error)
	ApproveFunc       func(ctx context.Context, id, approvedBy string) error
	RejectFunc        func(ctx context.Context, id, approvedBy, reason string) error
	ListPendingFunc   func(ctx context.Context, schoolID string) ([]*models.CertificateRecord, error)
	ListAllFunc       func(ctx context.Context, schoolID string) ([]*models.CertificateRecord, error)
	GetApprovedFunc   func(ctx context.Context, id string) (*models.CertificateRecord, error)
}

func (m *MockCertificateRepository) CreateRequest(ctx context.Context, studentID, schoolID, requestedBy string) (string, error) {
	if m.CreateRequestFunc != nil {
		return m.CreateRequestFunc(ctx, studentID, schoolID, requestedBy)
	}
	return "", models.ErrInternalServer
}

func (m *MockCertificateRepository) Approve(ctx context.Context, id, approvedBy string) error {
	if m.ApproveFunc != nil {
		return m.ApproveFunc(ctx, id, approvedBy)
	}
	return nil
}

func (m *MockCertificateRepository) Reject(ctx context.Context, id, approvedBy, reason string) error {
	if m.RejectFunc != nil {
		return m.RejectFunc(ctx, id, approvedBy, reason)
	}
	return nil
}

func (m *MockCertificateRepository) ListPending(ctx context.Context, schoolID string) ([]*models.CertificateRecord, error) {
	if m.ListPendingFunc != nil {
		return m.ListPendingFunc(ctx, schoolID)
	}
	return []*models.CertificateRecord{}, nil
}

func (m *MockCertificateRepository) ListAll(ctx context.Context, schoolID string) ([]*models.CertificateRecord, error) {
	if m.ListAllFunc != nil {
		return m.ListAllFunc(ctx, schoolID)
	}
	return []*models.CertificateRecord{}, nil
}

func (m *MockCertificateRepository) GetApproved(ctx context.Context, id string) (*models.CertificateRecord, error) {
	if m.GetApprovedFunc != nil {
		return m.GetApprovedFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

// MockUsedTokenStore implements UsedTokenStore for testing
type MockUsedTokenStore struct {
	MarkUsedFunc func(ctx context.Context, jti, schoolID, tokenType string, expiresAt time.Time, reason string) error
	IsUsedFunc   func(ctx context.Context, jti string) (bool, error)
}

func (m *MockUsedTokenStore) MarkUsed(ctx context.Context, jti, schoolID, tokenType string, expiresAt time.Time, reason string) error {
	if m.MarkUsedFunc != nil {
		return m.MarkUsedFunc(ctx, jti, schoolID, tokenType, expiresAt, reason)
	}
	return nil
}

func (m *MockUsedTokenStore) IsUsed(ctx context.Context, jti string) (bool, error) {
	if m.IsUsedFunc != nil {
		return m.IsUsedFunc(ctx, jti)
	}
	return false, nil
}

// MockEmailService implements EmailService for testing
type MockEmailService struct {
	SendEmailFunc func(ctx context.Context, to, subject, htmlBody string) error
}

func (m *MockEmailService) SendEmail(ctx context.Context, to, subject, htmlBody string) error {
	if m.SendEmailFunc != nil {
		return m.SendEmailFunc(ctx, to, subject, htmlBody)
	}
	return nil
}

// MockEmailOutbox implements EmailOutbox for testing
type MockEmailOutbox struct {
	EnqueueFunc func(ctx context.Context, toEmail, subject, body string) (string, error)
}

func (m *MockEmailOutbox) Enqueue(ctx context.Context, toEmail, subject, body string) (string, error) {
	if m.EnqueueFunc != nil {
		return m.EnqueueFunc(ctx, toEmail, subject, body)
	}
	return "queued_1", nil
}

// NewTestSchool creates a school with a known primary password hash
func NewTestSchool(id, username, email, passwordHash string) *models.School {
	now := time.Now()
	return &models.School{
		ID:           id,
		SchoolName:   "St. Example High School",
		Username:     username,
		SchoolEmail:  email,
		PasswordHash: passwordHash,
		Role:         models.RoleClerk,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
