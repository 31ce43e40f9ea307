package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/mahadigital/schooldesk/internal/models"
	pkgauth "github.com/mahadigital/schooldesk/pkg/auth"
)

// SchoolService owns school account registration and profile reads.
type SchoolService struct {
	repo     SchoolRepository
	students StudentRepository
	logger   *slog.Logger
}

// NewSchoolService creates a new SchoolService
func NewSchoolService(repo SchoolRepository, students StudentRepository, logger *slog.Logger) *SchoolService {
	return &SchoolService{
		repo:     repo,
		students: students,
		logger:   logger,
	}
}

// RegisterSchoolInput carries the fields to open a school account
type RegisterSchoolInput struct {
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
	Password       string
	Role           string
}

// SchoolInfo is the credential-free profile view of a school account
type SchoolInfo struct {
	ID             string    `json:"id"`
	SchoolName     string    `json:"school_name"`
	PrincipalName  string    `json:"principal_name"`
	SchoolEmail    string    `json:"school_email"`
	PrincipalEmail string    `json:"principal_email"`
	Village        string    `json:"village"`
	Tehsil         string    `json:"tehsil"`
	District       string    `json:"district"`
	PinCode        string    `json:"pin_code"`
	BoardName      string    `json:"board_name"`
	Username       string    `json:"username"`
	Role           string    `json:"role"`
	StudentCount   int64     `json:"student_count"`
	CreatedAt      time.Time `json:"created_at"`
}

func toSchoolInfo(s *models.School, studentCount int64) *SchoolInfo {
	return &SchoolInfo{
		ID:             s.ID,
		SchoolName:     s.SchoolName,
		PrincipalName:  s.PrincipalName,
		SchoolEmail:    s.SchoolEmail,
		PrincipalEmail: s.PrincipalEmail,
		Village:        s.Village,
		Tehsil:         s.Tehsil,
		District:       s.District,
		PinCode:        s.PinCode,
		BoardName:      s.BoardName,
		Username:       s.Username,
		Role:           s.Role,
		StudentCount:   studentCount,
		CreatedAt:      s.CreatedAt,
	}
}

// Register opens a school account. Username and school email are globally
// unique; a collision on either surfaces as ErrConflict.
func (s *SchoolService) Register(ctx context.Context, input RegisterSchoolInput) (*SchoolInfo, error) {
	if err := pkgauth.ValidateNewPassword(input.Password); err != nil {
		return nil, err
	}

	hash, err := pkgauth.HashPassword(input.Password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	school := &models.School{
		SchoolName:     strings.TrimSpace(input.SchoolName),
		PrincipalName:  strings.TrimSpace(input.PrincipalName),
		SchoolEmail:    strings.ToLower(strings.TrimSpace(input.SchoolEmail)),
		PrincipalEmail: strings.ToLower(strings.TrimSpace(input.PrincipalEmail)),
		Village:        strings.TrimSpace(input.Village),
		Tehsil:         strings.TrimSpace(input.Tehsil),
		District:       strings.TrimSpace(input.District),
		PinCode:        strings.TrimSpace(input.PinCode),
		BoardName:      strings.TrimSpace(input.BoardName),
		Username:       strings.TrimSpace(input.Username),
		PasswordHash:   hash,
		Role:           input.Role,
	}

	created, err := s.repo.Create(ctx, school)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create school", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("school registered",
		slog.String("school_id", created.ID),
		slog.String("role", created.Role))

	return toSchoolInfo(created, 0), nil
}

// GetInfo returns the profile for the authenticated school account.
func (s *SchoolService) GetInfo(ctx context.Context, schoolID string) (*SchoolInfo, error) {
	school, err := s.repo.GetByID(ctx, schoolID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get school", slog.String("school_id", schoolID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	count, err := s.students.CountBySchool(ctx, schoolID)
	if err != nil {
		s.logger.Error("failed to count students", slog.String("school_id", schoolID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return toSchoolInfo(school, count), nil
}
