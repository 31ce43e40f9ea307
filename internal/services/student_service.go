package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/mahadigital/schooldesk/internal/models"
)

// StudentRepository defines the persistence operations the roster needs
type StudentRepository interface {
	Create(ctx context.Context, student *models.Student) (*models.Student, error)
	GetByID(ctx context.Context, id string) (*models.Student, error)
	ListBySchool(ctx context.Context, schoolID string) ([]*models.Student, error)
	Search(ctx context.Context, schoolID, name, standard string) ([]*models.Student, error)
	CountBySchool(ctx context.Context, schoolID string) (int64, error)
}

// StudentService owns the per-school student roster.
type StudentService struct {
	repo   StudentRepository
	logger *slog.Logger
}

// NewStudentService creates a new StudentService
func NewStudentService(repo StudentRepository, logger *slog.Logger) *StudentService {
	return &StudentService{
		repo:   repo,
		logger: logger,
	}
}

// Register enrolls a student under the authenticated school. Beyond the name,
// every field is free-form text and stored as entered.
func (s *StudentService) Register(ctx context.Context, student *models.Student) (*models.Student, error) {
	student.Name = strings.TrimSpace(student.Name)
	if student.Name == "" {
		return nil, models.ErrBadRequest
	}

	created, err := s.repo.Create(ctx, student)
	if err != nil {
		s.logger.Error("failed to create student", slog.String("school_id", student.SchoolID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("student registered",
		slog.String("student_id", created.ID),
		slog.String("school_id", created.SchoolID))

	return created, nil
}

// Get returns one student, scoped to the caller's school.
func (s *StudentService) Get(ctx context.Context, id, schoolID string) (*models.Student, error) {
	student, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get student", slog.String("student_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if student.SchoolID != schoolID {
		return nil, models.ErrNotFound
	}
	return student, nil
}

// List returns the school's roster, newest first.
func (s *StudentService) List(ctx context.Context, schoolID string) ([]*models.Student, error) {
	students, err := s.repo.ListBySchool(ctx, schoolID)
	if err != nil {
		s.logger.Error("failed to list students", slog.String("school_id", schoolID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return students, nil
}

// Search filters the roster by name substring and/or exact standard. At
// least one criterion is required.
func (s *StudentService) Search(ctx context.Context, schoolID, name, standard string) ([]*models.Student, error) {
	name = strings.TrimSpace(name)
	standard = strings.TrimSpace(standard)
	if name == "" && standard == "" {
		return nil, models.ErrBadRequest
	}

	students, err := s.repo.Search(ctx, schoolID, name, standard)
	if err != nil {
		s.logger.Error("failed to search students", slog.String("school_id", schoolID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return students, nil
}
