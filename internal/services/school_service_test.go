package services

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahadigital/schooldesk/internal/models"
	pkgauth "github.com/mahadigital/schooldesk/pkg/auth"
)

func registerInput() RegisterSchoolInput {
	return RegisterSchoolInput{
		SchoolName:     "St. Example High School",
		PrincipalName:  "R. Joshi",
		SchoolEmail:    "Office@STHigh.edu",
		PrincipalEmail: "principal@sthigh.edu",
		Village:        "Shirgaon",
		Tehsil:         "Palghar",
		District:       "Palghar",
		PinCode:        "401404",
		BoardName:      "Maharashtra State Board",
		Username:       "sthigh",
		Password:       "password123",
	}
}

func TestSchoolService_Register_Success(t *testing.T) {
	repo := &MockSchoolRepository{
		CreateFunc: func(ctx context.Context, school *models.School) (*models.School, error) {
			assert.Equal(t, "office@sthigh.edu", school.SchoolEmail)
			assert.NoError(t, pkgauth.ComparePassword(school.PasswordHash, "password123"))
			school.ID = "school123"
			if school.Role == "" {
				school.Role = models.RoleClerk
			}
			return school, nil
		},
	}

	svc := NewSchoolService(repo, &MockStudentRepository{}, slog.Default())

	info, err := svc.Register(context.Background(), registerInput())

	require.NoError(t, err)
	assert.Equal(t, "school123", info.ID)
	assert.Equal(t, models.RoleClerk, info.Role)
	assert.Equal(t, "office@sthigh.edu", info.SchoolEmail)
}

func TestSchoolService_Register_WeakPassword(t *testing.T) {
	svc := NewSchoolService(&MockSchoolRepository{}, &MockStudentRepository{}, slog.Default())

	input := registerInput()
	input.Password = "12345"

	_, err := svc.Register(context.Background(), input)

	assert.ErrorIs(t, err, models.ErrWeakPassword)
}

func TestSchoolService_Register_Duplicate(t *testing.T) {
	repo := &MockSchoolRepository{
		CreateFunc: func(ctx context.Context, school *models.School) (*models.School, error) {
			return nil, models.ErrConflict
		},
	}

	svc := NewSchoolService(repo, &MockStudentRepository{}, slog.Default())

	_, err := svc.Register(context.Background(), registerInput())

	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestSchoolService_GetInfo(t *testing.T) {
	hash, err := pkgauth.HashPassword("password123")
	require.NoError(t, err)

	repo := &MockSchoolRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.School, error) {
			return NewTestSchool("school123", "sthigh", "office@sthigh.edu", hash), nil
		},
	}
	students := &MockStudentRepository{
		CountBySchoolFunc: func(ctx context.Context, schoolID string) (int64, error) {
			return 42, nil
		},
	}

	svc := NewSchoolService(repo, students, slog.Default())

	info, err := svc.GetInfo(context.Background(), "school123")

	require.NoError(t, err)
	assert.Equal(t, int64(42), info.StudentCount)
	assert.Equal(t, "sthigh", info.Username)
}

func TestStudentService_Register_RequiresName(t *testing.T) {
	svc := NewStudentService(&MockStudentRepository{}, slog.Default())

	_, err := svc.Register(context.Background(), &models.Student{Name: "   "})

	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestStudentService_Search_RequiresCriterion(t *testing.T) {
	svc := NewStudentService(&MockStudentRepository{}, slog.Default())

	_, err := svc.Search(context.Background(), "school123", "  ", "")

	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestStudentService_Get_ScopedToSchool(t *testing.T) {
	students := &MockStudentRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Student, error) {
			return &models.Student{ID: id, SchoolID: "other-school", Name: "Asha Patil"}, nil
		},
	}

	svc := NewStudentService(students, slog.Default())

	_, err := svc.Get(context.Background(), "student1", "school123")

	assert.ErrorIs(t, err, models.ErrNotFound)
}
