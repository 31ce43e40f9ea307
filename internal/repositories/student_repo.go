package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mahadigital/schooldesk/internal/database"
	"github.com/mahadigital/schooldesk/internal/models"
)

type StudentRepository struct {
	pool *pgxpool.Pool
}

func NewStudentRepository(db *database.DB) *StudentRepository {
	return &StudentRepository{pool: db.Pool}
}

const studentColumns = `id, school_id, school_name, name, mother_name, mother_tongue,
	race_caste, nationality, birth_place, date_of_birth, last_school, date_admission,
	standard, progress, conduct, date_leaving, reason_leaving, remark, created_at, updated_at`

func scanStudentRow(scanner rowScanner) (*models.Student, error) {
	var s models.Student

	err := scanner.Scan(
		&s.ID, &s.SchoolID, &s.SchoolName, &s.Name, &s.MotherName, &s.MotherTongue,
		&s.RaceCaste, &s.Nationality, &s.BirthPlace, &s.DateOfBirth, &s.LastSchool,
		&s.DateAdmission, &s.Standard, &s.Progress, &s.Conduct, &s.DateLeaving,
		&s.ReasonLeaving, &s.Remark, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &s, nil
}

func scanStudentRows(rows pgx.Rows) ([]*models.Student, error) {
	defer rows.Close()

	students := make([]*models.Student, 0)

	for rows.Next() {
		student, err := scanStudentRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		students = append(students, student)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return students, nil
}

func (r *StudentRepository) Create(ctx context.Context, student *models.Student) (*models.Student, error) {
	student.ID = uuid.New().String()

	now := time.Now()
	student.CreatedAt = now
	student.UpdatedAt = now

	query := `
		INSERT INTO students (id, school_id, school_name, name, mother_name, mother_tongue,
			race_caste, nationality, birth_place, date_of_birth, last_school, date_admission,
			standard, progress, conduct, date_leaving, reason_leaving, remark, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING ` + studentColumns

	created, err := scanStudentRow(r.pool.QueryRow(ctx, query,
		student.ID, student.SchoolID, student.SchoolName, student.Name, student.MotherName,
		student.MotherTongue, student.RaceCaste, student.Nationality, student.BirthPlace,
		student.DateOfBirth, student.LastSchool, student.DateAdmission, student.Standard,
		student.Progress, student.Conduct, student.DateLeaving, student.ReasonLeaving,
		student.Remark, student.CreatedAt, student.UpdatedAt,
	))
	if err != nil {
		return nil, err
	}

	return created, nil
}

func (r *StudentRepository) GetByID(ctx context.Context, id string) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE id = $1`
	return scanStudentRow(r.pool.QueryRow(ctx, query, id))
}

func (r *StudentRepository) ListBySchool(ctx context.Context, schoolID string) ([]*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE school_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, schoolID)
	if err != nil {
		return nil, fmt.Errorf("failed to query students: %w", err)
	}

	return scanStudentRows(rows)
}

// Search matches students by partial, case-insensitive name and/or standard
// within one school. Empty criteria are skipped.
func (r *StudentRepository) Search(ctx context.Context, schoolID, name, standard string) ([]*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE school_id = $1`
	args := []interface{}{schoolID}

	if name != "" {
		args = append(args, "%"+name+"%")
		query += fmt.Sprintf(" AND name ILIKE $%d", len(args))
	}
	if standard != "" {
		args = append(args, "%"+standard+"%")
		query += fmt.Sprintf(" AND standard ILIKE $%d", len(args))
	}

	query += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search students: %w", err)
	}

	return scanStudentRows(rows)
}

func (r *StudentRepository) CountBySchool(ctx context.Context, schoolID string) (int64, error) {
	query := `SELECT COUNT(*) FROM students WHERE school_id = $1`

	var count int64
	if err := r.pool.QueryRow(ctx, query, schoolID).Scan(&count); err != nil {
		return 0, database.MapPostgresError(err)
	}

	return count, nil
}
