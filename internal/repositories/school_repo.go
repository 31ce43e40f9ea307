package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mahadigital/schooldesk/internal/database"
	"github.com/mahadigital/schooldesk/internal/models"
)

type SchoolRepository struct {
	pool *pgxpool.Pool
}

func NewSchoolRepository(db *database.DB) *SchoolRepository {
	return &SchoolRepository{pool: db.Pool}
}

// rowScanner interface for scanning rows (supports both single row and multiple rows)
type rowScanner interface {
	Scan(dest ...interface{}) error
}

const schoolColumns = `id, school_name, principal_name, school_email, principal_email,
	village, tehsil, district, pin_code, board_name, username, password_hash, role,
	temp_password_hash, temp_password_expires_at, password_changed_at, created_at, updated_at`

// scanSchoolRow handles nullable fields and populates a School model from a database row
func scanSchoolRow(scanner rowScanner) (*models.School, error) {
	var school models.School
	var tempHash *string
	var tempExpiresAt, passwordChangedAt *time.Time

	err := scanner.Scan(
		&school.ID, &school.SchoolName, &school.PrincipalName, &school.SchoolEmail,
		&school.PrincipalEmail, &school.Village, &school.Tehsil, &school.District,
		&school.PinCode, &school.BoardName, &school.Username, &school.PasswordHash,
		&school.Role, &tempHash, &tempExpiresAt, &passwordChangedAt,
		&school.CreatedAt, &school.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	school.TempPasswordHash = tempHash
	school.TempPasswordExpiresAt = tempExpiresAt
	school.PasswordChangedAt = passwordChangedAt

	return &school, nil
}

func (r *SchoolRepository) Create(ctx context.Context, school *models.School) (*models.School, error) {
	school.ID = uuid.New().String()

	now := time.Now()
	school.CreatedAt = now
	school.UpdatedAt = now

	if school.Role == "" {
		school.Role = models.RoleClerk
	}

	query := `
		INSERT INTO schools (id, school_name, principal_name, school_email, principal_email,
			village, tehsil, district, pin_code, board_name, username, password_hash, role,
			password_changed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING ` + schoolColumns

	created, err := scanSchoolRow(r.pool.QueryRow(ctx, query,
		school.ID, school.SchoolName, school.PrincipalName, school.SchoolEmail,
		school.PrincipalEmail, school.Village, school.Tehsil, school.District,
		school.PinCode, school.BoardName, school.Username, school.PasswordHash,
		school.Role, school.PasswordChangedAt, school.CreatedAt, school.UpdatedAt,
	))
	if err != nil {
		return nil, err
	}

	return created, nil
}

func (r *SchoolRepository) GetByID(ctx context.Context, id string) (*models.School, error) {
	query := `SELECT ` + schoolColumns + ` FROM schools WHERE id = $1`
	return scanSchoolRow(r.pool.QueryRow(ctx, query, id))
}

func (r *SchoolRepository) GetByUsername(ctx context.Context, username string) (*models.School, error) {
	query := `SELECT ` + schoolColumns + ` FROM schools WHERE username = $1`
	return scanSchoolRow(r.pool.QueryRow(ctx, query, username))
}

func (r *SchoolRepository) GetByEmail(ctx context.Context, email string) (*models.School, error) {
	query := `SELECT ` + schoolColumns + ` FROM schools WHERE school_email = $1`
	return scanSchoolRow(r.pool.QueryRow(ctx, query, email))
}

// UpdatePassword replaces the permanent credential and clears the temporary
// credential pair in a single statement.
func (r *SchoolRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := `
		UPDATE schools
		SET password_hash = $1,
			temp_password_hash = NULL,
			temp_password_expires_at = NULL,
			password_changed_at = $2,
			updated_at = $2
		WHERE id = $3
	`

	result, err := r.pool.Exec(ctx, query, passwordHash, time.Now(), id)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// SetTempPassword stores a new temporary credential pair, overwriting any
// outstanding one.
func (r *SchoolRepository) SetTempPassword(ctx context.Context, id, tempHash string, expiresAt time.Time) error {
	query := `
		UPDATE schools
		SET temp_password_hash = $1,
			temp_password_expires_at = $2,
			updated_at = $3
		WHERE id = $4
	`

	result, err := r.pool.Exec(ctx, query, tempHash, expiresAt, time.Now(), id)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// ClearTempPassword removes the temporary credential pair.
func (r *SchoolRepository) ClearTempPassword(ctx context.Context, id string) error {
	query := `
		UPDATE schools
		SET temp_password_hash = NULL,
			temp_password_expires_at = NULL,
			updated_at = $1
		WHERE id = $2
	`

	_, err := r.pool.Exec(ctx, query, time.Now(), id)
	return database.MapPostgresError(err)
}
