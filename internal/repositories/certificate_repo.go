package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mahadigital/schooldesk/internal/database"
	"github.com/mahadigital/schooldesk/internal/models"
)

type CertificateRepository struct {
	db *database.DB
}

func NewCertificateRepository(db *database.DB) *CertificateRepository {
	return &CertificateRepository{db: db}
}

// CreateRequest inserts a new PENDING request for the student inside a single
// transaction. The existing-row check, the delete of a stale REJECTED row and
// the insert all happen under a row lock, and the partial unique index on
// active statuses backstops any writer that races past the lock.
func (r *CertificateRepository) CreateRequest(ctx context.Context, studentID, schoolID, requestedBy string) (string, error) {
	id := uuid.New().String()

	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		var existingID, existingStatus string

		err := tx.QueryRow(ctx,
			`SELECT id, status FROM leaving_certificates WHERE student_id = $1 FOR UPDATE`,
			studentID,
		).Scan(&existingID, &existingStatus)

		switch {
		case err == nil:
			if existingStatus == models.StatusPending || existingStatus == models.StatusApproved {
				return models.ErrConflict
			}
			// REJECTED rows are discarded, not archived, before re-requesting.
			if _, err := tx.Exec(ctx,
				`DELETE FROM leaving_certificates WHERE student_id = $1`, studentID); err != nil {
				return database.MapPostgresError(err)
			}
		case errors.Is(err, pgx.ErrNoRows):
			// First request for this student.
		default:
			return database.MapPostgresError(err)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO leaving_certificates (id, student_id, school_id, status, requested_by, requested_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			id, studentID, schoolID, models.StatusPending, requestedBy, time.Now(),
		)
		if err != nil {
			return database.MapPostgresError(err)
		}

		return nil
	})
	if err != nil {
		return "", err
	}

	return id, nil
}

// Approve performs the conditional terminal transition to APPROVED. Zero rows
// affected means the row is missing or no longer PENDING; both cases report
// ErrAlreadyProcessed so a race-losing caller cannot double-approve.
func (r *CertificateRepository) Approve(ctx context.Context, id, approvedBy string) error {
	query := `
		UPDATE leaving_certificates
		SET status = $1,
			approved_by = $2,
			approved_at = $3,
			rejection_reason = NULL
		WHERE id = $4 AND status = $5
	`

	result, err := r.db.Pool.Exec(ctx, query,
		models.StatusApproved, approvedBy, time.Now(), id, models.StatusPending)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrAlreadyProcessed
	}

	return nil
}

// Reject performs the conditional terminal transition to REJECTED with the
// same zero-rows semantics as Approve.
func (r *CertificateRepository) Reject(ctx context.Context, id, approvedBy, reason string) error {
	query := `
		UPDATE leaving_certificates
		SET status = $1,
			approved_by = $2,
			approved_at = $3,
			rejection_reason = $4
		WHERE id = $5 AND status = $6
	`

	result, err := r.db.Pool.Exec(ctx, query,
		models.StatusRejected, approvedBy, time.Now(), reason, id, models.StatusPending)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrAlreadyProcessed
	}

	return nil
}

const certificateRecordColumns = `lc.id, lc.student_id, lc.school_id, lc.status,
	lc.requested_by, lc.requested_at, lc.approved_by, lc.approved_at, lc.rejection_reason,
	s.name, s.standard, s.school_name`

func scanCertificateRecord(scanner rowScanner) (*models.CertificateRecord, error) {
	var rec models.CertificateRecord

	err := scanner.Scan(
		&rec.ID, &rec.StudentID, &rec.SchoolID, &rec.Status,
		&rec.RequestedBy, &rec.RequestedAt, &rec.ApprovedBy, &rec.ApprovedAt,
		&rec.RejectionReason, &rec.StudentName, &rec.Standard, &rec.SchoolName,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &rec, nil
}

func scanCertificateRecords(rows pgx.Rows) ([]*models.CertificateRecord, error) {
	defer rows.Close()

	records := make([]*models.CertificateRecord, 0)

	for rows.Next() {
		rec, err := scanCertificateRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan certificate: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return records, nil
}

// ListPending returns the school's PENDING requests joined with student name
// and standard, newest first.
func (r *CertificateRepository) ListPending(ctx context.Context, schoolID string) ([]*models.CertificateRecord, error) {
	query := `
		SELECT ` + certificateRecordColumns + `
		FROM leaving_certificates lc
		JOIN students s ON s.id = lc.student_id
		WHERE lc.school_id = $1 AND lc.status = $2
		ORDER BY lc.requested_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, schoolID, models.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending certificates: %w", err)
	}

	return scanCertificateRecords(rows)
}

// ListAll returns the school's requests across all statuses, newest first.
func (r *CertificateRepository) ListAll(ctx context.Context, schoolID string) ([]*models.CertificateRecord, error) {
	query := `
		SELECT ` + certificateRecordColumns + `
		FROM leaving_certificates lc
		JOIN students s ON s.id = lc.student_id
		WHERE lc.school_id = $1
		ORDER BY lc.requested_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, schoolID)
	if err != nil {
		return nil, fmt.Errorf("failed to query certificates: %w", err)
	}

	return scanCertificateRecords(rows)
}

// GetApproved fetches one request gated on APPROVED status. The predicate
// makes a nonexistent id and an unapproved id indistinguishable: both come
// back as ErrNotFound.
func (r *CertificateRepository) GetApproved(ctx context.Context, id string) (*models.CertificateRecord, error) {
	query := `
		SELECT ` + certificateRecordColumns + `
		FROM leaving_certificates lc
		JOIN students s ON s.id = lc.student_id
		WHERE lc.id = $1 AND lc.status = $2
	`

	return scanCertificateRecord(r.db.Pool.QueryRow(ctx, query, id, models.StatusApproved))
}
