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

// EmailQueueRepository is the persistence side of the delivery outbox.
type EmailQueueRepository struct {
	pool *pgxpool.Pool
}

func NewEmailQueueRepository(db *database.DB) *EmailQueueRepository {
	return &EmailQueueRepository{pool: db.Pool}
}

func (r *EmailQueueRepository) Enqueue(ctx context.Context, toEmail, subject, body string) (string, error) {
	id := uuid.New().String()

	query := `
		INSERT INTO email_queue (id, to_email, subject, body, status)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query, id, toEmail, subject, body, models.EmailStatusPending)
	if err != nil {
		return "", database.MapPostgresError(err)
	}

	return id, nil
}

// ListPending returns queued messages that have not exceeded the attempt cap,
// oldest first.
func (r *EmailQueueRepository) ListPending(ctx context.Context, maxAttempts, limit int) ([]*models.OutboundEmail, error) {
	query := `
		SELECT id, to_email, subject, body, status, attempt_count, last_error, created_at, updated_at
		FROM email_queue
		WHERE status = $1 AND attempt_count < $2
		ORDER BY created_at ASC
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, models.EmailStatusPending, maxAttempts, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query email queue: %w", err)
	}
	defer rows.Close()

	emails := make([]*models.OutboundEmail, 0)

	for rows.Next() {
		email, err := scanOutboundEmail(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan queued email: %w", err)
		}
		emails = append(emails, email)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return emails, nil
}

func scanOutboundEmail(rows pgx.Rows) (*models.OutboundEmail, error) {
	var email models.OutboundEmail
	var lastError *string

	err := rows.Scan(
		&email.ID, &email.ToEmail, &email.Subject, &email.Body, &email.Status,
		&email.AttemptCount, &lastError, &email.CreatedAt, &email.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	email.LastError = lastError
	return &email, nil
}

func (r *EmailQueueRepository) MarkSent(ctx context.Context, id string) error {
	query := `
		UPDATE email_queue
		SET status = $1, updated_at = $2
		WHERE id = $3
	`

	_, err := r.pool.Exec(ctx, query, models.EmailStatusSent, time.Now(), id)
	return database.MapPostgresError(err)
}

// MarkAttemptFailed records a failed delivery attempt. Once the attempt cap
// is reached the message is parked as failed and no longer retried.
func (r *EmailQueueRepository) MarkAttemptFailed(ctx context.Context, id, errMsg string, maxAttempts int) error {
	query := `
		UPDATE email_queue
		SET attempt_count = attempt_count + 1,
			last_error = $1,
			status = CASE WHEN attempt_count + 1 >= $2 THEN 'failed' ELSE status END,
			updated_at = $3
		WHERE id = $4
	`

	_, err := r.pool.Exec(ctx, query, errMsg, maxAttempts, time.Now(), id)
	return database.MapPostgresError(err)
}
