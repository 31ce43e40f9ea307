package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mahadigital/schooldesk/internal/database"
)

// UsedTokenRepository tracks consumed JTIs so single-use tokens (the
// password-change token minted after a temp login) cannot be replayed.
type UsedTokenRepository struct {
	pool *pgxpool.Pool
}

func NewUsedTokenRepository(db *database.DB) *UsedTokenRepository {
	return &UsedTokenRepository{pool: db.Pool}
}

// MarkUsed records a consumed token. A duplicate jti maps to ErrConflict via
// the unique constraint.
func (r *UsedTokenRepository) MarkUsed(ctx context.Context, jti, schoolID, tokenType string, expiresAt time.Time, reason string) error {
	query := `
		INSERT INTO used_tokens (id, jti, school_id, token_type, expires_at, reason)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	id := uuid.New().String()
	_, err := r.pool.Exec(ctx, query, id, jti, schoolID, tokenType, expiresAt, reason)
	if err != nil {
		return database.MapPostgresError(err)
	}

	return nil
}

// IsUsed checks whether a token has already been consumed.
func (r *UsedTokenRepository) IsUsed(ctx context.Context, jti string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM used_tokens WHERE jti = $1)`

	var exists bool
	err := r.pool.QueryRow(ctx, query, jti).Scan(&exists)
	if err != nil {
		return false, database.MapPostgresError(err)
	}

	return exists, nil
}

// CleanupExpired removes rows whose underlying tokens have expired; once a
// token is past its expiry the signature check rejects it anyway.
func (r *UsedTokenRepository) CleanupExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM used_tokens WHERE expires_at < $1`

	result, err := r.pool.Exec(ctx, query, time.Now())
	if err != nil {
		return 0, database.MapPostgresError(err)
	}

	return result.RowsAffected(), nil
}
