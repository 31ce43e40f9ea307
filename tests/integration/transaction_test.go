package integration

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A failed commit must surface to the caller, and the work inside the
// transaction must not be visible afterwards.
func TestWithTransactionCommitFailureIsSurfaced(t *testing.T) {
	resetTables(t)

	txCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := testDB.DB.WithTransaction(txCtx, func(tx pgx.Tx) error {
		_, err := tx.Exec(txCtx,
			`INSERT INTO email_queue (id, to_email, subject, body)
			 VALUES (gen_random_uuid(), $1, $2, $3)`,
			"office@sthigh.edu", "subject", "body")
		if err != nil {
			return err
		}
		// Cancelling here makes the deferred commit fail
		cancel()
		return nil
	})
	require.Error(t, err)

	var count int
	require.NoError(t, testDB.Pool.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM email_queue`).Scan(&count))
	assert.Equal(t, 0, count)
}
