package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresLedger backs the ledger with an ai_usage table so quota
// survives process restarts and is shared across workers. The
// check-and-increment is a single INSERT ... ON CONFLICT statement, so
// postgres row locking serializes concurrent requests for one key.
type PostgresLedger struct {
	pool  *pgxpool.Pool
	limit int
}

// NewPostgresLedger creates a ledger over an existing pool. The ai_usage
// table is created by the api/config migrations.
func NewPostgresLedger(pool *pgxpool.Pool, limit int) *PostgresLedger {
	return &PostgresLedger{pool: pool, limit: limit}
}

const checkAndIncrementSQL = `
INSERT INTO ai_usage (user_id, post_id, window_start, count)
VALUES ($1, $2, now(), 1)
ON CONFLICT (user_id, post_id) DO UPDATE SET
	count = CASE
		WHEN ai_usage.window_start <= now() - interval '24 hours' THEN 1
		ELSE ai_usage.count + 1
	END,
	window_start = CASE
		WHEN ai_usage.window_start <= now() - interval '24 hours' THEN now()
		ELSE ai_usage.window_start
	END
WHERE ai_usage.window_start <= now() - interval '24 hours'
   OR ai_usage.count < $3
RETURNING count
`

// CheckAndIncrement consumes one slot atomically.
func (l *PostgresLedger) CheckAndIncrement(ctx context.Context, userID, articleID string) (int, error) {
	var count int
	err := l.pool.QueryRow(ctx, checkAndIncrementSQL,
		userID, articleID, l.limit,
	).Scan(&count)
	if err == pgx.ErrNoRows {
		// The WHERE clause rejected the update: window full.
		return 0, ErrLimitExhausted
	}
	if err != nil {
		return 0, fmt.Errorf("failed to increment usage: %w", err)
	}
	return l.limit - count, nil
}

// Remaining reports slots left without consuming one.
func (l *PostgresLedger) Remaining(ctx context.Context, userID, articleID string) (int, error) {
	var count int
	var windowStart time.Time
	err := l.pool.QueryRow(ctx, `
		SELECT count, window_start FROM ai_usage
		WHERE user_id = $1 AND post_id = $2
	`, userID, articleID).Scan(&count, &windowStart)
	if err == pgx.ErrNoRows {
		return l.limit, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read usage: %w", err)
	}
	if time.Since(windowStart) >= Window {
		return l.limit, nil
	}
	remaining := l.limit - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}
