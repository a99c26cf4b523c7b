package appendlog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// advisoryLockKey is a stable PostgreSQL advisory lock key used to serialise
// concurrent Append calls across instances. The value is arbitrary but must
// be consistent for all writers of the same database.
const advisoryLockKey = int64(7_204_113_998)

// PostgresLog persists an append-only record stream to a PostgreSQL table.
// Each named stream (ledger, active proofs, revoked proofs) shares one table,
// keyed by stream name and an ever-increasing sequence number.
//
// Schema:
//
//	CREATE TABLE IF NOT EXISTS append_log (
//	    stream TEXT        NOT NULL,
//	    seq    BIGINT      NOT NULL,
//	    body   JSONB       NOT NULL,
//	    at     TIMESTAMPTZ NOT NULL DEFAULT now(),
//	    PRIMARY KEY (stream, seq)
//	);
type PostgresLog struct {
	pool   *pgxpool.Pool
	stream string
	logger *zap.Logger
}

// NewPostgresLog creates a PostgresLog for the named stream backed by the
// given connection pool.
func NewPostgresLog(pool *pgxpool.Pool, stream string, logger *zap.Logger) *PostgresLog {
	return &PostgresLog{pool: pool, stream: stream, logger: logger}
}

// Append implements Log.
// It acquires a PostgreSQL advisory lock, reads the stream tail, and inserts
// the next record — all within a single transaction.
func (l *PostgresLog) Append(ctx context.Context, record any) error {
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// Serialise concurrent appends with a transaction-scoped advisory lock.
	// The lock is released automatically when the transaction ends.
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", advisoryLockKey); err != nil {
		return fmt.Errorf("acquire advisory lock: %w", err)
	}

	var next int64
	if err := tx.QueryRow(ctx,
		"SELECT COALESCE(MAX(seq), 0) + 1 FROM append_log WHERE stream = $1",
		l.stream,
	).Scan(&next); err != nil {
		return fmt.Errorf("read stream tail: %w", err)
	}

	if _, err := tx.Exec(ctx,
		"INSERT INTO append_log (stream, seq, body) VALUES ($1, $2, $3)",
		l.stream, next, body,
	); err != nil {
		return fmt.Errorf("insert record: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit append: %w", err)
	}

	l.logger.Debug("record appended",
		zap.String("stream", l.stream),
		zap.Int64("seq", next),
	)
	return nil
}

// ReadAll implements Log. It streams rows ordered by sequence number.
func (l *PostgresLog) ReadAll(ctx context.Context) ([][]byte, error) {
	rows, err := l.pool.Query(ctx,
		"SELECT body FROM append_log WHERE stream = $1 ORDER BY seq ASC",
		l.stream,
	)
	if err != nil {
		return nil, fmt.Errorf("query stream %s: %w", l.stream, err)
	}
	defer rows.Close()

	var lines [][]byte
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan stream row: %w", err)
		}
		lines = append(lines, body)
	}
	return lines, rows.Err()
}
