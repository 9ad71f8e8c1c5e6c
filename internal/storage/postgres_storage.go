package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"bookborrow-funnel/internal/logger"
)

// Schema expected by PostgresStore:
//
//	CREATE TABLE checkout_hints (
//	    hint_key   TEXT PRIMARY KEY,
//	    hint_value TEXT NOT NULL,
//	    expires_at TIMESTAMPTZ NOT NULL
//	);
type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostgresStore creates a hint store over an open database pool
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

// ConnectPostgres opens the pool and pings it
func ConnectPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// Put upserts or deletes every entry inside one transaction.
func (p *PostgresStore) Put(ctx context.Context, entries map[string]string, ttl time.Duration) error {
	upsert := `INSERT INTO checkout_hints (hint_key, hint_value, expires_at) VALUES ($1, $2, $3)
	           ON CONFLICT (hint_key) DO UPDATE SET hint_value = EXCLUDED.hint_value, expires_at = EXCLUDED.expires_at`
	remove := `DELETE FROM checkout_hints WHERE hint_key = $1`

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	expiresAt := p.now().Add(ttl)
	var rows int64
	for k, v := range entries {
		var res sql.Result
		if v == "" {
			logger.DatabaseCall("PutHints", remove, "key", k)
			res, err = tx.ExecContext(ctx, remove, k)
		} else {
			logger.DatabaseCall("PutHints", upsert, "key", k)
			res, err = tx.ExecContext(ctx, upsert, k, v, expiresAt)
		}
		if err != nil {
			logger.DatabaseResult("PutHints", rows, err)
			return err
		}
		n, _ := res.RowsAffected()
		rows += n
	}

	if err := tx.Commit(); err != nil {
		logger.DatabaseResult("PutHints", rows, err)
		return fmt.Errorf("failed to commit hints: %w", err)
	}
	logger.DatabaseResult("PutHints", rows, nil)
	return nil
}

// Take deletes the rows and returns their values in one statement, so two
// concurrent readers cannot both see a hint or split a set of them.
func (p *PostgresStore) Take(ctx context.Context, keys ...string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	query := `DELETE FROM checkout_hints WHERE hint_key = ANY($1) RETURNING hint_key, hint_value, expires_at`
	logger.DatabaseCall("TakeHints", query, "keys", keys)

	rows, err := p.db.QueryContext(ctx, query, pq.Array(keys))
	if err != nil {
		logger.DatabaseResult("TakeHints", 0, err)
		return nil, err
	}
	defer rows.Close()

	now := p.now()
	var taken int64
	for rows.Next() {
		var key, value string
		var expiresAt time.Time
		if err := rows.Scan(&key, &value, &expiresAt); err != nil {
			logger.DatabaseResult("TakeHints", taken, err)
			return nil, err
		}
		taken++
		if now.Before(expiresAt) {
			out[key] = value
		}
	}
	if err := rows.Err(); err != nil {
		logger.DatabaseResult("TakeHints", taken, err)
		return nil, err
	}
	logger.DatabaseResult("TakeHints", taken, nil)
	return out, nil
}

// Sweep deletes rows whose expiry has passed
func (p *PostgresStore) Sweep(ctx context.Context) (int64, error) {
	query := `DELETE FROM checkout_hints WHERE expires_at <= $1`
	logger.DatabaseCall("SweepHints", query)
	res, err := p.db.ExecContext(ctx, query, p.now())
	if err != nil {
		logger.DatabaseResult("SweepHints", 0, err)
		return 0, err
	}
	rows, err := res.RowsAffected()
	logger.DatabaseResult("SweepHints", rows, err)
	return rows, err
}
