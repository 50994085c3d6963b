package repository

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// DB wraps the Postgres connection pool
type DB struct {
	*sql.DB
}

// NewDB opens and pings a Postgres database
func NewDB(ctx context.Context, databaseURL string) (*DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &DB{DB: db}, nil
}

const schema = `
	CREATE TABLE IF NOT EXISTS job_events (
		id          BIGSERIAL PRIMARY KEY,
		tenant      TEXT NOT NULL,
		run_id      TEXT NOT NULL,
		at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		from_state  TEXT,
		to_state    TEXT NOT NULL,
		reason      TEXT NOT NULL DEFAULT '',
		meta_json   JSONB NOT NULL DEFAULT '{}'
	);
	CREATE INDEX IF NOT EXISTS job_events_run_idx ON job_events (tenant, run_id, at);
`

// EnsureSchema creates the journal table when it does not exist yet
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create journal schema: %w", err)
	}
	return nil
}
