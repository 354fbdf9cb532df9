package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"clusterperm/internal/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS cluster_runs (
	run_id            UUID PRIMARY KEY,
	created_at        TIMESTAMPTZ NOT NULL,
	threshold         DOUBLE PRECISION NOT NULL,
	tail              TEXT NOT NULL,
	permutations      INTEGER NOT NULL,
	seed              BIGINT NOT NULL,
	times             INTEGER NOT NULL,
	spaces            INTEGER NOT NULL,
	min_detectable_p  DOUBLE PRECISION NOT NULL,
	h0                DOUBLE PRECISION[] NOT NULL,
	h0_mean           DOUBLE PRECISION NOT NULL,
	h0_stddev         DOUBLE PRECISION NOT NULL,
	h0_min            DOUBLE PRECISION NOT NULL,
	h0_max            DOUBLE PRECISION NOT NULL,
	h0_p95            DOUBLE PRECISION NOT NULL,
	h0_p99            DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS run_clusters (
	run_id      UUID NOT NULL REFERENCES cluster_runs(run_id) ON DELETE CASCADE,
	rank        INTEGER NOT NULL,
	size        INTEGER NOT NULL,
	summary     DOUBLE PRECISION NOT NULL,
	p_value     DOUBLE PRECISION NOT NULL,
	first_time  INTEGER NOT NULL,
	last_time   INTEGER NOT NULL,
	vertices    INTEGER NOT NULL,
	PRIMARY KEY (run_id, rank)
);

CREATE INDEX IF NOT EXISTS run_clusters_p_value_idx ON run_clusters (p_value);
`

// Migrate creates the result-store tables if they do not exist
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return errors.DatabaseError(fmt.Sprintf("schema migration failed: %v", err))
	}
	return nil
}

// Connect opens and pings a postgres connection
func Connect(ctx context.Context, url string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", url)
	if err != nil {
		return nil, errors.DatabaseError(fmt.Sprintf("failed to open database: %v", err))
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.DatabaseError(fmt.Sprintf("failed to ping database: %v", err))
	}
	return db, nil
}
