// Package postgres persists completed cluster-test runs: parameters, null
// summary and per-cluster outcomes. The pointwise statistic map and per-point
// memberships stay in memory; consumers that need them hold the Result.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"clusterperm/domain/cluster"
	"clusterperm/internal/errors"
	"clusterperm/ports"
)

// ResultRepository stores runs in the cluster_runs/run_clusters tables
type ResultRepository struct {
	db *sqlx.DB
}

// NewResultRepository creates a new result repository
func NewResultRepository(db *sqlx.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

var _ ports.ResultRepository = (*ResultRepository)(nil)

// Save persists a run and its observed clusters in one transaction
func (r *ResultRepository) Save(ctx context.Context, res *cluster.Result) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.DatabaseError(fmt.Sprintf("failed to begin transaction: %v", err))
	}
	defer func() { _ = tx.Rollback() }()

	times, spaces := 0, 0
	if res.ObservedStat != nil {
		times, spaces = res.ObservedStat.Times(), res.ObservedStat.Spaces()
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO cluster_runs (
			run_id, created_at, threshold, tail, permutations, seed,
			times, spaces, min_detectable_p, h0,
			h0_mean, h0_stddev, h0_min, h0_max, h0_p95, h0_p99
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		res.RunID,
		res.CreatedAt,
		res.Threshold,
		res.Tail.String(),
		res.Permutations,
		res.Seed,
		times,
		spaces,
		res.MinDetectableP,
		pq.Array([]float64(res.H0)),
		res.H0Summary.Mean,
		res.H0Summary.StdDev,
		res.H0Summary.Min,
		res.H0Summary.Max,
		res.H0Summary.Percentile95,
		res.H0Summary.Percentile99,
	)
	if err != nil {
		return errors.DatabaseError(fmt.Sprintf("failed to insert run: %v", err))
	}

	for i := range res.Clusters {
		c := &res.Clusters[i]
		first, last := c.TimeSpan()
		pval := 1.0
		if i < len(res.PValues) {
			pval = res.PValues[i]
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO run_clusters (
				run_id, rank, size, summary, p_value, first_time, last_time, vertices
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			res.RunID, i, c.Size(), c.Summary, pval, first, last, len(c.Vertices()),
		)
		if err != nil {
			return errors.DatabaseError(fmt.Sprintf("failed to insert cluster %d: %v", i, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError(fmt.Sprintf("failed to commit run: %v", err))
	}
	return nil
}

// Get retrieves a persisted run with its cluster records
func (r *ResultRepository) Get(ctx context.Context, runID uuid.UUID) (*ports.RunRecord, error) {
	rec, err := r.scanRun(ctx, `
		SELECT run_id, created_at::text, threshold, tail, permutations, seed,
			   times, spaces, min_detectable_p,
			   h0_mean, h0_stddev, h0_min, h0_max, h0_p95, h0_p99
		FROM cluster_runs WHERE run_id = $1`, runID)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT rank, size, summary, p_value, first_time, last_time, vertices
		FROM run_clusters WHERE run_id = $1 ORDER BY rank`, runID)
	if err != nil {
		return nil, errors.DatabaseError(fmt.Sprintf("failed to query clusters: %v", err))
	}
	defer rows.Close()

	for rows.Next() {
		var c ports.ClusterRecord
		if err := rows.Scan(&c.Rank, &c.Size, &c.Summary, &c.PValue, &c.FirstTime, &c.LastTime, &c.Vertices); err != nil {
			return nil, errors.DatabaseError(fmt.Sprintf("failed to scan cluster: %v", err))
		}
		rec.Clusters = append(rec.Clusters, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError(fmt.Sprintf("cluster iteration failed: %v", err))
	}
	return rec, nil
}

// List returns the most recent runs, without their cluster records
func (r *ResultRepository) List(ctx context.Context, limit int) ([]*ports.RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT run_id, created_at::text, threshold, tail, permutations, seed,
			   times, spaces, min_detectable_p,
			   h0_mean, h0_stddev, h0_min, h0_max, h0_p95, h0_p99
		FROM cluster_runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, errors.DatabaseError(fmt.Sprintf("failed to list runs: %v", err))
	}
	defer rows.Close()

	var out []*ports.RunRecord
	for rows.Next() {
		rec, err := scanRunRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError(fmt.Sprintf("run iteration failed: %v", err))
	}
	return out, nil
}

func (r *ResultRepository) scanRun(ctx context.Context, query string, runID uuid.UUID) (*ports.RunRecord, error) {
	row := r.db.QueryRowContext(ctx, query, runID)
	rec := &ports.RunRecord{}
	err := row.Scan(
		&rec.RunID, &rec.CreatedAt, &rec.Threshold, &rec.Tail, &rec.Permutations, &rec.Seed,
		&rec.Times, &rec.Spaces, &rec.MinDetectableP,
		&rec.H0Summary.Mean, &rec.H0Summary.StdDev, &rec.H0Summary.Min,
		&rec.H0Summary.Max, &rec.H0Summary.Percentile95, &rec.H0Summary.Percentile99,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound(fmt.Sprintf("run %s", runID))
	}
	if err != nil {
		return nil, errors.DatabaseError(fmt.Sprintf("failed to scan run: %v", err))
	}
	return rec, nil
}

func scanRunRow(rows *sql.Rows) (*ports.RunRecord, error) {
	rec := &ports.RunRecord{}
	err := rows.Scan(
		&rec.RunID, &rec.CreatedAt, &rec.Threshold, &rec.Tail, &rec.Permutations, &rec.Seed,
		&rec.Times, &rec.Spaces, &rec.MinDetectableP,
		&rec.H0Summary.Mean, &rec.H0Summary.StdDev, &rec.H0Summary.Min,
		&rec.H0Summary.Max, &rec.H0Summary.Percentile95, &rec.H0Summary.Percentile99,
	)
	if err != nil {
		return nil, errors.DatabaseError(fmt.Sprintf("failed to scan run: %v", err))
	}
	return rec, nil
}
