package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"billing-engine/internal/domain"
)

// JobStateRepository is the durable "last run" marker for periodic jobs. A
// database row, not a process-local flag, so reruns on the same calendar day
// stay no-ops even from a fresh process.
type JobStateRepository struct {
	db *sql.DB
}

func NewJobStateRepository(db *sql.DB) *JobStateRepository {
	return &JobStateRepository{db: db}
}

func (r *JobStateRepository) LastRun(ctx context.Context, name string) (*time.Time, error) {
	var lastRun time.Time
	err := r.db.QueryRowContext(ctx,
		`SELECT last_run FROM job_state WHERE name = $1`, name).Scan(&lastRun)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &domain.StoreError{Op: "job_state.last_run", Err: err}
	}
	return &lastRun, nil
}

func (r *JobStateRepository) MarkRun(ctx context.Context, name string, day time.Time) error {
	query := `INSERT INTO job_state (name, last_run) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET last_run = EXCLUDED.last_run`

	if _, err := r.db.ExecContext(ctx, query, name, day); err != nil {
		return &domain.StoreError{Op: "job_state.mark_run", Err: err}
	}
	return nil
}
