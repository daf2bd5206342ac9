package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/resellkit/ops-api/internal/data/pgxutil"
)

// Advisory lock namespace for reaper operations.
// Using two-arg pg_try_advisory_xact_lock(major, minor) for proper namespacing.
const (
	advisoryLockReaperMajor          = 1000
	advisoryLockReaperDeleteJobs     = 1 // minor key for DeleteTerminalJobs
	advisoryLockReaperDeleteSessions = 2 // minor key for DeleteTerminalSessions
)

// ReaperRepo performs retention cleanup over terminal jobs and validation
// sessions. Sweeps are batched and advisory-locked so concurrent reaper
// instances never contend on the same delete.
type ReaperRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewReaperRepo creates a new ReaperRepo instance with the given database connection and configuration.
func NewReaperRepo(db *sql.DB, cfg RepoConfig) *ReaperRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	return &ReaperRepo{DB: db, timeProvider: tp}
}

// DeleteTerminalJobs deletes completed and failed jobs whose last update is
// older than maxAge. Processes up to batchSize rows per call to prevent long
// locks and I/O spikes. Returns the number of jobs deleted.
func (r *ReaperRepo) DeleteTerminalJobs(ctx context.Context, maxAge time.Duration, batchSize int) (int64, error) {
	return r.lockedBatchDelete(ctx, lockedBatchDeleteParams{
		lockMinor: advisoryLockReaperDeleteJobs,
		maxAge:    maxAge,
		batchSize: batchSize,
		query: `
			DELETE FROM jobs
			WHERE id IN (
				SELECT id FROM jobs
				WHERE status IN ('completed', 'failed')
				  AND updated_at < $1
				ORDER BY updated_at
				LIMIT $2
			)
		`,
	})
}

// DeleteTerminalSessions deletes completed and failed validation sessions
// older than maxAge. Their reports go with them via the FK cascade.
func (r *ReaperRepo) DeleteTerminalSessions(ctx context.Context, maxAge time.Duration, batchSize int) (int64, error) {
	return r.lockedBatchDelete(ctx, lockedBatchDeleteParams{
		lockMinor: advisoryLockReaperDeleteSessions,
		maxAge:    maxAge,
		batchSize: batchSize,
		query: `
			DELETE FROM validation_sessions
			WHERE id IN (
				SELECT id FROM validation_sessions
				WHERE status IN ('completed', 'failed')
				  AND updated_at < $1
				ORDER BY updated_at
				LIMIT $2
			)
		`,
	})
}

type lockedBatchDeleteParams struct {
	lockMinor int
	maxAge    time.Duration
	batchSize int
	query     string
}

func (r *ReaperRepo) lockedBatchDelete(ctx context.Context, params lockedBatchDeleteParams) (int64, error) {
	if params.batchSize <= 0 {
		return 0, errors.New("batch size must be greater than zero")
	}
	if params.maxAge <= 0 {
		return 0, errors.New("max age must be greater than zero")
	}

	var rowsAffected int64
	err := pgxutil.WithSQLTx(ctx, r.DB, pgxutil.SQLTxConfig{
		Fn: func(tx *sql.Tx) error {
			var locked bool
			if err := tx.QueryRowContext(ctx, "SELECT pg_try_advisory_xact_lock($1, $2)", advisoryLockReaperMajor, params.lockMinor).Scan(&locked); err != nil {
				return fmt.Errorf("acquire advisory lock: %w", err)
			}
			if !locked {
				rowsAffected = 0
				return nil
			}

			cutoffTime := r.timeProvider.Now().Add(-params.maxAge).UTC()

			res, err := tx.ExecContext(ctx, params.query, cutoffTime, params.batchSize)
			if err != nil {
				return fmt.Errorf("batch delete: %w", err)
			}

			ra, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("rows affected: %w", err)
			}
			rowsAffected = ra
			return nil
		},
	})
	if err != nil {
		return 0, err
	}
	return rowsAffected, nil
}
