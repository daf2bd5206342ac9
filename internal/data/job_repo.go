package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/resellkit/ops-api/internal/core"
	"github.com/resellkit/ops-api/internal/data/database"
	"github.com/resellkit/ops-api/internal/data/pgxutil"
	"github.com/resellkit/ops-api/internal/domain/model"
	apperrors "github.com/resellkit/ops-api/internal/errors"
)

// RepoConfig holds configuration options shared by the Postgres repositories.
type RepoConfig struct {
	Logger       *slog.Logger
	TimeProvider TimeProvider
}

// JobRepo provides database operations for job tracking.
type JobRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewJobRepo creates a new JobRepo instance with the given database connection and configuration.
func NewJobRepo(db *sql.DB, cfg RepoConfig) *JobRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}

	return &JobRepo{
		DB:           db,
		timeProvider: tp,
		logger:       cfg.Logger,
	}
}

const jobColumns = `
  id,
  owner_id,
  type,
  status,
  progress,
  result,
  last_error,
  created_at,
  updated_at
`

// liveStatuses is the SQL predicate guarding every mutation: terminal rows
// are never rewritten, except that Complete and Fail may re-apply the
// identical terminal state as a no-op overwrite.
const liveStatuses = `('pending', 'processing')`

type jobRowScanner interface {
	Scan(dest ...any) error
}

type jobRowData struct {
	result    []byte
	lastError sql.NullString
}

func (d *jobRowData) scanInto(scanner jobRowScanner, job *model.Job) error {
	return scanner.Scan(
		&job.ID,
		&job.OwnerID,
		&job.Type,
		&job.Status,
		&job.Progress,
		&d.result,
		&d.lastError,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
}

func (d *jobRowData) apply(job *model.Job) {
	if len(d.result) > 0 {
		job.Result = append(json.RawMessage(nil), d.result...)
	}
	job.LastError = cloneNullableString(d.lastError)
}

func scanJobFromRow(scanner jobRowScanner) (*model.Job, error) {
	job := &model.Job{}
	var data jobRowData
	if err := data.scanInto(scanner, job); err != nil {
		return nil, err
	}

	data.apply(job)
	return job, nil
}

// collectJobFromRows collects a single job from pgx rows.
func collectJobFromRows(rows pgx.Rows) (*model.Job, error) {
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, pgx.ErrNoRows
	}

	job, err := scanJobFromRow(rows)
	if err != nil {
		return nil, err
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, rowsErr
	}

	return job, nil
}

func cloneNullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// Create inserts a new job in pending status with zero progress.
func (r *JobRepo) Create(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error) {
	if req == nil {
		return nil, errors.New("create job request is required")
	}
	if validateErr := req.Validate(); validateErr != nil {
		return nil, apperrors.Validation(validateErr.Error())
	}

	currentTime := r.timeProvider.Now().UTC()

	var job *model.Job
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, queryErr := pgxConn.Query(ctx, `
			INSERT INTO jobs (id, owner_id, type, status, progress, created_at, updated_at)
			VALUES ($1, $2, $3, 'pending', 0, $4, $4)
			RETURNING `+jobColumns,
			uuid.NewString(), req.OwnerID, req.Type, currentTime,
		)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()
		var collectErr error
		job, collectErr = collectJobFromRows(rows)
		return collectErr
	})
	if err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("insert job: %w", err))
	}

	return job, nil
}

// GetByID retrieves a job by its ID.
func (r *JobRepo) GetByID(ctx context.Context, id string) (*model.Job, error) {
	var job *model.Job
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, queryErr := pgxConn.Query(ctx, `
			SELECT `+jobColumns+`
			FROM jobs
			WHERE id = $1
		`, id)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()
		var collectErr error
		job, collectErr = collectJobFromRows(rows)
		return collectErr
	})

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("get job: %w", err))
	}
	return job, nil
}

// UpdateProgress records a progress value on a live job. The WHERE predicate
// enforces both invariants server-side: terminal rows are untouched and
// progress never moves backwards, even if two writers race past the service
// layer's own check.
func (r *JobRepo) UpdateProgress(ctx context.Context, params core.UpdateJobProgressParams) (*model.Job, error) {
	if !model.ValidProgress(params.Progress) {
		return nil, apperrors.ValidationField("progress", "progress must be between 0 and 100")
	}
	if !params.Status.Valid() {
		return nil, apperrors.ValidationField("status", fmt.Sprintf("invalid status %q", params.Status))
	}

	currentTime := r.timeProvider.Now().UTC()

	row := r.DB.QueryRowContext(ctx, `
		UPDATE jobs
		SET progress = $2,
		    status = $3,
		    updated_at = $4
		WHERE id = $1
		  AND status IN `+liveStatuses+`
		  AND progress <= $2
		RETURNING `+jobColumns,
		params.ID, params.Progress, params.Status, currentTime,
	)

	job, err := scanJobFromRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, r.classifyJobUpdateMiss(ctx, params.ID, params.Progress)
	}
	if err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("update job progress: %w", err))
	}
	return job, nil
}

// Complete marks a live job as completed with full progress and an optional result document.
func (r *JobRepo) Complete(ctx context.Context, params core.CompleteJobParams) (*model.Job, error) {
	currentTime := r.timeProvider.Now().UTC()

	result := params.Result
	if len(result) == 0 {
		result = []byte(`{}`)
	}

	// Live rows transition; a row already completed with the identical result
	// is overwritten in place so re-applying the same completion stays a
	// no-op instead of a conflict.
	row := r.DB.QueryRowContext(ctx, `
		UPDATE jobs
		SET status = 'completed',
		    progress = $3,
		    result = $2,
		    last_error = NULL,
		    updated_at = $4
		WHERE id = $1
		  AND (status IN `+liveStatuses+`
		       OR (status = 'completed' AND result IS NOT DISTINCT FROM $2::jsonb))
		RETURNING `+jobColumns,
		params.ID, result, model.ProgressMax, currentTime,
	)

	job, err := scanJobFromRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, r.classifyJobTerminalMiss(ctx, params.ID)
	}
	if err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("complete job: %w", err))
	}
	return job, nil
}

// Fail marks a live job as failed with the given error message. Progress is
// left wherever the job got to.
func (r *JobRepo) Fail(ctx context.Context, id, errMsg string) (*model.Job, error) {
	currentTime := r.timeProvider.Now().UTC()

	// Same overwrite rule as Complete: re-failing with the identical message
	// matches the already-failed row instead of missing the predicate.
	row := r.DB.QueryRowContext(ctx, `
		UPDATE jobs
		SET status = 'failed',
		    last_error = $2,
		    result = NULL,
		    updated_at = $3
		WHERE id = $1
		  AND (status IN `+liveStatuses+`
		       OR (status = 'failed' AND last_error = $2))
		RETURNING `+jobColumns,
		id, errMsg, currentTime,
	)

	job, err := scanJobFromRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, r.classifyJobTerminalMiss(ctx, id)
	}
	if err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("fail job: %w", err))
	}
	return job, nil
}

// classifyJobUpdateMiss distinguishes why a guarded progress update matched no
// rows: missing job, terminal job, or a progress value below the stored one.
func (r *JobRepo) classifyJobUpdateMiss(ctx context.Context, id string, progress int) error {
	job, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if job.Status.Terminal() {
		return ErrJobTerminal
	}
	if progress < job.Progress {
		return ErrProgressDecreased
	}
	return errors.New("unexpected state: live job matched no update predicate")
}

// classifyJobTerminalMiss explains a Complete/Fail that matched no rows: the
// job is terminal with a different payload or the opposite terminal status
// (the identical re-application matches the predicate and never gets here).
func (r *JobRepo) classifyJobTerminalMiss(ctx context.Context, id string) error {
	job, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if job.Status.Terminal() {
		return ErrJobTerminal
	}
	return errors.New("unexpected state: live job matched no update predicate")
}

// Stats returns counts of jobs in each status.
func (r *JobRepo) Stats(ctx context.Context) (*model.JobStats, error) {
	var s model.JobStats
	err := r.DB.QueryRowContext(ctx, `
  SELECT
    count(*) FILTER (WHERE status = 'pending')    AS pending,
    count(*) FILTER (WHERE status = 'processing') AS processing,
    count(*) FILTER (WHERE status = 'completed')  AS completed,
    count(*) FILTER (WHERE status = 'failed')     AS failed
  FROM jobs
  `).Scan(
		&s.Pending,
		&s.Processing,
		&s.Completed,
		&s.Failed,
	)
	if err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("get job stats: %w", err))
	}
	return &s, nil
}

const defaultListLimit = 50
const maxListLimit = 200

// List returns jobs matching the given filters, newest first.
func (r *JobRepo) List(ctx context.Context, opts model.JobListOptions) ([]*model.Job, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	conditions := []database.Condition{}
	if opts.OwnerID != "" {
		conditions = append(conditions, database.WhereCond("owner_id", database.Equal, opts.OwnerID))
	}
	if opts.Type != nil {
		conditions = append(conditions, database.WhereCond("type", database.Equal, *opts.Type))
	}
	if opts.Status != nil {
		conditions = append(conditions, database.WhereCond("status", database.Equal, *opts.Status))
	}

	query, args := database.BuildListQuery(database.NewListQueryOptions("jobs",
		database.WithColumns("id", "owner_id", "type", "status", "progress", "result", "last_error", "created_at", "updated_at"),
		database.WithConditions(conditions...),
		database.WithOrderBy("created_at", "DESC"),
		database.WithLimit(limit),
		database.WithOffset(offset),
	))

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("list jobs: %w", err))
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && r.logger != nil {
			r.logger.WarnContext(ctx, "close job list rows", "error", closeErr)
		}
	}()

	jobs := []*model.Job{}
	for rows.Next() {
		job, scanErr := scanJobFromRow(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan job row: %w", scanErr)
		}
		jobs = append(jobs, job)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("iterate job rows: %w", rowsErr))
	}

	return jobs, nil
}
