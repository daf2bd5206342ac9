// Package service contains the business logic between the HTTP layer and the
// repositories: authorization, state machine rules, event fan-out and metrics.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/resellkit/ops-api/internal/core"
	"github.com/resellkit/ops-api/internal/data"
	domainjob "github.com/resellkit/ops-api/internal/domain/job"
	"github.com/resellkit/ops-api/internal/domain/model"
	apperrors "github.com/resellkit/ops-api/internal/errors"
	"github.com/resellkit/ops-api/internal/observability/metrics"
	"github.com/resellkit/ops-api/internal/observability/statsd"
)

// JobServiceOptions groups dependencies for JobService.
type JobServiceOptions struct {
	Repo    core.JobRepository // Required: job repository
	Bus     *domainjob.Bus     // Optional: per-job event fan-out for watchers
	Logger  *slog.Logger       // Optional: structured logger
	Metrics statsd.Sink        // Optional: metrics sink (StatsD-compatible)
}

// JobService provides business logic for tracked asynchronous operations.
//
// This service manages:
// - Job creation and owner-scoped reads
// - The progress/status state machine (terminal protection, monotonic progress)
// - Per-job event fan-out so watchers see lifecycle transitions
// - Lifecycle metrics.
type JobService struct {
	repo    core.JobRepository
	bus     *domainjob.Bus
	logger  *slog.Logger
	metrics statsd.Sink
	locks   keyedMutex
}

// NewJobService constructs a new JobService.
func NewJobService(opts JobServiceOptions) (*JobService, error) {
	if opts.Repo == nil {
		return nil, errors.New("JobRepository is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "job_service")
	}

	return &JobService{
		repo:    opts.Repo,
		bus:     opts.Bus,
		logger:  logger,
		metrics: opts.Metrics,
	}, nil
}

// MustNewJobService constructs a new JobService and panics on error.
// Use this when you're certain the options are valid (e.g., in main.go).
func MustNewJobService(opts JobServiceOptions) *JobService {
	svc, err := NewJobService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create JobService: %v", err))
	}
	return svc
}

// Create creates a new job owned by the requester.
func (s *JobService) Create(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error) {
	if req == nil {
		return nil, apperrors.Validation("create job request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	job, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, translateJobErr(err)
	}

	if s.logger != nil {
		s.logger.DebugContext(ctx, "job created",
			"id", job.ID,
			"type", job.Type,
			"owner_id", job.OwnerID,
		)
	}

	s.publish(job)
	metrics.EmitJobLifecycle(s.metrics, metrics.JobMetric{
		JobType:    string(job.Type),
		Transition: "created",
		Result:     metrics.ResultSuccess,
	})

	return job, nil
}

// Get returns a job after checking it belongs to the requester. A missing job
// is reported as not found before ownership is considered, so callers cannot
// distinguish "someone else's job" from a real one by probing ids they know
// exist.
func (s *JobService) Get(ctx context.Context, id, requesterID string) (*model.Job, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, translateJobErr(err)
	}
	if job.OwnerID != requesterID {
		return nil, apperrors.Unauthorized("job belongs to another user")
	}
	return job, nil
}

// UpdateJobProgressRequest carries one progress update.
type UpdateJobProgressRequest struct {
	ID          string
	RequesterID string
	Progress    int
}

// UpdateProgress records a progress value on a live job owned by the requester.
func (s *JobService) UpdateProgress(ctx context.Context, req UpdateJobProgressRequest) (*model.Job, error) {
	if !model.ValidProgress(req.Progress) {
		return nil, apperrors.ValidationField("progress", "progress must be between 0 and 100")
	}

	unlock := s.locks.Lock(req.ID)
	defer unlock()

	job, err := s.Get(ctx, req.ID, req.RequesterID)
	if err != nil {
		return nil, err
	}
	if job.Status.Terminal() {
		return nil, apperrors.Conflictf("job is already %s", job.Status)
	}
	if req.Progress < job.Progress {
		return nil, apperrors.Conflictf("progress cannot decrease from %d to %d", job.Progress, req.Progress)
	}

	updated, err := s.repo.UpdateProgress(ctx, core.UpdateJobProgressParams{
		ID:       req.ID,
		Progress: req.Progress,
		Status:   model.StatusForProgress(job.Status, req.Progress),
	})
	if err != nil {
		return nil, translateJobErr(err)
	}

	if s.logger != nil {
		s.logger.DebugContext(ctx, "job progress updated",
			"id", updated.ID,
			"progress", updated.Progress,
			"status", updated.Status,
		)
	}

	s.publish(updated)
	return updated, nil
}

// CompleteJobRequest carries the success terminal transition.
type CompleteJobRequest struct {
	ID          string
	RequesterID string
	Result      json.RawMessage
}

// Complete marks a live job owned by the requester as completed.
func (s *JobService) Complete(ctx context.Context, req CompleteJobRequest) (*model.Job, error) {
	start := time.Now()

	unlock := s.locks.Lock(req.ID)
	defer unlock()

	job, err := s.Get(ctx, req.ID, req.RequesterID)
	if err != nil {
		return nil, err
	}
	// A completed job may be completed again with the identical result; the
	// repo predicate treats that as a harmless overwrite. Only the opposite
	// terminal state is a hard conflict.
	if job.Status == model.JobStatusFailed {
		return nil, apperrors.Conflictf("job is already %s", job.Status)
	}

	completed, err := s.repo.Complete(ctx, core.CompleteJobParams{
		ID:     req.ID,
		Result: req.Result,
	})
	if err != nil {
		metrics.EmitJobLifecycle(s.metrics, metrics.JobMetric{
			JobType:    string(job.Type),
			Transition: "completed",
			Result:     metrics.ResultError,
			Err:        err,
		})
		return nil, translateJobErr(err)
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "job completed",
			"id", completed.ID,
			"type", completed.Type,
			"lifetime", time.Since(completed.CreatedAt).Round(time.Millisecond),
		)
	}

	s.publish(completed)
	metrics.EmitJobLifecycle(s.metrics, metrics.JobMetric{
		JobType:    string(completed.Type),
		Transition: "completed",
		Result:     metrics.ResultSuccess,
		Duration:   time.Since(start),
	})
	return completed, nil
}

// FailJobRequest carries the failure terminal transition.
type FailJobRequest struct {
	ID          string
	RequesterID string
	ErrMsg      string
}

// Fail marks a live job owned by the requester as failed.
func (s *JobService) Fail(ctx context.Context, req FailJobRequest) (*model.Job, error) {
	if req.ErrMsg == "" {
		return nil, apperrors.ValidationField("error", "error message is required")
	}

	unlock := s.locks.Lock(req.ID)
	defer unlock()

	job, err := s.Get(ctx, req.ID, req.RequesterID)
	if err != nil {
		return nil, err
	}
	// Re-failing with the identical message is a harmless overwrite, handled
	// by the repo predicate. Only a completed job is a hard conflict.
	if job.Status == model.JobStatusCompleted {
		return nil, apperrors.Conflictf("job is already %s", job.Status)
	}

	failed, err := s.repo.Fail(ctx, req.ID, req.ErrMsg)
	if err != nil {
		return nil, translateJobErr(err)
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "job failed",
			"id", failed.ID,
			"type", failed.Type,
			"error", req.ErrMsg,
		)
	}

	s.publish(failed)
	metrics.EmitJobLifecycle(s.metrics, metrics.JobMetric{
		JobType:    string(failed.Type),
		Transition: "failed",
		Result:     metrics.ResultSuccess,
	})
	return failed, nil
}

// Result returns the result document of a completed job owned by the requester.
func (s *JobService) Result(ctx context.Context, id, requesterID string) (json.RawMessage, error) {
	job, err := s.Get(ctx, id, requesterID)
	if err != nil {
		return nil, err
	}
	if job.Status != model.JobStatusCompleted {
		return nil, apperrors.Conflictf("job is %s, result is only available once completed", job.Status)
	}
	return job.Result, nil
}

// Stats returns counts of jobs in each status.
func (s *JobService) Stats(ctx context.Context) (*model.JobStats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, translateJobErr(err)
	}
	return stats, nil
}

// List returns the requester's jobs, newest first.
func (s *JobService) List(ctx context.Context, opts model.JobListOptions) ([]*model.Job, error) {
	if opts.OwnerID == "" {
		return nil, apperrors.Validation("owner id is required")
	}
	jobs, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, translateJobErr(err)
	}
	return jobs, nil
}

// Watch subscribes the requester to lifecycle events for one of their jobs.
// The first event arrives on the next transition; the caller reads the
// current state from the returned snapshot.
func (s *JobService) Watch(ctx context.Context, id, requesterID string) (*model.Job, func(), <-chan domainjob.Event, error) {
	job, err := s.Get(ctx, id, requesterID)
	if err != nil {
		return nil, nil, nil, err
	}

	if s.bus == nil {
		ch := make(chan domainjob.Event)
		close(ch)
		return job, func() {}, ch, nil
	}

	cancel, events := s.bus.Subscribe(id)
	return job, cancel, events, nil
}

func (s *JobService) publish(job *model.Job) {
	if s.bus != nil {
		s.bus.Publish(job)
	}
}

// translateJobErr maps data-layer sentinels onto the API error taxonomy.
func translateJobErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, data.ErrJobNotFound):
		return apperrors.NotFound("job not found")
	case errors.Is(err, data.ErrJobTerminal):
		return apperrors.Conflict("job is in a terminal status")
	case errors.Is(err, data.ErrProgressDecreased):
		return apperrors.Conflict("progress cannot decrease")
	default:
		return err
	}
}

// keyedMutex serialises mutations per job id so concurrent writers observe a
// consistent read-check-write sequence without one global lock.
type keyedMutex struct {
	mu      sync.Mutex
	entries map[string]*keyedMutexEntry
}

type keyedMutexEntry struct {
	mu   sync.Mutex
	refs int
}

// Lock acquires the mutex for key and returns the release function.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	if k.entries == nil {
		k.entries = make(map[string]*keyedMutexEntry)
	}
	entry, ok := k.entries[key]
	if !ok {
		entry = &keyedMutexEntry{}
		k.entries[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.entries, key)
		}
		k.mu.Unlock()
	}
}
