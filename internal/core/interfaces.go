// Package core defines the ports (repository interfaces) between the service
// layer and the data layer. Service implementations depend on these
// interfaces, never on concrete adapters.
package core

import (
	"context"
	"time"

	"github.com/resellkit/ops-api/internal/domain/model"
)

// UpdateJobProgressParams groups parameters for JobRepository.UpdateProgress.
type UpdateJobProgressParams struct {
	ID       string
	Progress int
	Status   model.JobStatus
}

// CompleteJobParams groups parameters for JobRepository.Complete.
type CompleteJobParams struct {
	ID     string
	Result []byte
}

// JobRepository defines the interface for job data operations.
//
// Mutations must be guarded in the adapter so a terminal row is never
// rewritten: UpdateProgress only applies to live rows, Complete/Fail only
// apply to live rows or re-apply the identical terminal state.
type JobRepository interface {
	Create(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error)
	GetByID(ctx context.Context, id string) (*model.Job, error)
	UpdateProgress(ctx context.Context, params UpdateJobProgressParams) (*model.Job, error)
	Complete(ctx context.Context, params CompleteJobParams) (*model.Job, error)
	Fail(ctx context.Context, id, errMsg string) (*model.Job, error)
	Stats(ctx context.Context) (*model.JobStats, error)
	List(ctx context.Context, opts model.JobListOptions) ([]*model.Job, error)
}

// CreateSessionParams groups parameters for ValidationSessionRepository.Create.
type CreateSessionParams struct {
	OwnerID   string
	ItemCount int
}

// UpdateSessionParams carries a telemetry update for a running session.
type UpdateSessionParams struct {
	ID                        string
	Status                    model.ValidationStatus
	Progress                  int
	Message                   string
	ElapsedSeconds            float64
	EstimatedRemainingSeconds float64
}

// FinishSessionParams carries the terminal mutation for a session.
type FinishSessionParams struct {
	ID             string
	Status         model.ValidationStatus
	ElapsedSeconds float64
	Summary        *model.ValidationSummary
	ErrMsg         string
}

// ValidationSessionRepository defines the interface for validation session data operations.
type ValidationSessionRepository interface {
	Create(ctx context.Context, params CreateSessionParams) (*model.ValidationSession, error)
	GetByID(ctx context.Context, id string) (*model.ValidationSession, error)
	Update(ctx context.Context, params UpdateSessionParams) (*model.ValidationSession, error)
	Finish(ctx context.Context, params FinishSessionParams) (*model.ValidationSession, error)
}

// ValidationReportRepository defines the interface for the full report artifact,
// stored separately from the session row it belongs to.
type ValidationReportRepository interface {
	Upsert(ctx context.Context, report *model.ValidationReport) error
	GetBySessionID(ctx context.Context, sessionID string) (*model.ValidationReport, error)
}

// ReaperRepository defines the interface for retention cleanup operations.
type ReaperRepository interface {
	// DeleteTerminalJobs deletes completed/failed jobs older than maxAge,
	// up to batchSize rows per call to keep locks short. Returns rows deleted.
	DeleteTerminalJobs(ctx context.Context, maxAge time.Duration, batchSize int) (int64, error)

	// DeleteTerminalSessions deletes terminal validation sessions (and their
	// reports, via FK cascade) older than maxAge. Returns rows deleted.
	DeleteTerminalSessions(ctx context.Context, maxAge time.Duration, batchSize int) (int64, error)
}
