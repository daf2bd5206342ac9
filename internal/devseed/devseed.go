// Package devseed populates a development database with representative jobs
// and validation sessions so dashboards and the operator CLI have data to show
// without driving the API first.
package devseed

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/resellkit/ops-api/internal/core"
	"github.com/resellkit/ops-api/internal/data"
	"github.com/resellkit/ops-api/internal/domain/model"
)

const seedOwner = "dev-user"

// Repos bundles the repositories needed for development seeding.
type Repos struct {
	Jobs     core.JobRepository
	Sessions core.ValidationSessionRepository
	Reports  core.ValidationReportRepository
}

// NewRepos constructs the repositories for seeding from the provided DB.
func NewRepos(db *sql.DB) Repos {
	return Repos{
		Jobs:     data.NewJobRepo(db, data.RepoConfig{}),
		Sessions: data.NewSessionRepo(db, data.RepoConfig{}),
		Reports:  data.NewReportRepo(db, data.RepoConfig{}),
	}
}

// Run seeds jobs in every lifecycle state plus one finished validation
// session with its report. Seeding is additive; running it twice produces a
// second batch of rows rather than failing.
func Run(ctx context.Context, repos Repos, logger *slog.Logger) error {
	failures := 0
	failures += seedJobs(ctx, repos.Jobs, logger)

	if err := seedValidationSession(ctx, repos, logger); err != nil {
		return err
	}

	if failures > 0 {
		return fmt.Errorf("%d seed errors; check logs", failures)
	}
	return nil
}

type jobSeed struct {
	Type     model.JobType
	Progress int
	Result   string
	ErrMsg   string
}

func seedJobs(ctx context.Context, jobs core.JobRepository, logger *slog.Logger) int {
	seeds := []jobSeed{
		{Type: model.JobTypeSync},
		{Type: model.JobTypeScrape, Progress: 45},
		{Type: model.JobTypeExport, Result: `{"rows_exported": 1200, "format": "csv"}`},
		{Type: model.JobTypeSync, ErrMsg: "upstream returned 503 during inventory fetch"},
	}

	failures := 0
	for _, seed := range seeds {
		if err := seedOneJob(ctx, jobs, seed); err != nil {
			failures++
			if logger != nil {
				logger.WarnContext(ctx, "failed to seed job", "type", seed.Type, "error", err)
			}
			continue
		}
		if logger != nil {
			logger.InfoContext(ctx, "seeded job", "type", seed.Type)
		}
	}
	return failures
}

func seedOneJob(ctx context.Context, jobs core.JobRepository, seed jobSeed) error {
	job, err := jobs.Create(ctx, &model.CreateJobRequest{Type: seed.Type, OwnerID: seedOwner})
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}

	switch {
	case seed.Result != "":
		if _, err = jobs.Complete(ctx, core.CompleteJobParams{ID: job.ID, Result: []byte(seed.Result)}); err != nil {
			return fmt.Errorf("complete: %w", err)
		}
	case seed.ErrMsg != "":
		if _, err = jobs.Fail(ctx, job.ID, seed.ErrMsg); err != nil {
			return fmt.Errorf("fail: %w", err)
		}
	case seed.Progress > 0:
		_, err = jobs.UpdateProgress(ctx, core.UpdateJobProgressParams{
			ID:       job.ID,
			Progress: seed.Progress,
			Status:   model.StatusForProgress(job.Status, seed.Progress),
		})
		if err != nil {
			return fmt.Errorf("update progress: %w", err)
		}
	}
	return nil
}

func seedValidationSession(ctx context.Context, repos Repos, logger *slog.Logger) error {
	session, err := repos.Sessions.Create(ctx, core.CreateSessionParams{
		OwnerID:   seedOwner,
		ItemCount: 2,
	})
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	_, err = repos.Sessions.Finish(ctx, core.FinishSessionParams{
		ID:             session.ID,
		Status:         model.ValidationStatusCompleted,
		ElapsedSeconds: 4.2,
		Summary:        &model.ValidationSummary{TestsRun: 2, TestsPassed: 2, Success: true},
	})
	if err != nil {
		return fmt.Errorf("finish session: %w", err)
	}

	report := &model.ValidationReport{
		SessionID: session.ID,
		ItemResults: []model.ItemResult{
			{ItemID: "item-demo-1", Name: "Vintage camera", Passed: true, Duration: 1.8},
			{ItemID: "item-demo-2", Name: "Record player", Passed: true, Duration: 2.1},
		},
		Integrity:       &model.IntegrityCheckResult{Checked: 2, Mismatches: []string{}, Passed: true},
		Recommendations: []string{"All listings verified; no action needed"},
	}
	if err = repos.Reports.Upsert(ctx, report); err != nil {
		return fmt.Errorf("upsert report: %w", err)
	}

	if logger != nil {
		logger.InfoContext(ctx, "seeded validation session", "session_id", session.ID)
	}
	return nil
}
