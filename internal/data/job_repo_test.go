package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resellkit/ops-api/internal/core"
	"github.com/resellkit/ops-api/internal/domain/model"
	apperrors "github.com/resellkit/ops-api/internal/errors"
	"github.com/resellkit/ops-api/internal/testutil"
)

func mustCreateJob(t *testing.T, repo *JobRepo, req *model.CreateJobRequest) *model.Job {
	t.Helper()
	job, err := repo.Create(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, job)
	return job
}

func TestJobRepo_Create(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	tests := []struct {
		name    string
		req     *model.CreateJobRequest
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid sync job",
			req:     testutil.NewJobRequest().Build(),
			wantErr: false,
		},
		{
			name:    "valid export job",
			req:     testutil.NewJobRequest().WithType(model.JobTypeExport).WithOwner("user-2").Build(),
			wantErr: false,
		},
		{
			name:    "invalid job type",
			req:     &model.CreateJobRequest{Type: "invalid", OwnerID: "user-1"},
			wantErr: true,
			errMsg:  "invalid job type",
		},
		{
			name:    "missing owner",
			req:     &model.CreateJobRequest{Type: model.JobTypeSync},
			wantErr: true,
			errMsg:  "owner id is required",
		},
	}

	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewJobRepo(db, RepoConfig{})

		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				job, err := repo.Create(context.Background(), tc.req)
				if tc.wantErr {
					require.Error(t, err)
					assert.Contains(t, err.Error(), tc.errMsg)
					return
				}

				require.NoError(t, err)
				require.NotNil(t, job)
				assert.NotEmpty(t, job.ID)
				assert.Equal(t, tc.req.OwnerID, job.OwnerID)
				assert.Equal(t, model.JobStatusPending, job.Status)
				assert.Equal(t, 0, job.Progress)
				assert.Nil(t, job.LastError)
				assert.Nil(t, job.Result)
			})
		}
	})
}

func TestJobRepo_GetByID(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewJobRepo(db, RepoConfig{})

		created := mustCreateJob(t, repo, testutil.NewJobRequest().Build())

		got, err := repo.GetByID(context.Background(), created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, created.OwnerID, got.OwnerID)

		_, err = repo.GetByID(context.Background(), "00000000-0000-0000-0000-000000000000")
		assert.ErrorIs(t, err, ErrJobNotFound)
	})
}

func TestJobRepo_UpdateProgress(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewJobRepo(db, RepoConfig{})

		job := mustCreateJob(t, repo, testutil.NewJobRequest().Build())

		updated, err := repo.UpdateProgress(context.Background(), core.UpdateJobProgressParams{
			ID:       job.ID,
			Progress: 40,
			Status:   model.StatusForProgress(job.Status, 40),
		})
		require.NoError(t, err)
		assert.Equal(t, 40, updated.Progress)
		assert.Equal(t, model.JobStatusProcessing, updated.Status)

		t.Run("progress cannot decrease", func(t *testing.T) {
			_, err := repo.UpdateProgress(context.Background(), core.UpdateJobProgressParams{
				ID:       job.ID,
				Progress: 20,
				Status:   model.JobStatusProcessing,
			})
			assert.ErrorIs(t, err, ErrProgressDecreased)
		})

		t.Run("equal progress is allowed", func(t *testing.T) {
			again, err := repo.UpdateProgress(context.Background(), core.UpdateJobProgressParams{
				ID:       job.ID,
				Progress: 40,
				Status:   model.JobStatusProcessing,
			})
			require.NoError(t, err)
			assert.Equal(t, 40, again.Progress)
		})

		t.Run("out of range progress rejected", func(t *testing.T) {
			_, err := repo.UpdateProgress(context.Background(), core.UpdateJobProgressParams{
				ID:       job.ID,
				Progress: 101,
				Status:   model.JobStatusProcessing,
			})
			require.Error(t, err)
			assert.Equal(t, "progress", apperrors.GetField(err))
		})

		t.Run("missing job", func(t *testing.T) {
			_, err := repo.UpdateProgress(context.Background(), core.UpdateJobProgressParams{
				ID:       "00000000-0000-0000-0000-000000000000",
				Progress: 10,
				Status:   model.JobStatusProcessing,
			})
			assert.ErrorIs(t, err, ErrJobNotFound)
		})
	})
}

func TestJobRepo_Complete(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewJobRepo(db, RepoConfig{})

		job := mustCreateJob(t, repo, testutil.NewJobRequest().Build())

		result := json.RawMessage(`{"synced": 12}`)
		completed, err := repo.Complete(context.Background(), core.CompleteJobParams{
			ID:     job.ID,
			Result: result,
		})
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusCompleted, completed.Status)
		assert.Equal(t, model.ProgressMax, completed.Progress)
		assert.JSONEq(t, string(result), string(completed.Result))
		assert.Nil(t, completed.LastError)

		t.Run("identical re-completion is a no-op overwrite", func(t *testing.T) {
			again, err := repo.Complete(context.Background(), core.CompleteJobParams{
				ID:     job.ID,
				Result: result,
			})
			require.NoError(t, err)
			assert.Equal(t, model.JobStatusCompleted, again.Status)
			assert.Equal(t, model.ProgressMax, again.Progress)
			assert.JSONEq(t, string(result), string(again.Result))
		})

		t.Run("completing again with a different result conflicts", func(t *testing.T) {
			_, err := repo.Complete(context.Background(), core.CompleteJobParams{ID: job.ID})
			assert.ErrorIs(t, err, ErrJobTerminal)
		})

		t.Run("terminal job cannot record progress", func(t *testing.T) {
			_, err := repo.UpdateProgress(context.Background(), core.UpdateJobProgressParams{
				ID:       job.ID,
				Progress: 100,
				Status:   model.JobStatusProcessing,
			})
			assert.ErrorIs(t, err, ErrJobTerminal)
		})

		t.Run("terminal job cannot be failed", func(t *testing.T) {
			_, err := repo.Fail(context.Background(), job.ID, "late failure")
			assert.ErrorIs(t, err, ErrJobTerminal)
		})
	})
}

func TestJobRepo_Fail(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewJobRepo(db, RepoConfig{})

		job := mustCreateJob(t, repo, testutil.NewJobRequest().Build())

		_, err := repo.UpdateProgress(context.Background(), core.UpdateJobProgressParams{
			ID:       job.ID,
			Progress: 60,
			Status:   model.JobStatusProcessing,
		})
		require.NoError(t, err)

		failed, err := repo.Fail(context.Background(), job.ID, "marketplace unreachable")
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusFailed, failed.Status)
		require.NotNil(t, failed.LastError)
		assert.Equal(t, "marketplace unreachable", *failed.LastError)
		// Failure freezes progress where the job got to.
		assert.Equal(t, 60, failed.Progress)

		t.Run("identical re-fail is a no-op overwrite", func(t *testing.T) {
			again, err := repo.Fail(context.Background(), job.ID, "marketplace unreachable")
			require.NoError(t, err)
			assert.Equal(t, model.JobStatusFailed, again.Status)
			require.NotNil(t, again.LastError)
			assert.Equal(t, "marketplace unreachable", *again.LastError)
		})

		t.Run("failing again with a different message conflicts", func(t *testing.T) {
			_, err := repo.Fail(context.Background(), job.ID, "a different failure")
			assert.ErrorIs(t, err, ErrJobTerminal)
		})
	})
}

func TestJobRepo_Stats(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewJobRepo(db, RepoConfig{})

		mustCreateJob(t, repo, testutil.NewJobRequest().Build())

		processing := mustCreateJob(t, repo, testutil.NewJobRequest().Build())
		_, err := repo.UpdateProgress(context.Background(), core.UpdateJobProgressParams{
			ID:       processing.ID,
			Progress: 10,
			Status:   model.JobStatusProcessing,
		})
		require.NoError(t, err)

		done := mustCreateJob(t, repo, testutil.NewJobRequest().Build())
		_, err = repo.Complete(context.Background(), core.CompleteJobParams{ID: done.ID})
		require.NoError(t, err)

		broken := mustCreateJob(t, repo, testutil.NewJobRequest().Build())
		_, err = repo.Fail(context.Background(), broken.ID, "boom")
		require.NoError(t, err)

		stats, err := repo.Stats(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Pending)
		assert.Equal(t, 1, stats.Processing)
		assert.Equal(t, 1, stats.Completed)
		assert.Equal(t, 1, stats.Failed)
	})
}

func TestJobRepo_List(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewJobRepo(db, RepoConfig{})

		for i := 0; i < 3; i++ {
			mustCreateJob(t, repo, testutil.NewJobRequest().WithOwner("alice").Build())
		}
		mustCreateJob(t, repo, testutil.NewJobRequest().WithOwner("bob").WithType(model.JobTypeExport).Build())

		t.Run("filter by owner", func(t *testing.T) {
			jobs, err := repo.List(context.Background(), model.JobListOptions{OwnerID: "alice"})
			require.NoError(t, err)
			assert.Len(t, jobs, 3)
		})

		t.Run("filter by type", func(t *testing.T) {
			exportType := model.JobTypeExport
			jobs, err := repo.List(context.Background(), model.JobListOptions{Type: &exportType})
			require.NoError(t, err)
			require.Len(t, jobs, 1)
			assert.Equal(t, "bob", jobs[0].OwnerID)
		})

		t.Run("limit and offset", func(t *testing.T) {
			jobs, err := repo.List(context.Background(), model.JobListOptions{OwnerID: "alice", Limit: 2})
			require.NoError(t, err)
			assert.Len(t, jobs, 2)

			rest, err := repo.List(context.Background(), model.JobListOptions{OwnerID: "alice", Limit: 2, Offset: 2})
			require.NoError(t, err)
			assert.Len(t, rest, 1)
		})
	})
}

func TestReaperRepo_DeleteTerminalJobs(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		start := testutil.TestTime()
		tp := NewFixedTimeProvider(start)
		repo := NewJobRepo(db, RepoConfig{TimeProvider: tp})
		reaper := NewReaperRepo(db, RepoConfig{TimeProvider: tp})

		old := mustCreateJob(t, repo, testutil.NewJobRequest().Build())
		_, err := repo.Complete(context.Background(), core.CompleteJobParams{ID: old.ID})
		require.NoError(t, err)

		live := mustCreateJob(t, repo, testutil.NewJobRequest().Build())

		tp.AddTime(48 * time.Hour)
		fresh := mustCreateJob(t, repo, testutil.NewJobRequest().Build())
		_, err = repo.Complete(context.Background(), core.CompleteJobParams{ID: fresh.ID})
		require.NoError(t, err)

		deleted, err := reaper.DeleteTerminalJobs(context.Background(), 24*time.Hour, 100)
		require.NoError(t, err)
		assert.Equal(t, int64(1), deleted)

		_, err = repo.GetByID(context.Background(), old.ID)
		assert.ErrorIs(t, err, ErrJobNotFound)

		// The pending job is never reaped regardless of age.
		_, err = repo.GetByID(context.Background(), live.ID)
		assert.NoError(t, err)
		_, err = repo.GetByID(context.Background(), fresh.ID)
		assert.NoError(t, err)

		t.Run("rejects bad parameters", func(t *testing.T) {
			_, err := reaper.DeleteTerminalJobs(context.Background(), 0, 100)
			assert.Error(t, err)
			_, err = reaper.DeleteTerminalJobs(context.Background(), time.Hour, 0)
			assert.Error(t, err)
		})
	})
}
