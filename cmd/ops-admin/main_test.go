package main

import (
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/resellkit/ops-api/internal/domain/model"
)

func captureStdout(t *testing.T, fn func() error) string {
	t.Helper()

	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)

	defer func() {
		os.Stdout = oldStdout
	}()

	os.Stdout = w
	fnErr := fn()

	require.NoError(t, w.Close())
	os.Stdout = oldStdout
	require.NoError(t, fnErr)

	output, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())

	return string(output)
}

func TestPrintProjectedAppliesQuery(t *testing.T) {
	job := &model.Job{
		ID:       "job-1",
		OwnerID:  "user-1",
		Type:     model.JobTypeSync,
		Status:   model.JobStatusProcessing,
		Progress: 40,
	}

	out := captureStdout(t, func() error {
		return printProjected(job, "join(':', [status, id])")
	})

	require.Contains(t, out, `"processing:job-1"`)
}

func TestPrintProjectedRejectsBadQuery(t *testing.T) {
	err := printProjected(map[string]any{"a": 1}, "][")
	require.Error(t, err)
	require.Contains(t, err.Error(), "apply query")
}

func TestPrintProjectedWithoutQueryRendersFullDocument(t *testing.T) {
	out := captureStdout(t, func() error {
		return printProjected(map[string]any{"session": map[string]any{"id": "sess-1"}}, "")
	})

	require.Contains(t, out, `"session"`)
	require.Contains(t, out, `"sess-1"`)
}

func TestPrintJobTableFormatsRows(t *testing.T) {
	updated := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	jobs := []*model.Job{
		{ID: "job-1", Type: model.JobTypeExport, Status: model.JobStatusCompleted, Progress: 100, UpdatedAt: updated},
		{ID: "job-2", Type: model.JobTypeScrape, Status: model.JobStatusPending, Progress: 0, UpdatedAt: updated},
	}

	out := captureStdout(t, func() error {
		return printJobTable(jobs)
	})

	require.Contains(t, out, "ID")
	require.Contains(t, out, "job-1")
	require.Contains(t, out, "100%")
	require.Contains(t, out, "2026-03-01T12:00:00Z")
}

func TestParseShowJobFlagsRequiresID(t *testing.T) {
	_, err := parseShowJobFlags(nil)
	require.Error(t, err)

	opts, err := parseShowJobFlags([]string{"-id", "job-1", "-query", "status"})
	require.NoError(t, err)
	require.Equal(t, "job-1", opts.ID)
	require.Equal(t, "status", opts.Query)
}

func TestGuardRemoteSeed(t *testing.T) {
	cmdCtx := &commandContext{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	cmdCtx.Config.Postgres.Host = "localhost"
	require.NoError(t, guardRemoteSeed(cmdCtx, false))

	cmdCtx.Config.Postgres.Host = "db.prod.internal"
	err := guardRemoteSeed(cmdCtx, false)
	require.Error(t, err)
	require.Contains(t, err.Error(), "-allow-remote")

	require.NoError(t, guardRemoteSeed(cmdCtx, true))
}

func TestParseListJobsFlagsDefaults(t *testing.T) {
	opts, err := parseListJobsFlags([]string{"-owner", "user-1"})
	require.NoError(t, err)
	require.Equal(t, "user-1", opts.OwnerID)
	require.Equal(t, 20, opts.Limit)
	require.Empty(t, opts.Status)
}
