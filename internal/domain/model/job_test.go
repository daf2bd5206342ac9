package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobType_Valid(t *testing.T) {
	assert.True(t, JobTypeSync.Valid())
	assert.True(t, JobTypeScrape.Valid())
	assert.True(t, JobTypeExport.Valid())
	assert.True(t, JobTypeValidation.Valid())
	assert.False(t, JobType("unknown").Valid())
	assert.False(t, JobType("").Valid())
}

func TestJobType_UnmarshalText(t *testing.T) {
	var jt JobType
	require.NoError(t, jt.UnmarshalText([]byte("  Scrape ")))
	assert.Equal(t, JobTypeScrape, jt)

	err := jt.UnmarshalText([]byte("browser"))
	assert.Error(t, err)
}

func TestJobStatus_Terminal(t *testing.T) {
	assert.False(t, JobStatusPending.Terminal())
	assert.False(t, JobStatusProcessing.Terminal())
	assert.True(t, JobStatusCompleted.Terminal())
	assert.True(t, JobStatusFailed.Terminal())

	assert.True(t, JobStatusPending.Valid())
	assert.False(t, JobStatus("queued").Valid())
}

func TestCreateJobRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateJobRequest
		wantErr string
	}{
		{
			name: "valid sync job",
			req:  CreateJobRequest{Type: JobTypeSync, OwnerID: "user-1"},
		},
		{
			name:    "invalid type",
			req:     CreateJobRequest{Type: JobType("browser"), OwnerID: "user-1"},
			wantErr: "invalid job type",
		},
		{
			name:    "missing owner",
			req:     CreateJobRequest{Type: JobTypeExport, OwnerID: "   "},
			wantErr: "owner id is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}

func TestValidProgress(t *testing.T) {
	assert.True(t, ValidProgress(0))
	assert.True(t, ValidProgress(50))
	assert.True(t, ValidProgress(ProgressMax))
	assert.False(t, ValidProgress(-1))
	assert.False(t, ValidProgress(ProgressMax+1))
}

func TestStatusForProgress(t *testing.T) {
	// Any positive progress moves a live job to processing; zero progress
	// leaves the current status alone. Progress alone never completes a job.
	assert.Equal(t, JobStatusProcessing, StatusForProgress(JobStatusPending, 1))
	assert.Equal(t, JobStatusProcessing, StatusForProgress(JobStatusProcessing, 99))
	assert.Equal(t, JobStatusProcessing, StatusForProgress(JobStatusPending, ProgressMax))
	assert.Equal(t, JobStatusPending, StatusForProgress(JobStatusPending, 0))
	assert.Equal(t, JobStatusProcessing, StatusForProgress(JobStatusProcessing, 0))
}

func TestJob_Clone(t *testing.T) {
	lastErr := "marketplace timeout"
	orig := &Job{
		ID:        "job-1",
		OwnerID:   "user-1",
		Type:      JobTypeSync,
		Status:    JobStatusFailed,
		Progress:  40,
		Result:    json.RawMessage(`{"synced":3}`),
		LastError: &lastErr,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	cp := orig.Clone()
	require.NotNil(t, cp)
	assert.Equal(t, orig, cp)

	// Mutating the copy must not bleed into the original.
	cp.Result[2] = 'x'
	*cp.LastError = "changed"
	assert.Equal(t, json.RawMessage(`{"synced":3}`), orig.Result)
	assert.Equal(t, "marketplace timeout", *orig.LastError)

	var nilJob *Job
	assert.Nil(t, nilJob.Clone())
}
