// Package model defines the core data types and structures used throughout the ops tracking system.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// JobType represents the kind of background work a job tracks.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type JobType string

// JobStatus represents the current status of a job.
type JobStatus string

const (
	// JobTypeSync represents an inventory synchronisation job.
	JobTypeSync JobType = "sync"
	// JobTypeScrape represents a marketplace scraping job.
	JobTypeScrape JobType = "scrape"
	// JobTypeExport represents a bulk data export job.
	JobTypeExport JobType = "export"
	// JobTypeValidation represents a category validation session job.
	JobTypeValidation JobType = "validation"

	// JobStatusPending indicates a job has been created but no progress recorded.
	JobStatusPending JobStatus = "pending"
	// JobStatusProcessing indicates a job has recorded progress strictly between 0 and 100.
	JobStatusProcessing JobStatus = "processing"
	// JobStatusCompleted indicates a job finished successfully. Terminal.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates a job finished with an error. Terminal.
	JobStatusFailed JobStatus = "failed"
)

// UnmarshalText implements encoding.TextUnmarshaler for JobType to allow env parsing.
func (t *JobType) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	jt := JobType(v)
	if jt.Valid() {
		*t = jt
		return nil
	}
	return fmt.Errorf("invalid JobType: %q", v)
}

// Valid returns true if the JobType is valid.
func (t JobType) Valid() bool {
	return t == JobTypeSync || t == JobTypeScrape || t == JobTypeExport || t == JobTypeValidation
}

// Valid returns true if the JobStatus is valid.
func (s JobStatus) Valid() bool {
	return s == JobStatusPending || s == JobStatusProcessing || s == JobStatusCompleted ||
		s == JobStatusFailed
}

// Terminal returns true once no further transition can leave the status.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// ProgressMax is the upper bound for job progress.
const ProgressMax = 100

// Job represents an asynchronous operation tracked by the system.
//
// Invariants:
//   - Progress is in [0,100] and never decreases while the job is live.
//   - A terminal status (completed/failed) never changes again; only UpdatedAt
//     moves on an idempotent re-application of the same terminal mutation.
//   - Result is set only on completed, LastError only on failed.
type Job struct {
	ID        string          `json:"id"                   db:"id"`
	OwnerID   string          `json:"owner_id"             db:"owner_id"`
	Type      JobType         `json:"type"                 db:"type"`
	Status    JobStatus       `json:"status"               db:"status"`
	Progress  int             `json:"progress"             db:"progress"`
	Result    json.RawMessage `json:"result,omitempty"     db:"result"`
	LastError *string         `json:"last_error,omitempty" db:"last_error"`
	CreatedAt time.Time       `json:"created_at"           db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"           db:"updated_at"`
}

// Clone returns a copy safe to publish outside the store.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	cp := *j
	if j.Result != nil {
		cp.Result = append(json.RawMessage(nil), j.Result...)
	}
	if j.LastError != nil {
		e := *j.LastError
		cp.LastError = &e
	}
	return &cp
}

// CreateJobRequest represents a request to create a new job.
type CreateJobRequest struct {
	Type    JobType `json:"type"`
	OwnerID string  `json:"-"`
}

// Validate validates the CreateJobRequest fields.
func (r *CreateJobRequest) Validate() error {
	if !r.Type.Valid() {
		return errors.New("invalid job type")
	}
	if strings.TrimSpace(r.OwnerID) == "" {
		return errors.New("owner id is required")
	}
	return nil
}

// ValidProgress reports whether p is inside the allowed progress range.
func ValidProgress(p int) bool {
	return p >= 0 && p <= ProgressMax
}

// StatusForProgress returns the status implied by recording a progress value on
// a live job. Zero progress keeps a pending job pending; anything above zero
// means the job is processing. Progress alone never completes a job.
func StatusForProgress(current JobStatus, progress int) JobStatus {
	if progress > 0 {
		return JobStatusProcessing
	}
	return current
}

// JobStats represents counts of jobs in each state.
type JobStats struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}

// JobListOptions holds filters for listing jobs.
type JobListOptions struct {
	OwnerID string
	Type    *JobType
	Status  *JobStatus
	Limit   int
	Offset  int
}
