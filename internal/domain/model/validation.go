package model

import (
	"errors"
	"strings"
	"time"
)

// ValidationStatus represents the lifecycle state of a validation session.
type ValidationStatus string

const (
	// ValidationStatusPending indicates a session was accepted but the pipeline has not started.
	ValidationStatusPending ValidationStatus = "pending"
	// ValidationStatusRunning indicates the pipeline is executing phases.
	ValidationStatusRunning ValidationStatus = "running"
	// ValidationStatusCompleted indicates the pipeline finished all phases. Terminal.
	ValidationStatusCompleted ValidationStatus = "completed"
	// ValidationStatusFailed indicates a phase aborted the pipeline. Terminal.
	ValidationStatusFailed ValidationStatus = "failed"
)

// Valid returns true if the ValidationStatus is valid.
func (s ValidationStatus) Valid() bool {
	return s == ValidationStatusPending || s == ValidationStatusRunning ||
		s == ValidationStatusCompleted || s == ValidationStatusFailed
}

// Terminal returns true once no further transition can leave the status.
func (s ValidationStatus) Terminal() bool {
	return s == ValidationStatusCompleted || s == ValidationStatusFailed
}

// ValidationSummary is the compact result digest attached to a completed session.
type ValidationSummary struct {
	TestsRun    int  `json:"tests_run"`
	TestsPassed int  `json:"tests_passed"`
	Success     bool `json:"success"`
}

// ValidationSession tracks a multi-phase category validation pipeline.
//
// Elapsed and estimated-remaining seconds are progress telemetry refreshed by
// the pipeline on every mutation; the full per-item detail lives in the
// separate ValidationReport artifact keyed by the same id.
type ValidationSession struct {
	ID                        string             `json:"id"                          db:"id"`
	OwnerID                   string             `json:"owner_id"                    db:"owner_id"`
	Status                    ValidationStatus   `json:"status"                      db:"status"`
	Progress                  int                `json:"progress"                    db:"progress"`
	Message                   string             `json:"message,omitempty"           db:"message"`
	StartTime                 time.Time          `json:"start_time"                  db:"start_time"`
	ElapsedSeconds            float64            `json:"elapsed_seconds"             db:"elapsed_seconds"`
	EstimatedRemainingSeconds float64            `json:"estimated_remaining_seconds" db:"estimated_remaining_seconds"`
	Error                     *string            `json:"error,omitempty"             db:"last_error"`
	Summary                   *ValidationSummary `json:"summary,omitempty"           db:"summary"`
	CreatedAt                 time.Time          `json:"created_at"                  db:"created_at"`
	UpdatedAt                 time.Time          `json:"updated_at"                  db:"updated_at"`
}

// Clone returns a copy safe to hand to subscribers.
func (s *ValidationSession) Clone() *ValidationSession {
	if s == nil {
		return nil
	}
	cp := *s
	if s.Error != nil {
		e := *s.Error
		cp.Error = &e
	}
	if s.Summary != nil {
		sum := *s.Summary
		cp.Summary = &sum
	}
	return &cp
}

// EstimateRemainingSeconds extrapolates remaining run time linearly from the
// elapsed time and progress fraction. Returns 0 (unknown) until the pipeline
// has recorded any progress.
func EstimateRemainingSeconds(elapsedSeconds float64, progress int) float64 {
	if progress <= 0 || elapsedSeconds <= 0 {
		return 0
	}
	if progress >= ProgressMax {
		return 0
	}
	return elapsedSeconds * float64(ProgressMax-progress) / float64(progress)
}

// ValidationItem identifies one inventory item to be analysed by the pipeline.
type ValidationItem struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	CategoryPath string `json:"category_path"`
}

// StartValidationRequest describes a request to start a validation session.
type StartValidationRequest struct {
	Token          string           `json:"token"`
	Items          []ValidationItem `json:"items"`
	RunDestructive bool             `json:"run_destructive"`
	OwnerID        string           `json:"-"`
}

// MaxValidationItems bounds the per-session item count.
const MaxValidationItems = 500

// Validate validates the StartValidationRequest fields.
func (r *StartValidationRequest) Validate() error {
	if strings.TrimSpace(r.Token) == "" {
		return errors.New("token is required")
	}
	if len(r.Items) == 0 {
		return errors.New("at least one item is required")
	}
	if len(r.Items) > MaxValidationItems {
		return errors.New("item count exceeds maximum")
	}
	if strings.TrimSpace(r.OwnerID) == "" {
		return errors.New("owner id is required")
	}
	for i := range r.Items {
		if strings.TrimSpace(r.Items[i].ID) == "" {
			return errors.New("item id is required")
		}
	}
	return nil
}

// ItemResult holds the outcome of one per-item analysis phase.
type ItemResult struct {
	ItemID   string   `json:"item_id"`
	Name     string   `json:"name,omitempty"`
	Passed   bool     `json:"passed"`
	Issues   []string `json:"issues,omitempty"`
	Duration float64  `json:"duration_seconds,omitempty"`
}

// DestructiveTestResult holds the outcome of the optional deletion round-trip test.
type DestructiveTestResult struct {
	Attempted bool   `json:"attempted"`
	Passed    bool   `json:"passed"`
	Detail    string `json:"detail,omitempty"`
}

// IntegrityCheckResult holds the outcome of the data-integrity phase.
type IntegrityCheckResult struct {
	Checked    int      `json:"checked"`
	Mismatches []string `json:"mismatches,omitempty"`
	Passed     bool     `json:"passed"`
}

// ValidationReport is the full artifact for a session, fetched on demand.
//
// Partial results survive a failed pipeline: whatever phases had finished when
// the failure occurred are still present so callers can see how far it got.
type ValidationReport struct {
	SessionID       string                 `json:"session_id"`
	ItemResults     []ItemResult           `json:"item_results"`
	Destructive     *DestructiveTestResult `json:"destructive,omitempty"`
	Integrity       *IntegrityCheckResult  `json:"integrity,omitempty"`
	Recommendations []string               `json:"recommendations,omitempty"`
	DebugTraces     []string               `json:"debug_traces,omitempty"`
	GeneratedAt     time.Time              `json:"generated_at"`
}

// WithoutDebug returns a shallow copy with diagnostic traces stripped.
func (r *ValidationReport) WithoutDebug() *ValidationReport {
	if r == nil {
		return nil
	}
	cp := *r
	cp.DebugTraces = nil
	return &cp
}
