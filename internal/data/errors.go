package data

import "errors"

// Shared sentinel errors for data-layer repositories. The service layer
// translates these into the API error taxonomy.
var (
	// ErrJobNotFound is returned when a job does not exist.
	ErrJobNotFound = errors.New("job not found")
	// ErrJobTerminal is returned when a mutation targets a completed or failed job.
	ErrJobTerminal = errors.New("job is in a terminal status")
	// ErrProgressDecreased is returned when an update would move progress backwards.
	ErrProgressDecreased = errors.New("job progress cannot decrease")

	// ErrSessionNotFound is returned when a validation session does not exist.
	ErrSessionNotFound = errors.New("validation session not found")
	// ErrSessionTerminal is returned when a mutation targets a finished session.
	ErrSessionTerminal = errors.New("validation session is in a terminal status")
	// ErrReportNotFound is returned when a session has no stored report.
	ErrReportNotFound = errors.New("validation report not found")
)
