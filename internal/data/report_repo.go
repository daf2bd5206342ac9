package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/resellkit/ops-api/internal/domain/model"
	apperrors "github.com/resellkit/ops-api/internal/errors"
)

// ReportRepo stores the full validation report artifact, one row per session.
type ReportRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewReportRepo creates a new ReportRepo instance with the given database connection and configuration.
func NewReportRepo(db *sql.DB, cfg RepoConfig) *ReportRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	return &ReportRepo{DB: db, timeProvider: tp}
}

// Upsert writes the report for a session, replacing any previous artifact.
// The pipeline calls this after every phase so partial results survive a
// mid-run failure.
func (r *ReportRepo) Upsert(ctx context.Context, report *model.ValidationReport) error {
	if report == nil {
		return errors.New("report is required")
	}
	if report.SessionID == "" {
		return apperrors.ValidationField("session_id", "session id is required")
	}

	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode validation report: %w", err)
	}

	currentTime := r.timeProvider.Now().UTC()

	if _, err := r.DB.ExecContext(ctx, `
		INSERT INTO validation_reports (session_id, report, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (session_id) DO UPDATE
		SET report = EXCLUDED.report,
		    updated_at = EXCLUDED.updated_at
	`, report.SessionID, body, currentTime); err != nil {
		return apperrors.MapDBError(fmt.Errorf("upsert validation report: %w", err))
	}
	return nil
}

// GetBySessionID fetches the stored report for a session.
func (r *ReportRepo) GetBySessionID(ctx context.Context, sessionID string) (*model.ValidationReport, error) {
	var body []byte
	err := r.DB.QueryRowContext(ctx, `
		SELECT report
		FROM validation_reports
		WHERE session_id = $1
	`, sessionID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("get validation report: %w", err))
	}

	var report model.ValidationReport
	if unmarshalErr := json.Unmarshal(body, &report); unmarshalErr != nil {
		return nil, fmt.Errorf("decode validation report: %w", unmarshalErr)
	}
	return &report, nil
}
