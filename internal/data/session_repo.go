package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/resellkit/ops-api/internal/core"
	"github.com/resellkit/ops-api/internal/data/pgxutil"
	"github.com/resellkit/ops-api/internal/domain/model"
	apperrors "github.com/resellkit/ops-api/internal/errors"
)

// SessionRepo provides database operations for validation sessions.
type SessionRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewSessionRepo creates a new SessionRepo instance with the given database connection and configuration.
func NewSessionRepo(db *sql.DB, cfg RepoConfig) *SessionRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}

	return &SessionRepo{
		DB:           db,
		timeProvider: tp,
		logger:       cfg.Logger,
	}
}

const sessionColumns = `
  id,
  owner_id,
  status,
  progress,
  message,
  start_time,
  elapsed_seconds,
  estimated_remaining_seconds,
  last_error,
  summary,
  created_at,
  updated_at
`

type sessionRowScanner interface {
	Scan(dest ...any) error
}

type sessionRowData struct {
	message   sql.NullString
	lastError sql.NullString
	summary   []byte
}

func (d *sessionRowData) scanInto(scanner sessionRowScanner, s *model.ValidationSession) error {
	return scanner.Scan(
		&s.ID,
		&s.OwnerID,
		&s.Status,
		&s.Progress,
		&d.message,
		&s.StartTime,
		&s.ElapsedSeconds,
		&s.EstimatedRemainingSeconds,
		&d.lastError,
		&d.summary,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
}

func (d *sessionRowData) apply(s *model.ValidationSession) error {
	if d.message.Valid {
		s.Message = d.message.String
	}
	s.Error = cloneNullableString(d.lastError)
	if len(d.summary) > 0 {
		var summary model.ValidationSummary
		if err := json.Unmarshal(d.summary, &summary); err != nil {
			return fmt.Errorf("decode session summary: %w", err)
		}
		s.Summary = &summary
	}
	return nil
}

func scanSessionFromRow(scanner sessionRowScanner) (*model.ValidationSession, error) {
	session := &model.ValidationSession{}
	var data sessionRowData
	if err := data.scanInto(scanner, session); err != nil {
		return nil, err
	}
	if err := data.apply(session); err != nil {
		return nil, err
	}
	return session, nil
}

func collectSessionFromRows(rows pgx.Rows) (*model.ValidationSession, error) {
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, pgx.ErrNoRows
	}

	session, err := scanSessionFromRow(rows)
	if err != nil {
		return nil, err
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, rowsErr
	}

	return session, nil
}

// Create inserts a new pending session.
func (r *SessionRepo) Create(ctx context.Context, params core.CreateSessionParams) (*model.ValidationSession, error) {
	if params.OwnerID == "" {
		return nil, apperrors.Validation("owner id is required")
	}
	if params.ItemCount <= 0 {
		return nil, apperrors.ValidationField("items", "item count must be positive")
	}

	currentTime := r.timeProvider.Now().UTC()
	message := fmt.Sprintf("queued: %d items", params.ItemCount)

	var session *model.ValidationSession
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, queryErr := pgxConn.Query(ctx, `
			INSERT INTO validation_sessions
				(id, owner_id, status, progress, message, start_time, elapsed_seconds, estimated_remaining_seconds, created_at, updated_at)
			VALUES ($1, $2, 'pending', 0, $3, $4, 0, 0, $4, $4)
			RETURNING `+sessionColumns,
			uuid.NewString(), params.OwnerID, message, currentTime,
		)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()
		var collectErr error
		session, collectErr = collectSessionFromRows(rows)
		return collectErr
	})
	if err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("insert validation session: %w", err))
	}

	return session, nil
}

// GetByID retrieves a validation session by its ID.
func (r *SessionRepo) GetByID(ctx context.Context, id string) (*model.ValidationSession, error) {
	var session *model.ValidationSession
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, queryErr := pgxConn.Query(ctx, `
			SELECT `+sessionColumns+`
			FROM validation_sessions
			WHERE id = $1
		`, id)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()
		var collectErr error
		session, collectErr = collectSessionFromRows(rows)
		return collectErr
	})

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("get validation session: %w", err))
	}
	return session, nil
}

// Update records a telemetry snapshot on a live session. Terminal rows are
// never rewritten; the guard mirrors the one on jobs.
func (r *SessionRepo) Update(ctx context.Context, params core.UpdateSessionParams) (*model.ValidationSession, error) {
	if !params.Status.Valid() || params.Status.Terminal() {
		return nil, apperrors.ValidationField("status", fmt.Sprintf("invalid live status %q", params.Status))
	}
	if !model.ValidProgress(params.Progress) {
		return nil, apperrors.ValidationField("progress", "progress must be between 0 and 100")
	}

	currentTime := r.timeProvider.Now().UTC()

	row := r.DB.QueryRowContext(ctx, `
		UPDATE validation_sessions
		SET status = $2,
		    progress = $3,
		    message = $4,
		    elapsed_seconds = $5,
		    estimated_remaining_seconds = $6,
		    updated_at = $7
		WHERE id = $1
		  AND status IN ('pending', 'running')
		  AND progress <= $3
		RETURNING `+sessionColumns,
		params.ID, params.Status, params.Progress, params.Message,
		params.ElapsedSeconds, params.EstimatedRemainingSeconds, currentTime,
	)

	session, err := scanSessionFromRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, r.classifySessionUpdateMiss(ctx, params.ID, params.Progress)
	}
	if err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("update validation session: %w", err))
	}
	return session, nil
}

// Finish moves a live session to a terminal status. A completed session gets
// full progress and a summary; a failed one keeps the progress it reached and
// records the error.
func (r *SessionRepo) Finish(ctx context.Context, params core.FinishSessionParams) (*model.ValidationSession, error) {
	if !params.Status.Terminal() {
		return nil, apperrors.ValidationField("status", fmt.Sprintf("status %q is not terminal", params.Status))
	}

	var summaryJSON []byte
	if params.Summary != nil {
		encoded, encodeErr := json.Marshal(params.Summary)
		if encodeErr != nil {
			return nil, fmt.Errorf("encode session summary: %w", encodeErr)
		}
		summaryJSON = encoded
	}

	var errMsg *string
	if params.ErrMsg != "" {
		errMsg = &params.ErrMsg
	}

	currentTime := r.timeProvider.Now().UTC()

	row := r.DB.QueryRowContext(ctx, `
		UPDATE validation_sessions
		SET status = $2,
		    progress = CASE WHEN $2 = 'completed' THEN $6 ELSE progress END,
		    elapsed_seconds = $3,
		    estimated_remaining_seconds = 0,
		    summary = $4,
		    last_error = $5,
		    updated_at = $7
		WHERE id = $1
		  AND status IN ('pending', 'running')
		RETURNING `+sessionColumns,
		params.ID, params.Status, params.ElapsedSeconds, summaryJSON, errMsg,
		model.ProgressMax, currentTime,
	)

	session, err := scanSessionFromRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, r.classifySessionTerminalMiss(ctx, params.ID)
	}
	if err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("finish validation session: %w", err))
	}
	return session, nil
}

func (r *SessionRepo) classifySessionUpdateMiss(ctx context.Context, id string, progress int) error {
	session, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if session.Status.Terminal() {
		return ErrSessionTerminal
	}
	if progress < session.Progress {
		return ErrProgressDecreased
	}
	return errors.New("unexpected state: live session matched no update predicate")
}

func (r *SessionRepo) classifySessionTerminalMiss(ctx context.Context, id string) error {
	session, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if session.Status.Terminal() {
		return ErrSessionTerminal
	}
	return errors.New("unexpected state: live session matched no update predicate")
}
