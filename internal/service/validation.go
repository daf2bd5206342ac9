package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/resellkit/ops-api/internal/core"
	"github.com/resellkit/ops-api/internal/data"
	"github.com/resellkit/ops-api/internal/domain/model"
	apperrors "github.com/resellkit/ops-api/internal/errors"
	"github.com/resellkit/ops-api/internal/observability/metrics"
	"github.com/resellkit/ops-api/internal/observability/statsd"
)

// Progress checkpoints for the pipeline phases. Per-item analysis fills the
// span between token and analysis done.
const (
	progressTokenChecked = 5
	progressAnalysisDone = 80
	progressDestructive  = 90
	progressIntegrity    = 97
)

const (
	defaultPipelineTimeout = 10 * time.Minute
	defaultReportCacheTTL  = time.Hour
)

// ValidationServiceOptions groups dependencies for ValidationService.
type ValidationServiceOptions struct {
	Sessions    core.ValidationSessionRepository // Required: session repository
	Reports     core.ValidationReportRepository  // Required: report repository
	Tokens      core.TokenChecker                // Required: token check phase
	Analyzer    core.ItemAnalyzer                // Required: per-item analysis phase
	Destructive core.DestructiveTester           // Optional: destructive test phase
	Integrity   core.IntegrityChecker            // Optional: integrity check phase
	Cache       core.CacheRepository             // Optional: report cache
	Logger      *slog.Logger                     // Optional: structured logger
	Metrics     statsd.Sink                      // Optional: metrics sink

	// PipelineTimeout bounds one background pipeline run. Defaults to 10m.
	PipelineTimeout time.Duration
	// ReportCacheTTL controls how long completed reports stay cached. Defaults to 1h.
	ReportCacheTTL time.Duration
}

// ValidationService tracks multi-phase validation pipelines.
//
// Start persists a pending session and detaches the pipeline into a
// background goroutine; Status and Report are owner-scoped reads against the
// session row and the report artifact. The session row carries progress,
// elapsed and estimated-remaining telemetry refreshed after every phase, and
// the report is upserted incrementally so partial results survive a failure.
type ValidationService struct {
	sessions    core.ValidationSessionRepository
	reports     core.ValidationReportRepository
	tokens      core.TokenChecker
	analyzer    core.ItemAnalyzer
	destructive core.DestructiveTester
	integrity   core.IntegrityChecker
	cache       core.CacheRepository
	logger      *slog.Logger
	metrics     statsd.Sink

	pipelineTimeout time.Duration
	reportCacheTTL  time.Duration

	// now is swappable for tests.
	now func() time.Time

	running sync.WaitGroup
}

// NewValidationService constructs a new ValidationService.
func NewValidationService(opts ValidationServiceOptions) (*ValidationService, error) {
	if opts.Sessions == nil {
		return nil, errors.New("ValidationSessionRepository is required")
	}
	if opts.Reports == nil {
		return nil, errors.New("ValidationReportRepository is required")
	}
	if opts.Tokens == nil {
		return nil, errors.New("TokenChecker is required")
	}
	if opts.Analyzer == nil {
		return nil, errors.New("ItemAnalyzer is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "validation_service")
	}

	timeout := opts.PipelineTimeout
	if timeout <= 0 {
		timeout = defaultPipelineTimeout
	}
	cacheTTL := opts.ReportCacheTTL
	if cacheTTL <= 0 {
		cacheTTL = defaultReportCacheTTL
	}

	return &ValidationService{
		sessions:        opts.Sessions,
		reports:         opts.Reports,
		tokens:          opts.Tokens,
		analyzer:        opts.Analyzer,
		destructive:     opts.Destructive,
		integrity:       opts.Integrity,
		cache:           opts.Cache,
		logger:          logger,
		metrics:         opts.Metrics,
		pipelineTimeout: timeout,
		reportCacheTTL:  cacheTTL,
		now:             time.Now,
	}, nil
}

// MustNewValidationService constructs a new ValidationService and panics on error.
func MustNewValidationService(opts ValidationServiceOptions) *ValidationService {
	svc, err := NewValidationService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create ValidationService: %v", err))
	}
	return svc
}

// Start accepts a validation request, persists a pending session and kicks
// the pipeline off in the background. The returned snapshot is the pending
// session; callers poll Status for progress.
func (s *ValidationService) Start(ctx context.Context, req *model.StartValidationRequest) (*model.ValidationSession, error) {
	if req == nil {
		return nil, apperrors.Validation("start validation request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	session, err := s.sessions.Create(ctx, core.CreateSessionParams{
		OwnerID:   req.OwnerID,
		ItemCount: len(req.Items),
	})
	if err != nil {
		return nil, translateSessionErr(err)
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "validation session started",
			"id", session.ID,
			"owner_id", session.OwnerID,
			"items", len(req.Items),
			"destructive", req.RunDestructive,
		)
	}

	s.running.Add(1)
	go func() {
		defer s.running.Done()

		// Detached from the request context: the caller polls, the
		// pipeline outlives the HTTP exchange that started it.
		runCtx, cancel := context.WithTimeout(context.Background(), s.pipelineTimeout)
		defer cancel()
		s.runPipeline(runCtx, session.ID, req)
	}()

	return session, nil
}

// Wait blocks until all in-flight pipelines finish. Used during shutdown.
func (s *ValidationService) Wait() {
	s.running.Wait()
}

// Status returns the session snapshot after checking ownership. Unknown ids
// are reported before ownership is considered.
func (s *ValidationService) Status(ctx context.Context, id, requesterID string) (*model.ValidationSession, error) {
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, translateSessionErr(err)
	}
	if session.OwnerID != requesterID {
		return nil, apperrors.Unauthorized("validation session belongs to another user")
	}
	return session, nil
}

// Report returns the full report artifact for a terminal session. Before the
// session reaches a terminal status the artifact is still being assembled and
// the read is rejected as a conflict.
func (s *ValidationService) Report(ctx context.Context, id, requesterID string, includeDebug bool) (*model.ValidationReport, error) {
	session, err := s.Status(ctx, id, requesterID)
	if err != nil {
		return nil, err
	}
	if !session.Status.Terminal() {
		return nil, apperrors.Conflictf("validation session is %s, report is not ready", session.Status)
	}

	if report := s.cachedReport(ctx, id); report != nil {
		if !includeDebug {
			return report.WithoutDebug(), nil
		}
		return report, nil
	}

	report, err := s.reports.GetBySessionID(ctx, id)
	if err != nil {
		return nil, translateSessionErr(err)
	}

	s.cacheReport(ctx, report)

	if !includeDebug {
		return report.WithoutDebug(), nil
	}
	return report, nil
}

// runPipeline drives the phases, refreshing session telemetry and the report
// artifact as it goes. Any phase error flips the session to failed with a
// human-readable message; results computed before the failure stay in the
// report.
func (s *ValidationService) runPipeline(ctx context.Context, sessionID string, req *model.StartValidationRequest) {
	start := s.now()
	report := &model.ValidationReport{
		SessionID:   sessionID,
		ItemResults: make([]model.ItemResult, 0, len(req.Items)),
	}

	// Phase 1: token check.
	phaseStart := s.now()
	if err := s.tokens.CheckToken(ctx, req.Token); err != nil {
		s.emitPhase("token_check", phaseStart, err)
		s.failSession(ctx, sessionID, start, report, fmt.Sprintf("token check failed: %v", err))
		return
	}
	s.emitPhase("token_check", phaseStart, nil)
	report.DebugTraces = append(report.DebugTraces, "token check passed")
	s.progress(ctx, sessionID, start, progressTokenChecked, "token verified")

	// Phase 2: per-item analysis. Progress walks from the token checkpoint
	// to the analysis checkpoint as items complete.
	phaseStart = s.now()
	passed := 0
	for i, item := range req.Items {
		result, err := s.analyzer.AnalyzeItem(ctx, item)
		if err != nil {
			s.emitPhase("item_analysis", phaseStart, err)
			s.saveReport(ctx, report)
			s.failSession(ctx, sessionID, start, report,
				fmt.Sprintf("analysis of item %q failed: %v", item.ID, err))
			return
		}
		report.ItemResults = append(report.ItemResults, *result)
		if result.Passed {
			passed++
		}

		done := i + 1
		p := progressTokenChecked +
			(progressAnalysisDone-progressTokenChecked)*done/len(req.Items)
		s.progress(ctx, sessionID, start, p,
			fmt.Sprintf("analysed %d/%d items", done, len(req.Items)))
	}
	s.emitPhase("item_analysis", phaseStart, nil)
	report.DebugTraces = append(report.DebugTraces,
		fmt.Sprintf("analysis: %d/%d items passed", passed, len(req.Items)))
	s.saveReport(ctx, report)

	// Phase 3: optional destructive round trip.
	if req.RunDestructive && s.destructive != nil {
		phaseStart = s.now()
		destructive, err := s.destructive.RunDestructive(ctx, req.Token)
		if err != nil {
			s.emitPhase("destructive_test", phaseStart, err)
			s.saveReport(ctx, report)
			s.failSession(ctx, sessionID, start, report,
				fmt.Sprintf("destructive test failed: %v", err))
			return
		}
		s.emitPhase("destructive_test", phaseStart, nil)
		report.Destructive = destructive
		s.saveReport(ctx, report)
	}
	s.progress(ctx, sessionID, start, progressDestructive, "destructive phase done")

	// Phase 4: integrity check.
	if s.integrity != nil {
		phaseStart = s.now()
		integrity, err := s.integrity.CheckIntegrity(ctx, req.Items, report.ItemResults)
		if err != nil {
			s.emitPhase("integrity_check", phaseStart, err)
			s.saveReport(ctx, report)
			s.failSession(ctx, sessionID, start, report,
				fmt.Sprintf("integrity check failed: %v", err))
			return
		}
		s.emitPhase("integrity_check", phaseStart, nil)
		report.Integrity = integrity
		s.saveReport(ctx, report)
	}
	s.progress(ctx, sessionID, start, progressIntegrity, "integrity verified")

	// Phase 5: aggregation.
	report.Recommendations = buildRecommendations(report)
	report.GeneratedAt = s.now()
	s.saveReport(ctx, report)

	summary := &model.ValidationSummary{
		TestsRun:    len(report.ItemResults),
		TestsPassed: passed,
		Success:     summarySuccess(report, passed),
	}
	elapsed := s.now().Sub(start).Seconds()
	if _, err := s.sessions.Finish(ctx, core.FinishSessionParams{
		ID:             sessionID,
		Status:         model.ValidationStatusCompleted,
		ElapsedSeconds: elapsed,
		Summary:        summary,
	}); err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "failed to finish validation session",
			"id", sessionID,
			"error", err,
		)
	}

	s.cacheReport(ctx, report)

	if s.logger != nil {
		s.logger.InfoContext(ctx, "validation session completed",
			"id", sessionID,
			"tests_run", summary.TestsRun,
			"tests_passed", summary.TestsPassed,
			"elapsed", time.Duration(elapsed*float64(time.Second)).Round(time.Millisecond),
		)
	}
}

// progress writes one telemetry update. Telemetry failures are logged and
// swallowed: a lost progress tick must not abort a healthy pipeline.
func (s *ValidationService) progress(ctx context.Context, sessionID string, start time.Time, p int, message string) {
	elapsed := s.now().Sub(start).Seconds()
	_, err := s.sessions.Update(ctx, core.UpdateSessionParams{
		ID:                        sessionID,
		Status:                    model.ValidationStatusRunning,
		Progress:                  p,
		Message:                   message,
		ElapsedSeconds:            elapsed,
		EstimatedRemainingSeconds: model.EstimateRemainingSeconds(elapsed, p),
	})
	if err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to update session telemetry",
			"id", sessionID,
			"progress", p,
			"error", err,
		)
	}
}

func (s *ValidationService) failSession(ctx context.Context, sessionID string, start time.Time, report *model.ValidationReport, msg string) {
	report.GeneratedAt = s.now()
	s.saveReport(ctx, report)

	if _, err := s.sessions.Finish(ctx, core.FinishSessionParams{
		ID:             sessionID,
		Status:         model.ValidationStatusFailed,
		ElapsedSeconds: s.now().Sub(start).Seconds(),
		ErrMsg:         msg,
	}); err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "failed to mark validation session failed",
			"id", sessionID,
			"error", err,
		)
	}

	if s.logger != nil {
		s.logger.WarnContext(ctx, "validation session failed",
			"id", sessionID,
			"reason", msg,
		)
	}
}

func (s *ValidationService) saveReport(ctx context.Context, report *model.ValidationReport) {
	if err := s.reports.Upsert(ctx, report); err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "failed to save validation report",
			"session_id", report.SessionID,
			"error", err,
		)
	}
}

func (s *ValidationService) emitPhase(phase string, start time.Time, err error) {
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	metrics.EmitValidationPhase(s.metrics, metrics.ValidationMetric{
		Phase:    phase,
		Result:   result,
		Duration: s.now().Sub(start),
		Err:      err,
	})
}

func reportCacheKey(sessionID string) string {
	return "validation:report:" + sessionID
}

func (s *ValidationService) cachedReport(ctx context.Context, sessionID string) *model.ValidationReport {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, reportCacheKey(sessionID))
	if err != nil || raw == nil {
		return nil
	}
	var report model.ValidationReport
	if err := json.Unmarshal(raw, &report); err != nil {
		// Stale or corrupt entry, fall through to the repository.
		_, _ = s.cache.Delete(ctx, reportCacheKey(sessionID))
		return nil
	}
	return &report
}

func (s *ValidationService) cacheReport(ctx context.Context, report *model.ValidationReport) {
	if s.cache == nil || report == nil {
		return
	}
	raw, err := json.Marshal(report)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, reportCacheKey(report.SessionID), raw, s.reportCacheTTL); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to cache validation report",
			"session_id", report.SessionID,
			"error", err,
		)
	}
}

func buildRecommendations(report *model.ValidationReport) []string {
	var recs []string
	for i := range report.ItemResults {
		r := &report.ItemResults[i]
		if r.Passed {
			continue
		}
		for _, issue := range r.Issues {
			recs = append(recs, fmt.Sprintf("item %s: %s", r.ItemID, issue))
		}
	}
	if report.Destructive != nil && report.Destructive.Attempted && !report.Destructive.Passed {
		recs = append(recs, "destructive round trip failed: "+report.Destructive.Detail)
	}
	if report.Integrity != nil && !report.Integrity.Passed {
		for _, m := range report.Integrity.Mismatches {
			recs = append(recs, "integrity mismatch: "+m)
		}
	}
	return recs
}

func summarySuccess(report *model.ValidationReport, passed int) bool {
	if passed < len(report.ItemResults) {
		return false
	}
	if report.Destructive != nil && report.Destructive.Attempted && !report.Destructive.Passed {
		return false
	}
	if report.Integrity != nil && !report.Integrity.Passed {
		return false
	}
	return true
}

// translateSessionErr maps data-layer sentinels onto the API error taxonomy.
func translateSessionErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, data.ErrSessionNotFound):
		return apperrors.NotFound("validation session not found")
	case errors.Is(err, data.ErrReportNotFound):
		return apperrors.NotFound("validation report not found")
	case errors.Is(err, data.ErrSessionTerminal):
		return apperrors.Conflict("validation session is in a terminal status")
	default:
		return err
	}
}
