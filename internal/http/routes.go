package httpx

import (
	"log/slog"
	"net/http"

	"github.com/resellkit/ops-api/internal/core"
	"github.com/resellkit/ops-api/internal/ports"
	"github.com/resellkit/ops-api/internal/ratelimit"
	"github.com/resellkit/ops-api/internal/service"
)

// RouterServices groups the collaborators the router wires into handlers.
type RouterServices struct {
	Jobs        *service.JobService
	Validations *service.ValidationService
	Resolver    ports.RequesterResolver
	Limiter     *ratelimit.Limiter
	DB          Pinger
	Cache       core.CacheRepository
	Logger      *slog.Logger
}

// NewRouter builds the HTTP mux with all API routes and middleware applied.
func NewRouter(svcs RouterServices) http.Handler {
	mux := http.NewServeMux()

	// Admission control covers the endpoints that create work; reads stay
	// cheap and unthrottled.
	limited := RateLimit(svcs.Limiter)

	jobs := &JobHandlers{Svc: svcs.Jobs, Resolver: svcs.Resolver}
	registerJobRoutes(mux, jobs, limited)

	validations := &ValidationHandlers{Svc: svcs.Validations, Resolver: svcs.Resolver}
	registerValidationRoutes(mux, validations, limited)

	health := &HealthHandlers{DB: svcs.DB, Cache: svcs.Cache}
	mux.HandleFunc("GET /healthz", health.Health)
	mux.HandleFunc("HEAD /healthz", health.Health)

	var handler http.Handler = mux
	if svcs.Logger != nil {
		handler = Logging(svcs.Logger)(handler)
		handler = Recover(svcs.Logger)(handler)
	}
	return handler
}

func registerJobRoutes(mux *http.ServeMux, h *JobHandlers, limited func(http.Handler) http.Handler) {
	mux.Handle("POST /api/jobs", limited(http.HandlerFunc(h.CreateJob)))
	mux.HandleFunc("GET /api/jobs", h.ListJobs)
	mux.HandleFunc("GET /api/jobs/stats", h.Stats)
	mux.HandleFunc("GET /api/jobs/{id}", h.GetJob)
	mux.HandleFunc("GET /api/jobs/{id}/watch", h.WatchJob)
	mux.HandleFunc("POST /api/jobs/{id}/progress", h.UpdateProgress)
	mux.HandleFunc("POST /api/jobs/{id}/complete", h.CompleteJob)
	mux.HandleFunc("POST /api/jobs/{id}/fail", h.FailJob)
	mux.HandleFunc("GET /api/jobs/{id}/result", h.JobResult)
}

func registerValidationRoutes(mux *http.ServeMux, h *ValidationHandlers, limited func(http.Handler) http.Handler) {
	mux.Handle("POST /api/validations", limited(http.HandlerFunc(h.StartValidation)))
	mux.HandleFunc("GET /api/validations/{id}", h.GetValidation)
	mux.HandleFunc("GET /api/validations/{id}/report", h.GetValidationReport)
}
