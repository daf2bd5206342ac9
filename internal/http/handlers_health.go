package httpx

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/resellkit/ops-api/internal/core"
)

// Pinger is the slice of database/sql.DB the health check needs.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandlers reports process liveness plus dependency reachability.
// Nil dependencies are skipped so partial deployments still answer.
type HealthHandlers struct {
	DB    Pinger
	Cache core.CacheRepository
}

const healthCheckTimeout = 2 * time.Second

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Health handles readiness/liveness checks. Dependency probes run
// concurrently so the slowest dependency bounds the response time, not the
// sum of all of them.
func (h *HealthHandlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	resp := healthResponse{Status: "ok", Checks: map[string]string{}}

	var mu sync.Mutex
	record := func(name string, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "degraded"
			return
		}
		resp.Checks[name] = "ok"
	}

	g, gctx := errgroup.WithContext(ctx)
	if h.DB != nil {
		g.Go(func() error {
			record("database", h.DB.PingContext(gctx))
			return nil
		})
	}
	if h.Cache != nil {
		g.Go(func() error {
			record("redis", h.Cache.Health(gctx))
			return nil
		})
	}
	// Probes report through record and never return errors, so Wait only
	// synchronizes.
	_ = g.Wait()

	code := http.StatusOK
	if resp.Status != "ok" {
		code = http.StatusServiceUnavailable
	}

	if r.Method == http.MethodHead {
		w.WriteHeader(code)
		return
	}
	WriteJSON(w, code, resp)
}
