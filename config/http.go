package config

import "time"

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// RequesterHeader names the header carrying the authenticated requester id.
	// Populated upstream by the auth proxy.
	RequesterHeader string `env:"HTTP_REQUESTER_HEADER" envDefault:"X-Requester-Id"`

	// ShutdownTimeout bounds graceful shutdown of in-flight requests.
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// RateLimit guards the endpoints that start jobs and validation sessions.
	RateLimit RateLimitConfig
}

// RateLimitConfig contains fixed-window admission control configuration.
type RateLimitConfig struct {
	// Enabled toggles admission control on the mutation endpoints.
	Enabled bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`

	// MaxRequests is the per-key quota within one window.
	MaxRequests int `env:"RATE_LIMIT_MAX_REQUESTS" envDefault:"60"`

	// Window is the fixed admission window length.
	Window time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`

	// UseRedis shares counters across instances through Redis instead of the
	// per-process memory store.
	UseRedis bool `env:"RATE_LIMIT_USE_REDIS" envDefault:"false"`

	// CleanupInterval controls how often the memory store sweeps elapsed windows.
	CleanupInterval time.Duration `env:"RATE_LIMIT_CLEANUP_INTERVAL" envDefault:"1m"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	if h.RequesterHeader == "" {
		h.RequesterHeader = "X-Requester-Id"
	}
	if h.ShutdownTimeout <= 0 {
		h.ShutdownTimeout = 10 * time.Second
	}
	h.RateLimit.Sanitize()
}

// Sanitize applies guardrails to rate limit configuration values.
func (r *RateLimitConfig) Sanitize() {
	if r.MaxRequests < 1 {
		r.MaxRequests = 1
	}
	if r.Window < time.Second {
		r.Window = time.Second
	}
	if r.CleanupInterval <= 0 {
		r.CleanupInterval = time.Minute
	}
}
