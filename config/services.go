package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeHTTP runs the HTTP server (and in-process validation pipelines).
	ServiceModeHTTP ServiceMode = "http"
	// ServiceModeReaper runs the retention reaper for terminal jobs and sessions.
	ServiceModeReaper ServiceMode = "reaper"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{ServiceModeHTTP, ServiceModeReaper}
}

// ParseServices parses a comma-delimited string of service names and returns the enabled services.
// It validates that all service names are valid and returns an error if any are invalid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if servicesStr == "" {
		return services, errors.New("at least one service must be specified")
	}

	parts := strings.Split(servicesStr, ",")
	for _, part := range parts {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeHTTP, ServiceModeReaper:
			services[mode] = true
		default:
			return nil, fmt.Errorf("invalid service name: %q (valid options: http, reaper)", serviceName)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

// ReaperConfig contains retention reaper service configuration.
type ReaperConfig struct {
	// Interval is the reaper tick interval.
	Interval time.Duration `env:"REAPER_INTERVAL" envDefault:"5m"`

	// JobMaxAge is the maximum age for terminal jobs before deletion.
	JobMaxAge time.Duration `env:"REAPER_JOB_MAX_AGE" envDefault:"168h"` // 7 days

	// SessionMaxAge is the maximum age for terminal validation sessions
	// (and their reports, via cascade) before deletion.
	SessionMaxAge time.Duration `env:"REAPER_SESSION_MAX_AGE" envDefault:"720h"` // 30 days

	// BatchSize is the maximum number of rows to delete per operation.
	// Batching prevents long locks and I/O spikes on large tables.
	BatchSize int `env:"REAPER_BATCH_SIZE" envDefault:"1000"`
}

// Sanitize applies guardrails to reaper configuration values.
func (r *ReaperConfig) Sanitize() {
	// Enforce minimum intervals to prevent excessive database load
	if r.Interval < 1*time.Minute {
		r.Interval = 1 * time.Minute
	}
	if r.JobMaxAge < 1*time.Hour {
		r.JobMaxAge = 1 * time.Hour
	}
	if r.SessionMaxAge < 1*time.Hour {
		r.SessionMaxAge = 1 * time.Hour
	}

	if r.BatchSize < 1 {
		r.BatchSize = 1
	}
	if r.BatchSize > 10000 {
		r.BatchSize = 10000
	}
}

// ValidationConfig contains validation pipeline configuration.
type ValidationConfig struct {
	// PipelineTimeout bounds one background pipeline run.
	PipelineTimeout time.Duration `env:"VALIDATION_PIPELINE_TIMEOUT" envDefault:"10m"`
	// MarketplaceBaseURL is the upstream marketplace API root. Required when
	// the HTTP service is enabled.
	MarketplaceBaseURL string `env:"VALIDATION_MARKETPLACE_URL" envDefault:""`
	// MarketplaceServiceKey authenticates the platform's own marketplace calls.
	MarketplaceServiceKey string `env:"VALIDATION_MARKETPLACE_KEY" envDefault:""`
}

// Sanitize applies guardrails to validation configuration values.
func (v *ValidationConfig) Sanitize() {
	if v.PipelineTimeout < time.Minute {
		v.PipelineTimeout = time.Minute
	}
}
