package config

import (
	"reflect"
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func TestParseServices(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    map[ServiceMode]bool
		expectError bool
	}{
		{
			name:  "single service - http",
			input: "http",
			expected: map[ServiceMode]bool{
				ServiceModeHTTP: true,
			},
			expectError: false,
		},
		{
			name:  "single service - reaper",
			input: "reaper",
			expected: map[ServiceMode]bool{
				ServiceModeReaper: true,
			},
			expectError: false,
		},
		{
			name:  "multiple services",
			input: "http,reaper",
			expected: map[ServiceMode]bool{
				ServiceModeHTTP:   true,
				ServiceModeReaper: true,
			},
			expectError: false,
		},
		{
			name:  "services with spaces",
			input: " http , reaper ",
			expected: map[ServiceMode]bool{
				ServiceModeHTTP:   true,
				ServiceModeReaper: true,
			},
			expectError: false,
		},
		{
			name:  "duplicate services",
			input: "http,http,reaper",
			expected: map[ServiceMode]bool{
				ServiceModeHTTP:   true,
				ServiceModeReaper: true,
			},
			expectError: false,
		},
		{
			name:        "empty string",
			input:       "",
			expectError: true,
		},
		{
			name:        "invalid service",
			input:       "http,scheduler",
			expectError: true,
		},
		{
			name:        "only commas and spaces",
			input:       " , , ",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseServices(tt.input)
			if tt.expectError {
				if err == nil {
					t.Fatalf("ParseServices(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseServices(%q) returned error: %v", tt.input, err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Fatalf("ParseServices(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestAppConfigDefaults(t *testing.T) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("env.Parse failed: %v", err)
	}
	cfg.Sanitize()

	if cfg.Services != "http" {
		t.Errorf("Services default = %q, want %q", cfg.Services, "http")
	}
	if cfg.Postgres.Host != "localhost" || cfg.Postgres.Port != 5432 {
		t.Errorf("unexpected Postgres defaults: %+v", cfg.Postgres)
	}
	if cfg.Postgres.Name != "opsapi" {
		t.Errorf("Postgres.Name default = %q, want %q", cfg.Postgres.Name, "opsapi")
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("HTTP.Addr default = %q, want %q", cfg.HTTP.Addr, ":8080")
	}
	if cfg.HTTP.RequesterHeader != "X-Requester-Id" {
		t.Errorf("HTTP.RequesterHeader default = %q", cfg.HTTP.RequesterHeader)
	}
	if !cfg.HTTP.RateLimit.Enabled {
		t.Error("RateLimit.Enabled should default to true")
	}
	if cfg.HTTP.RateLimit.MaxRequests != 60 || cfg.HTTP.RateLimit.Window != time.Minute {
		t.Errorf("unexpected RateLimit defaults: %+v", cfg.HTTP.RateLimit)
	}
	if cfg.Reaper.Interval != 5*time.Minute {
		t.Errorf("Reaper.Interval default = %v, want 5m", cfg.Reaper.Interval)
	}
	if cfg.IsHTTPServerEnabled() != true || cfg.IsReaperEnabled() != false {
		t.Errorf("unexpected enabled services for default config")
	}
}

func TestSanitizeGuardrails(t *testing.T) {
	cfg := AppConfig{
		HTTP: HTTPConfig{
			RateLimit: RateLimitConfig{MaxRequests: 0, Window: time.Millisecond},
		},
		Reaper: ReaperConfig{
			Interval:      time.Second,
			JobMaxAge:     time.Minute,
			SessionMaxAge: time.Minute,
			BatchSize:     100_000,
		},
		Validation: ValidationConfig{PipelineTimeout: time.Second},
	}
	cfg.Sanitize()

	if cfg.HTTP.RateLimit.MaxRequests != 1 {
		t.Errorf("MaxRequests not clamped: %d", cfg.HTTP.RateLimit.MaxRequests)
	}
	if cfg.HTTP.RateLimit.Window != time.Second {
		t.Errorf("Window not clamped: %v", cfg.HTTP.RateLimit.Window)
	}
	if cfg.Reaper.Interval != time.Minute {
		t.Errorf("Reaper.Interval not clamped: %v", cfg.Reaper.Interval)
	}
	if cfg.Reaper.JobMaxAge != time.Hour || cfg.Reaper.SessionMaxAge != time.Hour {
		t.Errorf("reaper max ages not clamped: %+v", cfg.Reaper)
	}
	if cfg.Reaper.BatchSize != 10000 {
		t.Errorf("BatchSize not clamped: %d", cfg.Reaper.BatchSize)
	}
	if cfg.Validation.PipelineTimeout != time.Minute {
		t.Errorf("PipelineTimeout not clamped: %v", cfg.Validation.PipelineTimeout)
	}
}
