// Package ratelimit implements fixed-window request admission control.
//
// A Limiter combines a Policy with a Store and yields a pure gate: callers
// invoke Allow before doing any work and either proceed or surface the
// returned Error as a "too many requests" denial with a retry hint.
package ratelimit

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
)

// Error is the admission denial. It carries the retry metadata a caller needs
// to render a standard "too many requests" response.
type Error struct {
	Limit      int
	Remaining  int
	Reset      time.Time
	RetryAfter time.Duration
	Message    string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("rate limit of %d requests exceeded, retry in %s", e.Limit, e.RetryAfter.Round(time.Second))
}

// Policy configures one limiter.
type Policy struct {
	// MaxRequests is the admission quota per window. Required.
	MaxRequests int
	// Window is the fixed window length. Required.
	Window time.Duration
	// KeyFunc derives the admission identity from a request.
	// Defaults to ClientAddrKey.
	KeyFunc func(r *http.Request) string
	// Skip admits the request unconditionally when it returns true. Optional.
	Skip func(r *http.Request) bool
	// Message overrides the denial text. Optional.
	Message string
}

// Limiter gates requests against a fixed-window quota. Distinct keys are
// fully independent; there is no global cap across keys.
type Limiter struct {
	store  Store
	policy Policy
}

// New constructs a Limiter from a store and policy.
func New(store Store, policy Policy) (*Limiter, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if policy.MaxRequests <= 0 {
		return nil, errors.New("MaxRequests must be positive")
	}
	if policy.Window <= 0 {
		return nil, errors.New("Window must be positive")
	}
	if policy.KeyFunc == nil {
		policy.KeyFunc = ClientAddrKey
	}
	return &Limiter{store: store, policy: policy}, nil
}

// Allow admits or rejects the request. A rejected attempt still counts
// against the window so retry storms cannot reset it.
func (l *Limiter) Allow(r *http.Request) error {
	if l.policy.Skip != nil && l.policy.Skip(r) {
		return nil
	}

	key := l.policy.KeyFunc(r)
	count, reset, err := l.store.Increment(r.Context(), key, l.policy.Window)
	if err != nil {
		// Admission control is best-effort: a broken store must not take the
		// endpoints it protects down with it.
		return nil
	}

	if count > l.policy.MaxRequests {
		return &Error{
			Limit:      l.policy.MaxRequests,
			Remaining:  0,
			Reset:      reset,
			RetryAfter: time.Until(reset),
			Message:    l.policy.Message,
		}
	}
	return nil
}

// Limit returns the configured quota.
func (l *Limiter) Limit() int {
	return l.policy.MaxRequests
}

// Window returns the configured window length.
func (l *Limiter) Window() time.Duration {
	return l.policy.Window
}

// unknownKey is the constant fallback identity when no client address can be
// derived, so such requests still share one counter instead of bypassing the gate.
const unknownKey = "unknown"

// ClientAddrKey extracts the client address from forwarded-address headers,
// falling back to the connection's remote address.
func ClientAddrKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		// First hop is the original client.
		if addr := strings.TrimSpace(strings.Split(fwd, ",")[0]); addr != "" {
			return addr
		}
	}
	if real := strings.TrimSpace(r.Header.Get("X-Real-Ip")); real != "" {
		return real
	}
	if r.RemoteAddr != "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			return host
		}
		return r.RemoteAddr
	}
	return unknownKey
}

// IsLimitError reports whether err is an admission denial and returns it.
func IsLimitError(err error) (*Error, bool) {
	var limitErr *Error
	if errors.As(err, &limitErr) {
		return limitErr, true
	}
	return nil, false
}
