package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, store Store, policy Policy) *Limiter {
	t.Helper()
	limiter, err := New(store, policy)
	require.NoError(t, err)
	return limiter
}

func TestNewValidatesPolicy(t *testing.T) {
	store := NewMemoryStore(MemoryStoreOptions{})

	_, err := New(nil, Policy{MaxRequests: 1, Window: time.Second})
	assert.Error(t, err)

	_, err = New(store, Policy{MaxRequests: 0, Window: time.Second})
	assert.Error(t, err)

	_, err = New(store, Policy{MaxRequests: 1, Window: 0})
	assert.Error(t, err)
}

func TestLimiterAllowsUpToQuotaThenRejects(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore(MemoryStoreOptions{Now: func() time.Time { return now }})
	limiter := newTestLimiter(t, store, Policy{MaxRequests: 2, Window: 100 * time.Millisecond})

	req := httptest.NewRequest("GET", "/api/jobs", nil)
	req.RemoteAddr = "10.1.2.3:51000"

	require.NoError(t, limiter.Allow(req))
	require.NoError(t, limiter.Allow(req))

	err := limiter.Allow(req)
	require.Error(t, err)
	limitErr, ok := IsLimitError(err)
	require.True(t, ok)
	assert.Equal(t, 2, limitErr.Limit)
	assert.Equal(t, 0, limitErr.Remaining)
	assert.Equal(t, now.Add(100*time.Millisecond), limitErr.Reset)
}

func TestLimiterRejectedAttemptsStillCount(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore(MemoryStoreOptions{Now: func() time.Time { return now }})
	limiter := newTestLimiter(t, store, Policy{MaxRequests: 1, Window: time.Minute})

	req := httptest.NewRequest("GET", "/api/jobs", nil)
	req.RemoteAddr = "10.1.2.3:51000"

	require.NoError(t, limiter.Allow(req))
	require.Error(t, limiter.Allow(req))
	require.Error(t, limiter.Allow(req))

	// Hammering while rejected keeps bumping the counter, so a fresh window
	// is the only way back in.
	count, _, err := store.Increment(context.Background(), "10.1.2.3", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestLimiterWindowElapseAdmitsAgain(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore(MemoryStoreOptions{Now: func() time.Time { return now }})
	limiter := newTestLimiter(t, store, Policy{MaxRequests: 2, Window: 100 * time.Millisecond})

	req := httptest.NewRequest("GET", "/api/jobs", nil)
	req.RemoteAddr = "10.1.2.3:51000"

	require.NoError(t, limiter.Allow(req))
	require.NoError(t, limiter.Allow(req))
	require.Error(t, limiter.Allow(req))

	now = now.Add(150 * time.Millisecond)
	assert.NoError(t, limiter.Allow(req))
}

func TestLimiterKeysAreIndependent(t *testing.T) {
	store := NewMemoryStore(MemoryStoreOptions{})
	limiter := newTestLimiter(t, store, Policy{MaxRequests: 1, Window: time.Minute})

	first := httptest.NewRequest("GET", "/api/jobs", nil)
	first.RemoteAddr = "10.1.2.3:51000"
	second := httptest.NewRequest("GET", "/api/jobs", nil)
	second.RemoteAddr = "10.9.9.9:51000"

	require.NoError(t, limiter.Allow(first))
	require.Error(t, limiter.Allow(first))
	assert.NoError(t, limiter.Allow(second), "another client keeps its own quota")
}

func TestLimiterSkipBypassesAdmission(t *testing.T) {
	store := NewMemoryStore(MemoryStoreOptions{})
	limiter := newTestLimiter(t, store, Policy{
		MaxRequests: 1,
		Window:      time.Minute,
		Skip: func(r *http.Request) bool {
			return r.URL.Path == "/healthz"
		},
	})

	req := httptest.NewRequest("GET", "/healthz", nil)
	for i := 0; i < 10; i++ {
		assert.NoError(t, limiter.Allow(req))
	}
	assert.Equal(t, 0, store.Len(), "skipped requests never touch the store")
}

type failingStore struct{}

func (failingStore) Increment(context.Context, string, time.Duration) (int, time.Time, error) {
	return 0, time.Time{}, errors.New("store unavailable")
}

func TestLimiterFailsOpenOnStoreError(t *testing.T) {
	limiter := newTestLimiter(t, failingStore{}, Policy{MaxRequests: 1, Window: time.Minute})

	req := httptest.NewRequest("GET", "/api/jobs", nil)
	assert.NoError(t, limiter.Allow(req))
}

func TestClientAddrKey(t *testing.T) {
	tests := []struct {
		name       string
		forwarded  string
		realIP     string
		remoteAddr string
		want       string
	}{
		{name: "forwarded first hop wins", forwarded: "203.0.113.7, 10.0.0.1", realIP: "198.51.100.2", remoteAddr: "10.0.0.1:443", want: "203.0.113.7"},
		{name: "real ip fallback", realIP: "198.51.100.2", remoteAddr: "10.0.0.1:443", want: "198.51.100.2"},
		{name: "remote addr host", remoteAddr: "10.0.0.1:443", want: "10.0.0.1"},
		{name: "remote addr without port", remoteAddr: "10.0.0.1", want: "10.0.0.1"},
		{name: "nothing known", want: "unknown"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tc.remoteAddr
			if tc.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tc.forwarded)
			}
			if tc.realIP != "" {
				req.Header.Set("X-Real-Ip", tc.realIP)
			}
			assert.Equal(t, tc.want, ClientAddrKey(req))
		})
	}
}

func TestIsLimitError(t *testing.T) {
	_, ok := IsLimitError(errors.New("plain"))
	assert.False(t, ok)

	wrapped := &Error{Limit: 5, RetryAfter: time.Second}
	got, ok := IsLimitError(wrapped)
	require.True(t, ok)
	assert.Equal(t, 5, got.Limit)
	assert.Contains(t, wrapped.Error(), "5 requests")
}
