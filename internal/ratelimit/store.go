package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Store tracks fixed-window attempt counters per key.
//
// Increment records one attempt for key inside the current window and returns
// the attempt count within that window together with the moment the window
// resets. An elapsed window is replaced with a fresh one, never incremented.
type Store interface {
	Increment(ctx context.Context, key string, window time.Duration) (count int, reset time.Time, err error)
}

// memoryEntry is one per-key counter with its window anchor.
type memoryEntry struct {
	count       int
	windowStart time.Time
}

// MemoryStore is the in-process Store. Entries for keys that went quiet are
// removed by a background sweep so memory is bounded by recently active keys
// rather than every key ever seen.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	now     func() time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
}

// MemoryStoreOptions configure a MemoryStore.
type MemoryStoreOptions struct {
	// Now overrides the clock, for tests. Defaults to time.Now.
	Now func() time.Time
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore(opts MemoryStoreOptions) *MemoryStore {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		entries: make(map[string]*memoryEntry),
		now:     now,
		stopCh:  make(chan struct{}),
	}
}

// Increment implements Store.
func (s *MemoryStore) Increment(_ context.Context, key string, window time.Duration) (int, time.Time, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok || now.Sub(entry.windowStart) >= window {
		entry = &memoryEntry{count: 1, windowStart: now}
		s.entries[key] = entry
		return 1, now.Add(window), nil
	}

	entry.count++
	return entry.count, entry.windowStart.Add(window), nil
}

// Sweep removes entries whose window has elapsed. Live counters are untouched.
func (s *MemoryStore) Sweep(window time.Duration) int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, entry := range s.entries {
		if now.Sub(entry.windowStart) >= window {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// StartCleanup launches the background sweep at the given interval and returns
// a stop function. The stop function is idempotent and must be called during
// shutdown so the ticker goroutine does not outlive the process (or the test).
func (s *MemoryStore) StartCleanup(interval, window time.Duration) func() {
	if interval <= 0 {
		interval = window
	}

	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Sweep(window)
			case <-done:
				return
			case <-s.stopCh:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}

// Close stops every cleanup goroutine started from this store.
func (s *MemoryStore) Close() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

var _ Store = (*MemoryStore)(nil)
