// Package job contains domain-level building blocks for job tracking that do
// not depend on any adapter: the state-change event bus and transition rules.
package job

import (
	"sync"

	"github.com/resellkit/ops-api/internal/domain/model"
)

// Event is published on every job mutation and carries the full updated snapshot.
type Event struct {
	Job *model.Job
}

// Bus manages per-job-id subscriptions for state-change notifications.
//
// Subscribers attach to a specific job id and receive every snapshot published
// after they attach; there is no replay, so a late subscriber must re-fetch
// current state first. Channels are buffered with capacity one and delivery is
// latest-wins: a slow subscriber observes the most recent snapshot rather than
// blocking the publisher.
type Bus struct {
	mu     sync.Mutex
	subs   map[string]map[chan Event]struct{}
	closed bool
}

// NewBus constructs an empty event bus.
func NewBus() *Bus {
	return &Bus{
		subs: make(map[string]map[chan Event]struct{}),
	}
}

// Subscribe registers interest in mutations of the given job id.
// Returns an unsubscribe function and the receive channel. Calling
// unsubscribe is idempotent and closes the channel.
func (b *Bus) Subscribe(jobID string) (func(), <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, 1)
	if b.closed {
		close(ch)
		return func() {}, ch
	}

	if b.subs[jobID] == nil {
		b.subs[jobID] = make(map[chan Event]struct{})
	}
	b.subs[jobID][ch] = struct{}{}

	unsub := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subscribers := b.subs[jobID]
		if subscribers == nil {
			return
		}
		if _, ok := subscribers[ch]; !ok {
			return
		}
		delete(subscribers, ch)
		drainAndClose(ch)
		if len(subscribers) == 0 {
			delete(b.subs, jobID)
		}
	}

	return unsub, ch
}

// Publish delivers the snapshot to every subscriber of the job's id.
// Snapshots are cloned once so subscribers cannot mutate shared state.
func (b *Bus) Publish(j *model.Job) {
	if j == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	subscribers := b.subs[j.ID]
	if len(subscribers) == 0 {
		return
	}

	snapshot := Event{Job: j.Clone()}
	for ch := range subscribers {
		select {
		case ch <- snapshot:
		default:
			// Replace the stale buffered snapshot with the newest one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snapshot:
			default:
			}
		}
	}
}

// SubscriberCount returns the number of active subscribers for a job id.
func (b *Bus) SubscriberCount(jobID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[jobID])
}

// Close tears down every subscription. Further publishes are no-ops and
// further subscribes receive an already-closed channel.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for jobID, subscribers := range b.subs {
		for ch := range subscribers {
			drainAndClose(ch)
		}
		delete(b.subs, jobID)
	}
}

// drainAndClose removes any buffered notification before closing the channel
// so receivers observe a closed channel immediately.
func drainAndClose(ch chan Event) {
	for {
		select {
		case <-ch:
		default:
			close(ch)
			return
		}
	}
}
