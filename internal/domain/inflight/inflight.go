// Package inflight tracks which users currently have a refresh job queued
// or running, so at most one job per user is in flight at a time.
package inflight

import (
	"context"
	"sync"
	"sync/atomic"
)

// Tracker records users with an in-flight refresh.
type Tracker interface {
	// Begin atomically marks userID as in flight. It returns false when a
	// refresh for that user is already queued or running, in which case the
	// caller must not enqueue another job.
	Begin(ctx context.Context, userID string) bool

	// Finish clears the in-flight marker once the job completed or failed,
	// or when enqueueing was rejected after Begin succeeded.
	Finish(ctx context.Context, userID string)

	// Size returns the number of users currently in flight.
	Size() int64
}

// tracker implements Tracker with a mutex-guarded set. Entries are removed
// on Finish, so the set is bounded by the active user population.
type tracker struct {
	mu    sync.Mutex
	users map[string]struct{}
	size  atomic.Int64
}

// NewTracker creates an empty in-flight tracker.
func NewTracker() Tracker {
	return &tracker{users: make(map[string]struct{})}
}

func (t *tracker) Begin(_ context.Context, userID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.users[userID]; exists {
		return false
	}
	t.users[userID] = struct{}{}
	t.size.Add(1)
	return true
}

func (t *tracker) Finish(_ context.Context, userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.users[userID]; exists {
		delete(t.users, userID)
		t.size.Add(-1)
	}
}

func (t *tracker) Size() int64 {
	return t.size.Load()
}
