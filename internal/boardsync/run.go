package boardsync

import (
	"errors"
	"sync"
	"time"
)

// ErrSyncInProgress is returned when a sync run is requested while
// another one holds the guard. Requests are rejected, never queued.
var ErrSyncInProgress = errors.New("sync already in progress")

// Run is a process-wide guard ensuring at most one sync run at a time.
type Run struct {
	mu         sync.Mutex
	inProgress bool
	entity     string
	startedAt  time.Time
}

// TryStart attempts to acquire the guard for entity. It reports false
// when another run is active.
func (r *Run) TryStart(entity string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inProgress {
		return false
	}
	r.inProgress = true
	r.entity = entity
	r.startedAt = time.Now()
	return true
}

// Finish releases the guard.
func (r *Run) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inProgress = false
	r.entity = ""
	r.startedAt = time.Time{}
}

// InProgress reports whether a run is active.
func (r *Run) InProgress() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inProgress
}

// Current returns the entity of the active run, if any.
func (r *Run) Current() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entity, r.inProgress
}

// StartedAt returns when the active run began; zero when idle.
func (r *Run) StartedAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.startedAt
}
