package progress

import "sync"

// Tracker is a process-wide map from job ID to the latest observed progress
// percentage. It is safe for concurrent use; reads are lock-cheap since the
// map is read-mostly while jobs are polled.
type Tracker struct {
	mu      sync.RWMutex
	percent map[string]int
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{
		percent: make(map[string]int),
	}
}

// Set records the latest progress for a job, clamped to 0-100. Progress for
// a live job never moves backwards: a lower value than the stored one is
// ignored, so out-of-order updates cannot make a poller see regressions.
func (t *Tracker) Set(jobID string, percent int) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if current, ok := t.percent[jobID]; ok && current > percent {
		return
	}
	t.percent[jobID] = percent
}

// Get returns the latest progress for a job. Unknown job IDs return 0:
// callers cannot distinguish "not yet started" from "already cleaned up".
func (t *Tracker) Get(jobID string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.percent[jobID]
}

// Remove deletes the entry for a job that reached a terminal state.
// Removing an unknown job is a no-op.
func (t *Tracker) Remove(jobID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.percent, jobID)
}

// Len returns the number of tracked jobs.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.percent)
}
