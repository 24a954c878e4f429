package queue

import (
	"sync"

	"downloadqueue/internal/job"
)

// NotificationRelay is a secondary FIFO of jobs that completed successfully,
// kept separate from the history so a presentation layer can consume
// "just finished" events exactly once each.
type NotificationRelay struct {
	mu      sync.Mutex
	pending []job.Job
}

// NewNotificationRelay creates an empty relay.
func NewNotificationRelay() *NotificationRelay {
	return &NotificationRelay{}
}

// push appends a completed job copy to the relay tail.
func (r *NotificationRelay) push(j job.Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(r.pending, j)
}

// TakeNext pops and returns the oldest unnotified completed job.
// Consumption is destructive and exactly-once.
func (r *NotificationRelay) TakeNext() (job.Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.pending) == 0 {
		return job.Job{}, false
	}

	next := r.pending[0]
	r.pending = r.pending[1:]
	return next, true
}

// Discard removes the entry for the given job identity, if present. Use it
// when a caller decides not to notify for a job, e.g. because it was removed
// from the history in the interim.
func (r *NotificationRelay) Discard(jobID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	filtered := r.pending[:0]
	for _, j := range r.pending {
		if j.ID != jobID {
			filtered = append(filtered, j)
		}
	}
	r.pending = filtered
}

// Len returns the number of unconsumed notifications.
func (r *NotificationRelay) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}
