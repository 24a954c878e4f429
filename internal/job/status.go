package job

// Status represents the lifecycle state of a download job. Non-terminal
// values reported by the remote service are carried verbatim, so the set
// below lists the states this service assigns; a poll payload may briefly
// surface intermediate remote states (e.g. "processing") between
// StatusDownloading and a terminal state.
type Status string

const (
	// StatusPreparing means the job is queued locally and has not been
	// submitted to the remote service.
	StatusPreparing Status = "preparing"

	// StatusStarting means the job occupies the current slot and submission
	// is in flight.
	StatusStarting Status = "starting"

	// StatusDownloading means the remote service accepted the job and is
	// processing it.
	StatusDownloading Status = "downloading"

	// StatusCompleted means the remote service finished the job successfully.
	StatusCompleted Status = "completed"

	// StatusError means submission or processing failed. Failed jobs are
	// never retried; the user must re-enqueue.
	StatusError Status = "error"

	// StatusCancelled means the user cancelled local tracking. The remote
	// service offers no cancellation API, so a submitted job may keep
	// running unseen.
	StatusCancelled Status = "cancelled"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition occurs from this status.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError || s == StatusCancelled
}

// IsActive reports whether the job occupies the current slot.
func (s Status) IsActive() bool {
	return s == StatusStarting || s == StatusDownloading
}
