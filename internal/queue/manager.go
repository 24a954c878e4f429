package queue

import (
	"context"
	"sync"
	"time"

	"downloadqueue/config"
	"downloadqueue/internal/job"
	"downloadqueue/internal/remote"
	"downloadqueue/observability/types"
)

const (
	submissionFailedMessage  = "Failed to start download"
	statusUnavailableMessage = "Download status unavailable"
	downloadFailedMessage    = "Download failed"
)

// Manager owns the pending queue, the single active slot and the finished
// history. At most one job is submitted to the remote service at a time;
// everything else waits in FIFO order.
//
// All state transitions happen under m.mu. Remote I/O never runs with the
// lock held: submissions and status probes execute in their own goroutines
// and re-validate that their job still occupies the active slot before
// applying anything.
type Manager struct {
	mu sync.RWMutex

	client  remote.Client
	logger  types.Logger
	metrics types.Metrics

	pending []*job.Job
	current *job.Job
	history []*job.Job

	paused bool
	closed bool

	pollers map[string]*poller
	relay   *NotificationRelay

	pollInterval time.Duration
	advanceDelay time.Duration
}

// NewManager builds a Manager around the given remote client. Intervals come
// from the queue section of the configuration.
func NewManager(client remote.Client, cfg config.QueueConfig, logger types.Logger, metrics types.Metrics) *Manager {
	return &Manager{
		client:       client,
		logger:       logger,
		metrics:      metrics,
		pollers:      make(map[string]*poller),
		relay:        NewNotificationRelay(),
		pollInterval: cfg.PollInterval,
		advanceDelay: cfg.AdvanceDelay,
	}
}

// Enqueue appends a new job to the pending queue and, when the active slot
// is free, immediately promotes the head of the queue into it. The returned
// snapshot reflects any promotion that happened synchronously, so its status
// may already be past "preparing".
func (m *Manager) Enqueue(ctx context.Context, req job.Request) job.Job {
	j := job.New(req)

	m.mu.Lock()
	m.pending = append(m.pending, j)
	m.logger.Info(ctx, "Job enqueued", types.Fields{
		"job_id":   j.ID,
		"url":      j.URL,
		"format":   j.Format,
		"position": len(m.pending),
	})
	m.advanceLocked(ctx)
	snapshot := *j
	m.mu.Unlock()

	return snapshot
}

// advanceLocked promotes the head of the pending queue into the active slot
// and kicks off its remote submission. It is a no-op whenever a job already
// occupies the slot, the queue is empty, or the manager is paused or closed.
// Caller must hold m.mu.
func (m *Manager) advanceLocked(ctx context.Context) {
	if m.current != nil || len(m.pending) == 0 || m.paused || m.closed {
		return
	}

	j := m.pending[0]
	m.pending = m.pending[1:]
	j.Status = job.StatusStarting
	m.current = j

	m.logger.Info(ctx, "Job promoted to active slot", types.Fields{
		"job_id": j.ID,
		"url":    j.URL,
	})

	go m.submit(ctx, j.ID, remote.SubmitRequest{
		URL:     j.URL,
		Format:  j.Format,
		Quality: j.Quality,
	})
}

// submit performs the remote submission for the job currently expected to
// occupy the active slot. By the time it returns the job may have been
// cancelled and replaced, so every outcome is applied behind a staleness
// check.
func (m *Manager) submit(ctx context.Context, jobID string, req remote.SubmitRequest) {
	start := time.Now()
	remoteID, err := m.client.SubmitJob(ctx, req)
	m.metrics.RecordDuration("submit", time.Since(start).Seconds())

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil || m.current.ID != jobID {
		return
	}

	if err != nil {
		m.metrics.RecordError("submit", "submission_failed")
		msg := remote.ServerMessage(err)
		if msg == "" {
			msg = submissionFailedMessage
		}
		m.logger.Error(ctx, "Job submission failed", err, types.Fields{
			"job_id": jobID,
		})
		m.current.Status = job.StatusError
		m.current.Error = msg
		m.finalizeLocked(ctx)
		return
	}

	m.metrics.RecordSuccess("submit")
	m.current.RemoteID = remoteID
	m.current.Status = job.StatusDownloading
	m.logger.Info(ctx, "Job accepted by remote service", types.Fields{
		"job_id":    jobID,
		"remote_id": remoteID,
	})
	m.startPollerLocked(remoteID, jobID)
}

// onPollResult folds one status payload into the active job. Stale results,
// meaning the probed job no longer holds the active slot, only tear down
// their own probe.
func (m *Manager) onPollResult(ctx context.Context, p *poller, payload *remote.StatusPayload) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil || m.current.ID != p.jobID {
		m.stopPollerLocked(p.remoteID)
		return
	}

	j := m.current
	j.Status = job.Status(payload.Status)
	j.Progress = payload.Progress
	j.Speed = payload.Speed
	j.ETA = payload.ETA
	j.DownloadedBytes = payload.DownloadedBytes
	j.TotalBytes = payload.TotalBytes
	j.Result = payload.Result

	// The remote service is authoritative for final metadata on any
	// terminal payload, including partial results of a failed job.
	switch j.Status {
	case job.StatusCompleted:
		j.PromoteResult(payload.Result)
		m.metrics.RecordSuccess("download")
		if j.TotalBytes > 0 {
			m.metrics.RecordFileSize("download", j.TotalBytes)
		}
		m.logger.Info(ctx, "Download completed", types.Fields{
			"job_id":   j.ID,
			"filename": j.Filename,
			"size":     j.TotalBytes,
		})
		m.finalizeLocked(ctx)
	case job.StatusError:
		j.PromoteResult(payload.Result)
		j.Error = failureMessage(payload)
		m.metrics.RecordError("download", "remote_error")
		m.logger.Error(ctx, "Download failed", nil, types.Fields{
			"job_id": j.ID,
			"reason": j.Error,
		})
		m.finalizeLocked(ctx)
	}
}

// onPollError handles a failed status probe. The job is marked failed right
// away rather than waiting out transient conditions; the remote service is
// close enough that an unreachable status endpoint means the download is
// not observable anymore.
func (m *Manager) onPollError(ctx context.Context, p *poller) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil || m.current.ID != p.jobID {
		m.stopPollerLocked(p.remoteID)
		return
	}

	m.metrics.RecordError("poll", "status_unavailable")
	m.current.Status = job.StatusError
	m.current.Error = statusUnavailableMessage
	m.finalizeLocked(ctx)
}

// failureMessage picks the most specific failure description available in a
// terminal error payload.
func failureMessage(payload *remote.StatusPayload) string {
	if payload.Error != "" {
		return payload.Error
	}
	if payload.Result != nil && len(payload.Result.Errors) > 0 {
		return payload.Result.Errors[0]
	}
	return downloadFailedMessage
}

// finalizeLocked retires the active job: its probe is stopped, completed
// jobs are handed to the notification relay, the job moves to the front of
// the history, and after a short delay the next pending job is promoted.
// Caller must hold m.mu and m.current must be non-nil and terminal.
func (m *Manager) finalizeLocked(ctx context.Context) {
	j := m.current

	if j.RemoteID != "" {
		m.stopPollerLocked(j.RemoteID)
	}

	if j.Status == job.StatusCompleted {
		m.relay.push(*j)
	}

	m.history = append([]*job.Job{j}, m.history...)
	m.current = nil

	time.AfterFunc(m.advanceDelay, func() {
		m.mu.Lock()
		m.advanceLocked(ctx)
		m.mu.Unlock()
	})
}

// Cancel removes a job by identifier. A pending job is dropped without ever
// contacting the remote service. The active job is marked cancelled and
// retired, which also stops its probe. Returns false when no queued or
// active job matches.
func (m *Manager) Cancel(ctx context.Context, id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil && m.current.ID == id {
		m.current.Status = job.StatusCancelled
		m.logger.Info(ctx, "Active job cancelled", types.Fields{"job_id": id})
		m.finalizeLocked(ctx)
		return true
	}

	// A pending job never started, so it is dropped outright rather than
	// finalized into the history.
	for i, j := range m.pending {
		if j.ID == id {
			m.pending = append(m.pending[:i], m.pending[i+1:]...)
			m.logger.Info(ctx, "Pending job removed", types.Fields{"job_id": id})
			return true
		}
	}

	return false
}

// SetPaused toggles queue advancement. Pausing never interrupts the active
// job; it only prevents promotions and probe updates. Unpausing immediately
// tries to promote the head of the queue.
func (m *Manager) SetPaused(ctx context.Context, paused bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.paused == paused {
		return
	}
	m.paused = paused
	m.logger.Info(ctx, "Queue pause state changed", types.Fields{"paused": paused})

	if !paused {
		m.advanceLocked(ctx)
	}
}

// Paused reports whether queue advancement is suspended.
func (m *Manager) Paused() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paused
}

// RemoveFromHistory deletes one finished job by identifier. Returns false
// when the identifier is not present.
func (m *Manager) RemoveFromHistory(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, j := range m.history {
		if j.ID == id {
			m.history = append(m.history[:i], m.history[i+1:]...)
			return true
		}
	}
	return false
}

// Pending returns snapshots of the queued jobs in FIFO order.
func (m *Manager) Pending() []job.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return snapshotAll(m.pending)
}

// Current returns a snapshot of the active job, if any.
func (m *Manager) Current() (job.Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return job.Job{}, false
	}
	return *m.current, true
}

// History returns snapshots of finished jobs, newest first.
func (m *Manager) History() []job.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return snapshotAll(m.history)
}

// Completed returns the completed subset of the history, newest first.
func (m *Manager) Completed() []job.Job {
	return m.historyFiltered(func(j *job.Job) bool { return j.Status == job.StatusCompleted })
}

// Failed returns the errored and cancelled subset of the history, newest
// first.
func (m *Manager) Failed() []job.Job {
	return m.historyFiltered(func(j *job.Job) bool {
		return j.Status == job.StatusError || j.Status == job.StatusCancelled
	})
}

// Active returns snapshots of every job that is not yet finished, the
// active job first followed by the pending queue.
func (m *Manager) Active() []job.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]job.Job, 0, len(m.pending)+1)
	if m.current != nil {
		out = append(out, *m.current)
	}
	for _, j := range m.pending {
		out = append(out, *j)
	}
	return out
}

// HistoryJob returns a snapshot of one finished job by identifier.
func (m *Manager) HistoryJob(id string) (job.Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, j := range m.history {
		if j.ID == id {
			return *j, true
		}
	}
	return job.Job{}, false
}

// Notifications exposes the completion relay.
func (m *Manager) Notifications() *NotificationRelay {
	return m.relay
}

// Close stops every running probe and prevents further promotions. Jobs
// already in the queue are left in place so their state can still be read.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	for remoteID := range m.pollers {
		m.stopPollerLocked(remoteID)
	}
}

func (m *Manager) historyFiltered(keep func(*job.Job) bool) []job.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]job.Job, 0, len(m.history))
	for _, j := range m.history {
		if keep(j) {
			out = append(out, *j)
		}
	}
	return out
}

func snapshotAll(jobs []*job.Job) []job.Job {
	out := make([]job.Job, len(jobs))
	for i, j := range jobs {
		out[i] = *j
	}
	return out
}
