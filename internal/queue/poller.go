package queue

import (
	"context"
	"sync"
	"time"

	"downloadqueue/observability/types"
)

// poller is the repeating status probe bound to one active job. It is
// deliberately dumb: no backoff and no retry budget, because the manager
// treats any probe failure as immediately terminal.
type poller struct {
	remoteID string
	jobID    string
	ticker   *time.Ticker
	done     chan struct{}
	stopOnce sync.Once
}

// stop cancels the probe. Safe to call more than once.
func (p *poller) stop() {
	p.stopOnce.Do(func() {
		p.ticker.Stop()
		close(p.done)
	})
}

// startPollerLocked registers a probe for the job's remote identifier and
// launches its tick loop. Idempotent per remote identifier: a second call
// while a probe is registered is ignored. Caller must hold m.mu.
func (m *Manager) startPollerLocked(remoteID, jobID string) {
	if _, exists := m.pollers[remoteID]; exists {
		return
	}

	p := &poller{
		remoteID: remoteID,
		jobID:    jobID,
		ticker:   time.NewTicker(m.pollInterval),
		done:     make(chan struct{}),
	}
	m.pollers[remoteID] = p

	go m.runPoller(p)
}

// stopPollerLocked cancels and deregisters the probe for the given remote
// identifier. Safe to call when none is registered. Caller must hold m.mu.
func (m *Manager) stopPollerLocked(remoteID string) {
	if p, ok := m.pollers[remoteID]; ok {
		p.stop()
		delete(m.pollers, remoteID)
	}
}

// runPoller drives one probe until it is stopped. Ticks are skipped while
// the manager is paused so no in-flight progress is misattributed after
// unpausing.
func (m *Manager) runPoller(p *poller) {
	ctx := context.WithValue(context.Background(), "job_id", p.jobID) //nolint:staticcheck

	for {
		select {
		case <-p.done:
			return
		case <-p.ticker.C:
			if m.Paused() {
				continue
			}

			payload, err := m.client.FetchStatus(ctx, p.remoteID)
			if err != nil {
				m.logger.Error(ctx, "Status probe failed", err, types.Fields{
					"remote_id": p.remoteID,
				})
				m.onPollError(ctx, p)
				continue
			}

			m.onPollResult(ctx, p, payload)
		}
	}
}
