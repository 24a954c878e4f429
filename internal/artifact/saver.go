// Package artifact archives finished downloads from the remote service
// into object storage.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"time"

	"downloadqueue/internal/job"
	"downloadqueue/internal/remote"
	"downloadqueue/internal/storage"
	"downloadqueue/observability/types"
)

// ErrNoFilename is returned when a job carries no artifact filename.
var ErrNoFilename = errors.New("job has no artifact filename")

// ErrNotCompleted is returned when archiving is requested for a job that
// did not finish successfully.
var ErrNotCompleted = errors.New("job is not completed")

// Saver copies a completed job's artifact from the remote service into
// object storage. Archival failures never touch queue state; the job stays
// in the history and the save can be retried.
type Saver struct {
	client  remote.Client
	store   storage.ObjectStorage
	logger  types.Logger
	metrics types.Metrics
}

// NewSaver builds a Saver around the remote client and an object store.
func NewSaver(client remote.Client, store storage.ObjectStorage, logger types.Logger, metrics types.Metrics) *Saver {
	return &Saver{
		client:  client,
		store:   store,
		logger:  logger,
		metrics: metrics,
	}
}

// Save streams the job's artifact into storage under its filename and
// returns the stored key.
func (s *Saver) Save(ctx context.Context, j job.Job) (string, error) {
	if j.Status != job.StatusCompleted {
		return "", ErrNotCompleted
	}

	filename := artifactFilename(j)
	if filename == "" {
		return "", ErrNoFilename
	}

	start := time.Now()
	s.metrics.StartOperation("archive")
	defer s.metrics.EndOperation("archive")

	s.logger.Info(ctx, "Archiving artifact", types.Fields{
		"job_id":   j.ID,
		"filename": filename,
	})

	reader, err := s.client.FetchArtifact(ctx, filename)
	if err != nil {
		s.metrics.RecordError("archive", "fetch")
		s.logger.Error(ctx, "Failed to fetch artifact", err, types.Fields{
			"job_id":   j.ID,
			"filename": filename,
		})
		return "", fmt.Errorf("failed to fetch artifact: %w", err)
	}
	defer reader.Close()

	written, err := s.store.Put(ctx, filename, reader)
	if err != nil {
		s.metrics.RecordError("archive", "store")
		s.logger.Error(ctx, "Failed to store artifact", err, types.Fields{
			"job_id":   j.ID,
			"filename": filename,
		})
		return "", fmt.Errorf("failed to store artifact: %w", err)
	}

	s.metrics.RecordSuccess("archive")
	s.metrics.RecordDuration("archive", time.Since(start).Seconds())
	s.logger.Info(ctx, "Artifact archived", types.Fields{
		"job_id":      j.ID,
		"filename":    filename,
		"bytes":       written,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return filename, nil
}

// artifactFilename resolves the artifact name, preferring the job's own
// filename over the first download entry in its result payload.
func artifactFilename(j job.Job) string {
	if j.Filename != "" {
		return j.Filename
	}
	if j.Result != nil && len(j.Result.Downloads) > 0 {
		return j.Result.Downloads[0].Filename
	}
	return ""
}
