// Package job defines the download job entity and its lifecycle states.
package job

import (
	"time"

	"github.com/google/uuid"

	"downloadqueue/internal/format"
)

// DefaultTitle is the placeholder display title used until the remote
// service returns authoritative metadata.
const DefaultTitle = "In Queue..."

// Job represents one requested download and its tracked lifecycle. A job is
// created in StatusPreparing, mutated in place by the queue manager and the
// poller, and never mutated again once it reaches the history.
type Job struct {
	ID           string  `json:"id"`
	URL          string  `json:"url"`
	Format       string  `json:"format"`
	Quality      string  `json:"quality"`
	Title        string  `json:"title"`
	ThumbnailURL string  `json:"thumbnail_url,omitempty"`
	Duration     float64 `json:"duration,omitempty"`

	Status          Status  `json:"status"`
	Progress        float64 `json:"progress"`
	Speed           float64 `json:"speed"`
	ETA             float64 `json:"eta"`
	DownloadedBytes int64   `json:"downloaded_bytes"`
	TotalBytes      int64   `json:"total_bytes"`

	// RemoteID is the identifier assigned by the remote service. It is
	// empty until submission succeeds and non-empty from StatusDownloading
	// onward.
	RemoteID string `json:"job_id,omitempty"`

	// Result is populated only when the job reaches a terminal state
	// reported by the remote service.
	Result *ResultPayload `json:"result,omitempty"`

	// Filename and Size are promoted from the first result entry on
	// completion. SizeDisplay is the human-readable rendering of Size.
	Filename    string `json:"filename,omitempty"`
	Size        int64  `json:"size,omitempty"`
	SizeDisplay string `json:"size_display,omitempty"`

	// Error holds a human-readable message, populated only on failure.
	Error string `json:"error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// ResultPayload is the terminal result reported by the remote service.
type ResultPayload struct {
	Downloads []ResultEntry `json:"downloads,omitempty"`
	Errors    []string      `json:"errors,omitempty"`
}

// ResultEntry describes one produced artifact.
type ResultEntry struct {
	Title        string  `json:"title,omitempty"`
	Filename     string  `json:"filename,omitempty"`
	ThumbnailURL string  `json:"thumbnail_url,omitempty"`
	Duration     float64 `json:"duration,omitempty"`
	Size         int64   `json:"size,omitempty"`
}

// Request describes a download to enqueue. Metadata fields are used only
// for display until the remote service returns authoritative values.
type Request struct {
	URL          string  `json:"url"`
	Format       string  `json:"format"`
	Quality      string  `json:"quality"`
	Title        string  `json:"title,omitempty"`
	ThumbnailURL string  `json:"thumbnail_url,omitempty"`
	Duration     float64 `json:"duration,omitempty"`
}

// New constructs a Job from a request in StatusPreparing with a fresh
// unique identifier.
func New(req Request) *Job {
	title := req.Title
	if title == "" {
		title = DefaultTitle
	}

	return &Job{
		ID:           uuid.NewString(),
		URL:          req.URL,
		Format:       req.Format,
		Quality:      req.Quality,
		Title:        title,
		ThumbnailURL: req.ThumbnailURL,
		Duration:     req.Duration,
		Status:       StatusPreparing,
		CreatedAt:    time.Now().UTC(),
	}
}

// PromoteResult copies the terminal result payload onto the job and, when a
// first result entry is present, promotes its metadata. The remote service
// is authoritative for final metadata.
func (j *Job) PromoteResult(result *ResultPayload) {
	j.Result = result
	if result == nil || len(result.Downloads) == 0 {
		return
	}

	first := result.Downloads[0]
	if first.Title != "" {
		j.Title = first.Title
	} else {
		j.Title = "Finished"
	}
	j.Filename = first.Filename
	if first.ThumbnailURL != "" {
		j.ThumbnailURL = first.ThumbnailURL
	}
	if first.Duration > 0 {
		j.Duration = first.Duration
	}
	j.Size = first.Size
	if first.Size > 0 {
		j.SizeDisplay = format.Bytes(first.Size)
	}
}

// IsCompleted reports whether the job finished successfully.
func (j *Job) IsCompleted() bool {
	return j.Status == StatusCompleted
}

// IsFailed reports whether the job ended in an error state.
func (j *Job) IsFailed() bool {
	return j.Status == StatusError
}
