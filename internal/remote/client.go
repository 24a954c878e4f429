// Package remote implements the HTTP client for the job-processing service.
// The client owns no state; every call is independent and performs exactly
// one attempt. Failures are never retried here because the queue manager
// treats them as immediately terminal.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"downloadqueue/config"
	"downloadqueue/internal/job"
	"downloadqueue/observability/types"
)

// Client defines the narrow contract with the remote job-processing service.
type Client interface {
	// SubmitJob creates a remote download job and returns its identifier.
	// It fails with a *TransportError when the network call fails, or a
	// *ProtocolError when the response is malformed or omits the identifier.
	SubmitJob(ctx context.Context, req SubmitRequest) (string, error)

	// FetchStatus retrieves the current status payload for a remote job.
	FetchStatus(ctx context.Context, remoteID string) (*StatusPayload, error)

	// FetchArtifact streams a finished artifact by filename. The caller
	// must close the returned reader.
	FetchArtifact(ctx context.Context, filename string) (io.ReadCloser, error)

	// FetchMetadata retrieves display metadata for a URL without
	// downloading anything.
	FetchMetadata(ctx context.Context, mediaURL string) (*Metadata, error)
}

// SubmitRequest is the job-submission payload.
type SubmitRequest struct {
	URL     string `json:"url"`
	Format  string `json:"format"`
	Quality string `json:"quality"`
}

// StatusPayload is the job-status response. Beyond the known terminal
// values, the status string is passed through verbatim.
type StatusPayload struct {
	Status          string             `json:"status"`
	Progress        float64            `json:"progress"`
	Speed           float64            `json:"speed"`
	ETA             float64            `json:"eta"`
	DownloadedBytes int64              `json:"downloaded_bytes"`
	TotalBytes      int64              `json:"total_bytes"`
	Error           string             `json:"error,omitempty"`
	Result          *job.ResultPayload `json:"result,omitempty"`
}

// Metadata is the media metadata returned by the preview endpoint.
type Metadata struct {
	Success       bool        `json:"success"`
	IsPlaylist    bool        `json:"is_playlist"`
	PlaylistTitle string      `json:"playlist_title,omitempty"`
	Videos        []VideoInfo `json:"videos"`
	Errors        []string    `json:"errors,omitempty"`
}

// VideoInfo describes one media entry in a metadata response.
type VideoInfo struct {
	Title        string  `json:"title"`
	Duration     float64 `json:"duration"`
	ThumbnailURL string  `json:"thumbnail_url,omitempty"`
	Uploader     string  `json:"uploader,omitempty"`
	WebpageURL   string  `json:"webpage_url,omitempty"`
}

// HTTPClient implements Client against the service's JSON API.
type HTTPClient struct {
	client    *http.Client
	baseURL   string
	userAgent string
	logger    types.Logger
	metrics   types.Metrics
}

// NewHTTPClient creates a client for the remote service described by cfg.
func NewHTTPClient(cfg config.RemoteConfig, logger types.Logger, metrics types.Metrics) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
		logger:    logger,
		metrics:   metrics,
	}
}

// SubmitJob implements Client.
func (c *HTTPClient) SubmitJob(ctx context.Context, req SubmitRequest) (string, error) {
	start := time.Now()
	defer func() {
		c.metrics.RecordDuration("submit_job", time.Since(start).Seconds())
	}()

	c.logger.Debug(ctx, "Submitting job", types.Fields{"url": req.URL, "format": req.Format})

	body, err := c.postJSON(ctx, "submit_job", "/api/download", req)
	if err != nil {
		return "", err
	}

	var payload struct {
		JobID string `json:"job_id"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		c.metrics.RecordError("submit_job", "protocol")
		return "", &ProtocolError{Op: "submit job", Message: "invalid JSON response"}
	}
	if payload.JobID == "" {
		c.metrics.RecordError("submit_job", "protocol")
		return "", &ProtocolError{Op: "submit job", Message: "response missing job_id"}
	}

	c.metrics.RecordSuccess("submit_job")
	return payload.JobID, nil
}

// FetchStatus implements Client. Any well-formed payload is passed through
// as-is; the queue manager decides what the fields mean.
func (c *HTTPClient) FetchStatus(ctx context.Context, remoteID string) (*StatusPayload, error) {
	body, err := c.getJSON(ctx, "fetch_status", "/api/download/status/"+url.PathEscape(remoteID))
	if err != nil {
		return nil, err
	}

	var payload StatusPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		c.metrics.RecordError("fetch_status", "protocol")
		return nil, &ProtocolError{Op: "fetch status", Message: "invalid JSON response"}
	}

	c.metrics.RecordSuccess("fetch_status")
	return &payload, nil
}

// FetchArtifact implements Client.
func (c *HTTPClient) FetchArtifact(ctx context.Context, filename string) (io.ReadCloser, error) {
	reqURL := c.baseURL + "/api/download/file/" + url.PathEscape(filename)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &TransportError{Op: "fetch artifact", Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		c.metrics.RecordError("fetch_artifact", "transport")
		return nil, &TransportError{Op: "fetch artifact", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		c.metrics.RecordError("fetch_artifact", "protocol")
		return nil, &ProtocolError{Op: "fetch artifact", Message: c.errorMessage(resp)}
	}

	c.metrics.RecordSuccess("fetch_artifact")
	return resp.Body, nil
}

// FetchMetadata implements Client.
func (c *HTTPClient) FetchMetadata(ctx context.Context, mediaURL string) (*Metadata, error) {
	body, err := c.postJSON(ctx, "fetch_metadata", "/api/metadata", map[string]string{"url": mediaURL})
	if err != nil {
		return nil, err
	}

	var payload Metadata
	if err := json.Unmarshal(body, &payload); err != nil {
		c.metrics.RecordError("fetch_metadata", "protocol")
		return nil, &ProtocolError{Op: "fetch metadata", Message: "invalid JSON response"}
	}

	c.metrics.RecordSuccess("fetch_metadata")
	return &payload, nil
}

// postJSON executes a single POST with a JSON body and returns the raw
// response body for 2xx responses.
func (c *HTTPClient) postJSON(ctx context.Context, operation, path string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, &TransportError{Op: operation, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, &TransportError{Op: operation, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	return c.execute(operation, req)
}

// getJSON executes a single GET and returns the raw response body for 2xx
// responses.
func (c *HTTPClient) getJSON(ctx context.Context, operation, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, &TransportError{Op: operation, Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)

	return c.execute(operation, req)
}

func (c *HTTPClient) execute(operation string, req *http.Request) ([]byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		c.metrics.RecordError(operation, "transport")
		return nil, &TransportError{Op: operation, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.RecordError(operation, "transport")
		return nil, &TransportError{Op: operation, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.RecordError(operation, "protocol")
		return nil, &ProtocolError{Op: operation, Message: serverErrorMessage(resp.StatusCode, body)}
	}

	return body, nil
}

// errorMessage derives a message from a non-OK response, consuming at most
// a small prefix of the body.
func (c *HTTPClient) errorMessage(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return serverErrorMessage(resp.StatusCode, body)
}

// serverErrorMessage prefers the service's {"error": "..."} message and
// falls back to the HTTP status.
func serverErrorMessage(statusCode int, body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return fmt.Sprintf("unexpected status code: %d", statusCode)
}
