package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"downloadqueue/config"
	"downloadqueue/internal/artifact"
	"downloadqueue/internal/job"
	"downloadqueue/internal/queue"
	"downloadqueue/internal/remote"
	"downloadqueue/internal/storage/fs"
	"downloadqueue/mocks"
	"downloadqueue/observability/logger"
	obsmocks "downloadqueue/observability/mocks"
	"downloadqueue/observability/types"
)

const waitFor = 2 * time.Second

type testEnv struct {
	server  *Server
	manager *queue.Manager
	client  *mocks.MockRemoteClient
	store   *fs.Storage
}

func testObservability() (types.Logger, types.Metrics) {
	metrics := &obsmocks.MockMetrics{}
	metrics.On("RecordSuccess", mock.Anything).Maybe()
	metrics.On("RecordError", mock.Anything, mock.Anything).Maybe()
	metrics.On("RecordDuration", mock.Anything, mock.Anything).Maybe()
	metrics.On("RecordFileSize", mock.Anything, mock.Anything).Maybe()
	metrics.On("StartOperation", mock.Anything).Maybe()
	metrics.On("EndOperation", mock.Anything).Maybe()
	return logger.New("server-test", "test", "error", io.Discard, nil), metrics
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log, metrics := testObservability()
	client := &mocks.MockRemoteClient{}

	manager := queue.NewManager(client, config.QueueConfig{
		PollInterval: 10 * time.Millisecond,
		AdvanceDelay: 5 * time.Millisecond,
	}, log, metrics)
	t.Cleanup(manager.Close)

	store, err := fs.New(t.TempDir(), log, metrics)
	require.NoError(t, err)

	saver := artifact.NewSaver(client, store, log, metrics)
	srv := New(manager, saver, client, config.ServerConfig{Addr: ":0", Timeout: time.Second}, log, metrics)

	return &testEnv{server: srv, manager: manager, client: client, store: store}
}

func (e *testEnv) request(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeJob(t *testing.T, rec *httptest.ResponseRecorder) job.Job {
	t.Helper()
	var j job.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &j))
	return j
}

func completedPayload() *remote.StatusPayload {
	return &remote.StatusPayload{
		Status:     "completed",
		Progress:   100,
		TotalBytes: 11,
		Result: &job.ResultPayload{
			Downloads: []job.ResultEntry{
				{Title: "Test Song", Filename: "song.mp3", Size: 11},
			},
		},
	}
}

// finishJob runs one job through the queue to a completed state.
func finishJob(t *testing.T, e *testEnv) job.Job {
	t.Helper()

	e.client.On("SubmitJob", mock.Anything, mock.Anything).Return("remote-1", nil).Once()
	e.client.On("FetchStatus", mock.Anything, "remote-1").Return(completedPayload(), nil)

	rec := e.request(t, http.MethodPost, "/api/queue", map[string]string{
		"url":    "https://example.com/v1",
		"format": "mp3",
	})
	require.Equal(t, http.StatusAccepted, rec.Code)
	enqueued := decodeJob(t, rec)

	require.Eventually(t, func() bool {
		return len(e.manager.History()) == 1
	}, waitFor, time.Millisecond)

	return enqueued
}

func TestEnqueueEndpoint(t *testing.T) {
	e := newTestEnv(t)
	e.client.On("SubmitJob", mock.Anything, mock.Anything).Return("remote-1", nil)
	e.client.On("FetchStatus", mock.Anything, "remote-1").
		Return(&remote.StatusPayload{Status: "downloading", Progress: 10}, nil)

	rec := e.request(t, http.MethodPost, "/api/queue", map[string]string{
		"url":    "https://example.com/v1",
		"format": "mp3",
	})

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	j := decodeJob(t, rec)
	assert.NotEmpty(t, j.ID)
	assert.Equal(t, "https://example.com/v1", j.URL)
	assert.Equal(t, job.DefaultTitle, j.Title)
}

func TestEnqueueValidation(t *testing.T) {
	e := newTestEnv(t)

	t.Run("missing url", func(t *testing.T) {
		rec := e.request(t, http.MethodPost, "/api/queue", map[string]string{"format": "mp3"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/queue", strings.NewReader("{"))
		rec := httptest.NewRecorder()
		e.server.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestQueueStateEndpoint(t *testing.T) {
	e := newTestEnv(t)
	e.client.On("SubmitJob", mock.Anything, mock.Anything).Return("remote-1", nil)
	e.client.On("FetchStatus", mock.Anything, "remote-1").
		Return(&remote.StatusPayload{Status: "downloading", Progress: 10}, nil)

	e.request(t, http.MethodPost, "/api/queue", map[string]string{"url": "https://example.com/v1"})
	e.request(t, http.MethodPost, "/api/queue", map[string]string{"url": "https://example.com/v2"})

	require.Eventually(t, func() bool {
		_, ok := e.manager.Current()
		return ok
	}, waitFor, time.Millisecond)

	rec := e.request(t, http.MethodGet, "/api/queue", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var state queueState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.False(t, state.Paused)
	require.NotNil(t, state.Current)
	assert.Equal(t, "https://example.com/v1", state.Current.URL)
	require.Len(t, state.Pending, 1)
	assert.Equal(t, "https://example.com/v2", state.Pending[0].URL)
}

func TestCurrentEndpointEmpty(t *testing.T) {
	e := newTestEnv(t)
	rec := e.request(t, http.MethodGet, "/api/queue/current", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancelEndpoint(t *testing.T) {
	e := newTestEnv(t)

	t.Run("unknown job", func(t *testing.T) {
		rec := e.request(t, http.MethodDelete, "/api/queue/no-such-job", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("pending job", func(t *testing.T) {
		e.manager.SetPaused(context.Background(), true)
		rec := e.request(t, http.MethodPost, "/api/queue", map[string]string{"url": "https://example.com/v1"})
		queued := decodeJob(t, rec)

		rec = e.request(t, http.MethodDelete, "/api/queue/"+queued.ID, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, e.manager.Pending())
	})
}

func TestPauseEndpoints(t *testing.T) {
	e := newTestEnv(t)

	rec := e.request(t, http.MethodPut, "/api/queue/paused", pausedRequest{Paused: true})
	require.Equal(t, http.StatusOK, rec.Code)

	var state pausedRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.True(t, state.Paused)

	rec = e.request(t, http.MethodGet, "/api/queue/paused", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.True(t, state.Paused)
}

func TestHistoryEndpoints(t *testing.T) {
	e := newTestEnv(t)
	finished := finishJob(t, e)

	rec := e.request(t, http.MethodGet, "/api/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var history []job.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history, 1)
	assert.Equal(t, finished.ID, history[0].ID)

	rec = e.request(t, http.MethodGet, "/api/history?filter=completed", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	assert.Len(t, history, 1)

	rec = e.request(t, http.MethodGet, "/api/history?filter=failed", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	assert.Empty(t, history)

	rec = e.request(t, http.MethodDelete, "/api/history/"+finished.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = e.request(t, http.MethodDelete, "/api/history/"+finished.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNotificationEndpoints(t *testing.T) {
	e := newTestEnv(t)

	rec := e.request(t, http.MethodGet, "/api/notifications/next", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	finished := finishJob(t, e)

	rec = e.request(t, http.MethodGet, "/api/notifications/next", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	notified := decodeJob(t, rec)
	assert.Equal(t, finished.ID, notified.ID)

	rec = e.request(t, http.MethodGet, "/api/notifications/next", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code, "delivered exactly once")
}

func TestSaveArtifactEndpoint(t *testing.T) {
	e := newTestEnv(t)
	finished := finishJob(t, e)

	e.client.On("FetchArtifact", mock.Anything, "song.mp3").
		Return(io.NopCloser(strings.NewReader("audio-bytes")), nil)

	rec := e.request(t, http.MethodPost, "/api/save/"+finished.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp saveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "song.mp3", resp.Key)

	exists, err := e.store.Exists(context.Background(), "song.mp3")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSaveArtifactUnknownJob(t *testing.T) {
	e := newTestEnv(t)
	rec := e.request(t, http.MethodPost, "/api/save/no-such-job", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSaveArtifactFetchFailure(t *testing.T) {
	e := newTestEnv(t)
	finished := finishJob(t, e)

	e.client.On("FetchArtifact", mock.Anything, "song.mp3").
		Return(nil, &remote.TransportError{Op: "fetch artifact", Err: errors.New("connection refused")})

	rec := e.request(t, http.MethodPost, "/api/save/"+finished.ID, nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestMetadataEndpoint(t *testing.T) {
	e := newTestEnv(t)

	t.Run("success", func(t *testing.T) {
		e.client.On("FetchMetadata", mock.Anything, "https://example.com/v1").
			Return(&remote.Metadata{
				Success: true,
				Videos:  []remote.VideoInfo{{Title: "Test Song", Duration: 212}},
			}, nil).Once()

		rec := e.request(t, http.MethodPost, "/api/metadata", map[string]string{"url": "https://example.com/v1"})
		require.Equal(t, http.StatusOK, rec.Code)

		var meta remote.Metadata
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &meta))
		assert.True(t, meta.Success)
		require.Len(t, meta.Videos, 1)
		assert.Equal(t, "Test Song", meta.Videos[0].Title)
	})

	t.Run("remote failure with server message", func(t *testing.T) {
		e.client.On("FetchMetadata", mock.Anything, "https://example.com/bad").
			Return(nil, &remote.ProtocolError{Op: "fetch_metadata", Message: "Unsupported URL"}).Once()

		rec := e.request(t, http.MethodPost, "/api/metadata", map[string]string{"url": "https://example.com/bad"})
		require.Equal(t, http.StatusBadGateway, rec.Code)

		var resp errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Unsupported URL", resp.Error)
	})

	t.Run("missing url", func(t *testing.T) {
		rec := e.request(t, http.MethodPost, "/api/metadata", map[string]string{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHealthEndpoint(t *testing.T) {
	e := newTestEnv(t)
	rec := e.request(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
