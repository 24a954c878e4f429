package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"downloadqueue/observability/types"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"debug", DebugLevel},
		{"info", InfoLevel},
		{"warn", WarnLevel},
		{"error", ErrorLevel},
		{"unknown", InfoLevel},
		{"", InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{DebugLevel, "debug"},
		{InfoLevel, "info"},
		{WarnLevel, "warn"},
		{ErrorLevel, "error"},
		{LogLevel(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.level.String())
		})
	}
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	logger := New("queue-manager", "test", "info", &buf, types.Fields{
		"version": "1.0.0",
	})

	assert.NotNil(t, logger)
	assert.Equal(t, "queue-manager", logger.serviceName)
	assert.Equal(t, "test", logger.environment)
	assert.Equal(t, InfoLevel, logger.minLevel)
}

func TestJSONLogger_EntryFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New("queue-manager", "test", "debug", &buf, types.Fields{
		"version": "1.0.0",
	})

	logger.Info(context.Background(), "job enqueued", types.Fields{
		"url": "https://example.com/watch?v=abc",
	})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "queue-manager", entry["service"])
	assert.Equal(t, "test", entry["env"])
	assert.Equal(t, "job enqueued", entry["message"])
	assert.Equal(t, "https://example.com/watch?v=abc", entry["url"])
	assert.Equal(t, "1.0.0", entry["version"])
	assert.NotEmpty(t, entry["timestamp"])
	assert.NotEmpty(t, entry["hostname"])
}

func TestJSONLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New("queue-manager", "test", "warn", &buf, nil)

	logger.Debug(context.Background(), "debug message", nil)
	logger.Info(context.Background(), "info message", nil)
	assert.Zero(t, buf.Len())

	logger.Warn(context.Background(), "warn message", nil)
	assert.NotZero(t, buf.Len())
}

func TestJSONLogger_Error(t *testing.T) {
	var buf bytes.Buffer
	logger := New("queue-manager", "test", "info", &buf, nil)

	logger.Error(context.Background(), "submission failed", errors.New("connection refused"), nil)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "connection refused", entry["error"])
	assert.Equal(t, "*errors.errorString", entry["error_type"])
}

func TestJSONLogger_ContextValues(t *testing.T) {
	var buf bytes.Buffer
	logger := New("queue-manager", "test", "info", &buf, nil)

	ctx := context.WithValue(context.Background(), "job_id", "job-123") //nolint:staticcheck
	logger.Info(ctx, "polling", nil)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "job-123", entry["job_id"])
}

func TestJSONLogger_WithFields(t *testing.T) {
	var buf bytes.Buffer
	base := New("queue-manager", "test", "info", &buf, types.Fields{"a": "1"})

	scoped := base.WithFields(types.Fields{"b": "2"})
	scoped.Info(context.Background(), "scoped entry", nil)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "1", entry["a"])
	assert.Equal(t, "2", entry["b"])
}
