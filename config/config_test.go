package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := parse()
	require.NoError(t, err)

	assert.Equal(t, "download-queue", cfg.ServiceName)
	assert.Equal(t, "http://localhost:5000", cfg.Remote.BaseURL)
	assert.Equal(t, 2*time.Second, cfg.Queue.PollInterval)
	assert.Equal(t, 100*time.Millisecond, cfg.Queue.AdvanceDelay)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "fs", cfg.Storage.Provider)
	assert.Equal(t, 3, cfg.Storage.MaxRetries)
	assert.True(t, cfg.Storage.S3.ForcePathStyle)
}

func TestParse_EnvOverrides(t *testing.T) {
	t.Setenv("REMOTE_BASE_URL", "http://downloader:9000")
	t.Setenv("QUEUE_POLL_INTERVAL", "500ms")
	t.Setenv("STORAGE_PROVIDER", "s3")
	t.Setenv("STORAGE_BUCKET", "artifacts")
	t.Setenv("STORAGE_MAX_RETRIES", "7")
	t.Setenv("S3_FORCE_PATH_STYLE", "false")

	cfg, err := parse()
	require.NoError(t, err)

	assert.Equal(t, "http://downloader:9000", cfg.Remote.BaseURL)
	assert.Equal(t, 500*time.Millisecond, cfg.Queue.PollInterval)
	assert.Equal(t, "s3", cfg.Storage.Provider)
	assert.Equal(t, "artifacts", cfg.Storage.Bucket)
	assert.Equal(t, 7, cfg.Storage.MaxRetries)
	assert.False(t, cfg.Storage.S3.ForcePathStyle)
}

func TestParse_InvalidDurationFallsBack(t *testing.T) {
	t.Setenv("QUEUE_POLL_INTERVAL", "not-a-duration")

	cfg, err := parse()
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.Queue.PollInterval)
}

func TestConfig_Validate(t *testing.T) {
	t.Run("valid defaults", func(t *testing.T) {
		cfg := DefaultConfig()
		assert.NoError(t, cfg.Validate())
	})

	t.Run("missing service name", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.ServiceName = ""
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SERVICE_NAME")
	})

	t.Run("missing remote base url", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Remote.BaseURL = ""
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "REMOTE_BASE_URL")
	})

	t.Run("non-positive poll interval", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Queue.PollInterval = 0
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "QUEUE_POLL_INTERVAL")
	})

	t.Run("unknown storage provider", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Storage.Provider = "ftp"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "STORAGE_PROVIDER")
	})

	t.Run("negative max retries", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Storage.MaxRetries = -1
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "STORAGE_MAX_RETRIES")
	})

	t.Run("s3 bucket required in production", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Environment = "production"
		cfg.Storage.Provider = "s3"
		cfg.Storage.Bucket = ""
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "STORAGE_BUCKET")
	})
}

func TestApplyDefaults_BucketName(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.Bucket = ""
	applyDefaults(cfg)
	assert.Equal(t, "download-queue-development-artifacts", cfg.Storage.Bucket)
}

func TestEnvironmentDetection(t *testing.T) {
	cfg := DefaultConfig()

	cfg.Environment = "local"
	assert.True(t, cfg.IsLocal())
	assert.False(t, cfg.IsProduction())

	cfg.Environment = "staging"
	assert.True(t, cfg.IsStaging())

	cfg.Environment = "PRODUCTION"
	assert.True(t, cfg.IsProduction())
}
