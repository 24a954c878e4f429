package config

import (
	"fmt"
	"strings"
	"time"
)

// applyDefaults applies environment-specific defaults
func applyDefaults(c *Config) {
	env := strings.ToLower(c.Environment)

	// Generate default resource names if not provided
	if c.Storage.Bucket == "" {
		c.Storage.Bucket = fmt.Sprintf("%s-%s-artifacts", c.ServiceName, env)
	}
}

// DefaultRemoteConfig returns sensible defaults for the remote service client
func DefaultRemoteConfig() RemoteConfig {
	return RemoteConfig{
		BaseURL:   "http://localhost:5000",
		Timeout:   30 * time.Second,
		UserAgent: "download-queue/1.0",
	}
}

// DefaultQueueConfig returns sensible defaults for the queue manager
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		PollInterval: 2 * time.Second,
		AdvanceDelay: 100 * time.Millisecond,
	}
}

// DefaultServerConfig returns sensible defaults for the API server
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:    ":8080",
		Timeout: 30 * time.Second,
	}
}

// DefaultStorageConfig returns sensible defaults for artifact storage
func DefaultStorageConfig() StorageConfig {
	return StorageConfig{
		Provider:   "fs",
		BasePath:   "./downloads",
		MaxRetries: 3,
		S3: S3Config{
			Region:         "us-east-2",
			ForcePathStyle: true,
		},
	}
}

// DefaultConfig returns a complete configuration with sensible defaults.
// Useful for testing or when you want to start with defaults and override
// specific parts.
func DefaultConfig() *Config {
	return &Config{
		Environment: "development",
		ServiceName: "download-queue",
		LogLevel:    "info",
		Version:     "1.0.0",

		Remote:  DefaultRemoteConfig(),
		Queue:   DefaultQueueConfig(),
		Server:  DefaultServerConfig(),
		Storage: DefaultStorageConfig(),
	}
}
