package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Core settings
	Environment string
	ServiceName string
	LogLevel    string
	Version     string

	// Component configurations
	Remote  RemoteConfig
	Queue   QueueConfig
	Server  ServerConfig
	Storage StorageConfig
}

// RemoteConfig holds the configuration for the remote job-processing service
// client.
type RemoteConfig struct {
	// BaseURL is the root URL of the job-processing service,
	// e.g. "http://localhost:5000"
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// QueueConfig holds queue manager configuration.
type QueueConfig struct {
	// PollInterval is the fixed cadence of the per-job status probe.
	PollInterval time.Duration
	// AdvanceDelay is the deferred delay between finalizing one job and
	// attempting to start the next. It prevents tight failure loops when
	// consecutive jobs fail at submission time.
	AdvanceDelay time.Duration
}

// ServerConfig holds the HTTP API server configuration.
type ServerConfig struct {
	Addr    string
	Timeout time.Duration
}

// StorageConfig holds artifact storage configuration.
type StorageConfig struct {
	// Provider selects the storage adapter: "fs" or "s3".
	Provider string
	// BasePath is the root directory for the filesystem adapter.
	BasePath string
	// Bucket is the artifact bucket name (directory name for fs).
	Bucket string
	// MaxRetries caps retry attempts for remote storage operations.
	MaxRetries int
	S3         S3Config
}

// S3Config holds S3-specific settings.
type S3Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
	// ForcePathStyle addresses the bucket as a path segment instead of a
	// subdomain, which local S3 stands like MinIO require.
	ForcePathStyle bool
}

// Validate validates the entire configuration
func (c *Config) Validate() error {
	var errs []string

	if c.ServiceName == "" {
		errs = append(errs, "SERVICE_NAME is required")
	}
	if c.Remote.BaseURL == "" {
		errs = append(errs, "REMOTE_BASE_URL is required")
	}
	if c.Remote.Timeout <= 0 {
		errs = append(errs, "REMOTE_TIMEOUT must be positive")
	}
	if c.Queue.PollInterval <= 0 {
		errs = append(errs, "QUEUE_POLL_INTERVAL must be positive")
	}
	if c.Queue.AdvanceDelay < 0 {
		errs = append(errs, "QUEUE_ADVANCE_DELAY cannot be negative")
	}
	if c.Server.Addr == "" {
		errs = append(errs, "SERVER_ADDR is required")
	}
	if c.Storage.Provider != "fs" && c.Storage.Provider != "s3" {
		errs = append(errs, "STORAGE_PROVIDER must be one of: fs, s3")
	}
	if c.Storage.MaxRetries < 0 {
		errs = append(errs, "STORAGE_MAX_RETRIES cannot be negative")
	}
	if c.Storage.Provider == "s3" && c.IsProduction() && c.Storage.Bucket == "" {
		errs = append(errs, "STORAGE_BUCKET is required in production with the s3 provider")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// Environment detection methods

func (c *Config) IsLocal() bool {
	env := strings.ToLower(c.Environment)
	return env == "local" || env == "development" || env == "dev"
}

func (c *Config) IsStaging() bool {
	env := strings.ToLower(c.Environment)
	return env == "staging" || env == "stage"
}

func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Environment)
	return env == "production" || env == "prod"
}
