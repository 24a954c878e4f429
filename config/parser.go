package config

// parse reads configuration from environment variables
func parse() (*Config, error) {
	cfg := &Config{
		// Core
		Environment: getEnv("ENVIRONMENT", "local"),
		ServiceName: getEnv("SERVICE_NAME", "download-queue"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Version:     getEnv("SERVICE_VERSION", "1.0.0"),

		// Remote job-processing service
		Remote: RemoteConfig{
			BaseURL:   getEnv("REMOTE_BASE_URL", "http://localhost:5000"),
			Timeout:   getDuration("REMOTE_TIMEOUT", "30s"),
			UserAgent: getEnv("REMOTE_USER_AGENT", "download-queue/1.0"),
		},

		// Queue manager
		Queue: QueueConfig{
			PollInterval: getDuration("QUEUE_POLL_INTERVAL", "2s"),
			AdvanceDelay: getDuration("QUEUE_ADVANCE_DELAY", "100ms"),
		},

		// API server
		Server: ServerConfig{
			Addr:    getEnv("SERVER_ADDR", ":8080"),
			Timeout: getDuration("SERVER_TIMEOUT", "30s"),
		},

		// Artifact storage
		Storage: StorageConfig{
			Provider:   getEnv("STORAGE_PROVIDER", "fs"),
			BasePath:   getEnv("STORAGE_BASE_PATH", "./downloads"),
			Bucket:     getEnv("STORAGE_BUCKET", ""),
			MaxRetries: getInt("STORAGE_MAX_RETRIES", 3),
			S3: S3Config{
				Region:          getEnv("AWS_REGION", "us-east-2"),
				AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
				SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
				Endpoint:        getEnv("S3_ENDPOINT", ""),
				ForcePathStyle:  getBool("S3_FORCE_PATH_STYLE", true),
			},
		},
	}

	return cfg, nil
}
