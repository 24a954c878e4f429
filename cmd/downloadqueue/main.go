package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"downloadqueue/config"
	"downloadqueue/internal/artifact"
	"downloadqueue/internal/queue"
	"downloadqueue/internal/remote"
	"downloadqueue/internal/server"
	"downloadqueue/internal/storage"
	storagefactory "downloadqueue/internal/storage/factory"
	"downloadqueue/observability"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := loadConfiguration()

	deps := initializeDependencies(cfg)
	defer deps.provider.Close()

	app := buildApplication(cfg, deps)

	startApplication(app)
}

// Dependencies holds all initialized infrastructure components.
type Dependencies struct {
	provider observability.Provider
	store    storage.ObjectStorage
	client   remote.Client
}

// Application holds the complete application stack.
type Application struct {
	server  *server.Server
	manager *queue.Manager
	logger  observability.Logger
}

// loadConfiguration loads and validates the application configuration.
func loadConfiguration() *config.Config {
	config.MustLoad()
	return config.MustGet()
}

// initializeDependencies sets up all infrastructure dependencies.
func initializeDependencies(cfg *config.Config) *Dependencies {
	provider := observability.NewProvider(&observability.Config{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		LogLevel:    cfg.LogLevel,
	})

	logger := provider.Logger("main")
	logger.Info(context.Background(), "Starting application", observability.Fields{
		"service": cfg.ServiceName,
		"version": cfg.Version,
		"env":     cfg.Environment,
	})

	store, err := storagefactory.New(cfg.Storage, provider.Logger("storage"), provider.Metrics("storage"))
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	client := remote.NewHTTPClient(cfg.Remote, provider.Logger("remote"), provider.Metrics("remote"))

	return &Dependencies{
		provider: provider,
		store:    store,
		client:   client,
	}
}

// buildApplication assembles the application layers.
func buildApplication(cfg *config.Config, deps *Dependencies) *Application {
	manager := queue.NewManager(
		deps.client,
		cfg.Queue,
		deps.provider.Logger("queue"),
		deps.provider.Metrics("queue"),
	)

	saver := artifact.NewSaver(
		deps.client,
		deps.store,
		deps.provider.Logger("artifact"),
		deps.provider.Metrics("artifact"),
	)

	srv := server.New(
		manager,
		saver,
		deps.client,
		cfg.Server,
		deps.provider.Logger("server"),
		deps.provider.Metrics("server"),
	)

	return &Application{
		server:  srv,
		manager: manager,
		logger:  deps.provider.Logger("main"),
	}
}

// startApplication runs the HTTP server until a shutdown signal arrives.
func startApplication(app *Application) {
	errCh := make(chan error, 1)
	go func() {
		errCh <- app.server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	case sig := <-sigCh:
		app.logger.Info(context.Background(), "Shutdown signal received", observability.Fields{
			"signal": sig.String(),
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.server.Stop(ctx); err != nil {
		app.logger.Error(ctx, "Graceful shutdown failed", err, nil)
	}
	app.manager.Close()
}
