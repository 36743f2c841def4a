// Command server runs the panel generation API: it loads configuration,
// connects to PostgreSQL, wires the pipeline orchestrator and job queue,
// and serves the HTTP API until interrupted.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/panelworks/panelgen-api/internal/config"
	"github.com/panelworks/panelgen-api/internal/generation"
	"github.com/panelworks/panelgen-api/internal/pipeline"
	"github.com/panelworks/panelgen-api/internal/platform/gemini"
	"github.com/panelworks/panelgen-api/internal/platform/logger"
	"github.com/panelworks/panelgen-api/internal/platform/postgres"
	"github.com/panelworks/panelgen-api/internal/task"
	"github.com/panelworks/panelgen-api/internal/telemetry"
)

const (
	serverReadTimeout     = 10 * time.Second
	serverWriteTimeout    = 60 * time.Second
	serverIdleTimeout     = 120 * time.Second
	serverShutdownTimeout = 15 * time.Second
	dbPingTimeout         = 5 * time.Second
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	// A .env file is optional; real deployments use environment variables.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	db, err := openDatabase(cfg.Database, log)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("failed to close database", slog.String("error", closeErr.Error()))
		}
	}()

	recorder := telemetry.NewMemoryRecorder(log)

	model, err := buildModelClient(cfg.LLM, log, recorder)
	if err != nil {
		return err
	}

	sceneStore := postgres.NewPostgresSceneStore(db, log)
	artifactStore := postgres.NewPostgresArtifactStore(db, recorder, log)
	orchestrator := pipeline.NewOrchestrator(sceneStore, artifactStore, model, cfg.Pipeline, log)

	queue := task.NewQueue(task.DefaultQueueConfig(), log)
	task.RegisterPipelineHandlers(queue, orchestrator)
	queue.Start()
	defer queue.Stop()

	router := buildRouter(sceneStore, artifactStore, orchestrator, queue, db, recorder, log)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
		IdleTimeout:  serverIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", slog.Int("port", cfg.Server.Port))
		if serveErr := server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errCh <- serveErr
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-stop:
		log.Info("shutting down", slog.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	log.Info("server stopped")
	return nil
}

// openDatabase connects to PostgreSQL, verifies the connection and runs
// pending migrations.
func openDatabase(cfg config.DatabaseConfig, log *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(context.Background(), dbPingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := postgres.Migrate(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("database connected and migrated")
	return db, nil
}

// buildModelClient constructs the resilient Gemini client. A missing
// credential is not fatal: the server starts without a model client and
// the pipeline runs on heuristics alone, with the model-required stages
// rejecting requests.
func buildModelClient(
	cfg config.LLMConfig,
	log *slog.Logger,
	recorder telemetry.Recorder,
) (generation.ModelClient, error) {
	if cfg.GeminiAPIKey == "" && cfg.GoogleProjectID == "" {
		log.Warn("no model credential configured, running heuristics only")
		return nil, nil
	}

	client, err := gemini.NewResilientClient(context.Background(), log, cfg, recorder)
	if err != nil {
		return nil, fmt.Errorf("failed to create model client: %w", err)
	}
	return client, nil
}
