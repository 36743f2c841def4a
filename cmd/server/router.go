package main

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/panelworks/panelgen-api/internal/api"
	apiMiddleware "github.com/panelworks/panelgen-api/internal/api/middleware"
	"github.com/panelworks/panelgen-api/internal/api/shared"
	"github.com/panelworks/panelgen-api/internal/domain"
	"github.com/panelworks/panelgen-api/internal/service"
	"github.com/panelworks/panelgen-api/internal/store"
	"github.com/panelworks/panelgen-api/internal/task"
	"github.com/panelworks/panelgen-api/internal/telemetry"
)

// buildRouter configures the application router with all routes and
// middleware.
func buildRouter(
	scenes store.SceneStore,
	artifacts store.ArtifactStore,
	runner task.PipelineRunner,
	queue *task.Queue,
	db *sql.DB,
	recorder *telemetry.MemoryRecorder,
	log *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	sceneService := service.NewSceneService(db, scenes, log)
	sceneHandler := api.NewSceneHandler(scenes, artifacts, sceneService, log)
	jobHandler := api.NewJobHandler(queue, log)
	pipelineHandler := api.NewPipelineHandler(runner, queue, log)

	r.Get("/healthz", healthHandler(db))
	r.Get("/metrics", metricsHandler(recorder))

	r.Route("/api", func(r chi.Router) {
		// Scene and artifact endpoints
		r.Post("/scenes", sceneHandler.CreateScene)
		r.Get("/scenes/{sceneID}", sceneHandler.GetScene)
		r.Put("/scenes/{sceneID}/lock", sceneHandler.SetPlanningLock)
		r.Get("/scenes/{sceneID}/artifacts/{artifactType}", sceneHandler.GetLatestArtifact)
		r.Get(
			"/scenes/{sceneID}/artifacts/{artifactType}/versions",
			sceneHandler.ListArtifactVersions,
		)

		// Pipeline endpoints: synchronous by default, ?async=1 enqueues a job
		r.Post("/scenes/{sceneID}/pipeline/planning", pipelineHandler.Run(domain.JobTypePlanning))
		r.Post("/scenes/{sceneID}/pipeline/render", pipelineHandler.Run(domain.JobTypeRender))
		r.Post("/scenes/{sceneID}/pipeline/full", pipelineHandler.Run(domain.JobTypeFull))
		r.Post("/scenes/{sceneID}/pipeline/qc", pipelineHandler.Run(domain.JobTypeQC))
		r.Post("/scenes/{sceneID}/pipeline/dialogue", pipelineHandler.Run(domain.JobTypeDialogue))

		// Job endpoints
		r.Get("/jobs", jobHandler.ListJobs)
		r.Get("/jobs/{jobID}", jobHandler.GetJob)
		r.Post("/jobs/{jobID}/cancel", jobHandler.CancelJob)
	})

	return r
}

// healthHandler reports liveness and database reachability.
func healthHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			shared.RespondWithErrorAndLog(w, r,
				http.StatusServiceUnavailable, "Database unavailable", err)
			return
		}
		shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// metricsHandler exposes the in-memory telemetry counters.
func metricsHandler(recorder *telemetry.MemoryRecorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithJSON(w, r, http.StatusOK, recorder.Snapshot())
	}
}
