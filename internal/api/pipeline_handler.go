package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/panelworks/panelgen-api/internal/api/shared"
	"github.com/panelworks/panelgen-api/internal/domain"
	"github.com/panelworks/panelgen-api/internal/pipeline"
	"github.com/panelworks/panelgen-api/internal/task"
)

// RunPipelineRequest is the optional request body for pipeline run endpoints
type RunPipelineRequest struct {
	PanelCount int `json:"panel_count,omitempty" validate:"gte=0,lte=10"`
}

// PipelineHandler handles pipeline run HTTP requests. Runs execute
// synchronously against the orchestrator by default; ?async=1 enqueues
// the run on the job queue instead.
type PipelineHandler struct {
	runner    task.PipelineRunner
	queue     *task.Queue
	validator *validator.Validate
	logger    *slog.Logger
}

// NewPipelineHandler creates a new PipelineHandler
func NewPipelineHandler(runner task.PipelineRunner, queue *task.Queue, logger *slog.Logger) *PipelineHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PipelineHandler{
		runner:    runner,
		queue:     queue,
		validator: validator.New(),
		logger:    logger.With(slog.String("component", "pipeline_handler")),
	}
}

// Run returns the handler for one pipeline operation, mounted at
// POST /api/scenes/{sceneID}/pipeline/{operation}. Without a query the
// run executes inline and the produced artifact ids are returned; with
// ?async=1 the run is enqueued and the queued job record is returned
// with 202, deduplicated by the Idempotency-Key header.
func (h *PipelineHandler) Run(jobType domain.JobType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sceneID, err := uuid.Parse(chi.URLParam(r, "sceneID"))
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid scene ID")
			return
		}

		// The body is optional; an empty body means default options.
		var req RunPipelineRequest
		if r.Body != nil && r.ContentLength != 0 {
			if err := shared.DecodeJSON(r, &req); err != nil {
				shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
				return
			}
		}

		if err := h.validator.Struct(req); err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
			return
		}

		if r.URL.Query().Get("async") == "1" {
			h.enqueue(w, r, jobType, sceneID, req)
			return
		}

		result, err := h.invoke(r.Context(), jobType, sceneID, req)
		if err != nil {
			shared.RespondWithErrorAndLog(w, r,
				MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
			return
		}

		shared.RespondWithJSON(w, r, http.StatusOK, result)
	}
}

// enqueue submits the run as an asynchronous job.
func (h *PipelineHandler) enqueue(
	w http.ResponseWriter,
	r *http.Request,
	jobType domain.JobType,
	sceneID uuid.UUID,
	req RunPipelineRequest,
) {
	payload, err := json.Marshal(task.PipelineJobPayload{
		SceneID:    sceneID,
		PanelCount: req.PanelCount,
	})
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			http.StatusInternalServerError, "Failed to encode job payload", err)
		return
	}

	job, err := h.queue.Enqueue(jobType, payload, r.Header.Get("Idempotency-Key"))
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, jobToResponse(job))
}

// invoke runs the operation inline on the orchestrator.
func (h *PipelineHandler) invoke(
	ctx context.Context,
	jobType domain.JobType,
	sceneID uuid.UUID,
	req RunPipelineRequest,
) (*pipeline.Result, error) {
	opts := pipeline.RunOptions{PanelCount: req.PanelCount}

	switch jobType {
	case domain.JobTypePlanning:
		return h.runner.RunPlanning(ctx, sceneID, opts)
	case domain.JobTypeRender:
		return h.runner.RunRender(ctx, sceneID, pipeline.RunOptions{})
	case domain.JobTypeFull:
		return h.runner.RunFull(ctx, sceneID, opts)
	case domain.JobTypeQC:
		return h.runner.RunQC(ctx, sceneID)
	case domain.JobTypeDialogue:
		return h.runner.SuggestDialogue(ctx, sceneID)
	default:
		return nil, fmt.Errorf("%w: %s", task.ErrUnknownJobType, jobType)
	}
}
