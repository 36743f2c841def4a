package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/panelworks/panelgen-api/internal/api/shared"
	"github.com/panelworks/panelgen-api/internal/domain"
	"github.com/panelworks/panelgen-api/internal/task"
)

// JobResponse represents the response data for a job
type JobResponse struct {
	ID              string          `json:"id"`
	Type            string          `json:"type"`
	Status          string          `json:"status"`
	Result          json.RawMessage `json:"result,omitempty"`
	Error           string          `json:"error,omitempty"`
	Progress        string          `json:"progress,omitempty"`
	CancelRequested bool            `json:"cancel_requested"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// JobHandler handles job queue HTTP requests
type JobHandler struct {
	queue  *task.Queue
	logger *slog.Logger
}

// NewJobHandler creates a new JobHandler
func NewJobHandler(queue *task.Queue, logger *slog.Logger) *JobHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &JobHandler{
		queue:  queue,
		logger: logger.With(slog.String("component", "job_handler")),
	}
}

// GetJob handles GET /api/jobs/{jobID} requests
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID, ok := h.jobIDFromURL(w, r)
	if !ok {
		return
	}

	job, err := h.queue.Get(jobID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, jobToResponse(job))
}

// ListJobs handles GET /api/jobs requests
func (h *JobHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := h.queue.List()

	responses := make([]JobResponse, 0, len(jobs))
	for _, job := range jobs {
		responses = append(responses, jobToResponse(job))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// CancelJob handles POST /api/jobs/{jobID}/cancel requests. Cancelling a
// running job is advisory: the response reflects the record at request
// time and the job may still run to completion.
func (h *JobHandler) CancelJob(w http.ResponseWriter, r *http.Request) {
	jobID, ok := h.jobIDFromURL(w, r)
	if !ok {
		return
	}

	job, err := h.queue.Cancel(jobID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, jobToResponse(job))
}

func (h *JobHandler) jobIDFromURL(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	jobID, err := uuid.Parse(chi.URLParam(r, "jobID"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid job ID")
		return uuid.Nil, false
	}
	return jobID, true
}

// jobToResponse converts a domain.JobRecord to a JobResponse
func jobToResponse(job *domain.JobRecord) JobResponse {
	return JobResponse{
		ID:              job.ID.String(),
		Type:            string(job.Type),
		Status:          string(job.Status),
		Result:          job.Result,
		Error:           job.Error,
		Progress:        job.Progress,
		CancelRequested: job.CancelRequested,
		CreatedAt:       job.CreatedAt,
		UpdatedAt:       job.UpdatedAt,
	}
}
