package task

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/panelworks/panelgen-api/internal/domain"
	"github.com/panelworks/panelgen-api/internal/pipeline"
)

// PipelineRunner is the subset of orchestrator operations jobs invoke.
type PipelineRunner interface {
	RunPlanning(ctx context.Context, sceneID uuid.UUID, opts pipeline.RunOptions) (*pipeline.Result, error)
	RunRender(ctx context.Context, sceneID uuid.UUID, opts pipeline.RunOptions) (*pipeline.Result, error)
	RunFull(ctx context.Context, sceneID uuid.UUID, opts pipeline.RunOptions) (*pipeline.Result, error)
	RunQC(ctx context.Context, sceneID uuid.UUID) (*pipeline.Result, error)
	SuggestDialogue(ctx context.Context, sceneID uuid.UUID) (*pipeline.Result, error)
}

// PipelineJobPayload is the enqueue payload shared by all pipeline jobs.
type PipelineJobPayload struct {
	SceneID    uuid.UUID `json:"scene_id"`
	PanelCount int       `json:"panel_count,omitempty"`
}

// RegisterPipelineHandlers binds every pipeline job type to the runner.
func RegisterPipelineHandlers(q *Queue, runner PipelineRunner) {
	q.Register(domain.JobTypePlanning, pipelineHandler(q, func(ctx context.Context, p PipelineJobPayload) (*pipeline.Result, error) {
		return runner.RunPlanning(ctx, p.SceneID, pipeline.RunOptions{PanelCount: p.PanelCount})
	}))
	q.Register(domain.JobTypeRender, pipelineHandler(q, func(ctx context.Context, p PipelineJobPayload) (*pipeline.Result, error) {
		return runner.RunRender(ctx, p.SceneID, pipeline.RunOptions{})
	}))
	q.Register(domain.JobTypeFull, pipelineHandler(q, func(ctx context.Context, p PipelineJobPayload) (*pipeline.Result, error) {
		return runner.RunFull(ctx, p.SceneID, pipeline.RunOptions{PanelCount: p.PanelCount})
	}))
	q.Register(domain.JobTypeQC, pipelineHandler(q, func(ctx context.Context, p PipelineJobPayload) (*pipeline.Result, error) {
		return runner.RunQC(ctx, p.SceneID)
	}))
	q.Register(domain.JobTypeDialogue, pipelineHandler(q, func(ctx context.Context, p PipelineJobPayload) (*pipeline.Result, error) {
		return runner.SuggestDialogue(ctx, p.SceneID)
	}))
}

// pipelineHandler wraps one orchestrator call with payload decoding,
// progress notes, and result encoding.
func pipelineHandler(
	q *Queue,
	run func(ctx context.Context, payload PipelineJobPayload) (*pipeline.Result, error),
) Handler {
	return func(ctx context.Context, job *domain.JobRecord) (json.RawMessage, error) {
		var payload PipelineJobPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return nil, fmt.Errorf("%w: invalid job payload: %v", domain.ErrInvalidFormat, err)
		}
		if payload.SceneID == uuid.Nil {
			return nil, fmt.Errorf("%w: scene_id is required", domain.ErrValidation)
		}

		q.SetProgress(job.ID, "running pipeline")
		result, err := run(ctx, payload)
		if err != nil {
			return nil, err
		}
		q.SetProgress(job.ID, "encoding result")

		raw, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("failed to encode job result: %w", err)
		}
		return raw, nil
	}
}
