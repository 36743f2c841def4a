package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/panelworks/panelgen-api/internal/config"
	"github.com/panelworks/panelgen-api/internal/domain"
	"github.com/panelworks/panelgen-api/internal/generation"
	"github.com/panelworks/panelgen-api/internal/platform/logger"
	"github.com/panelworks/panelgen-api/internal/store"
)

// MaxPanelsPerScene bounds the panel count of every plan regardless of
// caller request or importance-driven adjustment.
const MaxPanelsPerScene = 3

// blindTestPassThreshold is the fixed similarity score a scene must reach
// for the blind test to pass.
const blindTestPassThreshold = 0.25

// createRetries bounds how often a stage re-reads and retries after
// losing an artifact version race.
const createRetries = 3

// RunOptions adjusts one pipeline invocation.
type RunOptions struct {
	// PanelCount requests a panel count; 0 derives it from scene
	// importance. The result is clamped to [1, MaxPanelsPerScene] either way.
	PanelCount int
}

// Result is the ephemeral per-invocation record of produced artifacts.
// It exists only for the duration of one pipeline run and is returned to
// the caller; it is never persisted.
type Result struct {
	SceneID   uuid.UUID                         `json:"scene_id"`
	Artifacts map[domain.ArtifactType]uuid.UUID `json:"artifacts"`
	Reused    map[domain.ArtifactType]uuid.UUID `json:"reused,omitempty"`
}

func newResult(sceneID uuid.UUID) *Result {
	return &Result{
		SceneID:   sceneID,
		Artifacts: make(map[domain.ArtifactType]uuid.UUID),
		Reused:    make(map[domain.ArtifactType]uuid.UUID),
	}
}

// stage is one pipeline step: it reads upstream artifacts (and optionally
// calls the model provider) to produce exactly one new artifact payload.
type stage struct {
	// outputType names the artifact type the stage produces.
	outputType domain.ArtifactType
	// planning marks stages frozen by the scene's planning lock.
	planning bool
	// run computes the stage's payload from the scene and upstream artifacts.
	run func(ctx context.Context, scene *domain.Scene, opts RunOptions) (any, error)
}

// Orchestrator executes the fixed, non-branching stage order
//
//	scene_intent → panel_plan → panel_plan_normalize → layout →
//	panel_semantics → render_spec → render → blind_test
//
// with two entry points: planning (stages 1-5) and render (stages 6-8).
// It performs no stage-level retry (retries belong to the model client)
// and never rolls back written artifacts: re-invocation resumes forward
// from whatever latest artifacts already exist.
type Orchestrator struct {
	scenes    store.SceneStore
	artifacts store.ArtifactStore
	model     generation.ModelClient
	cfg       config.PipelineConfig
	logger    *slog.Logger
}

// NewOrchestrator creates an Orchestrator. The model client may be nil;
// heuristic-capable stages then run on their deterministic drafts alone,
// and fail-fast stages return ErrNoModelClient.
func NewOrchestrator(
	scenes store.SceneStore,
	artifacts store.ArtifactStore,
	model generation.ModelClient,
	cfg config.PipelineConfig,
	log *slog.Logger,
) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		scenes:    scenes,
		artifacts: artifacts,
		model:     model,
		cfg:       cfg,
		logger:    log.With(slog.String("component", "orchestrator")),
	}
}

// planningStages returns stages 1-5 in order.
func (o *Orchestrator) planningStages() []stage {
	return []stage{
		{outputType: domain.ArtifactSceneIntent, planning: true, run: o.runSceneIntent},
		{outputType: domain.ArtifactPanelPlan, planning: true, run: o.runPanelPlan},
		{outputType: domain.ArtifactPanelPlanNormalized, planning: true, run: o.runNormalize},
		{outputType: domain.ArtifactLayoutTemplate, planning: true, run: o.runLayout},
		{outputType: domain.ArtifactPanelSemantics, planning: true, run: o.runPanelSemantics},
	}
}

// renderStages returns stages 6-8 in order. Render stages are always
// versionable, planning lock or not.
func (o *Orchestrator) renderStages() []stage {
	return []stage{
		{outputType: domain.ArtifactRenderSpec, run: o.runRenderSpec},
		{outputType: domain.ArtifactRenderResult, run: o.runRender},
		{outputType: domain.ArtifactBlindTestReport, run: o.runBlindTest},
	}
}

// RunPlanning executes the planning sub-pipeline (stages 1-5).
func (o *Orchestrator) RunPlanning(ctx context.Context, sceneID uuid.UUID, opts RunOptions) (*Result, error) {
	return o.runStages(ctx, sceneID, opts, o.planningStages())
}

// RunRender executes the render sub-pipeline (stages 6-8). It requires
// panel_semantics and layout_template artifacts to already exist.
func (o *Orchestrator) RunRender(ctx context.Context, sceneID uuid.UUID, opts RunOptions) (*Result, error) {
	return o.runStages(ctx, sceneID, opts, o.renderStages())
}

// RunFull executes planning then render as one invocation.
func (o *Orchestrator) RunFull(ctx context.Context, sceneID uuid.UUID, opts RunOptions) (*Result, error) {
	stages := append(o.planningStages(), o.renderStages()...)
	return o.runStages(ctx, sceneID, opts, stages)
}

// runStages executes the given stages strictly in order, aborting the
// remainder on the first error. Completed stages' artifacts are kept.
func (o *Orchestrator) runStages(
	ctx context.Context,
	sceneID uuid.UUID,
	opts RunOptions,
	stages []stage,
) (*Result, error) {
	log := logger.FromContextOrDefault(ctx, o.logger)

	scene, err := o.scenes.GetByID(ctx, sceneID)
	if err != nil {
		return nil, err
	}

	result := newResult(sceneID)
	for _, st := range stages {
		artifact, reused, err := o.executeStage(ctx, scene, st, opts)
		if err != nil {
			log.Error("stage failed, aborting remaining stages",
				slog.String("scene_id", sceneID.String()),
				slog.String("stage", string(st.outputType)),
				slog.String("error", err.Error()))
			return result, err
		}

		if reused {
			result.Reused[st.outputType] = artifact.ID
		} else {
			result.Artifacts[st.outputType] = artifact.ID
		}

		log.Info("stage completed",
			slog.String("scene_id", sceneID.String()),
			slog.String("stage", string(st.outputType)),
			slog.Int("version", artifact.Version),
			slog.Bool("reused", reused))
	}

	return result, nil
}

// executeStage runs one stage, honoring the planning lock: a locked
// scene's planning stages reuse the existing latest artifact unchanged
// instead of generating a new version.
func (o *Orchestrator) executeStage(
	ctx context.Context,
	scene *domain.Scene,
	st stage,
	opts RunOptions,
) (*domain.Artifact, bool, error) {
	if st.planning && scene.PlanningLocked {
		existing, err := o.artifacts.GetLatestArtifact(ctx, scene.ID, st.outputType)
		if err != nil {
			if store.IsNotFoundError(err) {
				// A locked scene with no prior artifact cannot generate one.
				return nil, false, missingArtifact(scene.ID, st.outputType)
			}
			return nil, false, err
		}
		return existing, true, nil
	}

	payload, err := st.run(ctx, scene, opts)
	if err != nil {
		return nil, false, err
	}

	artifact, err := o.createArtifact(ctx, scene.ID, st.outputType, payload)
	if err != nil {
		return nil, false, err
	}

	return artifact, false, nil
}

// createArtifact marshals the payload and writes a new artifact version,
// re-reading and retrying a bounded number of times when a concurrent
// writer claims the version first.
func (o *Orchestrator) createArtifact(
	ctx context.Context,
	sceneID uuid.UUID,
	artifactType domain.ArtifactType,
	payload any,
) (*domain.Artifact, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < createRetries; attempt++ {
		artifact, err := o.artifacts.CreateArtifact(ctx, sceneID, artifactType, raw)
		if err == nil {
			return artifact, nil
		}
		if !store.IsVersionConflict(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// latest fetches and decodes the latest artifact payload of the given type,
// translating absence into a typed missing-artifact error.
func (o *Orchestrator) latest(
	ctx context.Context,
	sceneID uuid.UUID,
	artifactType domain.ArtifactType,
	into any,
) error {
	artifact, err := o.artifacts.GetLatestArtifact(ctx, sceneID, artifactType)
	if err != nil {
		if store.IsNotFoundError(err) {
			return missingArtifact(sceneID, artifactType)
		}
		return err
	}
	return json.Unmarshal(artifact.Payload, into)
}
