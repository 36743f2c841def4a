package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panelworks/panelgen-api/internal/domain"
	"github.com/panelworks/panelgen-api/internal/pipeline"
	"github.com/panelworks/panelgen-api/internal/store"
	"github.com/panelworks/panelgen-api/internal/task"
)

// fakePipelineRunner records invocations and returns a canned result.
type fakePipelineRunner struct {
	result *pipeline.Result
	err    error
	calls  []string
	opts   []pipeline.RunOptions
}

func (f *fakePipelineRunner) invoke(name string, sceneID uuid.UUID, opts pipeline.RunOptions) (*pipeline.Result, error) {
	f.calls = append(f.calls, name)
	f.opts = append(f.opts, opts)
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &pipeline.Result{
		SceneID:   sceneID,
		Artifacts: map[domain.ArtifactType]uuid.UUID{},
	}, nil
}

func (f *fakePipelineRunner) RunPlanning(_ context.Context, sceneID uuid.UUID, opts pipeline.RunOptions) (*pipeline.Result, error) {
	return f.invoke("planning", sceneID, opts)
}

func (f *fakePipelineRunner) RunRender(_ context.Context, sceneID uuid.UUID, opts pipeline.RunOptions) (*pipeline.Result, error) {
	return f.invoke("render", sceneID, opts)
}

func (f *fakePipelineRunner) RunFull(_ context.Context, sceneID uuid.UUID, opts pipeline.RunOptions) (*pipeline.Result, error) {
	return f.invoke("full", sceneID, opts)
}

func (f *fakePipelineRunner) RunQC(_ context.Context, sceneID uuid.UUID) (*pipeline.Result, error) {
	return f.invoke("qc", sceneID, pipeline.RunOptions{})
}

func (f *fakePipelineRunner) SuggestDialogue(_ context.Context, sceneID uuid.UUID) (*pipeline.Result, error) {
	return f.invoke("dialogue", sceneID, pipeline.RunOptions{})
}

func newPipelineTestRouter(t *testing.T, runner task.PipelineRunner) (http.Handler, *task.Queue) {
	t.Helper()

	queue := task.NewQueue(task.QueueConfig{QueueSize: 10}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(queue.Stop)
	for _, jobType := range []domain.JobType{
		domain.JobTypePlanning, domain.JobTypeRender, domain.JobTypeFull,
		domain.JobTypeQC, domain.JobTypeDialogue,
	} {
		queue.Register(jobType, noopHandler)
	}

	handler := NewPipelineHandler(runner, queue, nil)
	r := chi.NewRouter()
	r.Post("/api/scenes/{sceneID}/pipeline/planning", handler.Run(domain.JobTypePlanning))
	r.Post("/api/scenes/{sceneID}/pipeline/full", handler.Run(domain.JobTypeFull))
	r.Post("/api/scenes/{sceneID}/pipeline/qc", handler.Run(domain.JobTypeQC))
	return r, queue
}

func TestRunPipeline_SyncReturnsResult(t *testing.T) {
	runner := &fakePipelineRunner{}
	router, _ := newPipelineTestRouter(t, runner)
	sceneID := uuid.New()

	req := httptest.NewRequest(http.MethodPost,
		"/api/scenes/"+sceneID.String()+"/pipeline/full",
		bytes.NewBufferString(`{"panel_count": 3}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp pipeline.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, sceneID, resp.SceneID)

	require.Equal(t, []string{"full"}, runner.calls)
	assert.Equal(t, 3, runner.opts[0].PanelCount)
}

func TestRunPipeline_SyncEmptyBodyAllowed(t *testing.T) {
	runner := &fakePipelineRunner{}
	router, _ := newPipelineTestRouter(t, runner)

	req := httptest.NewRequest(http.MethodPost,
		"/api/scenes/"+uuid.NewString()+"/pipeline/qc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"qc"}, runner.calls)
}

func TestRunPipeline_SyncSceneNotFound(t *testing.T) {
	runner := &fakePipelineRunner{err: store.ErrSceneNotFound}
	router, _ := newPipelineTestRouter(t, runner)

	req := httptest.NewRequest(http.MethodPost,
		"/api/scenes/"+uuid.NewString()+"/pipeline/planning", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRunPipeline_InvalidSceneID(t *testing.T) {
	runner := &fakePipelineRunner{}
	router, _ := newPipelineTestRouter(t, runner)

	req := httptest.NewRequest(http.MethodPost, "/api/scenes/garbage/pipeline/planning", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, runner.calls)
}

func TestRunPipeline_PanelCountRejected(t *testing.T) {
	runner := &fakePipelineRunner{}
	router, _ := newPipelineTestRouter(t, runner)

	for _, body := range []string{`{"panel_count": 11}`, `{"panel_count": -1}`} {
		req := httptest.NewRequest(http.MethodPost,
			"/api/scenes/"+uuid.NewString()+"/pipeline/planning",
			bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %s", body)
	}
	assert.Empty(t, runner.calls)
}

func TestRunPipeline_AsyncAccepted(t *testing.T) {
	runner := &fakePipelineRunner{}
	router, _ := newPipelineTestRouter(t, runner)

	req := httptest.NewRequest(http.MethodPost,
		"/api/scenes/"+uuid.NewString()+"/pipeline/planning?async=1",
		bytes.NewBufferString(`{"panel_count": 2}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp JobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(domain.JobTypePlanning), resp.Type)
	assert.Equal(t, string(domain.JobStatusQueued), resp.Status)

	// The orchestrator is not touched on the async path.
	assert.Empty(t, runner.calls)
}

func TestRunPipeline_AsyncIdempotencyKeyDeduplicates(t *testing.T) {
	router, _ := newPipelineTestRouter(t, &fakePipelineRunner{})
	target := "/api/scenes/" + uuid.NewString() + "/pipeline/planning?async=1"

	first := httptest.NewRequest(http.MethodPost, target, nil)
	first.Header.Set("Idempotency-Key", "retry-1")
	firstRec := httptest.NewRecorder()
	router.ServeHTTP(firstRec, first)

	second := httptest.NewRequest(http.MethodPost, target, nil)
	second.Header.Set("Idempotency-Key", "retry-1")
	secondRec := httptest.NewRecorder()
	router.ServeHTTP(secondRec, second)

	var firstResp, secondResp JobResponse
	require.NoError(t, json.Unmarshal(firstRec.Body.Bytes(), &firstResp))
	require.NoError(t, json.Unmarshal(secondRec.Body.Bytes(), &secondResp))
	assert.Equal(t, firstResp.ID, secondResp.ID)
}
