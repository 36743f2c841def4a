package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/panelworks/panelgen-api/internal/domain"
	"github.com/panelworks/panelgen-api/internal/generation"
	"github.com/panelworks/panelgen-api/internal/pipeline"
	"github.com/panelworks/panelgen-api/internal/store"
	"github.com/panelworks/panelgen-api/internal/task"
)

func TestMapErrorToStatusCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"scene not found", store.ErrSceneNotFound, http.StatusNotFound},
		{"artifact not found", store.ErrArtifactNotFound, http.StatusNotFound},
		{"job not found", task.ErrJobNotFound, http.StatusNotFound},
		{"version conflict", store.ErrVersionConflict, http.StatusConflict},
		{"job terminal", task.ErrJobTerminal, http.StatusConflict},
		{
			"missing artifact",
			&pipeline.MissingArtifactError{SceneID: uuid.New(), Type: domain.ArtifactPanelPlan},
			http.StatusConflict,
		},
		{"validation", domain.ErrValidation, http.StatusBadRequest},
		{"invalid format", domain.ErrInvalidFormat, http.StatusBadRequest},
		{"unknown job type", task.ErrUnknownJobType, http.StatusBadRequest},
		{"queue full", task.ErrQueueFull, http.StatusServiceUnavailable},
		{"circuit open", generation.ErrCircuitOpen, http.StatusServiceUnavailable},
		{"no model client", pipeline.ErrNoModelClient, http.StatusServiceUnavailable},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
		{
			"wrapped not found",
			fmt.Errorf("lookup failed: %w", store.ErrSceneNotFound),
			http.StatusNotFound,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MapErrorToStatusCode(tc.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	assert.Equal(t, "Scene not found", GetSafeErrorMessage(store.ErrSceneNotFound))
	assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(nil))

	// Internal detail never leaks through the safe message.
	internal := errors.New("pq: connection to db.internal:5432 refused")
	assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(internal))

	missing := &pipeline.MissingArtifactError{SceneID: uuid.New(), Type: domain.ArtifactPanelSemantics}
	assert.Equal(t, "Required panel_semantics artifact does not exist yet", GetSafeErrorMessage(missing))
}

func TestSanitizeValidationError(t *testing.T) {
	err := errors.New(
		"Key: 'CreateSceneRequest.SourceText' Error:Field validation for 'SourceText' failed on the 'required' tag",
	)
	assert.Equal(t, "Invalid SourceText: required field", SanitizeValidationError(err))

	err = errors.New(
		"Key: 'RunPipelineRequest.PanelCount' Error:Field validation for 'PanelCount' failed on the 'lte' tag",
	)
	assert.Equal(t, "Invalid PanelCount: too large", SanitizeValidationError(err))

	assert.Equal(t, "Validation error", SanitizeValidationError(errors.New("something else")))
}
