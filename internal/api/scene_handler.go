package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/panelworks/panelgen-api/internal/api/shared"
	"github.com/panelworks/panelgen-api/internal/domain"
	"github.com/panelworks/panelgen-api/internal/store"
)

// CreateSceneRequest represents the request body for creating a new scene
type CreateSceneRequest struct {
	Title          string   `json:"title"`
	SourceText     string   `json:"source_text"     validate:"required,min=1"`
	Importance     float64  `json:"importance"      validate:"gte=0,lte=1"`
	CharacterNames []string `json:"character_names"`
}

// LockSceneRequest represents the request body for toggling the planning lock
type LockSceneRequest struct {
	Locked bool `json:"locked"`
}

// SceneResponse represents the response data for a scene
type SceneResponse struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	SourceText     string    `json:"source_text"`
	Importance     float64   `json:"importance"`
	CharacterNames []string  `json:"character_names"`
	PlanningLocked bool      `json:"planning_locked"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ArtifactResponse represents the response data for an artifact
type ArtifactResponse struct {
	ID        string          `json:"id"`
	SceneID   string          `json:"scene_id"`
	Type      string          `json:"type"`
	Version   int             `json:"version"`
	ParentID  string          `json:"parent_id,omitempty"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// SceneLocker toggles a scene's planning lock and returns the updated
// scene. The production implementation runs both steps in one transaction.
type SceneLocker interface {
	SetPlanningLocked(ctx context.Context, id uuid.UUID, locked bool) (*domain.Scene, error)
}

// SceneHandler handles scene and artifact HTTP requests
type SceneHandler struct {
	scenes    store.SceneStore
	artifacts store.ArtifactStore
	locker    SceneLocker
	validator *validator.Validate
	logger    *slog.Logger
}

// NewSceneHandler creates a new SceneHandler
func NewSceneHandler(
	scenes store.SceneStore,
	artifacts store.ArtifactStore,
	locker SceneLocker,
	logger *slog.Logger,
) *SceneHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SceneHandler{
		scenes:    scenes,
		artifacts: artifacts,
		locker:    locker,
		validator: validator.New(),
		logger:    logger.With(slog.String("component", "scene_handler")),
	}
}

// CreateScene handles POST /api/scenes requests
func (h *SceneHandler) CreateScene(w http.ResponseWriter, r *http.Request) {
	var req CreateSceneRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	scene, err := domain.NewScene(req.Title, req.SourceText, req.Importance, req.CharacterNames)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid scene data", err)
		return
	}

	if err := h.scenes.Create(r.Context(), scene); err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, sceneToResponse(scene))
}

// GetScene handles GET /api/scenes/{sceneID} requests
func (h *SceneHandler) GetScene(w http.ResponseWriter, r *http.Request) {
	sceneID, ok := h.sceneIDFromURL(w, r)
	if !ok {
		return
	}

	scene, err := h.scenes.GetByID(r.Context(), sceneID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, sceneToResponse(scene))
}

// SetPlanningLock handles PUT /api/scenes/{sceneID}/lock requests
func (h *SceneHandler) SetPlanningLock(w http.ResponseWriter, r *http.Request) {
	sceneID, ok := h.sceneIDFromURL(w, r)
	if !ok {
		return
	}

	var req LockSceneRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	scene, err := h.locker.SetPlanningLocked(r.Context(), sceneID, req.Locked)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, sceneToResponse(scene))
}

// GetLatestArtifact handles GET /api/scenes/{sceneID}/artifacts/{artifactType} requests
func (h *SceneHandler) GetLatestArtifact(w http.ResponseWriter, r *http.Request) {
	sceneID, ok := h.sceneIDFromURL(w, r)
	if !ok {
		return
	}

	artifactType, ok := h.artifactTypeFromURL(w, r)
	if !ok {
		return
	}

	artifact, err := h.artifacts.GetLatestArtifact(r.Context(), sceneID, artifactType)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, artifactToResponse(artifact))
}

// ListArtifactVersions handles GET /api/scenes/{sceneID}/artifacts/{artifactType}/versions requests
func (h *SceneHandler) ListArtifactVersions(w http.ResponseWriter, r *http.Request) {
	sceneID, ok := h.sceneIDFromURL(w, r)
	if !ok {
		return
	}

	artifactType, ok := h.artifactTypeFromURL(w, r)
	if !ok {
		return
	}

	versions, err := h.artifacts.ListArtifactVersions(r.Context(), sceneID, artifactType)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	responses := make([]ArtifactResponse, 0, len(versions))
	for _, artifact := range versions {
		responses = append(responses, artifactToResponse(artifact))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

func (h *SceneHandler) sceneIDFromURL(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	sceneID, err := uuid.Parse(chi.URLParam(r, "sceneID"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid scene ID")
		return uuid.Nil, false
	}
	return sceneID, true
}

func (h *SceneHandler) artifactTypeFromURL(w http.ResponseWriter, r *http.Request) (domain.ArtifactType, bool) {
	artifactType := domain.ArtifactType(chi.URLParam(r, "artifactType"))
	if !domain.IsValidArtifactType(artifactType) {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid artifact type")
		return "", false
	}
	return artifactType, true
}

// sceneToResponse converts a domain.Scene to a SceneResponse
func sceneToResponse(scene *domain.Scene) SceneResponse {
	return SceneResponse{
		ID:             scene.ID.String(),
		Title:          scene.Title,
		SourceText:     scene.SourceText,
		Importance:     scene.Importance,
		CharacterNames: scene.CharacterNames,
		PlanningLocked: scene.PlanningLocked,
		CreatedAt:      scene.CreatedAt,
		UpdatedAt:      scene.UpdatedAt,
	}
}

// artifactToResponse converts a domain.Artifact to an ArtifactResponse
func artifactToResponse(artifact *domain.Artifact) ArtifactResponse {
	response := ArtifactResponse{
		ID:        artifact.ID.String(),
		SceneID:   artifact.SceneID.String(),
		Type:      string(artifact.Type),
		Version:   artifact.Version,
		Payload:   artifact.Payload,
		CreatedAt: artifact.CreatedAt,
	}
	if artifact.ParentID != nil {
		response.ParentID = artifact.ParentID.String()
	}
	return response
}
