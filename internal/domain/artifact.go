package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ArtifactType identifies which pipeline stage produced an artifact.
// The string values are bit-stable: they are persisted and consumed by
// external API and database layers.
type ArtifactType string

// Possible artifact types, one per stage output.
const (
	ArtifactSceneIntent         ArtifactType = "scene_intent"
	ArtifactPanelPlan           ArtifactType = "panel_plan"
	ArtifactPanelPlanNormalized ArtifactType = "panel_plan_normalized"
	ArtifactLayoutTemplate      ArtifactType = "layout_template"
	ArtifactPanelSemantics      ArtifactType = "panel_semantics"
	ArtifactRenderSpec          ArtifactType = "render_spec"
	ArtifactRenderResult        ArtifactType = "render_result"
	ArtifactQCReport            ArtifactType = "qc_report"
	ArtifactBlindTestReport     ArtifactType = "blind_test_report"
	ArtifactDialogueSuggestions ArtifactType = "dialogue_suggestions"
)

// PlanningArtifactTypes lists the artifact types frozen by a scene's
// planning lock. Render-side types stay versionable while a scene is locked.
var PlanningArtifactTypes = []ArtifactType{
	ArtifactSceneIntent,
	ArtifactPanelPlan,
	ArtifactPanelPlanNormalized,
	ArtifactLayoutTemplate,
	ArtifactPanelSemantics,
}

// Common validation errors for Artifact
var (
	ErrEmptyArtifactID      = errors.New("artifact ID cannot be empty")
	ErrEmptyArtifactSceneID = errors.New("artifact scene ID cannot be empty")
	ErrInvalidArtifactType  = errors.New("invalid artifact type")
	ErrInvalidVersion       = errors.New("artifact version must be >= 1")
	ErrEmptyPayload         = errors.New("artifact payload cannot be empty")
)

// Artifact is the immutable, versioned output of one pipeline stage,
// scoped to a scene and a type. For a given (scene, type) pair, versions
// form a contiguous sequence starting at 1, and ParentID references the
// immediately preceding version (nil for version 1). A new version is
// always a new row, never an update.
type Artifact struct {
	ID        uuid.UUID       `json:"id"`
	SceneID   uuid.UUID       `json:"scene_id"`
	Type      ArtifactType    `json:"type"`
	Version   int             `json:"version"`
	ParentID  *uuid.UUID      `json:"parent_id,omitempty"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewArtifact creates an Artifact with a fresh UUID and creation timestamp.
// Version and ParentID are supplied by the store, which owns the
// contiguous-version invariant.
func NewArtifact(
	sceneID uuid.UUID,
	artifactType ArtifactType,
	version int,
	parentID *uuid.UUID,
	payload json.RawMessage,
) (*Artifact, error) {
	artifact := &Artifact{
		ID:        uuid.New(),
		SceneID:   sceneID,
		Type:      artifactType,
		Version:   version,
		ParentID:  parentID,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}

	if err := artifact.Validate(); err != nil {
		return nil, err
	}

	return artifact, nil
}

// Validate checks if the Artifact has valid data.
func (a *Artifact) Validate() error {
	if a.ID == uuid.Nil {
		return ErrEmptyArtifactID
	}

	if a.SceneID == uuid.Nil {
		return ErrEmptyArtifactSceneID
	}

	if !IsValidArtifactType(a.Type) {
		return ErrInvalidArtifactType
	}

	if a.Version < 1 {
		return ErrInvalidVersion
	}

	if len(a.Payload) == 0 {
		return ErrEmptyPayload
	}

	return nil
}

// IsValidArtifactType checks if the given type is part of the fixed enumeration.
func IsValidArtifactType(t ArtifactType) bool {
	switch t {
	case ArtifactSceneIntent, ArtifactPanelPlan, ArtifactPanelPlanNormalized,
		ArtifactLayoutTemplate, ArtifactPanelSemantics, ArtifactRenderSpec,
		ArtifactRenderResult, ArtifactQCReport, ArtifactBlindTestReport,
		ArtifactDialogueSuggestions:
		return true
	default:
		return false
	}
}

// IsPlanningType reports whether the artifact type is frozen by the
// planning lock.
func IsPlanningType(t ArtifactType) bool {
	for _, pt := range PlanningArtifactTypes {
		if t == pt {
			return true
		}
	}
	return false
}
