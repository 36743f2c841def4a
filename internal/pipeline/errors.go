package pipeline

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/panelworks/panelgen-api/internal/domain"
)

// Common errors returned by the pipeline package
var (
	// ErrMissingArtifact is returned when a stage's required upstream
	// artifact does not exist. Callers treat it as a not-found condition.
	ErrMissingArtifact = errors.New("required upstream artifact missing")

	// ErrNoModelClient is returned by fail-fast stages when no model
	// client was supplied.
	ErrNoModelClient = errors.New("no model client available")
)

// MissingArtifactError reports which upstream artifact a stage needed.
type MissingArtifactError struct {
	SceneID uuid.UUID
	Type    domain.ArtifactType
}

// Error implements the error interface.
func (e *MissingArtifactError) Error() string {
	return fmt.Sprintf("required upstream artifact missing: %s for scene %s", e.Type, e.SceneID)
}

// Unwrap supports errors.Is(err, ErrMissingArtifact).
func (e *MissingArtifactError) Unwrap() error {
	return ErrMissingArtifact
}

func missingArtifact(sceneID uuid.UUID, t domain.ArtifactType) error {
	return &MissingArtifactError{SceneID: sceneID, Type: t}
}
