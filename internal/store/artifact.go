package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/panelworks/panelgen-api/internal/domain"
)

// ArtifactStore defines the interface for artifact persistence.
//
// Implementations must enforce a unique (scene_id, type, version) index
// but do not serialize concurrent writers: two callers racing for the
// same next version surface ErrVersionConflict to exactly one of them,
// and that caller re-reads and retries.
// Version: 1.0
type ArtifactStore interface {
	// CreateArtifact persists a new artifact version for (sceneID, type).
	// The version is computed as 1 + max existing version (1 when none
	// exist) and the parent ID is set to the prior latest artifact.
	// Returns ErrVersionConflict if another writer claimed the version first.
	CreateArtifact(
		ctx context.Context,
		sceneID uuid.UUID,
		artifactType domain.ArtifactType,
		payload []byte,
	) (*domain.Artifact, error)

	// GetLatestArtifact retrieves the maximum-version artifact for the
	// (sceneID, type) pair. Returns ErrArtifactNotFound if none exists.
	GetLatestArtifact(
		ctx context.Context,
		sceneID uuid.UUID,
		artifactType domain.ArtifactType,
	) (*domain.Artifact, error)

	// GetArtifactByID retrieves an artifact by its unique ID.
	// Returns ErrArtifactNotFound if the artifact does not exist.
	GetArtifactByID(ctx context.Context, id uuid.UUID) (*domain.Artifact, error)

	// ListArtifactVersions retrieves all versions for the (sceneID, type)
	// pair ordered by ascending version. Returns an empty slice if none exist.
	ListArtifactVersions(
		ctx context.Context,
		sceneID uuid.UUID,
		artifactType domain.ArtifactType,
	) ([]*domain.Artifact, error)

	// WithTx returns a new ArtifactStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) ArtifactStore
}
