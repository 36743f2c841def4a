package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/panelworks/panelgen-api/internal/domain"
)

// SceneStore defines the interface for scene persistence. The pipeline
// reads scenes; the HTTP surface creates them and toggles the planning lock.
// Version: 1.0
type SceneStore interface {
	// Create saves a new scene to the store.
	// It handles domain validation internally.
	Create(ctx context.Context, scene *domain.Scene) error

	// GetByID retrieves a scene by its unique ID.
	// Returns ErrSceneNotFound if the scene does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Scene, error)

	// SetPlanningLocked updates the scene's planning lock flag.
	// Returns ErrSceneNotFound if the scene does not exist.
	SetPlanningLocked(ctx context.Context, id uuid.UUID, locked bool) error

	// Update saves changes to an existing scene.
	// Returns ErrSceneNotFound if the scene does not exist.
	Update(ctx context.Context, scene *domain.Scene) error

	// WithTx returns a new SceneStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) SceneStore
}
