// Package service coordinates multi-step store operations that need to
// happen inside one database transaction.
package service

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"

	"github.com/panelworks/panelgen-api/internal/domain"
	"github.com/panelworks/panelgen-api/internal/store"
)

// SceneService owns scene operations that span more than one store call.
type SceneService struct {
	db     *sql.DB
	scenes store.SceneStore
	logger *slog.Logger
}

// NewSceneService creates a new SceneService.
func NewSceneService(db *sql.DB, scenes store.SceneStore, logger *slog.Logger) *SceneService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SceneService{
		db:     db,
		scenes: scenes,
		logger: logger.With(slog.String("component", "scene_service")),
	}
}

// SetPlanningLocked toggles the scene's planning lock and returns the
// updated scene. Update and read run in one transaction so the returned
// snapshot always reflects the write.
func (s *SceneService) SetPlanningLocked(
	ctx context.Context,
	id uuid.UUID,
	locked bool,
) (*domain.Scene, error) {
	var scene *domain.Scene

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txScenes := s.scenes.WithTx(tx)
		if err := txScenes.SetPlanningLocked(ctx, id, locked); err != nil {
			return err
		}

		var err error
		scene, err = txScenes.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("scene planning lock updated",
		slog.String("scene_id", id.String()),
		slog.Bool("locked", locked))
	return scene, nil
}
