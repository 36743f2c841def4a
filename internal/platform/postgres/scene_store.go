package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/panelworks/panelgen-api/internal/domain"
	"github.com/panelworks/panelgen-api/internal/platform/logger"
	"github.com/panelworks/panelgen-api/internal/store"
)

// PostgresSceneStore implements the store.SceneStore interface
// using a PostgreSQL database as the storage backend.
type PostgresSceneStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSceneStore creates a new PostgreSQL implementation of the
// SceneStore interface. If logger is nil, a default logger will be used.
func NewPostgresSceneStore(db store.DBTX, logger *slog.Logger) *PostgresSceneStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresSceneStore{
		db:     db,
		logger: logger.With(slog.String("component", "scene_store")),
	}
}

// Ensure PostgresSceneStore implements store.SceneStore interface
var _ store.SceneStore = (*PostgresSceneStore)(nil)

// Create implements store.SceneStore.Create.
// Returns validation errors from the domain Scene if data is invalid.
func (s *PostgresSceneStore) Create(ctx context.Context, scene *domain.Scene) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := scene.Validate(); err != nil {
		log.Warn("scene validation failed during create",
			slog.String("error", err.Error()),
			slog.String("scene_id", scene.ID.String()))
		return err
	}

	characters, err := json.Marshal(scene.CharacterNames)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO scenes (id, title, source_text, importance, character_names, planning_locked, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		scene.ID,
		scene.Title,
		scene.SourceText,
		scene.Importance,
		characters,
		scene.PlanningLocked,
		scene.CreatedAt,
		scene.UpdatedAt,
	)

	if err != nil {
		log.Error("failed to create scene",
			slog.String("error", err.Error()),
			slog.String("scene_id", scene.ID.String()))
		return MapError(err)
	}

	log.Info("scene created",
		slog.String("scene_id", scene.ID.String()),
		slog.String("title", scene.Title))
	return nil
}

// GetByID implements store.SceneStore.GetByID.
// Returns store.ErrSceneNotFound if the scene does not exist.
func (s *PostgresSceneStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Scene, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, title, source_text, importance, character_names, planning_locked, created_at, updated_at
		FROM scenes
		WHERE id = $1
	`

	var scene domain.Scene
	var characters []byte

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&scene.ID,
		&scene.Title,
		&scene.SourceText,
		&scene.Importance,
		&characters,
		&scene.PlanningLocked,
		&scene.CreatedAt,
		&scene.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("scene not found", slog.String("scene_id", id.String()))
			return nil, store.ErrSceneNotFound
		}
		log.Error("failed to get scene by ID",
			slog.String("error", err.Error()),
			slog.String("scene_id", id.String()))
		return nil, err
	}

	if len(characters) > 0 {
		if err := json.Unmarshal(characters, &scene.CharacterNames); err != nil {
			return nil, err
		}
	}

	return &scene, nil
}

// SetPlanningLocked implements store.SceneStore.SetPlanningLocked.
// Returns store.ErrSceneNotFound if the scene does not exist.
func (s *PostgresSceneStore) SetPlanningLocked(ctx context.Context, id uuid.UUID, locked bool) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE scenes
		SET planning_locked = $1, updated_at = $2
		WHERE id = $3
	`

	result, err := s.db.ExecContext(ctx, query, locked, time.Now().UTC(), id)
	if err != nil {
		log.Error("failed to update planning lock",
			slog.String("error", err.Error()),
			slog.String("scene_id", id.String()))
		return err
	}

	if err := CheckRowsAffected(result, store.ErrSceneNotFound); err != nil {
		return err
	}

	log.Info("scene planning lock updated",
		slog.String("scene_id", id.String()),
		slog.Bool("locked", locked))
	return nil
}

// Update implements store.SceneStore.Update.
// Returns store.ErrSceneNotFound if the scene does not exist.
func (s *PostgresSceneStore) Update(ctx context.Context, scene *domain.Scene) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := scene.Validate(); err != nil {
		log.Warn("scene validation failed during update",
			slog.String("error", err.Error()),
			slog.String("scene_id", scene.ID.String()))
		return err
	}

	characters, err := json.Marshal(scene.CharacterNames)
	if err != nil {
		return err
	}

	scene.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE scenes
		SET title = $1, source_text = $2, importance = $3, character_names = $4,
		    planning_locked = $5, updated_at = $6
		WHERE id = $7
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		scene.Title,
		scene.SourceText,
		scene.Importance,
		characters,
		scene.PlanningLocked,
		scene.UpdatedAt,
		scene.ID,
	)
	if err != nil {
		log.Error("failed to update scene",
			slog.String("error", err.Error()),
			slog.String("scene_id", scene.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrSceneNotFound); err != nil {
		return err
	}

	return nil
}

// WithTx implements store.SceneStore.WithTx.
func (s *PostgresSceneStore) WithTx(tx *sql.Tx) store.SceneStore {
	return &PostgresSceneStore{
		db:     tx,
		logger: s.logger,
	}
}
