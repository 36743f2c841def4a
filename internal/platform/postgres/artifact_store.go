package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/panelworks/panelgen-api/internal/domain"
	"github.com/panelworks/panelgen-api/internal/platform/logger"
	"github.com/panelworks/panelgen-api/internal/store"
	"github.com/panelworks/panelgen-api/internal/telemetry"
)

// PostgresArtifactStore implements the store.ArtifactStore interface
// using a PostgreSQL database as the storage backend. The unique
// (scene_id, type, version) index enforces the contiguous-version
// invariant; racing writers are not serialized here.
type PostgresArtifactStore struct {
	db       store.DBTX
	recorder telemetry.Recorder
	logger   *slog.Logger
}

// NewPostgresArtifactStore creates a new PostgreSQL implementation of the
// ArtifactStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresArtifactStore(
	db store.DBTX,
	recorder telemetry.Recorder,
	logger *slog.Logger,
) *PostgresArtifactStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if recorder == nil {
		recorder = telemetry.NopRecorder{}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresArtifactStore{
		db:       db,
		recorder: recorder,
		logger:   logger.With(slog.String("component", "artifact_store")),
	}
}

// Ensure PostgresArtifactStore implements store.ArtifactStore interface
var _ store.ArtifactStore = (*PostgresArtifactStore)(nil)

// CreateArtifact implements store.ArtifactStore.CreateArtifact.
// It computes version = 1 + max(existing versions) and parent_id from the
// prior latest row, then inserts under the unique index. A unique
// violation maps to store.ErrVersionConflict; the caller re-reads and
// retries.
func (s *PostgresArtifactStore) CreateArtifact(
	ctx context.Context,
	sceneID uuid.UUID,
	artifactType domain.ArtifactType,
	payload []byte,
) (*domain.Artifact, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	version := 1
	var parentID *uuid.UUID

	prior, err := s.GetLatestArtifact(ctx, sceneID, artifactType)
	switch {
	case err == nil:
		version = prior.Version + 1
		parentID = &prior.ID
	case errors.Is(err, store.ErrArtifactNotFound):
		// First version for this (scene, type) pair.
	default:
		return nil, err
	}

	artifact, err := domain.NewArtifact(sceneID, artifactType, version, parentID, payload)
	if err != nil {
		log.Warn("artifact validation failed during create",
			slog.String("error", err.Error()),
			slog.String("scene_id", sceneID.String()),
			slog.String("type", string(artifactType)))
		return nil, err
	}

	query := `
		INSERT INTO artifacts (id, scene_id, type, version, parent_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		artifact.ID,
		artifact.SceneID,
		artifact.Type,
		artifact.Version,
		artifact.ParentID,
		artifact.Payload,
		artifact.CreatedAt,
	)

	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("artifact version conflict",
				slog.String("scene_id", sceneID.String()),
				slog.String("type", string(artifactType)),
				slog.Int("version", version))
			return nil, fmt.Errorf("%w: scene %s type %s version %d",
				store.ErrVersionConflict, sceneID, artifactType, version)
		}

		log.Error("failed to create artifact",
			slog.String("error", err.Error()),
			slog.String("scene_id", sceneID.String()),
			slog.String("type", string(artifactType)))
		return nil, MapError(err)
	}

	s.recorder.IncrCounter("artifacts_created",
		telemetry.Labels{"type": string(artifactType)}, 1)

	log.Info("artifact created",
		slog.String("artifact_id", artifact.ID.String()),
		slog.String("scene_id", sceneID.String()),
		slog.String("type", string(artifactType)),
		slog.Int("version", version))
	return artifact, nil
}

// GetLatestArtifact implements store.ArtifactStore.GetLatestArtifact.
// Returns store.ErrArtifactNotFound if no version exists for the pair.
func (s *PostgresArtifactStore) GetLatestArtifact(
	ctx context.Context,
	sceneID uuid.UUID,
	artifactType domain.ArtifactType,
) (*domain.Artifact, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, scene_id, type, version, parent_id, payload, created_at
		FROM artifacts
		WHERE scene_id = $1 AND type = $2
		ORDER BY version DESC
		LIMIT 1
	`

	artifact, err := s.scanArtifact(s.db.QueryRowContext(ctx, query, sceneID, artifactType))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("no artifact versions for pair",
				slog.String("scene_id", sceneID.String()),
				slog.String("type", string(artifactType)))
			return nil, store.ErrArtifactNotFound
		}
		log.Error("failed to get latest artifact",
			slog.String("error", err.Error()),
			slog.String("scene_id", sceneID.String()),
			slog.String("type", string(artifactType)))
		return nil, err
	}

	return artifact, nil
}

// GetArtifactByID implements store.ArtifactStore.GetArtifactByID.
// Returns store.ErrArtifactNotFound if the artifact does not exist.
func (s *PostgresArtifactStore) GetArtifactByID(
	ctx context.Context,
	id uuid.UUID,
) (*domain.Artifact, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, scene_id, type, version, parent_id, payload, created_at
		FROM artifacts
		WHERE id = $1
	`

	artifact, err := s.scanArtifact(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrArtifactNotFound
		}
		log.Error("failed to get artifact by ID",
			slog.String("error", err.Error()),
			slog.String("artifact_id", id.String()))
		return nil, err
	}

	return artifact, nil
}

// ListArtifactVersions implements store.ArtifactStore.ListArtifactVersions.
func (s *PostgresArtifactStore) ListArtifactVersions(
	ctx context.Context,
	sceneID uuid.UUID,
	artifactType domain.ArtifactType,
) ([]*domain.Artifact, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, scene_id, type, version, parent_id, payload, created_at
		FROM artifacts
		WHERE scene_id = $1 AND type = $2
		ORDER BY version ASC
	`

	rows, err := s.db.QueryContext(ctx, query, sceneID, artifactType)
	if err != nil {
		log.Error("failed to list artifact versions",
			slog.String("error", err.Error()),
			slog.String("scene_id", sceneID.String()),
			slog.String("type", string(artifactType)))
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var artifacts []*domain.Artifact
	for rows.Next() {
		artifact, err := s.scanArtifact(rows)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, artifact)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return artifacts, nil
}

// WithTx implements store.ArtifactStore.WithTx.
func (s *PostgresArtifactStore) WithTx(tx *sql.Tx) store.ArtifactStore {
	return &PostgresArtifactStore{
		db:       tx,
		recorder: s.recorder,
		logger:   s.logger,
	}
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanArtifact.
type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PostgresArtifactStore) scanArtifact(row rowScanner) (*domain.Artifact, error) {
	var artifact domain.Artifact
	var artifactType string
	var parentID sql.NullString
	var createdAt time.Time

	err := row.Scan(
		&artifact.ID,
		&artifact.SceneID,
		&artifactType,
		&artifact.Version,
		&parentID,
		&artifact.Payload,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	artifact.Type = domain.ArtifactType(artifactType)
	artifact.CreatedAt = createdAt
	if parentID.Valid {
		parsed, err := uuid.Parse(parentID.String)
		if err != nil {
			return nil, fmt.Errorf("invalid parent ID %q: %w", parentID.String, err)
		}
		artifact.ParentID = &parsed
	}

	return &artifact, nil
}
