package pipeline

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panelworks/panelgen-api/internal/domain"
	"github.com/panelworks/panelgen-api/internal/store"
)

// memArtifactStore is an in-memory ArtifactStore with the same version
// semantics as the postgres implementation.
type memArtifactStore struct {
	mu        sync.Mutex
	artifacts []*domain.Artifact

	// conflictsRemaining injects version conflicts: while positive,
	// CreateArtifact fails with ErrVersionConflict and decrements it.
	conflictsRemaining int
}

func newMemArtifactStore() *memArtifactStore {
	return &memArtifactStore{}
}

func (s *memArtifactStore) CreateArtifact(
	_ context.Context,
	sceneID uuid.UUID,
	artifactType domain.ArtifactType,
	payload []byte,
) (*domain.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conflictsRemaining > 0 {
		s.conflictsRemaining--
		return nil, store.ErrVersionConflict
	}

	version := 1
	var parentID *uuid.UUID
	if latest := s.latestLocked(sceneID, artifactType); latest != nil {
		version = latest.Version + 1
		id := latest.ID
		parentID = &id
	}

	artifact := &domain.Artifact{
		ID:        uuid.New(),
		SceneID:   sceneID,
		Type:      artifactType,
		Version:   version,
		ParentID:  parentID,
		Payload:   append([]byte(nil), payload...),
		CreatedAt: time.Now().UTC(),
	}
	s.artifacts = append(s.artifacts, artifact)
	return artifact, nil
}

func (s *memArtifactStore) GetLatestArtifact(
	_ context.Context,
	sceneID uuid.UUID,
	artifactType domain.ArtifactType,
) (*domain.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if latest := s.latestLocked(sceneID, artifactType); latest != nil {
		return latest, nil
	}
	return nil, store.ErrArtifactNotFound
}

func (s *memArtifactStore) GetArtifactByID(_ context.Context, id uuid.UUID) (*domain.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.artifacts {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, store.ErrArtifactNotFound
}

func (s *memArtifactStore) ListArtifactVersions(
	_ context.Context,
	sceneID uuid.UUID,
	artifactType domain.ArtifactType,
) ([]*domain.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var versions []*domain.Artifact
	for _, a := range s.artifacts {
		if a.SceneID == sceneID && a.Type == artifactType {
			versions = append(versions, a)
		}
	}
	return versions, nil
}

func (s *memArtifactStore) WithTx(_ *sql.Tx) store.ArtifactStore { return s }

func (s *memArtifactStore) latestLocked(sceneID uuid.UUID, artifactType domain.ArtifactType) *domain.Artifact {
	var latest *domain.Artifact
	for _, a := range s.artifacts {
		if a.SceneID == sceneID && a.Type == artifactType {
			if latest == nil || a.Version > latest.Version {
				latest = a
			}
		}
	}
	return latest
}

// memSceneStore is an in-memory SceneStore.
type memSceneStore struct {
	mu     sync.Mutex
	scenes map[uuid.UUID]*domain.Scene
}

func newMemSceneStore() *memSceneStore {
	return &memSceneStore{scenes: make(map[uuid.UUID]*domain.Scene)}
}

func (s *memSceneStore) Create(_ context.Context, scene *domain.Scene) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scenes[scene.ID] = scene
	return nil
}

func (s *memSceneStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Scene, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	scene, ok := s.scenes[id]
	if !ok {
		return nil, store.ErrSceneNotFound
	}
	copied := *scene
	return &copied, nil
}

func (s *memSceneStore) SetPlanningLocked(_ context.Context, id uuid.UUID, locked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	scene, ok := s.scenes[id]
	if !ok {
		return store.ErrSceneNotFound
	}
	scene.PlanningLocked = locked
	return nil
}

func (s *memSceneStore) Update(_ context.Context, scene *domain.Scene) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.scenes[scene.ID]; !ok {
		return store.ErrSceneNotFound
	}
	s.scenes[scene.ID] = scene
	return nil
}

func (s *memSceneStore) WithTx(_ *sql.Tx) store.SceneStore { return s }
