package api

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panelworks/panelgen-api/internal/domain"
	"github.com/panelworks/panelgen-api/internal/store"
)

// fakeSceneStore backs handler tests without a database.
type fakeSceneStore struct {
	mu     sync.Mutex
	scenes map[uuid.UUID]*domain.Scene
	// createErr, when set, is returned from Create.
	createErr error
}

func newFakeSceneStore() *fakeSceneStore {
	return &fakeSceneStore{scenes: make(map[uuid.UUID]*domain.Scene)}
}

func (s *fakeSceneStore) Create(_ context.Context, scene *domain.Scene) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	s.scenes[scene.ID] = scene
	return nil
}

func (s *fakeSceneStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Scene, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	scene, ok := s.scenes[id]
	if !ok {
		return nil, store.ErrSceneNotFound
	}
	copied := *scene
	return &copied, nil
}

func (s *fakeSceneStore) SetPlanningLocked(_ context.Context, id uuid.UUID, locked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	scene, ok := s.scenes[id]
	if !ok {
		return store.ErrSceneNotFound
	}
	scene.PlanningLocked = locked
	return nil
}

func (s *fakeSceneStore) Update(_ context.Context, scene *domain.Scene) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.scenes[scene.ID]; !ok {
		return store.ErrSceneNotFound
	}
	s.scenes[scene.ID] = scene
	return nil
}

func (s *fakeSceneStore) WithTx(_ *sql.Tx) store.SceneStore { return s }

// fakeSceneLocker applies the lock through the fake store without a
// transaction.
type fakeSceneLocker struct {
	scenes *fakeSceneStore
}

func (l *fakeSceneLocker) SetPlanningLocked(
	ctx context.Context,
	id uuid.UUID,
	locked bool,
) (*domain.Scene, error) {
	if err := l.scenes.SetPlanningLocked(ctx, id, locked); err != nil {
		return nil, err
	}
	return l.scenes.GetByID(ctx, id)
}

// fakeArtifactStore backs artifact endpoints in handler tests.
type fakeArtifactStore struct {
	mu        sync.Mutex
	artifacts []*domain.Artifact
}

func newFakeArtifactStore() *fakeArtifactStore {
	return &fakeArtifactStore{}
}

func (s *fakeArtifactStore) add(sceneID uuid.UUID, artifactType domain.ArtifactType, payload []byte) *domain.Artifact {
	s.mu.Lock()
	defer s.mu.Unlock()

	version := 1
	var parentID *uuid.UUID
	for _, a := range s.artifacts {
		if a.SceneID == sceneID && a.Type == artifactType && a.Version >= version {
			version = a.Version + 1
			id := a.ID
			parentID = &id
		}
	}

	artifact := &domain.Artifact{
		ID:        uuid.New(),
		SceneID:   sceneID,
		Type:      artifactType,
		Version:   version,
		ParentID:  parentID,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
	s.artifacts = append(s.artifacts, artifact)
	return artifact
}

func (s *fakeArtifactStore) CreateArtifact(
	_ context.Context,
	sceneID uuid.UUID,
	artifactType domain.ArtifactType,
	payload []byte,
) (*domain.Artifact, error) {
	return s.add(sceneID, artifactType, payload), nil
}

func (s *fakeArtifactStore) GetLatestArtifact(
	_ context.Context,
	sceneID uuid.UUID,
	artifactType domain.ArtifactType,
) (*domain.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var latest *domain.Artifact
	for _, a := range s.artifacts {
		if a.SceneID == sceneID && a.Type == artifactType {
			if latest == nil || a.Version > latest.Version {
				latest = a
			}
		}
	}
	if latest == nil {
		return nil, store.ErrArtifactNotFound
	}
	return latest, nil
}

func (s *fakeArtifactStore) GetArtifactByID(_ context.Context, id uuid.UUID) (*domain.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.artifacts {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, store.ErrArtifactNotFound
}

func (s *fakeArtifactStore) ListArtifactVersions(
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

func (s *fakeArtifactStore) WithTx(_ *sql.Tx) store.ArtifactStore { return s }
