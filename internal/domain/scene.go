package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for Scene
var (
	ErrEmptySceneID         = errors.New("scene ID cannot be empty")
	ErrEmptySceneSourceText = errors.New("scene source text cannot be empty")
	ErrInvalidImportance    = errors.New("scene importance must be in [0,1]")
)

// Scene is the narrative unit the pipeline operates on. The engine reads
// its source text, importance and character list; PlanningLocked is a
// lifecycle gate that freezes planning-stage artifact versions while true.
type Scene struct {
	ID             uuid.UUID `json:"id"`
	Title          string    `json:"title"`
	SourceText     string    `json:"source_text"`
	Importance     float64   `json:"importance"`
	CharacterNames []string  `json:"character_names"`
	PlanningLocked bool      `json:"planning_locked"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewScene creates a new Scene with the given title, text and importance.
// Importance defaults to 0.5 when zero is passed for a scene with text,
// matching how externally created scenes arrive without a ranking.
func NewScene(title, sourceText string, importance float64, characterNames []string) (*Scene, error) {
	if importance == 0 {
		importance = 0.5
	}

	scene := &Scene{
		ID:             uuid.New(),
		Title:          title,
		SourceText:     sourceText,
		Importance:     importance,
		CharacterNames: characterNames,
		PlanningLocked: false,
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}

	if err := scene.Validate(); err != nil {
		return nil, err
	}

	return scene, nil
}

// Validate checks if the Scene has valid data.
func (s *Scene) Validate() error {
	if s.ID == uuid.Nil {
		return ErrEmptySceneID
	}

	if s.SourceText == "" {
		return ErrEmptySceneSourceText
	}

	if s.Importance < 0 || s.Importance > 1 {
		return ErrInvalidImportance
	}

	return nil
}

// SetPlanningLocked updates the lock flag and the UpdatedAt timestamp.
func (s *Scene) SetPlanningLocked(locked bool) {
	s.PlanningLocked = locked
	s.UpdatedAt = time.Now().UTC()
}
