package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNotFoundError(t *testing.T) {
	assert.True(t, IsNotFoundError(ErrNotFound))
	assert.True(t, IsNotFoundError(ErrSceneNotFound))
	assert.True(t, IsNotFoundError(ErrArtifactNotFound))
	assert.True(t, IsNotFoundError(fmt.Errorf("lookup failed: %w", ErrSceneNotFound)))

	assert.False(t, IsNotFoundError(nil))
	assert.False(t, IsNotFoundError(ErrDuplicate))
	assert.False(t, IsNotFoundError(errors.New("entity not found")))
}

func TestIsVersionConflict(t *testing.T) {
	assert.True(t, IsVersionConflict(ErrVersionConflict))
	assert.True(t, IsVersionConflict(fmt.Errorf("create artifact: %w", ErrVersionConflict)))

	// A version conflict is a kind of duplicate, not vice versa.
	assert.True(t, errors.Is(ErrVersionConflict, ErrDuplicate))
	assert.False(t, IsVersionConflict(ErrDuplicate))
	assert.False(t, IsVersionConflict(nil))
}

func TestStoreError_Error(t *testing.T) {
	withCause := NewStoreError("artifact", "create", "insert failed", errors.New("connection reset"))
	assert.Equal(t, "create operation on artifact failed: insert failed: connection reset", withCause.Error())

	withoutCause := NewStoreError("scene", "update", "no rows affected", nil)
	assert.Equal(t, "update operation on scene failed: no rows affected", withoutCause.Error())
}

func TestStoreError_Unwrap(t *testing.T) {
	storeErr := NewStoreError("artifact", "create", "version race", ErrVersionConflict)

	assert.True(t, IsVersionConflict(storeErr))
	assert.True(t, errors.Is(storeErr, ErrDuplicate))

	var target *StoreError
	assert.True(t, errors.As(fmt.Errorf("outer: %w", storeErr), &target))
	assert.Equal(t, "artifact", target.Entity)
	assert.Equal(t, "create", target.Operation)
}
