package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panelworks/panelgen-api/internal/store"
)

// fakeResult implements sql.Result for row-count checks.
type fakeResult struct {
	rows int64
	err  error
}

func (f fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (f fakeResult) RowsAffected() (int64, error) { return f.rows, f.err }

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil passes through", nil, nil},
		{"no rows maps to not found", sql.ErrNoRows, store.ErrNotFound},
		{
			"unique violation maps to duplicate",
			&pgconn.PgError{Code: "23505", ConstraintName: "artifacts_scene_type_version_key"},
			store.ErrDuplicate,
		},
		{
			"foreign key violation maps to invalid entity",
			&pgconn.PgError{Code: "23503", ConstraintName: "artifacts_scene_id_fkey"},
			store.ErrInvalidEntity,
		},
		{
			"check violation maps to invalid entity",
			&pgconn.PgError{Code: "23514", ConstraintName: "scenes_importance_check"},
			store.ErrInvalidEntity,
		},
		{
			"not null violation maps to invalid entity",
			&pgconn.PgError{Code: "23502", ColumnName: "source_text"},
			store.ErrInvalidEntity,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := MapError(tc.err)
			if tc.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tc.want)
		})
	}

	t.Run("unmapped error passes through", func(t *testing.T) {
		err := errors.New("connection reset")
		assert.Equal(t, err, MapError(err))
	})
}

func TestIsUniqueViolation(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505"}
	assert.True(t, IsUniqueViolation(unique))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert artifact: %w", unique)))

	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("duplicate key value")))
	assert.False(t, IsUniqueViolation(nil))
}

func TestCheckRowsAffected(t *testing.T) {
	require.NoError(t, CheckRowsAffected(fakeResult{rows: 1}, store.ErrSceneNotFound))

	err := CheckRowsAffected(fakeResult{rows: 0}, store.ErrSceneNotFound)
	assert.ErrorIs(t, err, store.ErrSceneNotFound)

	err = CheckRowsAffected(fakeResult{err: errors.New("driver does not report rows")}, store.ErrSceneNotFound)
	require.Error(t, err)
	assert.NotErrorIs(t, err, store.ErrSceneNotFound)

	require.Error(t, CheckRowsAffected(nil, store.ErrSceneNotFound))
}
