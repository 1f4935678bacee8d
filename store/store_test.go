package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

// storeUnderTest runs the same contract against every Store implementation.
func storeUnderTest(t *testing.T, name string, s Store) {
	ctx := context.Background()

	t.Run(name+"/load missing", func(t *testing.T) {
		_, err := s.Load(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run(name+"/save and load", func(t *testing.T) {
		require.NoError(t, s.Save(ctx, "s1", []byte(`{"currentStepId":"account"}`)))

		got, err := s.Load(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, []byte(`{"currentStepId":"account"}`), got)
	})

	t.Run(name+"/save overwrites", func(t *testing.T) {
		require.NoError(t, s.Save(ctx, "s2", []byte("v1")))
		require.NoError(t, s.Save(ctx, "s2", []byte("v2")))

		got, err := s.Load(ctx, "s2")
		require.NoError(t, err)
		assert.Equal(t, []byte("v2"), got)
	})

	t.Run(name+"/delete", func(t *testing.T) {
		require.NoError(t, s.Save(ctx, "s3", []byte("gone")))
		require.NoError(t, s.Delete(ctx, "s3"))

		_, err := s.Load(ctx, "s3")
		assert.ErrorIs(t, err, ErrNotFound)

		// deleting an absent session is not an error
		assert.NoError(t, s.Delete(ctx, "s3"))
	})
}

func TestMemoryStore(t *testing.T) {
	storeUnderTest(t, "memory", NewMemoryStore())
}

func TestMemoryStore_CopiesState(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	in := []byte("original")
	require.NoError(t, s.Save(ctx, "s1", in))
	in[0] = 'X'

	got, err := s.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), got, "stored state must not alias the caller's buffer")

	got[0] = 'Y'
	again, err := s.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), again)
}

func TestSQLiteStore(t *testing.T) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s, err := NewSQLiteStore(db)
	require.NoError(t, err)

	storeUnderTest(t, "sqlite", s)
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sessions.db")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	s, err := NewSQLiteStore(db)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, "s1", []byte("persisted")))
	require.NoError(t, db.Close())

	db, err = sql.Open("sqlite", path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	s, err = NewSQLiteStore(db)
	require.NoError(t, err)

	got, err := s.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []byte("persisted"), got)
}
