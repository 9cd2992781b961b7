package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFileBackend(t *testing.T) {
	ctx := context.Background()
	backend, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)

	t.Run("LoadBeforeFirstWriteIsNil", func(t *testing.T) {
		data, err := backend.Load(ctx, "products")
		require.NoError(t, err)
		assert.Nil(t, data)
	})

	t.Run("StoreThenLoad", func(t *testing.T) {
		doc := []byte(`{"records":[]}`)
		require.NoError(t, backend.Store(ctx, "products", doc))

		data, err := backend.Load(ctx, "products")
		require.NoError(t, err)
		assert.Equal(t, doc, data)
	})

	t.Run("CollectionsAreIsolated", func(t *testing.T) {
		require.NoError(t, backend.Store(ctx, "articles", []byte(`{"count":1}`)))
		data, err := backend.Load(ctx, "messages")
		require.NoError(t, err)
		assert.Nil(t, data)
	})

	t.Run("Status", func(t *testing.T) {
		status := backend.Status()
		assert.Equal(t, KindFile, status.Kind)
		assert.True(t, status.Durable)
	})
}

func TestMemoryBackend(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend(zap.NewNop())

	data, err := backend.Load(ctx, "products")
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, backend.Store(ctx, "products", []byte(`{}`)))
	data, err = backend.Load(ctx, "products")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{}`), data)

	status := backend.Status()
	assert.Equal(t, KindMemory, status.Kind)
	assert.False(t, status.Durable)
	assert.NotEmpty(t, status.Warning)
}

func TestSelect(t *testing.T) {
	log := zap.NewNop()

	t.Run("ExplicitFile", func(t *testing.T) {
		backend, err := Select(Options{Kind: KindFile, DataDir: t.TempDir()}, log)
		require.NoError(t, err)
		assert.Equal(t, KindFile, backend.Status().Kind)
	})

	t.Run("ExplicitMemory", func(t *testing.T) {
		backend, err := Select(Options{Kind: KindMemory}, log)
		require.NoError(t, err)
		assert.Equal(t, KindMemory, backend.Status().Kind)
	})

	t.Run("UnknownKindFails", func(t *testing.T) {
		_, err := Select(Options{Kind: "postgres"}, log)
		assert.Error(t, err)
	})

	t.Run("ProbePrefersWritableDir", func(t *testing.T) {
		backend, err := Select(Options{DataDir: t.TempDir()}, log)
		require.NoError(t, err)
		assert.Equal(t, KindFile, backend.Status().Kind)
	})

	t.Run("ProbeFallsBackToMemory", func(t *testing.T) {
		// A regular file in place of the data dir makes MkdirAll fail.
		blocked := filepath.Join(t.TempDir(), "taken")
		require.NoError(t, os.WriteFile(blocked, []byte("x"), 0o644))
		backend, err := Select(Options{DataDir: filepath.Join(blocked, "data")}, log)
		require.NoError(t, err)
		assert.Equal(t, KindMemory, backend.Status().Kind)
	})
}
