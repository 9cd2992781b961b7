package database

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bilah/internal/models"
	"bilah/internal/storage"
)

func testMessage(subject string) models.Message {
	return models.Message{
		Name:    "Budi",
		Email:   "budi@example.com",
		Subject: subject,
		Body:    "Is the k_tanto back in stock?",
	}
}

func newTestRepo(t *testing.T) *ProductRepository {
	t.Helper()
	return NewProductRepository(storage.NewMemoryBackend(zap.NewNop()), zap.NewNop())
}

func validKnife(title string) map[string]any {
	return map[string]any{
		"title":          title,
		"price":          100000,
		"type":           "knife",
		"category":       "Kitchen",
		"steel":          "D2",
		"handleMaterial": "G10",
		"bladeLengthCm":  15.0,
		"handleLengthCm": 10.0,
		"bladeStyle":     "Drop Point",
		"handleStyle":    "Ergonomic",
		"images":         []any{"/a.jpg"},
	}
}

func TestUpsertOne(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	t.Run("GeneratesPrefixedID", func(t *testing.T) {
		created, err := repo.UpsertOne(ctx, validKnife("Test Knife"))
		require.NoError(t, err)
		assert.Regexp(t, regexp.MustCompile(`^k_[0-9a-z]+$`), created.ID)
		assert.Equal(t, created.CreatedAt, created.UpdatedAt)

		got, err := repo.ReadByID(ctx, created.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, created, *got)
	})

	t.Run("ToolPrefix", func(t *testing.T) {
		raw := validKnife("Axe")
		raw["type"] = "tool"
		created, err := repo.UpsertOne(ctx, raw)
		require.NoError(t, err)
		assert.Regexp(t, regexp.MustCompile(`^t_[0-9a-z]+$`), created.ID)
	})

	t.Run("ReplacePreservesCreatedAt", func(t *testing.T) {
		first, err := repo.UpsertOne(ctx, validKnife("Original"))
		require.NoError(t, err)

		raw := validKnife("Renamed")
		raw["id"] = first.ID
		second, err := repo.UpsertOne(ctx, raw)
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "Renamed", second.Title)
		assert.Equal(t, first.CreatedAt, second.CreatedAt)
		assert.False(t, second.UpdatedAt.Before(first.UpdatedAt))
	})
}

func TestUpdateByID(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	t.Run("MissReturnsNil", func(t *testing.T) {
		got, err := repo.UpdateByID(ctx, "k_missing", map[string]any{"title": "x"})
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("MergesPartialOverExisting", func(t *testing.T) {
		created, err := repo.UpsertOne(ctx, validKnife("Santoku"))
		require.NoError(t, err)

		updated, err := repo.UpdateByID(ctx, created.ID, map[string]any{"price": 175000})
		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.Equal(t, 175000, updated.Price)
		assert.Equal(t, "Santoku", updated.Title)
		assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	})

	t.Run("CreatedAtSurvivesTwoUpdates", func(t *testing.T) {
		created, err := repo.UpsertOne(ctx, validKnife("Petty"))
		require.NoError(t, err)

		first, err := repo.UpdateByID(ctx, created.ID, map[string]any{"price": 1})
		require.NoError(t, err)
		second, err := repo.UpdateByID(ctx, created.ID, map[string]any{"price": 2})
		require.NoError(t, err)

		assert.Equal(t, created.CreatedAt, first.CreatedAt)
		assert.Equal(t, created.CreatedAt, second.CreatedAt)
		assert.False(t, second.UpdatedAt.Before(first.UpdatedAt))
	})

	t.Run("IDIsImmutable", func(t *testing.T) {
		created, err := repo.UpsertOne(ctx, validKnife("Gyuto"))
		require.NoError(t, err)

		updated, err := repo.UpdateByID(ctx, created.ID, map[string]any{"id": "k_spoofed"})
		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.Equal(t, created.ID, updated.ID)
	})
}

func TestDeleteByID(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	created, err := repo.UpsertOne(ctx, validKnife("Boning Knife"))
	require.NoError(t, err)
	before, err := repo.ReadAll(ctx)
	require.NoError(t, err)

	t.Run("MissingIDReturnsFalseAndLeavesCollection", func(t *testing.T) {
		deleted, err := repo.DeleteByID(ctx, "k_nothere")
		require.NoError(t, err)
		assert.False(t, deleted)

		after, err := repo.ReadAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("ExistingIDRemoved", func(t *testing.T) {
		deleted, err := repo.DeleteByID(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		got, err := repo.ReadByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestUpsertMany(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	raws := []map[string]any{
		validKnife("Valid One"),
		{"title": "No Category"},
		validKnife("Valid Two"),
		{"price": 5000},
	}
	n, err := repo.UpsertMany(ctx, raws)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	all, err := repo.ReadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	meta, err := repo.Metadata(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, meta.Count)
	assert.Equal(t, 2, meta.Counts["knife"])
}

func TestReplaceAll(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	for i := 0; i < 5; i++ {
		_, err := repo.UpsertOne(ctx, validKnife("Old"))
		require.NoError(t, err)
	}

	n, err := repo.ReplaceAll(ctx, []map[string]any{
		validKnife("New A"),
		validKnife("New B"),
		{"title": "invalid row"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	all, err := repo.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "New A", all[0].Title)
	assert.Equal(t, "New B", all[1].Title)
}

func TestReadByKind(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	knife := validKnife("Knife")
	tool := validKnife("Tool")
	tool["type"] = "tool"
	_, err := repo.UpsertOne(ctx, knife)
	require.NoError(t, err)
	_, err = repo.UpsertOne(ctx, tool)
	require.NoError(t, err)

	tools, err := repo.ReadByKind(ctx, "tool")
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, "Tool", tools[0].Title)
}

func TestMetadataRecomputedOnWrite(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	created, err := repo.UpsertOne(ctx, validKnife("Counted"))
	require.NoError(t, err)

	meta, err := repo.Metadata(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, meta.Count)
	assert.Equal(t, schemaVersion, meta.Version)
	assert.False(t, meta.CreatedAt.IsZero())

	_, err = repo.DeleteByID(ctx, created.ID)
	require.NoError(t, err)

	meta, err = repo.Metadata(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, meta.Count)
	assert.Equal(t, 0, meta.Counts["knife"])
}

func TestMessageStore(t *testing.T) {
	ctx := context.Background()
	store := NewMessageStore(storage.NewMemoryBackend(zap.NewNop()), zap.NewNop())

	stored, err := store.Append(ctx, testMessage("First"))
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^m_[0-9a-z]+$`), stored.ID)
	assert.False(t, stored.CreatedAt.IsZero())

	_, err = store.Append(ctx, testMessage("Second"))
	require.NoError(t, err)

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "First", all[0].Subject)
	assert.Equal(t, "Second", all[1].Subject)
}
