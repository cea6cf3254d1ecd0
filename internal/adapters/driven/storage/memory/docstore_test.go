package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/domain"
)

func doc(id string, version int, st domain.SourceType, day int) *domain.Document {
	return &domain.Document{
		ID:          id,
		Title:       id + " title",
		Body:        "body",
		SourceType:  st,
		Version:     version,
		PublishedAt: time.Date(2025, 10, day, 0, 0, 0, 0, time.UTC),
	}
}

func TestDocumentStore_SaveAndGetLatest(t *testing.T) {
	ctx := context.Background()
	store := NewDocumentStore()

	require.NoError(t, store.SaveDocument(ctx, doc("a", 2, domain.SourceTypeExam, 10)))
	require.NoError(t, store.SaveDocument(ctx, doc("a", 1, domain.SourceTypeExam, 5)))

	got, err := store.GetDocument(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Version)

	v1, err := store.GetDocumentVersion(ctx, "a", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, v1.Version)

	versions, err := store.ListVersions(ctx, "a")
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, 1, versions[0].Version)
	assert.Equal(t, 2, versions[1].Version)
}

func TestDocumentStore_SaveOverwritesSameVersion(t *testing.T) {
	ctx := context.Background()
	store := NewDocumentStore()

	first := doc("a", 1, domain.SourceTypeGeneral, 1)
	require.NoError(t, store.SaveDocument(ctx, first))
	second := doc("a", 1, domain.SourceTypeGeneral, 1)
	second.Title = "rewritten"
	require.NoError(t, store.SaveDocument(ctx, second))

	versions, err := store.ListVersions(ctx, "a")
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, "rewritten", versions[0].Title)
}

func TestDocumentStore_InvalidInput(t *testing.T) {
	store := NewDocumentStore()
	assert.ErrorIs(t, store.SaveDocument(context.Background(), &domain.Document{}), domain.ErrInvalidInput)
	assert.ErrorIs(t, store.SaveDocument(context.Background(), nil), domain.ErrInvalidInput)
}

func TestDocumentStore_NotFound(t *testing.T) {
	ctx := context.Background()
	store := NewDocumentStore()

	_, err := store.GetDocument(ctx, "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	_, err = store.GetDocumentVersion(ctx, "missing", 1)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	_, err = store.ListVersions(ctx, "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.True(t, errors.Is(store.DeleteDocument(ctx, "missing"), domain.ErrNotFound))
}

func TestDocumentStore_ListLatestDocuments(t *testing.T) {
	ctx := context.Background()
	store := NewDocumentStore()

	require.NoError(t, store.SaveDocument(ctx, doc("exam", 1, domain.SourceTypeExam, 1)))
	require.NoError(t, store.SaveDocument(ctx, doc("exam", 2, domain.SourceTypeExam, 20)))
	require.NoError(t, store.SaveDocument(ctx, doc("holiday", 1, domain.SourceTypeHoliday, 10)))
	require.NoError(t, store.SaveDocument(ctx, doc("course", 1, domain.SourceTypeCourse, 15)))

	t.Run("latest only newest first", func(t *testing.T) {
		docs, err := store.ListLatestDocuments(ctx, nil)
		require.NoError(t, err)
		require.Len(t, docs, 3)
		assert.Equal(t, "exam", docs[0].ID)
		assert.Equal(t, 2, docs[0].Version)
		assert.Equal(t, "course", docs[1].ID)
		assert.Equal(t, "holiday", docs[2].ID)
	})

	t.Run("filters", func(t *testing.T) {
		start := time.Date(2025, 10, 5, 0, 0, 0, 0, time.UTC)
		end := time.Date(2025, 10, 15, 0, 0, 0, 0, time.UTC)
		docs, err := store.ListLatestDocuments(ctx, &domain.Filters{StartDate: &start, EndDate: &end})
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "course", docs[0].ID)
		assert.Equal(t, "holiday", docs[1].ID)

		docs, err = store.ListLatestDocuments(ctx, &domain.Filters{SourceTypes: []domain.SourceType{domain.SourceTypeExam}})
		require.NoError(t, err)
		require.Len(t, docs, 1)
	})

	t.Run("superseded version outside filter does not leak", func(t *testing.T) {
		end := time.Date(2025, 10, 2, 0, 0, 0, 0, time.UTC)
		docs, err := store.ListLatestDocuments(ctx, &domain.Filters{EndDate: &end})
		require.NoError(t, err)
		assert.Empty(t, docs)
	})

	n, err := store.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestDocumentStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := NewDocumentStore()
	require.NoError(t, store.SaveDocument(ctx, doc("a", 1, domain.SourceTypeGeneral, 1)))
	require.NoError(t, store.SaveDocument(ctx, doc("a", 2, domain.SourceTypeGeneral, 2)))

	require.NoError(t, store.DeleteDocument(ctx, "a"))

	_, err := store.GetDocument(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	n, _ := store.CountDocuments(ctx)
	assert.Equal(t, 0, n)
}
