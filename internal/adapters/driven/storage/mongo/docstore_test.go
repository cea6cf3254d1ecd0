package mongo

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/domain"
)

func TestVersionKey(t *testing.T) {
	assert.Equal(t, "notice-1@3", versionKey("notice-1", 3))
}

func TestModelRoundTrip(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	doc := &domain.Document{
		ID:              "n1",
		Title:           "Mid-semester schedule",
		Body:            "Exams start on 20 October.",
		SourceType:      domain.SourceTypeExam,
		PublishedAt:     time.Date(2025, 10, 1, 9, 0, 0, 0, ist),
		URL:             "https://kiit.ac.in/notices/n1",
		Version:         2,
		PreviousVersion: 1,
		ContentHash:     "abc",
		Metadata:        map[string]string{"campus": "15"},
		CreatedAt:       time.Date(2025, 10, 1, 4, 0, 0, 0, time.UTC),
		UpdatedAt:       time.Date(2025, 10, 1, 4, 0, 0, 0, time.UTC),
	}

	m := toModel(doc)
	assert.Equal(t, "n1@2", m.Key)
	require.NotNil(t, m.PublishedAt)
	assert.Equal(t, time.UTC, m.PublishedAt.Location())

	raw, err := bson.Marshal(m)
	require.NoError(t, err)
	var decoded documentModel
	require.NoError(t, bson.Unmarshal(raw, &decoded))

	got := decoded.toDomain()
	assert.Equal(t, doc.ID, got.ID)
	assert.Equal(t, doc.Version, got.Version)
	assert.Equal(t, doc.PreviousVersion, got.PreviousVersion)
	assert.True(t, doc.PublishedAt.Equal(got.PublishedAt))
	assert.Equal(t, doc.Metadata, got.Metadata)
	assert.Equal(t, domain.SourceTypeExam, got.SourceType)
}

func TestModel_UndatedDocumentOmitsPublishedAt(t *testing.T) {
	m := toModel(&domain.Document{ID: "n1", Version: 1})
	assert.Nil(t, m.PublishedAt)

	raw, err := bson.Marshal(m)
	require.NoError(t, err)
	_, err = bson.Raw(raw).LookupErr("published_at")
	assert.Error(t, err)

	assert.True(t, m.toDomain().PublishedAt.IsZero())
}

func TestLatestPipeline(t *testing.T) {
	t.Run("no filters", func(t *testing.T) {
		p := latestPipeline(nil)
		require.Len(t, p, 3)
		assert.Equal(t, "$sort", p[0][0].Key)
		assert.Equal(t, "$group", p[1][0].Key)
		assert.Equal(t, "$replaceRoot", p[2][0].Key)
	})

	t.Run("source types matched first", func(t *testing.T) {
		p := latestPipeline(&domain.Filters{
			SourceTypes: []domain.SourceType{domain.SourceTypeExam, domain.SourceTypeHoliday},
		})
		require.Len(t, p, 4)
		assert.Equal(t, "$match", p[0][0].Key)

		match := p[0][0].Value.(bson.D)
		in := match[0].Value.(bson.D)
		assert.Equal(t, []string{"exam", "holiday"}, in[0].Value)
	})

	t.Run("date-only filters stay out of the pipeline", func(t *testing.T) {
		start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		p := latestPipeline(&domain.Filters{StartDate: &start})
		assert.Len(t, p, 3)
	})
}

func TestConnect_RequiresURI(t *testing.T) {
	_, err := Connect(context.Background(), "", "kiit_chatbot")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSaveDocument_RejectsInvalid(t *testing.T) {
	s := &DocumentStore{}
	assert.ErrorIs(t, s.SaveDocument(context.Background(), nil), domain.ErrInvalidInput)
	assert.ErrorIs(t, s.SaveDocument(context.Background(), &domain.Document{}), domain.ErrInvalidInput)
}

// openTestStore connects to KIITBOT_TEST_MONGO_URI using a throwaway
// database, skipping when no server is configured.
func openTestStore(t *testing.T) *DocumentStore {
	t.Helper()
	uri := os.Getenv("KIITBOT_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("KIITBOT_TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	store, err := Connect(ctx, uri, fmt.Sprintf("kiitbot_test_%d", time.Now().UnixNano()))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.collection.Database().Drop(ctx)
		_ = store.Close(ctx)
	})
	return store
}

func TestDocumentStore_Versions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	v1 := &domain.Document{
		ID: "exam-midsem", Title: "Mid-Semester Exam Schedule", Body: "Exams start 20 October.",
		SourceType: domain.SourceTypeExam, PublishedAt: time.Date(2025, 10, 15, 0, 0, 0, 0, time.UTC),
		Version: 1, ContentHash: "h1",
	}
	v2 := *v1
	v2.Body, v2.Version, v2.PreviousVersion, v2.ContentHash = "Exams start 22 October.", 2, 1, "h2"
	holiday := &domain.Document{
		ID: "holiday-diwali", Title: "Diwali Holidays", Body: "Closed 31 October.",
		SourceType: domain.SourceTypeHoliday, Version: 1, ContentHash: "h3",
	}

	require.NoError(t, s.SaveDocument(ctx, v1))
	require.NoError(t, s.SaveDocument(ctx, &v2))
	require.NoError(t, s.SaveDocument(ctx, holiday))

	latest, err := s.GetDocument(ctx, "exam-midsem")
	require.NoError(t, err)
	assert.Equal(t, 2, latest.Version)
	assert.Equal(t, "Exams start 22 October.", latest.Body)

	old, err := s.GetDocumentVersion(ctx, "exam-midsem", 1)
	require.NoError(t, err)
	assert.Equal(t, "Exams start 20 October.", old.Body)

	versions, err := s.ListVersions(ctx, "exam-midsem")
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, 1, versions[0].Version)

	all, err := s.ListLatestDocuments(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "exam-midsem", all[0].ID)
	assert.Equal(t, 2, all[0].Version)

	holidays, err := s.ListLatestDocuments(ctx, &domain.Filters{SourceTypes: []domain.SourceType{domain.SourceTypeHoliday}})
	require.NoError(t, err)
	require.Len(t, holidays, 1)
	assert.Equal(t, "holiday-diwali", holidays[0].ID)

	n, err := s.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, s.DeleteDocument(ctx, "exam-midsem"))
	_, err = s.GetDocument(ctx, "exam-midsem")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, s.DeleteDocument(ctx, "exam-midsem"), domain.ErrNotFound)
}
