package cli

import (
	"bytes"
	"context"
	"time"

	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/domain"
)

type mockChat struct {
	answer   *domain.Answer
	err      error
	requests []domain.ChatRequest
	stats    domain.ChatStats
}

func (m *mockChat) Ask(_ context.Context, req domain.ChatRequest) (*domain.Answer, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	return m.answer, nil
}

func (m *mockChat) Stats() domain.ChatStats { return m.stats }

func (m *mockChat) InvalidateCache(context.Context) (int, error) { return 0, nil }

type mockSearch struct {
	result  *domain.RetrievalResult
	err     error
	queries []domain.SearchQuery
}

func (m *mockSearch) Search(_ context.Context, q domain.SearchQuery) (*domain.RetrievalResult, error) {
	m.queries = append(m.queries, q)
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

type mockDocuments struct {
	docs     map[string]domain.Document
	versions []domain.Document
	ingested []domain.Document
	statuses []domain.IngestStatus
	deleted  []string
	filters  domain.Filters
	limit    int
	err      error
}

func (m *mockDocuments) Ingest(_ context.Context, docs []domain.Document) ([]domain.IngestResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.ingested = append(m.ingested, docs...)
	out := make([]domain.IngestResult, len(docs))
	for i, d := range docs {
		status := domain.IngestCreated
		if i < len(m.statuses) {
			status = m.statuses[i]
		}
		out[i] = domain.IngestResult{ID: d.ID, Version: 1, Status: status}
	}
	return out, nil
}

func (m *mockDocuments) Get(_ context.Context, id string) (*domain.Document, error) {
	d, ok := m.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &d, nil
}

func (m *mockDocuments) Versions(context.Context, string) ([]domain.Document, error) {
	return m.versions, nil
}

func (m *mockDocuments) Recent(_ context.Context, filters domain.Filters, limit int) ([]domain.Document, error) {
	m.filters = filters
	m.limit = limit
	var out []domain.Document
	for _, d := range m.docs {
		out = append(out, d)
	}
	domain.SortNewestFirst(out)
	return out, m.err
}

func (m *mockDocuments) Delete(_ context.Context, id string) error {
	if _, ok := m.docs[id]; !ok {
		return domain.ErrNotFound
	}
	m.deleted = append(m.deleted, id)
	return nil
}

type mockIndex struct {
	stats    domain.IndexStats
	report   domain.IndexReport
	err      error
	rebuilds int
	upserted []string
	removed  []string
}

func (m *mockIndex) Build(context.Context, []domain.Document) (domain.IndexReport, error) {
	return m.report, m.err
}

func (m *mockIndex) Rebuild(context.Context) (domain.IndexReport, error) {
	m.rebuilds++
	if m.err != nil {
		return domain.IndexReport{}, m.err
	}
	m.stats.Initialised = true
	return m.report, nil
}

func (m *mockIndex) Upsert(context.Context, domain.Document) (domain.IndexReport, error) {
	return m.report, m.err
}

func (m *mockIndex) UpsertByID(_ context.Context, id string) (domain.IndexReport, error) {
	m.upserted = append(m.upserted, id)
	return m.report, m.err
}

func (m *mockIndex) Remove(_ context.Context, id string) (domain.IndexReport, error) {
	m.removed = append(m.removed, id)
	return m.report, m.err
}

func (m *mockIndex) Stats(context.Context) (domain.IndexStats, error) {
	return m.stats, nil
}

type mockSettings struct {
	settings    domain.AppSettings
	validateErr error
	embedErr    error
}

func newMockSettings() *mockSettings {
	return &mockSettings{settings: domain.DefaultAppSettings()}
}

func (m *mockSettings) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettings) Save(s *domain.AppSettings) error {
	m.settings = *s
	return nil
}

func (m *mockSettings) SetSearchMode(mode domain.SearchMode) error {
	m.settings.Search.Mode = mode
	return nil
}

func (m *mockSettings) SetHybridWeights(lexical, semantic float64) error {
	if lexical < 0 || semantic < 0 {
		return domain.ErrInvalidInput
	}
	m.settings.Search.LexicalWeight = lexical
	m.settings.Search.SemanticWeight = semantic
	return nil
}

func (m *mockSettings) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	m.settings.Embedding.Provider = provider
	m.settings.Embedding.Model = model
	m.settings.Embedding.APIKey = apiKey
	return nil
}

func (m *mockSettings) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	m.settings.LLM.Provider = provider
	m.settings.LLM.Model = model
	m.settings.LLM.APIKey = apiKey
	return nil
}

func (m *mockSettings) Validate() error { return m.validateErr }

func (m *mockSettings) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

func (m *mockSettings) ValidateEmbeddingConfig() error { return m.embedErr }

func (m *mockSettings) ValidateLLMConfig() error { return nil }

type testServices struct {
	chat     *mockChat
	search   *mockSearch
	docs     *mockDocuments
	index    *mockIndex
	settings *mockSettings
}

var (
	examNotice = domain.Document{
		ID:          "exam-midsem",
		Title:       "Mid-Semester Examination Schedule",
		Body:        "Mid-semester examinations begin on 20 October.",
		SourceType:  domain.SourceTypeExam,
		PublishedAt: time.Date(2025, 10, 15, 0, 0, 0, 0, time.UTC),
		URL:         "https://kiit.ac.in/notices/exam-midsem",
		Version:     2,
		ContentHash: "3f2a9c1d7e6b5a4c3f2a9c1d",
		CreatedAt:   time.Date(2025, 10, 15, 9, 0, 0, 0, time.UTC),
	}
	holidayNotice = domain.Document{
		ID:         "holiday-diwali",
		Title:      "Diwali Holidays",
		Body:       "The university remains closed from 31 October to 3 November.",
		SourceType: domain.SourceTypeHoliday,
		Version:    1,
	}
)

// setupTestServices installs mocks and resets command state. The
// returned buffer captures both output streams.
func setupTestServices() (*testServices, *bytes.Buffer, func()) {
	ts := &testServices{
		chat: &mockChat{answer: &domain.Answer{
			Text: "Mid-semester exams begin on 20 October [1].",
			Sources: []domain.Source{{
				Marker:      1,
				DocumentID:  examNotice.ID,
				Title:       examNotice.Title,
				URL:         examNotice.URL,
				PublishedAt: examNotice.PublishedAt,
				SourceType:  examNotice.SourceType,
			}},
			Elapsed: 120 * time.Millisecond,
		}},
		search: &mockSearch{result: &domain.RetrievalResult{
			Hits: []domain.Hit{{
				Document:     examNotice,
				Score:        0.82,
				MatchedTerms: []string{"exam", "midsem"},
				Snippet:      "Mid-semester examinations begin on 20 October.",
			}},
			Total: 1,
			Mode:  domain.SearchModeHybrid,
		}},
		docs: &mockDocuments{docs: map[string]domain.Document{
			examNotice.ID:    examNotice,
			holidayNotice.ID: holidayNotice,
		}},
		index: &mockIndex{
			report: domain.IndexReport{Indexed: 2, Generation: 1, Duration: 15 * time.Millisecond},
		},
		settings: newMockSettings(),
	}

	SetServices(Services{
		Chat:     ts.chat,
		Search:   ts.search,
		Document: ts.docs,
		Index:    ts.index,
		Settings: ts.settings,
	})

	searchLimit, searchJSON = 10, false
	askLimit, askJSON = 0, false
	recentLimit, recentJSON, showVersions = 10, false, false
	searchFilters.reset()
	askFilters.reset()
	recentFilters.reset()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(new(bytes.Buffer))
	rootCmd.SetContext(context.Background())
	for _, c := range rootCmd.Commands() {
		c.SetContext(nil) //nolint:staticcheck // let cobra propagate the root context again
	}

	return ts, buf, func() {
		SetServices(Services{})
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}
}

func execute(args ...string) error {
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}
