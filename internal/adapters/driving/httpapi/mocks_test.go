package httpapi

import (
	"context"
	"sync"

	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/domain"
)

type mockChat struct {
	mu       sync.Mutex
	answer   *domain.Answer
	err      error
	requests []domain.ChatRequest
	stats    domain.ChatStats
	cleared  int
}

func (m *mockChat) Ask(_ context.Context, req domain.ChatRequest) (*domain.Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	return m.answer, nil
}

func (m *mockChat) Stats() domain.ChatStats { return m.stats }

func (m *mockChat) InvalidateCache(context.Context) (int, error) {
	return m.cleared, m.err
}

type mockSearch struct {
	result *domain.RetrievalResult
	err    error
	query  domain.SearchQuery
}

func (m *mockSearch) Search(_ context.Context, q domain.SearchQuery) (*domain.RetrievalResult, error) {
	m.query = q
	return m.result, m.err
}

type mockDocuments struct {
	docs     map[string]domain.Document
	ingested []domain.Document
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
		out[i] = domain.IngestResult{ID: d.ID, Version: 1, Status: domain.IngestCreated}
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
	return nil, nil
}

func (m *mockDocuments) Recent(_ context.Context, filters domain.Filters, limit int) ([]domain.Document, error) {
	m.filters = filters
	m.limit = limit
	out := make([]domain.Document, 0, len(m.docs))
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
	report    domain.IndexReport
	stats     domain.IndexStats
	err       error
	rebuilds  int
	upsertIDs []string
}

func (m *mockIndex) Build(context.Context, []domain.Document) (domain.IndexReport, error) {
	return m.report, m.err
}

func (m *mockIndex) Rebuild(context.Context) (domain.IndexReport, error) {
	m.rebuilds++
	return m.report, m.err
}

func (m *mockIndex) Upsert(context.Context, domain.Document) (domain.IndexReport, error) {
	return m.report, m.err
}

func (m *mockIndex) UpsertByID(_ context.Context, id string) (domain.IndexReport, error) {
	m.upsertIDs = append(m.upsertIDs, id)
	return m.report, m.err
}

func (m *mockIndex) Remove(context.Context, string) (domain.IndexReport, error) {
	return m.report, m.err
}

func (m *mockIndex) Stats(context.Context) (domain.IndexStats, error) {
	return m.stats, m.err
}
