package mcp

import (
	"context"
	"time"

	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/domain"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	result *domain.RetrievalResult
	err    error
	query  domain.SearchQuery
}

func (m *mockSearchService) Search(_ context.Context, query domain.SearchQuery) (*domain.RetrievalResult, error) {
	m.query = query
	return m.result, m.err
}

// mockChatService is a mock implementation of driving.ChatService.
type mockChatService struct {
	answer  *domain.Answer
	err     error
	request domain.ChatRequest
}

func (m *mockChatService) Ask(_ context.Context, req domain.ChatRequest) (*domain.Answer, error) {
	m.request = req
	return m.answer, m.err
}

func (m *mockChatService) Stats() domain.ChatStats {
	return domain.ChatStats{}
}

func (m *mockChatService) InvalidateCache(context.Context) (int, error) {
	return 0, nil
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents []domain.Document
	err       error
	filters   domain.Filters
	limit     int
}

func (m *mockDocumentService) Ingest(context.Context, []domain.Document) ([]domain.IngestResult, error) {
	return nil, m.err
}

func (m *mockDocumentService) Get(_ context.Context, id string) (*domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.documents {
		if m.documents[i].ID == id {
			return &m.documents[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocumentService) Versions(context.Context, string) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) Recent(_ context.Context, filters domain.Filters, limit int) ([]domain.Document, error) {
	m.filters = filters
	m.limit = limit
	if m.err != nil {
		return nil, m.err
	}
	return m.documents[:min(limit, len(m.documents))], nil
}

func (m *mockDocumentService) Delete(context.Context, string) error {
	return m.err
}

func sampleNotices() []domain.Document {
	return []domain.Document{
		{
			ID:          "exam-midsem",
			Title:       "Mid-Semester Exam Schedule",
			Body:        "Mid semester examinations begin on 20 October.",
			SourceType:  domain.SourceTypeExam,
			PublishedAt: time.Date(2025, 10, 15, 0, 0, 0, 0, time.UTC),
			URL:         "https://kiit.ac.in/notices/exam-midsem",
			Version:     2,
		},
		{
			ID:         "holiday-diwali",
			Title:      "Diwali Holidays",
			Body:       "The university remains closed from 31 October to 3 November.",
			SourceType: domain.SourceTypeHoliday,
			Version:    1,
		},
	}
}
