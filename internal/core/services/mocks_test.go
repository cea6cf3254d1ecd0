package services

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/adapters/driven/storage/memory"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/domain"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/index"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbeddingService implements driven.EmbeddingService with a bag of
// words over a fixed vocabulary, so similar texts get similar vectors.
type mockEmbeddingService struct {
	vocab    []string
	embedErr error
	failOn   string // texts containing this substring fail
	calls    atomic.Int32
}

func newMockEmbedder(vocab ...string) *mockEmbeddingService {
	return &mockEmbeddingService{vocab: vocab}
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	m.calls.Add(1)
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	if m.failOn != "" && strings.Contains(text, m.failOn) {
		return nil, domain.ErrTransient
	}
	words := strings.Fields(strings.ToLower(text))
	vec := make([]float32, len(m.vocab)+1)
	vec[len(m.vocab)] = 0.01 // never a zero vector
	for i, v := range m.vocab {
		for _, w := range words {
			if strings.Trim(w, "?.,!") == v {
				vec[i]++
			}
		}
	}
	return vec, nil
}

func (m *mockEmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *mockEmbeddingService) Dimensions() int   { return len(m.vocab) + 1 }
func (m *mockEmbeddingService) ModelName() string { return "mock-embed" }

func (m *mockEmbeddingService) Ping(_ context.Context) error {
	return nil
}

func (m *mockEmbeddingService) Close() error {
	return nil
}

// mockLLMService implements driven.LLMService for testing.
type mockLLMService struct {
	mu       sync.Mutex
	reply    string
	err      error
	delay    time.Duration
	calls    int
	messages []driven.ChatMessage
}

func (m *mockLLMService) Generate(ctx context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	return m.Chat(ctx, []driven.ChatMessage{{Role: "user", Content: prompt}}, driven.ChatOptions{})
}

func (m *mockLLMService) Chat(ctx context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	m.mu.Lock()
	m.calls++
	m.messages = messages
	reply, err, delay := m.reply, m.err, m.delay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return reply, err
}

func (m *mockLLMService) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *mockLLMService) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var b strings.Builder
	for _, msg := range m.messages {
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	return b.String()
}

func (m *mockLLMService) ModelName() string { return "mock-llm" }

func (m *mockLLMService) Ping(_ context.Context) error {
	return nil
}

func (m *mockLLMService) Close() error {
	return nil
}

// mockPromptStore implements driven.PromptStore for testing.
type mockPromptStore struct {
	prompts map[string]string
	err     error
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.prompts[name], nil
}

func (m *mockPromptStore) Reload() {}

// --- Fixtures ---

func date(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func datePtr(s string) *time.Time {
	t := date(s)
	return &t
}

func testDoc(id, title, body string, st domain.SourceType, published string) domain.Document {
	doc := domain.Document{
		ID:         id,
		Title:      title,
		Body:       body,
		SourceType: st,
		URL:        "https://kiit.ac.in/notices/" + id,
		Version:    1,
	}
	if published != "" {
		doc.PublishedAt = date(published)
	}
	return doc
}

// testCorpus is a small notice board used across the pipeline tests.
func testCorpus() []domain.Document {
	return []domain.Document{
		testDoc("exam-midsem", "Mid-Semester Exam Schedule",
			"The mid-semester examinations for all B.Tech programmes begin on 20 October 2025. "+
				"Students must carry their identity cards to the examination hall.",
			domain.SourceTypeExam, "2025-10-15"),
		testDoc("holiday-diwali", "Diwali Holidays",
			"The university will remain closed from 31 October to 3 November 2025 for Diwali.",
			domain.SourceTypeHoliday, "2025-10-10"),
		testDoc("calendar-autumn", "Academic Calendar Autumn Semester",
			"Classes commence on 21 July 2025. Registration closes on 1 August 2025. "+
				"End semester examinations start on 24 November 2025.",
			domain.SourceTypeAcademicCalendar, "2025-07-01"),
		testDoc("course-cs101", "CS101 Introduction to Programming",
			"An introductory course on programming in C covering control flow, functions and pointers.",
			domain.SourceTypeCourse, "2025-06-15"),
		testDoc("general-library", "Library Timings Extended",
			"The central library will stay open until midnight during the examination period.",
			domain.SourceTypeGeneral, "2025-10-12"),
	}
}

func testSettings() *domain.AppSettings {
	s := domain.DefaultAppSettings()
	s.Indexer.Workers = 2
	return &s
}

// buildIndex builds a lexical index over docs and returns the holder.
func buildIndex(t *testing.T, docs []domain.Document) *index.Holder {
	t.Helper()
	holder := index.NewHolder()
	svc := NewIndexService(holder, nil, nil, testSettings())
	_, err := svc.Build(context.Background(), docs)
	require.NoError(t, err)
	return holder
}

func hitIDs(result *domain.RetrievalResult) []string {
	ids := make([]string, len(result.Hits))
	for i, h := range result.Hits {
		ids[i] = h.Document.ID
	}
	return ids
}

// pipeline wires the chat services over an in-memory store and cache.
type pipeline struct {
	store    *memory.DocumentStore
	cache    *memory.Cache
	holder   *index.Holder
	indexer  *IndexService
	search   *SearchService
	llm      *mockLLMService
	chat     *ChatService
	settings *domain.AppSettings
}

func newPipeline(t *testing.T, docs []domain.Document, llm *mockLLMService) *pipeline {
	t.Helper()
	ctx := context.Background()
	settings := testSettings()

	store := memory.NewDocumentStore()
	for i := range docs {
		require.NoError(t, store.SaveDocument(ctx, &docs[i]))
	}

	p := &pipeline{
		store:    store,
		cache:    memory.NewCache(100),
		holder:   index.NewHolder(),
		llm:      llm,
		settings: settings,
	}
	p.indexer = NewIndexService(p.holder, store, nil, settings)
	p.search = NewSearchService(p.holder, nil, settings)

	var model driven.LLMService
	if llm != nil {
		model = llm
	}
	p.chat = NewChatService(
		p.search,
		NewContextAssembler(settings.Context),
		NewAnswerGenerator(model, settings.LLM),
		p.cache,
		settings,
	)
	p.indexer.OnPublish(p.chat.OnIndexPublished)

	_, err := p.indexer.Rebuild(ctx)
	require.NoError(t, err)
	return p
}
