package services

import (
	"cmp"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/domain"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/ports/driven"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/ports/driving"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/logger"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

// ResponseCachePrefix namespaces cached answers in the shared cache.
const ResponseCachePrefix = "chat:response:"

// popularLimit is how many popular queries Stats reports.
const popularLimit = 10

// ChatService runs the question-answering pipeline: cache lookup,
// retrieval, context assembly and generation.
type ChatService struct {
	search    driving.SearchService
	assembler *ContextAssembler
	generator *AnswerGenerator
	cache     driven.Cache

	budget   int
	cacheTTL time.Duration
	useCache bool
	now      func() time.Time

	mu      sync.Mutex
	stats   domain.ChatStats
	queries map[string]int

	// cacheMu orders cache writes against publishes: an answer is only
	// written while its generation is still the latest published one.
	cacheMu   sync.Mutex
	published uint64
}

// NewChatService creates the chat pipeline. cache may be nil to disable
// response caching.
func NewChatService(
	search driving.SearchService,
	assembler *ContextAssembler,
	generator *AnswerGenerator,
	cache driven.Cache,
	settings *domain.AppSettings,
) *ChatService {
	return &ChatService{
		search:    search,
		assembler: assembler,
		generator: generator,
		cache:     cache,
		budget:    settings.Context.MaxChars,
		cacheTTL:  settings.Cache.TTL,
		useCache:  cache != nil && settings.Cache.Enabled && settings.Cache.TTL > 0,
		now:       time.Now,
		queries:   make(map[string]int),
	}
}

// Ask answers one question. Model failures produce a degraded answer that
// carries the retrieved sources; retrieval failures are returned as errors.
func (s *ChatService) Ask(ctx context.Context, req domain.ChatRequest) (*domain.Answer, error) {
	start := s.now()
	requestID := uuid.NewString()

	normalized := NormalizeQuery(req.Query)
	if normalized == "" {
		return nil, fmt.Errorf("%w: query text is empty", domain.ErrInvalidQuery)
	}
	if req.Limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative", domain.ErrInvalidQuery)
	}
	if err := req.Filters.Validate(); err != nil {
		return nil, err
	}
	logger.Debug("[%s] session=%q query=%q", requestID, req.SessionID, normalized)
	s.recordQuery(normalized)

	key := ResponseCacheKey(normalized, req.Filters, req.Limit)
	if cached := s.cached(ctx, key); cached != nil {
		cached.FromCache = true
		cached.RequestID = requestID
		cached.Elapsed = s.now().Sub(start)
		s.count(func(st *domain.ChatStats) { st.CacheHits++ })
		logger.Debug("[%s] served from cache", requestID)
		return cached, nil
	}

	result, err := s.search.Search(ctx, domain.SearchQuery{
		Text:    req.Query,
		Filters: req.Filters,
		Limit:   req.Limit,
	})
	if err != nil {
		return nil, err
	}

	bundle := s.assembler.Assemble(result, s.budget)
	logger.Debug("[%s] %d hits, %d in context (%d/%d chars)",
		requestID, len(result.Hits), len(bundle.Items), bundle.Size, bundle.Budget)

	answer, err := s.generator.Generate(ctx, req.Query, bundle)
	switch {
	case err == nil:
		if answer.Insufficient {
			s.count(func(st *domain.ChatStats) { st.Insufficient++ })
		}
		answer.CreatedAt = s.now()
		s.store(ctx, key, answer, result.Generation)
	case domain.IsModelFailure(err):
		logger.Warn("[%s] generation failed, returning sources only: %v", requestID, err)
		answer = degradedAnswer(bundle)
		answer.CreatedAt = s.now()
		s.count(func(st *domain.ChatStats) { st.Degraded++ })
	default:
		return nil, err
	}

	answer.RequestID = requestID
	answer.Elapsed = s.now().Sub(start)
	return answer, nil
}

// Stats returns counters since process start.
func (s *ChatService) Stats() domain.ChatStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := s.stats
	stats.Popular = make([]domain.PopularQuery, 0, len(s.queries))
	for q, n := range s.queries {
		stats.Popular = append(stats.Popular, domain.PopularQuery{Query: q, Count: n})
	}
	slices.SortFunc(stats.Popular, func(a, b domain.PopularQuery) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return strings.Compare(a.Query, b.Query)
	})
	if len(stats.Popular) > popularLimit {
		stats.Popular = stats.Popular[:popularLimit]
	}
	return stats
}

// InvalidateCache drops every cached answer.
func (s *ChatService) InvalidateCache(ctx context.Context) (int, error) {
	if s.cache == nil {
		return 0, nil
	}
	n, err := s.cache.DeletePrefix(ctx, ResponseCachePrefix)
	if err != nil {
		return 0, fmt.Errorf("invalidate response cache: %w", err)
	}
	if n > 0 {
		logger.Debug("Invalidated %d cached answers", n)
	}
	return n, nil
}

// OnIndexPublished invalidates cached answers after the corpus changed.
// It matches PublishListener so it can be registered with IndexService.
func (s *ChatService) OnIndexPublished(generation uint64) {
	s.cacheMu.Lock()
	s.published = max(s.published, generation)
	s.cacheMu.Unlock()

	if _, err := s.InvalidateCache(context.Background()); err != nil {
		logger.Warn("generation %d: %v", generation, err)
	}
}

func (s *ChatService) cached(ctx context.Context, key string) *domain.Answer {
	if !s.useCache {
		return nil
	}
	data, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		logger.Warn("response cache read failed: %v", err)
		return nil
	}
	if !ok {
		return nil
	}
	var answer domain.Answer
	if err := json.Unmarshal(data, &answer); err != nil {
		logger.Warn("discarding unreadable cached answer: %v", err)
		return nil
	}
	return &answer
}

// store caches answer unless a newer index generation than the one it
// was retrieved from has been published.
func (s *ChatService) store(ctx context.Context, key string, answer *domain.Answer, generation uint64) {
	if !s.useCache {
		return
	}
	data, err := json.Marshal(answer)
	if err != nil {
		logger.Warn("encoding answer for cache: %v", err)
		return
	}

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if generation < s.published {
		logger.Debug("not caching answer from generation %d, %d is published", generation, s.published)
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
		logger.Warn("response cache write failed: %v", err)
	}
}

func (s *ChatService) recordQuery(normalized string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Queries++
	s.queries[normalized]++
}

func (s *ChatService) count(fn func(*domain.ChatStats)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.stats)
}

func degradedAnswer(bundle domain.ContextBundle) *domain.Answer {
	sources := make([]domain.Source, 0, len(bundle.Items))
	for _, item := range bundle.Items {
		sources = append(sources, domain.SourceFromItem(item))
	}
	return &domain.Answer{
		Text:     domain.DegradedAnswerText,
		Sources:  sources,
		Degraded: true,
	}
}

// NormalizeQuery trims, lowercases and collapses whitespace.
func NormalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}

// ResponseCacheKey derives the cache key for a normalized query.
// Equivalent filters produce the same key.
func ResponseCacheKey(normalized string, filters domain.Filters, limit int) string {
	sum := sha256.Sum256([]byte(normalized + "|" + filters.Key() + "|" + strconv.Itoa(limit)))
	return ResponseCachePrefix + hex.EncodeToString(sum[:])[:16]
}
