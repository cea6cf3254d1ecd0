package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/domain"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/index"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/ports/driven"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/ports/driving"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// SearchService ranks documents in the published index snapshot.
type SearchService struct {
	holder    *index.Holder
	embedder  driven.EmbeddingService
	settings  domain.SearchSettings
	tokenizer index.Tokenizer

	embedTimeout time.Duration
}

// NewSearchService creates a new search service.
// The embedder is optional; without it every query is lexical.
func NewSearchService(
	holder *index.Holder,
	embedder driven.EmbeddingService,
	settings *domain.AppSettings,
) *SearchService {
	search := settings.Search
	if search.MaxLimit <= 0 || search.MaxLimit > domain.MaxSearchLimit {
		search.MaxLimit = domain.MaxSearchLimit
	}
	if search.DefaultLimit <= 0 || search.DefaultLimit > search.MaxLimit {
		search.DefaultLimit = min(10, search.MaxLimit)
	}
	if search.SnippetChars <= 0 {
		search.SnippetChars = 200
	}
	return &SearchService{
		holder:    holder,
		embedder:  embedder,
		settings:  search,
		tokenizer: index.Tokenizer{StopWords: settings.Indexer.StopWords},

		embedTimeout: settings.Embedding.Timeout,
	}
}

// Search runs one query against the current snapshot. The whole query is
// served by a single snapshot even if a new one is published meanwhile.
func (s *SearchService) Search(ctx context.Context, query domain.SearchQuery) (*domain.RetrievalResult, error) {
	logger.Section("Search Execution")
	logger.Debug("Query: %q", query.Text)

	text := strings.TrimSpace(query.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: query text is empty", domain.ErrInvalidQuery)
	}
	if query.Limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative", domain.ErrInvalidQuery)
	}
	if err := query.Filters.Validate(); err != nil {
		return nil, err
	}

	limit := query.Limit
	if limit == 0 {
		limit = s.settings.DefaultLimit
	}
	limit = min(limit, s.settings.MaxLimit)

	snap := s.holder.Load()
	if snap == nil {
		return nil, fmt.Errorf("%w: index has not been built", domain.ErrRetrievalUnavailable)
	}

	terms := s.queryTerms(text)
	logger.Debug("Terms: %v, limit %d, generation %d", terms, limit, snap.Generation())

	mode, degraded := s.effectiveMode(snap)
	var queryVector []float32
	if mode != domain.SearchModeLexical {
		vec, err := s.embedQuery(ctx, text)
		if err != nil {
			logger.Warn("query embedding failed, using lexical search: %v", err)
			mode, degraded = domain.SearchModeLexical, true
		} else {
			queryVector = vec
		}
	}
	logger.Debug("Mode: %s (degraded: %v)", mode, degraded)

	allow := func(e *index.Entry) bool { return query.Filters.Matches(e.Document) }
	hits := s.score(snap, mode, terms, queryVector, allow)

	slices.SortFunc(hits, compareHits)
	total := len(hits)
	if len(hits) > limit {
		hits = hits[:limit]
	}
	for i := range hits {
		s.attachSnippet(&hits[i])
	}

	logger.Debug("Matched %d documents, returning %d", total, len(hits))
	return &domain.RetrievalResult{
		Hits:       hits,
		Total:      total,
		Mode:       mode,
		Degraded:   degraded,
		Generation: snap.Generation(),
	}, nil
}

func (s *SearchService) embedQuery(ctx context.Context, text string) ([]float32, error) {
	if s.embedTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.embedTimeout)
		defer cancel()
	}
	return s.embedder.Embed(ctx, text)
}

// queryTerms tokenises the query. A query made only of stop words is
// searched for as written rather than matching nothing.
func (s *SearchService) queryTerms(text string) []string {
	terms := s.tokenizer.Terms(text)
	if len(terms) == 0 && s.tokenizer.StopWords {
		terms = index.Tokenizer{}.Terms(text)
	}
	return terms
}

// effectiveMode resolves the configured mode against what the snapshot
// and the embedder can actually serve. Falling back because no embedding
// provider is configured at all is not reported as degraded.
func (s *SearchService) effectiveMode(snap *index.Snapshot) (domain.SearchMode, bool) {
	mode := s.settings.Mode
	if !mode.RequiresEmbedding() {
		return domain.SearchModeLexical, false
	}
	if s.embedder == nil {
		return domain.SearchModeLexical, false
	}
	if snap.Dimensions() == 0 {
		return domain.SearchModeLexical, true
	}
	return mode, false
}

func (s *SearchService) score(
	snap *index.Snapshot,
	mode domain.SearchMode,
	terms []string,
	queryVector []float32,
	allow func(*index.Entry) bool,
) []domain.Hit {
	// Lexical matches are always computed; in semantic mode they only
	// supply matched terms for snippets.
	lexical := snap.MatchLexical(terms, allow)
	var semantic map[string]float64
	if mode != domain.SearchModeLexical {
		semantic = snap.MatchSemantic(queryVector, s.settings.MinSimilarity, allow)
	}

	ids := make(map[string]struct{}, len(lexical)+len(semantic))
	if mode != domain.SearchModeSemantic {
		for id := range lexical {
			ids[id] = struct{}{}
		}
	}
	for id := range semantic {
		ids[id] = struct{}{}
	}

	wl, ws := s.settings.Weights()
	// Lexical scores are bounded by len(terms)+1; scaling brings them
	// into [0, 1] alongside cosine similarity.
	lexicalScale := float64(len(terms) + 1)

	hits := make([]domain.Hit, 0, len(ids))
	for _, id := range index.SortedIDs(ids) {
		entry, _ := snap.Entry(id)
		lex, hasLex := lexical[id]
		sem := semantic[id]

		hit := domain.Hit{Document: entry.Document, SemanticScore: sem}
		if hasLex {
			hit.LexicalScore = lex.Score()
			hit.MatchedTerms = lex.Terms
		}

		switch mode {
		case domain.SearchModeLexical:
			hit.Score = hit.LexicalScore
		case domain.SearchModeSemantic:
			hit.Score = sem
		default:
			hit.Score = wl*hit.LexicalScore/lexicalScale + ws*sem
		}
		if hit.Score <= 0 {
			continue
		}
		hits = append(hits, hit)
	}
	return hits
}

func (s *SearchService) attachSnippet(hit *domain.Hit) {
	body := hit.Document.Body
	hit.MatchOffset = index.BestRegion(body, hit.MatchedTerms, s.settings.SnippetChars)
	hit.Snippet, _ = index.Excerpt(body, hit.MatchOffset, s.settings.SnippetChars)
}

// compareHits orders by descending score, then newer publication, then id.
func compareHits(a, b domain.Hit) int {
	if a.Score != b.Score {
		if a.Score > b.Score {
			return -1
		}
		return 1
	}
	if c := b.Document.PublishedAt.Compare(a.Document.PublishedAt); c != 0 {
		return c
	}
	return strings.Compare(a.Document.ID, b.Document.ID)
}
