package httpapi

import (
	"time"

	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/domain"
)

// maxQueryChars bounds a chat question.
const maxQueryChars = 500

// FiltersRequest carries optional filters in a JSON body.
type FiltersRequest struct {
	Types     []string `json:"types,omitempty"`
	StartDate string   `json:"start_date,omitempty"`
	EndDate   string   `json:"end_date,omitempty"`
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Query     string         `json:"query"`
	SessionID string         `json:"session_id,omitempty"`
	UserID    string         `json:"user_id,omitempty"`
	Limit     int            `json:"limit,omitempty"`
	Filters   FiltersRequest `json:"filters"`
}

// SourceResponse is a citation.
type SourceResponse struct {
	Marker     int    `json:"marker"`
	DocumentID string `json:"document_id"`
	Title      string `json:"title"`
	Date       string `json:"date"`
	URL        string `json:"url"`
	Type       string `json:"type"`
}

// ChatResponse is the body returned by POST /api/chat.
type ChatResponse struct {
	Response     string           `json:"response"`
	Sources      []SourceResponse `json:"sources"`
	QueryTimeMS  int64            `json:"query_time_ms"`
	FromCache    bool             `json:"from_cache"`
	Degraded     bool             `json:"degraded,omitempty"`
	Insufficient bool             `json:"insufficient,omitempty"`
	RequestID    string           `json:"request_id,omitempty"`
}

func newChatResponse(answer *domain.Answer) ChatResponse {
	out := ChatResponse{
		Response:     answer.Text,
		Sources:      make([]SourceResponse, len(answer.Sources)),
		QueryTimeMS:  answer.Elapsed.Milliseconds(),
		FromCache:    answer.FromCache,
		Degraded:     answer.Degraded,
		Insufficient: answer.Insufficient,
		RequestID:    answer.RequestID,
	}
	for i, src := range answer.Sources {
		out.Sources[i] = SourceResponse{
			Marker:     src.Marker,
			DocumentID: src.DocumentID,
			Title:      src.Title,
			Date:       dateString(src.PublishedAt),
			URL:        src.URL,
			Type:       string(src.SourceType),
		}
	}
	return out
}

// HitResponse is a single search result.
type HitResponse struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	URL          string   `json:"url"`
	Type         string   `json:"type"`
	Date         string   `json:"date"`
	Score        float64  `json:"score"`
	MatchedTerms []string `json:"matched_terms"`
	Snippet      string   `json:"snippet"`
}

// SearchResponse is the body returned by GET /api/search.
type SearchResponse struct {
	Query      string        `json:"query"`
	Total      int           `json:"total"`
	Count      int           `json:"count"`
	Mode       string        `json:"mode"`
	Degraded   bool          `json:"degraded,omitempty"`
	Generation uint64        `json:"generation"`
	Results    []HitResponse `json:"results"`
}

func newSearchResponse(query string, result *domain.RetrievalResult) SearchResponse {
	out := SearchResponse{
		Query:      query,
		Total:      result.Total,
		Count:      len(result.Hits),
		Mode:       string(result.Mode),
		Degraded:   result.Degraded,
		Generation: result.Generation,
		Results:    make([]HitResponse, len(result.Hits)),
	}
	for i, hit := range result.Hits {
		terms := hit.MatchedTerms
		if terms == nil {
			terms = []string{}
		}
		out.Results[i] = HitResponse{
			ID:           hit.Document.ID,
			Title:        hit.Document.Title,
			URL:          hit.Document.URL,
			Type:         string(hit.Document.SourceType),
			Date:         hit.Document.PublishedDate(),
			Score:        hit.Score,
			MatchedTerms: terms,
			Snippet:      hit.Snippet,
		}
	}
	return out
}

// NoticeResponse is a stored notice. Body is omitted from listings.
type NoticeResponse struct {
	ID              string            `json:"id"`
	Title           string            `json:"title"`
	Body            string            `json:"body,omitempty"`
	Type            string            `json:"type"`
	Date            string            `json:"date"`
	URL             string            `json:"url"`
	Version         int               `json:"version"`
	PreviousVersion int               `json:"previous_version,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

func newNoticeResponse(doc domain.Document, withBody bool) NoticeResponse {
	out := NoticeResponse{
		ID:              doc.ID,
		Title:           doc.Title,
		Type:            string(doc.SourceType),
		Date:            doc.PublishedDate(),
		URL:             doc.URL,
		Version:         doc.Version,
		PreviousVersion: doc.PreviousVersion,
		Metadata:        doc.Metadata,
		UpdatedAt:       doc.UpdatedAt,
	}
	if withBody {
		out.Body = doc.Body
	}
	return out
}

// NoticeListResponse is the body returned by GET /api/notices/recent.
type NoticeListResponse struct {
	Total   int              `json:"total"`
	Notices []NoticeResponse `json:"notices"`
}

// IndexReportResponse summarises an index maintenance run.
type IndexReportResponse struct {
	Indexed     int    `json:"indexed"`
	Skipped     int    `json:"skipped"`
	Failed      int    `json:"failed"`
	LexicalOnly int    `json:"lexical_only"`
	Generation  uint64 `json:"generation"`
	DurationMS  int64  `json:"duration_ms"`
}

func newIndexReportResponse(r domain.IndexReport) IndexReportResponse {
	return IndexReportResponse{
		Indexed:     r.Indexed,
		Skipped:     r.Skipped,
		Failed:      r.Failed,
		LexicalOnly: r.LexicalOnly,
		Generation:  r.Generation,
		DurationMS:  r.Duration.Milliseconds(),
	}
}

// UpsertResponse is returned by PUT /api/admin/index/documents/{id}.
type UpsertResponse struct {
	ID      string               `json:"id"`
	Version int                  `json:"version,omitempty"`
	Status  string               `json:"status"`
	Index   *IndexReportResponse `json:"index,omitempty"`
}

// IndexStatsResponse describes the published index.
type IndexStatsResponse struct {
	Generation     uint64         `json:"generation"`
	Documents      int            `json:"documents"`
	Terms          int            `json:"terms"`
	Vectors        int            `json:"vectors"`
	Dimensions     int            `json:"dimensions"`
	NoticesByType  map[string]int `json:"notices_by_type"`
	BuiltAt        *time.Time     `json:"built_at,omitempty"`
	EmbeddingModel string         `json:"embedding_model,omitempty"`
	Initialised    bool           `json:"initialised"`
}

func newIndexStatsResponse(s domain.IndexStats) IndexStatsResponse {
	out := IndexStatsResponse{
		Generation:     s.Generation,
		Documents:      s.Documents,
		Terms:          s.Terms,
		Vectors:        s.Vectors,
		Dimensions:     s.Dimensions,
		NoticesByType:  make(map[string]int, len(s.ByType)),
		EmbeddingModel: s.EmbedModel,
		Initialised:    s.Initialised,
	}
	for t, n := range s.ByType {
		out.NoticesByType[string(t)] = n
	}
	if !s.BuiltAt.IsZero() {
		builtAt := s.BuiltAt
		out.BuiltAt = &builtAt
	}
	return out
}

// PopularQueryResponse is a frequently asked question.
type PopularQueryResponse struct {
	Query string `json:"query"`
	Count int    `json:"count"`
}

// ChatStatsResponse reports chat counters.
type ChatStatsResponse struct {
	TotalQueries   int                    `json:"total_queries"`
	CacheHits      int                    `json:"cache_hits"`
	CacheHitRate   float64                `json:"cache_hit_rate"`
	Degraded       int                    `json:"degraded"`
	Insufficient   int                    `json:"insufficient"`
	PopularQueries []PopularQueryResponse `json:"popular_queries"`
}

func newChatStatsResponse(s domain.ChatStats) ChatStatsResponse {
	out := ChatStatsResponse{
		TotalQueries:   s.Queries,
		CacheHits:      s.CacheHits,
		Degraded:       s.Degraded,
		Insufficient:   s.Insufficient,
		PopularQueries: make([]PopularQueryResponse, len(s.Popular)),
	}
	if s.Queries > 0 {
		out.CacheHitRate = float64(s.CacheHits) / float64(s.Queries)
	}
	for i, p := range s.Popular {
		out.PopularQueries[i] = PopularQueryResponse{Query: p.Query, Count: p.Count}
	}
	return out
}

// StatsResponse is the body returned by GET /api/admin/stats.
type StatsResponse struct {
	Index IndexStatsResponse `json:"index"`
	Chat  ChatStatsResponse  `json:"chat"`
}

// HealthResponse is the body returned by GET /healthz.
type HealthResponse struct {
	Status      string `json:"status"`
	Generation  uint64 `json:"generation"`
	Documents   int    `json:"documents"`
	Initialised bool   `json:"initialised"`
	Uptime      string `json:"uptime"`
}

func dateString(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.Format(time.DateOnly)
}
