package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/domain"
)

// FilterInput holds the optional filters shared by the tools.
type FilterInput struct {
	Types     []string `json:"types,omitempty" jsonschema:"restrict to source types: general, exam, holiday, academic_calendar, course"`
	StartDate string   `json:"start_date,omitempty" jsonschema:"earliest publication date, YYYY-MM-DD"`
	EndDate   string   `json:"end_date,omitempty" jsonschema:"latest publication date, YYYY-MM-DD"`
}

func (f FilterInput) filters() (domain.Filters, error) {
	return domain.ParseFilters(f.Types, f.StartDate, f.EndDate)
}

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the search query to find notices"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10, max 50)"`
	FilterInput
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results  []SearchResultOutput `json:"results"`
	Count    int                  `json:"count"`
	Total    int                  `json:"total"`
	Mode     string               `json:"mode"`
	Degraded bool                 `json:"degraded,omitempty"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	DocumentID   string   `json:"document_id"`
	Title        string   `json:"title"`
	URL          string   `json:"url,omitempty"`
	SourceType   string   `json:"source_type"`
	PublishedAt  string   `json:"published_at"`
	Score        float64  `json:"score"`
	MatchedTerms []string `json:"matched_terms,omitempty"`
	Snippet      string   `json:"snippet,omitempty"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Query string `json:"query" jsonschema:"the question to answer from KIIT notices"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of notices to consult"`
	FilterInput
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer       string         `json:"answer"`
	Sources      []SourceOutput `json:"sources"`
	FromCache    bool           `json:"from_cache,omitempty"`
	Degraded     bool           `json:"degraded,omitempty"`
	Insufficient bool           `json:"insufficient,omitempty"`
}

// SourceOutput is a citation returned with an answer.
type SourceOutput struct {
	Marker      int    `json:"marker"`
	DocumentID  string `json:"document_id"`
	Title       string `json:"title"`
	URL         string `json:"url,omitempty"`
	SourceType  string `json:"source_type"`
	PublishedAt string `json:"published_at"`
}

// RecentInput is the input schema for the recent_notices tool.
type RecentInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of notices (default 10)"`
	FilterInput
}

// RecentOutput is the output schema for the recent_notices tool.
type RecentOutput struct {
	Notices []NoticeOutput `json:"notices"`
	Count   int            `json:"count"`
}

// NoticeOutput summarises a stored notice.
type NoticeOutput struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	URL         string `json:"url,omitempty"`
	SourceType  string `json:"source_type"`
	PublishedAt string `json:"published_at"`
	Version     int    `json:"version"`
	URI         string `json:"uri"`
}

const defaultRecentLimit = 10

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Search KIIT notices, academic calendars and course records",
	}, s.handleSearch)

	if s.ports.Chat != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ask",
			Description: "Answer a question from KIIT notices with numbered citations",
		}, s.handleAsk)
	}

	if s.ports.Document != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "recent_notices",
			Description: "List the most recently published notices",
		}, s.handleRecent)
	}
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	filters, err := input.filters()
	if err != nil {
		return nil, SearchOutput{}, err
	}

	result, err := s.ports.Search.Search(ctx, domain.SearchQuery{
		Text:    input.Query,
		Filters: filters,
		Limit:   input.Limit,
	})
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results:  make([]SearchResultOutput, len(result.Hits)),
		Count:    len(result.Hits),
		Total:    result.Total,
		Mode:     string(result.Mode),
		Degraded: result.Degraded,
	}
	for i, hit := range result.Hits {
		output.Results[i] = SearchResultOutput{
			DocumentID:   hit.Document.ID,
			Title:        hit.Document.Title,
			URL:          hit.Document.URL,
			SourceType:   string(hit.Document.SourceType),
			PublishedAt:  hit.Document.PublishedDate(),
			Score:        hit.Score,
			MatchedTerms: hit.MatchedTerms,
			Snippet:      hit.Snippet,
		}
	}

	return nil, output, nil
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	filters, err := input.filters()
	if err != nil {
		return nil, AskOutput{}, err
	}

	answer, err := s.ports.Chat.Ask(ctx, domain.ChatRequest{
		Query:     input.Query,
		SessionID: "mcp",
		Filters:   filters,
		Limit:     input.Limit,
	})
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Answer:       answer.Text,
		Sources:      make([]SourceOutput, len(answer.Sources)),
		FromCache:    answer.FromCache,
		Degraded:     answer.Degraded,
		Insufficient: answer.Insufficient,
	}
	for i, src := range answer.Sources {
		output.Sources[i] = SourceOutput{
			Marker:      src.Marker,
			DocumentID:  src.DocumentID,
			Title:       src.Title,
			URL:         src.URL,
			SourceType:  string(src.SourceType),
			PublishedAt: formatDate(src.PublishedAt),
		}
	}

	return nil, output, nil
}

// handleRecent handles the recent_notices tool invocation.
func (s *Server) handleRecent(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RecentInput,
) (*mcp.CallToolResult, RecentOutput, error) {
	filters, err := input.filters()
	if err != nil {
		return nil, RecentOutput{}, err
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	docs, err := s.ports.Document.Recent(ctx, filters, limit)
	if err != nil {
		return nil, RecentOutput{}, err
	}

	output := RecentOutput{Notices: noticeOutputs(docs), Count: len(docs)}
	return nil, output, nil
}

func noticeOutputs(docs []domain.Document) []NoticeOutput {
	out := make([]NoticeOutput, len(docs))
	for i := range docs {
		out[i] = NoticeOutput{
			ID:          docs[i].ID,
			Title:       docs[i].Title,
			URL:         docs[i].URL,
			SourceType:  string(docs[i].SourceType),
			PublishedAt: docs[i].PublishedDate(),
			Version:     docs[i].Version,
			URI:         noticeURI(docs[i].ID),
		}
	}
	return out
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.Format(time.DateOnly)
}
