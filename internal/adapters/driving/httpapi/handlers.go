package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/domain"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/importer"
)

const (
	maxBodyBytes       = 1 << 20
	defaultRecentLimit = 10
)

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if utf8.RuneCountInString(req.Query) > maxQueryChars {
		writeError(w, r, fmt.Errorf("%w: query longer than %d characters", domain.ErrInvalidQuery, maxQueryChars))
		return
	}
	filters, err := domain.ParseFilters(req.Filters.Types, req.Filters.StartDate, req.Filters.EndDate)
	if err != nil {
		writeError(w, r, err)
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = middleware.GetReqID(r.Context())
	}
	answer, err := s.ports.Chat.Ask(r.Context(), domain.ChatRequest{
		Query:     req.Query,
		SessionID: sessionID,
		Filters:   filters,
		Limit:     req.Limit,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newChatResponse(answer))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := strings.TrimSpace(q.Get("q"))
	limit, err := parseLimit(q.Get("limit"), 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	filters, err := queryFilters(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := s.ports.Search.Search(r.Context(), domain.SearchQuery{
		Text:    query,
		Filters: filters,
		Limit:   limit,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSearchResponse(query, result))
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query().Get("limit"), defaultRecentLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	filters, err := queryFilters(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	docs, err := s.ports.Document.Recent(r.Context(), filters, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := NoticeListResponse{Total: len(docs), Notices: make([]NoticeResponse, len(docs))}
	for i := range docs {
		out.Notices[i] = newNoticeResponse(docs[i], false)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleNotice(w http.ResponseWriter, r *http.Request) {
	doc, err := s.ports.Document.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newNoticeResponse(*doc, true))
}

func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	report, err := s.ports.Index.Rebuild(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newIndexReportResponse(report))
}

// handleUpsertDocument stores and indexes the record in the body. An empty
// body re-indexes the stored document instead.
func (s *Server) handleUpsertDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: read body: %w", domain.ErrInvalidInput, err))
		return
	}

	if len(strings.TrimSpace(string(body))) == 0 {
		report, err := s.ports.Index.UpsertByID(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		rep := newIndexReportResponse(report)
		writeJSON(w, http.StatusOK, UpsertResponse{ID: id, Status: "indexed", Index: &rep})
		return
	}

	var rec importer.Record
	if err := json.Unmarshal(body, &rec); err != nil {
		writeError(w, r, fmt.Errorf("%w: decode record: %w", domain.ErrInvalidInput, err))
		return
	}
	if rec.ID == "" {
		rec.ID = id
	}
	if rec.ID != id {
		writeError(w, r, fmt.Errorf("%w: record id %q does not match path id %q", domain.ErrInvalidInput, rec.ID, id))
		return
	}
	doc, err := rec.Document()
	if err != nil {
		writeError(w, r, err)
		return
	}

	results, err := s.ports.Document.Ingest(r.Context(), []domain.Document{doc})
	if err != nil {
		writeError(w, r, err)
		return
	}
	res := results[0]
	if res.Err != nil {
		writeError(w, r, res.Err)
		return
	}
	writeJSON(w, http.StatusOK, UpsertResponse{ID: res.ID, Version: res.Version, Status: string(res.Status)})
}

func (s *Server) handleRemoveDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.ports.Document.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleInvalidateCache(w http.ResponseWriter, r *http.Request) {
	n, err := s.ports.Chat.InvalidateCache(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"invalidated": n})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.ports.Index.Stats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, StatsResponse{
		Index: newIndexStatsResponse(stats),
		Chat:  newChatStatsResponse(s.ports.Chat.Stats()),
	})
}

// handleHealth reports 503 until an index snapshot has been published.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats, err := s.ports.Index.Stats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := HealthResponse{
		Status:      "ok",
		Generation:  stats.Generation,
		Documents:   stats.Documents,
		Initialised: stats.Initialised,
		Uptime:      s.now().Sub(s.started).Round(time.Second).String(),
	}
	status := http.StatusOK
	if !stats.Initialised {
		out.Status = "initialising"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, out)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty request body", domain.ErrInvalidQuery)
		}
		return fmt.Errorf("%w: decode request: %w", domain.ErrInvalidQuery, err)
	}
	return nil
}

// queryFilters reads types (repeated or comma separated), from_date and
// to_date from the query string.
func queryFilters(r *http.Request) (domain.Filters, error) {
	q := r.URL.Query()
	types := q["types"]
	if t := q.Get("type"); t != "" {
		types = append(types, t)
	}
	return domain.ParseFilters(types, q.Get("from_date"), q.Get("to_date"))
}

func parseLimit(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: limit must be a non-negative integer", domain.ErrInvalidQuery)
	}
	return min(n, domain.MaxSearchLimit), nil
}
