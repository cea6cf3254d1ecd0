package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// MaxSearchLimit is the hard ceiling on results returned by a single search.
const MaxSearchLimit = 50

// Filters are hard filters applied before ranking. A document that fails
// any filter is excluded entirely, never down-weighted.
type Filters struct {
	// SourceTypes restricts results to the listed types. Empty means all.
	SourceTypes []SourceType

	// StartDate excludes documents published before this day (inclusive).
	StartDate *time.Time

	// EndDate excludes documents published after this day (inclusive).
	EndDate *time.Time
}

// IsZero returns true if no filter is set.
func (f Filters) IsZero() bool {
	return len(f.SourceTypes) == 0 && f.StartDate == nil && f.EndDate == nil
}

// Validate checks the filters for unknown source types and inverted ranges.
func (f Filters) Validate() error {
	for _, t := range f.SourceTypes {
		if !t.IsValid() {
			return fmt.Errorf("%w: unknown source type %q", ErrInvalidQuery, t)
		}
	}
	if f.StartDate != nil && f.EndDate != nil && day(*f.StartDate).After(day(*f.EndDate)) {
		return fmt.Errorf("%w: start date %s is after end date %s", ErrInvalidQuery,
			f.StartDate.Format(time.DateOnly), f.EndDate.Format(time.DateOnly))
	}
	return nil
}

// Matches reports whether doc passes every filter. Documents without a
// publication date never match a date-bounded filter.
func (f Filters) Matches(doc Document) bool {
	if len(f.SourceTypes) > 0 && !slices.Contains(f.SourceTypes, doc.SourceType) {
		return false
	}
	if f.StartDate == nil && f.EndDate == nil {
		return true
	}
	if doc.PublishedAt.IsZero() {
		return false
	}
	published := day(doc.PublishedAt)
	if f.StartDate != nil && published.Before(day(*f.StartDate)) {
		return false
	}
	if f.EndDate != nil && published.After(day(*f.EndDate)) {
		return false
	}
	return true
}

// Key returns a canonical representation used in cache keys.
// Source type order does not affect the key.
func (f Filters) Key() string {
	types := make([]string, 0, len(f.SourceTypes))
	for _, t := range f.SourceTypes {
		types = append(types, string(t))
	}
	slices.Sort(types)
	types = slices.Compact(types)

	var start, end string
	if f.StartDate != nil {
		start = f.StartDate.Format(time.DateOnly)
	}
	if f.EndDate != nil {
		end = f.EndDate.Format(time.DateOnly)
	}
	return "types=" + strings.Join(types, ",") + ";from=" + start + ";to=" + end
}

// ParseFilters builds filters from loosely typed input such as query
// parameters. Dates use YYYY-MM-DD; empty strings leave a bound unset.
func ParseFilters(types []string, startDate, endDate string) (Filters, error) {
	var f Filters
	for _, raw := range types {
		for _, part := range strings.Split(raw, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			t, ok := ParseSourceType(part)
			if !ok {
				return Filters{}, fmt.Errorf("%w: unknown source type %q", ErrInvalidQuery, strings.TrimSpace(part))
			}
			if !slices.Contains(f.SourceTypes, t) {
				f.SourceTypes = append(f.SourceTypes, t)
			}
		}
	}
	var err error
	if f.StartDate, err = parseDay(startDate, "start"); err != nil {
		return Filters{}, err
	}
	if f.EndDate, err = parseDay(endDate, "end"); err != nil {
		return Filters{}, err
	}
	return f, f.Validate()
}

func parseDay(s, name string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s date %q is not YYYY-MM-DD", ErrInvalidQuery, name, s)
	}
	return &t, nil
}

// day truncates t to its calendar day, keeping the date as written.
func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SearchQuery is the input to a retrieval.
type SearchQuery struct {
	// Text is the free-text query.
	Text string

	// Filters are hard filters applied before ranking.
	Filters Filters

	// Limit is the maximum number of hits. Zero selects the default.
	Limit int
}

// Hit is a single ranked document.
type Hit struct {
	// Document is the matched document (latest version).
	Document Document

	// Score is the combined relevance score, never negative.
	Score float64

	// LexicalScore is the keyword component before weighting.
	LexicalScore float64

	// SemanticScore is the cosine similarity component before weighting.
	SemanticScore float64

	// MatchedTerms are the distinct query terms found in the document.
	MatchedTerms []string

	// Snippet is a short excerpt around the best matched region.
	Snippet string

	// MatchOffset is the byte offset in Body of the best matched region.
	MatchOffset int
}

// RetrievalResult is the ranked output of a search.
type RetrievalResult struct {
	// Hits are ordered by descending score, ties by newer publication date.
	Hits []Hit

	// Total is the number of documents that matched before the limit.
	Total int

	// Mode is the mode actually used, after any degradation.
	Mode SearchMode

	// Degraded is true when semantic scoring was requested but unavailable.
	Degraded bool

	// Generation is the index snapshot generation that served the query.
	Generation uint64
}

// IsEmpty returns true if no document matched.
func (r *RetrievalResult) IsEmpty() bool {
	return r == nil || len(r.Hits) == 0
}
