package index

import (
	"maps"
	"math"
	"slices"
	"sort"
	"time"

	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/domain"
)

// titleWeight is how many body occurrences one title occurrence is worth.
const titleWeight = 2

// Entry is the searchable representation of one document.
type Entry struct {
	// Document is the latest indexed version.
	Document domain.Document

	// TermFreq counts term occurrences, title occurrences weighted.
	TermFreq map[string]int

	// Vector is the L2-normalised embedding, nil for lexical-only entries.
	Vector []float32
}

// NewEntry tokenises doc into a lexical entry. Attach a vector with
// WithVector.
func NewEntry(doc domain.Document, tok Tokenizer) *Entry {
	freq := make(map[string]int)
	for _, term := range tok.Tokens(doc.Title) {
		freq[term] += titleWeight
	}
	for _, term := range tok.Tokens(doc.Body) {
		freq[term]++
	}
	return &Entry{Document: doc, TermFreq: freq}
}

// WithVector returns a copy of e carrying the normalised vector v.
// A zero vector yields a lexical-only copy.
func (e *Entry) WithVector(v []float32) *Entry {
	cp := *e
	cp.Vector = Normalize(v)
	return &cp
}

// Terms returns the entry's distinct terms, sorted.
func (e *Entry) Terms() []string {
	return slices.Sorted(maps.Keys(e.TermFreq))
}

// Snapshot is an immutable index generation. All methods are safe for
// concurrent use; nothing mutates a Snapshot once it is published.
type Snapshot struct {
	generation uint64
	builtAt    time.Time
	entries    map[string]*Entry
	postings   map[string][]string
	dimensions int
	embedModel string
}

// Empty returns a snapshot with no entries.
func Empty() *Snapshot {
	return &Snapshot{
		entries:  map[string]*Entry{},
		postings: map[string][]string{},
	}
}

// Build creates a snapshot from scratch. Later entries for the same
// document id replace earlier ones.
func Build(entries []*Entry, embedModel string) *Snapshot {
	s := Empty()
	s.embedModel = embedModel
	for _, e := range entries {
		s.entries[e.Document.ID] = e
	}
	for id, e := range s.entries {
		for term := range e.TermFreq {
			s.postings[term] = append(s.postings[term], id)
		}
		if s.dimensions == 0 && len(e.Vector) > 0 {
			s.dimensions = len(e.Vector)
		}
	}
	for term := range s.postings {
		slices.Sort(s.postings[term])
	}
	return s
}

// With returns a new snapshot where each entry replaces any existing
// entry for the same id. The receiver is left unchanged.
func (s *Snapshot) With(entries ...*Entry) *Snapshot {
	next := s.clone()
	for _, e := range entries {
		next.remove(e.Document.ID)
		next.entries[e.Document.ID] = e
		for term := range e.TermFreq {
			next.postings[term] = insertSorted(next.postings[term], e.Document.ID)
		}
		if next.dimensions == 0 && len(e.Vector) > 0 {
			next.dimensions = len(e.Vector)
		}
	}
	return next
}

// Without returns a new snapshot lacking the given ids.
func (s *Snapshot) Without(ids ...string) *Snapshot {
	next := s.clone()
	for _, id := range ids {
		next.remove(id)
	}
	return next
}

// clone copies the maps but shares posting slices; remove and
// insertSorted always allocate fresh slices so shared ones stay intact.
func (s *Snapshot) clone() *Snapshot {
	return &Snapshot{
		entries:    maps.Clone(s.entries),
		postings:   maps.Clone(s.postings),
		dimensions: s.dimensions,
		embedModel: s.embedModel,
	}
}

func (s *Snapshot) remove(id string) {
	old, ok := s.entries[id]
	if !ok {
		return
	}
	delete(s.entries, id)
	for term := range old.TermFreq {
		ids := s.postings[term]
		i, found := slices.BinarySearch(ids, id)
		if !found {
			continue
		}
		if len(ids) == 1 {
			delete(s.postings, term)
			continue
		}
		next := make([]string, 0, len(ids)-1)
		next = append(next, ids[:i]...)
		s.postings[term] = append(next, ids[i+1:]...)
	}
}

func insertSorted(ids []string, id string) []string {
	i, found := slices.BinarySearch(ids, id)
	if found {
		return ids
	}
	next := make([]string, 0, len(ids)+1)
	next = append(next, ids[:i]...)
	next = append(next, id)
	return append(next, ids[i:]...)
}

// Generation is the publish counter, zero until published.
func (s *Snapshot) Generation() uint64 { return s.generation }

// BuiltAt is when the snapshot was published.
func (s *Snapshot) BuiltAt() time.Time { return s.builtAt }

// Len is the number of indexed documents.
func (s *Snapshot) Len() int { return len(s.entries) }

// Dimensions is the embedding size shared by all vectors, zero if none.
func (s *Snapshot) Dimensions() int { return s.dimensions }

// EmbedModel names the model that produced the vectors.
func (s *Snapshot) EmbedModel() string { return s.embedModel }

// Entry returns the entry for id.
func (s *Snapshot) Entry(id string) (*Entry, bool) {
	e, ok := s.entries[id]
	return e, ok
}

// Entries returns all entries ordered by document id.
func (s *Snapshot) Entries() []*Entry {
	ids := slices.Sorted(maps.Keys(s.entries))
	out := make([]*Entry, len(ids))
	for i, id := range ids {
		out[i] = s.entries[id]
	}
	return out
}

// Postings returns the sorted ids containing term. Callers must not
// modify the returned slice.
func (s *Snapshot) Postings(term string) []string {
	return s.postings[term]
}

// Stats summarises the snapshot.
func (s *Snapshot) Stats() domain.IndexStats {
	stats := domain.IndexStats{
		Generation:  s.generation,
		Documents:   len(s.entries),
		Terms:       len(s.postings),
		Dimensions:  s.dimensions,
		ByType:      make(map[domain.SourceType]int),
		BuiltAt:     s.builtAt,
		EmbedModel:  s.embedModel,
		Initialised: s.generation > 0,
	}
	for _, e := range s.entries {
		stats.ByType[e.Document.SourceType]++
		if e.Vector != nil {
			stats.Vectors++
		}
	}
	return stats
}

// LexicalMatch describes how a document matched a keyword query.
type LexicalMatch struct {
	// Terms are the distinct query terms present, in query order.
	Terms []string

	// Frequency is the summed weighted frequency of those terms.
	Frequency int
}

// Score ranks by distinct matched terms first. The frequency bonus is
// strictly below one, so it only orders documents with equal coverage.
func (m LexicalMatch) Score() float64 {
	tf := float64(m.Frequency)
	return float64(len(m.Terms)) + tf/(tf+1)
}

// MatchLexical returns every allowed document containing at least one of
// the distinct terms.
func (s *Snapshot) MatchLexical(terms []string, allow func(*Entry) bool) map[string]LexicalMatch {
	out := make(map[string]LexicalMatch)
	for _, term := range terms {
		for _, id := range s.postings[term] {
			e := s.entries[id]
			if allow != nil && !allow(e) {
				continue
			}
			m := out[id]
			if slices.Contains(m.Terms, term) {
				continue
			}
			m.Terms = append(m.Terms, term)
			m.Frequency += e.TermFreq[term]
			out[id] = m
		}
	}
	return out
}

// MatchSemantic returns the cosine similarity, floored at zero, between
// query and every allowed entry that has a vector of matching size.
// Similarities below minSimilarity are omitted.
func (s *Snapshot) MatchSemantic(query []float32, minSimilarity float64, allow func(*Entry) bool) map[string]float64 {
	q := Normalize(query)
	out := make(map[string]float64)
	if q == nil || len(q) != s.dimensions {
		return out
	}
	for id, e := range s.entries {
		if len(e.Vector) != len(q) {
			continue
		}
		if allow != nil && !allow(e) {
			continue
		}
		sim := math.Max(0, dot(q, e.Vector))
		if sim < minSimilarity {
			continue
		}
		out[id] = sim
	}
	return out
}

// Normalize returns v scaled to unit length, or nil for a zero vector.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return nil
	}
	norm := math.Sqrt(sum)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// SortedIDs returns map keys in ascending order, for deterministic output.
func SortedIDs[V any](m map[string]V) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
