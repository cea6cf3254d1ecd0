package index

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/domain"
)

var tok = Tokenizer{StopWords: true}

func entry(id, title, body string, vec ...float32) *Entry {
	e := NewEntry(domain.Document{ID: id, Title: title, Body: body, SourceType: domain.SourceTypeGeneral}, tok)
	if len(vec) > 0 {
		e = e.WithVector(vec)
	}
	return e
}

func TestNewEntry_WeightsTitle(t *testing.T) {
	e := entry("1", "Exam Schedule", "The exam is on Monday")

	assert.Equal(t, 3, e.TermFreq["exam"])
	assert.Equal(t, 2, e.TermFreq["schedule"])
	assert.Equal(t, 1, e.TermFreq["monday"])
	assert.Equal(t, []string{"exam", "monday", "schedule"}, e.Terms())
}

func TestBuild(t *testing.T) {
	s := Build([]*Entry{
		entry("b", "Holiday list", "Campus closed"),
		entry("a", "Exam notice", "Exam hall allotment", 1, 0),
		entry("a", "Exam notice v2", "Exam hall allotment revised", 0, 1),
	}, "test-model")

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []string{"a"}, s.Postings("exam"))
	assert.Equal(t, []string{"a"}, s.Postings("revised"))
	assert.Equal(t, 2, s.Dimensions())
	assert.Equal(t, "test-model", s.EmbedModel())

	e, ok := s.Entry("a")
	require.True(t, ok)
	assert.Equal(t, "Exam notice v2", e.Document.Title)

	ids := []string{}
	for _, e := range s.Entries() {
		ids = append(ids, e.Document.ID)
	}
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestSnapshot_WithAndWithout_CopyOnWrite(t *testing.T) {
	base := Build([]*Entry{
		entry("a", "Exam notice", "Mid semester exam"),
		entry("b", "Exam results", "Results published"),
	}, "")

	updated := base.With(entry("a", "Holiday", "Diwali break"))

	// Base is unchanged.
	assert.Equal(t, []string{"a", "b"}, base.Postings("exam"))
	assert.Empty(t, base.Postings("diwali"))

	assert.Equal(t, []string{"b"}, updated.Postings("exam"))
	assert.Equal(t, []string{"a"}, updated.Postings("diwali"))
	assert.Empty(t, updated.Postings("semester"))

	removed := updated.Without("b", "missing")
	assert.Equal(t, 1, removed.Len())
	assert.Empty(t, removed.Postings("exam"))
	assert.Equal(t, 2, updated.Len())
}

func TestSnapshot_MatchLexical(t *testing.T) {
	s := Build([]*Entry{
		entry("broad", "Notice", "mid semester exam dates"),
		entry("narrow", "Exam exam exam", "exam exam exam exam"),
		entry("none", "Library", "Timings"),
	}, "")

	matches := s.MatchLexical([]string{"mid", "semester", "exam"}, nil)

	require.Len(t, matches, 2)
	assert.Equal(t, []string{"mid", "semester", "exam"}, matches["broad"].Terms)
	assert.Equal(t, []string{"exam"}, matches["narrow"].Terms)
	assert.Greater(t, matches["narrow"].Frequency, matches["broad"].Frequency)
	// Coverage beats frequency.
	assert.Greater(t, matches["broad"].Score(), matches["narrow"].Score())

	filtered := s.MatchLexical([]string{"exam"}, func(e *Entry) bool { return e.Document.ID != "narrow" })
	assert.Len(t, filtered, 1)
	assert.Contains(t, filtered, "broad")
}

func TestLexicalMatch_Score(t *testing.T) {
	assert.InDelta(t, 0.0, LexicalMatch{}.Score(), 1e-9)
	assert.InDelta(t, 1.5, LexicalMatch{Terms: []string{"a"}, Frequency: 1}.Score(), 1e-9)
	assert.Less(t, LexicalMatch{Terms: []string{"a"}, Frequency: 1000}.Score(), 2.0)
}

func TestSnapshot_MatchSemantic(t *testing.T) {
	s := Build([]*Entry{
		entry("same", "a", "a", 1, 0),
		entry("orth", "b", "b", 0, 1),
		entry("opposite", "c", "c", -1, 0),
		entry("lexical", "d", "d"),
	}, "")

	sims := s.MatchSemantic([]float32{2, 0}, 0, nil)
	assert.InDelta(t, 1.0, sims["same"], 1e-6)
	assert.InDelta(t, 0.0, sims["orth"], 1e-6)
	assert.InDelta(t, 0.0, sims["opposite"], 1e-6)
	assert.NotContains(t, sims, "lexical")

	thresholded := s.MatchSemantic([]float32{1, 0}, 0.5, nil)
	assert.Equal(t, []string{"same"}, SortedIDs(thresholded))

	assert.Empty(t, s.MatchSemantic([]float32{1, 0, 0}, 0, nil))
	assert.Empty(t, s.MatchSemantic([]float32{0, 0}, 0, nil))
}

func TestNormalize(t *testing.T) {
	v := Normalize([]float32{3, 4})
	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)
	assert.Nil(t, Normalize([]float32{0, 0}))
}

func TestSnapshot_Stats(t *testing.T) {
	e := NewEntry(domain.Document{ID: "x", Title: "Exam", SourceType: domain.SourceTypeExam}, tok).WithVector([]float32{1, 1})
	s := Build([]*Entry{e, entry("y", "General", "notice")}, "m")

	stats := s.Stats()
	assert.Equal(t, 2, stats.Documents)
	assert.Equal(t, 1, stats.Vectors)
	assert.Equal(t, 1, stats.ByType[domain.SourceTypeExam])
	assert.False(t, stats.Initialised)
}

func TestHolder(t *testing.T) {
	h := NewHolder()
	fixed := time.Date(2025, 10, 15, 0, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return fixed }
	assert.Nil(t, h.Load())

	first, err := h.Update(func(cur *Snapshot) (*Snapshot, error) {
		return cur.With(entry("a", "Exam", "notice")), nil
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), first.Generation())
	assert.Equal(t, fixed, first.BuiltAt())
	assert.Same(t, first, h.Load())

	_, err = h.Update(func(*Snapshot) (*Snapshot, error) { return nil, errors.New("boom") })
	assert.Error(t, err)
	assert.Same(t, first, h.Load())

	second, err := h.Update(func(cur *Snapshot) (*Snapshot, error) { return cur, nil })
	require.NoError(t, err)
	assert.Equal(t, uint64(2), second.Generation())
	assert.NotSame(t, first, second)
	assert.Equal(t, uint64(1), first.Generation())
	assert.True(t, second.Stats().Initialised)
}

func TestHolder_ConcurrentReadersSeeCompleteSnapshots(t *testing.T) {
	h := NewHolder()
	_, err := h.Update(func(*Snapshot) (*Snapshot, error) {
		return Build([]*Entry{entry("a", "Exam", "x"), entry("b", "Exam", "y")}, ""), nil
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				s := h.Load()
				// Writers always keep a and b together.
				assert.Len(t, s.Postings("exam"), 2)
			}
		}()
	}
	for j := 0; j < 50; j++ {
		_, err := h.Update(func(cur *Snapshot) (*Snapshot, error) {
			return cur.Without("a", "b").With(entry("a", "Exam", "x"), entry("b", "Exam", "y")), nil
		})
		require.NoError(t, err)
	}
	wg.Wait()
}
