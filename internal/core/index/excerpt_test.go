package index

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestBestRegion(t *testing.T) {
	text := "Library timings changed. " + strings.Repeat("filler words here ", 20) +
		"The mid semester exam begins on Monday."

	t.Run("centres on densest match", func(t *testing.T) {
		off := BestRegion(text, []string{"mid", "semester", "exam"}, 60)
		assert.Greater(t, off, strings.Index(text, "mid")-1)
		assert.Less(t, off, strings.Index(text, "begins"))
	})

	t.Run("no match", func(t *testing.T) {
		assert.Equal(t, 0, BestRegion(text, []string{"hostel"}, 60))
		assert.Equal(t, 0, BestRegion(text, nil, 60))
	})

	t.Run("prefers more distinct terms", func(t *testing.T) {
		doc := "exam exam exam exam " + strings.Repeat("x ", 100) + "exam schedule"
		off := BestRegion(doc, []string{"exam", "schedule"}, 20)
		assert.Greater(t, off, 200)
	})
}

func TestExcerpt(t *testing.T) {
	t.Run("short text unchanged", func(t *testing.T) {
		got, truncated := Excerpt("short notice", 0, 100)
		assert.Equal(t, "short notice", got)
		assert.False(t, truncated)
	})

	t.Run("respects limit and marks both ends", func(t *testing.T) {
		text := strings.Repeat("alpha beta gamma delta ", 50)
		got, truncated := Excerpt(text, len(text)/2, 80)

		assert.True(t, truncated)
		assert.LessOrEqual(t, utf8.RuneCountInString(got), 80)
		assert.True(t, strings.HasPrefix(got, Ellipsis))
		assert.True(t, strings.HasSuffix(got, Ellipsis))
		inner := strings.TrimSuffix(strings.TrimPrefix(got, Ellipsis), Ellipsis)
		for _, w := range strings.Fields(inner) {
			assert.Contains(t, []string{"alpha", "beta", "gamma", "delta"}, w)
		}
	})

	t.Run("start of text has no leading marker", func(t *testing.T) {
		text := strings.Repeat("word ", 100)
		got, truncated := Excerpt(text, 0, 50)

		assert.True(t, truncated)
		assert.False(t, strings.HasPrefix(got, Ellipsis))
		assert.True(t, strings.HasSuffix(got, Ellipsis))
		assert.LessOrEqual(t, utf8.RuneCountInString(got), 50)
	})

	t.Run("contains centre", func(t *testing.T) {
		text := strings.Repeat("aaaa ", 60) + "TARGET " + strings.Repeat("bbbb ", 60)
		got, _ := Excerpt(text, strings.Index(text, "TARGET"), 60)
		assert.Contains(t, got, "TARGET")
	})

	t.Run("multibyte runes", func(t *testing.T) {
		text := strings.Repeat("परीक्षा ", 40)
		got, truncated := Excerpt(text, len(text)/2, 30)
		assert.True(t, truncated)
		assert.LessOrEqual(t, utf8.RuneCountInString(got), 30)
		assert.True(t, utf8.ValidString(got))
	})

	t.Run("tiny limit", func(t *testing.T) {
		got, truncated := Excerpt("abcdefghijkl", 0, 4)
		assert.Equal(t, "abcd", got)
		assert.True(t, truncated)
	})
}

func TestEmbeddingText(t *testing.T) {
	got := EmbeddingText("Exam Notice", "Mid  semester\nexams begin", 0)
	assert.Equal(t, "exam notice exam notice mid semester exams begin", got)

	cut := EmbeddingText("T", "one two three four five", 12)
	assert.Equal(t, "t t one two", cut)
}
