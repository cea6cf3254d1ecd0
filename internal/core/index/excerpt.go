package index

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Ellipsis marks text cut from an excerpt.
const Ellipsis = "..."

// boundarySlack is how far, in runes, an excerpt edge may move to land
// on a word boundary.
const boundarySlack = 24

// BestRegion returns the byte offset in text at the centre of the window
// of width runes that covers the most distinct query terms, preferring
// more total matches on ties and the earliest window after that.
// It returns 0 when no term occurs.
func BestRegion(text string, terms []string, width int) int {
	if len(terms) == 0 || text == "" {
		return 0
	}
	want := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		want[t] = struct{}{}
	}
	var hits []Span
	for _, s := range (Tokenizer{}).Spans(text) {
		if _, ok := want[s.Term]; ok {
			hits = append(hits, s)
		}
	}
	if len(hits) == 0 {
		return 0
	}
	if width <= 0 {
		width = 1
	}
	// Windows are measured in bytes; multi-byte text gets slightly
	// narrower windows, which only affects centring.
	bestStart, bestEnd := 0, 0
	bestDistinct, bestCount := -1, -1
	for i := range hits {
		distinct := make(map[string]struct{})
		j := i
		for ; j < len(hits) && hits[j].End-hits[i].Start <= width; j++ {
			distinct[hits[j].Term] = struct{}{}
		}
		if j == i {
			j = i + 1
			distinct[hits[i].Term] = struct{}{}
		}
		count := j - i
		if len(distinct) > bestDistinct || (len(distinct) == bestDistinct && count > bestCount) {
			bestDistinct, bestCount = len(distinct), count
			bestStart, bestEnd = hits[i].Start, hits[j-1].End
		}
	}
	return (bestStart + bestEnd) / 2
}

// Excerpt returns at most limit runes of text centred on the byte offset
// center. Cut edges are moved to word boundaries where one is near and
// marked with Ellipsis; the markers count against limit. The second
// result is true when text was shortened.
func Excerpt(text string, center, limit int) (string, bool) {
	if utf8.RuneCountInString(text) <= limit {
		return text, false
	}
	if limit <= 0 {
		return "", true
	}
	runes := []rune(text)
	avail := limit - 2*len(Ellipsis)
	if avail < 1 {
		return string(runes[:limit]), true
	}

	center = max(0, min(center, len(text)))
	c := utf8.RuneCountInString(text[:center])
	start := max(0, c-avail/2)
	end := start + avail
	if end > len(runes) {
		end = len(runes)
		start = max(0, end-avail)
	}

	if start > 0 {
		for i := start; i < len(runes) && i < start+boundarySlack && i < end; i++ {
			if unicode.IsSpace(runes[i]) {
				start = i + 1
				break
			}
		}
	}
	if end < len(runes) {
		for i := end; i > start && i > end-boundarySlack; i-- {
			if unicode.IsSpace(runes[i-1]) {
				end = i - 1
				break
			}
		}
	}

	out := strings.TrimSpace(string(runes[start:end]))
	if start > 0 {
		out = Ellipsis + out
	}
	if end < len(runes) {
		out += Ellipsis
	}
	return out, true
}

// EmbeddingText prepares a document for the embedding model: the title is
// repeated to weight it, whitespace is collapsed, text is lowercased and
// the result is cut on a word boundary at maxChars runes.
func EmbeddingText(title, body string, maxChars int) string {
	text := strings.ToLower(strings.Join(strings.Fields(title+" "+title+" "+body), " "))
	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return text
	}
	runes := []rune(text)[:maxChars]
	if i := strings.LastIndexByte(string(runes), ' '); i > 0 {
		return string(runes)[:i]
	}
	return string(runes)
}
