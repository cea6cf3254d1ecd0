package index

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

// minTokenLen drops single-letter noise such as the "s" in "student's".
const minTokenLen = 2

// stopwords are common English function words and question words that
// carry no retrieval signal in notice queries.
var stopwords = map[string]struct{}{
	"a": {}, "about": {}, "after": {}, "all": {}, "also": {}, "am": {}, "an": {}, "and": {},
	"any": {}, "are": {}, "as": {}, "at": {}, "be": {}, "been": {}, "before": {}, "being": {},
	"but": {}, "by": {}, "can": {}, "could": {}, "did": {}, "do": {}, "does": {}, "for": {},
	"from": {}, "had": {}, "has": {}, "have": {}, "he": {}, "her": {}, "here": {}, "his": {},
	"how": {}, "i": {}, "if": {}, "in": {}, "into": {}, "is": {}, "it": {}, "its": {},
	"me": {}, "my": {}, "of": {}, "on": {}, "or": {}, "our": {}, "please": {}, "she": {},
	"should": {}, "so": {}, "than": {}, "that": {}, "the": {}, "their": {}, "them": {},
	"then": {}, "there": {}, "these": {}, "they": {}, "this": {}, "those": {}, "to": {},
	"was": {}, "we": {}, "were": {}, "what": {}, "when": {}, "where": {}, "which": {},
	"who": {}, "whom": {}, "why": {}, "will": {}, "with": {}, "would": {}, "you": {}, "your": {},
}

// IsStopword reports whether term is filtered when stop words are enabled.
func IsStopword(term string) bool {
	_, ok := stopwords[term]
	return ok
}

// Tokenizer splits text into normalised terms.
type Tokenizer struct {
	// StopWords enables stop-word filtering.
	StopWords bool
}

// Span is a term and its byte range in the source text.
type Span struct {
	Term       string
	Start, End int
}

// Spans returns every kept term with its byte position, in text order.
func (t Tokenizer) Spans(text string) []Span {
	locs := tokenPattern.FindAllStringIndex(text, -1)
	spans := make([]Span, 0, len(locs))
	for _, loc := range locs {
		term := strings.ToLower(text[loc[0]:loc[1]])
		if !t.keep(term) {
			continue
		}
		spans = append(spans, Span{Term: term, Start: loc[0], End: loc[1]})
	}
	return spans
}

// Tokens returns every kept term in text order, duplicates included.
func (t Tokenizer) Tokens(text string) []string {
	spans := t.Spans(text)
	out := make([]string, len(spans))
	for i, s := range spans {
		out[i] = s.Term
	}
	return out
}

// Terms returns the distinct kept terms in order of first appearance.
func (t Tokenizer) Terms(text string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, tok := range t.Tokens(text) {
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

func (t Tokenizer) keep(term string) bool {
	if utf8.RuneCountInString(term) < minTokenLen {
		return false
	}
	if t.StopWords && IsStopword(term) {
		return false
	}
	return true
}
