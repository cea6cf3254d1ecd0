package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ContextSeparator joins rendered context items.
const ContextSeparator = "\n\n"

// ContextItem is one document selected for generation.
type ContextItem struct {
	// Marker is the 1-based citation number the model uses, e.g. [1].
	Marker int

	// Document is the source document.
	Document Document

	// Score is the retrieval score the item was ranked with.
	Score float64

	// Excerpt is the text actually included in the prompt.
	Excerpt string

	// Truncated is true when Excerpt is shorter than the document body.
	Truncated bool
}

// Header returns the attribution lines that precede the excerpt.
func (c ContextItem) Header() string {
	return fmt.Sprintf("[%d] %s (Published: %s, Source: %s)\nURL: %s\nContent: ",
		c.Marker, c.Document.Title, c.Document.PublishedDate(), c.Document.SourceType, c.Document.URL)
}

// Render returns the full block as it appears in the prompt.
func (c ContextItem) Render() string {
	return c.Header() + c.Excerpt
}

// ContextBundle is the bounded, ordered set of excerpts for one query.
type ContextBundle struct {
	// Items are in retrieval rank order.
	Items []ContextItem

	// Size is the rune count of Render().
	Size int

	// Budget is the limit the bundle was assembled under.
	Budget int
}

// IsEmpty returns true if no grounding is available.
func (b ContextBundle) IsEmpty() bool {
	return len(b.Items) == 0
}

// Render joins the item blocks in order.
func (b ContextBundle) Render() string {
	blocks := make([]string, len(b.Items))
	for i, item := range b.Items {
		blocks[i] = item.Render()
	}
	return strings.Join(blocks, ContextSeparator)
}

// Item returns the item with the given citation marker.
func (b ContextBundle) Item(marker int) (ContextItem, bool) {
	for _, item := range b.Items {
		if item.Marker == marker {
			return item, true
		}
	}
	return ContextItem{}, false
}

// TextSize is the unit all context budgets are measured in.
func TextSize(s string) int {
	return utf8.RuneCountInString(s)
}
