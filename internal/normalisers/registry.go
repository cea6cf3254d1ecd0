package normalisers

import (
	"path"
	"strings"

	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/domain"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/ports/driven"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/normalisers/html"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/normalisers/markdown"
)

// FormatKey is the metadata key naming a document's source format.
const FormatKey = "format"

// Ensure Registry implements the interface.
var _ driven.Normaliser = (*Registry)(nil)

// Registry dispatches each document to the normaliser registered for its
// format. The format comes from the "format" metadata key, falling back to
// the URL's file extension. Unknown formats use the fallback.
type Registry struct {
	fallback driven.Normaliser
	byFormat map[string]driven.Normaliser
}

// NewRegistry creates a registry that uses fallback for unknown formats.
func NewRegistry(fallback driven.Normaliser) *Registry {
	return &Registry{
		fallback: fallback,
		byFormat: make(map[string]driven.Normaliser),
	}
}

// Default returns the HTML normaliser with Markdown registered for
// "markdown" and "md".
func Default() *Registry {
	r := NewRegistry(html.New())
	md := markdown.New()
	r.Register("markdown", md)
	r.Register("md", md)
	return r
}

// Register sets the normaliser for a format name. Names are case-insensitive.
func (r *Registry) Register(format string, n driven.Normaliser) {
	r.byFormat[strings.ToLower(format)] = n
}

// Normalise cleans doc with the normaliser for its format.
func (r *Registry) Normalise(doc domain.Document) domain.Document {
	return r.For(doc).Normalise(doc)
}

// For returns the normaliser that would handle doc.
func (r *Registry) For(doc domain.Document) driven.Normaliser {
	format := strings.ToLower(strings.TrimSpace(doc.Metadata[FormatKey]))
	if format == "" && doc.URL != "" {
		format = strings.TrimPrefix(strings.ToLower(path.Ext(urlPath(doc.URL))), ".")
	}
	if n, ok := r.byFormat[format]; ok {
		return n
	}
	return r.fallback
}

func urlPath(u string) string {
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	return u
}
