package html

import (
	"html"
	"regexp"
	"strings"

	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/domain"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser cleans document titles and bodies.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Normalise returns doc with plain-text Title and Body.
// A missing title is taken from the <title> tag when the body has one.
func (n *Normaliser) Normalise(doc domain.Document) domain.Document {
	if doc.Title == "" {
		doc.Title = extractHTMLTitle(doc.Body)
	}
	doc.Title = collapseLine(StripHTML(doc.Title))
	doc.Body = StripHTML(doc.Body)
	return doc
}

// Pre-compiled regular expressions for HTML parsing performance.
var (
	titleTag          = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	scriptTag         = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleTag          = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	noscriptTag       = regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`)
	headTag           = regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`)
	svgTag            = regexp.MustCompile(`(?is)<svg[^>]*>.*?</svg>`)
	htmlComments      = regexp.MustCompile(`(?s)<!--.*?-->`)
	blockElements     = regexp.MustCompile(`(?i)</(p|div|h[1-6]|li|tr|td|th|blockquote|pre|table|section|article)>`)
	openBlockElements = regexp.MustCompile(`(?i)<(p|div|h[1-6]|li|tr|blockquote|pre|table|section|article)[^>]*>`)
	breakTags         = regexp.MustCompile(`(?i)<(br|hr)\s*/?>`)
	allTags           = regexp.MustCompile(`<[^>]+>`)
	multiSpaces       = regexp.MustCompile(`[ \t\r\f\v\x{00a0}]+`)
	anyWhitespace     = regexp.MustCompile(`\s+`)
)

// extractHTMLTitle returns the decoded <title> text, or "".
func extractHTMLTitle(content string) string {
	matches := titleTag.FindStringSubmatch(content)
	if len(matches) < 2 {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(matches[1]))
}

// StripHTML removes HTML tags and returns readable text, one block per line.
// Plain text passes through with only whitespace normalised.
func StripHTML(content string) string {
	if strings.ContainsRune(content, '<') {
		content = scriptTag.ReplaceAllString(content, "")
		content = styleTag.ReplaceAllString(content, "")
		content = noscriptTag.ReplaceAllString(content, "")
		content = headTag.ReplaceAllString(content, "")
		content = svgTag.ReplaceAllString(content, "")
		content = htmlComments.ReplaceAllString(content, "")

		// Block boundaries become line breaks.
		content = openBlockElements.ReplaceAllString(content, "\n")
		content = blockElements.ReplaceAllString(content, "\n")
		content = breakTags.ReplaceAllString(content, "\n")

		content = allTags.ReplaceAllString(content, "")
	}
	content = html.UnescapeString(content)
	content = multiSpaces.ReplaceAllString(content, " ")

	lines := strings.Split(content, "\n")
	result := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			result = append(result, line)
		}
	}
	return strings.Join(result, "\n")
}

func collapseLine(s string) string {
	return strings.TrimSpace(anyWhitespace.ReplaceAllString(s, " "))
}
