// Package markdown cleans notices and course records authored in Markdown.
package markdown

import (
	"regexp"
	"strings"

	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/domain"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser turns Markdown bodies into plain text.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Normalise returns doc with a plain-text Body. A missing title is taken
// from the first level-one heading.
func (n *Normaliser) Normalise(doc domain.Document) domain.Document {
	if doc.Title == "" {
		doc.Title = extractTitle(doc.Body)
	}
	doc.Title = strings.TrimSpace(stripInline(doc.Title))
	doc.Body = Strip(doc.Body)
	return doc
}

var (
	codeFence    = regexp.MustCompile("(?s)```[^\\n]*\\n(.*?)```")
	inlineCode   = regexp.MustCompile("`([^`]+)`")
	images       = regexp.MustCompile(`!\[([^\]]*)\]\([^)]+\)`)
	links        = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headings     = regexp.MustCompile(`(?m)^\s{0,3}#{1,6}\s+`)
	starEmphasis = regexp.MustCompile(`(\*\*|\*)([^*\n]+)(\*\*|\*)`)
	lineEmphasis = regexp.MustCompile(`\b(__|_)([^_\n]+)(__|_)\b`)
	blockquote   = regexp.MustCompile(`(?m)^\s*>\s?`)
	rules        = regexp.MustCompile(`(?m)^\s*([-*_]\s*){3,}$`)
	bullets      = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	tableRule    = regexp.MustCompile(`(?m)^\s*\|?(\s*:?-+:?\s*\|)+\s*:?-*:?\s*$`)
	tablePipes   = regexp.MustCompile(`\s*\|\s*`)
	spaces       = regexp.MustCompile(`[ \t]+`)
	blankRuns    = regexp.MustCompile(`\n{2,}`)
	firstHeading = regexp.MustCompile(`(?m)^\s{0,3}#\s+(.+)$`)
)

// Strip removes Markdown syntax, keeping link and image text, code and
// numbered list markers. Blank lines are dropped.
func Strip(content string) string {
	content = codeFence.ReplaceAllString(content, "$1")
	content = tableRule.ReplaceAllString(content, "")
	content = rules.ReplaceAllString(content, "")
	content = headings.ReplaceAllString(content, "")
	content = blockquote.ReplaceAllString(content, "")
	content = bullets.ReplaceAllString(content, "")
	content = stripInline(content)

	lines := strings.Split(content, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.Trim(tablePipes.ReplaceAllString(line, " | "), " |")
		line = strings.TrimSpace(spaces.ReplaceAllString(line, " "))
		if line != "" {
			out = append(out, line)
		}
	}
	return blankRuns.ReplaceAllString(strings.Join(out, "\n"), "\n")
}

func stripInline(s string) string {
	s = images.ReplaceAllString(s, "$1")
	s = links.ReplaceAllString(s, "$1")
	s = inlineCode.ReplaceAllString(s, "$1")
	s = starEmphasis.ReplaceAllString(s, "$2")
	return lineEmphasis.ReplaceAllString(s, "$2")
}

func extractTitle(content string) string {
	m := firstHeading.FindStringSubmatch(content)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(strings.TrimRight(m[1], "# "))
}
