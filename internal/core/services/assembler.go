package services

import (
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/domain"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/index"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/logger"
)

// ContextAssembler turns ranked hits into a bounded prompt context.
// It is CPU-only and safe for concurrent use.
type ContextAssembler struct {
	perDoc     int
	minExcerpt int
}

// NewContextAssembler creates an assembler. The total budget is passed to
// each Assemble call; settings supply the per-document limits.
func NewContextAssembler(settings domain.ContextSettings) *ContextAssembler {
	perDoc := settings.PerDocChars
	if perDoc <= 0 {
		perDoc = settings.MaxChars
	}
	return &ContextAssembler{
		perDoc:     perDoc,
		minExcerpt: max(settings.MinExcerptChars, 0),
	}
}

// Assemble takes hits in rank order until the next one would not fit in
// budget runes. The included items are always a prefix of the ranking and
// the rendered bundle never exceeds budget.
func (a *ContextAssembler) Assemble(result *domain.RetrievalResult, budget int) domain.ContextBundle {
	bundle := domain.ContextBundle{Items: []domain.ContextItem{}, Budget: budget}
	if result.IsEmpty() || budget <= 0 {
		return bundle
	}

	separator := domain.TextSize(domain.ContextSeparator)
	for _, hit := range result.Hits {
		remaining := budget - bundle.Size
		if len(bundle.Items) > 0 {
			remaining -= separator
		}

		item := domain.ContextItem{
			Marker:   len(bundle.Items) + 1,
			Document: hit.Document,
			Score:    hit.Score,
		}
		header := domain.TextSize(item.Header())
		bodyLen := domain.TextSize(hit.Document.Body)

		excerptLen := min(bodyLen, a.perDoc, remaining-header)
		if excerptLen < min(a.minExcerpt, bodyLen) || excerptLen < 0 {
			logger.Debug("Context budget reached after %d of %d hits", len(bundle.Items), len(result.Hits))
			break
		}

		item.Excerpt, item.Truncated = index.Excerpt(hit.Document.Body, hit.MatchOffset, excerptLen)

		if len(bundle.Items) > 0 {
			bundle.Size += separator
		}
		bundle.Size += header + domain.TextSize(item.Excerpt)
		bundle.Items = append(bundle.Items, item)
	}
	return bundle
}
