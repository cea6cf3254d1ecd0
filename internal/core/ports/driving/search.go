package driving

import (
	"context"

	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/domain"
)

// SearchService ranks indexed documents against a query.
type SearchService interface {
	// Search returns hits sorted by descending score, ties broken by newer
	// publication date. An empty result is not an error.
	Search(ctx context.Context, query domain.SearchQuery) (*domain.RetrievalResult, error)
}
