package driving

import (
	"context"

	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/domain"
)

// DocumentService manages the stored corpus.
type DocumentService interface {
	// Ingest stores documents, assigning versions by content change, and
	// updates the index for every created or updated document.
	Ingest(ctx context.Context, docs []domain.Document) ([]domain.IngestResult, error)

	// Get retrieves the latest version of a document.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// Versions returns every stored version of a document, oldest first.
	Versions(ctx context.Context, id string) ([]domain.Document, error)

	// Recent returns the newest documents passing filters.
	Recent(ctx context.Context, filters domain.Filters, limit int) ([]domain.Document, error)

	// Delete removes a document from the store and the index.
	Delete(ctx context.Context, id string) error
}
