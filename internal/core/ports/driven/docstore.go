package driven

import (
	"context"

	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/domain"
)

// DocumentStore persists versioned documents. It is the source of truth;
// the search index is always rebuildable from ListLatestDocuments.
type DocumentStore interface {
	// SaveDocument stores one version of a document. Saving an existing
	// (ID, Version) pair overwrites it.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument returns the latest version of a document.
	// Returns domain.ErrNotFound if no version exists.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetDocumentVersion returns a specific version.
	GetDocumentVersion(ctx context.Context, id string, version int) (*domain.Document, error)

	// ListVersions returns every stored version of a document, oldest first.
	ListVersions(ctx context.Context, id string) ([]domain.Document, error)

	// ListLatestDocuments returns the latest version of every document that
	// passes filters. Superseded versions are never returned. A nil filter
	// returns everything. Results are ordered newest publication first.
	ListLatestDocuments(ctx context.Context, filters *domain.Filters) ([]domain.Document, error)

	// DeleteDocument removes every version of a document.
	// Returns domain.ErrNotFound if no version exists.
	DeleteDocument(ctx context.Context, id string) error

	// CountDocuments returns the number of logical documents.
	CountDocuments(ctx context.Context) (int, error)
}
