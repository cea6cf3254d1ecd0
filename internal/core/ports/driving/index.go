package driving

import (
	"context"

	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/domain"
)

// IndexService maintains the search index.
type IndexService interface {
	// Build replaces the index with one built from docs.
	Build(ctx context.Context, docs []domain.Document) (domain.IndexReport, error)

	// Rebuild builds from the latest documents in the store.
	Rebuild(ctx context.Context) (domain.IndexReport, error)

	// Upsert indexes a single new or changed document.
	Upsert(ctx context.Context, doc domain.Document) (domain.IndexReport, error)

	// UpsertByID loads the latest version of id from the store and indexes it.
	UpsertByID(ctx context.Context, id string) (domain.IndexReport, error)

	// Remove drops a document from the index.
	Remove(ctx context.Context, id string) (domain.IndexReport, error)

	// Stats describes the published index.
	Stats(ctx context.Context) (domain.IndexStats, error)
}
