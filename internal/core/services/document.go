package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/domain"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/ports/driven"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/ports/driving"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService manages the stored corpus and keeps the index in step.
type DocumentService struct {
	store      driven.DocumentStore
	indexer    driving.IndexService
	normaliser driven.Normaliser
	now        func() time.Time
}

// NewDocumentService creates a new document service. indexer and
// normaliser are optional.
func NewDocumentService(
	store driven.DocumentStore,
	indexer driving.IndexService,
	normaliser driven.Normaliser,
) *DocumentService {
	return &DocumentService{
		store:      store,
		indexer:    indexer,
		normaliser: normaliser,
		now:        time.Now,
	}
}

// Ingest stores each document as a new version when its content changed.
// A failure for one document is reported in its result and does not stop
// the others. Only a cancelled context aborts the run.
func (s *DocumentService) Ingest(ctx context.Context, docs []domain.Document) ([]domain.IngestResult, error) {
	results := make([]domain.IngestResult, 0, len(docs))
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		result := s.ingestOne(ctx, doc)
		if result.Err != nil {
			logger.Warn("ingest %s: %v", result.ID, result.Err)
		}
		results = append(results, result)
	}
	return results, nil
}

func (s *DocumentService) ingestOne(ctx context.Context, doc domain.Document) domain.IngestResult {
	if s.normaliser != nil {
		doc = s.normaliser.Normalise(doc)
	}
	result := domain.IngestResult{ID: doc.ID, Status: domain.IngestFailed}

	if err := validateForIngest(doc); err != nil {
		result.Err = err
		return result
	}
	doc.ContentHash = ContentHash(doc)

	latest, err := s.store.GetDocument(ctx, doc.ID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		doc.Version = 1
		doc.PreviousVersion = 0
		result.Status = domain.IngestCreated
	case err != nil:
		result.Err = fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
		return result
	case latest.ContentHash == doc.ContentHash && sameMetadata(*latest, doc):
		result.Version = latest.Version
		result.Status = domain.IngestUnchanged
		return result
	default:
		doc.PreviousVersion = latest.Version
		doc.Version = latest.Version + 1
		result.Status = domain.IngestUpdated
	}

	now := s.now()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	if err := s.store.SaveDocument(ctx, &doc); err != nil {
		result.Status = domain.IngestFailed
		result.Err = fmt.Errorf("save %s v%d: %w", doc.ID, doc.Version, err)
		return result
	}
	result.Version = doc.Version

	if s.indexer != nil {
		if _, err := s.indexer.Upsert(ctx, doc); err != nil {
			// The document is stored; the next rebuild will index it.
			logger.Warn("indexing %s v%d failed: %v", doc.ID, doc.Version, err)
		}
	}
	return result
}

// Get retrieves the latest version of a document.
func (s *DocumentService) Get(ctx context.Context, id string) (*domain.Document, error) {
	return s.store.GetDocument(ctx, id)
}

// Versions returns every stored version of a document, oldest first.
func (s *DocumentService) Versions(ctx context.Context, id string) ([]domain.Document, error) {
	return s.store.ListVersions(ctx, id)
}

// Recent returns the newest documents passing filters. A zero limit
// selects the default search limit.
func (s *DocumentService) Recent(ctx context.Context, filters domain.Filters, limit int) ([]domain.Document, error) {
	if err := filters.Validate(); err != nil {
		return nil, err
	}
	if limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative", domain.ErrInvalidQuery)
	}
	if limit == 0 {
		limit = domain.DefaultAppSettings().Search.DefaultLimit
	}
	limit = min(limit, domain.MaxSearchLimit)

	docs, err := s.store.ListLatestDocuments(ctx, &filters)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	if len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

// Delete removes every version of a document and drops it from the index.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteDocument(ctx, id); err != nil {
		return err
	}
	if s.indexer != nil {
		if _, err := s.indexer.Remove(ctx, id); err != nil {
			return fmt.Errorf("remove %s from index: %w", id, err)
		}
	}
	return nil
}

// ContentHash returns the sha256 of the fields that define a version.
func ContentHash(doc domain.Document) string {
	h := sha256.New()
	for _, part := range []string{
		doc.Title, doc.Body, string(doc.SourceType), doc.PublishedDate(), doc.URL,
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func sameMetadata(a, b domain.Document) bool {
	if len(a.Metadata) != len(b.Metadata) {
		return false
	}
	for k, v := range a.Metadata {
		if b.Metadata[k] != v {
			return false
		}
	}
	return true
}

func validateForIngest(doc domain.Document) error {
	switch {
	case strings.TrimSpace(doc.ID) == "":
		return fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	case strings.TrimSpace(doc.Title) == "" && strings.TrimSpace(doc.Body) == "":
		return fmt.Errorf("%w: document %s has no title or body", domain.ErrInvalidInput, doc.ID)
	case !doc.SourceType.IsValid():
		return fmt.Errorf("%w: document %s has unknown source type %q", domain.ErrInvalidInput, doc.ID, doc.SourceType)
	}
	return nil
}
