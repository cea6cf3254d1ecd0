package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/domain"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
// Versions of each logical document are kept sorted by version number.
type DocumentStore struct {
	mu       sync.RWMutex
	versions map[string][]domain.Document
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		versions: make(map[string][]domain.Document),
	}
}

// SaveDocument stores one version of a document.
func (s *DocumentStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.versions[doc.ID]
	i, found := slices.BinarySearchFunc(list, doc.Version, func(d domain.Document, v int) int {
		return d.Version - v
	})
	if found {
		list[i] = *doc
	} else {
		list = slices.Insert(list, i, *doc)
	}
	s.versions[doc.ID] = list
	return nil
}

// GetDocument returns the latest version of a document.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.versions[id]
	if len(list) == 0 {
		return nil, domain.ErrNotFound
	}
	doc := list[len(list)-1]
	return &doc, nil
}

// GetDocumentVersion returns a specific version of a document.
func (s *DocumentStore) GetDocumentVersion(_ context.Context, id string, version int) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, doc := range s.versions[id] {
		if doc.Version == version {
			return &doc, nil
		}
	}
	return nil, domain.ErrNotFound
}

// ListVersions returns every version of a document, oldest first.
func (s *DocumentStore) ListVersions(_ context.Context, id string) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.versions[id]
	if len(list) == 0 {
		return nil, domain.ErrNotFound
	}
	return slices.Clone(list), nil
}

// ListLatestDocuments returns the latest version of each document.
func (s *DocumentStore) ListLatestDocuments(_ context.Context, filters *domain.Filters) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]domain.Document, 0, len(s.versions))
	for _, id := range slices.Sorted(maps.Keys(s.versions)) {
		list := s.versions[id]
		latest := list[len(list)-1]
		if filters != nil && !filters.Matches(latest) {
			continue
		}
		docs = append(docs, latest)
	}
	domain.SortNewestFirst(docs)
	return docs, nil
}

// DeleteDocument removes every version of a document.
func (s *DocumentStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.versions[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.versions, id)
	return nil
}

// CountDocuments returns the number of logical documents.
func (s *DocumentStore) CountDocuments(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.versions), nil
}
