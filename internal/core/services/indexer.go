package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/domain"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/index"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/ports/driven"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/ports/driving"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/logger"
)

// Ensure IndexService implements the interface.
var _ driving.IndexService = (*IndexService)(nil)

// errUnchanged aborts a holder update without publishing.
var errUnchanged = errors.New("index unchanged")

// PublishListener is called after every snapshot publish.
type PublishListener func(generation uint64)

// IndexService maintains the in-memory index. Each change builds a new
// snapshot from the current one and publishes it atomically, so searches
// never see a partially updated index.
type IndexService struct {
	holder    *index.Holder
	store     driven.DocumentStore
	embedder  driven.EmbeddingService
	tokenizer index.Tokenizer

	workers       int
	embedTimeout  time.Duration
	embedMaxChars int

	listenersMu sync.RWMutex
	listeners   []PublishListener

	// While a rebuild is running, removals are remembered so publishing
	// the rebuild cannot bring back a document deleted after the store
	// was read.
	trackMu    sync.Mutex
	rebuilding int
	removedAt  map[string]uint64
}

// NewIndexService creates an index service. store may be nil when only
// Build, Upsert and Remove are used; embedder may be nil for a
// lexical-only index.
func NewIndexService(
	holder *index.Holder,
	store driven.DocumentStore,
	embedder driven.EmbeddingService,
	settings *domain.AppSettings,
) *IndexService {
	workers := settings.Indexer.Workers
	if workers <= 0 {
		workers = 1
	}
	return &IndexService{
		holder:        holder,
		store:         store,
		embedder:      embedder,
		tokenizer:     index.Tokenizer{StopWords: settings.Indexer.StopWords},
		workers:       workers,
		embedTimeout:  settings.Embedding.Timeout,
		embedMaxChars: settings.Indexer.EmbedMaxChars,
	}
}

// OnPublish registers fn to run after each snapshot publish.
func (s *IndexService) OnPublish(fn PublishListener) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *IndexService) notify(generation uint64) {
	s.listenersMu.RLock()
	listeners := slices.Clone(s.listeners)
	s.listenersMu.RUnlock()
	for _, fn := range listeners {
		fn(generation)
	}
}

// Build replaces the index with one built from docs. Superseded versions
// are dropped and the remaining documents are processed in id order, so
// the same input always produces the same snapshot contents.
func (s *IndexService) Build(ctx context.Context, docs []domain.Document) (domain.IndexReport, error) {
	return s.build(ctx, docs, nil)
}

// build indexes docs and publishes the result. With a nil base the new
// snapshot replaces the current one. Otherwise docs were read from the
// store while base was current, and changes published since base win
// over the rebuilt entries.
func (s *IndexService) build(ctx context.Context, docs []domain.Document, base *index.Snapshot) (domain.IndexReport, error) {
	logger.Section("Index Build")
	start := time.Now()
	var report domain.IndexReport

	latest := domain.LatestVersions(docs)
	report.Skipped = len(docs) - len(latest)
	slices.SortFunc(latest, func(a, b domain.Document) int { return strings.Compare(a.ID, b.ID) })

	valid := latest[:0]
	for _, doc := range latest {
		if err := validateForIndex(doc); err != nil {
			logger.Warn("skipping document: %v", err)
			report.Failed++
			continue
		}
		valid = append(valid, doc)
	}

	entries, err := s.prepare(ctx, valid)
	if err != nil {
		return report, err
	}
	snap, err := s.holder.Update(func(cur *index.Snapshot) (*index.Snapshot, error) {
		final := entries
		if base != nil && cur.Generation() != base.Generation() {
			final = s.reconcile(entries, base, cur)
		}
		final, report.LexicalOnly = alignDimensions(final, 0)
		report.Indexed = len(final)
		return index.Build(final, s.embedModel()), nil
	})
	if err != nil {
		return report, err
	}

	report.Generation = snap.Generation()
	report.Duration = time.Since(start)
	logger.Info("Built index generation %d: %d indexed, %d skipped, %d failed, %d lexical-only",
		report.Generation, report.Indexed, report.Skipped, report.Failed, report.LexicalOnly)

	s.notify(report.Generation)
	return report, nil
}

// Rebuild builds a fresh index from the latest documents in the store.
// Entries for documents no longer in the store are pruned.
func (s *IndexService) Rebuild(ctx context.Context) (domain.IndexReport, error) {
	if s.store == nil {
		return domain.IndexReport{}, fmt.Errorf("%w: no document store configured", domain.ErrStoreUnavailable)
	}
	s.trackRemovals(1)
	defer s.trackRemovals(-1)

	base := s.holder.Load()
	if base == nil {
		base = index.Empty()
	}
	docs, err := s.store.ListLatestDocuments(ctx, nil)
	if err != nil {
		return domain.IndexReport{}, fmt.Errorf("%w: listing documents: %w", domain.ErrStoreUnavailable, err)
	}
	return s.build(ctx, docs, base)
}

// reconcile merges rebuilt entries with what was published after base.
// An entry that differs from base was upserted during the rebuild and is
// kept unless the rebuilt one has a higher version; an id removed during
// the rebuild stays removed. Runs under the holder lock.
func (s *IndexService) reconcile(rebuilt []*index.Entry, base, cur *index.Snapshot) []*index.Entry {
	merged := make(map[string]*index.Entry, len(rebuilt))
	for _, e := range rebuilt {
		merged[e.Document.ID] = e
	}

	for _, e := range cur.Entries() {
		id := e.Document.ID
		if old, ok := base.Entry(id); ok && old == e {
			continue
		}
		if r, ok := merged[id]; ok && r.Document.Version > e.Document.Version {
			continue
		}
		merged[id] = e
	}

	s.trackMu.Lock()
	for id, gen := range s.removedAt {
		if gen <= base.Generation() {
			continue
		}
		if _, live := cur.Entry(id); !live {
			delete(merged, id)
		}
	}
	s.trackMu.Unlock()

	out := make([]*index.Entry, 0, len(merged))
	for _, id := range index.SortedIDs(merged) {
		out = append(out, merged[id])
	}
	logger.Debug("Index changed during rebuild (generation %d to %d); merged %d entries",
		base.Generation(), cur.Generation(), len(out))
	return out
}

// trackRemovals adjusts the count of running rebuilds. Removal records
// are dropped once none is running.
func (s *IndexService) trackRemovals(delta int) {
	s.trackMu.Lock()
	defer s.trackMu.Unlock()
	s.rebuilding += delta
	if s.rebuilding == 0 {
		s.removedAt = nil
	}
}

func (s *IndexService) recordRemoval(id string, generation uint64) {
	s.trackMu.Lock()
	defer s.trackMu.Unlock()
	if s.rebuilding == 0 {
		return
	}
	if s.removedAt == nil {
		s.removedAt = make(map[string]uint64)
	}
	s.removedAt[id] = generation
}

// Upsert indexes a single new or changed document. A version older than
// the one already indexed is skipped as stale.
func (s *IndexService) Upsert(ctx context.Context, doc domain.Document) (domain.IndexReport, error) {
	start := time.Now()
	var report domain.IndexReport

	if err := validateForIndex(doc); err != nil {
		report.Failed = 1
		return report, err
	}

	entries, err := s.prepare(ctx, []domain.Document{doc})
	if err != nil {
		return report, err
	}
	entry := entries[0]

	snap, err := s.holder.Update(func(cur *index.Snapshot) (*index.Snapshot, error) {
		if existing, ok := cur.Entry(doc.ID); ok && existing.Document.Version > doc.Version {
			return nil, errUnchanged
		}
		aligned, lexicalOnly := alignDimensions([]*index.Entry{entry}, cur.Dimensions())
		report.LexicalOnly = lexicalOnly
		if cur.Generation() == 0 {
			return index.Build(aligned, s.embedModel()), nil
		}
		return cur.With(aligned...), nil
	})
	if errors.Is(err, errUnchanged) {
		logger.Debug("Skipping stale version %d of %s", doc.Version, doc.ID)
		report.Skipped = 1
		report.LexicalOnly = 0
		return report, nil
	}
	if err != nil {
		return report, err
	}

	report.Indexed = 1
	report.Generation = snap.Generation()
	report.Duration = time.Since(start)
	logger.Debug("Indexed %s v%d (generation %d)", doc.ID, doc.Version, report.Generation)

	s.notify(report.Generation)
	return report, nil
}

// UpsertByID loads the latest version of id from the store and indexes it.
func (s *IndexService) UpsertByID(ctx context.Context, id string) (domain.IndexReport, error) {
	if s.store == nil {
		return domain.IndexReport{}, fmt.Errorf("%w: no document store configured", domain.ErrStoreUnavailable)
	}
	doc, err := s.store.GetDocument(ctx, id)
	if err != nil {
		return domain.IndexReport{}, fmt.Errorf("loading document %s: %w", id, err)
	}
	return s.Upsert(ctx, *doc)
}

// Remove drops a document from the index. Unknown ids are skipped.
func (s *IndexService) Remove(_ context.Context, id string) (domain.IndexReport, error) {
	start := time.Now()
	var report domain.IndexReport

	snap, err := s.holder.Update(func(cur *index.Snapshot) (*index.Snapshot, error) {
		if _, ok := cur.Entry(id); !ok {
			return nil, errUnchanged
		}
		s.recordRemoval(id, cur.Generation()+1)
		return cur.Without(id), nil
	})
	if errors.Is(err, errUnchanged) {
		report.Skipped = 1
		return report, nil
	}
	if err != nil {
		return report, err
	}

	report.Indexed = 1
	report.Generation = snap.Generation()
	report.Duration = time.Since(start)
	logger.Debug("Removed %s (generation %d)", id, report.Generation)

	s.notify(report.Generation)
	return report, nil
}

// Stats describes the published index.
func (s *IndexService) Stats(_ context.Context) (domain.IndexStats, error) {
	snap := s.holder.Load()
	if snap == nil {
		return domain.IndexStats{ByType: map[domain.SourceType]int{}}, nil
	}
	return snap.Stats(), nil
}

func (s *IndexService) embedModel() string {
	if s.embedder == nil {
		return ""
	}
	return s.embedder.ModelName()
}

// prepare tokenises docs and embeds them on a bounded worker pool. The
// returned entries keep the order of docs. An embedding failure leaves
// the entry without a vector.
func (s *IndexService) prepare(ctx context.Context, docs []domain.Document) ([]*index.Entry, error) {
	entries := make([]*index.Entry, len(docs))
	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup

	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return nil, err
		}
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			entries[i] = s.entryFor(ctx, doc)
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *IndexService) entryFor(ctx context.Context, doc domain.Document) *index.Entry {
	entry := index.NewEntry(doc, s.tokenizer)
	if s.embedder == nil {
		return entry
	}

	embedCtx := ctx
	if s.embedTimeout > 0 {
		var cancel context.CancelFunc
		embedCtx, cancel = context.WithTimeout(ctx, s.embedTimeout)
		defer cancel()
	}

	vector, err := s.embedder.Embed(embedCtx, index.EmbeddingText(doc.Title, doc.Body, s.embedMaxChars))
	if err != nil {
		logger.Warn("embedding %s failed, indexing lexical-only: %v", doc.ID, err)
		return entry
	}
	return entry.WithVector(vector)
}

// alignDimensions drops vectors whose size differs from dims. When dims is
// zero the first vector, in entry order, sets it. It returns the entries
// and how many of them ended up without a vector.
func alignDimensions(entries []*index.Entry, dims int) ([]*index.Entry, int) {
	lexicalOnly := 0
	out := make([]*index.Entry, len(entries))
	for i, e := range entries {
		if e.Vector != nil && dims == 0 {
			dims = len(e.Vector)
		}
		if e.Vector != nil && len(e.Vector) != dims {
			logger.Warn("embedding for %s has %d dimensions, index has %d; indexing lexical-only",
				e.Document.ID, len(e.Vector), dims)
			cp := *e
			cp.Vector = nil
			e = &cp
		}
		if e.Vector == nil {
			lexicalOnly++
		}
		out[i] = e
	}
	return out, lexicalOnly
}

func validateForIndex(doc domain.Document) error {
	if strings.TrimSpace(doc.ID) == "" {
		return fmt.Errorf("%w: document has no id", domain.ErrIndexingFailure)
	}
	if strings.TrimSpace(doc.Title) == "" && strings.TrimSpace(doc.Body) == "" {
		return fmt.Errorf("%w: document %s has no title or body", domain.ErrIndexingFailure, doc.ID)
	}
	return nil
}
