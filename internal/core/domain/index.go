package domain

import "time"

// IndexReport summarises an index maintenance run.
type IndexReport struct {
	// Indexed is the number of documents written to the index.
	Indexed int

	// Skipped counts superseded, stale or unknown documents.
	Skipped int

	// Failed counts documents that could not be indexed at all.
	Failed int

	// LexicalOnly counts indexed documents whose embedding failed.
	LexicalOnly int

	// Generation is the snapshot generation published by the run.
	Generation uint64

	// Duration is how long the run took.
	Duration time.Duration
}

// Add merges another report into r.
func (r *IndexReport) Add(other IndexReport) {
	r.Indexed += other.Indexed
	r.Skipped += other.Skipped
	r.Failed += other.Failed
	r.LexicalOnly += other.LexicalOnly
	if other.Generation > r.Generation {
		r.Generation = other.Generation
	}
	r.Duration += other.Duration
}

// IndexStats describes the currently published index snapshot.
type IndexStats struct {
	Generation  uint64
	Documents   int
	Terms       int
	Vectors     int
	Dimensions  int
	ByType      map[SourceType]int
	BuiltAt     time.Time
	EmbedModel  string
	Initialised bool
}

// IngestStatus is the outcome of storing one document.
type IngestStatus string

// Ingest outcomes.
const (
	IngestCreated   IngestStatus = "created"
	IngestUpdated   IngestStatus = "updated"
	IngestUnchanged IngestStatus = "unchanged"
	IngestFailed    IngestStatus = "failed"
)

// IngestResult reports what happened to one ingested document.
type IngestResult struct {
	ID      string
	Version int
	Status  IngestStatus
	Err     error
}

// PopularQuery is a normalised query and how often it was asked.
type PopularQuery struct {
	Query string
	Count int
}

// ChatStats are process-lifetime counters kept by the chat pipeline.
type ChatStats struct {
	Queries      int
	CacheHits    int
	Degraded     int
	Insufficient int
	Popular      []PopularQuery
}
