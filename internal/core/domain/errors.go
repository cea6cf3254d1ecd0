package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input outside a query,
	// such as a bad setting value or an import record.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidQuery indicates an empty or malformed query or filter.
	// It is rejected before retrieval runs.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrRetrievalUnavailable indicates the index is missing or unusable.
	// Callers must not present it as an empty result.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")

	// ErrModelUnavailable indicates the language model backend failed.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrModelTimeout indicates the language model did not answer in time.
	ErrModelTimeout = errors.New("model timeout")

	// ErrQuotaExceeded indicates a provider or local rate limit was hit.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrTransient indicates a retryable backend failure (timeout, 5xx).
	ErrTransient = errors.New("transient backend error")

	// ErrIndexingFailure indicates a single document could not be indexed.
	ErrIndexingFailure = errors.New("indexing failure")

	// ErrStoreUnavailable indicates the document store cannot be reached.
	ErrStoreUnavailable = errors.New("document store unavailable")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Chat falls back to sources-only answers without it.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Semantic and hybrid search degrade to lexical without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)

// ErrorKind is the machine-readable classification of an error.
type ErrorKind string

// Error kinds surfaced to callers.
const (
	KindInvalidQuery         ErrorKind = "invalid_query"
	KindInvalidInput         ErrorKind = "invalid_input"
	KindRetrievalUnavailable ErrorKind = "retrieval_unavailable"
	KindModelUnavailable     ErrorKind = "model_unavailable"
	KindModelTimeout         ErrorKind = "model_timeout"
	KindQuotaExceeded        ErrorKind = "quota_exceeded"
	KindTransient            ErrorKind = "transient"
	KindIndexingFailure      ErrorKind = "indexing_failure"
	KindNotFound             ErrorKind = "not_found"
	KindStoreUnavailable     ErrorKind = "store_unavailable"
	KindInternal             ErrorKind = "internal"
)

// kindOrder is checked first to last, so the most specific kind wins
// when an error wraps several sentinels.
var kindOrder = []struct {
	err  error
	kind ErrorKind
}{
	{ErrInvalidQuery, KindInvalidQuery},
	{ErrInvalidInput, KindInvalidInput},
	{ErrNotFound, KindNotFound},
	{ErrRetrievalUnavailable, KindRetrievalUnavailable},
	{ErrStoreUnavailable, KindStoreUnavailable},
	{ErrQuotaExceeded, KindQuotaExceeded},
	{ErrModelTimeout, KindModelTimeout},
	{ErrModelUnavailable, KindModelUnavailable},
	{ErrLLMUnavailable, KindModelUnavailable},
	{ErrIndexingFailure, KindIndexingFailure},
	{ErrTransient, KindTransient},
}

// KindOf classifies err. Nil returns the empty kind.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	for _, k := range kindOrder {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

// IsModelFailure reports whether err means generation failed but the
// retrieved sources are still worth returning.
func IsModelFailure(err error) bool {
	switch KindOf(err) {
	case KindModelUnavailable, KindModelTimeout, KindQuotaExceeded, KindTransient:
		return true
	default:
		return false
	}
}
