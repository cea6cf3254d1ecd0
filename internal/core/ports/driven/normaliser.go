package driven

import "github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/domain"

// Normaliser cleans a document's text before it is stored.
type Normaliser interface {
	// Normalise returns the cleaned document. ID, version and metadata
	// are left unchanged.
	Normalise(doc domain.Document) domain.Document
}
