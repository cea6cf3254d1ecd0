package domain

import "time"

// InsufficientInformationText is returned when no source could ground an answer.
const InsufficientInformationText = "I don't have recent information about that. " +
	"Please check the official KIIT website or contact the administration."

// DegradedAnswerText accompanies sources when the model could not be reached.
const DegradedAnswerText = "The answer service is temporarily unavailable. " +
	"These official sources matched your question."

// ChatRequest is the input to the chat operation.
type ChatRequest struct {
	// Query is the user's question.
	Query string

	// SessionID is opaque and only logged.
	SessionID string

	// Filters are passed to retrieval unchanged.
	Filters Filters

	// Limit caps the number of retrieved documents. Zero selects the default.
	Limit int
}

// Source is a citation returned with an answer.
type Source struct {
	// Marker is the citation number used in the answer text.
	Marker int

	// DocumentID links back to the Document.
	DocumentID string

	// Title is the document title.
	Title string

	// URL is the document URL.
	URL string

	// PublishedAt is the document publication date.
	PublishedAt time.Time

	// SourceType classifies the document.
	SourceType SourceType
}

// SourceFromItem builds a Source from a context item.
func SourceFromItem(item ContextItem) Source {
	return Source{
		Marker:      item.Marker,
		DocumentID:  item.Document.ID,
		Title:       item.Document.Title,
		URL:         item.Document.URL,
		PublishedAt: item.Document.PublishedAt,
		SourceType:  item.Document.SourceType,
	}
}

// Answer is the result of the chat operation.
type Answer struct {
	// Text is the generated answer.
	Text string

	// Sources are the documents the answer cites, in citation order.
	Sources []Source

	// Elapsed is the end-to-end processing time for this request.
	Elapsed time.Duration

	// FromCache is true when the answer was served from the response cache.
	FromCache bool

	// Degraded is true when no narrative was generated and Sources are
	// the retrieved documents.
	Degraded bool

	// Insufficient is true when no document grounded the answer.
	Insufficient bool

	// CitationsInferred is true when the model cited nothing and the
	// sources are every document it was given.
	CitationsInferred bool

	// Model is the language model that produced Text.
	Model string

	// RequestID identifies the request in logs.
	RequestID string

	// CreatedAt is when the answer was generated.
	CreatedAt time.Time
}

// InsufficientAnswer returns the fixed answer used when the context is empty.
func InsufficientAnswer() *Answer {
	return &Answer{
		Text:         InsufficientInformationText,
		Sources:      []Source{},
		Insufficient: true,
	}
}
