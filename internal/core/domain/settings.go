package domain

import "time"

const unknownDescription = "Unknown"

// SearchMode defines how retrieval scores documents.
type SearchMode string

// Available search modes.
const (
	// SearchModeLexical scores by distinct matched keywords.
	SearchModeLexical SearchMode = "lexical"

	// SearchModeSemantic scores by embedding cosine similarity.
	SearchModeSemantic SearchMode = "semantic"

	// SearchModeHybrid combines lexical and semantic scores by a fixed weight.
	SearchModeHybrid SearchMode = "hybrid"
)

// IsValid returns true if the search mode is recognised.
func (m SearchMode) IsValid() bool {
	switch m {
	case SearchModeLexical, SearchModeSemantic, SearchModeHybrid:
		return true
	default:
		return false
	}
}

// RequiresEmbedding returns true if this mode needs an embedding provider.
func (m SearchMode) RequiresEmbedding() bool {
	return m == SearchModeSemantic || m == SearchModeHybrid
}

// String returns the string representation.
func (m SearchMode) String() string {
	return string(m)
}

// Description returns a human-readable description of the mode.
func (m SearchMode) Description() string {
	switch m {
	case SearchModeLexical:
		return "Lexical (keyword match)"
	case SearchModeSemantic:
		return "Semantic (embedding similarity)"
	case SearchModeHybrid:
		return "Hybrid (weighted keyword + semantic)"
	default:
		return unknownDescription
	}
}

// AllSearchModes returns all available search modes.
func AllSearchModes() []SearchMode {
	return []SearchMode{SearchModeLexical, SearchModeSemantic, SearchModeHybrid}
}

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{AIProviderOllama, AIProviderOpenAI}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-haiku-latest",
	}
}

// SearchSettings holds retrieval configuration.
type SearchSettings struct {
	// Mode is the requested scoring mode.
	Mode SearchMode

	// LexicalWeight and SemanticWeight combine scores in hybrid mode.
	// They are normalised to sum to one.
	LexicalWeight  float64
	SemanticWeight float64

	// MinSimilarity is the cosine threshold for a semantic match.
	MinSimilarity float64

	// DefaultLimit applies when a query does not set a limit.
	DefaultLimit int

	// MaxLimit clamps requested limits. Never above MaxSearchLimit.
	MaxLimit int

	// SnippetChars is the target snippet length.
	SnippetChars int
}

// Weights returns the hybrid weights normalised to sum to one.
// Non-positive weights fall back to an even split.
func (s SearchSettings) Weights() (lexical, semantic float64) {
	l, sem := s.LexicalWeight, s.SemanticWeight
	if l < 0 {
		l = 0
	}
	if sem < 0 {
		sem = 0
	}
	if l+sem == 0 {
		return 0.5, 0.5
	}
	return l / (l + sem), sem / (l + sem)
}

// ContextSettings bounds the prompt context.
type ContextSettings struct {
	// MaxChars is the total context budget.
	MaxChars int

	// PerDocChars caps any single excerpt.
	PerDocChars int

	// MinExcerptChars is the shortest excerpt worth including.
	MinExcerptChars int
}

// CacheSettings configures the response cache.
type CacheSettings struct {
	Enabled  bool
	TTL      time.Duration
	Capacity int
}

// IndexerSettings configures index maintenance.
type IndexerSettings struct {
	// Workers bounds concurrent embedding calls during a build.
	Workers int

	// RebuildInterval schedules periodic full rebuilds. Zero disables.
	RebuildInterval time.Duration

	// StopWords enables English stop-word filtering.
	StopWords bool

	// EmbedMaxChars truncates text sent to the embedding model.
	EmbedMaxChars int
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Timeout bounds a single embedding call.
	Timeout time.Duration
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == AIProviderAnthropic {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string

	// Timeout bounds a single generation.
	Timeout time.Duration

	// MaxTokens and Temperature are passed to every generation.
	MaxTokens   int
	Temperature float64

	// RequestsPerMinute throttles outgoing model calls. Zero disables.
	RequestsPerMinute int
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// StorageDriver selects the document store backend.
type StorageDriver string

// Available storage drivers.
const (
	StorageSQLite StorageDriver = "sqlite"
	StorageMongo  StorageDriver = "mongo"
	StorageMemory StorageDriver = "memory"
)

// IsValid returns true if the driver is recognised.
func (d StorageDriver) IsValid() bool {
	switch d {
	case StorageSQLite, StorageMongo, StorageMemory:
		return true
	default:
		return false
	}
}

// StorageSettings configures the document store.
type StorageSettings struct {
	Driver        StorageDriver
	DataDir       string
	MongoURI      string
	MongoDatabase string
}

// ServerSettings configures the HTTP API.
type ServerSettings struct {
	// Addr is the listen address.
	Addr string

	// AdminKey guards the admin endpoints. Empty disables them.
	AdminKey string

	// RateLimit is the number of chat requests allowed per client per RateWindow.
	RateLimit  int
	RateWindow time.Duration

	// ImportDir is watched for new corpus files. Empty disables the watcher.
	ImportDir string
}

// KafkaSettings configures the document change consumer.
type KafkaSettings struct {
	Brokers []string
	Topic   string
	GroupID string
}

// Enabled returns true if a consumer should be started.
func (k KafkaSettings) Enabled() bool {
	return len(k.Brokers) > 0 && k.Topic != ""
}

// AppSettings holds all application settings.
type AppSettings struct {
	Search    SearchSettings
	Context   ContextSettings
	Cache     CacheSettings
	Indexer   IndexerSettings
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Storage   StorageSettings
	Server    ServerSettings
	Kafka     KafkaSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// AI providers are left unconfigured; search then runs lexical-only
// and chat returns sources without a narrative.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Search: SearchSettings{
			Mode:           SearchModeHybrid,
			LexicalWeight:  0.5,
			SemanticWeight: 0.5,
			MinSimilarity:  0.25,
			DefaultLimit:   10,
			MaxLimit:       MaxSearchLimit,
			SnippetChars:   200,
		},
		Context: ContextSettings{
			MaxChars:        8000, // 2000 tokens at ~4 chars per token
			PerDocChars:     2400,
			MinExcerptChars: 200,
		},
		Cache: CacheSettings{
			Enabled:  true,
			TTL:      time.Hour,
			Capacity: 1000,
		},
		Indexer: IndexerSettings{
			Workers:         4,
			RebuildInterval: 6 * time.Hour,
			StopWords:       true,
			EmbedMaxChars:   384 * 4,
		},
		Embedding: EmbeddingSettings{
			Timeout: 10 * time.Second,
		},
		LLM: LLMSettings{
			Timeout:     30 * time.Second,
			MaxTokens:   500,
			Temperature: 0.3,
		},
		Storage: StorageSettings{
			Driver:        StorageSQLite,
			MongoDatabase: "kiit_chatbot",
		},
		Server: ServerSettings{
			Addr:       ":8080",
			RateLimit:  100,
			RateWindow: time.Minute,
		},
		Kafka: KafkaSettings{
			GroupID: "kiitbot-indexer",
		},
	}
}
