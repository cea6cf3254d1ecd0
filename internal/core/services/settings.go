package services

import (
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/domain"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/ports/driven"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keySearchMode     = "search.mode"
	keyLexicalWeight  = "search.lexical_weight"
	keySemanticWeight = "search.semantic_weight"
	keyMinSimilarity  = "search.min_similarity"
	keyDefaultLimit   = "search.default_limit"
	keyMaxLimit       = "search.max_limit"
	keySnippetChars   = "search.snippet_chars"

	keyContextMaxChars   = "context.max_chars"
	keyContextPerDoc     = "context.per_doc_chars"
	keyContextMinExcerpt = "context.min_excerpt_chars"

	keyCacheEnabled  = "cache.enabled"
	keyCacheTTL      = "cache.ttl"
	keyCacheCapacity = "cache.capacity"

	keyIndexerWorkers   = "indexer.workers"
	keyRebuildInterval  = "indexer.rebuild_interval"
	keyStopWords        = "indexer.stop_words"
	keyEmbedMaxChars    = "embedding.max_chars"
	keyEmbedProvider    = "embedding.provider"
	keyEmbedModel       = "embedding.model"
	keyEmbedBaseURL     = "embedding.base_url"
	keyEmbedAPIKey      = "embedding.api_key"
	keyEmbedTimeout     = "embedding.timeout"
	keyLLMProvider      = "llm.provider"
	keyLLMModel         = "llm.model"
	keyLLMBaseURL       = "llm.base_url"
	keyLLMAPIKey        = "llm.api_key"
	keyLLMTimeout       = "llm.timeout"
	keyLLMMaxTokens     = "llm.max_tokens"
	keyLLMTemperature   = "llm.temperature"
	keyLLMRequestsPerMn = "llm.requests_per_minute"

	keyStorageDriver = "storage.driver"
	keyStorageDir    = "storage.data_dir"
	keyMongoURI      = "storage.mongo_uri"
	keyMongoDatabase = "storage.mongo_database"

	keyServerAddr    = "server.addr"
	keyAdminKey      = "server.admin_key"
	keyRateLimit     = "server.rate_limit"
	keyRateWindow    = "server.rate_window"
	keyImportDir     = "server.import_dir"
	keyKafkaBrokers  = "kafka.brokers"
	keyKafkaTopic    = "kafka.topic"
	keyKafkaGroupID  = "kafka.group_id"
	defaultOllamaURL = "http://localhost:11434"
)

// Environment variables that override file values.
const (
	EnvOpenAIKey    = "OPENAI_API_KEY"
	EnvAnthropicKey = "ANTHROPIC_API_KEY"
	EnvAdminKey     = "KIITBOT_ADMIN_KEY"
	EnvMongoURI     = "MONGODB_URI"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		getenv:      os.Getenv,
	}
}

// Get retrieves current application settings. Missing or invalid values
// take their defaults and environment variables override the file.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Search: domain.SearchSettings{
			Mode:           s.getSearchMode(d.Search.Mode),
			LexicalWeight:  s.getFloat(keyLexicalWeight, d.Search.LexicalWeight),
			SemanticWeight: s.getFloat(keySemanticWeight, d.Search.SemanticWeight),
			MinSimilarity:  s.getFloat(keyMinSimilarity, d.Search.MinSimilarity),
			DefaultLimit:   s.getInt(keyDefaultLimit, d.Search.DefaultLimit),
			MaxLimit:       min(s.getInt(keyMaxLimit, d.Search.MaxLimit), domain.MaxSearchLimit),
			SnippetChars:   s.getInt(keySnippetChars, d.Search.SnippetChars),
		},
		Context: domain.ContextSettings{
			MaxChars:        s.getInt(keyContextMaxChars, d.Context.MaxChars),
			PerDocChars:     s.getInt(keyContextPerDoc, d.Context.PerDocChars),
			MinExcerptChars: s.getInt(keyContextMinExcerpt, d.Context.MinExcerptChars),
		},
		Cache: domain.CacheSettings{
			Enabled:  s.getBool(keyCacheEnabled, d.Cache.Enabled),
			TTL:      s.getDuration(keyCacheTTL, d.Cache.TTL),
			Capacity: s.getInt(keyCacheCapacity, d.Cache.Capacity),
		},
		Indexer: domain.IndexerSettings{
			Workers:         s.getInt(keyIndexerWorkers, d.Indexer.Workers),
			RebuildInterval: s.getDuration(keyRebuildInterval, d.Indexer.RebuildInterval),
			StopWords:       s.getBool(keyStopWords, d.Indexer.StopWords),
			EmbedMaxChars:   s.getInt(keyEmbedMaxChars, d.Indexer.EmbedMaxChars),
		},
		Embedding: domain.EmbeddingSettings{
			Provider: s.getProvider(keyEmbedProvider, d.Embedding.Provider),
			Model:    s.getString(keyEmbedModel, d.Embedding.Model),
			BaseURL:  s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:   s.configStore.GetString(keyEmbedAPIKey),
			Timeout:  s.getDuration(keyEmbedTimeout, d.Embedding.Timeout),
		},
		LLM: domain.LLMSettings{
			Provider:          s.getProvider(keyLLMProvider, d.LLM.Provider),
			Model:             s.getString(keyLLMModel, d.LLM.Model),
			BaseURL:           s.configStore.GetString(keyLLMBaseURL),
			APIKey:            s.configStore.GetString(keyLLMAPIKey),
			Timeout:           s.getDuration(keyLLMTimeout, d.LLM.Timeout),
			MaxTokens:         s.getInt(keyLLMMaxTokens, d.LLM.MaxTokens),
			Temperature:       s.getFloat(keyLLMTemperature, d.LLM.Temperature),
			RequestsPerMinute: s.getInt(keyLLMRequestsPerMn, d.LLM.RequestsPerMinute),
		},
		Storage: domain.StorageSettings{
			Driver:        s.getStorageDriver(d.Storage.Driver),
			DataDir:       s.configStore.GetString(keyStorageDir),
			MongoURI:      s.configStore.GetString(keyMongoURI),
			MongoDatabase: s.getString(keyMongoDatabase, d.Storage.MongoDatabase),
		},
		Server: domain.ServerSettings{
			Addr:       s.getString(keyServerAddr, d.Server.Addr),
			AdminKey:   s.configStore.GetString(keyAdminKey),
			RateLimit:  s.getInt(keyRateLimit, d.Server.RateLimit),
			RateWindow: s.getDuration(keyRateWindow, d.Server.RateWindow),
			ImportDir:  s.configStore.GetString(keyImportDir),
		},
		Kafka: domain.KafkaSettings{
			Brokers: s.configStore.GetStringSlice(keyKafkaBrokers),
			Topic:   s.configStore.GetString(keyKafkaTopic),
			GroupID: s.getString(keyKafkaGroupID, d.Kafka.GroupID),
		},
	}

	s.applyEnv(settings)
	return settings, nil
}

// applyEnv overrides secrets from the environment. Provider keys only
// apply to the provider they belong to.
func (s *SettingsService) applyEnv(settings *domain.AppSettings) {
	if key := s.envKey(settings.Embedding.Provider); key != "" {
		settings.Embedding.APIKey = key
	}
	if key := s.envKey(settings.LLM.Provider); key != "" {
		settings.LLM.APIKey = key
	}
	if v := s.getenv(EnvAdminKey); v != "" {
		settings.Server.AdminKey = v
	}
	if v := s.getenv(EnvMongoURI); v != "" {
		settings.Storage.MongoURI = v
	}
}

func (s *SettingsService) envKey(provider domain.AIProvider) string {
	switch provider {
	case domain.AIProviderOpenAI:
		return s.getenv(EnvOpenAIKey)
	case domain.AIProviderAnthropic:
		return s.getenv(EnvAnthropicKey)
	default:
		return ""
	}
}

// Save persists application settings. Secrets supplied by the
// environment are not written to the file.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keySearchMode, settings.Search.Mode.String()},
		{keyLexicalWeight, settings.Search.LexicalWeight},
		{keySemanticWeight, settings.Search.SemanticWeight},
		{keyMinSimilarity, settings.Search.MinSimilarity},
		{keyDefaultLimit, settings.Search.DefaultLimit},
		{keyMaxLimit, settings.Search.MaxLimit},
		{keySnippetChars, settings.Search.SnippetChars},
		{keyContextMaxChars, settings.Context.MaxChars},
		{keyContextPerDoc, settings.Context.PerDocChars},
		{keyContextMinExcerpt, settings.Context.MinExcerptChars},
		{keyCacheEnabled, settings.Cache.Enabled},
		{keyCacheTTL, settings.Cache.TTL.String()},
		{keyCacheCapacity, settings.Cache.Capacity},
		{keyIndexerWorkers, settings.Indexer.Workers},
		{keyRebuildInterval, settings.Indexer.RebuildInterval.String()},
		{keyStopWords, settings.Indexer.StopWords},
		{keyEmbedMaxChars, settings.Indexer.EmbedMaxChars},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedTimeout, settings.Embedding.Timeout.String()},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMTimeout, settings.LLM.Timeout.String()},
		{keyLLMMaxTokens, settings.LLM.MaxTokens},
		{keyLLMTemperature, settings.LLM.Temperature},
		{keyLLMRequestsPerMn, settings.LLM.RequestsPerMinute},
		{keyStorageDriver, string(settings.Storage.Driver)},
		{keyStorageDir, settings.Storage.DataDir},
		{keyMongoDatabase, settings.Storage.MongoDatabase},
		{keyServerAddr, settings.Server.Addr},
		{keyRateLimit, settings.Server.RateLimit},
		{keyRateWindow, settings.Server.RateWindow.String()},
		{keyImportDir, settings.Server.ImportDir},
		{keyKafkaTopic, settings.Kafka.Topic},
		{keyKafkaGroupID, settings.Kafka.GroupID},
	}
	if len(settings.Kafka.Brokers) > 0 {
		values = append(values, struct {
			key   string
			value any
		}{keyKafkaBrokers, settings.Kafka.Brokers})
	}

	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	secrets := []struct {
		key, value, env string
	}{
		{keyEmbedAPIKey, settings.Embedding.APIKey, s.envKey(settings.Embedding.Provider)},
		{keyLLMAPIKey, settings.LLM.APIKey, s.envKey(settings.LLM.Provider)},
		{keyAdminKey, settings.Server.AdminKey, s.getenv(EnvAdminKey)},
		{keyMongoURI, settings.Storage.MongoURI, s.getenv(EnvMongoURI)},
	}
	for _, sec := range secrets {
		if sec.value == "" || sec.value == sec.env {
			continue
		}
		if err := s.configStore.Set(sec.key, sec.value); err != nil {
			return fmt.Errorf("save %s: %w", sec.key, err)
		}
	}

	return nil
}

// SetSearchMode updates the search mode.
func (s *SettingsService) SetSearchMode(mode domain.SearchMode) error {
	if !mode.IsValid() {
		return fmt.Errorf("%w: invalid search mode: %s", domain.ErrInvalidInput, mode)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.Search.Mode = mode
	return s.Save(settings)
}

// SetHybridWeights updates the lexical and semantic weights. They are
// stored as given and normalised when used.
func (s *SettingsService) SetHybridWeights(lexical, semantic float64) error {
	if lexical < 0 || semantic < 0 {
		return fmt.Errorf("%w: weights must not be negative", domain.ErrInvalidInput)
	}
	if lexical+semantic == 0 {
		return fmt.Errorf("%w: at least one weight must be positive", domain.ErrInvalidInput)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.Search.LexicalWeight = lexical
	settings.Search.SemanticWeight = semantic
	return s.Save(settings)
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !slices.Contains(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("%w: provider %s does not support embeddings", domain.ErrInvalidInput, provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" && s.envKey(provider) == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = modelOrDefault(model, domain.DefaultEmbeddingModels()[provider])
	settings.Embedding.BaseURL = baseURLFor(provider, settings.Embedding.BaseURL)
	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid LLM provider: %s", domain.ErrInvalidInput, provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" && s.envKey(provider) == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = modelOrDefault(model, domain.DefaultLLMModels()[provider])
	settings.LLM.BaseURL = baseURLFor(provider, settings.LLM.BaseURL)
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// Validate checks that the settings are internally consistent.
// An unconfigured embedding provider is not an error: search then
// degrades to lexical.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	search := settings.Search
	ctx := settings.Context
	switch {
	case !search.Mode.IsValid():
		return fmt.Errorf("%w: invalid search mode: %s", domain.ErrInvalidInput, search.Mode)
	case search.LexicalWeight < 0 || search.SemanticWeight < 0:
		return fmt.Errorf("%w: hybrid weights must not be negative", domain.ErrInvalidInput)
	case search.MinSimilarity < 0 || search.MinSimilarity > 1:
		return fmt.Errorf("%w: %s must be between 0 and 1", domain.ErrInvalidInput, keyMinSimilarity)
	case search.DefaultLimit <= 0 || search.DefaultLimit > search.MaxLimit:
		return fmt.Errorf("%w: %s must be between 1 and %d", domain.ErrInvalidInput, keyDefaultLimit, search.MaxLimit)
	case ctx.MaxChars <= 0:
		return fmt.Errorf("%w: %s must be positive", domain.ErrInvalidInput, keyContextMaxChars)
	case ctx.MinExcerptChars > ctx.PerDocChars:
		return fmt.Errorf("%w: %s exceeds %s", domain.ErrInvalidInput, keyContextMinExcerpt, keyContextPerDoc)
	case !settings.Storage.Driver.IsValid():
		return fmt.Errorf("%w: invalid storage driver: %s", domain.ErrInvalidInput, settings.Storage.Driver)
	case settings.Storage.Driver == domain.StorageMongo && settings.Storage.MongoURI == "":
		return fmt.Errorf("%w: storage driver mongo requires %s or %s", domain.ErrInvalidInput, keyMongoURI, EnvMongoURI)
	case settings.Embedding.Provider != "" && !settings.Embedding.IsConfigured():
		return fmt.Errorf("%w: embedding provider %s is incomplete", domain.ErrInvalidInput, settings.Embedding.Provider)
	case settings.LLM.Provider != "" && !settings.LLM.IsConfigured():
		return fmt.Errorf("%w: LLM provider %s is incomplete", domain.ErrInvalidInput, settings.LLM.Provider)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

func modelOrDefault(model, fallback string) string {
	if model != "" {
		return model
	}
	return fallback
}

// baseURLFor keeps a custom Ollama URL and clears it for cloud providers.
func baseURLFor(provider domain.AIProvider, current string) string {
	if provider != domain.AIProviderOllama {
		return ""
	}
	if current == "" {
		return defaultOllamaURL
	}
	return current
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	raw := s.configStore.GetString(key)
	if raw == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return defaultVal
	}
	return d
}

func (s *SettingsService) getSearchMode(defaultVal domain.SearchMode) domain.SearchMode {
	mode := domain.SearchMode(s.configStore.GetString(keySearchMode))
	if !mode.IsValid() {
		return defaultVal
	}
	return mode
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	provider := domain.AIProvider(s.configStore.GetString(key))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getStorageDriver(defaultVal domain.StorageDriver) domain.StorageDriver {
	driver := domain.StorageDriver(s.configStore.GetString(keyStorageDriver))
	if !driver.IsValid() {
		return defaultVal
	}
	return driver
}
