// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - DocumentStore: Versioned document persistence (SQLite, MongoDB, memory)
//   - ConfigStore: Application configuration
//   - Cache: Response cache shared by concurrent requests
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EmbeddingService: Generates vector embeddings. Without it, search is lexical-only.
//   - LLMService: Language model. Without it, chat returns sources without a narrative.
//   - PromptStore: Prompt overrides. Without it, built-in prompts are used.
//   - Normaliser: Text cleaning on ingest. Without it, bodies are stored as given.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
