// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem.
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage (~/.kiitbot/config.toml)
//   - PromptStore: TOML prompt overrides (~/.kiitbot/prompts.toml)
//   - LoadDotEnv: .env loading for API keys and connection strings
package file
