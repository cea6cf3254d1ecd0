package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/ports/driven"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptFileName is the prompt override file inside the config directory.
const PromptFileName = "prompts.toml"

// PromptStore loads LLM prompts from a user-editable TOML file.
// Each top-level key is a prompt name; missing keys fall back to the
// built-in defaults.
//
// The store uses lazy initialisation - the file is only created when first
// accessed, not in the constructor.
type PromptStore struct {
	mu       sync.RWMutex
	path     string
	cache    map[string]string
	loaded   bool
	initOnce sync.Once
	initErr  error
}

// defaultPrompts contains the built-in prompts and the initial file content.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptAnswerSystem: `You are the KIIT University information assistant. Answer questions about notices, exams, holidays, the academic calendar and courses.

Rules:
1. Use ONLY the numbered sources provided in the context.
2. Cite every fact with the source number in square brackets, for example [1] or [2].
3. Never cite a number that is not in the context and never invent URLs.
4. Prefer the most recently published source when sources disagree.
5. If the context does not answer the question, say so briefly.
6. Keep answers short and factual.`,

	driven.PromptAnswerUser: `Context:
%s

Question: %s

Answer with citations:`,
}

// DefaultPrompt returns the built-in prompt for name.
func DefaultPrompt(name string) (string, bool) {
	p, ok := defaultPrompts[name]
	return p, ok
}

// NewPromptStore creates a new file-based prompt store.
// If configDir is empty, defaults to ~/.kiitbot.
//
// The constructor does not perform any I/O.
func NewPromptStore(configDir string) (*PromptStore, error) {
	if configDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		configDir = dir
	}

	return &PromptStore{
		path:  filepath.Join(configDir, PromptFileName),
		cache: make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name.
// On first call, writes the default prompt file if none exists.
// Falls back to the built-in default if the file lacks the prompt.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)

	if s.initErr == nil {
		if err := s.ensureLoaded(); err != nil {
			if prompt, ok := defaultPrompts[name]; ok {
				return prompt, nil
			}
			return "", fmt.Errorf("load prompt %q: %w", name, err)
		}

		s.mu.RLock()
		prompt, ok := s.cache[name]
		s.mu.RUnlock()
		if ok && prompt != "" {
			return prompt, nil
		}
	}

	if prompt, ok := defaultPrompts[name]; ok {
		return prompt, nil
	}
	if s.initErr != nil {
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}
	return "", fmt.Errorf("unknown prompt %q", name)
}

// Reload clears the prompt cache, forcing a fresh read of the file.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.loaded = false
	s.mu.Unlock()
}

// Path returns the prompt file path.
func (s *PromptStore) Path() string {
	return s.path
}

func (s *PromptStore) ensureLoaded() error {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if loaded {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	var prompts map[string]string
	if err := toml.Unmarshal(data, &prompts); err != nil {
		return fmt.Errorf("parse %s: %w", s.path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]string, len(prompts))
	for name, p := range prompts {
		s.cache[name] = strings.TrimSpace(p)
	}
	s.loaded = true
	return nil
}

// initialise creates the config directory and the default prompt file.
func (s *PromptStore) initialise() {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}
	if _, err := os.Stat(s.path); !os.IsNotExist(err) {
		return
	}
	data, err := toml.Marshal(defaultPrompts)
	if err != nil {
		s.initErr = fmt.Errorf("encode default prompts: %w", err)
		return
	}
	header := "# kiitbot prompt overrides. answer_user takes two %s placeholders:\n" +
		"# the numbered context, then the question.\n\n"
	if err := os.WriteFile(s.path, append([]byte(header), data...), 0600); err != nil {
		s.initErr = fmt.Errorf("create default prompts: %w", err)
	}
}
