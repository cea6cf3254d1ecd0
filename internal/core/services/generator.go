package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/domain"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/ports/driven"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/logger"
)

// Ensure AnswerGenerator can use custom prompts.
var _ driven.PromptStoreAware = (*AnswerGenerator)(nil)

// Built-in prompts, used when no prompt store is set or it fails.
const (
	defaultAnswerSystemPrompt = "You answer questions about KIIT University notices and courses. " +
		"Use only the numbered sources in the context and cite each fact as [n]. " +
		"Never cite a number that is not in the context. " +
		"If the context does not answer the question, say so."

	defaultAnswerUserPrompt = "Context:\n%s\n\nQuestion: %s\n\nAnswer with citations:"
)

// citationPattern matches [1] and [1, 3] markers with any whitespace
// before them, so dropping a marker leaves no dangling space.
var citationPattern = regexp.MustCompile(`(\s*)\[(\d+(?:\s*,\s*\d+)*)\]`)

// AnswerGenerator produces cited answers from a context bundle.
type AnswerGenerator struct {
	llm         driven.LLMService
	promptStore driven.PromptStore
	timeout     time.Duration
	maxTokens   int
	temperature float64
}

// NewAnswerGenerator creates a generator. llm may be nil, in which case
// every non-empty bundle fails with domain.ErrLLMUnavailable.
func NewAnswerGenerator(llm driven.LLMService, settings domain.LLMSettings) *AnswerGenerator {
	return &AnswerGenerator{
		llm:         llm,
		timeout:     settings.Timeout,
		maxTokens:   settings.MaxTokens,
		temperature: settings.Temperature,
	}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (g *AnswerGenerator) SetPromptStore(store driven.PromptStore) {
	g.promptStore = store
}

// Generate answers query from bundle. An empty bundle yields the fixed
// insufficient-information answer without calling the model. Model
// failures are returned classified so the caller can degrade.
func (g *AnswerGenerator) Generate(ctx context.Context, query string, bundle domain.ContextBundle) (*domain.Answer, error) {
	if bundle.IsEmpty() {
		return domain.InsufficientAnswer(), nil
	}
	if g.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	messages := []driven.ChatMessage{
		{Role: "system", Content: g.loadPrompt(driven.PromptAnswerSystem, defaultAnswerSystemPrompt)},
		{Role: "user", Content: fmt.Sprintf(
			g.loadPrompt(driven.PromptAnswerUser, defaultAnswerUserPrompt), bundle.Render(), query)},
	}

	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := g.llm.Chat(callCtx, messages, driven.ChatOptions{
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	})
	if err != nil {
		return nil, classifyModelError(callCtx, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty completion", domain.ErrModelUnavailable)
	}
	logger.Debug("Model %s answered in %s", g.llm.ModelName(), time.Since(start))

	text, sources, inferred := resolveCitations(text, bundle)
	return &domain.Answer{
		Text:              text,
		Sources:           sources,
		CitationsInferred: inferred,
		Model:             g.llm.ModelName(),
	}, nil
}

func (g *AnswerGenerator) loadPrompt(name, fallback string) string {
	if g.promptStore == nil {
		return fallback
	}
	prompt, err := g.promptStore.Load(name)
	if err != nil || prompt == "" {
		logger.Warn("prompt %q unavailable, using built-in: %v", name, err)
		return fallback
	}
	return prompt
}

// classifyModelError keeps classified adapter errors and maps the rest to
// a model failure kind. A caller cancellation passes through unchanged.
func classifyModelError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		if errors.Is(err, domain.ErrModelTimeout) {
			return err
		}
		return fmt.Errorf("%w: %w", domain.ErrModelTimeout, err)
	case domain.IsModelFailure(err):
		return err
	default:
		return fmt.Errorf("%w: %w", domain.ErrModelUnavailable, err)
	}
}

// resolveCitations rewrites the model's markers against bundle. Markers
// naming no bundle item are removed. Sources follow first-citation order.
// When nothing valid was cited every bundle item becomes a source and
// inferred is true.
func resolveCitations(text string, bundle domain.ContextBundle) (string, []domain.Source, bool) {
	var sources []domain.Source
	cited := make(map[int]bool)

	text = citationPattern.ReplaceAllStringFunc(text, func(match string) string {
		parts := citationPattern.FindStringSubmatch(match)
		space, list := parts[1], parts[2]

		var kept []string
		for _, raw := range strings.Split(list, ",") {
			marker, err := strconv.Atoi(strings.TrimSpace(raw))
			if err != nil {
				continue
			}
			item, ok := bundle.Item(marker)
			if !ok {
				logger.Debug("Dropping citation [%d] not in context", marker)
				continue
			}
			kept = append(kept, strconv.Itoa(marker))
			if !cited[marker] {
				cited[marker] = true
				sources = append(sources, domain.SourceFromItem(item))
			}
		}
		if len(kept) == 0 {
			return ""
		}
		return space + "[" + strings.Join(kept, ", ") + "]"
	})
	text = strings.TrimSpace(text)

	if len(sources) == 0 {
		sources = make([]domain.Source, 0, len(bundle.Items))
		for _, item := range bundle.Items {
			sources = append(sources, domain.SourceFromItem(item))
		}
		return text, sources, true
	}
	return text, sources, false
}
