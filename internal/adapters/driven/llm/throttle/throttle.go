// Package throttle limits the rate of outgoing LLM calls so a burst of
// questions cannot exhaust the provider quota.
package throttle

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/domain"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// LLMService wraps another LLMService with a token-bucket limiter.
type LLMService struct {
	inner   driven.LLMService
	limiter *rate.Limiter
}

// Wrap returns inner limited to requestsPerMinute calls, with a burst of
// the same size. A non-positive rate returns inner unchanged.
func Wrap(inner driven.LLMService, requestsPerMinute int) driven.LLMService {
	if inner == nil || requestsPerMinute <= 0 {
		return inner
	}
	every := time.Minute / time.Duration(requestsPerMinute)
	return &LLMService{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Every(every), requestsPerMinute),
	}
}

// wait blocks for a token. If the context cannot wait long enough the
// call is reported as a quota failure.
func (s *LLMService) wait(ctx context.Context) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: local LLM rate limit: %v", domain.ErrQuotaExceeded, err)
	}
	return nil
}

// Generate produces text completion from a prompt.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	if err := s.wait(ctx); err != nil {
		return "", err
	}
	return s.inner.Generate(ctx, prompt, opts)
}

// Chat conducts a multi-turn conversation.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	if err := s.wait(ctx); err != nil {
		return "", err
	}
	return s.inner.Chat(ctx, messages, opts)
}

// ModelName returns the wrapped model name.
func (s *LLMService) ModelName() string {
	return s.inner.ModelName()
}

// Ping bypasses the limiter.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

// Close closes the wrapped service.
func (s *LLMService) Close() error {
	return s.inner.Close()
}
