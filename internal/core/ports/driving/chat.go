package driving

import (
	"context"

	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/domain"
)

// ChatService answers questions with cited sources.
type ChatService interface {
	// Ask runs retrieval, context assembly and generation for one question.
	// Model failures produce a degraded answer rather than an error.
	Ask(ctx context.Context, req domain.ChatRequest) (*domain.Answer, error)

	// Stats returns counters since process start.
	Stats() domain.ChatStats

	// InvalidateCache drops every cached answer.
	InvalidateCache(ctx context.Context) (int, error)
}
