package throttle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/domain"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/ports/driven"
)

type countingLLM struct {
	calls int
}

func (c *countingLLM) Generate(context.Context, string, driven.GenerateOptions) (string, error) {
	c.calls++
	return "ok", nil
}

func (c *countingLLM) Chat(context.Context, []driven.ChatMessage, driven.ChatOptions) (string, error) {
	c.calls++
	return "ok", nil
}

func (c *countingLLM) ModelName() string { return "counting" }
func (c *countingLLM) Ping(context.Context) error { return nil }
func (c *countingLLM) Close() error { return nil }

func TestWrap_Disabled(t *testing.T) {
	inner := &countingLLM{}
	assert.Same(t, driven.LLMService(inner), Wrap(inner, 0))
	assert.Nil(t, Wrap(nil, 10))
}

func TestWrap_AllowsBurstThenRejects(t *testing.T) {
	inner := &countingLLM{}
	svc := Wrap(inner, 2)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := svc.Chat(ctx, nil, driven.ChatOptions{})
		require.NoError(t, err)
	}

	// The next token is 30s away; a short deadline cannot wait for it.
	short, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	_, err := svc.Generate(short, "q", driven.GenerateOptions{})
	assert.ErrorIs(t, err, domain.ErrQuotaExceeded)
	assert.True(t, domain.IsModelFailure(err))
	assert.Equal(t, 2, inner.calls)
}

func TestWrap_Delegates(t *testing.T) {
	inner := &countingLLM{}
	svc := Wrap(inner, 60)

	assert.Equal(t, "counting", svc.ModelName())
	assert.NoError(t, svc.Ping(context.Background()))
	assert.NoError(t, svc.Close())
}
