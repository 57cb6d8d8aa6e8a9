package ai

import (
	"context"
	"fmt"
	"time"

	"slack-gpt-sessions/internal/domain/ports/adapter"
)

var _ adapter.AIServiceAdapter = (*NoopAIAdapter)(nil)

// NoopAIAdapter implements adapter.AIServiceAdapter for local/dev runs.
// It echoes the last message back instead of calling a provider.
type NoopAIAdapter struct {
	delay time.Duration
}

func NewNoopAIAdapter() *NoopAIAdapter {
	return &NoopAIAdapter{delay: 100 * time.Millisecond}
}

func (a *NoopAIAdapter) Name() string  { return "noop" }
func (a *NoopAIAdapter) Model() string { return "noop-ai-model" }

func (a *NoopAIAdapter) CountTokens(ctx context.Context, messages []adapter.Message) (int, error) {
	return countApprox(messages), nil
}

func (a *NoopAIAdapter) ChatWithUsage(ctx context.Context, messages []adapter.Message) (string, adapter.Usage, error) {
	// Simulate processing and respect ctx
	select {
	case <-time.After(a.delay):
	case <-ctx.Done():
		return "", adapter.Usage{}, ctx.Err()
	}
	last := ""
	if len(messages) > 0 {
		last = messages[len(messages)-1].Content
	}
	reply := fmt.Sprintf("noop reply to %q (%d turns of history)", last, len(messages))
	prompt := countApprox(messages)
	completion := approxTokens(reply)
	return reply, adapter.Usage{PromptTokens: prompt, CompletionTokens: completion, TotalTokens: prompt + completion}, nil
}

func countApprox(messages []adapter.Message) int {
	n := 0
	for _, m := range messages {
		n += tokensPerMessage + approxTokens(m.Content)
	}
	return n
}
