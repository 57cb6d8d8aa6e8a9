package ai

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"slack-gpt-sessions/internal/domain"
	"slack-gpt-sessions/internal/domain/ports/adapter"
	"slack-gpt-sessions/internal/infra/logging"
	"slack-gpt-sessions/internal/infra/metrics"
)

var _ adapter.AIServiceAdapter = (*observedAI)(nil)

type observedAI struct {
	inner   adapter.AIServiceAdapter
	timeout time.Duration
	log     *zerolog.Logger
}

// NewObservedAI bounds each completion call by timeout and records latency,
// token usage and failure kinds.
func NewObservedAI(inner adapter.AIServiceAdapter, timeout time.Duration, logger *zerolog.Logger) adapter.AIServiceAdapter {
	l := logger.With().Str("component", "ai").Str("provider", inner.Name()).Logger()
	return &observedAI{inner: inner, timeout: timeout, log: &l}
}

func (o *observedAI) Name() string  { return o.inner.Name() }
func (o *observedAI) Model() string { return o.inner.Model() }

func (o *observedAI) CountTokens(ctx context.Context, messages []adapter.Message) (int, error) {
	return o.inner.CountTokens(ctx, messages)
}

func (o *observedAI) ChatWithUsage(ctx context.Context, messages []adapter.Message) (string, adapter.Usage, error) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}
	start := time.Now()
	reply, u, err := o.inner.ChatWithUsage(ctx, messages)
	latency := time.Since(start).Milliseconds()

	metrics.ObserveChatUsage(o.inner.Name(), o.inner.Model(), u.PromptTokens, u.CompletionTokens, u.TotalTokens, latency, err == nil)
	if err != nil {
		kind := domain.ErrorKind(err)
		metrics.IncAICallError(o.inner.Name(), kind)
		logging.With(ctx, o.log).Warn().Err(err).Str("kind", kind).Int64("latency_ms", latency).Msg("completion failed")
		return "", u, err
	}
	logging.With(ctx, o.log).Debug().Int("tokens", u.TotalTokens).Int64("latency_ms", latency).Msg("completion ok")
	return reply, u, nil
}
