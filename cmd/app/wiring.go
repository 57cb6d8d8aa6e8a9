package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"slack-gpt-sessions/internal/config"
	"slack-gpt-sessions/internal/domain/ports/adapter"
	aiAdapters "slack-gpt-sessions/internal/infra/adapters/ai"
)

// newAI builds the provider client and wraps it with the concurrency limit
// and the timeout/metrics decorator.
func newAI(ctx context.Context, cfg config.AIConfig, logger *zerolog.Logger) (adapter.AIServiceAdapter, error) {
	params := completionParams(cfg)

	var (
		base adapter.AIServiceAdapter
		err  error
	)
	switch cfg.Provider {
	case "openai":
		base, err = aiAdapters.NewOpenAIAdapter(cfg.OpenAIKey, cfg.OpenAIBaseURL, params, &http.Client{})
	case "gemini":
		base, err = aiAdapters.NewGeminiAdapter(ctx, cfg.GeminiKey, cfg.GeminiURL, params)
	case "noop":
		base = aiAdapters.NewNoopAIAdapter()
	default:
		err = fmt.Errorf("unsupported ai provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("%s adapter: %w", cfg.Provider, err)
	}
	return aiAdapters.NewObservedAI(aiAdapters.NewLimitedAI(base, cfg.ConcurrentLimit), cfg.Timeout, logger), nil
}

func completionParams(cfg config.AIConfig) adapter.CompletionParams {
	temperature, topP, penalty := cfg.Sampling()
	return adapter.CompletionParams{
		Model:            cfg.Model,
		MaxTokens:        cfg.MaxTokens,
		Temperature:      temperature,
		TopP:             topP,
		FrequencyPenalty: penalty,
	}
}
