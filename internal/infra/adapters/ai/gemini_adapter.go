// File: internal/infra/adapters/ai/gemini_adapter.go
package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"google.golang.org/genai"

	"slack-gpt-sessions/internal/domain"
	"slack-gpt-sessions/internal/domain/ports/adapter"
)

var _ adapter.AIServiceAdapter = (*GeminiAdapter)(nil)

type GeminiAdapter struct {
	client *genai.Client
	params adapter.CompletionParams
}

// NewGeminiAdapter creates a Gemini adapter using the official SDK.
func NewGeminiAdapter(ctx context.Context, apiKey, baseURL string, params adapter.CompletionParams) (*GeminiAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	if params.Model == "" {
		params.Model = "gemini-2.0-flash"
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: baseURL,
		},
	})
	if err != nil {
		return nil, err
	}
	return &GeminiAdapter{client: c, params: params}, nil
}

func (g *GeminiAdapter) Name() string  { return "gemini" }
func (g *GeminiAdapter) Model() string { return g.params.Model }

func (g *GeminiAdapter) CountTokens(ctx context.Context, messages []adapter.Message) (int, error) {
	resp, err := g.client.Models.CountTokens(ctx, g.params.Model, toGenAIHistory(messages), nil)
	if err != nil {
		return 0, classifyGeminiError(err)
	}
	return int(resp.TotalTokens), nil
}

func (g *GeminiAdapter) ChatWithUsage(ctx context.Context, messages []adapter.Message) (string, adapter.Usage, error) {
	if len(messages) == 0 {
		return "", adapter.Usage{}, fmt.Errorf("gemini: no messages: %w", domain.ErrInvalidArgument)
	}
	last := messages[len(messages)-1]
	if strings.ToLower(last.Role) != "user" {
		return "", adapter.Usage{}, fmt.Errorf("gemini: last message must be from user: %w", domain.ErrInvalidArgument)
	}

	temperature, topP, penalty := g.params.Temperature, g.params.TopP, g.params.FrequencyPenalty
	chat, err := g.client.Chats.Create(
		ctx,
		g.params.Model,
		&genai.GenerateContentConfig{
			MaxOutputTokens:  int32(g.params.MaxTokens),
			Temperature:      &temperature,
			TopP:             &topP,
			FrequencyPenalty: &penalty,
		},
		toGenAIHistory(messages[:len(messages)-1]),
	)
	if err != nil {
		return "", adapter.Usage{}, classifyGeminiError(err)
	}

	resp, err := chat.SendMessage(ctx, genai.Part{Text: last.Content})
	if err != nil {
		return "", adapter.Usage{}, classifyGeminiError(err)
	}

	u := adapter.Usage{}
	if resp != nil && resp.UsageMetadata != nil {
		u.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		u.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		u.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", u, fmt.Errorf("gemini: empty candidate: %w", domain.ErrContent)
	}
	text := resp.Candidates[0].Content.Parts[0].Text
	if text == "" {
		return "", u, fmt.Errorf("gemini: empty candidate text: %w", domain.ErrContent)
	}
	return text, u, nil
}

func toGenAIHistory(msgs []adapter.Message) []*genai.Content {
	out := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		role := genai.RoleUser
		if strings.EqualFold(m.Role, "assistant") || strings.EqualFold(m.Role, "model") {
			role = genai.RoleModel
		}
		out = append(out, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: m.Content}},
		})
	}
	return out
}

// classifyGeminiError treats network and context failures as transport and
// everything else the SDK returns as an upstream rejection.
func classifyGeminiError(err error) error {
	var netErr net.Error
	var urlErr *url.Error
	if errors.As(err, &netErr) || errors.As(err, &urlErr) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("gemini: %v: %w", err, domain.ErrTransport)
	}
	return &domain.UpstreamError{Provider: "gemini", Err: err}
}
