package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"slack-gpt-sessions/internal/domain"
	"slack-gpt-sessions/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.AIServiceAdapter = (*OpenAIAdapter)(nil)

// OpenAIAdapter implements adapter.AIServiceAdapter using the Chat Completions API.
type OpenAIAdapter struct {
	client  *openai.Client
	params  adapter.CompletionParams
	counter *TokenCounter
}

// NewOpenAIAdapter builds the client. An empty baseURL keeps the public endpoint;
// a non-nil httpClient replaces the default transport.
func NewOpenAIAdapter(apiKey, baseURL string, params adapter.CompletionParams, httpClient *http.Client) (*OpenAIAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key empty")
	}
	if params.Model == "" {
		params.Model = openai.GPT3Dot5Turbo
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	return &OpenAIAdapter{
		client:  openai.NewClientWithConfig(cfg),
		params:  params,
		counter: NewTokenCounter(params.Model),
	}, nil
}

func (o *OpenAIAdapter) Name() string  { return "openai" }
func (o *OpenAIAdapter) Model() string { return o.params.Model }

func (o *OpenAIAdapter) CountTokens(ctx context.Context, messages []adapter.Message) (int, error) {
	return o.counter.Count(messages), nil
}

func (o *OpenAIAdapter) ChatWithUsage(ctx context.Context, messages []adapter.Message) (string, adapter.Usage, error) {
	req := openai.ChatCompletionRequest{
		Model:            o.params.Model,
		Messages:         toOpenAIMessages(messages),
		MaxTokens:        o.params.MaxTokens,
		Temperature:      o.params.Temperature,
		TopP:             o.params.TopP,
		FrequencyPenalty: o.params.FrequencyPenalty,
	}
	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", adapter.Usage{}, classifyOpenAIError(err)
	}

	u := adapter.Usage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	for _, c := range resp.Choices {
		if c.Message.Content != "" {
			return c.Message.Content, u, nil
		}
	}
	return "", u, fmt.Errorf("openai: no choice content: %w", domain.ErrContent)
}

func toOpenAIMessages(msgs []adapter.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		role := openai.ChatMessageRoleUser
		switch strings.ToLower(m.Role) {
		case "assistant":
			role = openai.ChatMessageRoleAssistant
		case "system":
			role = openai.ChatMessageRoleSystem
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return out
}

// classifyOpenAIError maps client errors onto transport, upstream and content failures.
func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &domain.UpstreamError{Provider: "openai", StatusCode: apiErr.HTTPStatusCode, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &domain.UpstreamError{Provider: "openai", StatusCode: reqErr.HTTPStatusCode, Err: err}
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("openai: malformed response: %v: %w", err, domain.ErrContent)
	}
	return fmt.Errorf("openai: %v: %w", err, domain.ErrTransport)
}
