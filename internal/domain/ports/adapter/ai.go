package adapter

import "context"

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"` // "user", "assistant"
	Content string `json:"content"`
}

// Usage for a single chat call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// CompletionParams are fixed per deployment, never per call.
type CompletionParams struct {
	Model            string
	MaxTokens        int
	Temperature      float32
	TopP             float32
	FrequencyPenalty float32
}

// AIServiceAdapter is the port for LLM chat.
type AIServiceAdapter interface {
	// Name is the provider label used in logs and metrics.
	Name() string
	Model() string

	// CountTokens returns prompt tokens for the provided messages
	// (best-effort when exact counting isn't available).
	CountTokens(ctx context.Context, messages []Message) (int, error)

	// ChatWithUsage returns assistant text + usage as reported by the provider.
	// Failures wrap domain.ErrTransport, domain.ErrUpstream or domain.ErrContent.
	ChatWithUsage(ctx context.Context, messages []Message) (string, Usage, error)
}
