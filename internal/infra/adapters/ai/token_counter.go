package ai

import (
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"

	"slack-gpt-sessions/internal/domain/ports/adapter"
)

// per-message framing overhead of the chat format
const tokensPerMessage = 4

// TokenCounter estimates prompt tokens locally. The encoder is loaded lazily;
// when it is unavailable the count falls back to a four-characters-per-token guess.
type TokenCounter struct {
	model string
	once  sync.Once
	enc   *tiktoken.Tiktoken
}

func NewTokenCounter(model string) *TokenCounter {
	return &TokenCounter{model: model}
}

func (t *TokenCounter) encoder() *tiktoken.Tiktoken {
	t.once.Do(func() {
		enc, err := tiktoken.EncodingForModel(t.model)
		if err != nil {
			enc, err = tiktoken.GetEncoding("cl100k_base")
		}
		if err == nil {
			t.enc = enc
		}
	})
	return t.enc
}

func (t *TokenCounter) Count(messages []adapter.Message) int {
	enc := t.encoder()
	total := 0
	for _, m := range messages {
		total += tokensPerMessage
		if enc != nil {
			total += len(enc.Encode(m.Content, nil, nil))
		} else {
			total += approxTokens(m.Content)
		}
	}
	if len(messages) > 0 {
		total += 3 // reply priming
	}
	return total
}

func approxTokens(s string) int {
	n := len([]rune(s))
	if n == 0 {
		return 0
	}
	return (n + 3) / 4
}
