package ai_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slack-gpt-sessions/internal/config"
	"slack-gpt-sessions/internal/domain/ports/adapter"
	ai "slack-gpt-sessions/internal/infra/adapters/ai"
	"slack-gpt-sessions/internal/infra/logging"
)

type slowAI struct {
	inFlight int32
	peak     int32
	wait     time.Duration
}

func (s *slowAI) Name() string  { return "slow" }
func (s *slowAI) Model() string { return "slow-model" }
func (s *slowAI) CountTokens(ctx context.Context, m []adapter.Message) (int, error) {
	return len(m), nil
}
func (s *slowAI) ChatWithUsage(ctx context.Context, m []adapter.Message) (string, adapter.Usage, error) {
	n := atomic.AddInt32(&s.inFlight, 1)
	defer atomic.AddInt32(&s.inFlight, -1)
	for {
		p := atomic.LoadInt32(&s.peak)
		if n <= p || atomic.CompareAndSwapInt32(&s.peak, p, n) {
			break
		}
	}
	select {
	case <-time.After(s.wait):
		return "ok", adapter.Usage{TotalTokens: 1}, nil
	case <-ctx.Done():
		return "", adapter.Usage{}, ctx.Err()
	}
}

func TestLimitedAI_CapsConcurrency(t *testing.T) {
	inner := &slowAI{wait: 20 * time.Millisecond}
	l := ai.NewLimitedAI(inner, 2)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = l.ChatWithUsage(context.Background(), nil)
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, atomic.LoadInt32(&inner.peak), int32(2))
	assert.Equal(t, "slow", l.Name())
}

func TestLimitedAI_Disabled(t *testing.T) {
	inner := &slowAI{}
	assert.Same(t, adapter.AIServiceAdapter(inner), ai.NewLimitedAI(inner, 0))
}

func TestObservedAI_Timeout(t *testing.T) {
	logger := logging.New(config.LogConfig{Level: "error"}, false)
	o := ai.NewObservedAI(&slowAI{wait: time.Second}, 10*time.Millisecond, logger)
	_, _, err := o.ChatWithUsage(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestNoopAI(t *testing.T) {
	a := ai.NewNoopAIAdapter()
	reply, u, err := a.ChatWithUsage(context.Background(), []adapter.Message{{Role: "user", Content: "ping"}})
	require.NoError(t, err)
	assert.Contains(t, reply, "ping")
	assert.Greater(t, u.TotalTokens, 0)
	assert.Equal(t, u.PromptTokens+u.CompletionTokens, u.TotalTokens)
	n, err := a.CountTokens(context.Background(), []adapter.Message{{Content: "abcd"}})
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}
