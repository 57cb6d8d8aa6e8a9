// Package dedup holds the in-process event de-duplication window used when
// no Redis is configured.
package dedup

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"slack-gpt-sessions/internal/infra/metrics"
)

type Memory struct {
	c *gocache.Cache
}

func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Memory{c: gocache.New(ttl, 2*ttl)}
}

// Seen records key and reports whether it was already present and unexpired.
func (m *Memory) Seen(_ context.Context, key string) (bool, error) {
	if err := m.c.Add(key, struct{}{}, gocache.DefaultExpiration); err != nil {
		metrics.IncCacheRequest("memory", "hit")
		return true, nil
	}
	metrics.IncCacheRequest("memory", "miss")
	return false, nil
}
