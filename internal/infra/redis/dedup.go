package redis

import (
	"context"
	"time"

	"slack-gpt-sessions/internal/infra/metrics"
)

const dedupPrefix = "slack_event:"

// EventDeduper remembers Slack event keys for a window so redeliveries are dropped.
type EventDeduper struct {
	client RedisClient
	ttl    time.Duration
}

func NewEventDeduper(client RedisClient, ttl time.Duration) *EventDeduper {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &EventDeduper{client: client, ttl: ttl}
}

// Seen claims key with SET NX; a failed claim means another delivery got there first.
func (d *EventDeduper) Seen(ctx context.Context, key string) (bool, error) {
	claimed, err := d.client.SetNX(ctx, dedupPrefix+key, 1, d.ttl)
	if err != nil {
		metrics.IncCacheRequest("redis", "error")
		return false, err
	}
	if claimed {
		metrics.IncCacheRequest("redis", "miss")
		return false, nil
	}
	metrics.IncCacheRequest("redis", "hit")
	return true, nil
}
