// Package notifier provides notification gateway implementations. The
// engine treats every implementation as fire-and-forget: a failed
// delivery is logged and counted by the caller, never propagated as a
// task-operation failure.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/hotelops/taskrouter/internal/domain"
)

// OutboxKey is the Redis list holding pending notification envelopes.
// A delivery worker consumes the list and retries independently of the
// task mutations that produced the events.
const OutboxKey = "taskrouter:notifications:outbox"

// RedisNotifier publishes events onto a Redis list outbox.
type RedisNotifier struct {
	rdb *redis.Client
}

// NewRedisNotifier creates a notifier publishing to the given client.
func NewRedisNotifier(rdb *redis.Client) *RedisNotifier {
	return &RedisNotifier{rdb: rdb}
}

// Notify serializes the event and pushes it to the outbox list. RPUSH
// keeps FIFO order for the consuming worker.
func (n *RedisNotifier) Notify(ctx context.Context, event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := n.rdb.RPush(ctx, OutboxKey, payload).Err(); err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}
	return nil
}
