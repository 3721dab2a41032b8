package counter

import (
	"context"
	"fmt"

	"github.com/kumoha/webhook-gateway/internal/pkg/cache"
)

const (
	receivedKey = "webhook:counters:received"
	failedKey   = "webhook:counters:failed"
	sentKey     = "notification:counters:sent"
)

// AddReceived increments the pending delivery counter for a provider event
// type in Redis. Best-effort: callers log the error and move on, a missing
// cache must never block ingestion.
func AddReceived(provider, eventType string) error {
	ctx := context.Background()
	return cache.GetClient().HIncrBy(ctx, receivedKey, field(provider, eventType), 1).Err()
}

// AddFailed increments the failed-handler counter for a provider event type.
func AddFailed(provider, eventType string) error {
	ctx := context.Background()
	return cache.GetClient().HIncrBy(ctx, failedKey, field(provider, eventType), 1).Err()
}

// AddSent increments the outbound notification counter per targeting type.
func AddSent(targetType string, recipients int) error {
	ctx := context.Background()
	return cache.GetClient().HIncrBy(ctx, sentKey, targetType, int64(recipients)).Err()
}

// Snapshot reads all counters. Keys are "provider:event.type" for deliveries
// and the targeting type for sends.
func Snapshot() (map[string]map[string]string, error) {
	ctx := context.Background()
	rdb := cache.GetClient()

	out := make(map[string]map[string]string, 3)
	for name, key := range map[string]string{
		"received": receivedKey,
		"failed":   failedKey,
		"sent":     sentKey,
	} {
		data, err := rdb.HGetAll(ctx, key).Result()
		if err != nil {
			return nil, err
		}
		out[name] = data
	}
	return out, nil
}

func field(provider, eventType string) string {
	return fmt.Sprintf("%s:%s", provider, eventType)
}
