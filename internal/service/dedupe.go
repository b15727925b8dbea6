package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// deduper remembers gateway message ids so redelivered webhooks are skipped.
type deduper interface {
	// MarkSeen records key and reports whether this is its first sighting.
	MarkSeen(ctx context.Context, key string) (bool, error)
	// Forget releases key so a later redelivery is processed again.
	Forget(ctx context.Context, key string) error
}

// redisDeduper backs deduplication with SETNX and a TTL.
type redisDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

func (d *redisDeduper) MarkSeen(ctx context.Context, key string) (bool, error) {
	return d.client.SetNX(ctx, key, 1, d.ttl).Result()
}

func (d *redisDeduper) Forget(ctx context.Context, key string) error {
	return d.client.Del(ctx, key).Err()
}
