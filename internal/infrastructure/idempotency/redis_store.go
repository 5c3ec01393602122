// Package idempotency remembers which import log an upload attempt created,
// so a retried create returns the same log without touching Postgres.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "member-import:idempotency"

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// NewClient connects and checks the connection with a ping.
func NewClient(ctx context.Context, opts *redis.Options) (*redis.Client, error) {
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func Key(clubID, idempotencyKey string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, clubID, idempotencyKey)
}

func (s *RedisStore) Lookup(ctx context.Context, clubID, idempotencyKey string) (string, bool, error) {
	importLogID, err := s.client.Get(ctx, Key(clubID, idempotencyKey)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("lookup idempotency key: %w", err)
	}
	return importLogID, true, nil
}

// Remember stores importLogID unless another attempt got there first, and
// returns whichever id owns the key.
func (s *RedisStore) Remember(ctx context.Context, clubID, idempotencyKey, importLogID string) (string, error) {
	key := Key(clubID, idempotencyKey)

	stored, err := s.client.SetNX(ctx, key, importLogID, s.ttl).Result()
	if err != nil {
		return "", fmt.Errorf("remember idempotency key: %w", err)
	}
	if stored {
		return importLogID, nil
	}

	owner, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return importLogID, nil
		}
		return "", fmt.Errorf("read idempotency key owner: %w", err)
	}
	return owner, nil
}
