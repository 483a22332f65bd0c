package pending

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "pending:v1:"

// RedisStore keeps pending registrations as JSON values in Redis. The record
// carries its own ExpiresAt, which is the authoritative expiry checked by the
// completer; the Redis key TTL is set longer (2x) so an expired record is
// still observable for the explicit expired-token response, while records
// nobody ever completes are eventually garbage-collected by Redis itself.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore builds a Redis-backed pending registration store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Put stores the registration under its token.
func (s *RedisStore) Put(ctx context.Context, token string, reg Registration) error {
	payload, err := json.Marshal(reg)
	if err != nil {
		return fmt.Errorf("encode pending registration: %w", err)
	}

	ttl := 2 * time.Until(reg.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Minute
	}

	if err := s.client.Set(ctx, keyPrefix+token, payload, ttl).Err(); err != nil {
		return fmt.Errorf("persist pending registration: %w", err)
	}
	return nil
}

// Get fetches the registration for a token, or ErrNotFound.
func (s *RedisStore) Get(ctx context.Context, token string) (Registration, error) {
	raw, err := s.client.Get(ctx, keyPrefix+token).Result()
	if err == redis.Nil {
		return Registration{}, ErrNotFound
	}
	if err != nil {
		return Registration{}, fmt.Errorf("fetch pending registration: %w", err)
	}

	var reg Registration
	if err := json.Unmarshal([]byte(raw), &reg); err != nil {
		return Registration{}, fmt.Errorf("decode pending registration: %w", err)
	}
	return reg, nil
}

// Delete removes the registration for a token. Deleting an absent token is not an error.
func (s *RedisStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, keyPrefix+token).Err(); err != nil {
		return fmt.Errorf("delete pending registration: %w", err)
	}
	return nil
}
