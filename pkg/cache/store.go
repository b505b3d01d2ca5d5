package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned when the requested key is absent.
var ErrMiss = errors.New("cache miss")

// Store keeps JSON-encoded aggregates in Redis with a fixed TTL.
// A nil Store disables caching entirely, so callers never need to branch.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewStore builds a cache store around an existing client.
func NewStore(client *redis.Client, prefix string, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Store{client: client, ttl: ttl, prefix: prefix}
}

// Get unmarshals the cached value into dest, returning ErrMiss when absent.
func (s *Store) Get(ctx context.Context, key string, dest interface{}) error {
	if s == nil || s.client == nil {
		return ErrMiss
	}
	raw, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrMiss
		}
		return err
	}
	return json.Unmarshal(raw, dest)
}

// Set stores the JSON encoding of value under key.
func (s *Store) Set(ctx context.Context, key string, value interface{}) error {
	if s == nil || s.client == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.prefix+key, raw, s.ttl).Err()
}

// Invalidate drops one or more keys, ignoring missing entries.
func (s *Store) Invalidate(ctx context.Context, keys ...string) error {
	if s == nil || s.client == nil || len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = s.prefix + key
	}
	return s.client.Del(ctx, prefixed...).Err()
}
