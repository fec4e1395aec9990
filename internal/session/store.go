package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store defines the interface for server-side session persistence. Payloads
// are opaque to the store; the Manager seals them before saving.
type Store interface {
	// Save writes payload under key with the given TTL.
	Save(ctx context.Context, key string, payload []byte, ttl time.Duration) error
	// Load returns the payload stored under key, or ErrSessionNotFound.
	Load(ctx context.Context, key string) ([]byte, error)
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// Touch resets the TTL of an existing key, or returns ErrSessionNotFound.
	Touch(ctx context.Context, key string, ttl time.Duration) error
}

// RedisStore implements Store using Redis
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore creates a new Redis-backed session store
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

// Save stores a payload with TTL
func (s *RedisStore) Save(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Load retrieves a payload by key
func (s *RedisStore) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, nil
}

// Delete removes a key from the store
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Touch resets the expiry of an existing key
func (s *RedisStore) Touch(ctx context.Context, key string, ttl time.Duration) error {
	ok, err := s.client.Expire(ctx, key, ttl).Result()
	if err != nil {
		return fmt.Errorf("redis expire %s: %w", key, err)
	}
	if !ok {
		return ErrSessionNotFound
	}
	return nil
}

// Ping reports whether Redis is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
