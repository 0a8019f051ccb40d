// Package redis stores session keys in Redis so several machines can share
// one salesman profile.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/salesonboard/internal/session"
	"github.com/utafrali/salesonboard/pkg/slug"
)

const keyPrefix = "onboard:session:"

// Store implements session.KV on Redis. Keys are namespaced by profile.
type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// New creates a Redis-backed store. A zero ttl keeps keys until logout.
func New(client *redis.Client, profile string, ttl time.Duration) *Store {
	return &Store{
		client: client,
		prefix: keyPrefix + slug.Or(profile, "default") + ":",
		ttl:    ttl,
	}
}

// Get reads one key.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", session.ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, nil
}

// SetMany writes all pairs in one MULTI/EXEC transaction.
func (s *Store) SetMany(ctx context.Context, pairs map[string]string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, v := range pairs {
			pipe.Set(ctx, s.prefix+k, v, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

// Remove deletes one key.
func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
