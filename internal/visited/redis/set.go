// Package redis provides a visited-URL set shared through Redis, so several
// ingest processes or an operator shell can inspect the same run.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	visitedKeyPrefix = "visited:"
	defaultTTL       = 24 * time.Hour
)

// Config controls the Redis connection and key layout.
type Config struct {
	Addr     string
	Password string
	DB       int
	// Namespace is appended to the "visited:" prefix.
	Namespace string
	TTL       time.Duration
}

// Set stores visited URLs as members of one Redis set.
type Set struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// New connects to Redis.
func New(cfg Config) (*Set, error) {
	if cfg.Addr == "" {
		return nil, errors.New("visited.redis_addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewWithClient(client, cfg), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, cfg Config) *Set {
	ns := cfg.Namespace
	if ns == "" {
		ns = "termdex"
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Set{client: client, key: visitedKeyPrefix + ns, ttl: ttl}
}

// MarkVisited adds url to the set and refreshes the set's expiry.
func (s *Set) MarkVisited(ctx context.Context, url string) error {
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.SAdd(ctx, s.key, url)
		p.Expire(ctx, s.key, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("mark visited: %w", err)
	}
	return nil
}

// IsVisited reports whether url is in the set.
func (s *Set) IsVisited(ctx context.Context, url string) (bool, error) {
	ok, err := s.client.SIsMember(ctx, s.key, url).Result()
	if err != nil {
		return false, fmt.Errorf("is visited: %w", err)
	}
	return ok, nil
}

// Count returns the set's cardinality.
func (s *Set) Count(ctx context.Context) (int, error) {
	n, err := s.client.SCard(ctx, s.key).Result()
	if err != nil {
		return 0, fmt.Errorf("count visited: %w", err)
	}
	return int(n), nil
}

// Reset deletes the set.
func (s *Set) Reset(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("reset visited: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (s *Set) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

// Close closes the client.
func (s *Set) Close() error {
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("close redis: %w", err)
	}
	return nil
}
