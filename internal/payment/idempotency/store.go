// Package idempotency records processed webhook deliveries so gateway retries
// replay the original response instead of re-running side effects.
package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/campusswap/internal/cache"
	"github.com/smallbiznis/campusswap/internal/clock"
	"github.com/smallbiznis/campusswap/internal/payment/domain"
)

const keyPrefix = "webhook:processed:"

// Key identifies one delivery outcome. A payment id can legitimately move from
// PENDING to a final status, so the status is part of the key.
func Key(paymentID string, status domain.Status) string {
	return keyPrefix + strings.TrimSpace(paymentID) + ":" + strings.ToUpper(strings.TrimSpace(string(status)))
}

// MemoryStore keeps records in process. Suitable for a single replica.
type MemoryStore struct {
	records cache.Cache[string, domain.ProcessedWebhook]
}

func NewMemoryStore(clk clock.Clock) *MemoryStore {
	now := time.Now
	if clk != nil {
		now = clk.Now
	}
	return &MemoryStore{records: cache.NewTTLCacheWithClock[string, domain.ProcessedWebhook](now)}
}

func (s *MemoryStore) Lookup(_ context.Context, key string) (*domain.ProcessedWebhook, error) {
	record, ok := s.records.Get(key)
	if !ok {
		return nil, nil
	}
	return &record, nil
}

func (s *MemoryStore) Save(_ context.Context, key string, record domain.ProcessedWebhook, ttl time.Duration) error {
	s.records.Set(key, record, ttl)
	return nil
}

// RedisStore shares records across replicas.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Lookup(ctx context.Context, key string) (*domain.ProcessedWebhook, error) {
	raw, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrIdempotencyBackend, err)
	}

	var record domain.ProcessedWebhook
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("decode processed webhook: %w", err)
	}
	return &record, nil
}

// Save uses SET NX so the first recorded outcome wins.
func (s *RedisStore) Save(ctx context.Context, key string, record domain.ProcessedWebhook, ttl time.Duration) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode processed webhook: %w", err)
	}
	if err := s.client.SetNX(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrIdempotencyBackend, err)
	}
	return nil
}

// NewStore picks the redis store when a client is configured.
func NewStore(client *redis.Client, clk clock.Clock) domain.IdempotencyStore {
	if client != nil {
		return NewRedisStore(client)
	}
	return NewMemoryStore(clk)
}

var (
	_ domain.IdempotencyStore = (*MemoryStore)(nil)
	_ domain.IdempotencyStore = (*RedisStore)(nil)
)
