package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

var (
	ErrLockerDisabled = errors.New("ratelimit: order locker has no redis client")
	ErrInvalidLock    = errors.New("ratelimit: lock key and ttl are required")
)

// releaseIfOwner deletes KEYS[1] only while it still holds the caller's token,
// so a delivery whose lock expired cannot drop the next holder's lock.
const releaseIfOwner = `
if redis.call("GET", KEYS[1]) ~= ARGV[1] then
  return 0
end
return redis.call("DEL", KEYS[1])
`

// Locker hands out per-order delivery locks. Each acquisition gets a random
// token that must be presented to release it.
type Locker struct {
	client  *redis.Client
	release *redis.Script
}

// NewLocker returns nil without a redis client; the dispatcher then skips
// cross-replica locking.
func NewLocker(client *redis.Client) *Locker {
	if client == nil {
		return nil
	}
	return &Locker{client: client, release: redis.NewScript(releaseIfOwner)}
}

// TryLock reports false without error when another delivery holds key.
func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if l == nil || l.client == nil {
		return "", false, ErrLockerDisabled
	}
	if key == "" || ttl <= 0 {
		return "", false, ErrInvalidLock
	}

	token := uuid.NewString()
	acquired, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("lock %s: %w", key, err)
	}
	if !acquired {
		return "", false, nil
	}
	return token, true, nil
}

// Release is a no-op for a nil locker, an empty token or a lock that now
// belongs to someone else.
func (l *Locker) Release(ctx context.Context, key, token string) error {
	if l == nil || l.client == nil || key == "" || token == "" {
		return nil
	}
	if err := l.release.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
		return fmt.Errorf("unlock %s: %w", key, err)
	}
	return nil
}
