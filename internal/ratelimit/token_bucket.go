package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// takeTokenScript refills KEYS[1] at ARGV[1] tokens per second up to ARGV[2],
// then takes one token if available. It replies with
// {allowed, tokens left as a string, milliseconds until the next token}.
// Tokens travel as a string because redis truncates Lua numbers to integers.
const takeTokenScript = `
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local idle_ms = tonumber(ARGV[3])

local clock = redis.call("TIME")
local now = clock[1] * 1000 + math.floor(clock[2] / 1000)

local state = redis.call("HMGET", KEYS[1], "tokens", "ts")
local tokens = tonumber(state[1]) or burst
local last = tonumber(state[2]) or now
if now > last then
  tokens = math.min(burst, tokens + ((now - last) / 1000) * rate)
end

local allowed = 0
local wait_ms = 0
if tokens >= 1 then
  allowed = 1
  tokens = tokens - 1
else
  wait_ms = math.ceil(((1 - tokens) / rate) * 1000)
end

redis.call("HSET", KEYS[1], "tokens", tostring(tokens), "ts", now)
redis.call("PEXPIRE", KEYS[1], idle_ms)

return {allowed, tostring(tokens), wait_ms}
`

// Decision is the outcome of one ingress check.
type Decision struct {
	Allowed    bool
	Remaining  float64
	RetryAfter time.Duration
}

var errBucketReply = errors.New("ratelimit: unexpected token bucket reply")

// redisBucket is a token bucket shared by every replica through redis.
type redisBucket struct {
	client *redis.Client
	script *redis.Script
}

func newRedisBucket(client *redis.Client) *redisBucket {
	return &redisBucket{client: client, script: redis.NewScript(takeTokenScript)}
}

func (b *redisBucket) take(ctx context.Context, key string, rate float64, burst int) (*Decision, error) {
	reply, err := b.script.Run(ctx, b.client, []string{key},
		rate,
		burst,
		bucketIdleTTL(rate, burst).Milliseconds(),
	).Slice()
	if err != nil {
		return nil, fmt.Errorf("token bucket %s: %w", key, err)
	}
	if len(reply) != 3 {
		return nil, errBucketReply
	}

	allowed, ok := reply[0].(int64)
	if !ok {
		return nil, errBucketReply
	}
	left, _ := reply[1].(string)
	remaining, err := strconv.ParseFloat(left, 64)
	if err != nil {
		return nil, errBucketReply
	}
	waitMS, _ := reply[2].(int64)

	return &Decision{
		Allowed:    allowed == 1,
		Remaining:  remaining,
		RetryAfter: time.Duration(waitMS) * time.Millisecond,
	}, nil
}

// bucketIdleTTL keeps a bucket for twice the time it takes to refill, so an
// idle source starts over with a full burst.
func bucketIdleTTL(rate float64, burst int) time.Duration {
	if rate <= 0 || burst <= 0 {
		return time.Second
	}
	seconds := math.Ceil(2 * float64(burst) / rate)
	return time.Duration(math.Max(seconds, 1)) * time.Second
}
