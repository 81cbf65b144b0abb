package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var fixedWindowScript = redis.NewScript(`
-- KEYS[1] = counter key
-- ARGV[1] = limit (int)
-- ARGV[2] = window_ms (int)
--
-- Returns: {count, pttl_ms}
local current = redis.call('INCR', KEYS[1])
if current == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[2])
else
  -- Ensure TTL exists even if key already existed without TTL
  if redis.call('PTTL', KEYS[1]) < 0 then
    redis.call('PEXPIRE', KEYS[1], ARGV[2])
  end
end
return {current, redis.call('PTTL', KEYS[1])}
`)

// RedisLimiter is a fixed-window counter backed by a shared Redis instance,
// so the limit holds across multiple API processes. Counting is atomic via
// Lua; the key expires with the window, which also handles eviction.
type RedisLimiter struct {
	rdb    *redis.Client
	max    int
	period time.Duration
	prefix string
}

func NewRedisLimiter(rdb *redis.Client, maxRequests int, period time.Duration) (*RedisLimiter, error) {
	if rdb == nil {
		return nil, errors.New("ratelimit: redis client is required")
	}
	if maxRequests <= 0 {
		maxRequests = 100
	}
	if period <= 0 {
		period = 15 * time.Minute
	}
	return &RedisLimiter{
		rdb:    rdb,
		max:    maxRequests,
		period: period,
		prefix: "ratelimit:admin:",
	}, nil
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	if key == "" {
		return Decision{}, errors.New("ratelimit: key is required")
	}

	res, err := fixedWindowScript.Run(ctx, l.rdb, []string{l.prefix + key}, l.max, l.period.Milliseconds()).Int64Slice()
	if err != nil {
		return Decision{}, err
	}
	if len(res) != 2 {
		return Decision{}, errors.New("ratelimit: unexpected script reply")
	}

	count := int(res[0])
	resetAt := time.Now().Add(time.Duration(res[1]) * time.Millisecond)

	if count > l.max {
		return Decision{Allowed: false, Remaining: 0, ResetAt: resetAt}, nil
	}
	return Decision{Allowed: true, Remaining: l.max - count, ResetAt: resetAt}, nil
}
