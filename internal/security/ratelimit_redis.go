package security

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter is a fixed-window limiter shared by every replica
type RedisRateLimiter struct {
	client *redis.Client
	rate   int
	window time.Duration
	prefix string
	now    func() time.Time
}

func NewRedisRateLimiter(client *redis.Client, rate int, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{
		client: client,
		rate:   rate,
		window: window,
		prefix: "sorokin:ratelimit:",
		now:    time.Now,
	}
}

func (rl *RedisRateLimiter) key(key string) string {
	bucket := rl.now().UnixNano() / int64(rl.window)
	return rl.prefix + key + ":" + strconv.FormatInt(bucket, 10)
}

// Allow counts the request in the current window and checks it against the rate
func (rl *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := rl.key(key)

	pipe := rl.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, rl.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to update rate limit counter: %w", err)
	}

	return incr.Val() <= int64(rl.rate), nil
}
