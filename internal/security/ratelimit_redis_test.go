package security

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestRedisRateLimiter(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	rl := NewRedisRateLimiter(client, 2, time.Minute)
	rl.prefix = "sorokin:test:" + GenerateSessionID() + ":"
	ctx := context.Background()

	for i, want := range []bool{true, true, false} {
		ok, err := rl.Allow(ctx, "1.2.3.4")
		if err != nil {
			t.Fatalf("Allow #%d failed: %v", i, err)
		}
		if ok != want {
			t.Errorf("Allow #%d = %v, want %v", i, ok, want)
		}
	}
}
