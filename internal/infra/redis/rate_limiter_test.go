//go:build !integration

package redis

import (
	"context"
	"errors"
	"testing"
	"time"
)

type counterClient struct {
	RedisClient
	counts  map[string]int64
	expired map[string]time.Duration
	incrErr error
}

func (c *counterClient) Incr(ctx context.Context, key string) (int64, error) {
	if c.incrErr != nil {
		return 0, c.incrErr
	}
	c.counts[key]++
	return c.counts[key], nil
}

func (c *counterClient) Expire(ctx context.Context, key string, d time.Duration) error {
	c.expired[key] = d
	return nil
}

func TestRateLimiter_Allow(t *testing.T) {
	ctx := context.Background()

	t.Run("allows up to limit then blocks", func(t *testing.T) {
		cli := &counterClient{counts: map[string]int64{}, expired: map[string]time.Duration{}}
		rl := NewRateLimiter(cli)
		key := UserActionKey("u1", "create_order")

		for i := 0; i < 3; i++ {
			ok, err := rl.Allow(ctx, key, 3, time.Minute)
			if err != nil || !ok {
				t.Fatalf("call %d: expected allowed, got ok=%v err=%v", i+1, ok, err)
			}
		}
		ok, err := rl.Allow(ctx, key, 3, time.Minute)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok {
			t.Error("expected fourth call to be blocked")
		}
		if cli.expired[key] != time.Minute {
			t.Errorf("expected window to be set once on first hit, got %v", cli.expired[key])
		}
	})

	t.Run("propagates redis errors", func(t *testing.T) {
		cli := &counterClient{incrErr: errors.New("down")}
		if _, err := NewRateLimiter(cli).Allow(ctx, "k", 1, time.Second); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestUserActionKey(t *testing.T) {
	if got := UserActionKey("u-9", "initiate"); got != "rate_limit:u-9:initiate" {
		t.Errorf("unexpected key %q", got)
	}
}
