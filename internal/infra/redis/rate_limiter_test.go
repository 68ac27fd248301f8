//go:build !integration

package redis_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	red "telegram-weather-bot/internal/infra/redis"
)

// fakeRedis is an in-process stand-in for the counter commands the limiter
// uses. Expirations are recorded, not enforced.
type fakeRedis struct {
	mu       sync.Mutex
	counters map[string]int64
	expires  map[string]time.Duration
	incrErr  error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		counters: make(map[string]int64),
		expires:  make(map[string]time.Duration),
	}
}

func (f *fakeRedis) Ping(ctx context.Context) error { return nil }

func (f *fakeRedis) Incr(ctx context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.incrErr != nil {
		return 0, f.incrErr
	}
	f.counters[key]++
	return f.counters[key], nil
}

func (f *fakeRedis) Expire(ctx context.Context, key string, expiration time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expires[key] = expiration
	return nil
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.counters, k)
	}
	return nil
}

func (f *fakeRedis) Close() error { return nil }

func TestRateLimiterAllow(t *testing.T) {
	ctx := context.Background()

	t.Run("allows up to the limit then denies", func(t *testing.T) {
		limiter := red.NewRateLimiter(newFakeRedis())
		key := red.UserCommandKey(42, "now")

		for i := 0; i < 3; i++ {
			ok, err := limiter.Allow(ctx, key, 3, time.Minute)
			if err != nil {
				t.Fatalf("allow %d: %v", i, err)
			}
			if !ok {
				t.Fatalf("call %d should be allowed", i)
			}
		}
		ok, err := limiter.Allow(ctx, key, 3, time.Minute)
		if err != nil {
			t.Fatalf("allow: %v", err)
		}
		if ok {
			t.Error("fourth call should be denied")
		}
	})

	t.Run("keys are independent", func(t *testing.T) {
		limiter := red.NewRateLimiter(newFakeRedis())
		if ok, _ := limiter.Allow(ctx, red.UserCommandKey(1, "now"), 1, time.Minute); !ok {
			t.Fatal("first key should be allowed")
		}
		if ok, _ := limiter.Allow(ctx, red.UserCommandKey(2, "now"), 1, time.Minute); !ok {
			t.Error("second key should be allowed")
		}
	})

	t.Run("sets the window on the first hit only", func(t *testing.T) {
		fake := newFakeRedis()
		limiter := red.NewRateLimiter(fake)
		key := red.UserCommandKey(42, "help")

		_, _ = limiter.Allow(ctx, key, 5, time.Minute)
		fake.mu.Lock()
		window, set := fake.expires[key]
		fake.mu.Unlock()
		if !set || window != time.Minute {
			t.Fatalf("expected a one-minute window, got %v (set=%v)", window, set)
		}

		fake.mu.Lock()
		delete(fake.expires, key)
		fake.mu.Unlock()
		_, _ = limiter.Allow(ctx, key, 5, time.Minute)
		fake.mu.Lock()
		_, set = fake.expires[key]
		fake.mu.Unlock()
		if set {
			t.Error("later hits must not reset the window")
		}
	})

	t.Run("surfaces backend errors", func(t *testing.T) {
		fake := newFakeRedis()
		fake.incrErr = errors.New("connection refused")
		limiter := red.NewRateLimiter(fake)

		if _, err := limiter.Allow(ctx, "k", 1, time.Minute); err == nil {
			t.Error("expected an error")
		}
	})

	t.Run("nil limiter allows everything", func(t *testing.T) {
		var limiter *red.RateLimiter
		ok, err := limiter.Allow(ctx, "k", 0, time.Minute)
		if err != nil || !ok {
			t.Errorf("got %v, %v", ok, err)
		}
	})
}

func TestUserCommandKey(t *testing.T) {
	if got := red.UserCommandKey(42, "now"); got != "rate_limit:42:now" {
		t.Errorf("got %q", got)
	}
}
