package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/m-mizutani/gt"
	"github.com/makola-community/makola/pkg/domain/interfaces"
	"github.com/makola-community/makola/pkg/service/ratelimit"
	"github.com/redis/go-redis/v9"
)

func setupLimiter(t *testing.T, opts ...ratelimit.Option) (*ratelimit.Limiter, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	client, err := ratelimit.Connect(context.Background(), "redis://"+s.Addr())
	gt.NoError(t, err).Required()
	t.Cleanup(func() { _ = client.Close() })
	return ratelimit.New(client, opts...), s
}

func TestLimiter_Allow(t *testing.T) {
	ctx := context.Background()

	t.Run("denies above the limit with retry-after", func(t *testing.T) {
		limiter, _ := setupLimiter(t, ratelimit.WithLimit(interfaces.RateLimitActionIssue, 2, time.Hour))

		for range 2 {
			ok, _, err := limiter.Allow(ctx, interfaces.RateLimitActionIssue, "resident-1")
			gt.NoError(t, err).Required()
			gt.Bool(t, ok).True()
		}

		ok, retryAfter, err := limiter.Allow(ctx, interfaces.RateLimitActionIssue, "resident-1")
		gt.NoError(t, err).Required()
		gt.Bool(t, ok).False()
		gt.Bool(t, retryAfter > 0 && retryAfter <= time.Hour).True()
	})

	t.Run("users and actions are counted separately", func(t *testing.T) {
		limiter, _ := setupLimiter(t,
			ratelimit.WithLimit(interfaces.RateLimitActionIssue, 1, time.Hour),
			ratelimit.WithLimit(interfaces.RateLimitActionComment, 1, time.Hour),
		)

		ok, _, err := limiter.Allow(ctx, interfaces.RateLimitActionIssue, "resident-1")
		gt.NoError(t, err).Required()
		gt.Bool(t, ok).True()

		ok, _, err = limiter.Allow(ctx, interfaces.RateLimitActionIssue, "resident-2")
		gt.NoError(t, err).Required()
		gt.Bool(t, ok).True()

		ok, _, err = limiter.Allow(ctx, interfaces.RateLimitActionComment, "resident-1")
		gt.NoError(t, err).Required()
		gt.Bool(t, ok).True()
	})

	t.Run("window expiry resets the counter", func(t *testing.T) {
		limiter, s := setupLimiter(t, ratelimit.WithLimit(interfaces.RateLimitActionComment, 1, time.Minute))

		ok, _, err := limiter.Allow(ctx, interfaces.RateLimitActionComment, "resident-1")
		gt.NoError(t, err).Required()
		gt.Bool(t, ok).True()

		ok, _, err = limiter.Allow(ctx, interfaces.RateLimitActionComment, "resident-1")
		gt.NoError(t, err).Required()
		gt.Bool(t, ok).False()

		s.FastForward(time.Minute + time.Second)

		ok, _, err = limiter.Allow(ctx, interfaces.RateLimitActionComment, "resident-1")
		gt.NoError(t, err).Required()
		gt.Bool(t, ok).True()
	})

	t.Run("counter without expiry gets a new window", func(t *testing.T) {
		limiter, s := setupLimiter(t,
			ratelimit.WithKeyPrefix("test"),
			ratelimit.WithLimit(interfaces.RateLimitActionIssue, 1, time.Hour))
		gt.NoError(t, s.Set("test:issue:resident-1", "5")).Required()

		ok, retryAfter, err := limiter.Allow(ctx, interfaces.RateLimitActionIssue, "resident-1")
		gt.NoError(t, err).Required()
		gt.Bool(t, ok).False()
		gt.Value(t, retryAfter).Equal(time.Hour)
		gt.Value(t, s.TTL("test:issue:resident-1")).Equal(time.Hour)
	})

	t.Run("disabled limit always allows", func(t *testing.T) {
		limiter, _ := setupLimiter(t, ratelimit.WithLimit(interfaces.RateLimitActionIssue, 0, time.Hour))
		for range 5 {
			ok, _, err := limiter.Allow(ctx, interfaces.RateLimitActionIssue, "resident-1")
			gt.NoError(t, err).Required()
			gt.Bool(t, ok).True()
		}
	})

	t.Run("redis failure is returned", func(t *testing.T) {
		s := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: s.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		limiter := ratelimit.New(client)
		s.Close()

		_, _, err := limiter.Allow(ctx, interfaces.RateLimitActionIssue, "resident-1")
		gt.Value(t, err).NotNil()
	})
}

func TestConnect(t *testing.T) {
	_, err := ratelimit.Connect(context.Background(), "not-a-url")
	gt.Value(t, err).NotNil()
}
