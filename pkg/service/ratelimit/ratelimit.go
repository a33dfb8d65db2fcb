package ratelimit

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/makola-community/makola/pkg/domain/interfaces"
	"github.com/makola-community/makola/pkg/domain/types"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultIssueLimit is how many issues a user may report per window
	DefaultIssueLimit = 10
	// DefaultCommentLimit is how many comments a user may post per window
	DefaultCommentLimit = 60

	defaultKeyPrefix = "makola:ratelimit"
)

// Limit is the allowance for one action within a fixed window
type Limit struct {
	Count  int64
	Window time.Duration
}

// Limiter counts actions per user in fixed windows stored in Redis
type Limiter struct {
	client *redis.Client
	prefix string
	limits map[interfaces.RateLimitAction]Limit
}

var _ interfaces.RateLimiter = &Limiter{}

// Option is a functional option for Limiter
type Option func(*Limiter)

// WithLimit overrides the allowance for action. A non-positive count
// disables limiting for the action.
func WithLimit(action interfaces.RateLimitAction, count int64, window time.Duration) Option {
	return func(l *Limiter) {
		l.limits[action] = Limit{Count: count, Window: window}
	}
}

// WithKeyPrefix sets the prefix of the Redis counter keys
func WithKeyPrefix(prefix string) Option {
	return func(l *Limiter) {
		l.prefix = prefix
	}
}

// New creates a Limiter on top of an existing Redis client
func New(client *redis.Client, opts ...Option) *Limiter {
	l := &Limiter{
		client: client,
		prefix: defaultKeyPrefix,
		limits: map[interfaces.RateLimitAction]Limit{
			interfaces.RateLimitActionIssue:   {Count: DefaultIssueLimit, Window: 24 * time.Hour},
			interfaces.RateLimitActionComment: {Count: DefaultCommentLimit, Window: time.Hour},
		},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Connect parses a redis:// URL and verifies the server is reachable
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse Redis URL")
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, goerr.Wrap(err, "failed to connect to Redis", goerr.V("addr", opts.Addr))
	}
	return client, nil
}

func (l *Limiter) key(action interfaces.RateLimitAction, userID types.UserID) string {
	return l.prefix + ":" + string(action) + ":" + userID.String()
}

// Allow counts one attempt of action by userID. When the attempt exceeds
// the allowance it reports false and the time until the window resets.
func (l *Limiter) Allow(ctx context.Context, action interfaces.RateLimitAction, userID types.UserID) (bool, time.Duration, error) {
	limit, ok := l.limits[action]
	if !ok || limit.Count <= 0 {
		return true, 0, nil
	}

	key := l.key(action, userID)
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, goerr.Wrap(err, "failed to increment rate limit counter", goerr.V("key", key))
	}

	// The window starts with the first attempt
	if count == 1 {
		if err := l.client.Expire(ctx, key, limit.Window).Err(); err != nil {
			return false, 0, goerr.Wrap(err, "failed to set rate limit window", goerr.V("key", key))
		}
	}

	if count <= limit.Count {
		return true, 0, nil
	}

	ttl, err := l.client.TTL(ctx, key).Result()
	if err != nil {
		return false, 0, goerr.Wrap(err, "failed to read rate limit window", goerr.V("key", key))
	}
	if ttl < 0 {
		// Counter without expiry starts a new window
		if err := l.client.Expire(ctx, key, limit.Window).Err(); err != nil {
			return false, 0, goerr.Wrap(err, "failed to set rate limit window", goerr.V("key", key))
		}
		ttl = limit.Window
	}
	return false, ttl, nil
}
