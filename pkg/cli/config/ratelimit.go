package config

import (
	"context"
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/makola-community/makola/pkg/domain/interfaces"
	"github.com/makola-community/makola/pkg/service/ratelimit"
	"github.com/makola-community/makola/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// RateLimit holds the Redis rate limit flags
type RateLimit struct {
	redisURL            string
	issueLimitPerDay    int64
	commentLimitPerHour int64
}

// Flags returns CLI flags for rate limiting
func (x *RateLimit) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "redis-url",
			Usage:       "Redis URL for rate limit counters (e.g. redis://localhost:6379/0). Rate limiting is off when unset",
			Category:    "Rate limit",
			Destination: &x.redisURL,
			Sources:     cli.EnvVars("MAKOLA_REDIS_URL"),
		},
		&cli.Int64Flag{
			Name:        "issue-limit-per-day",
			Usage:       "Issues a user may report per 24 hours (0 disables)",
			Category:    "Rate limit",
			Value:       ratelimit.DefaultIssueLimit,
			Destination: &x.issueLimitPerDay,
			Sources:     cli.EnvVars("MAKOLA_ISSUE_LIMIT_PER_DAY"),
		},
		&cli.Int64Flag{
			Name:        "comment-limit-per-hour",
			Usage:       "Comments a user may post per hour (0 disables)",
			Category:    "Rate limit",
			Value:       ratelimit.DefaultCommentLimit,
			Destination: &x.commentLimitPerHour,
			Sources:     cli.EnvVars("MAKOLA_COMMENT_LIMIT_PER_HOUR"),
		},
	}
}

// LogValue omits the Redis URL, which may carry a password
func (x RateLimit) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("redis", x.redisURL != ""),
		slog.Int64("issue-limit-per-day", x.issueLimitPerDay),
		slog.Int64("comment-limit-per-hour", x.commentLimitPerHour),
	)
}

// Configure connects to Redis and returns the limiter with a closer. Both
// are nil when --redis-url is unset.
func (x *RateLimit) Configure(ctx context.Context) (interfaces.RateLimiter, func(), error) {
	if x.redisURL == "" {
		logging.Default().Info("Rate limiting disabled")
		return nil, nil, nil
	}

	client, err := ratelimit.Connect(ctx, x.redisURL)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to connect to Redis")
	}

	limiter := ratelimit.New(client,
		ratelimit.WithLimit(interfaces.RateLimitActionIssue, x.issueLimitPerDay, 24*time.Hour),
		ratelimit.WithLimit(interfaces.RateLimitActionComment, x.commentLimitPerHour, time.Hour),
	)
	logging.Default().Info("Rate limiting enabled", "config", x)

	closer := func() {
		if err := client.Close(); err != nil {
			logging.Default().Warn("failed to close Redis client", "error", err)
		}
	}
	return limiter, closer, nil
}
