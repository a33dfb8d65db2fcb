package config_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/m-mizutani/gt"
	"github.com/makola-community/makola/pkg/cli/config"
	"github.com/makola-community/makola/pkg/domain/interfaces"
)

func TestRateLimitConfigure(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled without URL", func(t *testing.T) {
		limiter, closer, err := config.NewRateLimitForTest("", 10, 60).Configure(ctx)
		gt.NoError(t, err).Required()
		gt.Value(t, limiter).Nil()
		gt.Value(t, closer).Nil()
	})

	t.Run("uses configured limits", func(t *testing.T) {
		mr := miniredis.RunT(t)
		limiter, closer, err := config.NewRateLimitForTest("redis://"+mr.Addr(), 1, 60).Configure(ctx)
		gt.NoError(t, err).Required()
		defer closer()

		allowed, _, err := limiter.Allow(ctx, interfaces.RateLimitActionIssue, "resident-1")
		gt.NoError(t, err).Required()
		gt.Bool(t, allowed).True()

		allowed, retryAfter, err := limiter.Allow(ctx, interfaces.RateLimitActionIssue, "resident-1")
		gt.NoError(t, err).Required()
		gt.Bool(t, allowed).False()
		gt.Bool(t, retryAfter > 0).True()
	})

	t.Run("invalid URL", func(t *testing.T) {
		_, _, err := config.NewRateLimitForTest("http://localhost", 10, 60).Configure(ctx)
		gt.Value(t, err).NotNil()
	})
}
