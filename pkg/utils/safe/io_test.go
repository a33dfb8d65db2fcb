package safe_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/makola-community/makola/pkg/utils/logging"
	"github.com/makola-community/makola/pkg/utils/safe"
)

type closer struct {
	err    error
	closed bool
}

func (c *closer) Close() error {
	c.closed = true
	return c.err
}

func TestClose(t *testing.T) {
	var buf bytes.Buffer
	ctx := logging.With(context.Background(), slog.New(slog.NewJSONHandler(&buf, nil)))

	t.Run("nil closer", func(t *testing.T) {
		safe.Close(ctx, nil)
		gt.Number(t, buf.Len()).Equal(0)
	})

	t.Run("closes", func(t *testing.T) {
		c := &closer{}
		safe.Close(ctx, c)
		gt.Bool(t, c.closed).True()
		gt.Number(t, buf.Len()).Equal(0)
	})

	t.Run("logs failure", func(t *testing.T) {
		c := &closer{err: goerr.New("bucket handle gone")}
		safe.Close(ctx, c)
		gt.String(t, buf.String()).Contains("bucket handle gone")
	})
}
