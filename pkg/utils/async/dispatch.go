package async

import (
	"context"
	"sync"
	"time"

	"github.com/makola-community/makola/pkg/utils/errutil"
	"github.com/makola-community/makola/pkg/utils/logging"
)

var pending sync.WaitGroup

// Dispatch runs handler in a new goroutine detached from the request
// lifetime. The logger of ctx is carried over. Errors go to errutil.Handle
// and panics are logged.
func Dispatch(ctx context.Context, handler func(ctx context.Context) error) {
	bgCtx := logging.With(context.Background(), logging.From(ctx))

	pending.Add(1)
	go func() {
		defer pending.Done()
		defer func() {
			if r := recover(); r != nil {
				logging.From(bgCtx).Error("panic in async handler", "panic", r)
			}
		}()

		if err := handler(bgCtx); err != nil {
			_ = errutil.Handle(bgCtx, err, "async handler failed")
		}
	}()
}

// Wait blocks until every dispatched handler has finished or timeout elapses.
// It reports whether all handlers finished.
func Wait(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
