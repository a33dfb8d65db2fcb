package usecase

import (
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// Sentinel errors for use case layer
var (
	// ErrUnauthenticated means the request carried no valid credentials
	ErrUnauthenticated = goerr.New("unauthenticated")

	// ErrRateLimited means the requester exceeded an action limit
	ErrRateLimited = goerr.New("rate limit exceeded")

	// ErrFeatureDisabled means an optional integration is not configured
	ErrFeatureDisabled = goerr.New("feature is not enabled")
)

// Context keys for error values
const (
	RetryAfterKey = "retry_after"
	ActionKey     = "action"
)

// RetryAfter returns the wait time carried by a rate limit error
func RetryAfter(err error) (time.Duration, bool) {
	var ge *goerr.Error
	if !errors.As(err, &ge) {
		return 0, false
	}
	d, ok := ge.Values()[RetryAfterKey].(time.Duration)
	return d, ok
}
