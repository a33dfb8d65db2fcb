package interfaces

import (
	"context"
	"time"

	"github.com/makola-community/makola/pkg/domain/model"
	"github.com/makola-community/makola/pkg/domain/types"
)

// Notifier delivers issue events to the people who act on them. Calls are
// best effort; failures never roll back the change that triggered them.
type Notifier interface {
	IssueAssigned(ctx context.Context, issue *model.Issue, by model.Requester) error
	IssueStatusChanged(ctx context.Context, issue *model.Issue, from types.IssueStatus, by model.Requester) error
}

// PhotoStorage issues upload URLs for issue photos in an object store
type PhotoStorage interface {
	CreateUploadURL(ctx context.Context, objectName, contentType string) (*model.PhotoUpload, error)
}

// RateLimitAction names a rate limited operation
type RateLimitAction string

const (
	RateLimitActionIssue   RateLimitAction = "issue"
	RateLimitActionComment RateLimitAction = "comment"
)

// RateLimiter counts actions per user in fixed windows
type RateLimiter interface {
	// Allow records one action and reports whether it is within the limit.
	// When it is not, retryAfter is the time until the window resets.
	Allow(ctx context.Context, action RateLimitAction, userID types.UserID) (allowed bool, retryAfter time.Duration, err error)
}
