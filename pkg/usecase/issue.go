package usecase

import (
	"context"
	"errors"
	"path"
	"slices"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/makola-community/makola/pkg/domain/interfaces"
	"github.com/makola-community/makola/pkg/domain/model"
	"github.com/makola-community/makola/pkg/domain/model/auth"
	"github.com/makola-community/makola/pkg/domain/model/config"
	"github.com/makola-community/makola/pkg/domain/types"
	"github.com/makola-community/makola/pkg/utils/async"
	"github.com/makola-community/makola/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

// maxUpvoteAttempts bounds the retries of an upvote that loses a version race
const maxUpvoteAttempts = 3

type IssueUseCase struct {
	repo      interfaces.Repository
	lifecycle *model.IssueLifecycleService
	tree      *model.CommentTreeService
	appConfig *config.MunicipalityConfig
	notifier  interfaces.Notifier
	storage   interfaces.PhotoStorage
	limiter   interfaces.RateLimiter
}

// IssueFilter narrows ListIssues. Empty fields are not filtered on.
type IssueFilter struct {
	Status     types.IssueStatus
	Category   types.CategoryID
	Reporter   types.UserID
	Officer    types.UserID
	Department types.DepartmentID
	Limit      int
}

func (uc *IssueUseCase) CreateIssue(ctx context.Context, draft model.IssueDraft) (*model.Issue, error) {
	requester := auth.RequesterFromContext(ctx)

	issue, err := uc.lifecycle.Open(requester, draft)
	if err != nil {
		return nil, err
	}
	if !uc.appConfig.HasCategory(issue.Category) {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "unknown issue category", goerr.V("category", issue.Category))
	}
	if err := checkRateLimit(ctx, uc.limiter, interfaces.RateLimitActionIssue, requester); err != nil {
		return nil, err
	}

	created, err := uc.repo.Issue().Create(ctx, issue)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create issue")
	}

	logging.From(ctx).Info("issue reported",
		"issue_id", created.ID,
		"category", created.Category,
		"reporter_id", created.ReporterID)
	return created, nil
}

func (uc *IssueUseCase) GetIssue(ctx context.Context, id types.IssueID) (*model.Issue, error) {
	issue, err := uc.repo.Issue().Get(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get issue", goerr.V(model.IssueIDKey, id))
	}
	return issue, nil
}

// GetIssueDetail loads the issue, its comment threads and the requester's
// vote concurrently.
func (uc *IssueUseCase) GetIssueDetail(ctx context.Context, id types.IssueID) (*model.IssueDetail, error) {
	requester := auth.RequesterFromContext(ctx)
	detail := &model.IssueDetail{}
	var comments []*model.Comment

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		issue, err := uc.repo.Issue().Get(egCtx, id)
		if err != nil {
			return goerr.Wrap(err, "failed to get issue", goerr.V(model.IssueIDKey, id))
		}
		detail.Issue = issue
		return nil
	})
	eg.Go(func() error {
		list, err := uc.repo.Comment().ListByIssue(egCtx, id)
		if err != nil {
			return goerr.Wrap(err, "failed to list comments", goerr.V(model.IssueIDKey, id))
		}
		comments = list
		return nil
	})
	if requester.IsAuthenticated() {
		eg.Go(func() error {
			voted, err := uc.repo.Vote().Exists(egCtx, id, requester.ID)
			if err != nil {
				return goerr.Wrap(err, "failed to check vote", goerr.V(model.IssueIDKey, id))
			}
			detail.UserHasVoted = voted
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	detail.Threads = slices.Collect(uc.tree.ListRootComments(id, comments))
	if detail.Threads == nil {
		detail.Threads = []*model.CommentThread{}
	}
	return detail, nil
}

func (uc *IssueUseCase) ListIssues(ctx context.Context, filter IssueFilter) ([]*model.Issue, error) {
	var opts []interfaces.ListIssueOption
	if filter.Status != "" {
		if !filter.Status.IsValid() {
			return nil, goerr.Wrap(model.ErrInvalidArgument, "unknown issue status", goerr.V("status", filter.Status))
		}
		opts = append(opts, interfaces.WithStatus(filter.Status))
	}
	if filter.Category != "" {
		opts = append(opts, interfaces.WithCategory(filter.Category))
	}
	if filter.Reporter != "" {
		opts = append(opts, interfaces.WithReporter(filter.Reporter))
	}
	if filter.Officer != "" {
		opts = append(opts, interfaces.WithOfficer(filter.Officer))
	}
	if filter.Department != "" {
		opts = append(opts, interfaces.WithDepartment(filter.Department))
	}
	if filter.Limit < 0 {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "limit must not be negative", goerr.V("limit", filter.Limit))
	}
	if filter.Limit > 0 {
		opts = append(opts, interfaces.WithLimit(filter.Limit))
	}

	issues, err := uc.repo.Issue().List(ctx, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list issues")
	}
	return issues, nil
}

// loadForUpdate fetches the issue and checks the version the caller expects.
// An expectedVersion of zero accepts whatever is stored.
func (uc *IssueUseCase) loadForUpdate(ctx context.Context, id types.IssueID, expectedVersion int64) (*model.Issue, error) {
	issue, err := uc.repo.Issue().Get(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get issue", goerr.V(model.IssueIDKey, id))
	}
	if expectedVersion != 0 && issue.Version != expectedVersion {
		return nil, goerr.Wrap(model.ErrConflict, "issue version does not match",
			goerr.V(model.IssueIDKey, id),
			goerr.V(model.VersionKey, expectedVersion),
			goerr.V("stored_version", issue.Version))
	}
	return issue, nil
}

func (uc *IssueUseCase) save(ctx context.Context, issue *model.Issue) (*model.Issue, error) {
	saved, err := uc.repo.Issue().Update(ctx, issue)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update issue", goerr.V(model.IssueIDKey, issue.ID))
	}
	return saved, nil
}

func (uc *IssueUseCase) UpdateIssue(ctx context.Context, id types.IssueID, expectedVersion int64, patch model.IssuePatch) (*model.Issue, error) {
	requester := auth.RequesterFromContext(ctx)

	issue, err := uc.loadForUpdate(ctx, id, expectedVersion)
	if err != nil {
		return nil, err
	}
	updated, err := uc.lifecycle.UpdateDetails(issue, requester, patch)
	if err != nil {
		return nil, err
	}
	if !uc.appConfig.HasCategory(updated.Category) {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "unknown issue category", goerr.V("category", updated.Category))
	}
	return uc.save(ctx, updated)
}

func (uc *IssueUseCase) ChangeStatus(ctx context.Context, id types.IssueID, expectedVersion int64, to types.IssueStatus) (*model.Issue, error) {
	requester := auth.RequesterFromContext(ctx)

	issue, err := uc.loadForUpdate(ctx, id, expectedVersion)
	if err != nil {
		return nil, err
	}
	updated, err := uc.lifecycle.ChangeStatus(issue, requester, to)
	if err != nil {
		return nil, err
	}
	saved, err := uc.save(ctx, updated)
	if err != nil {
		return nil, err
	}

	logging.From(ctx).Info("issue status changed",
		"issue_id", saved.ID,
		"from", issue.Status,
		"to", saved.Status,
		"requester_id", requester.ID)

	if uc.notifier != nil {
		from := issue.Status
		async.Dispatch(ctx, func(ctx context.Context) error {
			return uc.notifier.IssueStatusChanged(ctx, saved.Clone(), from, requester)
		})
	}
	return saved, nil
}

func (uc *IssueUseCase) AssignOfficer(ctx context.Context, id types.IssueID, expectedVersion int64, officerID types.UserID, department types.DepartmentID) (*model.Issue, error) {
	requester := auth.RequesterFromContext(ctx)

	issue, err := uc.loadForUpdate(ctx, id, expectedVersion)
	if err != nil {
		return nil, err
	}
	updated, err := uc.lifecycle.AssignOfficer(issue, requester, officerID, department)
	if err != nil {
		return nil, err
	}
	if !uc.appConfig.HasDepartment(updated.AssignedDepartment) {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "unknown department",
			goerr.V(model.IssueIDKey, id), goerr.V("department", department))
	}
	saved, err := uc.save(ctx, updated)
	if err != nil {
		return nil, err
	}

	logging.From(ctx).Info("issue assigned",
		"issue_id", saved.ID,
		"officer_id", saved.AssignedOfficerID,
		"department", saved.AssignedDepartment)

	if uc.notifier != nil {
		async.Dispatch(ctx, func(ctx context.Context) error {
			return uc.notifier.IssueAssigned(ctx, saved.Clone(), requester)
		})
	}
	return saved, nil
}

// Upvote counts one vote per user. A repeated upvote returns the current
// issue unchanged.
func (uc *IssueUseCase) Upvote(ctx context.Context, id types.IssueID) (*model.Issue, error) {
	requester := auth.RequesterFromContext(ctx)

	issue, err := uc.repo.Issue().Get(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get issue", goerr.V(model.IssueIDKey, id))
	}
	// Authorize before recording anything in the vote ledger
	if _, err := uc.lifecycle.Upvote(issue, requester); err != nil {
		return nil, err
	}

	added, err := uc.repo.Vote().Put(ctx, &model.Vote{IssueID: id, UserID: requester.ID})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to record vote", goerr.V(model.IssueIDKey, id))
	}
	if !added {
		return issue, nil
	}

	var lastErr error
	for range maxUpvoteAttempts {
		upvoted, err := uc.lifecycle.Upvote(issue, requester)
		if err != nil {
			lastErr = err
			break
		}
		saved, err := uc.repo.Issue().Update(ctx, upvoted)
		if err == nil {
			return saved, nil
		}
		lastErr = err
		if !errors.Is(err, model.ErrConflict) {
			break
		}

		issue, err = uc.repo.Issue().Get(ctx, id)
		if err != nil {
			lastErr = err
			break
		}
	}

	if err := uc.repo.Vote().Delete(ctx, id, requester.ID); err != nil {
		return nil, goerr.Wrap(lastErr, "failed to upvote issue and to roll back the vote",
			goerr.V(model.IssueIDKey, id), goerr.V("rollback_error", err.Error()))
	}
	return nil, goerr.Wrap(lastErr, "failed to upvote issue", goerr.V(model.IssueIDKey, id))
}

// DeleteIssue removes the issue with its comments and votes
func (uc *IssueUseCase) DeleteIssue(ctx context.Context, id types.IssueID) error {
	requester := auth.RequesterFromContext(ctx)

	issue, err := uc.repo.Issue().Get(ctx, id)
	if err != nil {
		return goerr.Wrap(err, "failed to get issue", goerr.V(model.IssueIDKey, id))
	}
	if err := uc.lifecycle.DeleteIssue(issue, requester); err != nil {
		return err
	}

	// The issue goes first. Comments and votes left behind by a failed
	// cascade can no longer be listed, edited or counted.
	if err := uc.repo.Issue().Delete(ctx, id); err != nil {
		return goerr.Wrap(err, "failed to delete issue", goerr.V(model.IssueIDKey, id))
	}
	logging.From(ctx).Info("issue deleted", "issue_id", id, "requester_id", requester.ID)

	if err := uc.repo.Comment().DeleteByIssue(ctx, id); err != nil {
		return goerr.Wrap(err, "issue deleted but its comments remain", goerr.V(model.IssueIDKey, id))
	}
	if err := uc.repo.Vote().DeleteByIssue(ctx, id); err != nil {
		return goerr.Wrap(err, "issue deleted but its votes remain", goerr.V(model.IssueIDKey, id))
	}
	return nil
}

func (uc *IssueUseCase) AttachPhoto(ctx context.Context, id types.IssueID, expectedVersion int64, url string) (*model.Issue, error) {
	requester := auth.RequesterFromContext(ctx)

	issue, err := uc.loadForUpdate(ctx, id, expectedVersion)
	if err != nil {
		return nil, err
	}
	updated, err := uc.lifecycle.AttachPhoto(issue, requester, url)
	if err != nil {
		return nil, err
	}
	return uc.save(ctx, updated)
}

// CreatePhotoUploadURL issues a signed upload URL for a new photo of the
// issue. The object is named issues/<issue-id>/<uuid><ext>.
func (uc *IssueUseCase) CreatePhotoUploadURL(ctx context.Context, id types.IssueID, filename, contentType string) (*model.PhotoUpload, error) {
	if uc.storage == nil {
		return nil, goerr.Wrap(ErrFeatureDisabled, "photo storage is not configured")
	}
	requester := auth.RequesterFromContext(ctx)

	issue, err := uc.repo.Issue().Get(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get issue", goerr.V(model.IssueIDKey, id))
	}
	if err := uc.lifecycle.AuthorizeDetailsEdit(issue, requester); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "photos must be images", goerr.V("content_type", contentType))
	}

	objectName := path.Join("issues", id.String(), types.NewPhotoName(path.Ext(filename)))
	upload, err := uc.storage.CreateUploadURL(ctx, objectName, contentType)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create upload URL", goerr.V(model.IssueIDKey, id))
	}
	return upload, nil
}

func checkRateLimit(ctx context.Context, limiter interfaces.RateLimiter, action interfaces.RateLimitAction, requester model.Requester) error {
	if limiter == nil {
		return nil
	}

	allowed, retryAfter, err := limiter.Allow(ctx, action, requester.ID)
	if err != nil {
		return goerr.Wrap(err, "failed to check rate limit", goerr.V(ActionKey, action))
	}
	if !allowed {
		return goerr.Wrap(ErrRateLimited, "too many requests",
			goerr.V(ActionKey, action),
			goerr.V(model.RequesterKey, requester.ID),
			goerr.V(RetryAfterKey, retryAfter))
	}
	return nil
}
