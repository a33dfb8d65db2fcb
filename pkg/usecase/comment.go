package usecase

import (
	"context"
	"errors"
	"slices"

	"github.com/m-mizutani/goerr/v2"
	"github.com/makola-community/makola/pkg/domain/interfaces"
	"github.com/makola-community/makola/pkg/domain/model"
	"github.com/makola-community/makola/pkg/domain/model/auth"
	"github.com/makola-community/makola/pkg/domain/types"
	"github.com/makola-community/makola/pkg/utils/logging"
)

type CommentUseCase struct {
	repo    interfaces.Repository
	tree    *model.CommentTreeService
	limiter interfaces.RateLimiter
}

// AddComment adds a root comment, or a reply when parentID is set
func (uc *CommentUseCase) AddComment(ctx context.Context, issueID types.IssueID, parentID types.CommentID, content string) (*model.Comment, error) {
	requester := auth.RequesterFromContext(ctx)

	if _, err := uc.repo.Issue().Get(ctx, issueID); err != nil {
		return nil, goerr.Wrap(err, "failed to get issue", goerr.V(model.IssueIDKey, issueID))
	}

	var comment *model.Comment
	if parentID == "" {
		c, err := uc.tree.AddRootComment(issueID, requester, content)
		if err != nil {
			return nil, err
		}
		comment = c
	} else {
		parent, err := uc.repo.Comment().Get(ctx, parentID)
		if err != nil && !errors.Is(err, model.ErrNotFound) {
			return nil, goerr.Wrap(err, "failed to get parent comment", goerr.V(model.CommentIDKey, parentID))
		}
		c, err := uc.tree.AddReply(issueID, parent, requester, content)
		if err != nil {
			return nil, err
		}
		comment = c
	}

	if err := checkRateLimit(ctx, uc.limiter, interfaces.RateLimitActionComment, requester); err != nil {
		return nil, err
	}

	created, err := uc.repo.Comment().Create(ctx, comment)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create comment", goerr.V(model.IssueIDKey, issueID))
	}

	logging.From(ctx).Info("comment added",
		"issue_id", issueID,
		"comment_id", created.ID,
		"parent_id", created.ParentID,
		"author_id", created.AuthorID)
	return created, nil
}

func (uc *CommentUseCase) EditComment(ctx context.Context, id types.CommentID, expectedVersion int64, content string) (*model.Comment, error) {
	requester := auth.RequesterFromContext(ctx)

	comment, err := uc.repo.Comment().Get(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get comment", goerr.V(model.CommentIDKey, id))
	}
	if _, err := uc.repo.Issue().Get(ctx, comment.IssueID); err != nil {
		return nil, goerr.Wrap(err, "failed to get issue", goerr.V(model.IssueIDKey, comment.IssueID))
	}
	if expectedVersion != 0 && comment.Version != expectedVersion {
		return nil, goerr.Wrap(model.ErrConflict, "comment version does not match",
			goerr.V(model.CommentIDKey, id),
			goerr.V(model.VersionKey, expectedVersion),
			goerr.V("stored_version", comment.Version))
	}

	edited, err := uc.tree.EditComment(comment, requester, content)
	if err != nil {
		return nil, err
	}

	saved, err := uc.repo.Comment().Update(ctx, edited)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update comment", goerr.V(model.CommentIDKey, id))
	}
	return saved, nil
}

// DeleteComment removes the comment and, for a root comment, its replies. It
// returns the IDs that were removed.
func (uc *CommentUseCase) DeleteComment(ctx context.Context, id types.CommentID) ([]types.CommentID, error) {
	requester := auth.RequesterFromContext(ctx)

	comment, err := uc.repo.Comment().Get(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get comment", goerr.V(model.CommentIDKey, id))
	}

	var siblings []*model.Comment
	if comment.IsRoot() {
		siblings, err = uc.repo.Comment().ListByIssue(ctx, comment.IssueID)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list comments", goerr.V(model.IssueIDKey, comment.IssueID))
		}
	}

	removed, err := uc.tree.DeleteComment(comment, requester, siblings)
	if err != nil {
		return nil, err
	}
	if err := uc.repo.Comment().Delete(ctx, removed...); err != nil {
		return nil, goerr.Wrap(err, "failed to delete comments", goerr.V(model.CommentIDKey, id))
	}

	logging.From(ctx).Info("comment deleted",
		"comment_id", id,
		"removed", len(removed),
		"requester_id", requester.ID)
	return removed, nil
}

// ListThreads returns the issue's root comments with their replies in
// creation order.
func (uc *CommentUseCase) ListThreads(ctx context.Context, issueID types.IssueID) ([]*model.CommentThread, error) {
	if _, err := uc.repo.Issue().Get(ctx, issueID); err != nil {
		return nil, goerr.Wrap(err, "failed to get issue", goerr.V(model.IssueIDKey, issueID))
	}

	comments, err := uc.repo.Comment().ListByIssue(ctx, issueID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list comments", goerr.V(model.IssueIDKey, issueID))
	}

	threads := slices.Collect(uc.tree.ListRootComments(issueID, comments))
	if threads == nil {
		threads = []*model.CommentThread{}
	}
	return threads, nil
}
