package interfaces

import (
	"context"

	"github.com/makola-community/makola/pkg/domain/model"
	"github.com/makola-community/makola/pkg/domain/types"
)

// CommentRepository defines the interface for Comment data access
type CommentRepository interface {
	// Create stores a new comment. Version is set to 1.
	Create(ctx context.Context, comment *model.Comment) (*model.Comment, error)

	// Get retrieves a comment by ID. Returns model.ErrNotFound if missing.
	Get(ctx context.Context, id types.CommentID) (*model.Comment, error)

	// ListByIssue retrieves every comment and reply of an issue in creation order
	ListByIssue(ctx context.Context, issueID types.IssueID) ([]*model.Comment, error)

	// Update replaces the comment if its stored version equals comment.Version.
	// Returns model.ErrConflict on a version mismatch.
	Update(ctx context.Context, comment *model.Comment) (*model.Comment, error)

	// Delete removes the given comments. Missing IDs are ignored.
	Delete(ctx context.Context, ids ...types.CommentID) error

	// DeleteByIssue removes every comment of an issue
	DeleteByIssue(ctx context.Context, issueID types.IssueID) error
}
