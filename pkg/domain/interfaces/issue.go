package interfaces

import (
	"context"

	"github.com/makola-community/makola/pkg/domain/model"
	"github.com/makola-community/makola/pkg/domain/types"
)

// IssueRepository defines the interface for Issue data access
type IssueRepository interface {
	// Create stores a new issue. Version is set to 1.
	Create(ctx context.Context, issue *model.Issue) (*model.Issue, error)

	// Get retrieves an issue by ID. Returns model.ErrNotFound if missing.
	Get(ctx context.Context, id types.IssueID) (*model.Issue, error)

	// List retrieves issues newest first with optional filtering
	List(ctx context.Context, opts ...ListIssueOption) ([]*model.Issue, error)

	// Update replaces the issue if its stored version equals issue.Version,
	// and returns it with the version incremented and UpdatedAt refreshed.
	// Returns model.ErrConflict on a version mismatch.
	Update(ctx context.Context, issue *model.Issue) (*model.Issue, error)

	// Delete removes an issue by ID. Returns model.ErrNotFound if missing.
	Delete(ctx context.Context, id types.IssueID) error
}
