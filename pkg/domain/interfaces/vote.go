package interfaces

import (
	"context"

	"github.com/makola-community/makola/pkg/domain/model"
	"github.com/makola-community/makola/pkg/domain/types"
)

// VoteRepository records which users upvoted which issues
type VoteRepository interface {
	// Put records the vote. It returns false without error when the user has
	// already voted on the issue.
	Put(ctx context.Context, vote *model.Vote) (bool, error)

	// Exists reports whether the user has voted on the issue
	Exists(ctx context.Context, issueID types.IssueID, userID types.UserID) (bool, error)

	// Delete removes a single vote. Missing votes are ignored.
	Delete(ctx context.Context, issueID types.IssueID, userID types.UserID) error

	// DeleteByIssue removes every vote of an issue
	DeleteByIssue(ctx context.Context, issueID types.IssueID) error
}
