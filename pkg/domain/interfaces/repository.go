package interfaces

import "context"

// Repository defines the interface for data persistence
type Repository interface {
	Issue() IssueRepository
	Comment() CommentRepository
	Vote() VoteRepository

	// Close releases the underlying connection, if any
	Close(ctx context.Context) error
}
