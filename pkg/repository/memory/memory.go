package memory

import (
	"context"

	"github.com/makola-community/makola/pkg/domain/interfaces"
)

// Repository is an alias for Memory to match the pattern
type Repository = Memory

// Memory is a process-local repository. All data is lost when the process
// exits; it backs tests and single-instance development servers.
type Memory struct {
	issue   *issueRepository
	comment *commentRepository
	vote    *voteRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		issue:   newIssueRepository(),
		comment: newCommentRepository(),
		vote:    newVoteRepository(),
	}
}

func (m *Memory) Issue() interfaces.IssueRepository {
	return m.issue
}

func (m *Memory) Comment() interfaces.CommentRepository {
	return m.comment
}

func (m *Memory) Vote() interfaces.VoteRepository {
	return m.vote
}

func (m *Memory) Close(ctx context.Context) error {
	return nil
}
