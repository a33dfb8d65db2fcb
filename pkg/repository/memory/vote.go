package memory

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/makola-community/makola/pkg/domain/model"
	"github.com/makola-community/makola/pkg/domain/types"
)

type voteRepository struct {
	mu    sync.RWMutex
	votes map[types.IssueID]map[types.UserID]*model.Vote
}

func newVoteRepository() *voteRepository {
	return &voteRepository{
		votes: make(map[types.IssueID]map[types.UserID]*model.Vote),
	}
}

func (r *voteRepository) Put(ctx context.Context, vote *model.Vote) (bool, error) {
	if vote.IssueID == "" || vote.UserID == "" {
		return false, goerr.Wrap(model.ErrInvalidArgument, "vote requires issue and user",
			goerr.V(model.IssueIDKey, vote.IssueID), goerr.V(model.RequesterKey, vote.UserID))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	byUser, exists := r.votes[vote.IssueID]
	if !exists {
		byUser = make(map[types.UserID]*model.Vote)
		r.votes[vote.IssueID] = byUser
	}
	if _, voted := byUser[vote.UserID]; voted {
		return false, nil
	}

	stored := *vote
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	byUser[vote.UserID] = &stored
	return true, nil
}

func (r *voteRepository) Exists(ctx context.Context, issueID types.IssueID, userID types.UserID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, voted := r.votes[issueID][userID]
	return voted, nil
}

func (r *voteRepository) Delete(ctx context.Context, issueID types.IssueID, userID types.UserID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if byUser, exists := r.votes[issueID]; exists {
		delete(byUser, userID)
		if len(byUser) == 0 {
			delete(r.votes, issueID)
		}
	}
	return nil
}

func (r *voteRepository) DeleteByIssue(ctx context.Context, issueID types.IssueID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.votes, issueID)
	return nil
}
