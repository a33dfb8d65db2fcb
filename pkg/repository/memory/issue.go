package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/makola-community/makola/pkg/domain/interfaces"
	"github.com/makola-community/makola/pkg/domain/model"
	"github.com/makola-community/makola/pkg/domain/types"
)

type issueRepository struct {
	mu     sync.RWMutex
	issues map[types.IssueID]*model.Issue
}

func newIssueRepository() *issueRepository {
	return &issueRepository{
		issues: make(map[types.IssueID]*model.Issue),
	}
}

func (r *issueRepository) Create(ctx context.Context, issue *model.Issue) (*model.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if issue.ID == "" {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "issue ID is required")
	}
	if _, exists := r.issues[issue.ID]; exists {
		return nil, goerr.Wrap(model.ErrConflict, "issue already exists", goerr.V(model.IssueIDKey, issue.ID))
	}

	created := issue.Clone()
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}
	created.UpdatedAt = created.CreatedAt
	created.Version = 1

	r.issues[created.ID] = created
	return created.Clone(), nil
}

func (r *issueRepository) Get(ctx context.Context, id types.IssueID) (*model.Issue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	issue, exists := r.issues[id]
	if !exists {
		return nil, goerr.Wrap(model.ErrNotFound, "issue not found", goerr.V(model.IssueIDKey, id))
	}
	return issue.Clone(), nil
}

func (r *issueRepository) List(ctx context.Context, opts ...interfaces.ListIssueOption) ([]*model.Issue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cfg := interfaces.BuildListIssueConfig(opts...)
	issues := make([]*model.Issue, 0, len(r.issues))
	for _, issue := range r.issues {
		if cfg.Match(issue) {
			issues = append(issues, issue.Clone())
		}
	}

	slices.SortFunc(issues, func(a, b *model.Issue) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	if limit := cfg.Limit(); limit > 0 && len(issues) > limit {
		issues = issues[:limit]
	}
	return issues, nil
}

func (r *issueRepository) Update(ctx context.Context, issue *model.Issue) (*model.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.issues[issue.ID]
	if !exists {
		return nil, goerr.Wrap(model.ErrNotFound, "issue not found", goerr.V(model.IssueIDKey, issue.ID))
	}
	if existing.Version != issue.Version {
		return nil, goerr.Wrap(model.ErrConflict, "issue was modified concurrently",
			goerr.V(model.IssueIDKey, issue.ID),
			goerr.V(model.VersionKey, issue.Version),
			goerr.V("stored_version", existing.Version))
	}

	updated := issue.Clone()
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()
	updated.Version = existing.Version + 1

	r.issues[updated.ID] = updated
	return updated.Clone(), nil
}

func (r *issueRepository) Delete(ctx context.Context, id types.IssueID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.issues[id]; !exists {
		return goerr.Wrap(model.ErrNotFound, "issue not found", goerr.V(model.IssueIDKey, id))
	}
	delete(r.issues, id)
	return nil
}
