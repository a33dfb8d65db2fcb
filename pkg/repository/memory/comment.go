package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/makola-community/makola/pkg/domain/model"
	"github.com/makola-community/makola/pkg/domain/types"
)

type commentRepository struct {
	mu       sync.RWMutex
	comments map[types.CommentID]*model.Comment
	seq      int64
}

func newCommentRepository() *commentRepository {
	return &commentRepository{
		comments: make(map[types.CommentID]*model.Comment),
	}
}

func (r *commentRepository) Create(ctx context.Context, comment *model.Comment) (*model.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if comment.ID == "" {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "comment ID is required")
	}
	if _, exists := r.comments[comment.ID]; exists {
		return nil, goerr.Wrap(model.ErrConflict, "comment already exists", goerr.V(model.CommentIDKey, comment.ID))
	}

	created := comment.Clone()
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}
	created.UpdatedAt = created.CreatedAt
	created.Version = 1
	r.seq++
	created.Seq = r.seq

	r.comments[created.ID] = created
	return created.Clone(), nil
}

func (r *commentRepository) Get(ctx context.Context, id types.CommentID) (*model.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	comment, exists := r.comments[id]
	if !exists {
		return nil, goerr.Wrap(model.ErrNotFound, "comment not found", goerr.V(model.CommentIDKey, id))
	}
	return comment.Clone(), nil
}

func (r *commentRepository) ListByIssue(ctx context.Context, issueID types.IssueID) ([]*model.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var comments []*model.Comment
	for _, c := range r.comments {
		if c.IssueID == issueID {
			comments = append(comments, c.Clone())
		}
	}

	slices.SortFunc(comments, func(a, b *model.Comment) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Seq, b.Seq)
	})
	return comments, nil
}

func (r *commentRepository) Update(ctx context.Context, comment *model.Comment) (*model.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.comments[comment.ID]
	if !exists {
		return nil, goerr.Wrap(model.ErrNotFound, "comment not found", goerr.V(model.CommentIDKey, comment.ID))
	}
	if existing.Version != comment.Version {
		return nil, goerr.Wrap(model.ErrConflict, "comment was modified concurrently",
			goerr.V(model.CommentIDKey, comment.ID),
			goerr.V(model.VersionKey, comment.Version),
			goerr.V("stored_version", existing.Version))
	}

	updated := comment.Clone()
	updated.CreatedAt = existing.CreatedAt
	updated.Seq = existing.Seq
	updated.UpdatedAt = time.Now().UTC()
	updated.Version = existing.Version + 1

	r.comments[updated.ID] = updated
	return updated.Clone(), nil
}

func (r *commentRepository) Delete(ctx context.Context, ids ...types.CommentID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range ids {
		delete(r.comments, id)
	}
	return nil
}

func (r *commentRepository) DeleteByIssue(ctx context.Context, issueID types.IssueID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, c := range r.comments {
		if c.IssueID == issueID {
			delete(r.comments, id)
		}
	}
	return nil
}
