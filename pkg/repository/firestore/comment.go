package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/makola-community/makola/pkg/domain/model"
	"github.com/makola-community/makola/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// CommentsCollection is the base name of the comments collection
const CommentsCollection = "comments"

type commentRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newCommentRepository(client *firestore.Client) *commentRepository {
	return &commentRepository{
		client: client,
	}
}

func (r *commentRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(CollectionName(r.collectionPrefix, CommentsCollection))
}

func (r *commentRepository) Create(ctx context.Context, comment *model.Comment) (*model.Comment, error) {
	if comment.ID == "" {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "comment ID is required")
	}

	created := comment.Clone()
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}
	created.UpdatedAt = created.CreatedAt
	created.Version = 1
	created.Seq = nextSeq()

	if _, err := r.collection().Doc(created.ID.String()).Create(ctx, created); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil, goerr.Wrap(model.ErrConflict, "comment already exists", goerr.V(model.CommentIDKey, created.ID))
		}
		return nil, goerr.Wrap(err, "failed to create comment", goerr.V(model.CommentIDKey, created.ID))
	}

	return created, nil
}

func (r *commentRepository) Get(ctx context.Context, id types.CommentID) (*model.Comment, error) {
	docSnap, err := r.collection().Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrNotFound, "comment not found", goerr.V(model.CommentIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get comment", goerr.V(model.CommentIDKey, id))
	}

	var comment model.Comment
	if err := docSnap.DataTo(&comment); err != nil {
		return nil, goerr.Wrap(err, "failed to decode comment", goerr.V(model.CommentIDKey, id))
	}
	return &comment, nil
}

func (r *commentRepository) ListByIssue(ctx context.Context, issueID types.IssueID) ([]*model.Comment, error) {
	iter := r.collection().
		Where("issue_id", "==", issueID.String()).
		OrderBy("created_at", firestore.Asc).
		OrderBy("seq", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	var comments []*model.Comment
	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate comments", goerr.V(model.IssueIDKey, issueID))
		}

		var comment model.Comment
		if err := docSnap.DataTo(&comment); err != nil {
			return nil, goerr.Wrap(err, "failed to decode comment", goerr.V("doc_id", docSnap.Ref.ID))
		}
		comments = append(comments, &comment)
	}

	return comments, nil
}

func (r *commentRepository) Update(ctx context.Context, comment *model.Comment) (*model.Comment, error) {
	docRef := r.collection().Doc(comment.ID.String())

	var updated *model.Comment
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docSnap, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(model.ErrNotFound, "comment not found", goerr.V(model.CommentIDKey, comment.ID))
			}
			return goerr.Wrap(err, "failed to get comment", goerr.V(model.CommentIDKey, comment.ID))
		}

		var existing model.Comment
		if err := docSnap.DataTo(&existing); err != nil {
			return goerr.Wrap(err, "failed to decode comment", goerr.V(model.CommentIDKey, comment.ID))
		}
		if existing.Version != comment.Version {
			return goerr.Wrap(model.ErrConflict, "comment was modified concurrently",
				goerr.V(model.CommentIDKey, comment.ID),
				goerr.V(model.VersionKey, comment.Version),
				goerr.V("stored_version", existing.Version))
		}

		updated = comment.Clone()
		updated.CreatedAt = existing.CreatedAt
		updated.Seq = existing.Seq
		updated.UpdatedAt = time.Now().UTC()
		updated.Version = existing.Version + 1
		return tx.Set(docRef, updated)
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update comment", goerr.V(model.CommentIDKey, comment.ID))
	}

	return updated, nil
}

func (r *commentRepository) Delete(ctx context.Context, ids ...types.CommentID) error {
	refs := make([]*firestore.DocumentRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, r.collection().Doc(id.String()))
	}
	if err := bulkDelete(ctx, r.client, refs); err != nil {
		return goerr.Wrap(err, "failed to delete comments", goerr.V("count", len(ids)))
	}
	return nil
}

func (r *commentRepository) DeleteByIssue(ctx context.Context, issueID types.IssueID) error {
	iter := r.collection().Where("issue_id", "==", issueID.String()).Documents(ctx)
	defer iter.Stop()

	var refs []*firestore.DocumentRef
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return goerr.Wrap(err, "failed to iterate comments for deletion", goerr.V(model.IssueIDKey, issueID))
		}
		refs = append(refs, doc.Ref)
	}

	if err := bulkDelete(ctx, r.client, refs); err != nil {
		return goerr.Wrap(err, "failed to delete comments", goerr.V(model.IssueIDKey, issueID))
	}
	return nil
}
