package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/makola-community/makola/pkg/domain/interfaces"
	"github.com/makola-community/makola/pkg/domain/model"
	"github.com/makola-community/makola/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// IssuesCollection is the base name of the issues collection
const IssuesCollection = "issues"

type issueRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newIssueRepository(client *firestore.Client) *issueRepository {
	return &issueRepository{
		client: client,
	}
}

func (r *issueRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(CollectionName(r.collectionPrefix, IssuesCollection))
}

func (r *issueRepository) Create(ctx context.Context, issue *model.Issue) (*model.Issue, error) {
	if issue.ID == "" {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "issue ID is required")
	}

	created := issue.Clone()
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}
	created.UpdatedAt = created.CreatedAt
	created.Version = 1

	if _, err := r.collection().Doc(created.ID.String()).Create(ctx, created); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil, goerr.Wrap(model.ErrConflict, "issue already exists", goerr.V(model.IssueIDKey, created.ID))
		}
		return nil, goerr.Wrap(err, "failed to create issue", goerr.V(model.IssueIDKey, created.ID))
	}

	return created, nil
}

func (r *issueRepository) Get(ctx context.Context, id types.IssueID) (*model.Issue, error) {
	docSnap, err := r.collection().Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrNotFound, "issue not found", goerr.V(model.IssueIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get issue", goerr.V(model.IssueIDKey, id))
	}

	var issue model.Issue
	if err := docSnap.DataTo(&issue); err != nil {
		return nil, goerr.Wrap(err, "failed to decode issue", goerr.V(model.IssueIDKey, id))
	}
	return &issue, nil
}

func (r *issueRepository) List(ctx context.Context, opts ...interfaces.ListIssueOption) ([]*model.Issue, error) {
	cfg := interfaces.BuildListIssueConfig(opts...)

	query := r.collection().Query
	if s := cfg.Status(); s != nil {
		query = query.Where("status", "==", string(*s))
	}
	if c := cfg.Category(); c != nil {
		query = query.Where("category", "==", string(*c))
	}
	if id := cfg.Reporter(); id != nil {
		query = query.Where("reporter_id", "==", string(*id))
	}
	if id := cfg.Officer(); id != nil {
		query = query.Where("assigned_officer_id", "==", string(*id))
	}
	if d := cfg.Department(); d != nil {
		query = query.Where("assigned_department", "==", string(*d))
	}
	query = query.OrderBy("created_at", firestore.Desc)
	if limit := cfg.Limit(); limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	issues := []*model.Issue{}
	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate issues")
		}

		var issue model.Issue
		if err := docSnap.DataTo(&issue); err != nil {
			return nil, goerr.Wrap(err, "failed to decode issue", goerr.V("doc_id", docSnap.Ref.ID))
		}
		issues = append(issues, &issue)
	}

	return issues, nil
}

func (r *issueRepository) Update(ctx context.Context, issue *model.Issue) (*model.Issue, error) {
	docRef := r.collection().Doc(issue.ID.String())

	var updated *model.Issue
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docSnap, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(model.ErrNotFound, "issue not found", goerr.V(model.IssueIDKey, issue.ID))
			}
			return goerr.Wrap(err, "failed to get issue", goerr.V(model.IssueIDKey, issue.ID))
		}

		var existing model.Issue
		if err := docSnap.DataTo(&existing); err != nil {
			return goerr.Wrap(err, "failed to decode issue", goerr.V(model.IssueIDKey, issue.ID))
		}
		if existing.Version != issue.Version {
			return goerr.Wrap(model.ErrConflict, "issue was modified concurrently",
				goerr.V(model.IssueIDKey, issue.ID),
				goerr.V(model.VersionKey, issue.Version),
				goerr.V("stored_version", existing.Version))
		}

		updated = issue.Clone()
		updated.CreatedAt = existing.CreatedAt
		updated.UpdatedAt = time.Now().UTC()
		updated.Version = existing.Version + 1
		return tx.Set(docRef, updated)
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update issue", goerr.V(model.IssueIDKey, issue.ID))
	}

	return updated, nil
}

func (r *issueRepository) Delete(ctx context.Context, id types.IssueID) error {
	docRef := r.collection().Doc(id.String())

	if _, err := docRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(model.ErrNotFound, "issue not found", goerr.V(model.IssueIDKey, id))
		}
		return goerr.Wrap(err, "failed to check issue existence", goerr.V(model.IssueIDKey, id))
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete issue", goerr.V(model.IssueIDKey, id))
	}
	return nil
}
