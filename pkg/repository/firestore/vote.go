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

// VotesCollection is the base name of the votes collection
const VotesCollection = "votes"

type voteRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newVoteRepository(client *firestore.Client) *voteRepository {
	return &voteRepository{
		client: client,
	}
}

func (r *voteRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(CollectionName(r.collectionPrefix, VotesCollection))
}

// voteDocID makes the (issue, user) pair the document key, so a second vote
// collides on Create.
func voteDocID(issueID types.IssueID, userID types.UserID) string {
	return issueID.String() + "_" + userID.String()
}

func (r *voteRepository) Put(ctx context.Context, vote *model.Vote) (bool, error) {
	if vote.IssueID == "" || vote.UserID == "" {
		return false, goerr.Wrap(model.ErrInvalidArgument, "vote requires issue and user",
			goerr.V(model.IssueIDKey, vote.IssueID), goerr.V(model.RequesterKey, vote.UserID))
	}

	stored := *vote
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	_, err := r.collection().Doc(voteDocID(vote.IssueID, vote.UserID)).Create(ctx, &stored)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return false, nil
		}
		return false, goerr.Wrap(err, "failed to put vote",
			goerr.V(model.IssueIDKey, vote.IssueID), goerr.V(model.RequesterKey, vote.UserID))
	}
	return true, nil
}

func (r *voteRepository) Exists(ctx context.Context, issueID types.IssueID, userID types.UserID) (bool, error) {
	_, err := r.collection().Doc(voteDocID(issueID, userID)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return false, nil
		}
		return false, goerr.Wrap(err, "failed to get vote",
			goerr.V(model.IssueIDKey, issueID), goerr.V(model.RequesterKey, userID))
	}
	return true, nil
}

func (r *voteRepository) Delete(ctx context.Context, issueID types.IssueID, userID types.UserID) error {
	if _, err := r.collection().Doc(voteDocID(issueID, userID)).Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete vote",
			goerr.V(model.IssueIDKey, issueID), goerr.V(model.RequesterKey, userID))
	}
	return nil
}

func (r *voteRepository) DeleteByIssue(ctx context.Context, issueID types.IssueID) error {
	iter := r.collection().Where("issue_id", "==", issueID.String()).Documents(ctx)
	defer iter.Stop()

	var refs []*firestore.DocumentRef
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return goerr.Wrap(err, "failed to iterate votes for deletion", goerr.V(model.IssueIDKey, issueID))
		}
		refs = append(refs, doc.Ref)
	}

	if err := bulkDelete(ctx, r.client, refs); err != nil {
		return goerr.Wrap(err, "failed to delete votes", goerr.V(model.IssueIDKey, issueID))
	}
	return nil
}
