package firestore

import (
	"context"
	"sync/atomic"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/makola-community/makola/pkg/domain/interfaces"
)

type Firestore struct {
	client  *firestore.Client
	issue   *issueRepository
	comment *commentRepository
	vote    *voteRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

// WithCollectionPrefix prepends prefix to every collection name, so several
// deployments or test runs can share one database.
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.issue.collectionPrefix = prefix
		f.comment.collectionPrefix = prefix
		f.vote.collectionPrefix = prefix
	}
}

// New connects to the given database. An empty databaseID selects the
// default database.
func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID), goerr.V("databaseID", databaseID))
	}

	f := &Firestore{
		client:  client,
		issue:   newIssueRepository(client),
		comment: newCommentRepository(client),
		vote:    newVoteRepository(client),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) Issue() interfaces.IssueRepository {
	return f.issue
}

func (f *Firestore) Comment() interfaces.CommentRepository {
	return f.comment
}

func (f *Firestore) Vote() interfaces.VoteRepository {
	return f.vote
}

func (f *Firestore) Close(ctx context.Context) error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

// CollectionName returns the collection name under prefix
func CollectionName(prefix, name string) string {
	if prefix != "" {
		return prefix + "_" + name
	}
	return name
}

var lastSeq atomic.Int64

// nextSeq returns a nanosecond stamp strictly greater than any earlier one
// of this process
func nextSeq() int64 {
	for {
		last := lastSeq.Load()
		next := max(time.Now().UnixNano(), last+1)
		if lastSeq.CompareAndSwap(last, next) {
			return next
		}
	}
}

// bulkDelete deletes refs in one BulkWriter and returns the first failed write
func bulkDelete(ctx context.Context, client *firestore.Client, refs []*firestore.DocumentRef) error {
	if len(refs) == 0 {
		return nil
	}

	bulkWriter := client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(refs))
	for _, ref := range refs {
		job, err := bulkWriter.Delete(ref)
		if err != nil {
			bulkWriter.End()
			return goerr.Wrap(err, "failed to enqueue delete", goerr.V("doc_path", ref.Path))
		}
		jobs = append(jobs, job)
	}
	bulkWriter.End()

	for i, job := range jobs {
		if _, err := job.Results(); err != nil {
			return goerr.Wrap(err, "failed to delete document", goerr.V("doc_path", refs[i].Path))
		}
	}
	return nil
}
