package model

import (
	"cmp"
	"iter"
	"slices"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/makola-community/makola/pkg/domain/types"
)

// MaxCommentLength is the maximum number of characters in a comment
const MaxCommentLength = 2000

// CommentTreeService owns creation, editing, deletion and retrieval of the
// comments attached to an issue. Replies attach only to root comments, so a
// thread is at most one level deep.
type CommentTreeService struct {
	now   func() time.Time
	newID func() types.CommentID
}

// CommentTreeOption configures a CommentTreeService
type CommentTreeOption func(*CommentTreeService)

// WithCommentClock overrides the clock used to stamp comments
func WithCommentClock(now func() time.Time) CommentTreeOption {
	return func(s *CommentTreeService) {
		s.now = now
	}
}

// WithCommentIDGenerator overrides how new comment IDs are generated
func WithCommentIDGenerator(gen func() types.CommentID) CommentTreeOption {
	return func(s *CommentTreeService) {
		s.newID = gen
	}
}

func NewCommentTreeService(opts ...CommentTreeOption) *CommentTreeService {
	s := &CommentTreeService{
		now:   func() time.Time { return time.Now().UTC() },
		newID: types.NewCommentID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddRootComment creates a top-level comment on the issue
func (s *CommentTreeService) AddRootComment(issueID types.IssueID, author Requester, content string) (*Comment, error) {
	return s.newComment(issueID, "", author, content)
}

// AddReply creates a reply under a root comment of the same issue. A reply to
// a reply is rejected rather than flattened.
func (s *CommentTreeService) AddReply(issueID types.IssueID, parent *Comment, author Requester, content string) (*Comment, error) {
	if parent == nil || parent.IssueID != issueID {
		return nil, goerr.Wrap(ErrNotFound, "parent comment not found", goerr.V(IssueIDKey, issueID))
	}
	if !parent.IsRoot() {
		return nil, goerr.Wrap(ErrInvalidArgument, "replies can only be added to root comments",
			goerr.V(IssueIDKey, issueID), goerr.V(CommentIDKey, parent.ID))
	}
	return s.newComment(issueID, parent.ID, author, content)
}

func (s *CommentTreeService) newComment(issueID types.IssueID, parentID types.CommentID, author Requester, content string) (*Comment, error) {
	if !author.IsAuthenticated() {
		return nil, goerr.Wrap(ErrUnauthorized, "commenting requires an authenticated user", goerr.V(IssueIDKey, issueID))
	}
	if issueID == "" {
		return nil, goerr.Wrap(ErrInvalidArgument, "issue ID is required")
	}
	content, err := normalizeContent(content)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid comment", goerr.V(IssueIDKey, issueID))
	}

	now := s.now()
	return &Comment{
		ID:         s.newID(),
		IssueID:    issueID,
		AuthorID:   author.ID,
		AuthorRole: author.Role,
		Content:    content,
		ParentID:   parentID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// EditComment replaces the content of a comment. Only the author may edit;
// no role elevates edit rights.
func (s *CommentTreeService) EditComment(comment *Comment, requester Requester, content string) (*Comment, error) {
	if comment == nil {
		return nil, goerr.Wrap(ErrNotFound, "comment not found")
	}
	if !requester.IsAuthenticated() || !requester.Is(comment.AuthorID) {
		return nil, goerr.Wrap(ErrUnauthorized, "only the author can edit a comment",
			goerr.V(CommentIDKey, comment.ID), goerr.V(RequesterKey, requester.ID))
	}
	content, err := normalizeContent(content)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid comment", goerr.V(CommentIDKey, comment.ID))
	}

	updated := comment.Clone()
	updated.Content = content
	updated.UpdatedAt = s.now()
	return updated, nil
}

// DeleteComment checks that the requester is the author or a councilor and
// returns the IDs to remove: the comment itself and, for a root comment, every
// reply found in issueComments.
func (s *CommentTreeService) DeleteComment(comment *Comment, requester Requester, issueComments []*Comment) ([]types.CommentID, error) {
	if comment == nil {
		return nil, goerr.Wrap(ErrNotFound, "comment not found")
	}
	isAuthor := requester.IsAuthenticated() && requester.Is(comment.AuthorID)
	if !isAuthor && !requester.IsCouncilor() {
		return nil, goerr.Wrap(ErrUnauthorized, "only the author or a councilor can delete a comment",
			goerr.V(CommentIDKey, comment.ID), goerr.V(RequesterKey, requester.ID))
	}

	removed := []types.CommentID{comment.ID}
	if comment.IsRoot() {
		for _, c := range issueComments {
			if c != nil && c.IssueID == comment.IssueID && c.ParentID == comment.ID {
				removed = append(removed, c.ID)
			}
		}
	}
	return removed, nil
}

// ListRootComments returns the issue's threads in creation order. The
// sequence is evaluated on each iteration, so it can be ranged over again.
// Comments of other issues and replies without a root are skipped.
func (s *CommentTreeService) ListRootComments(issueID types.IssueID, comments []*Comment) iter.Seq[*CommentThread] {
	return func(yield func(*CommentThread) bool) {
		var roots []*Comment
		replies := make(map[types.CommentID][]*Comment)
		for _, c := range comments {
			if c == nil || c.IssueID != issueID {
				continue
			}
			if c.IsRoot() {
				roots = append(roots, c)
			} else {
				replies[c.ParentID] = append(replies[c.ParentID], c)
			}
		}

		slices.SortStableFunc(roots, byCreation)
		for _, root := range roots {
			children := replies[root.ID]
			slices.SortStableFunc(children, byCreation)

			thread := &CommentThread{
				Root:    root.Clone(),
				Replies: make([]*Comment, 0, len(children)),
			}
			for _, r := range children {
				thread.Replies = append(thread.Replies, r.Clone())
			}
			if !yield(thread) {
				return
			}
		}
	}
}

func byCreation(a, b *Comment) int {
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.Seq, b.Seq)
}

func normalizeContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", goerr.Wrap(ErrInvalidArgument, "comment content is required")
	}
	if len([]rune(content)) > MaxCommentLength {
		return "", goerr.Wrap(ErrInvalidArgument, "comment content is too long",
			goerr.V("max_length", MaxCommentLength))
	}
	return content, nil
}
