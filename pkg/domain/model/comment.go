package model

import (
	"time"

	"github.com/makola-community/makola/pkg/domain/types"
)

// Comment is a root comment or a reply attached to an issue
type Comment struct {
	ID         types.CommentID `json:"id" firestore:"id"`
	IssueID    types.IssueID   `json:"issue_id" firestore:"issue_id"`
	AuthorID   types.UserID    `json:"author_id" firestore:"author_id"`
	AuthorRole types.Role      `json:"author_role" firestore:"author_role"`
	Content    string          `json:"content" firestore:"content"`
	ParentID   types.CommentID `json:"parent_id,omitempty" firestore:"parent_id"` // empty for root comments
	CreatedAt  time.Time       `json:"created_at" firestore:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" firestore:"updated_at"`
	Version    int64           `json:"version" firestore:"version"`
	// Seq is assigned by the repository on create and orders comments
	// sharing a timestamp
	Seq int64 `json:"-" firestore:"seq"`
}

// IsRoot reports whether the comment is attached directly to the issue
func (c *Comment) IsRoot() bool {
	return c.ParentID == ""
}

// Clone returns a copy of the comment
func (c *Comment) Clone() *Comment {
	if c == nil {
		return nil
	}
	cloned := *c
	return &cloned
}

// CommentThread is a root comment together with its replies in creation order
type CommentThread struct {
	Root    *Comment   `json:"comment"`
	Replies []*Comment `json:"replies"`
}
