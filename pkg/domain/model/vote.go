package model

import (
	"time"

	"github.com/makola-community/makola/pkg/domain/types"
)

// Vote records that a user upvoted an issue. At most one vote exists per
// (issue, user) pair.
type Vote struct {
	IssueID   types.IssueID `json:"issue_id" firestore:"issue_id"`
	UserID    types.UserID  `json:"user_id" firestore:"user_id"`
	CreatedAt time.Time     `json:"created_at" firestore:"created_at"`
}
