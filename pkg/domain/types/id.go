package types

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// IssueID identifies an issue
type IssueID string

// NewIssueID generates a random IssueID
func NewIssueID() IssueID {
	return IssueID(uuid.NewString())
}

func (id IssueID) String() string {
	return string(id)
}

// CommentID identifies a comment or reply
type CommentID string

// NewCommentID generates a random CommentID
func NewCommentID() CommentID {
	return CommentID(uuid.NewString())
}

func (id CommentID) String() string {
	return string(id)
}

// UserID identifies a user as issued by the external auth service
type UserID string

func (id UserID) String() string {
	return string(id)
}

var photoExtPattern = regexp.MustCompile(`^\.[a-z0-9]{1,5}$`)

// NewPhotoName returns a random object name for an uploaded photo. ext is kept
// when it looks like a file extension and dropped otherwise.
func NewPhotoName(ext string) string {
	ext = strings.ToLower(ext)
	if !photoExtPattern.MatchString(ext) {
		ext = ""
	}
	return uuid.NewString() + ext
}
