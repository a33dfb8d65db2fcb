package model

import "github.com/m-mizutani/goerr/v2"

// Error kinds returned by the issue and comment domain services. Callers match
// them with errors.Is and translate them to their transport's representation.
var (
	ErrUnauthorized      = goerr.New("unauthorized")
	ErrInvalidTransition = goerr.New("invalid status transition")
	ErrInvalidArgument   = goerr.New("invalid argument")
	ErrNotFound          = goerr.New("not found")
	ErrConflict          = goerr.New("version conflict")
)

// Context keys for error values
const (
	IssueIDKey    = "issue_id"
	CommentIDKey  = "comment_id"
	RequesterKey  = "requester_id"
	RoleKey       = "role"
	FromStatusKey = "from_status"
	ToStatusKey   = "to_status"
	VersionKey    = "version"
)
