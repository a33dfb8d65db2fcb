package model

import (
	"time"

	"github.com/makola-community/makola/pkg/domain/types"
)

// Coordinates is the geographic position where an issue was observed
type Coordinates struct {
	Latitude  float64 `json:"latitude" firestore:"latitude"`
	Longitude float64 `json:"longitude" firestore:"longitude"`
}

// Issue represents a community problem reported by a resident
type Issue struct {
	ID                 types.IssueID      `json:"id" firestore:"id"`
	Title              string             `json:"title" firestore:"title"`
	Description        string             `json:"description" firestore:"description"`
	Category           types.CategoryID   `json:"category" firestore:"category"`
	Status             types.IssueStatus  `json:"status" firestore:"status"`
	Priority           types.Priority     `json:"priority" firestore:"priority"`
	ReporterID         types.UserID       `json:"reporter_id" firestore:"reporter_id"`
	AssignedOfficerID  types.UserID       `json:"assigned_officer_id,omitempty" firestore:"assigned_officer_id"`
	AssignedDepartment types.DepartmentID `json:"assigned_department,omitempty" firestore:"assigned_department"`
	VoteCount          int64              `json:"vote_count" firestore:"vote_count"`
	Location           string             `json:"location" firestore:"location"`
	Coordinates        *Coordinates       `json:"coordinates,omitempty" firestore:"coordinates"`
	Photos             []string           `json:"photos" firestore:"photos"`
	DateObserved       string             `json:"date_observed,omitempty" firestore:"date_observed"`
	TimeObserved       string             `json:"time_observed,omitempty" firestore:"time_observed"`
	CreatedAt          time.Time          `json:"created_at" firestore:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at" firestore:"updated_at"`
	Version            int64              `json:"version" firestore:"version"`
}

// Clone returns a deep copy of the issue
func (i *Issue) Clone() *Issue {
	if i == nil {
		return nil
	}
	cloned := *i
	if i.Coordinates != nil {
		coords := *i.Coordinates
		cloned.Coordinates = &coords
	}
	cloned.Photos = make([]string, len(i.Photos))
	copy(cloned.Photos, i.Photos)
	return &cloned
}

// IsAssigned reports whether an officer is assigned to the issue
func (i *Issue) IsAssigned() bool {
	return i.AssignedOfficerID != ""
}

// IssueDraft holds the resident-supplied attributes of a new issue
type IssueDraft struct {
	Title        string
	Description  string
	Category     types.CategoryID
	Priority     types.Priority
	Location     string
	Coordinates  *Coordinates
	Photos       []string
	DateObserved string
	TimeObserved string
}

// IssuePatch holds optional detail changes; nil fields are left unchanged
type IssuePatch struct {
	Title        *string
	Description  *string
	Category     *types.CategoryID
	Priority     *types.Priority
	Location     *string
	Coordinates  *Coordinates
	DateObserved *string
	TimeObserved *string
}

// IssueDetail is an issue together with its comment threads and whether the
// requester has upvoted it
type IssueDetail struct {
	Issue        *Issue           `json:"issue"`
	Threads      []*CommentThread `json:"comments"`
	UserHasVoted bool             `json:"user_has_voted"`
}
