package model

import (
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/makola-community/makola/pkg/domain/types"
)

// IssueLifecycleService owns status transitions, assignment, upvotes and
// deletion authority of issues. It is stateless: every operation takes the
// current issue and the requester and returns a new issue without modifying
// its input.
type IssueLifecycleService struct {
	now   func() time.Time
	newID func() types.IssueID
}

// IssueLifecycleOption configures an IssueLifecycleService
type IssueLifecycleOption func(*IssueLifecycleService)

// WithIssueClock overrides the clock used to stamp new issues
func WithIssueClock(now func() time.Time) IssueLifecycleOption {
	return func(s *IssueLifecycleService) {
		s.now = now
	}
}

// WithIssueIDGenerator overrides how new issue IDs are generated
func WithIssueIDGenerator(gen func() types.IssueID) IssueLifecycleOption {
	return func(s *IssueLifecycleService) {
		s.newID = gen
	}
}

func NewIssueLifecycleService(opts ...IssueLifecycleOption) *IssueLifecycleService {
	s := &IssueLifecycleService{
		now:   func() time.Time { return time.Now().UTC() },
		newID: types.NewIssueID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open builds a new issue in the open state reported by the requester.
func (s *IssueLifecycleService) Open(requester Requester, draft IssueDraft) (*Issue, error) {
	if !requester.IsAuthenticated() {
		return nil, goerr.Wrap(ErrUnauthorized, "reporting an issue requires an authenticated user")
	}

	title := strings.TrimSpace(draft.Title)
	if title == "" {
		return nil, goerr.Wrap(ErrInvalidArgument, "issue title is required")
	}
	description := strings.TrimSpace(draft.Description)
	if description == "" {
		return nil, goerr.Wrap(ErrInvalidArgument, "issue description is required")
	}
	if err := draft.Category.Validate(); err != nil {
		return nil, goerr.Wrap(ErrInvalidArgument, "invalid issue category", goerr.V("error", err.Error()))
	}
	priority := draft.Priority.Normalize()
	if !priority.IsValid() {
		return nil, goerr.Wrap(ErrInvalidArgument, "invalid issue priority", goerr.V("priority", draft.Priority))
	}

	photos := make([]string, 0, len(draft.Photos))
	for _, p := range draft.Photos {
		if p = strings.TrimSpace(p); p != "" {
			photos = append(photos, p)
		}
	}

	var coords *Coordinates
	if draft.Coordinates != nil {
		c := *draft.Coordinates
		coords = &c
	}

	now := s.now()
	return &Issue{
		ID:           s.newID(),
		Title:        title,
		Description:  description,
		Category:     draft.Category,
		Status:       types.IssueStatusOpen,
		Priority:     priority,
		ReporterID:   requester.ID,
		Location:     strings.TrimSpace(draft.Location),
		Coordinates:  coords,
		Photos:       photos,
		DateObserved: draft.DateObserved,
		TimeObserved: draft.TimeObserved,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ChangeStatus moves the issue along the status state machine. Only a
// councilor or the officer assigned to the issue may change its status.
func (s *IssueLifecycleService) ChangeStatus(issue *Issue, requester Requester, to types.IssueStatus) (*Issue, error) {
	if issue == nil {
		return nil, goerr.Wrap(ErrNotFound, "issue not found")
	}
	if err := authorizeStatusChange(issue, requester); err != nil {
		return nil, err
	}
	if !to.IsValid() {
		return nil, goerr.Wrap(ErrInvalidArgument, "unknown issue status",
			goerr.V(IssueIDKey, issue.ID), goerr.V(ToStatusKey, to))
	}
	if !issue.Status.CanTransitionTo(to) {
		return nil, goerr.Wrap(ErrInvalidTransition, "status transition is not allowed",
			goerr.V(IssueIDKey, issue.ID),
			goerr.V(FromStatusKey, issue.Status),
			goerr.V(ToStatusKey, to))
	}

	updated := issue.Clone()
	updated.Status = to
	return updated, nil
}

func authorizeStatusChange(issue *Issue, requester Requester) error {
	if !requester.IsAuthenticated() {
		return goerr.Wrap(ErrUnauthorized, "status change requires an authenticated user",
			goerr.V(IssueIDKey, issue.ID))
	}

	switch requester.Role {
	case types.RoleUrbanCouncilor:
		return nil
	case types.RoleDepartmentOfficer:
		if issue.IsAssigned() && requester.Is(issue.AssignedOfficerID) {
			return nil
		}
		return goerr.Wrap(ErrUnauthorized, "officer is not assigned to this issue",
			goerr.V(IssueIDKey, issue.ID), goerr.V(RequesterKey, requester.ID))
	default:
		return goerr.Wrap(ErrUnauthorized, "role cannot change issue status",
			goerr.V(IssueIDKey, issue.ID), goerr.V(RoleKey, requester.Role))
	}
}

// AssignOfficer routes the issue to an officer of the given department. The
// department is trusted as supplied; the caller validates it against the
// officer's profile. Status is left untouched.
func (s *IssueLifecycleService) AssignOfficer(issue *Issue, requester Requester, officerID types.UserID, department types.DepartmentID) (*Issue, error) {
	if issue == nil {
		return nil, goerr.Wrap(ErrNotFound, "issue not found")
	}
	if !requester.IsCouncilor() {
		return nil, goerr.Wrap(ErrUnauthorized, "only urban councilors can assign officers",
			goerr.V(IssueIDKey, issue.ID), goerr.V(RoleKey, requester.Role))
	}
	if strings.TrimSpace(string(officerID)) == "" {
		return nil, goerr.Wrap(ErrInvalidArgument, "officer ID is required", goerr.V(IssueIDKey, issue.ID))
	}
	if strings.TrimSpace(string(department)) == "" {
		return nil, goerr.Wrap(ErrInvalidArgument, "department is required", goerr.V(IssueIDKey, issue.ID))
	}
	if issue.Status.IsTerminal() {
		return nil, goerr.Wrap(ErrInvalidTransition, "cannot assign a finished issue",
			goerr.V(IssueIDKey, issue.ID), goerr.V(FromStatusKey, issue.Status))
	}

	updated := issue.Clone()
	updated.AssignedOfficerID = officerID
	updated.AssignedDepartment = department
	return updated, nil
}

// Upvote increments the vote count. It does not de-duplicate votes; callers
// that need one vote per user keep a vote ledger.
func (s *IssueLifecycleService) Upvote(issue *Issue, requester Requester) (*Issue, error) {
	if issue == nil {
		return nil, goerr.Wrap(ErrNotFound, "issue not found")
	}
	if !requester.IsAuthenticated() {
		return nil, goerr.Wrap(ErrUnauthorized, "upvoting requires an authenticated user",
			goerr.V(IssueIDKey, issue.ID))
	}

	updated := issue.Clone()
	updated.VoteCount++
	return updated, nil
}

// DeleteIssue checks whether the requester may delete the issue: any
// councilor, or the resident who reported it. Storage removal and the cascade
// to comments are the caller's job.
func (s *IssueLifecycleService) DeleteIssue(issue *Issue, requester Requester) error {
	if issue == nil {
		return goerr.Wrap(ErrNotFound, "issue not found")
	}
	if requester.IsCouncilor() {
		return nil
	}
	if requester.IsAuthenticated() && requester.Role == types.RoleResident && requester.Is(issue.ReporterID) {
		return nil
	}
	return goerr.Wrap(ErrUnauthorized, "requester cannot delete this issue",
		goerr.V(IssueIDKey, issue.ID), goerr.V(RequesterKey, requester.ID), goerr.V(RoleKey, requester.Role))
}

// AuthorizeDetailsEdit checks that the requester may change the issue's
// descriptive attributes: the reporting resident or a councilor, and only
// while the issue is not finished.
func (s *IssueLifecycleService) AuthorizeDetailsEdit(issue *Issue, requester Requester) error {
	if issue == nil {
		return goerr.Wrap(ErrNotFound, "issue not found")
	}
	isReporter := requester.IsAuthenticated() && requester.Role == types.RoleResident && requester.Is(issue.ReporterID)
	if !isReporter && !requester.IsCouncilor() {
		return goerr.Wrap(ErrUnauthorized, "requester cannot edit this issue",
			goerr.V(IssueIDKey, issue.ID), goerr.V(RequesterKey, requester.ID))
	}
	if issue.Status.IsTerminal() {
		return goerr.Wrap(ErrInvalidTransition, "finished issues cannot be edited",
			goerr.V(IssueIDKey, issue.ID), goerr.V(FromStatusKey, issue.Status))
	}
	return nil
}

// UpdateDetails applies a patch of descriptive attributes.
func (s *IssueLifecycleService) UpdateDetails(issue *Issue, requester Requester, patch IssuePatch) (*Issue, error) {
	if err := s.AuthorizeDetailsEdit(issue, requester); err != nil {
		return nil, err
	}

	updated := issue.Clone()
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, goerr.Wrap(ErrInvalidArgument, "issue title cannot be empty", goerr.V(IssueIDKey, issue.ID))
		}
		updated.Title = title
	}
	if patch.Description != nil {
		description := strings.TrimSpace(*patch.Description)
		if description == "" {
			return nil, goerr.Wrap(ErrInvalidArgument, "issue description cannot be empty", goerr.V(IssueIDKey, issue.ID))
		}
		updated.Description = description
	}
	if patch.Category != nil {
		if err := patch.Category.Validate(); err != nil {
			return nil, goerr.Wrap(ErrInvalidArgument, "invalid issue category",
				goerr.V(IssueIDKey, issue.ID), goerr.V("error", err.Error()))
		}
		updated.Category = *patch.Category
	}
	if patch.Priority != nil {
		if !patch.Priority.IsValid() {
			return nil, goerr.Wrap(ErrInvalidArgument, "invalid issue priority",
				goerr.V(IssueIDKey, issue.ID), goerr.V("priority", *patch.Priority))
		}
		updated.Priority = *patch.Priority
	}
	if patch.Location != nil {
		updated.Location = strings.TrimSpace(*patch.Location)
	}
	if patch.Coordinates != nil {
		coords := *patch.Coordinates
		updated.Coordinates = &coords
	}
	if patch.DateObserved != nil {
		updated.DateObserved = *patch.DateObserved
	}
	if patch.TimeObserved != nil {
		updated.TimeObserved = *patch.TimeObserved
	}
	return updated, nil
}

// AttachPhoto appends a photo URL produced by the object store
func (s *IssueLifecycleService) AttachPhoto(issue *Issue, requester Requester, url string) (*Issue, error) {
	if err := s.AuthorizeDetailsEdit(issue, requester); err != nil {
		return nil, err
	}
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, goerr.Wrap(ErrInvalidArgument, "photo URL is required", goerr.V(IssueIDKey, issue.ID))
	}

	updated := issue.Clone()
	updated.Photos = append(updated.Photos, url)
	return updated, nil
}
