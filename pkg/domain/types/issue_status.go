package types

import "fmt"

// IssueStatus represents the lifecycle state of a reported issue
type IssueStatus string

const (
	IssueStatusOpen       IssueStatus = "open"
	IssueStatusInProgress IssueStatus = "in_progress"
	IssueStatusResolved   IssueStatus = "resolved"
	IssueStatusClosed     IssueStatus = "closed"
)

// AllIssueStatuses returns all valid issue statuses
func AllIssueStatuses() []IssueStatus {
	return []IssueStatus{
		IssueStatusOpen,
		IssueStatusInProgress,
		IssueStatusResolved,
		IssueStatusClosed,
	}
}

// IsValid checks if the issue status is valid
func (s IssueStatus) IsValid() bool {
	switch s {
	case IssueStatusOpen,
		IssueStatusInProgress,
		IssueStatusResolved,
		IssueStatusClosed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition may leave this status
func (s IssueStatus) IsTerminal() bool {
	return s == IssueStatusResolved || s == IssueStatusClosed
}

// CanTransitionTo reports whether s -> to is an edge of the issue state machine.
func (s IssueStatus) CanTransitionTo(to IssueStatus) bool {
	if !s.IsValid() || !to.IsValid() || s.IsTerminal() {
		return false
	}

	switch to {
	case IssueStatusInProgress:
		return s == IssueStatusOpen
	case IssueStatusResolved:
		return s == IssueStatusOpen || s == IssueStatusInProgress
	case IssueStatusClosed:
		return true
	default:
		return false
	}
}

// String returns the string representation of the issue status
func (s IssueStatus) String() string {
	return string(s)
}

// ParseIssueStatus parses a string into an IssueStatus
func ParseIssueStatus(s string) (IssueStatus, error) {
	status := IssueStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid issue status: %s", s)
	}
	return status, nil
}
