package interfaces

import (
	"github.com/makola-community/makola/pkg/domain/model"
	"github.com/makola-community/makola/pkg/domain/types"
)

// ListIssueOption is a functional option for filtering issues in List
type ListIssueOption func(*listIssueConfig)

type listIssueConfig struct {
	status     *types.IssueStatus
	category   *types.CategoryID
	reporter   *types.UserID
	officer    *types.UserID
	department *types.DepartmentID
	limit      int
}

// WithStatus filters issues by status
func WithStatus(status types.IssueStatus) ListIssueOption {
	return func(c *listIssueConfig) {
		c.status = &status
	}
}

// WithCategory filters issues by category
func WithCategory(category types.CategoryID) ListIssueOption {
	return func(c *listIssueConfig) {
		c.category = &category
	}
}

// WithReporter filters issues by the reporting resident
func WithReporter(id types.UserID) ListIssueOption {
	return func(c *listIssueConfig) {
		c.reporter = &id
	}
}

// WithOfficer filters issues by the assigned officer
func WithOfficer(id types.UserID) ListIssueOption {
	return func(c *listIssueConfig) {
		c.officer = &id
	}
}

// WithDepartment filters issues by the assigned department
func WithDepartment(id types.DepartmentID) ListIssueOption {
	return func(c *listIssueConfig) {
		c.department = &id
	}
}

// WithLimit caps the number of returned issues. Zero means no limit.
func WithLimit(n int) ListIssueOption {
	return func(c *listIssueConfig) {
		c.limit = n
	}
}

// BuildListIssueConfig builds a listIssueConfig from options
func BuildListIssueConfig(opts ...ListIssueOption) *listIssueConfig {
	cfg := &listIssueConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Status returns the status filter value, or nil if not set
func (c *listIssueConfig) Status() *types.IssueStatus {
	return c.status
}

func (c *listIssueConfig) Category() *types.CategoryID {
	return c.category
}

func (c *listIssueConfig) Reporter() *types.UserID {
	return c.reporter
}

func (c *listIssueConfig) Officer() *types.UserID {
	return c.officer
}

func (c *listIssueConfig) Department() *types.DepartmentID {
	return c.department
}

func (c *listIssueConfig) Limit() int {
	return c.limit
}

// Match reports whether the issue satisfies every filter that is set
func (c *listIssueConfig) Match(issue *model.Issue) bool {
	if c.status != nil && issue.Status != *c.status {
		return false
	}
	if c.category != nil && issue.Category != *c.category {
		return false
	}
	if c.reporter != nil && issue.ReporterID != *c.reporter {
		return false
	}
	if c.officer != nil && issue.AssignedOfficerID != *c.officer {
		return false
	}
	if c.department != nil && issue.AssignedDepartment != *c.department {
		return false
	}
	return true
}
