package types

// DepartmentID identifies a municipal department that officers belong to.
// Each department may route notifications to its own Slack channel.
type DepartmentID string

func (d DepartmentID) Validate() error { return checkSlug("department", string(d)) }

func (d DepartmentID) String() string { return string(d) }
