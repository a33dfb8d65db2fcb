package config

import "github.com/makola-community/makola/pkg/domain/types"

// Category represents an issue category configuration
type Category struct {
	ID   types.CategoryID
	Name string
}

// Department represents a municipal department configuration
type Department struct {
	ID           types.DepartmentID
	Name         string
	SlackChannel string // Optional: channel notified about the department's issues
}

// MunicipalityConfig holds the categories and departments issues are routed by
type MunicipalityConfig struct {
	Categories  []Category
	Departments []Department
}

// HasCategory reports whether the category is configured. A config without
// categories accepts any category.
func (c *MunicipalityConfig) HasCategory(id types.CategoryID) bool {
	if c == nil || len(c.Categories) == 0 {
		return true
	}
	for _, cat := range c.Categories {
		if cat.ID == id {
			return true
		}
	}
	return false
}

// Department returns the department with the given ID, or nil if it is not configured
func (c *MunicipalityConfig) Department(id types.DepartmentID) *Department {
	if c == nil {
		return nil
	}
	for i := range c.Departments {
		if c.Departments[i].ID == id {
			return &c.Departments[i]
		}
	}
	return nil
}

// HasDepartment reports whether the department is configured. A config
// without departments accepts any department.
func (c *MunicipalityConfig) HasDepartment(id types.DepartmentID) bool {
	if c == nil || len(c.Departments) == 0 {
		return true
	}
	return c.Department(id) != nil
}
