package model

import "github.com/makola-community/makola/pkg/domain/types"

// Requester is the authenticated identity on whose behalf an operation runs.
// It is resolved by the auth layer and passed explicitly to domain services.
type Requester struct {
	ID         types.UserID       `json:"id"`
	Role       types.Role         `json:"role"`
	Department types.DepartmentID `json:"department,omitempty"`
	Name       string             `json:"name,omitempty"`
}

// IsAuthenticated reports whether the requester carries an identity and a known role
func (r Requester) IsAuthenticated() bool {
	return r.ID != "" && r.Role.IsValid()
}

// Is reports whether the requester is the given user
func (r Requester) Is(id types.UserID) bool {
	return r.ID != "" && r.ID == id
}

// IsCouncilor reports whether the requester holds the urban councilor role
func (r Requester) IsCouncilor() bool {
	return r.IsAuthenticated() && r.Role == types.RoleUrbanCouncilor
}
