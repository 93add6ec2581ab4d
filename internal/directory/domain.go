// Package directory implements the admin user-management service: paginated
// listing/search and role/active mutations guarded by the last-active-admin
// invariant.
package directory

import "errors"

// Service errors surfaced to the admin API.
var (
	ErrNotFound    = errors.New("user not found")
	ErrNoFields    = errors.New("no updates provided")
	ErrInvalidRole = errors.New("invalid role")
	ErrLastAdmin   = errors.New("cannot remove the last active admin")
)

// User is the projection returned by directory operations.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	IsActive bool   `json:"isActive"`
}

// ListRequest carries raw listing inputs; the service clamps them.
type ListRequest struct {
	Query string
	Page  int
	Size  int
}

// ListResult is a page of matching users with the echoed paging values.
type ListResult struct {
	Total int    `json:"total"`
	Users []User `json:"users"`
	Page  int    `json:"page"`
	Size  int    `json:"size"`
}

// UpdateParams is the partial update applied to a user. Nil fields are left
// untouched.
type UpdateParams struct {
	Role     *string `json:"role" validate:"omitempty,oneof=USER ADMIN"`
	IsActive *bool   `json:"isActive"`
}
