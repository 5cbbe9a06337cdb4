package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// UserRole represents the roles an actor can hold in the booking engine.
type UserRole string

const (
	RoleAdmin      UserRole = "admin"
	RoleInstructor UserRole = "instructor"
	RoleParent     UserRole = "parent"
)

// Valid reports whether the role is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleInstructor, RoleParent:
		return true
	}
	return false
}

// UserRoleAssignment is a row of the user_roles table.
type UserRoleAssignment struct {
	UserID    string    `db:"user_id" json:"user_id"`
	Role      UserRole  `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Actor is the authenticated caller of an engine operation.
type Actor struct {
	ID    string     `json:"id"`
	Email string     `json:"email,omitempty"`
	Roles []UserRole `json:"roles"`
}

// HasRole reports whether the actor holds any of the given roles.
func (a *Actor) HasRole(roles ...UserRole) bool {
	if a == nil {
		return false
	}
	for _, held := range a.Roles {
		for _, want := range roles {
			if held == want {
				return true
			}
		}
	}
	return false
}

// IsStaff is true for admins and instructors.
func (a *Actor) IsStaff() bool {
	return a.HasRole(RoleAdmin, RoleInstructor)
}

// SystemActor is used for writes issued by background jobs.
var SystemActor = &Actor{ID: "system", Roles: []UserRole{RoleAdmin}}

// JWTClaims represents the payload of access tokens minted by the identity provider.
type JWTClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
