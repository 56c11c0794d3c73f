package models

import "github.com/google/uuid"

type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleAdmin    Role = "ADMIN"
)

// User is owned by the identity service and read-only here
type User struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"fullName"`
	Email    string    `json:"email"`
	Role     Role      `json:"role"`
}

// Actor is the authenticated caller of an operation
type Actor struct {
	UserID uuid.UUID
	Role   Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// CanAccess reports whether the actor may see or modify a resource owned by owner.
func (a Actor) CanAccess(owner uuid.UUID) bool {
	return a.IsAdmin() || a.UserID == owner
}
