package model

import "time"

// Role describes user privileges.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// User represents a registered marketplace account.
type User struct {
	ID           int64
	Login        string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// Requester identifies the caller of a use case.
type Requester struct {
	UserID int64
	Role   Role
}

// IsAdmin reports whether requester has administrative role.
func (r Requester) IsAdmin() bool {
	return r.Role == RoleAdmin
}

// CanAccess reports whether requester may act on a resource owned by ownerID.
func (r Requester) CanAccess(ownerID int64) bool {
	return r.IsAdmin() || r.UserID == ownerID
}
