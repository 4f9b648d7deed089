package domain

import "time"

// User is the domain model for anyone who can log in: complainers, approvers and admins.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Role         Role
	Phone        *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasRole reports whether the user holds role.
func (u *User) HasRole(role Role) bool {
	return u != nil && u.Role == role
}
