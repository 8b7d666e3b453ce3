// Package model contains domain records passed between layers.
package model

import "time"

// Role identifies what a user is allowed to do.
type Role string

// Known roles.
const (
	RoleLearner Role = "learner"
	RoleTrainer Role = "trainer"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleLearner, RoleTrainer, RoleAdmin:
		return true
	}
	return false
}

// User is an account on the platform. PasswordHash is a bcrypt hash;
// the clear-text password never leaves the signup/login handlers.
type User struct {
	ID           string
	Email        string
	Name         string
	Phone        string
	Country      string
	City         string
	Role         Role
	PasswordHash string
	Verified     bool
	RefreshToken string
	CreatedAt    time.Time
}
