package models

// Terminology:
//   - UserID / user_id: the MongoDB ObjectID (_id) of a user record
//   - LoginID / login_id: the string a user types to sign in

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a CMS operator. Only admins may write content; editors can sign in
// and preview edit affordances but every write is refused.
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName   string             `bson:"full_name" json:"full_name"`
	FullNameCI string             `bson:"full_name_ci" json:"-"` // folded for sorting

	LoginID    *string `bson:"login_id" json:"login_id"`
	LoginIDCI  *string `bson:"login_id_ci" json:"-"` // folded for matching
	Email      *string `bson:"email" json:"email,omitempty"`
	AuthMethod string  `bson:"auth_method" json:"auth_method"` // password, trust

	PasswordHash *string `bson:"password_hash,omitempty" json:"-"`

	Role   string `bson:"role" json:"role"`
	Status string `bson:"status,omitempty" json:"status,omitempty"` // active, disabled

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// User roles
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
)

// User statuses
const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)

// Auth methods
const (
	AuthPassword = "password"
	AuthTrust    = "trust"
)

// AllRoles returns all valid user roles.
func AllRoles() []string {
	return []string{RoleAdmin, RoleEditor}
}

// IsValidRole checks if a role is valid.
func IsValidRole(role string) bool {
	for _, r := range AllRoles() {
		if r == role {
			return true
		}
	}
	return false
}

// IsActive reports whether the user may sign in.
func (u User) IsActive() bool {
	return u.Status == "" || u.Status == StatusActive
}
