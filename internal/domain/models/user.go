// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an account that can sign in.
//
//   - Email is the login identifier (stored lowercase, unique)
//   - Username is the display name chosen at registration
//   - Role gates admin-only catalog operations
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email" json:"email"`
	Username     string             `bson:"username" json:"username"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Role         string             `bson:"role" json:"role"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// User roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// AllRoles returns all valid user roles.
func AllRoles() []string {
	return []string{RoleUser, RoleAdmin}
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

// LandingPath returns where the client should navigate after sign-in.
func LandingPath(role string) string {
	if role == RoleAdmin {
		return "/admin-dashboard"
	}
	return "/dashboard"
}
