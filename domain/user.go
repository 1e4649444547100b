package domain

import "time"

// Role is a local user role. The bridge only ever produces two of these.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDefault Role = "default"
)

// IsValid checks if the role is one of the predefined valid roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleDefault:
		return true
	default:
		return false
	}
}

// User represents a locally managed user account.
type User struct {
	ID           string     `bson:"_id,omitempty"` // MongoDB ID
	Username     string     `bson:"username"`      // Unique across the store
	Role         Role       `bson:"role"`
	PasswordHash string     `bson:"password_hash"`
	CreatedAt    time.Time  `bson:"created_at"`
	UpdatedAt    time.Time  `bson:"updated_at"`
	LastLoginAt  *time.Time `bson:"last_login_at,omitempty"`
}
