package domain

import (
	"context"
	"errors"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already taken")
)

// UserRepository defines the access the bridge needs to the local user store.
// Username uniqueness is enforced by the store, not by callers.
type UserRepository interface {
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	// CreateUser inserts a new user. A username collision (including one
	// lost to a concurrent creation) surfaces as ErrUsernameTaken.
	CreateUser(ctx context.Context, user *User) error
	// UpdateRole sets the role of an existing user.
	UpdateRole(ctx context.Context, id string, role Role) error
	// RenameUser atomically changes a user's username. Returns
	// ErrUsernameTaken when another user already holds newUsername.
	RenameUser(ctx context.Context, id string, newUsername string) error
}

// SettingsRepository is the narrow capability over the persistent system
// settings that multi-tenancy bootstrapping needs.
type SettingsRepository interface {
	IsMultiTenant(ctx context.Context) (bool, error)
	// EnableMultiTenant flips the store into multi-tenant mode. The call is
	// idempotent; concurrent callers may all attempt it.
	EnableMultiTenant(ctx context.Context) error
}
