package ssobridge

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/setpar/sso-bridge/domain"
	ssoerrors "github.com/setpar/sso-bridge/errors"
	"github.com/setpar/sso-bridge/internal/metrics"
)

// PasswordHasher abstracts credential hashing for provisioned accounts.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hashedPassword, password string) error
}

// Provisioner creates missing local accounts and keeps existing ones' roles
// in sync with the external payload. Role is the only field ever
// re-synchronized; username and credential are never touched after creation.
type Provisioner struct {
	users  domain.UserRepository
	hasher PasswordHasher
}

// NewProvisioner creates a new Provisioner.
func NewProvisioner(users domain.UserRepository, hasher PasswordHasher) *Provisioner {
	return &Provisioner{users: users, hasher: hasher}
}

// Ensure turns a resolution into a concrete local user with the mapped role.
func (p *Provisioner) Ensure(ctx context.Context, resolution *Resolution, role domain.Role) (*domain.User, error) {
	if resolution.User == nil {
		return p.create(ctx, resolution.Username, role)
	}
	return p.syncRole(ctx, resolution.User, role)
}

func (p *Provisioner) create(ctx context.Context, username string, role domain.Role) (*domain.User, error) {
	// The account is SSO-only and never logs in by password; the credential
	// exists only to satisfy the store and is never derived from the payload.
	credential, err := newRandomCredential()
	if err != nil {
		log.Error().Err(err).Msg("Failed to generate credential for SSO account")
		return nil, ssoerrors.NewProvisioningFailed()
	}
	hash, err := p.hasher.Hash(credential)
	if err != nil {
		log.Error().Err(err).Msg("Failed to hash credential for SSO account")
		return nil, ssoerrors.NewProvisioningFailed()
	}

	user := &domain.User{
		Username:     username,
		Role:         role,
		PasswordHash: hash,
	}
	if err := p.users.CreateUser(ctx, user); err != nil {
		// Includes losing a concurrent provisioning race on the unique
		// username index; a retry will find the winner's user via lookup.
		log.Error().Err(err).Str("username", username).Msg("Failed to create SSO user")
		return nil, ssoerrors.NewProvisioningFailed()
	}

	metrics.UsersProvisionedTotal.Inc()
	log.Info().Str("userID", user.ID).Str("username", username).Str("role", string(role)).Msg("Provisioned local user from SSO identity")
	return user, nil
}

func (p *Provisioner) syncRole(ctx context.Context, user *domain.User, role domain.Role) (*domain.User, error) {
	if user.Role == role {
		return user, nil
	}
	if err := p.users.UpdateRole(ctx, user.ID, role); err != nil {
		log.Error().Err(err).Str("userID", user.ID).Str("role", string(role)).Msg("Failed to sync role for SSO user")
		return nil, ssoerrors.NewRoleSyncFailed()
	}
	metrics.RoleSyncsTotal.Inc()
	user.Role = role
	return user, nil
}

// newRandomCredential generates a cryptographically random credential for
// SSO-only accounts.
func newRandomCredential() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random credential: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
