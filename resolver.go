package ssobridge

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/setpar/sso-bridge/domain"
	ssoerrors "github.com/setpar/sso-bridge/errors"
	"github.com/setpar/sso-bridge/internal/metrics"
)

// Resolution is the outcome of reconciling an SSO identity against the user
// store.
type Resolution struct {
	// User is the resolved account, nil when no account exists yet.
	User *domain.User
	// Username is the derived username provisioning should create when User
	// is nil.
	Username string
	// Migrated reports that a legacy account was renamed during this request.
	Migrated bool
}

// resolutionState drives the reconciliation state machine. The legacy
// migration rule (rename only into a free primary slot, keep the legacy
// account on conflict) lives entirely in the transitions below.
type resolutionState int

const (
	stateLookupPrimary resolutionState = iota
	stateLookupLegacy
	stateMigrate
	stateResolved
	stateCreate
)

// IdentityResolver reconciles derived usernames against the user store,
// including the one-time migration of email-derived legacy usernames to the
// identifier-derived scheme.
type IdentityResolver struct {
	users domain.UserRepository
}

// NewIdentityResolver creates a new IdentityResolver.
func NewIdentityResolver(users domain.UserRepository) *IdentityResolver {
	return &IdentityResolver{users: users}
}

// Resolve maps the payload onto an existing local user, or onto the username
// a new one should be created under. Repeated calls with the same external
// identity resolve to the same account once it exists.
func (r *IdentityResolver) Resolve(ctx context.Context, payload *domain.SessionPayload) (*Resolution, error) {
	primary := DeriveUsername(payload.ExternalID)
	legacy := DeriveLegacyUsername(payload.Email)
	if primary == "" && legacy == "" {
		return nil, ssoerrors.NewUnresolvableIdentity()
	}

	// With no external identifier the legacy scheme is the only scheme;
	// there is nothing to migrate towards.
	if primary == "" {
		primary = legacy
		legacy = ""
	}

	var (
		state      = stateLookupPrimary
		resolution = &Resolution{Username: primary}
		legacyUser *domain.User
	)

	for {
		switch state {
		case stateLookupPrimary:
			user, err := r.users.GetUserByUsername(ctx, primary)
			switch {
			case err == nil:
				resolution.User = user
				state = stateResolved
			case errors.Is(err, domain.ErrUserNotFound):
				state = stateLookupLegacy
			default:
				return nil, fmt.Errorf("looking up username %q: %w", primary, err)
			}

		case stateLookupLegacy:
			if legacy == "" || legacy == primary {
				state = stateCreate
				break
			}
			user, err := r.users.GetUserByUsername(ctx, legacy)
			switch {
			case err == nil:
				legacyUser = user
				state = stateMigrate
			case errors.Is(err, domain.ErrUserNotFound):
				state = stateCreate
			default:
				return nil, fmt.Errorf("looking up legacy username %q: %w", legacy, err)
			}

		case stateMigrate:
			err := r.users.RenameUser(ctx, legacyUser.ID, primary)
			switch {
			case err == nil:
				legacyUser.Username = primary
				resolution.User = legacyUser
				resolution.Migrated = true
				metrics.LegacyMigrationsTotal.Inc()
				log.Info().
					Str("userID", legacyUser.ID).
					Str("from", legacy).
					Str("to", primary).
					Msg("Migrated legacy SSO username")
				state = stateResolved
			case errors.Is(err, domain.ErrUsernameTaken):
				// Another account holds the primary slot. Keep the legacy
				// account under its old name rather than forcing a collision.
				resolution.User = legacyUser
				resolution.Username = legacy
				log.Warn().
					Str("userID", legacyUser.ID).
					Str("legacy", legacy).
					Str("primary", primary).
					Msg("Primary username taken by another account, keeping legacy username")
				state = stateResolved
			default:
				log.Error().Err(err).
					Str("userID", legacyUser.ID).
					Str("to", primary).
					Msg("Failed to rename legacy SSO user")
				return nil, ssoerrors.NewMigrationFailed()
			}

		case stateCreate:
			// No account under either scheme; provisioning creates one.
			return resolution, nil

		case stateResolved:
			return resolution, nil
		}
	}
}
