package ssobridge

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/setpar/sso-bridge/domain"
	ssoerrors "github.com/setpar/sso-bridge/errors"
)

// TenancyBootstrapper guarantees the local store is in multi-tenant mode
// before any identity work proceeds. Enabling is delegated to the settings
// store and is idempotent there; concurrent requests may all attempt it.
type TenancyBootstrapper struct {
	settings      domain.SettingsRepository
	defaultEnable bool
	autoEnable    bool
}

// NewTenancyBootstrapper creates a bootstrapper with the two configuration
// switches: defaultEnable turns the mode on as a boot-time default,
// autoEnable turns it on upon the first valid SSO request.
func NewTenancyBootstrapper(settings domain.SettingsRepository, defaultEnable, autoEnable bool) *TenancyBootstrapper {
	return &TenancyBootstrapper{
		settings:      settings,
		defaultEnable: defaultEnable,
		autoEnable:    autoEnable,
	}
}

// Ensure succeeds when multi-tenant mode is, or has just been, enabled. A
// single enable failure is logged and treated as "still disabled"; the call
// only fails terminally when no enable path remains.
func (b *TenancyBootstrapper) Ensure(ctx context.Context) error {
	enabled, err := b.settings.IsMultiTenant(ctx)
	if err != nil {
		return fmt.Errorf("reading multi-tenant flag: %w", err)
	}
	if enabled {
		return nil
	}

	if b.defaultEnable {
		err := b.settings.EnableMultiTenant(ctx)
		if err == nil {
			log.Info().Msg("Multi-tenant mode enabled by boot-time default")
			return nil
		}
		log.Warn().Err(err).Msg("Default-enable of multi-tenant mode failed, still disabled")
	}

	if b.autoEnable {
		err := b.settings.EnableMultiTenant(ctx)
		if err == nil {
			log.Info().Msg("Multi-tenant mode enabled on first valid SSO request")
			return nil
		}
		log.Warn().Err(err).Msg("Auto-enable of multi-tenant mode failed, still disabled")
	}

	return ssoerrors.NewMultiTenancyDisabled()
}
