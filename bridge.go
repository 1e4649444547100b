package ssobridge

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/setpar/sso-bridge/cache"
	"github.com/setpar/sso-bridge/domain"
	ssoerrors "github.com/setpar/sso-bridge/errors"
	"github.com/setpar/sso-bridge/internal/metrics"
)

// ExchangePath is the fixed local path the success redirect targets. The
// local session-establishment flow mounted there accepts the `token` and
// `redirectTo` query parameters and trades the exchange token for a session.
const ExchangePath = "/sso/complete"

// ServiceOptions carries the configuration the pipeline needs.
type ServiceOptions struct {
	// SharedSecret verifies externally issued session tokens. Empty disables
	// bridging entirely.
	SharedSecret string
	// DefaultEnableMultiTenant enables multi-tenant mode as a boot default.
	DefaultEnableMultiTenant bool
	// AutoEnableMultiTenant enables multi-tenant mode on the first valid SSO
	// request.
	AutoEnableMultiTenant bool
}

// BridgeResult is the outcome of a successful reconciliation.
type BridgeResult struct {
	User        *domain.User
	RedirectURL string
}

// Service runs the SSO reconciliation pipeline: token validation,
// multi-tenancy bootstrap, identity resolution, role mapping, provisioning,
// and session bridging, in that order, short-circuiting on failure.
type Service struct {
	validator   *TokenValidator
	tenancy     *TenancyBootstrapper
	resolver    *IdentityResolver
	provisioner *Provisioner
	exchange    cache.ExchangeStore

	warnMissingSecret sync.Once
}

// NewService wires the pipeline against the given stores.
func NewService(
	opts ServiceOptions,
	users domain.UserRepository,
	settings domain.SettingsRepository,
	hasher PasswordHasher,
	exchange cache.ExchangeStore,
) *Service {
	return &Service{
		validator:   NewTokenValidator(opts.SharedSecret),
		tenancy:     NewTenancyBootstrapper(settings, opts.DefaultEnableMultiTenant, opts.AutoEnableMultiTenant),
		resolver:    NewIdentityResolver(users),
		provisioner: NewProvisioner(users, hasher),
		exchange:    exchange,
	}
}

// Reconcile bridges one external session onto a local account. It returns
// ssoerrors.ErrNotApplicable when bridging does not apply to the request
// (missing secret), a *ssoerrors.SSOError for every classified terminal
// failure, and a BridgeResult carrying the redirect on success.
func (s *Service) Reconcile(ctx context.Context, rawToken, originalPath string) (*BridgeResult, error) {
	payload, status := s.validator.Validate(rawToken)
	switch status {
	case TokenValid:
		// fall through to the pipeline
	case TokenMissingSecret:
		s.warnMissingSecret.Do(func() {
			log.Warn().Msg("SSO_SHARED_SECRET is not configured, SSO bridging is disabled")
		})
		return nil, ssoerrors.ErrNotApplicable
	case TokenExpired:
		return nil, s.fail(ssoerrors.NewTokenExpired())
	case TokenMalformed:
		return nil, s.fail(ssoerrors.NewTokenInvalid())
	case TokenPayloadIncomplete:
		return nil, s.fail(ssoerrors.NewPayloadIncomplete())
	default:
		return nil, s.fail(ssoerrors.NewUnexpected())
	}

	// Multi-tenant mode must hold before any user lookup or creation;
	// provisioning in single-tenant mode is undefined behavior downstream.
	if err := s.tenancy.Ensure(ctx); err != nil {
		return nil, s.failErr(err)
	}

	resolution, err := s.resolver.Resolve(ctx, payload)
	if err != nil {
		return nil, s.failErr(err)
	}

	role := MapRole(payload)

	user, err := s.provisioner.Ensure(ctx, resolution, role)
	if err != nil {
		return nil, s.failErr(err)
	}

	token, err := s.exchange.Issue(ctx, user.ID)
	if err != nil {
		log.Error().Err(err).Str("userID", user.ID).Msg("Failed to issue exchange token")
		return nil, s.fail(ssoerrors.NewSessionIssuanceFailed())
	}

	metrics.BridgedLoginsTotal.Inc()
	log.Info().
		Str("userID", user.ID).
		Str("username", user.Username).
		Str("externalID", payload.ExternalID).
		Msg("Bridged external session to local user")

	return &BridgeResult{
		User:        user,
		RedirectURL: BuildRedirect(token, originalPath),
	}, nil
}

// BuildRedirect builds the redirect target carrying the exchange token and
// the intended post-login destination. A destination already targeting the
// exchange endpoint falls back to root to prevent a redirect loop.
func BuildRedirect(token, originalPath string) string {
	dest := originalPath
	if dest == "" || strings.HasPrefix(dest, ExchangePath) {
		dest = "/"
	}

	query := url.Values{}
	query.Set("token", token)
	query.Set("redirectTo", dest)
	return ExchangePath + "?" + query.Encode()
}

func (s *Service) fail(err *ssoerrors.SSOError) *ssoerrors.SSOError {
	metrics.BridgeFailuresTotal.WithLabelValues(err.Code).Inc()
	return err
}

func (s *Service) failErr(err error) error {
	metrics.BridgeFailuresTotal.WithLabelValues(ssoerrors.Classify(err).Code).Inc()
	return err
}
