package echo

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	ssobridge "github.com/setpar/sso-bridge"
	ssoerrors "github.com/setpar/sso-bridge/errors"
	"github.com/setpar/sso-bridge/mongodb"
)

// TokenQueryParam is the query parameter carrying the external session token.
const TokenQueryParam = "sso_token"

// BridgeAPI exposes the SSO reconciliation pipeline over HTTP.
type BridgeAPI struct {
	service *ssobridge.Service
}

// NewBridgeAPI initializes the bridge API.
func NewBridgeAPI(service *ssobridge.Service) *BridgeAPI {
	return &BridgeAPI{service: service}
}

// RegisterRoutes installs the SSO middleware and the operational endpoints.
func (a *BridgeAPI) RegisterRoutes(e *echo.Echo) {
	e.Use(a.Middleware())
	e.GET("/healthz", a.HealthHandler)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// Middleware bridges requests that carry an external session token. A
// request without a token, or arriving while the shared secret is not
// configured, passes through to the next handler untouched; this path is
// supplemental, not the sole authentication mechanism.
func (a *BridgeAPI) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rawToken := c.QueryParam(TokenQueryParam)
			if rawToken == "" {
				return next(c)
			}

			result, err := a.service.Reconcile(c.Request().Context(), rawToken, c.Request().URL.Path)
			if err != nil {
				if errors.Is(err, ssoerrors.ErrNotApplicable) {
					return next(c)
				}
				ssoErr := ssoerrors.Classify(err)
				log.Error().Err(err).
					Str("code", ssoErr.Code).
					Str("path", c.Request().URL.Path).
					Msg("SSO bridging failed")
				return c.JSON(ssoErr.Status, ssoErr)
			}

			return c.Redirect(http.StatusFound, result.RedirectURL)
		}
	}
}

// HealthHandler reports liveness, including user store reachability.
func (a *BridgeAPI) HealthHandler(c echo.Context) error {
	if err := mongodb.Ping(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
