package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

// Counters are created eagerly so pipeline code can increment them whether or
// not they were registered with a Prometheus registry.
var (
	BridgedLoginsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sso_bridged_logins_total",
		Help: "Total number of external sessions bridged to a local session.",
	})
	UsersProvisionedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sso_users_provisioned_total",
		Help: "Total number of local users provisioned from SSO identities.",
	})
	LegacyMigrationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sso_legacy_migrations_total",
		Help: "Total number of legacy usernames migrated to the identifier scheme.",
	})
	RoleSyncsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sso_role_syncs_total",
		Help: "Total number of role updates applied during reconciliation.",
	})
	BridgeFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sso_bridge_failures_total",
		Help: "Total number of terminal reconciliation failures, by condition code.",
	}, []string{"code"})
)

// Register registers the custom SSO bridge metrics.
// It should be called once at application startup.
func Register(reg prometheus.Registerer) {
	if reg == nil {
		return
	}
	collectors := []prometheus.Collector{
		BridgedLoginsTotal,
		UsersProvisionedTotal,
		LegacyMigrationsTotal,
		RoleSyncsTotal,
		BridgeFailuresTotal,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			log.Warn().Err(err).Msg("Failed to register SSO bridge metric")
		}
	}
}
