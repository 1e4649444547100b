package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruthy(t *testing.T) {
	falsy := []string{"", "0", "false", "no", "off", "FALSE", "No", "OFF", " off ", "  "}
	for _, v := range falsy {
		assert.False(t, Truthy(v), "expected %q to be falsy", v)
	}

	truthy := []string{"1", "true", "TRUE", "yes", "on", "enable", "anything-else"}
	for _, v := range truthy {
		assert.True(t, Truthy(v), "expected %q to be truthy", v)
	}
}

func TestServerConfig_Switches(t *testing.T) {
	cfg := &ServerConfig{
		MultiTenantDefaultEnabled: "true",
		MultiTenantAutoEnable:     "off",
	}
	assert.True(t, cfg.DefaultEnableMultiTenant())
	assert.False(t, cfg.AutoEnableMultiTenant())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("SSO_SHARED_SECRET", "super-secret")
	t.Setenv("MULTI_TENANT_AUTO_ENABLE", "yes")
	t.Setenv("HTTP_PORT", "9090")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "super-secret", cfg.SSOSharedSecret)
	assert.True(t, cfg.AutoEnableMultiTenant())
	assert.Equal(t, "9090", cfg.HTTPPort)
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Empty(t, cfg.SSOSharedSecret)
	assert.False(t, cfg.DefaultEnableMultiTenant())
	assert.False(t, cfg.AutoEnableMultiTenant())
	assert.Equal(t, 5, cfg.ExchangeTokenTTLMin)
}
