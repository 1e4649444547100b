package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// ServerConfig holds all configuration for the bridge server.
// Tags use mapstructure for Viper unmarshalling.
type ServerConfig struct {
	HTTPPort    string `mapstructure:"HTTP_PORT"`
	MongoURI    string `mapstructure:"MONGO_URI"`
	MongoDBName string `mapstructure:"MONGO_DB_NAME"`
	RedisAddr   string `mapstructure:"REDIS_ADDR"` // Empty means in-memory exchange store
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	LogPretty   bool   `mapstructure:"LOG_PRETTY"`

	OtelServiceName string `mapstructure:"OTEL_SERVICE_NAME"`

	// Shared secret for verifying externally issued session tokens. An empty
	// value disables SSO bridging entirely; requests pass through untouched.
	SSOSharedSecret string `mapstructure:"SSO_SHARED_SECRET"`

	// Boolean-like switches, kept as raw strings so Truthy semantics apply.
	MultiTenantDefaultEnabled string `mapstructure:"MULTI_TENANT_DEFAULT_ENABLED"`
	MultiTenantAutoEnable     string `mapstructure:"MULTI_TENANT_AUTO_ENABLE"`

	ExchangeTokenTTLMin int `mapstructure:"EXCHANGE_TOKEN_TTL_MIN"`
}

// Truthy interprets boolean-like configuration values. Case-insensitive;
// "", "0", "false", "no", "off" (and absence) are falsy, everything else is
// truthy.
func Truthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "0", "false", "no", "off":
		return false
	default:
		return true
	}
}

// DefaultEnableMultiTenant reports the boot-time default-enable switch.
func (c *ServerConfig) DefaultEnableMultiTenant() bool {
	return Truthy(c.MultiTenantDefaultEnabled)
}

// AutoEnableMultiTenant reports the enable-on-first-valid-request switch.
func (c *ServerConfig) AutoEnableMultiTenant() bool {
	return Truthy(c.MultiTenantAutoEnable)
}

// LoadConfig reads configuration from file, environment variables, and defaults.
func LoadConfig() (*ServerConfig, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/sso-bridge/")
	v.AddConfigPath("$HOME/.sso-bridge")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017/sso_bridge_dev")
	v.SetDefault("MONGO_DB_NAME", "sso_bridge_dev")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", true)
	v.SetDefault("OTEL_SERVICE_NAME", "sso-bridge")
	v.SetDefault("SSO_SHARED_SECRET", "")
	v.SetDefault("MULTI_TENANT_DEFAULT_ENABLED", "")
	v.SetDefault("MULTI_TENANT_AUTO_ENABLE", "")
	v.SetDefault("EXCHANGE_TOKEN_TTL_MIN", 5)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine, we run on env vars and defaults.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg ServerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	return &cfg, nil
}
