package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	ssobridge "github.com/setpar/sso-bridge"
	echoapi "github.com/setpar/sso-bridge/api/echo"
	"github.com/setpar/sso-bridge/cache"
	cacheredis "github.com/setpar/sso-bridge/cache/redis"
	"github.com/setpar/sso-bridge/config"
	"github.com/setpar/sso-bridge/internal/auth"
	"github.com/setpar/sso-bridge/internal/metrics"
	"github.com/setpar/sso-bridge/log"
	"github.com/setpar/sso-bridge/mongodb"
	"github.com/setpar/sso-bridge/tracing"
	"golang.org/x/crypto/bcrypt"
)

var (
	appLogger      log.Logger
	tracerProvider *sdktrace.TracerProvider
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		stdLog := zerolog.New(os.Stdout).With().Timestamp().Logger()
		stdLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logLevel, parseErr := zerolog.ParseLevel(cfg.LogLevel)
	if parseErr != nil {
		logLevel = zerolog.InfoLevel
		fallbackLog := zerolog.New(os.Stdout).With().Timestamp().Logger()
		fallbackLog.Warn().
			Str("configured_log_level", cfg.LogLevel).
			Str("fallback_log_level", logLevel.String()).
			Err(parseErr).
			Msg("Invalid LOG_LEVEL configured, defaulting to 'info'")
	}
	appLogger = log.NewZerologAdapter(logLevel, cfg.LogPretty)

	ctx := context.Background()
	appLogger.Info(ctx, "Starting sso-bridge server...")
	appLogger.Info(ctx, "Configuration loaded successfully", map[string]interface{}{
		"http_port":     cfg.HTTPPort,
		"mongo_uri":     cfg.MongoURI,
		"mongo_db_name": cfg.MongoDBName,
		"redis_addr":    cfg.RedisAddr,
		"log_level":     cfg.LogLevel,
		"otel_service":  cfg.OtelServiceName,
	})
	if cfg.SSOSharedSecret == "" {
		appLogger.Warn(ctx, "SSO_SHARED_SECRET is not set, SSO bridging is disabled")
	}

	tp, err := tracing.InitTracerProvider(cfg.OtelServiceName)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to initialize TracerProvider", err, nil)
	}
	tracerProvider = tp

	if initErr := mongodb.InitMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName); initErr != nil {
		appLogger.Fatal(ctx, "Failed to initialize MongoDB connection", initErr, nil)
	}
	db := mongodb.GetDB()

	userRepo, err := mongodb.NewUserRepository(ctx, db)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to initialize UserRepository", err, nil)
	}
	settingsRepo := mongodb.NewSettingsRepository(db)

	exchangeTTL := time.Duration(cfg.ExchangeTokenTTLMin) * time.Minute
	var exchangeStore cache.ExchangeStore
	if cfg.RedisAddr != "" {
		redisClient := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		exchangeStore = cacheredis.NewExchangeStore(redisClient, "ssobridge", exchangeTTL)
		appLogger.Info(ctx, "Using Redis exchange token store", map[string]interface{}{"addr": cfg.RedisAddr})
	} else {
		exchangeStore = cache.NewMemoryExchangeStore(exchangeTTL)
		appLogger.Info(ctx, "Using in-memory exchange token store", nil)
	}

	passwordHasher := auth.NewBcryptPasswordHasher(bcrypt.DefaultCost)

	bridgeService := ssobridge.NewService(ssobridge.ServiceOptions{
		SharedSecret:             cfg.SSOSharedSecret,
		DefaultEnableMultiTenant: cfg.DefaultEnableMultiTenant(),
		AutoEnableMultiTenant:    cfg.AutoEnableMultiTenant(),
	}, userRepo, settingsRepo, passwordHasher, exchangeStore)

	metrics.Register(prometheus.DefaultRegisterer)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	echoapi.NewBridgeAPI(bridgeService).RegisterRoutes(e)

	go func() {
		if serveErr := e.Start(":" + cfg.HTTPPort); serveErr != nil && serveErr != http.ErrServerClosed {
			appLogger.Fatal(ctx, "HTTP server stopped unexpectedly", serveErr, nil)
		}
	}()
	appLogger.Info(ctx, "HTTP server listening", map[string]interface{}{"port": cfg.HTTPPort})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info(ctx, "Shutdown signal received, stopping...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(shutdownCtx, "Error shutting down HTTP server", err, nil)
	}
	if err := exchangeStore.Close(); err != nil {
		appLogger.Error(shutdownCtx, "Error closing exchange token store", err, nil)
	}
	if tracerProvider != nil {
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			appLogger.Error(shutdownCtx, "Error shutting down TracerProvider", err, nil)
		}
	}
	mongodb.CloseMongoDB(shutdownCtx)
	appLogger.Info(ctx, "Shutdown complete.")
}
