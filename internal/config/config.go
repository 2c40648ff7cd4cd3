package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cyphera/cyphera-agent/internal/constants"
	"github.com/cyphera/cyphera-agent/internal/helpers"
	"github.com/cyphera/cyphera-agent/internal/interfaces"
	"github.com/cyphera/cyphera-agent/internal/logger"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config is the runtime configuration of the agent service.
type Config struct {
	Stage string
	Port  string

	// DatabaseURL is optional in the local stage, where grants are kept in memory.
	DatabaseURL   string
	JWTSecret     string
	RegistryFile  string
	// RedisAddr selects the shared budget store. Empty keeps budget windows in process memory.
	RedisAddr     string
	RedisPassword string

	RelayGRPCAddr   string
	RelayRPCTimeout time.Duration
	RelayLocalMode  bool

	QuoteDeadline     time.Duration
	RelayPollInterval time.Duration
	RelayMaxPolls     int
	ReconcileInterval time.Duration

	// Venue and provider keys. An empty key disables the integration.
	ZeroExAPIKey  string
	OneInchAPIKey string
	CMCAPIKey     string
	ResendAPIKey  string

	AlertEmailFrom   string
	AlertEmailTo     []string
	ActivityQueueURL string

	PriceGuardMaxDeviationBps uint32

	RateLimitRPS   float64
	RateLimitBurst int
}

// Load reads the configuration from the environment after loading an
// optional .env file. Secrets go through secrets using the <NAME>_ARN / <NAME> convention.
func Load(ctx context.Context, secrets interfaces.SecretsProvider) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Log.Debug("No .env file loaded", zap.Error(err))
	}

	cfg := &Config{
		Stage:            getEnv("STAGE", constants.LocalEnvironment),
		Port:             getEnv("PORT", "8000"),
		RegistryFile:     getEnv("REGISTRY_FILE", "configs/registry.yaml"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RelayGRPCAddr:    os.Getenv("RELAY_GRPC_ADDR"),
		RelayLocalMode:   os.Getenv("RELAY_LOCAL_MODE") == "true",
		AlertEmailFrom:   getEnv("ALERT_EMAIL_FROM", "alerts@cyphera.dev"),
		AlertEmailTo:     splitList(os.Getenv("ALERT_EMAIL_TO")),
		ActivityQueueURL: os.Getenv("ACTIVITY_QUEUE_URL"),
	}
	if !helpers.IsValidStage(cfg.Stage) {
		return nil, fmt.Errorf("invalid STAGE %q", cfg.Stage)
	}
	if cfg.RelayGRPCAddr == "" {
		return nil, fmt.Errorf("RELAY_GRPC_ADDR is required")
	}

	var err error
	if cfg.QuoteDeadline, err = getDuration("QUOTE_DEADLINE", constants.DefaultQuoteDeadlineMs*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.RelayPollInterval, err = getDuration("RELAY_POLL_INTERVAL", 3*time.Second); err != nil {
		return nil, err
	}
	if cfg.RelayRPCTimeout, err = getDuration("RELAY_RPC_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.ReconcileInterval, err = getDuration("RECONCILE_INTERVAL", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.RelayMaxPolls, err = getInt("RELAY_MAX_POLLS", constants.DefaultRelayPollAttempts); err != nil {
		return nil, err
	}
	if cfg.RateLimitBurst, err = getInt("RATE_LIMIT_BURST", 20); err != nil {
		return nil, err
	}
	deviation, err := getInt("PRICE_GUARD_MAX_DEVIATION_BPS", 0)
	if err != nil {
		return nil, err
	}
	if deviation < 0 || deviation > constants.BasisPointsDenominator {
		return nil, fmt.Errorf("PRICE_GUARD_MAX_DEVIATION_BPS must be between 0 and %d", constants.BasisPointsDenominator)
	}
	cfg.PriceGuardMaxDeviationBps = uint32(deviation)

	cfg.RateLimitRPS = 10
	if raw := os.Getenv("RATE_LIMIT_RPS"); raw != "" {
		if cfg.RateLimitRPS, err = strconv.ParseFloat(raw, 64); err != nil || cfg.RateLimitRPS <= 0 {
			return nil, fmt.Errorf("invalid RATE_LIMIT_RPS %q", raw)
		}
	}

	cfg.JWTSecret, err = secrets.GetSecretString(ctx, "AUTH_JWT_SECRET_ARN", "AUTH_JWT_SECRET")
	if err != nil {
		return nil, fmt.Errorf("failed to get AUTH_JWT_SECRET: %w", err)
	}

	cfg.DatabaseURL, err = secrets.GetSecretString(ctx, "DATABASE_URL_ARN", "DATABASE_URL")
	if err != nil {
		if cfg.Stage != constants.LocalEnvironment {
			return nil, fmt.Errorf("failed to get DATABASE_URL: %w", err)
		}
		logger.Log.Warn("DATABASE_URL not set, grants are kept in memory")
	}

	cfg.ZeroExAPIKey = optionalSecret(ctx, secrets, "ZEROEX_API_KEY")
	cfg.OneInchAPIKey = optionalSecret(ctx, secrets, "ONEINCH_API_KEY")
	cfg.CMCAPIKey = optionalSecret(ctx, secrets, "CMC_API_KEY")
	cfg.ResendAPIKey = optionalSecret(ctx, secrets, "RESEND_API_KEY")
	if cfg.RedisAddr != "" {
		cfg.RedisPassword = optionalSecret(ctx, secrets, "REDIS_PASSWORD")
	}

	if cfg.PriceGuardMaxDeviationBps > 0 && cfg.CMCAPIKey == "" {
		return nil, fmt.Errorf("PRICE_GUARD_MAX_DEVIATION_BPS requires CMC_API_KEY")
	}
	return cfg, nil
}

func optionalSecret(ctx context.Context, secrets interfaces.SecretsProvider, name string) string {
	value, err := secrets.GetSecretString(ctx, name+"_ARN", name)
	if err != nil {
		logger.Log.Info("Optional secret not configured", zap.String("name", name))
		return ""
	}
	return value
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return d, nil
}

func getInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return n, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
