package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config holds all runtime configuration derived from environment variables.
type Config struct {
	HTTPPort               string
	StorageBackend         string
	DatabaseURL            string
	RunMigrations          bool
	RedisURL               string
	AuthSecret             string
	AuthIssuer             string
	AuthAudience           string
	MinDeposit             int64
	MinWithdrawal          int64
	MaturityPollInterval   time.Duration
	MaturityBatchSize      int32
	ReconciliationInterval time.Duration
	PublicRateLimitRPS     int
	AuthRateLimitRPS       int
	LogLevel               string
	IdempotencyTTL         time.Duration
	CORSAllowedOrigins     []string
	TrustProxyHeaders      bool
}

// Load reads environment variables using viper and returns a typed config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	bindEnv(v, "port", "PORT", "PROFITWAVE_PORT")
	bindEnv(v, "storage_backend", "STORAGE_BACKEND", "PROFITWAVE_STORAGE_BACKEND")
	bindEnv(v, "database_url", "DATABASE_URL", "PROFITWAVE_DATABASE_URL")
	bindEnv(v, "run_migrations", "RUN_MIGRATIONS", "PROFITWAVE_RUN_MIGRATIONS")
	bindEnv(v, "redis_url", "REDIS_URL", "PROFITWAVE_REDIS_URL")
	bindEnv(v, "auth_secret", "AUTH_SECRET", "PROFITWAVE_AUTH_SECRET", "JWT_SECRET")
	bindEnv(v, "auth_issuer", "AUTH_ISSUER", "PROFITWAVE_AUTH_ISSUER", "JWT_ISSUER")
	bindEnv(v, "auth_audience", "AUTH_AUDIENCE", "PROFITWAVE_AUTH_AUDIENCE", "JWT_AUDIENCE")
	bindEnv(v, "min_deposit", "MIN_DEPOSIT", "PROFITWAVE_MIN_DEPOSIT")
	bindEnv(v, "min_withdrawal", "MIN_WITHDRAWAL", "PROFITWAVE_MIN_WITHDRAWAL")
	bindEnv(v, "maturity_poll_interval", "MATURITY_POLL_INTERVAL", "PROFITWAVE_MATURITY_POLL_INTERVAL")
	bindEnv(v, "maturity_batch_size", "MATURITY_BATCH_SIZE", "PROFITWAVE_MATURITY_BATCH_SIZE")
	bindEnv(v, "reconciliation_interval", "RECONCILIATION_INTERVAL", "PROFITWAVE_RECONCILIATION_INTERVAL")
	bindEnv(v, "public_rate_limit_rps", "PUBLIC_RATE_LIMIT_RPS", "PROFITWAVE_PUBLIC_RATE_LIMIT_RPS")
	bindEnv(v, "auth_rate_limit_rps", "AUTH_RATE_LIMIT_RPS", "PROFITWAVE_AUTH_RATE_LIMIT_RPS")
	bindEnv(v, "log_level", "LOG_LEVEL", "PROFITWAVE_LOG_LEVEL")
	bindEnv(v, "idempotency_ttl", "IDEMPOTENCY_TTL", "PROFITWAVE_IDEMPOTENCY_TTL")
	bindEnv(v, "cors_allowed_origins", "CORS_ALLOWED_ORIGINS", "PROFITWAVE_CORS_ALLOWED_ORIGINS")
	bindEnv(v, "trust_proxy_headers", "TRUST_PROXY_HEADERS", "PROFITWAVE_TRUST_PROXY_HEADERS")

	v.SetDefault("port", "8080")
	v.SetDefault("storage_backend", StoragePostgres)
	v.SetDefault("database_url", "")
	v.SetDefault("run_migrations", false)
	v.SetDefault("redis_url", "")
	v.SetDefault("auth_secret", "")
	v.SetDefault("auth_issuer", "profitwave-identity")
	v.SetDefault("auth_audience", "profitwave-api")
	v.SetDefault("min_deposit", 1000)
	v.SetDefault("min_withdrawal", 9500)
	v.SetDefault("maturity_poll_interval", "1m")
	v.SetDefault("maturity_batch_size", 50)
	v.SetDefault("reconciliation_interval", "1h")
	v.SetDefault("public_rate_limit_rps", 10)
	v.SetDefault("auth_rate_limit_rps", 100)
	v.SetDefault("log_level", "info")
	v.SetDefault("idempotency_ttl", "24h")
	v.SetDefault("cors_allowed_origins", "*")
	v.SetDefault("trust_proxy_headers", false)

	pollInterval, err := time.ParseDuration(v.GetString("maturity_poll_interval"))
	if err != nil {
		return nil, fmt.Errorf("invalid MATURITY_POLL_INTERVAL: %w", err)
	}
	ttl, err := time.ParseDuration(v.GetString("idempotency_ttl"))
	if err != nil {
		return nil, fmt.Errorf("invalid IDEMPOTENCY_TTL: %w", err)
	}
	reconciliationInterval, err := time.ParseDuration(v.GetString("reconciliation_interval"))
	if err != nil {
		return nil, fmt.Errorf("invalid RECONCILIATION_INTERVAL: %w", err)
	}

	batchSize := v.GetInt("maturity_batch_size")
	if batchSize <= 0 {
		batchSize = 50
	}

	cfg := &Config{
		HTTPPort:               v.GetString("port"),
		StorageBackend:         strings.ToLower(strings.TrimSpace(v.GetString("storage_backend"))),
		DatabaseURL:            v.GetString("database_url"),
		RunMigrations:          v.GetBool("run_migrations"),
		RedisURL:               strings.TrimSpace(v.GetString("redis_url")),
		AuthSecret:             v.GetString("auth_secret"),
		AuthIssuer:             v.GetString("auth_issuer"),
		AuthAudience:           v.GetString("auth_audience"),
		MinDeposit:             v.GetInt64("min_deposit"),
		MinWithdrawal:          v.GetInt64("min_withdrawal"),
		MaturityPollInterval:   pollInterval,
		MaturityBatchSize:      int32(batchSize),
		ReconciliationInterval: reconciliationInterval,
		PublicRateLimitRPS:     max(v.GetInt("public_rate_limit_rps"), 1),
		AuthRateLimitRPS:       max(v.GetInt("auth_rate_limit_rps"), 1),
		LogLevel:               v.GetString("log_level"),
		IdempotencyTTL:         ttl,
		CORSAllowedOrigins:     splitList(v.GetString("cors_allowed_origins")),
		TrustProxyHeaders:      v.GetBool("trust_proxy_headers"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDatabaseURL reads only the database URL, for tooling that does not
// serve traffic.
func LoadDatabaseURL() (string, error) {
	_ = godotenv.Load()

	v := viper.New()
	bindEnv(v, "database_url", "DATABASE_URL", "PROFITWAVE_DATABASE_URL")
	url := strings.TrimSpace(v.GetString("database_url"))
	if url == "" {
		return "", fmt.Errorf("DATABASE_URL is required")
	}
	return url, nil
}

func (c *Config) validate() error {
	switch c.StorageBackend {
	case StoragePostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required when STORAGE_BACKEND is postgres")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("STORAGE_BACKEND must be postgres or memory, got %q", c.StorageBackend)
	}
	if strings.TrimSpace(c.AuthSecret) == "" {
		return fmt.Errorf("AUTH_SECRET is required")
	}
	if len(c.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be at least 32 characters")
	}
	if strings.TrimSpace(c.AuthIssuer) == "" {
		return fmt.Errorf("AUTH_ISSUER is required")
	}
	if strings.TrimSpace(c.AuthAudience) == "" {
		return fmt.Errorf("AUTH_AUDIENCE is required")
	}
	if c.MinDeposit <= 0 {
		return fmt.Errorf("MIN_DEPOSIT must be positive")
	}
	if c.MinWithdrawal <= 0 {
		return fmt.Errorf("MIN_WITHDRAWAL must be positive")
	}
	return nil
}

func bindEnv(v *viper.Viper, key string, names ...string) {
	args := append([]string{key}, names...)
	_ = v.BindEnv(args...)
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
