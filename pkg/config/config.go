package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	Sessions SessionsConfig
	Auth     AuthConfig
	Stripe   StripeConfig
	Flags    FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Sessions.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ACP_APP_ENV" default:"dev"`
	Port         string `envconfig:"ACP_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"ACP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ACP_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"ACP_DB_DSN"`
	Driver string `envconfig:"ACP_DB_DRIVER" default:"postgres"`

	MaxOpenConns    int           `envconfig:"ACP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ACP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ACP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ACP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ACP_REDIS_URL"`
	Address      string        `envconfig:"ACP_REDIS_ADDR"`
	Password     string        `envconfig:"ACP_REDIS_PASSWORD"`
	DB           int           `envconfig:"ACP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ACP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ACP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ACP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ACP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ACP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// SessionsConfig controls session persistence. Backend is fixed at boot;
// there is no runtime fallback between backends.
type SessionsConfig struct {
	Backend string        `envconfig:"ACP_SESSIONS_BACKEND" default:"redis"`
	TTL     time.Duration `envconfig:"ACP_SESSIONS_TTL" default:"24h"`
}

func (s SessionsConfig) validate() error {
	switch s.Backend {
	case SessionsBackendRedis, SessionsBackendMemory:
	default:
		return fmt.Errorf("sessions backend must be %q or %q, got %q",
			SessionsBackendRedis, SessionsBackendMemory, s.Backend)
	}
	if s.TTL <= 0 {
		return fmt.Errorf("sessions ttl must be positive")
	}
	return nil
}

// AuthConfig covers the bearer pre-check in front of the checkout API.
// Either a static shared token or an HS256 JWT secret may be configured;
// with neither set, requests are only allowed in dev.
type AuthConfig struct {
	Token     string `envconfig:"ACP_AUTH_TOKEN"`
	JWTSecret string `envconfig:"ACP_AUTH_JWT_SECRET"`
	JWTIssuer string `envconfig:"ACP_AUTH_JWT_ISSUER"`
}

func (a AuthConfig) Configured() bool {
	return strings.TrimSpace(a.Token) != "" || strings.TrimSpace(a.JWTSecret) != ""
}

type StripeConfig struct {
	APIKey string `envconfig:"ACP_STRIPE_API_KEY"`
	Secret string `envconfig:"ACP_STRIPE_WEBHOOK_SECRET"`
	Env    string `envconfig:"ACP_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"ACP_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"ACP_AUTO_MIGRATE" default:"false"`
	SeedCatalog bool `envconfig:"ACP_SEED_CATALOG" default:"false"`
}
