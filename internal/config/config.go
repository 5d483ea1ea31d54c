package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config aggregates application settings that may be sourced from files or environment variables.
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Matching MatchingConfig `mapstructure:"matching"`
	Poller   PollerConfig   `mapstructure:"poller"`
}

// APIConfig contains HTTP server settings.
type APIConfig struct {
	Port int `mapstructure:"port"`
}

// DatabaseConfig contains connection options for PostgreSQL.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig 包含 Redis 连接配置。
type RedisConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// AuthConfig contains the PEM key material and token lifetimes for the auth service.
type AuthConfig struct {
	PrivateKeyPath  string        `mapstructure:"private_key_path"`
	PublicKeyPath   string        `mapstructure:"public_key_path"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
}

// CatalogConfig contains options for the external job-posting feed.
type CatalogConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// MatchingConfig 包含匹配引擎的运行参数。
type MatchingConfig struct {
	Concurrency     int `mapstructure:"concurrency"`
	RefreshDailyCap int `mapstructure:"refresh_daily_cap"`
}

// PollerConfig contains the cron schedule for the catalog poller.
type PollerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Spec    string `mapstructure:"spec"`
}

// Addr builds the host:port pair for the Redis client.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// DSN builds a lib/pq compatible connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host,
		d.Port,
		d.User,
		d.Password,
		d.Name,
		d.SSLMode,
	)
}

// Load reads configuration solely from environment variables (with optional defaults).
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if err := bindEnv(v); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// MustLoad wraps Load and panics on failure.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.port", 8080)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "jobradar")
	v.SetDefault("database.user", "jobradar")
	v.SetDefault("database.password", "jobradar")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("auth.access_token_ttl", 15*time.Minute)
	v.SetDefault("auth.refresh_token_ttl", 7*24*time.Hour)
	v.SetDefault("catalog.base_url", "http://localhost:9100")
	v.SetDefault("catalog.timeout", 10*time.Second)
	v.SetDefault("matching.concurrency", 8)
	v.SetDefault("matching.refresh_daily_cap", 20)
	v.SetDefault("poller.enabled", true)
	v.SetDefault("poller.spec", "@every 10m")
}

func bindEnv(v *viper.Viper) error {
	mappings := map[string]string{
		"api.port":                   "API_PORT",
		"database.host":              "DATABASE_HOST",
		"database.port":              "DATABASE_PORT",
		"database.name":              "POSTGRES_DB",
		"database.user":              "POSTGRES_USER",
		"database.password":          "POSTGRES_PASSWORD",
		"database.sslmode":           "DATABASE_SSLMODE",
		"redis.host":                 "REDIS_HOST",
		"redis.port":                 "REDIS_PORT",
		"auth.private_key_path":      "AUTH_PRIVATE_KEY_PATH",
		"auth.public_key_path":       "AUTH_PUBLIC_KEY_PATH",
		"auth.access_token_ttl":      "AUTH_ACCESS_TOKEN_TTL",
		"auth.refresh_token_ttl":     "AUTH_REFRESH_TOKEN_TTL",
		"catalog.base_url":           "CATALOG_BASE_URL",
		"catalog.timeout":            "CATALOG_TIMEOUT",
		"matching.concurrency":       "MATCHING_CONCURRENCY",
		"matching.refresh_daily_cap": "MATCHING_REFRESH_DAILY_CAP",
		"poller.enabled":             "POLLER_ENABLED",
		"poller.spec":                "POLLER_SPEC",
	}

	for key, env := range mappings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s to %s: %w", key, env, err)
		}
	}

	return nil
}

func validate(cfg Config) error {
	if cfg.API.Port <= 0 {
		return errors.New("api port must be positive")
	}
	if cfg.Database.Host == "" {
		return errors.New("database host is required")
	}
	if cfg.Database.Port <= 0 {
		return errors.New("database port must be positive")
	}
	if cfg.Database.Name == "" {
		return errors.New("database name is required")
	}
	if cfg.Database.User == "" {
		return errors.New("database user is required")
	}
	if cfg.Database.Password == "" {
		return errors.New("database password is required")
	}
	if cfg.Database.SSLMode == "" {
		return errors.New("database sslmode is required")
	}
	if cfg.Redis.Host == "" {
		return errors.New("redis host is required")
	}
	if cfg.Redis.Port <= 0 {
		return errors.New("redis port must be positive")
	}
	if cfg.Catalog.BaseURL == "" {
		return errors.New("catalog base url is required")
	}
	if cfg.Catalog.Timeout <= 0 {
		return errors.New("catalog timeout must be positive")
	}
	if cfg.Matching.Concurrency <= 0 {
		return errors.New("matching concurrency must be positive")
	}
	if cfg.Poller.Enabled && cfg.Poller.Spec == "" {
		return errors.New("poller spec is required when the poller is enabled")
	}
	return nil
}
