package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// DefaultPath is the config file read when no path is given.
const DefaultPath = "config.yaml"

// Config holds all configuration for ekaya-assist.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, keys, DSNs) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"3444"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// ShutdownTimeout bounds graceful HTTP shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" env-default:"15s"`

	AI        AIConfig        `yaml:"ai"`
	Datastore DatastoreConfig `yaml:"datastore"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	History   HistoryConfig   `yaml:"history"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Locale    LocaleConfig    `yaml:"locale"`
}

// AIConfig configures the remote reasoning service.
// An empty APIKey leaves the remote path unconfigured; every question is
// then answered by the local engine.
type AIConfig struct {
	Provider string `yaml:"provider" env:"AI_PROVIDER" env-default:"gemini"`
	Model    string `yaml:"model" env:"AI_MODEL" env-default:""`
	BaseURL  string `yaml:"base_url" env:"AI_BASE_URL" env-default:""`
	APIKey   string `yaml:"-" env:"AI_API_KEY"` // Secret - not in YAML

	GenerateTemperature float64 `yaml:"generate_temperature" env:"AI_GENERATE_TEMPERATURE" env-default:"0.1"`
	NarrateTemperature  float64 `yaml:"narrate_temperature" env:"AI_NARRATE_TEMPERATURE" env-default:"0.4"`
	MaxTokens           int     `yaml:"max_tokens" env:"AI_MAX_TOKENS" env-default:"1024"`

	// Timeout bounds one reasoning call including retries.
	Timeout time.Duration `yaml:"timeout" env:"AI_TIMEOUT" env-default:"30s"`

	// MaxRetries is the number of retries after the first attempt. 0 disables retries.
	MaxRetries int `yaml:"max_retries" env:"AI_MAX_RETRIES" env-default:"2"`

	// BreakerThreshold consecutive failures open the circuit for BreakerReset.
	BreakerThreshold int           `yaml:"breaker_threshold" env:"AI_BREAKER_THRESHOLD" env-default:"5"`
	BreakerReset     time.Duration `yaml:"breaker_reset" env:"AI_BREAKER_RESET" env-default:"30s"`
}

// Configured reports whether a remote provider can be built.
func (c *AIConfig) Configured() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// DatastoreConfig points at the operational database holding tenant data.
type DatastoreConfig struct {
	// Driver is postgres, sqlite or mssql.
	Driver string `yaml:"driver" env:"DATASTORE_DRIVER" env-default:"postgres"`
	DSN    string `yaml:"-" env:"DATASTORE_DSN"` // Secret - not in YAML
}

// DatabaseConfig holds the PostgreSQL database used for chat history and migrations.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"ekaya"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"ekaya_assist"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"10"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// RedisConfig configures the Redis history backend. An empty Host disables Redis.
type RedisConfig struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port     int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// History backends.
const (
	HistoryNone     = "none"
	HistoryMemory   = "memory"
	HistoryRedis    = "redis"
	HistoryPostgres = "postgres"
)

// HistoryConfig selects where conversation threads are kept.
type HistoryConfig struct {
	Backend      string        `yaml:"backend" env:"HISTORY_BACKEND" env-default:"memory"`
	FetchLimit   int           `yaml:"fetch_limit" env:"HISTORY_FETCH_LIMIT" env-default:"10"`
	MaxPerThread int           `yaml:"max_per_thread" env:"HISTORY_MAX_PER_THREAD" env-default:"50"`
	TTL          time.Duration `yaml:"ttl" env:"HISTORY_TTL" env-default:"72h"`
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	// EnableVerification controls whether JWT tokens are validated.
	// Set to false for local development without auth server.
	EnableVerification bool `yaml:"enable_verification" env:"AUTH_ENABLE_VERIFICATION" env-default:"false"`

	// JWKSEndpointsStr is a comma-separated list of issuer=jwks_url pairs.
	// Format: "issuer1=url1,issuer2=url2"
	JWKSEndpointsStr string `yaml:"jwks_endpoints" env:"JWKS_ENDPOINTS" env-default:""`

	// Audience expected in the aud claim. Empty skips the check.
	Audience string `yaml:"audience" env:"AUTH_AUDIENCE" env-default:"ekaya-assist"`

	// JWKSEndpoints is the parsed map from JWKSEndpointsStr (not from config file).
	JWKSEndpoints map[string]string `yaml:"-"`
}

// RateLimitConfig throttles questions per tenant. A non-positive rate disables it.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" env:"RATE_LIMIT_RPS" env-default:"2"`
	Burst             int     `yaml:"burst" env:"RATE_LIMIT_BURST" env-default:"10"`
}

// LocaleConfig controls how times are rendered in answers.
type LocaleConfig struct {
	Timezone string `yaml:"timezone" env:"TIMEZONE" env-default:"America/Santiago"`
}

// Location resolves the configured timezone.
func (c *LocaleConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Load reads a .env file if present, then configuration from path with
// environment variable overrides. When the file does not exist only the
// environment is read. The version is set on the returned Config.
func Load(path, version string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	if path == "" {
		path = DefaultPath
	}

	cfg := &Config{Version: version}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else if errors.Is(err, fs.ErrNotExist) {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	cfg.Auth.JWKSEndpoints = parseJWKSEndpoints(cfg.Auth.JWKSEndpointsStr)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.History.Backend {
	case HistoryNone, HistoryMemory, HistoryPostgres:
	case HistoryRedis:
		if c.Redis.Host == "" {
			return fmt.Errorf("history backend redis requires redis.host")
		}
	default:
		return fmt.Errorf("unknown history backend %q", c.History.Backend)
	}

	if c.Auth.EnableVerification && len(c.Auth.JWKSEndpoints) == 0 {
		return fmt.Errorf("auth.enable_verification requires jwks_endpoints")
	}

	if _, err := c.Locale.Location(); err != nil {
		return err
	}
	return nil
}

// parseJWKSEndpoints parses the JWKS endpoints string into a map.
// Format: "issuer1=url1,issuer2=url2"
func parseJWKSEndpoints(value string) map[string]string {
	endpoints := make(map[string]string)
	if value == "" {
		return endpoints
	}

	pairs := strings.Split(value, ",")
	for _, pair := range pairs {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) == 2 {
			endpoints[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}
	return endpoints
}

// ConnectionString returns a PostgreSQL connection URL.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, ResolveHostForDocker(c.Host), c.Port, c.Database, c.SSLMode,
	)
}
