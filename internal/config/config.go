package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server      ServerConfig      `yaml:"server" toml:"server"`
	Database    DatabaseConfig    `yaml:"database" toml:"database"`
	Auth        AuthConfig        `yaml:"auth" toml:"auth"`
	Logging     LoggingConfig     `yaml:"logging" toml:"logging"`
	Tailscale   TailscaleConfig   `yaml:"tailscale" toml:"tailscale"`
	Progression ProgressionConfig `yaml:"progression" toml:"progression"`
	Metrics     MetricsConfig     `yaml:"metrics" toml:"metrics"`
	Tracing     TracingConfig     `yaml:"tracing" toml:"tracing"`
	Redis       RedisConfig       `yaml:"redis" toml:"redis"`
	Idempotency IdempotencyConfig `yaml:"idempotency" toml:"idempotency"`
	MCP         MCPConfig         `yaml:"mcp" toml:"mcp"`
}

type ServerConfig struct {
	Host string `yaml:"host" toml:"host"`
	Port int    `yaml:"port" toml:"port"`
}

type DatabaseConfig struct {
	// Driver is "postgres" or "sqlite".
	Driver   string `yaml:"driver" toml:"driver"`
	Path     string `yaml:"path" toml:"path"`
	Host     string `yaml:"host" toml:"host"`
	Port     int    `yaml:"port" toml:"port"`
	Name     string `yaml:"name" toml:"name"`
	User     string `yaml:"user" toml:"user"`
	Password string `yaml:"password" toml:"password"`
	SSLMode  string `yaml:"sslmode" toml:"sslmode"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key" toml:"api_key"`
}

type LoggingConfig struct {
	Level     string `yaml:"level" toml:"level"`
	Format    string `yaml:"format" toml:"format"`
	File      string `yaml:"file" toml:"file"`
	MaxSizeMB int    `yaml:"max_size_mb" toml:"max_size_mb"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled" toml:"enabled"`
	Hostname string `yaml:"hostname" toml:"hostname"`
	StateDir string `yaml:"state_dir" toml:"state_dir"`
}

// ProgressionConfig holds the policy given to newly created trackers.
type ProgressionConfig struct {
	SuccessThreshold float64 `yaml:"success_threshold" toml:"success_threshold"`
	AutoIncrement    *bool   `yaml:"auto_increment" toml:"auto_increment"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled" toml:"enabled"`
}

type TracingConfig struct {
	Enabled  bool   `yaml:"enabled" toml:"enabled"`
	Endpoint string `yaml:"endpoint" toml:"endpoint"`
	Insecure bool   `yaml:"insecure" toml:"insecure"`
}

// RedisConfig enables the shared idempotency store and the write rate
// limit. Both fall back to in-process behavior when Addr is empty.
type RedisConfig struct {
	Addr         string `yaml:"addr" toml:"addr"`
	Password     string `yaml:"password" toml:"password"`
	DB           int    `yaml:"db" toml:"db"`
	WritesPerMin int    `yaml:"writes_per_min" toml:"writes_per_min"`
}

type IdempotencyConfig struct {
	TTL         time.Duration `yaml:"ttl" toml:"ttl"`
	CacheSizeMB int           `yaml:"cache_size_mb" toml:"cache_size_mb"`
}

type MCPConfig struct {
	Enabled bool `yaml:"enabled" toml:"enabled"`
}

// DSN returns the connection string for the configured driver: a
// PostgreSQL URL, or the database file path for SQLite.
func (d DatabaseConfig) DSN() string {
	if d.Driver == "sqlite" {
		return d.Path
	}
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// AutoIncrementEnabled reports the auto-increment default, true unless
// explicitly disabled.
func (p ProgressionConfig) AutoIncrementEnabled() bool {
	return p.AutoIncrement == nil || *p.AutoIncrement
}

func defaults() *Config {
	return &Config{
		Server:      ServerConfig{Host: "127.0.0.1", Port: 8080},
		Database:    DatabaseConfig{Driver: "postgres"},
		Logging:     LoggingConfig{Level: "info", Format: "text"},
		Tailscale:   TailscaleConfig{Hostname: "basicfit"},
		Progression: ProgressionConfig{SuccessThreshold: 90},
		Redis:       RedisConfig{WritesPerMin: 120},
		Idempotency: IdempotencyConfig{TTL: 24 * time.Hour, CacheSizeMB: 16},
	}
}

// Load reads config from a YAML or TOML file (chosen by extension), then
// applies environment variable overrides. Env vars use the prefix BASICFIT_
// and underscore-separated paths:
//
//	BASICFIT_SERVER_HOST, BASICFIT_SERVER_PORT,
//	BASICFIT_DB_DRIVER, BASICFIT_DB_PATH, BASICFIT_DB_HOST, BASICFIT_DB_PORT,
//	BASICFIT_DB_NAME, BASICFIT_DB_USER, BASICFIT_DB_PASSWORD, BASICFIT_DB_SSLMODE,
//	BASICFIT_AUTH_API_KEY, BASICFIT_LOG_LEVEL, BASICFIT_LOG_FORMAT, BASICFIT_LOG_FILE,
//	BASICFIT_TAILSCALE_ENABLED, BASICFIT_REDIS_ADDR, BASICFIT_REDIS_PASSWORD,
//	BASICFIT_TRACING_ENABLED, BASICFIT_TRACING_ENDPOINT
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	setString := func(name string, dst *string) {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	setInt := func(name string, dst *int) {
		if v := os.Getenv(name); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	setBool := func(name string, dst *bool) {
		if v := os.Getenv(name); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}

	setString("BASICFIT_SERVER_HOST", &cfg.Server.Host)
	setInt("BASICFIT_SERVER_PORT", &cfg.Server.Port)
	setString("BASICFIT_DB_DRIVER", &cfg.Database.Driver)
	setString("BASICFIT_DB_PATH", &cfg.Database.Path)
	setString("BASICFIT_DB_HOST", &cfg.Database.Host)
	setInt("BASICFIT_DB_PORT", &cfg.Database.Port)
	setString("BASICFIT_DB_NAME", &cfg.Database.Name)
	setString("BASICFIT_DB_USER", &cfg.Database.User)
	setString("BASICFIT_DB_PASSWORD", &cfg.Database.Password)
	setString("BASICFIT_DB_SSLMODE", &cfg.Database.SSLMode)
	setString("BASICFIT_AUTH_API_KEY", &cfg.Auth.APIKey)
	setString("BASICFIT_LOG_LEVEL", &cfg.Logging.Level)
	setString("BASICFIT_LOG_FORMAT", &cfg.Logging.Format)
	setString("BASICFIT_LOG_FILE", &cfg.Logging.File)
	setBool("BASICFIT_TAILSCALE_ENABLED", &cfg.Tailscale.Enabled)
	setString("BASICFIT_REDIS_ADDR", &cfg.Redis.Addr)
	setString("BASICFIT_REDIS_PASSWORD", &cfg.Redis.Password)
	setBool("BASICFIT_TRACING_ENABLED", &cfg.Tracing.Enabled)
	setString("BASICFIT_TRACING_ENDPOINT", &cfg.Tracing.Endpoint)
}

func (c *Config) validate() error {
	var errs error
	fail := func(format string, args ...any) {
		errs = multierr.Append(errs, fmt.Errorf(format, args...))
	}

	if c.Server.Port == 0 {
		fail("server.port is required")
	}
	switch c.Database.Driver {
	case "postgres":
		if c.Database.Host == "" {
			fail("database.host is required")
		}
		if c.Database.Port == 0 {
			fail("database.port is required")
		}
		if c.Database.Name == "" {
			fail("database.name is required")
		}
		if c.Database.User == "" {
			fail("database.user is required")
		}
	case "sqlite":
		if c.Database.Path == "" {
			fail("database.path is required for sqlite")
		}
	default:
		fail("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}
	if c.Auth.APIKey == "" {
		fail("auth.api_key is required")
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		fail("logging.format must be text or json, got %q", c.Logging.Format)
	}
	if c.Progression.SuccessThreshold <= 0 || c.Progression.SuccessThreshold > 100 {
		fail("progression.success_threshold must be in (0, 100]")
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		fail("tailscale.hostname is required when tailscale is enabled")
	}
	if c.Redis.WritesPerMin < 0 {
		fail("redis.writes_per_min must not be negative")
	}
	if c.Idempotency.TTL <= 0 {
		fail("idempotency.ttl must be positive")
	}
	return errs
}
