// Package config loads the service configuration from a YAML file.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr string `yaml:"addr"` // Listen address, e.g. ":8080".
}

// DatabaseConfig holds persistence settings.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"` // Postgres DSN or SQLite path.
}

// RedisConfig holds optional balance-view cache settings.
type RedisConfig struct {
	Addr       string `yaml:"addr"` // Empty disables caching.
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

// JWTConfig holds admin token settings.
type JWTConfig struct {
	Secret        string `yaml:"secret"`
	ExpiryMinutes int    `yaml:"expiry_minutes"`
}

// Expiry returns the configured admin token lifetime.
func (c JWTConfig) Expiry() time.Duration {
	return time.Duration(c.ExpiryMinutes) * time.Minute
}

// InternalConfig guards the trusted checkout surface.
type InternalConfig struct {
	ServiceToken string `yaml:"service_token"`
}

// MailConfig points at the external email-delivery collaborator.
type MailConfig struct {
	Endpoint       string `yaml:"endpoint"` // Empty disables delivery.
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// LogConfig controls logrus output and rotation.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"` // Empty logs to stdout only.
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// AdminConfig seeds the bootstrap operator account.
type AdminConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// SweeperConfig controls the reporting-only expiry sweep job.
type SweeperConfig struct {
	Enabled         bool `yaml:"enabled"`
	IntervalMinutes int  `yaml:"interval_minutes"`
}

// Config is the root configuration document.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	JWT      JWTConfig      `yaml:"jwt"`
	Internal InternalConfig `yaml:"internal"`
	Mail     MailConfig     `yaml:"mail"`
	Log      LogConfig      `yaml:"log"`
	Admin    AdminConfig    `yaml:"admin"`
	Sweeper  SweeperConfig  `yaml:"sweeper"`
}

// Load reads, parses, and validates a config file, applying defaults.
func Load(path string) (*Config, error) {
	data, errRead := os.ReadFile(path)
	if errRead != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, errRead)
	}

	cfg := defaultConfig()
	if errUnmarshal := yaml.Unmarshal(data, cfg); errUnmarshal != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, errUnmarshal)
	}
	if errValidate := cfg.validate(); errValidate != nil {
		return nil, errValidate
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		Redis:  RedisConfig{TTLSeconds: 30},
		JWT:    JWTConfig{ExpiryMinutes: 720},
		Mail:   MailConfig{TimeoutSeconds: 10},
		Log:    LogConfig{Level: "info", MaxSizeMB: 100, MaxBackups: 5, MaxAgeDays: 30},
		Sweeper: SweeperConfig{
			Enabled:         true,
			IntervalMinutes: 60,
		},
	}
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Database.DSN) == "" {
		return fmt.Errorf("config: database.dsn is required")
	}
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return fmt.Errorf("config: jwt.secret is required")
	}
	if strings.TrimSpace(c.Internal.ServiceToken) == "" {
		return fmt.Errorf("config: internal.service_token is required")
	}
	return nil
}

// RedisTTL returns the configured cache TTL.
func (c *Config) RedisTTL() time.Duration {
	return time.Duration(c.Redis.TTLSeconds) * time.Second
}

// MailTimeout returns the configured delivery timeout.
func (c *Config) MailTimeout() time.Duration {
	return time.Duration(c.Mail.TimeoutSeconds) * time.Second
}

// SweepInterval returns the configured sweep interval.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Sweeper.IntervalMinutes) * time.Minute
}
