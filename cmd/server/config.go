// Package main provides the LogGuard server CLI.
package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/logguard-ai/logguard/internal/models"
	"github.com/logguard-ai/logguard/internal/notifier"
)

// Config represents the server configuration file.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Monitor  MonitorConfig  `yaml:"monitor"`
	Logging  LoggingConfig  `yaml:"logging"`

	// SMTP enables real mail delivery; without it, email notifications
	// are written to the application log.
	SMTP *notifier.SMTPConfig `yaml:"smtp"`

	// App seeds the runtime configuration on first boot. After that the
	// copy persisted in the database wins.
	App models.AppConfig `yaml:"app"`

	Verbose bool `yaml:"-"` // set via CLI flag
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Address    string `yaml:"address"`      // HTTP listen address (default: :8080)
	JWTSecret  string `yaml:"jwt_secret"`   // overridable via LOGGUARD_JWT_SECRET
	APIKey     string `yaml:"api_key"`      // overridable via LOGGUARD_API_KEY
	APIKeyHash string `yaml:"api_key_hash"` // bcrypt hash; wins over api_key

	TokenTTL          time.Duration `yaml:"token_ttl"`
	WebhookRatePerSec float64       `yaml:"webhook_rate_per_second"`
	WebhookBurst      int           `yaml:"webhook_burst"`
}

// DatabaseConfig contains storage settings.
type DatabaseConfig struct {
	Path string `yaml:"path"` // SQLite database path
}

// MonitorConfig contains streaming pipeline settings.
type MonitorConfig struct {
	Query         string        `yaml:"query"`
	Window        time.Duration `yaml:"window"`
	PollInterval  time.Duration `yaml:"poll_interval"`
	RetryInterval time.Duration `yaml:"retry_interval"`
	AutoStart     bool          `yaml:"auto_start"`

	RateLimit struct {
		Enabled      bool `yaml:"enabled"`
		MaxPerMinute int  `yaml:"max_per_minute"`
	} `yaml:"rate_limit"`
}

// LoggingConfig contains log settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// LoadConfig loads configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// setDefaults sets default values for missing config fields.
func (c *Config) setDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Server.TokenTTL <= 0 {
		c.Server.TokenTTL = 24 * time.Hour
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/logguard.db"
	}
	if c.Monitor.Query == "" {
		c.Monitor.Query = "*"
	}
	if c.Monitor.Window <= 0 {
		c.Monitor.Window = 60 * time.Second
	}
	if c.Monitor.PollInterval <= 0 {
		c.Monitor.PollInterval = 30 * time.Second
	}
	if c.Monitor.RetryInterval <= 0 {
		c.Monitor.RetryInterval = 60 * time.Second
	}
	if c.Monitor.RateLimit.MaxPerMinute <= 0 {
		c.Monitor.RateLimit.MaxPerMinute = 10
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	if c.App.Graylog.URL == "" && c.App.AI.URL == "" {
		c.App = *models.DefaultAppConfig()
	}

	// Environment overrides keep secrets out of the file.
	if v := os.Getenv("LOGGUARD_JWT_SECRET"); v != "" {
		c.Server.JWTSecret = v
	}
	if v := os.Getenv("LOGGUARD_API_KEY"); v != "" {
		c.Server.APIKey = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("server.address is required")
	}
	if c.SMTP != nil {
		if err := c.SMTP.Validate(); err != nil {
			return err
		}
	}
	if err := c.App.Validate(); err != nil {
		return err
	}
	return nil
}
