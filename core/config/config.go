// Package config loads application configuration from a YAML file with
// environment variable overrides on top.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "config/config.yaml"

// Config is the root application configuration.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Dialogue  DialogueConfig  `yaml:"dialogue"`
}

// TelegramConfig holds bot token and update delivery options.
type TelegramConfig struct {
	Token           string        `yaml:"token" envconfig:"TELEGRAM_TOKEN"`
	Mode            string        `yaml:"mode" envconfig:"TELEGRAM_MODE"`
	LongPollTimeout time.Duration `yaml:"long_poll_timeout" envconfig:"TELEGRAM_LONG_POLL_TIMEOUT"`
	HTTPTimeout     time.Duration `yaml:"http_timeout" envconfig:"TELEGRAM_HTTP_TIMEOUT"`
	AdminIDs        []int64       `yaml:"admin_ids" envconfig:"TELEGRAM_ADMIN_IDS"`
}

// WebhookConfig configures the webhook update mode.
type WebhookConfig struct {
	PublicURL   string `yaml:"public_url" envconfig:"WEBHOOK_PUBLIC_URL"`
	Listen      string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	SecretToken string `yaml:"secret_token" envconfig:"WEBHOOK_SECRET_TOKEN"`
}

// LoggingConfig controls the structured logger output.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format      string `yaml:"format" envconfig:"LOG_FORMAT"`
	Profile     string `yaml:"profile" envconfig:"LOG_PROFILE"`
	Dir         string `yaml:"dir" envconfig:"LOG_DIR"`
	BotFile     string `yaml:"bot_file" envconfig:"LOG_BOT_FILE"`
	KeysOrder   string `yaml:"keys_order" envconfig:"LOG_KEYS_ORDER"`
	DebugSample string `yaml:"debug_sample" envconfig:"LOG_DEBUG_SAMPLE"`
}

// RateLimitConfig throttles per-chat message processing.
type RateLimitConfig struct {
	Enabled  bool          `yaml:"enabled" envconfig:"RATE_LIMIT_ENABLED"`
	Interval time.Duration `yaml:"interval" envconfig:"RATE_LIMIT_INTERVAL"`
	Burst    int           `yaml:"burst" envconfig:"RATE_LIMIT_BURST"`
}

// DatabaseConfig holds Postgres connection settings.
type DatabaseConfig struct {
	Host            string        `yaml:"host" envconfig:"DB_HOST"`
	Port            int           `yaml:"port" envconfig:"DB_PORT"`
	User            string        `yaml:"user" envconfig:"DB_USER"`
	Password        string        `yaml:"password" envconfig:"DB_PASSWORD"`
	Name            string        `yaml:"name" envconfig:"DB_NAME"`
	SSLMode         string        `yaml:"ssl_mode" envconfig:"DB_SSL_MODE"`
	MigrationsDir   string        `yaml:"migrations_dir" envconfig:"DB_MIGRATIONS_DIR"`
	MaxOpenConns    int           `yaml:"max_open_conns" envconfig:"DB_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"max_idle_conns" envconfig:"DB_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" envconfig:"DB_CONN_MAX_LIFETIME"`
}

// DSN renders the Postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// RedisConfig holds the ephemeral session store settings.
type RedisConfig struct {
	Addr       string        `yaml:"addr" envconfig:"REDIS_ADDR"`
	Password   string        `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB         int           `yaml:"db" envconfig:"REDIS_DB"`
	SessionTTL time.Duration `yaml:"session_ttl" envconfig:"REDIS_SESSION_TTL"`
}

// DialogueConfig overrides user-facing dialogue labels.
type DialogueConfig struct {
	RoleClientLabel string   `yaml:"role_client_label" envconfig:"DIALOGUE_ROLE_CLIENT_LABEL"`
	RoleDriverLabel string   `yaml:"role_driver_label" envconfig:"DIALOGUE_ROLE_DRIVER_LABEL"`
	SkipLabel       string   `yaml:"skip_label" envconfig:"DIALOGUE_SKIP_LABEL"`
	Categories      []string `yaml:"categories" envconfig:"DIALOGUE_CATEGORIES"`
}

// Load reads the YAML config (path from CONFIG_PATH or the default location)
// and applies environment overrides via envconfig.
func Load() (*Config, error) {
	cfg := &Config{}

	path := strings.TrimSpace(os.Getenv("CONFIG_PATH"))
	if path == "" {
		path = defaultConfigPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// env-only configuration is allowed
	default:
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("config: env overrides: %w", err)
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Normalize fills defaults for optional settings.
func (c *Config) Normalize() {
	c.Telegram.Mode = strings.ToLower(strings.TrimSpace(c.Telegram.Mode))
	if c.Telegram.Mode == "" {
		c.Telegram.Mode = "longpoll"
	}
	if c.Telegram.LongPollTimeout <= 0 {
		c.Telegram.LongPollTimeout = 30 * time.Second
	}
	if c.Telegram.HTTPTimeout <= 0 {
		c.Telegram.HTTPTimeout = 60 * time.Second
	}
	if c.Webhook.Listen == "" {
		c.Webhook.Listen = ":8443"
	}
	if c.RateLimit.Interval <= 0 {
		c.RateLimit.Interval = time.Second
	}
	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = 3
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MigrationsDir == "" {
		c.Database.MigrationsDir = "migrations"
	}
	if c.Database.MaxOpenConns <= 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Database.MaxIdleConns <= 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetime <= 0 {
		c.Database.ConnMaxLifetime = 30 * time.Minute
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Redis.SessionTTL <= 0 {
		c.Redis.SessionTTL = 24 * time.Hour
	}
}

// Validate checks settings that have no sane default.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Telegram.Token) == "" {
		return fmt.Errorf("config: telegram token is required")
	}
	switch c.Telegram.Mode {
	case "longpoll", "webhook":
	default:
		return fmt.Errorf("config: unknown telegram mode %q", c.Telegram.Mode)
	}
	if c.Telegram.Mode == "webhook" && strings.TrimSpace(c.Webhook.PublicURL) == "" {
		return fmt.Errorf("config: webhook public_url is required in webhook mode")
	}
	if strings.TrimSpace(c.Database.Host) == "" {
		return fmt.Errorf("config: database host is required")
	}
	if strings.TrimSpace(c.Database.Name) == "" {
		return fmt.Errorf("config: database name is required")
	}
	return nil
}

// IsAdmin reports whether the user id belongs to the configured admin list.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.Telegram.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}
