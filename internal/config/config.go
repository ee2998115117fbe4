package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Store backends.
const (
	StoreBackendFile  = "file"
	StoreBackendRedis = "redis"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Debug   bool   `env:"DEBUG" envDefault:"false"`
	LogFile string `env:"LOG_FILE" envDefault:"log.txt"`

	Telegram struct {
		Token       string  `env:"TELEGRAM_TOKEN"`
		APIURL      string  `env:"TELEGRAM_API_URL" envDefault:"https://api.telegram.org"`
		PollTimeout int     `env:"TELEGRAM_POLL_TIMEOUT" envDefault:"30"` // long-poll seconds
		AdminIDs    []int64 `env:"ADMIN_IDS" envSeparator:","`
	}

	// DistributionDatetime is parsed lazily by ParseDistributionTime; an
	// unparsable value must not prevent the bot from starting.
	DistributionDatetime string `env:"DISTRIBUTION_DATETIME"`

	Store struct {
		Backend string `env:"STORE_BACKEND" envDefault:"file"`
		DataDir string `env:"DATA_DIR" envDefault:"data"`
	}

	Redis struct {
		Addr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
		Password string        `env:"REDIS_PASSWORD" envDefault:""`
		DB       int           `env:"REDIS_DB" envDefault:"0"`
		LockTTL  time.Duration `env:"REDIS_LOCK_TTL" envDefault:"30m"`
	}

	HTTP struct {
		Addr               string `env:"HTTP_ADDR" envDefault:":8080"`
		CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`
		InitDataTTL        int    `env:"INIT_DATA_TTL" envDefault:"86400"` // seconds, 0 disables the check
	}

	Delivery Delivery
}

// Delivery holds the knobs of the notification retry policy.
type Delivery struct {
	SendDelay      float64 `env:"SEND_DELAY" envDefault:"0.5"` // seconds
	MaxSendRetries int     `env:"MAX_SEND_RETRIES" envDefault:"3"`
	RetryBackoff   float64 `env:"RETRY_BACKOFF" envDefault:"2.0"`
}

// BaseDelay returns SendDelay as a duration.
func (d Delivery) BaseDelay() time.Duration {
	return time.Duration(d.SendDelay * float64(time.Second))
}

// Load reads an optional .env file and then the environment into Config.
func Load() (*Config, error) {
	// .env is optional; in production variables are set directly.
	_ = godotenv.Load()
	return Parse()
}

// Parse reads the process environment into Config without touching .env.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that struct tags cannot express.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case StoreBackendFile, StoreBackendRedis:
	default:
		return fmt.Errorf("invalid STORE_BACKEND %q: must be %q or %q", c.Store.Backend, StoreBackendFile, StoreBackendRedis)
	}
	if c.Delivery.SendDelay < 0 {
		return fmt.Errorf("invalid SEND_DELAY: must not be negative")
	}
	if c.Delivery.MaxSendRetries < 0 {
		return fmt.Errorf("invalid MAX_SEND_RETRIES: must not be negative")
	}
	if c.Delivery.RetryBackoff < 1 {
		return fmt.Errorf("invalid RETRY_BACKOFF: must be at least 1")
	}
	if c.Telegram.PollTimeout < 0 {
		return fmt.Errorf("invalid TELEGRAM_POLL_TIMEOUT: must not be negative")
	}
	return nil
}

// IsAdmin reports whether id is allowed to trigger a manual distribution.
// An empty admin list allows everyone.
func (c *Config) IsAdmin(id int64) bool {
	if len(c.Telegram.AdminIDs) == 0 {
		return true
	}
	for _, a := range c.Telegram.AdminIDs {
		if a == id {
			return true
		}
	}
	return false
}

var distributionLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseDistributionTime parses DISTRIBUTION_DATETIME. RFC 3339 values keep
// their offset; the other accepted layouts are interpreted in loc.
func ParseDistributionTime(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty distribution datetime")
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	for _, layout := range distributionLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported distribution datetime %q", raw)
}

var months = [...]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// HumanDate formats t as "15 December 2026".
func HumanDate(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), months[t.Month()-1], t.Year())
}
