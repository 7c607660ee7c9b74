package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the relay
type Config struct {
	// Upstream account being watched
	Twitter TwitterConfig `yaml:"twitter" json:"twitter"`

	// Destination chat
	Telegram TelegramConfig `yaml:"telegram" json:"telegram"`

	// Polling cadence
	Polling PollingConfig `yaml:"polling" json:"polling"`

	// Upstream rate limiting
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Download and send behaviour
	Relay RelayConfig `yaml:"relay" json:"relay"`

	// Persisted state locations
	Storage StorageConfig `yaml:"storage" json:"storage"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Health/trigger endpoint
	Web WebConfig `yaml:"web" json:"web"`
}

// TwitterConfig holds upstream API configuration
type TwitterConfig struct {
	Handle      string `yaml:"handle" json:"handle"`
	BearerToken string `yaml:"bearer_token" json:"bearer_token"`
	BaseURL     string `yaml:"base_url" json:"base_url"`
	PageSize    int    `yaml:"page_size" json:"page_size"`
}

// TelegramConfig holds destination bot configuration
type TelegramConfig struct {
	BotToken string `yaml:"bot_token" json:"bot_token"`
	ChatID   int64  `yaml:"chat_id" json:"chat_id"`
	// Videos above this size are sent as documents instead; the video
	// endpoint rejects or silently drops larger payloads.
	DocumentThreshold int64 `yaml:"document_threshold" json:"document_threshold"`
}

// PollingConfig holds the scheduling cadence
type PollingConfig struct {
	Interval      time.Duration `yaml:"interval" json:"interval"`
	RecoveryDelay time.Duration `yaml:"recovery_delay" json:"recovery_delay"`
}

// RateLimitConfig holds upstream call pacing configuration
type RateLimitConfig struct {
	MinCallSpacing time.Duration `yaml:"min_call_spacing" json:"min_call_spacing"`
	Cooldown       time.Duration `yaml:"cooldown" json:"cooldown"`
}

// RelayConfig holds download/send pipeline configuration
type RelayConfig struct {
	TempDir    string        `yaml:"temp_dir" json:"temp_dir"`
	TempTTL    time.Duration `yaml:"temp_ttl" json:"temp_ttl"`
	AssetDelay time.Duration `yaml:"asset_delay" json:"asset_delay"`
	PostDelay  time.Duration `yaml:"post_delay" json:"post_delay"`
}

// StorageConfig holds persisted state locations
type StorageConfig struct {
	ProcessedFile string `yaml:"processed_file" json:"processed_file"`
	LockFile      string `yaml:"lock_file" json:"lock_file"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// WebConfig holds the front-end listener configuration
type WebConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Addr    string `yaml:"addr" json:"addr"`
}

const (
	// Twitter v2 bounds for max_results on the user tweets endpoint
	minPageSize = 5
	maxPageSize = 100
)

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Twitter: TwitterConfig{
			BaseURL:  "https://api.twitter.com/2",
			PageSize: 5,
		},
		Telegram: TelegramConfig{
			DocumentThreshold: 45 * 1024 * 1024,
		},
		Polling: PollingConfig{
			Interval:      900 * time.Second,
			RecoveryDelay: 60 * time.Second,
		},
		RateLimit: RateLimitConfig{
			MinCallSpacing: 2 * time.Second,
			Cooldown:       15 * time.Minute,
		},
		Relay: RelayConfig{
			TempDir:    "temp",
			TempTTL:    time.Hour,
			AssetDelay: time.Second,
			PostDelay:  2 * time.Second,
		},
		Storage: StorageConfig{
			ProcessedFile: "data/processed_tweets.txt",
			LockFile:      "data/relay.lock",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Web: WebConfig{
			Enabled: true,
			Addr:    ":5000",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// environment variables (in that order of precedence, later wins). A .env
// file in the working directory is honoured when present.
func Load(configFile string) (*Config, error) {
	// Best effort; a missing .env file is the normal case
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if configFile != "" {
		if err := cfg.LoadFromFile(configFile); err != nil {
			return nil, err
		}
	}

	if err := cfg.LoadFromEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile merges configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if handle := os.Getenv("TWEETRELAY_TARGET_HANDLE"); handle != "" {
		c.Twitter.Handle = handle
	}
	if token := os.Getenv("TWEETRELAY_TWITTER_BEARER_TOKEN"); token != "" {
		c.Twitter.BearerToken = token
	}
	if base := os.Getenv("TWEETRELAY_TWITTER_BASE_URL"); base != "" {
		c.Twitter.BaseURL = base
	}
	if pageSize := os.Getenv("TWEETRELAY_PAGE_SIZE"); pageSize != "" {
		n, err := strconv.Atoi(pageSize)
		if err != nil {
			return fmt.Errorf("invalid TWEETRELAY_PAGE_SIZE: %w", err)
		}
		c.Twitter.PageSize = n
	}

	if token := os.Getenv("TWEETRELAY_TELEGRAM_BOT_TOKEN"); token != "" {
		c.Telegram.BotToken = token
	}
	if chatID := os.Getenv("TWEETRELAY_TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TWEETRELAY_TELEGRAM_CHAT_ID: %w", err)
		}
		c.Telegram.ChatID = id
	}

	if interval := os.Getenv("TWEETRELAY_CHECK_INTERVAL"); interval != "" {
		d, err := parseSeconds(interval)
		if err != nil {
			return fmt.Errorf("invalid TWEETRELAY_CHECK_INTERVAL: %w", err)
		}
		c.Polling.Interval = d
	}

	if dataFile := os.Getenv("TWEETRELAY_DATA_FILE"); dataFile != "" {
		c.Storage.ProcessedFile = dataFile
	}
	if lockFile := os.Getenv("TWEETRELAY_LOCK_FILE"); lockFile != "" {
		c.Storage.LockFile = lockFile
	}
	if tempDir := os.Getenv("TWEETRELAY_TEMP_DIR"); tempDir != "" {
		c.Relay.TempDir = tempDir
	}

	if level := os.Getenv("TWEETRELAY_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if file := os.Getenv("TWEETRELAY_LOG_FILE"); file != "" {
		c.Logging.File = file
	}

	if addr := os.Getenv("TWEETRELAY_WEB_ADDR"); addr != "" {
		c.Web.Addr = addr
	}
	if enabled := os.Getenv("TWEETRELAY_WEB_ENABLED"); enabled != "" {
		b, err := strconv.ParseBool(enabled)
		if err != nil {
			return fmt.Errorf("invalid TWEETRELAY_WEB_ENABLED: %w", err)
		}
		c.Web.Enabled = b
	}

	return nil
}

// parseSeconds accepts either a bare number of seconds ("900") or a Go
// duration string ("15m")
func parseSeconds(s string) (time.Duration, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}

// Validate checks the configuration for correctness and normalises
// bounded values. Missing credentials are fatal; the relay must not start
// partially configured.
func (c *Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.Twitter.Handle) == "" {
		missing = append(missing, "twitter handle")
	}
	if strings.TrimSpace(c.Twitter.BearerToken) == "" {
		missing = append(missing, "twitter bearer token")
	}
	if strings.TrimSpace(c.Telegram.BotToken) == "" {
		missing = append(missing, "telegram bot token")
	}
	if c.Telegram.ChatID == 0 {
		missing = append(missing, "telegram chat id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	if c.Polling.Interval <= 0 {
		return errors.New("polling interval must be positive")
	}
	if c.Polling.RecoveryDelay < 0 {
		return errors.New("recovery delay must not be negative")
	}
	if c.RateLimit.MinCallSpacing < 0 {
		return errors.New("min call spacing must not be negative")
	}
	if c.Relay.TempTTL <= 0 {
		return errors.New("temp TTL must be positive")
	}
	if c.Storage.ProcessedFile == "" {
		return errors.New("processed file path must not be empty")
	}
	if c.Storage.LockFile == "" {
		return errors.New("lock file path must not be empty")
	}

	// The upstream rejects out-of-range max_results rather than clamping
	if c.Twitter.PageSize < minPageSize {
		c.Twitter.PageSize = minPageSize
	} else if c.Twitter.PageSize > maxPageSize {
		c.Twitter.PageSize = maxPageSize
	}

	return nil
}
