package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// BotConfig holds MAX bot settings that are common for all bots.
type BotConfig struct {
	Name           string `yaml:"name" envconfig:"MAX_BOT_NAME"`
	Token          string `yaml:"token" envconfig:"MAX_BOT_TOKEN"`
	AdminID        int64  `yaml:"admin_id" envconfig:"MAX_ADMIN_ID"`
	BaseURL        string `yaml:"base_url" envconfig:"MAX_BASE_URL"`
	TimeoutSeconds int    `yaml:"timeout_seconds" envconfig:"MAX_TIMEOUT_SECONDS"`
	RunMode        string `yaml:"run_mode" envconfig:"MAX_RUN_MODE"`
	// Long polling knobs; zero values fall back to defaults.
	Limit              int      `yaml:"limit" envconfig:"MAX_POLL_LIMIT"`
	PollTimeoutSeconds int      `yaml:"poll_timeout_seconds" envconfig:"MAX_POLL_TIMEOUT_SECONDS"`
	MaxRetries         int      `yaml:"max_retries" envconfig:"MAX_POLL_MAX_RETRIES"`
	Types              []string `yaml:"types" envconfig:"MAX_POLL_TYPES"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Path   string `yaml:"path" envconfig:"WEBHOOK_PATH"`
	Secret string `yaml:"secret" envconfig:"WEBHOOK_SECRET"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format      string `yaml:"format" envconfig:"LOG_FORMAT"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir" envconfig:"LOG_DIR"`
	BotFile     string `yaml:"bot_file"`
	ErrorsFile  string `yaml:"errors_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
	// Rotation settings for file sinks.
	MaxSizeMB  int  `yaml:"max_size_mb"`
	MaxBackups int  `yaml:"max_backups"`
	MaxAgeDays int  `yaml:"max_age_days"`
	Compress   bool `yaml:"compress"`
}

const (
	// RunModeWebhook selects webhook delivery of updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling of updates.
	RunModeLongpoll = "longpoll"
)

const (
	// UpdateCallback identifies callback updates for rate limit exclusions.
	UpdateCallback = "callback"
	// UpdateMessage identifies message updates for rate limit exclusions.
	UpdateMessage = "message"
)

// RateLimitConfig holds settings for rate limiting.
// ExcludeUpdates accepts update kinds to bypass limiting:
// - "callback": inline button presses
// - "message": regular messages
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// Session store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// SessionConfig configures conversation session storage and retention.
// SessionTTL and CallbackTTL are independent windows.
type SessionConfig struct {
	Store         string        `yaml:"store" envconfig:"SESSION_STORE"`
	SessionTTL    time.Duration `yaml:"session_ttl" envconfig:"SESSION_TTL"`
	CallbackTTL   time.Duration `yaml:"callback_ttl" envconfig:"SESSION_CALLBACK_TTL"`
	SweepInterval time.Duration `yaml:"sweep_interval" envconfig:"SESSION_SWEEP_INTERVAL"`
}

// RedisConfig holds connection settings for the redis session store.
type RedisConfig struct {
	Addr     string `yaml:"addr" envconfig:"REDIS_ADDR"`
	Password string `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" envconfig:"REDIS_DB"`
	Prefix   string `yaml:"prefix" envconfig:"REDIS_PREFIX"`
}

// DatabaseConfig holds connection settings for the postgres session store.
type DatabaseConfig struct {
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
	// MigrationsDir overrides the default ./migrations lookup.
	MigrationsDir string `yaml:"migrations_dir" envconfig:"DB_MIGRATIONS_DIR"`
}

// DSN returns a libpq keyword/value connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"user=%s password=%s host=%s port=%s dbname=%s sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

// URL returns the postgres:// form used by golang-migrate.
func (c DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

// MetricsConfig enables the prometheus endpoint when Listen is set.
type MetricsConfig struct {
	Listen string `yaml:"listen" envconfig:"METRICS_LISTEN"`
}

// SenderConfig tunes the asynchronous outbound dispatcher. Workers == 0 disables it.
type SenderConfig struct {
	Workers     int           `yaml:"workers" envconfig:"SENDER_WORKERS"`
	QueueSize   int           `yaml:"queue_size" envconfig:"SENDER_QUEUE_SIZE"`
	MaxRetries  int           `yaml:"max_retries" envconfig:"SENDER_MAX_RETRIES"`
	Backoff     time.Duration `yaml:"backoff" envconfig:"SENDER_BACKOFF"`
	MaxDuration time.Duration `yaml:"max_duration" envconfig:"SENDER_MAX_DURATION"`
}

// Config aggregates the configuration that belongs to the reusable core.
type Config struct {
	Bot       BotConfig       `yaml:"bot"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Session   SessionConfig   `yaml:"session"`
	Redis     RedisConfig     `yaml:"redis"`
	Database  DatabaseConfig  `yaml:"database"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Sender    SenderConfig    `yaml:"sender"`
}

// Defaults applied by Normalize.
const (
	DefaultBaseURL            = "https://platform-api.max.ru"
	DefaultTimeoutSeconds     = 30
	DefaultLimit              = 100
	DefaultPollTimeoutSeconds = 30
	DefaultMaxRetries         = 5
	DefaultSessionTTL         = 24 * time.Hour
	DefaultCallbackTTL        = time.Hour
	DefaultSweepInterval      = time.Hour
	DefaultWebhookPath        = "/webhook"
)

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ErrMissingToken is returned when no bot token was configured.
var ErrMissingToken = errors.New("bot token is required")

// Normalize performs basic validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if strings.TrimSpace(cfg.Bot.Token) == "" {
		return ErrMissingToken
	}
	if cfg.Bot.BaseURL == "" {
		cfg.Bot.BaseURL = DefaultBaseURL
	}
	cfg.Bot.BaseURL = strings.TrimRight(cfg.Bot.BaseURL, "/")
	if cfg.Bot.TimeoutSeconds <= 0 {
		cfg.Bot.TimeoutSeconds = DefaultTimeoutSeconds
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Bot.RunMode))
	if rm == "" {
		rm = RunModeLongpoll
	}
	if rm == "polling" { // accept alias
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when bot.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when bot.run_mode is 'webhook'")
		}
		if cfg.Webhook.Path == "" {
			cfg.Webhook.Path = DefaultWebhookPath
		}
		if !strings.HasPrefix(cfg.Webhook.Path, "/") {
			cfg.Webhook.Path = "/" + cfg.Webhook.Path
		}
	case RunModeLongpoll:
		if cfg.Bot.PollTimeoutSeconds < 0 {
			return fmt.Errorf("bot.poll_timeout_seconds must be >= 0")
		}
		if cfg.Bot.Limit < 0 || cfg.Bot.Limit > 1000 {
			return fmt.Errorf("bot.limit must be within [0,1000]")
		}
		if cfg.Bot.MaxRetries < 0 {
			return fmt.Errorf("bot.max_retries must be >= 0")
		}
	default:
		return fmt.Errorf("invalid bot.run_mode %q; allowed: webhook, longpoll", cfg.Bot.RunMode)
	}
	cfg.Bot.RunMode = rm
	if cfg.Bot.Limit == 0 {
		cfg.Bot.Limit = DefaultLimit
	}
	if cfg.Bot.PollTimeoutSeconds == 0 {
		cfg.Bot.PollTimeoutSeconds = DefaultPollTimeoutSeconds
	}
	if cfg.Bot.MaxRetries == 0 {
		cfg.Bot.MaxRetries = DefaultMaxRetries
	}

	allowed := map[string]struct{}{
		UpdateCallback: {},
		UpdateMessage:  {},
	}
	for i, v := range cfg.RateLimit.ExcludeUpdates {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: callback, message", v)
		}
		cfg.RateLimit.ExcludeUpdates[i] = key
	}

	return normalizeSession(cfg)
}

func normalizeSession(cfg *Config) error {
	s := &cfg.Session
	s.Store = strings.ToLower(strings.TrimSpace(s.Store))
	if s.Store == "" {
		s.Store = StoreMemory
	}
	switch s.Store {
	case StoreMemory:
	case StorePostgres:
		if cfg.Database.Host == "" || cfg.Database.Name == "" {
			return fmt.Errorf("database.host and database.name are required when session.store is 'postgres'")
		}
		if cfg.Database.Port == "" {
			cfg.Database.Port = "5432"
		}
		if cfg.Database.SSLMode == "" {
			cfg.Database.SSLMode = "disable"
		}
		if cfg.Database.MaxConnections <= 0 {
			cfg.Database.MaxConnections = 5
		}
	case StoreRedis:
		if strings.TrimSpace(cfg.Redis.Addr) == "" {
			return fmt.Errorf("redis.addr is required when session.store is 'redis'")
		}
		if cfg.Redis.Prefix == "" {
			cfg.Redis.Prefix = "maxbot"
		}
	default:
		return fmt.Errorf("invalid session.store %q; allowed: memory, postgres, redis", s.Store)
	}

	if s.SessionTTL < 0 || s.CallbackTTL < 0 || s.SweepInterval < 0 {
		return fmt.Errorf("session durations must be >= 0")
	}
	if s.SessionTTL == 0 {
		s.SessionTTL = DefaultSessionTTL
	}
	if s.CallbackTTL == 0 {
		s.CallbackTTL = DefaultCallbackTTL
	}
	if s.SweepInterval == 0 {
		s.SweepInterval = DefaultSweepInterval
	}
	return nil
}

// RequestTimeout returns the HTTP timeout for regular API calls.
func (c BotConfig) RequestTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
