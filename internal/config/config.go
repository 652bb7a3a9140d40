package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigFile      = "config.yaml"
	DefaultStoragePath     = ".serialbinder/serialbinder.db"
	DefaultRedditBaseURL   = "https://oauth.reddit.com"
	DefaultRedditFeed      = "json"
	DefaultUserAgent       = "serialbinder/1.0"
	DefaultPageSize        = 100
	DefaultTimeout         = 30 * time.Second
	DefaultCacheBackend    = "sqlite"
	DefaultCacheTTL        = 7 * 24 * time.Hour
	DefaultRedisAddress    = "localhost:6379"
	DefaultReadBudget      = 10
	DefaultUnlockedChannel = "HFY"
	DefaultExtension       = "azw3"
	DefaultTimezone        = "UTC"
	DefaultLogLevel        = "info"
)

// Duration wraps time.Duration for YAML unmarshaling from strings like "24h".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

type Config struct {
	Reddit  RedditConfig  `yaml:"reddit"`
	Storage StorageConfig `yaml:"storage"`
	Cache   CacheConfig   `yaml:"cache"`
	Collect CollectConfig `yaml:"collect"`
	Log     LogConfig     `yaml:"log"`
}

type RedditConfig struct {
	BaseURL   string   `yaml:"base_url"`
	Feed      string   `yaml:"feed"`
	TokenEnv  string   `yaml:"token_env"`
	UserAgent string   `yaml:"user_agent"`
	PageSize  int      `yaml:"page_size"`
	Timeout   Duration `yaml:"timeout"`

	// Resolved from env var at load time.
	Token string `yaml:"-"`
}

type StorageConfig struct {
	Path string `yaml:"path"`
}

type CacheConfig struct {
	Backend string `yaml:"backend"`
	// TTL of cached posts. Unset means DefaultCacheTTL; 0 keeps posts until
	// they are forgotten.
	TTL   *Duration   `yaml:"ttl"`
	Redis RedisConfig `yaml:"redis"`
}

// Expiry returns the cache TTL.
func (c CacheConfig) Expiry() time.Duration {
	if c.TTL == nil {
		return DefaultCacheTTL
	}
	return c.TTL.Duration
}

type RedisConfig struct {
	Address     string `yaml:"address"`
	PasswordEnv string `yaml:"password_env"`
	DB          int    `yaml:"db"`
	KeyPrefix   string `yaml:"key_prefix"`

	// Resolved from env var at load time.
	Password string `yaml:"-"`
}

type CollectConfig struct {
	ReadBudget      *int   `yaml:"read_budget"`
	UnlockedChannel string `yaml:"unlocked_channel"`
	Extension       string `yaml:"extension"`
	Timezone        string `yaml:"timezone"`
}

// Budget returns the read budget.
func (c CollectConfig) Budget() int {
	if c.ReadBudget == nil {
		return DefaultReadBudget
	}
	return *c.ReadBudget
}

// Location returns the timezone dates in titles are rendered in.
func (c CollectConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Load reads config.yaml from dir, applies defaults, resolves env vars, and validates.
func Load(dir string) (*Config, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("config dir is required")
	}

	path := filepath.Join(dir, DefaultConfigFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(&cfg)
	resolveEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Reddit.BaseURL == "" {
		cfg.Reddit.BaseURL = DefaultRedditBaseURL
	}
	if cfg.Reddit.Feed == "" {
		cfg.Reddit.Feed = DefaultRedditFeed
	}
	if cfg.Reddit.UserAgent == "" {
		cfg.Reddit.UserAgent = DefaultUserAgent
	}
	if cfg.Reddit.PageSize == 0 {
		cfg.Reddit.PageSize = DefaultPageSize
	}
	if cfg.Reddit.Timeout.Duration == 0 {
		cfg.Reddit.Timeout.Duration = DefaultTimeout
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = DefaultStoragePath
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = DefaultCacheBackend
	}
	if cfg.Cache.Redis.Address == "" {
		cfg.Cache.Redis.Address = DefaultRedisAddress
	}
	if cfg.Collect.UnlockedChannel == "" {
		cfg.Collect.UnlockedChannel = DefaultUnlockedChannel
	}
	if cfg.Collect.Extension == "" {
		cfg.Collect.Extension = DefaultExtension
	}
	if cfg.Collect.Timezone == "" {
		cfg.Collect.Timezone = DefaultTimezone
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
}

func resolveEnv(cfg *Config) {
	if cfg.Reddit.TokenEnv != "" {
		cfg.Reddit.Token = os.Getenv(cfg.Reddit.TokenEnv)
	}
	if cfg.Cache.Redis.PasswordEnv != "" {
		cfg.Cache.Redis.Password = os.Getenv(cfg.Cache.Redis.PasswordEnv)
	}
}

func validate(cfg *Config) error {
	switch cfg.Reddit.Feed {
	case "json", "rss":
		// valid
	default:
		return fmt.Errorf("reddit.feed: unknown feed %q (want json or rss)", cfg.Reddit.Feed)
	}

	if cfg.Reddit.PageSize < 1 || cfg.Reddit.PageSize > 100 {
		return fmt.Errorf("reddit.page_size: %d not in 1-100", cfg.Reddit.PageSize)
	}

	switch cfg.Cache.Backend {
	case "sqlite", "redis", "none":
		// valid
	default:
		return fmt.Errorf("cache.backend: unknown backend %q (want sqlite, redis or none)", cfg.Cache.Backend)
	}

	if cfg.Cache.Expiry() < 0 {
		return fmt.Errorf("cache.ttl: must not be negative, got %s", cfg.Cache.Expiry())
	}

	if cfg.Collect.Budget() < 0 {
		return fmt.Errorf("collect.read_budget: must not be negative, got %d", cfg.Collect.Budget())
	}

	if _, err := time.LoadLocation(cfg.Collect.Timezone); err != nil {
		return fmt.Errorf("collect.timezone: %w", err)
	}

	if _, err := zapcore.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}

	return nil
}
