package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/johnrirwin/marketwire/internal/orchestrator"
)

const (
	FeedsSourceDefaults = "defaults"
	FeedsSourceFile     = "file"
	FeedsSourcePostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	Server       ServerConfig
	Cache        CacheConfig
	Database     DatabaseConfig
	Logging      LoggingConfig
	Fetch        FetchConfig
	Feeds        FeedsConfig
	Orchestrator OrchestratorConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	HTTPAddr     string
	RateLimitDur time.Duration
}

// CacheConfig holds cache configuration
type CacheConfig struct {
	Backend       string // "memory" or "redis"
	TTL           time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string
}

// FetchConfig controls how feeds are downloaded and parsed
type FetchConfig struct {
	Timeout        time.Duration
	MaxRedirects   int
	MaxConcurrency int
	UserAgent      string
	Parser         string
}

// FeedsConfig selects where the feed registry comes from
type FeedsConfig struct {
	Source     string
	ConfigPath string
}

// OrchestratorConfig controls the news desk refresh loop
type OrchestratorConfig struct {
	Interval        time.Duration
	AutoRefresh     bool
	CategoryDelay   time.Duration
	RefreshCooldown time.Duration
}

// RegisterFlags defines every configuration flag with its default on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("http", ":8080", "HTTP server address")
	fs.Duration("rate-limit", 0, "Minimum delay between requests to same host (0 disables)")

	fs.String("cache-backend", "memory", "Cache backend: memory or redis")
	fs.Duration("cache-ttl", 5*time.Minute, "Cache TTL for aggregation reports")
	fs.String("redis-addr", "localhost:6379", "Redis server address")
	fs.String("redis-password", "", "Redis password")
	fs.Int("redis-db", 0, "Redis database number")

	fs.String("log-level", "info", "Log level (debug, info, warn, error)")

	fs.String("db-host", "localhost", "PostgreSQL host")
	fs.Int("db-port", 5432, "PostgreSQL port")
	fs.String("db-user", "postgres", "PostgreSQL user")
	fs.String("db-password", "postgres", "PostgreSQL password")
	fs.String("db-name", "marketwire", "PostgreSQL database name")
	fs.String("db-sslmode", "disable", "PostgreSQL SSL mode")

	fs.Duration("fetch-timeout", 10*time.Second, "Timeout for a single feed fetch including redirects")
	fs.Int("fetch-max-redirects", 3, "Maximum redirects followed per feed")
	fs.Int("fetch-max-concurrency", 0, "Maximum feeds fetched at once (0 fetches a whole category together)")
	fs.String("user-agent", "", "User-Agent sent to feed servers")
	fs.String("parser", "tolerant", "Feed parser: tolerant or strict")

	fs.String("feeds-source", FeedsSourceDefaults, "Feed registry source: defaults, file or postgres")
	fs.String("feeds-config", "", "Path to a feeds.json or feeds.yaml file")

	fs.Duration("refresh-interval", orchestrator.DefaultInterval, "News desk refresh interval (15m to 2h)")
	fs.Bool("auto-refresh", true, "Refresh the news desk on the interval")
	fs.Duration("category-delay", orchestrator.DefaultCategoryDelay, "Pause between categories during a refresh")
	fs.Duration("refresh-cooldown", 2*time.Minute, "Minimum time between manual refreshes")
}

// Load builds configuration from the flags registered on fs, then applies
// environment overrides for every flag not set explicitly.
func Load(fs *pflag.FlagSet) (*Config, error) {
	r := reader{fs: fs}

	cfg := &Config{
		Server: ServerConfig{
			HTTPAddr:     r.str("http", "HTTP_ADDR"),
			RateLimitDur: r.duration("rate-limit", "RATE_LIMIT"),
		},
		Cache: CacheConfig{
			Backend:       r.str("cache-backend", "CACHE_BACKEND"),
			TTL:           r.duration("cache-ttl", "CACHE_TTL"),
			RedisAddr:     r.str("redis-addr", "REDIS_ADDR"),
			RedisPassword: r.str("redis-password", "REDIS_PASSWORD"),
			RedisDB:       r.integer("redis-db", "REDIS_DB"),
		},
		Database: DatabaseConfig{
			Host:     r.str("db-host", "DB_HOST"),
			Port:     r.integer("db-port", "DB_PORT"),
			User:     r.str("db-user", "DB_USER"),
			Password: r.str("db-password", "DB_PASSWORD"),
			Database: r.str("db-name", "DB_NAME"),
			SSLMode:  r.str("db-sslmode", "DB_SSLMODE"),
		},
		Logging: LoggingConfig{
			Level: r.str("log-level", "LOG_LEVEL"),
		},
		Fetch: FetchConfig{
			Timeout:        r.duration("fetch-timeout", "FETCH_TIMEOUT"),
			MaxRedirects:   r.integer("fetch-max-redirects", "FETCH_MAX_REDIRECTS"),
			MaxConcurrency: r.integer("fetch-max-concurrency", "FETCH_MAX_CONCURRENCY"),
			UserAgent:      r.str("user-agent", "FETCH_USER_AGENT"),
			Parser:         r.str("parser", "FEED_PARSER"),
		},
		Feeds: FeedsConfig{
			Source:     r.str("feeds-source", "FEEDS_SOURCE"),
			ConfigPath: r.str("feeds-config", "FEEDS_CONFIG_PATH"),
		},
		Orchestrator: OrchestratorConfig{
			Interval:        r.duration("refresh-interval", "REFRESH_INTERVAL"),
			AutoRefresh:     r.boolean("auto-refresh", "AUTO_REFRESH"),
			CategoryDelay:   r.duration("category-delay", "CATEGORY_DELAY"),
			RefreshCooldown: r.duration("refresh-cooldown", "REFRESH_COOLDOWN"),
		},
	}

	if r.err != nil {
		return nil, r.err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects unknown enum values and clamps out-of-range durations.
func (c *Config) Validate() error {
	c.Cache.Backend = strings.ToLower(strings.TrimSpace(c.Cache.Backend))
	switch c.Cache.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}

	c.Feeds.Source = strings.ToLower(strings.TrimSpace(c.Feeds.Source))
	switch c.Feeds.Source {
	case FeedsSourceDefaults, FeedsSourceFile, FeedsSourcePostgres:
	default:
		return fmt.Errorf("unknown feeds source %q", c.Feeds.Source)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}

	if c.Fetch.Timeout <= 0 {
		c.Fetch.Timeout = 10 * time.Second
	}
	if c.Fetch.MaxRedirects < 0 {
		c.Fetch.MaxRedirects = 0
	}
	if c.Fetch.MaxConcurrency < 0 {
		c.Fetch.MaxConcurrency = 0
	}
	if c.Server.RateLimitDur < 0 {
		c.Server.RateLimitDur = 0
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = 5 * time.Minute
	}
	if c.Orchestrator.CategoryDelay < 0 {
		c.Orchestrator.CategoryDelay = 0
	}
	c.Orchestrator.Interval = orchestrator.ClampInterval(c.Orchestrator.Interval)

	return nil
}

// reader resolves one setting from an explicit flag, the environment or the
// flag default, in that order. The first parse failure is kept in err.
type reader struct {
	fs  *pflag.FlagSet
	err error
}

func (r *reader) env(name, key string) (string, bool) {
	if r.fs.Changed(name) {
		return "", false
	}
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

func (r *reader) fail(key, v string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
}

func (r *reader) str(name, key string) string {
	if v, ok := r.env(name, key); ok {
		return v
	}
	v, _ := r.fs.GetString(name)
	return v
}

func (r *reader) integer(name, key string) int {
	if v, ok := r.env(name, key); ok {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
		r.fail(key, v, err)
	}
	n, _ := r.fs.GetInt(name)
	return n
}

func (r *reader) duration(name, key string) time.Duration {
	if v, ok := r.env(name, key); ok {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
		r.fail(key, v, err)
	}
	d, _ := r.fs.GetDuration(name)
	return d
}

func (r *reader) boolean(name, key string) bool {
	if v, ok := r.env(name, key); ok {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
		r.fail(key, v, err)
	}
	b, _ := r.fs.GetBool(name)
	return b
}
