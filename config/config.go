package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Crawler   CrawlerConfig
	Robots    RobotsConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Store     StoreConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// CrawlerConfig controls fetching and traversal.
type CrawlerConfig struct {
	// Delay is the minimum spacing between request starts within one crawl.
	Delay time.Duration // default: 1s

	// RequestTimeout bounds each individual fetch.
	RequestTimeout time.Duration // default: 30s

	// MaxTimeout bounds a whole crawl started through the API.
	MaxTimeout time.Duration // default: 5m

	// DefaultMaxDepth and DefaultMaxPages apply when a request omits them.
	DefaultMaxDepth int // default: 2
	DefaultMaxPages int // default: 10

	// PageLimit is the largest max_pages a client may ask for.
	PageLimit int // default: 200

	// Concurrency is the number of parallel fetch workers. 1 keeps the
	// sequential depth-first order.
	Concurrency int // default: 1

	// UserAgent overrides the browser User-Agent when non-empty.
	UserAgent string

	// Proxy is an optional http(s) proxy URL for outbound fetches.
	Proxy string

	// MaxBodyBytes caps each response body.
	MaxBodyBytes int64 // default: 10 MiB

	// ExtractMode is "selector" or "readability"; Format is "text" or "markdown".
	ExtractMode string // default: "selector"
	Format      string // default: "text"

	// NearDuplicateDistance drops pages whose SimHash is within this
	// Hamming distance of an already collected page. 0 disables.
	NearDuplicateDistance int // default: 0
}

// RobotsConfig controls robots.txt handling.
type RobotsConfig struct {
	// Respect enables robots.txt checks and Crawl-delay.
	Respect bool // default: false

	// UserAgent is the agent name matched against robots groups.
	UserAgent string // default: "harvester"

	// CacheTTL is how long parsed rules are reused.
	CacheTTL time.Duration // default: 30m

	// CacheEntries bounds the number of cached hosts.
	CacheEntries int // default: 500
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 1

	// Burst is the maximum burst size per API key.
	Burst int // default: 3
}

// StoreConfig controls harvest record persistence.
type StoreConfig struct {
	// Path is the SQLite database file. Empty disables persistence.
	Path string
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("HARVEST_HOST", "0.0.0.0"),
			Port: envIntOr("HARVEST_PORT", 8080),
			Mode: envOr("HARVEST_MODE", "release"),
		},
		Crawler: CrawlerConfig{
			Delay:                 envDurationOr("HARVEST_CRAWL_DELAY", time.Second),
			RequestTimeout:        envDurationOr("HARVEST_REQUEST_TIMEOUT", 30*time.Second),
			MaxTimeout:            envDurationOr("HARVEST_MAX_TIMEOUT", 5*time.Minute),
			DefaultMaxDepth:       envIntOr("HARVEST_MAX_DEPTH", 2),
			DefaultMaxPages:       envIntOr("HARVEST_MAX_PAGES", 10),
			PageLimit:             envIntOr("HARVEST_PAGE_LIMIT", 200),
			Concurrency:           envIntOr("HARVEST_CONCURRENCY", 1),
			UserAgent:             os.Getenv("HARVEST_USER_AGENT"),
			Proxy:                 os.Getenv("HARVEST_PROXY"),
			MaxBodyBytes:          int64(envIntOr("HARVEST_MAX_BODY_BYTES", 10<<20)),
			ExtractMode:           envOr("HARVEST_EXTRACT_MODE", "selector"),
			Format:                envOr("HARVEST_FORMAT", "text"),
			NearDuplicateDistance: envIntOr("HARVEST_NEAR_DUPLICATE_DISTANCE", 0),
		},
		Robots: RobotsConfig{
			Respect:      envBoolOr("HARVEST_RESPECT_ROBOTS", false),
			UserAgent:    envOr("HARVEST_ROBOTS_AGENT", "harvester"),
			CacheTTL:     envDurationOr("HARVEST_ROBOTS_TTL", 30*time.Minute),
			CacheEntries: envIntOr("HARVEST_ROBOTS_CACHE_ENTRIES", 500),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("HARVEST_AUTH_ENABLED", true),
			APIKeys: envSliceOr("HARVEST_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("HARVEST_RATE_RPS", 1.0),
			Burst:             envIntOr("HARVEST_RATE_BURST", 3),
		},
		Store: StoreConfig{
			Path: os.Getenv("HARVEST_DB_PATH"),
		},
		Log: LogConfig{
			Level:  envOr("HARVEST_LOG_LEVEL", "info"),
			Format: envOr("HARVEST_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
