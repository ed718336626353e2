// Package config reads the server configuration from the environment.
package config

import (
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	platformstrings "marriage-registry/pkg/platform/strings"
)

const (
	DefaultAddr           = ":8080"
	DefaultEnvironment    = "dev"
	DefaultAdminToken     = "dev-admin-token"
	DefaultEventsTopic    = "certificate.events"
	DefaultConsumerGroup  = "marriage-registry-verify-cache"
	DefaultVerifyCacheTTL = 5 * time.Minute
	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxBodyBytes   = 1 << 20

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = time.Minute
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr           string
	Environment    string
	AdminToken     string
	AdminTokenHash string
	LogLevel       string
	TrustedProxies []netip.Prefix
	VerifyCacheTTL time.Duration
	RequestTimeout time.Duration
	MaxBodyBytes   int64

	Database  DatabaseConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	RateLimit RateLimitConfig
}

// DatabaseConfig selects the PostgreSQL store. An empty URL keeps
// certificates in memory.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

// RedisConfig selects the Redis verification cache. An empty URL keeps the
// cache in process.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig enables certificate events. No brokers means events are dropped.
type KafkaConfig struct {
	Brokers       string
	Topic         string
	ConsumerGroup string
}

// RateLimitConfig throttles the public endpoints per client address. The
// window is shared through Redis when Redis is configured.
type RateLimitConfig struct {
	Enabled  bool
	Requests int
	Window   time.Duration
}

// Enabled reports whether brokers are configured.
func (k KafkaConfig) Enabled() bool {
	return strings.TrimSpace(k.Brokers) != ""
}

// IsProduction reports whether the server runs with production defaults
// disabled.
func (s Server) IsProduction() bool {
	return s.Environment == "prod" || s.Environment == "production"
}

// FromEnv builds a Server config from environment variables so main stays lean.
// Malformed numbers and durations fall back to their defaults.
func FromEnv() Server {
	return Server{
		Addr:           envString("REGISTRY_ADDR", DefaultAddr),
		Environment:    envString("REGISTRY_ENV", DefaultEnvironment),
		AdminToken:     envString("REGISTRY_ADMIN_TOKEN", DefaultAdminToken),
		AdminTokenHash: strings.TrimSpace(os.Getenv("REGISTRY_ADMIN_TOKEN_HASH")),
		LogLevel:       envString("LOG_LEVEL", "info"),
		TrustedProxies: envPrefixes("TRUSTED_PROXIES"),
		VerifyCacheTTL: envDuration("VERIFY_CACHE_TTL", DefaultVerifyCacheTTL),
		RequestTimeout: envDuration("REQUEST_TIMEOUT", DefaultRequestTimeout),
		MaxBodyBytes:   int64(envInt("MAX_BODY_BYTES", DefaultMaxBodyBytes)),
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
			AutoMigrate:     envString("DATABASE_AUTO_MIGRATE", "true") == "true",
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:       os.Getenv("KAFKA_BROKERS"),
			Topic:         envString("CERTIFICATE_EVENTS_TOPIC", DefaultEventsTopic),
			ConsumerGroup: envString("KAFKA_CONSUMER_GROUP", DefaultConsumerGroup),
		},
		RateLimit: RateLimitConfig{
			Enabled:  envString("RATE_LIMIT_ENABLED", "true") == "true",
			Requests: envInt("RATE_LIMIT_REQUESTS", DefaultRateLimitRequests),
			Window:   envDuration("RATE_LIMIT_WINDOW", DefaultRateLimitWindow),
		},
	}
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// envPrefixes reads a comma separated CIDR list, skipping invalid entries.
func envPrefixes(key string) []netip.Prefix {
	var prefixes []netip.Prefix
	for _, raw := range platformstrings.SplitList(os.Getenv(key)) {
		if p, err := netip.ParsePrefix(raw); err == nil {
			prefixes = append(prefixes, p)
		}
	}
	return prefixes
}
