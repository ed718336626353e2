package config

import (
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{
		"REGISTRY_ADDR", "REGISTRY_ENV", "REGISTRY_ADMIN_TOKEN", "LOG_LEVEL", "TRUSTED_PROXIES",
		"VERIFY_CACHE_TTL", "REQUEST_TIMEOUT", "MAX_BODY_BYTES", "DATABASE_URL", "REDIS_URL",
		"REDIS_POOL_SIZE", "REDIS_MIN_IDLE_CONNS", "KAFKA_BROKERS", "CERTIFICATE_EVENTS_TOPIC",
		"KAFKA_CONSUMER_GROUP", "DATABASE_AUTO_MIGRATE",
	} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "dev", cfg.Environment)
	assert.Equal(t, "dev-admin-token", cfg.AdminToken)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.TrustedProxies)
	assert.Equal(t, 5*time.Minute, cfg.VerifyCacheTTL)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.EqualValues(t, 1<<20, cfg.MaxBodyBytes)
	assert.Empty(t, cfg.Database.URL)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.Equal(t, 10, cfg.Redis.PoolSize)
	assert.Equal(t, 2, cfg.Redis.MinIdleConns)
	assert.False(t, cfg.Kafka.Enabled())
	assert.Equal(t, "certificate.events", cfg.Kafka.Topic)
	assert.Equal(t, RateLimitConfig{Enabled: true, Requests: 60, Window: time.Minute}, cfg.RateLimit)
	assert.False(t, cfg.IsProduction())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("REGISTRY_ADDR", ":9090")
	t.Setenv("REGISTRY_ENV", "prod")
	t.Setenv("VERIFY_CACHE_TTL", "90s")
	t.Setenv("REDIS_POOL_SIZE", "32")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, not-a-cidr ,192.168.0.0/16,10.0.0.0/8")
	t.Setenv("DATABASE_AUTO_MIGRATE", "false")
	t.Setenv("REGISTRY_ADMIN_TOKEN_HASH", " $2a$10$abc ")
	t.Setenv("RATE_LIMIT_ENABLED", "false")

	cfg := FromEnv()

	assert.Equal(t, ":9090", cfg.Addr)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 90*time.Second, cfg.VerifyCacheTTL)
	assert.Equal(t, 32, cfg.Redis.PoolSize)
	assert.True(t, cfg.Kafka.Enabled())
	assert.False(t, cfg.Database.AutoMigrate)
	assert.Equal(t, "$2a$10$abc", cfg.AdminTokenHash)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("192.168.0.0/16"),
	}, cfg.TrustedProxies)
}

func TestFromEnvMalformedValuesFallBack(t *testing.T) {
	t.Setenv("VERIFY_CACHE_TTL", "forever")
	t.Setenv("REQUEST_TIMEOUT", "-5s")
	t.Setenv("MAX_BODY_BYTES", "lots")
	t.Setenv("REDIS_MIN_IDLE_CONNS", "0")

	cfg := FromEnv()

	assert.Equal(t, DefaultVerifyCacheTTL, cfg.VerifyCacheTTL)
	assert.Equal(t, DefaultRequestTimeout, cfg.RequestTimeout)
	assert.EqualValues(t, DefaultMaxBodyBytes, cfg.MaxBodyBytes)
	assert.Equal(t, 2, cfg.Redis.MinIdleConns)
}
