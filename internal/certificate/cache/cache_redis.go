package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"marriage-registry/internal/certificate/metrics"
	"marriage-registry/internal/certificate/models"
)

// RedisCache shares verification results between server instances.
type RedisCache struct {
	client  redis.Cmdable
	ttl     time.Duration
	metrics *metrics.Metrics
}

// NewRedisCache wraps a configured client; metrics may be nil.
func NewRedisCache(client redis.Cmdable, ttl time.Duration, m *metrics.Metrics) *RedisCache {
	return &RedisCache{
		client:  client,
		ttl:     ttl,
		metrics: m,
	}
}

// Find loads a cached verification. A missing key is ErrMiss; transport and
// decode failures are returned wrapped.
func (c *RedisCache) Find(ctx context.Context, canonical string) (*models.Verification, error) {
	start := time.Now()
	data, err := c.client.Get(ctx, Key(canonical)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.metrics.RecordCacheMiss(time.Since(start).Seconds())
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("find verification cache: %w", err)
	}

	var v models.Verification
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode verification cache: %w", err)
	}
	c.metrics.RecordCacheHit(time.Since(start).Seconds())
	return &v, nil
}

// Save writes the verification with the configured TTL, overwriting any
// existing entry.
func (c *RedisCache) Save(ctx context.Context, v *models.Verification) error {
	if v == nil {
		return fmt.Errorf("verification is required")
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode verification cache: %w", err)
	}
	if err := c.client.Set(ctx, Key(v.CanonicalNumber), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("save verification cache: %w", err)
	}
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context, canonical string) error {
	if err := c.client.Del(ctx, Key(canonical)).Err(); err != nil {
		return fmt.Errorf("invalidate verification cache: %w", err)
	}
	c.metrics.IncrementInvalidations()
	return nil
}
