package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces rate limit windows in Redis.
const KeyPrefix = "ratelimit:"

// RedisLimiter shares sliding windows between instances. Each window is a
// sorted set of request markers scored by arrival time in nanoseconds.
type RedisLimiter struct {
	client redis.Cmdable
	policy Policy
	now    func() time.Time
}

func NewRedisLimiter(client redis.Cmdable, policy Policy) *RedisLimiter {
	return &RedisLimiter{client: client, policy: policy, now: time.Now}
}

// Allow records the request optimistically and withdraws it again when the
// window was already full.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (*Result, error) {
	now := l.now()
	redisKey := KeyPrefix + key
	member := uuid.NewString()
	cutoff := strconv.FormatInt(now.Add(-l.policy.Window).UnixNano(), 10)

	pipe := l.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "-inf", cutoff)
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now.UnixNano()), Member: member})
	count := pipe.ZCard(ctx, redisKey)
	oldest := pipe.ZRangeWithScores(ctx, redisKey, 0, 0)
	pipe.PExpire(ctx, redisKey, l.policy.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("rate limit window %s: %w", key, err)
	}

	used := int(count.Val())
	allowed := used <= l.policy.Requests
	if !allowed {
		if err := l.client.ZRem(ctx, redisKey, member).Err(); err != nil {
			return nil, fmt.Errorf("rate limit withdraw %s: %w", key, err)
		}
		used--
	}

	resetAt := now.Add(l.policy.Window)
	if first := oldest.Val(); len(first) > 0 {
		resetAt = time.Unix(0, int64(first[0].Score)).Add(l.policy.Window)
	}
	return &Result{
		Allowed:    allowed,
		Limit:      l.policy.Requests,
		Remaining:  max(l.policy.Requests-used, 0),
		ResetAt:    resetAt,
		RetryAfter: retryAfter(allowed, resetAt, now),
	}, nil
}
