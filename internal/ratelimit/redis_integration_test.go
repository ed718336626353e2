//go:build integration

package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"marriage-registry/pkg/testutil/containers"
)

type RedisLimiterSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	ctx   context.Context
}

func TestRedisLimiterSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisLimiterSuite))
}

func (s *RedisLimiterSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.ctx = context.Background()
}

func (s *RedisLimiterSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(s.ctx))
}

func (s *RedisLimiterSuite) TestSharedWindow() {
	policy := Policy{Requests: 2, Window: time.Minute}
	first := NewRedisLimiter(s.redis.Client, policy)
	second := NewRedisLimiter(s.redis.Client, policy)

	res, err := first.Allow(s.ctx, "public:203.0.113.7")
	s.Require().NoError(err)
	s.True(res.Allowed)
	s.Equal(1, res.Remaining)

	res, err = second.Allow(s.ctx, "public:203.0.113.7")
	s.Require().NoError(err)
	s.True(res.Allowed)
	s.Equal(0, res.Remaining)

	res, err = first.Allow(s.ctx, "public:203.0.113.7")
	s.Require().NoError(err)
	s.False(res.Allowed)
	s.Positive(res.RetryAfter)

	// a rejected request does not occupy the window
	count, err := s.redis.Client.ZCard(s.ctx, KeyPrefix+"public:203.0.113.7").Result()
	s.Require().NoError(err)
	s.Equal(int64(2), count)

	ttl, err := s.redis.Client.PTTL(s.ctx, KeyPrefix+"public:203.0.113.7").Result()
	s.Require().NoError(err)
	s.Positive(ttl)
}

func (s *RedisLimiterSuite) TestWindowExpires() {
	limiter := NewRedisLimiter(s.redis.Client, Policy{Requests: 1, Window: 200 * time.Millisecond})

	res, err := limiter.Allow(s.ctx, "k")
	s.Require().NoError(err)
	s.True(res.Allowed)

	res, err = limiter.Allow(s.ctx, "k")
	s.Require().NoError(err)
	s.False(res.Allowed)

	time.Sleep(300 * time.Millisecond)
	res, err = limiter.Allow(s.ctx, "k")
	s.Require().NoError(err)
	s.True(res.Allowed)
}
