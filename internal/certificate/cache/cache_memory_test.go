package cache_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"marriage-registry/internal/certificate/cache"
	"marriage-registry/internal/certificate/metrics"
	"marriage-registry/internal/certificate/models"
)

// MemoryCacheSuite covers TTL expiry and invalidation.
//
// Justification: a stale entry after revocation would tell the public a
// withdrawn certificate is still valid.
type MemoryCacheSuite struct {
	suite.Suite
	ctx     context.Context
	now     time.Time
	metrics *metrics.Metrics
	cache   *cache.MemoryCache
}

func TestMemoryCacheSuite(t *testing.T) {
	suite.Run(t, new(MemoryCacheSuite))
}

func (s *MemoryCacheSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s.metrics = metrics.New(nil)
	s.cache = cache.NewMemoryCache(time.Minute,
		cache.WithClock(func() time.Time { return s.now }),
		cache.WithMetrics(s.metrics),
	)
}

func (s *MemoryCacheSuite) verification(canonical string) *models.Verification {
	return &models.Verification{
		CanonicalNumber: canonical,
		Status:          models.StatusActive,
		MarriageDate:    "2024-01-20",
		PartyOneMasked:  "A*** R***",
		PartyTwoMasked:  "R*** S***",
		CheckedAt:       s.now,
	}
}

func (s *MemoryCacheSuite) TestMissThenHit() {
	_, err := s.cache.Find(s.ctx, "WBMSDBRWI11621")
	s.ErrorIs(err, cache.ErrMiss)

	s.Require().NoError(s.cache.Save(s.ctx, s.verification("WBMSDBRWI11621")))

	got, err := s.cache.Find(s.ctx, "WBMSDBRWI11621")
	s.Require().NoError(err)
	s.Equal(*s.verification("WBMSDBRWI11621"), *got)

	s.InDelta(1, testutil.ToFloat64(s.metrics.CacheHitsTotal), 0)
	s.InDelta(1, testutil.ToFloat64(s.metrics.CacheMissesTotal), 0)
}

func (s *MemoryCacheSuite) TestExpiry() {
	s.Require().NoError(s.cache.Save(s.ctx, s.verification("WBMSDBRWI11621")))

	s.now = s.now.Add(59 * time.Second)
	_, err := s.cache.Find(s.ctx, "WBMSDBRWI11621")
	s.NoError(err, "entry is live until the TTL elapses")

	s.now = s.now.Add(time.Second)
	_, err = s.cache.Find(s.ctx, "WBMSDBRWI11621")
	s.ErrorIs(err, cache.ErrMiss)
	s.Equal(0, s.cache.Len(), "expired entry is dropped on read")
}

func (s *MemoryCacheSuite) TestInvalidate() {
	s.Require().NoError(s.cache.Save(s.ctx, s.verification("WBMSDBRWI11621")))
	s.Require().NoError(s.cache.Save(s.ctx, s.verification("WBMSDBRWII2")))

	s.Require().NoError(s.cache.Invalidate(s.ctx, "WBMSDBRWI11621"))

	_, err := s.cache.Find(s.ctx, "WBMSDBRWI11621")
	s.ErrorIs(err, cache.ErrMiss)
	_, err = s.cache.Find(s.ctx, "WBMSDBRWII2")
	s.NoError(err)
	s.InDelta(1, testutil.ToFloat64(s.metrics.CacheInvalidationsTotal), 0)

	s.NoError(s.cache.Invalidate(s.ctx, "never-cached"))
}

func (s *MemoryCacheSuite) TestReturnedValueIsACopy() {
	s.Require().NoError(s.cache.Save(s.ctx, s.verification("WBMSDBRWI11621")))

	got, err := s.cache.Find(s.ctx, "WBMSDBRWI11621")
	s.Require().NoError(err)
	got.Status = models.StatusRevoked

	again, err := s.cache.Find(s.ctx, "WBMSDBRWI11621")
	s.Require().NoError(err)
	s.Equal(models.StatusActive, again.Status)
}

func (s *MemoryCacheSuite) TestConcurrentAccess() {
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.cache.Save(s.ctx, s.verification("WBMSDBRWI11621"))
			_, _ = s.cache.Find(s.ctx, "WBMSDBRWI11621")
			_ = s.cache.Invalidate(s.ctx, "WBMSDBRWI11621")
		}()
	}
	wg.Wait()
}

func TestKey(t *testing.T) {
	if got := cache.Key("WBMSDBRWI11621"); got != "certificate:verify:WBMSDBRWI11621" {
		t.Fatalf("Key() = %q", got)
	}
}
