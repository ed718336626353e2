package cache

import (
	"context"
	"errors"
	"log/slog"

	"marriage-registry/internal/certificate/models"
	"marriage-registry/pkg/platform/circuit"
)

// Backend is the cache surface the breaker guards.
type Backend interface {
	Find(ctx context.Context, canonical string) (*models.Verification, error)
	Save(ctx context.Context, v *models.Verification) error
	Invalidate(ctx context.Context, canonical string) error
}

// GuardedCache stops reading from a failing backend. While the circuit is open
// Find reports ErrMiss without a round trip. Save and Invalidate always reach
// the backend: saves probe for recovery, and an invalidation must never be
// skipped or a revoked certificate could keep verifying as active.
type GuardedCache struct {
	backend Backend
	breaker *circuit.Breaker
	logger  *slog.Logger
}

func NewGuardedCache(backend Backend, breaker *circuit.Breaker, logger *slog.Logger) *GuardedCache {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &GuardedCache{backend: backend, breaker: breaker, logger: logger}
}

func (c *GuardedCache) Find(ctx context.Context, canonical string) (*models.Verification, error) {
	if c.breaker.IsOpen() {
		return nil, ErrMiss
	}
	v, err := c.backend.Find(ctx, canonical)
	c.record(ctx, err)
	return v, err
}

func (c *GuardedCache) Save(ctx context.Context, v *models.Verification) error {
	err := c.backend.Save(ctx, v)
	c.record(ctx, err)
	return err
}

func (c *GuardedCache) Invalidate(ctx context.Context, canonical string) error {
	err := c.backend.Invalidate(ctx, canonical)
	c.record(ctx, err)
	return err
}

func (c *GuardedCache) record(ctx context.Context, err error) {
	if err != nil && !errors.Is(err, ErrMiss) {
		if c.breaker.RecordFailure() {
			c.logger.WarnContext(ctx, "verification cache circuit opened", "breaker", c.breaker.Name(), "error", err)
		}
		return
	}
	if c.breaker.RecordSuccess() {
		c.logger.InfoContext(ctx, "verification cache circuit closed", "breaker", c.breaker.Name())
	}
}
