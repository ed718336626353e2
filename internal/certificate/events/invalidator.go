package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"marriage-registry/internal/platform/kafka/consumer"
)

// Invalidator is the slice of the verification cache the consumer needs.
type Invalidator interface {
	Invalidate(ctx context.Context, canonical string) error
}

// CacheInvalidationHandler drops cached verifications when any instance
// revokes a certificate, so process-local caches do not serve a stale
// "active" status until their TTL runs out.
type CacheInvalidationHandler struct {
	cache  Invalidator
	logger *slog.Logger
}

func NewCacheInvalidationHandler(cache Invalidator, logger *slog.Logger) *CacheInvalidationHandler {
	return &CacheInvalidationHandler{cache: cache, logger: logger}
}

// Handle invalidates on certificate.revoked and ignores everything else.
// Undecodable payloads are logged and skipped; retrying them cannot succeed.
func (h *CacheInvalidationHandler) Handle(ctx context.Context, msg *consumer.Message) error {
	var event Event
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		h.logger.WarnContext(ctx, "skipping undecodable certificate event",
			"topic", msg.Topic,
			"offset", msg.Offset,
			"error", err,
		)
		return nil
	}
	if event.Type != TypeRevoked || event.CanonicalNumber == "" {
		return nil
	}
	return h.cache.Invalidate(ctx, event.CanonicalNumber)
}

var _ consumer.Handler = (*CacheInvalidationHandler)(nil)
