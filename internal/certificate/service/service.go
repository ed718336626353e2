// Package service issues, revokes and verifies marriage registration
// certificates, and exposes the number codec to the portal's forms.
package service

import (
	"context"
	"errors"
	"log/slog"

	"marriage-registry/internal/certificate/events"
	"marriage-registry/internal/certificate/metrics"
	"marriage-registry/internal/certificate/models"
	"marriage-registry/internal/certificate/store"
	"marriage-registry/internal/certificate/tracer"
	id "marriage-registry/pkg/domain"
	dErrors "marriage-registry/pkg/domain-errors"
	platformsync "marriage-registry/pkg/platform/sync"
)

// Store persists certificates. FindByCanonical is the verification lookup.
type Store interface {
	Save(ctx context.Context, c *models.Certificate) error
	FindByID(ctx context.Context, certID id.CertificateID) (*models.Certificate, error)
	FindByCanonical(ctx context.Context, canonical string) (*models.Certificate, error)
	// Revoke records c's revocation only if the stored certificate is still
	// active, returning store.ErrAlreadyRevoked otherwise.
	Revoke(ctx context.Context, c *models.Certificate) error
	List(ctx context.Context, offset, limit int) ([]*models.Certificate, int, error)
}

// VerificationCache holds recent public verification results keyed by
// canonical number.
type VerificationCache interface {
	Find(ctx context.Context, canonical string) (*models.Verification, error)
	Save(ctx context.Context, v *models.Verification) error
	Invalidate(ctx context.Context, canonical string) error
}

// Service coordinates the certificate store, the verification cache and the
// event stream.
type Service struct {
	store     Store
	cache     VerificationCache
	publisher events.Publisher
	tracer    tracer.Tracer
	metrics   *metrics.Metrics
	logger    *slog.Logger

	// revokeLocks serializes revocations of the same certificate within
	// this process. Across instances the store's conditional revoke decides.
	revokeLocks *platformsync.ShardedMutex
}

// Option configures the Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithCache enables the verification cache. Without it every verification
// reads the store.
func WithCache(cache VerificationCache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

func WithPublisher(publisher events.Publisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(st Store, opts ...Option) *Service {
	s := &Service{
		store:       st,
		publisher:   events.NoopPublisher{},
		tracer:      tracer.NewNoop(),
		logger:      slog.New(slog.DiscardHandler),
		revokeLocks: platformsync.NewShardedMutex(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// translateStoreError maps store sentinels to domain errors.
func translateStoreError(err error, action string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "certificate not found")
	case errors.Is(err, store.ErrAlreadyRevoked):
		return dErrors.New(dErrors.CodeConflict, "certificate is already revoked")
	case errors.Is(err, store.ErrDuplicate):
		return dErrors.New(dErrors.CodeConflict, "a certificate with this number is already registered")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to "+action)
	}
}

// publish emits an event. Delivery failures are logged and never fail the
// operation that produced the event.
func (s *Service) publish(ctx context.Context, span tracer.Span, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish certificate event",
			"event_type", event.Type,
			"certificate_id", event.CertificateID,
			"request_id", event.RequestID,
			"error", err,
		)
		return
	}
	span.AddEvent(tracer.EventEventPublished, tracer.String("event.type", string(event.Type)))
}
