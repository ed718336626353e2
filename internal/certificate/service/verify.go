package service

import (
	"context"
	"errors"
	"time"

	"marriage-registry/internal/certificate/cache"
	"marriage-registry/internal/certificate/metrics"
	"marriage-registry/internal/certificate/models"
	"marriage-registry/internal/certificate/store"
	"marriage-registry/internal/certificate/tracer"
	"marriage-registry/internal/platform/privacy"
	"marriage-registry/pkg/certno"
	dErrors "marriage-registry/pkg/domain-errors"
	"marriage-registry/pkg/requestcontext"
)

// Verify answers the public "is this certificate genuine" lookup. raw may be
// in the legacy hyphenated form or the compact form; both resolve to the same
// canonical key. Revoked certificates verify with status revoked rather than
// an error.
func (s *Service) Verify(ctx context.Context, raw string) (v *models.Verification, err error) {
	form := certno.DetectForm(raw)
	ctx, span := s.tracer.Start(ctx, tracer.SpanVerify, tracer.String(tracer.AttrForm, string(form)))
	defer func() { span.End(err) }()

	canonical, err := certno.Canonical(raw)
	if err != nil {
		s.metrics.RecordVerification(metrics.OutcomeUnrecognized)
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "certificate number is not recognised")
	}
	span.SetAttributes(tracer.String(tracer.AttrCanonicalNumber, canonical))

	now := requestcontext.Now(ctx)
	if v, ok := s.cachedVerification(ctx, canonical); ok {
		span.SetAttributes(tracer.Bool(tracer.AttrCacheHit, true), tracer.String(tracer.AttrStatus, string(v.Status)))
		v.CheckedAt = now
		s.recordOutcome(v)
		return v, nil
	}
	span.SetAttributes(tracer.Bool(tracer.AttrCacheHit, false))

	cert, err := s.store.FindByCanonical(ctx, canonical)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.metrics.RecordVerification(metrics.OutcomeNotFound)
			return nil, dErrors.New(dErrors.CodeNotFound, "no certificate is registered under this number")
		}
		s.metrics.RecordVerification(metrics.OutcomeError)
		return nil, translateStoreError(err, "look up certificate")
	}

	v = toVerification(cert, now)
	span.SetAttributes(tracer.String(tracer.AttrStatus, string(v.Status)))
	if s.cache != nil {
		if err := s.cache.Save(ctx, v); err != nil {
			s.logger.WarnContext(ctx, "failed to cache verification",
				"canonical_number", canonical,
				"error", err,
			)
		} else {
			span.AddEvent(tracer.EventCacheFilled)
		}
	}
	s.recordOutcome(v)
	return v, nil
}

// cachedVerification reads the cache. Cache failures other than a miss are
// logged and treated as a miss so verification keeps working without Redis.
func (s *Service) cachedVerification(ctx context.Context, canonical string) (*models.Verification, bool) {
	if s.cache == nil {
		return nil, false
	}
	v, err := s.cache.Find(ctx, canonical)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.WarnContext(ctx, "verification cache read failed",
				"canonical_number", canonical,
				"error", err,
			)
		}
		return nil, false
	}
	return v, true
}

func (s *Service) recordOutcome(v *models.Verification) {
	if v.Status == models.StatusRevoked {
		s.metrics.RecordVerification(metrics.OutcomeRevoked)
		return
	}
	s.metrics.RecordVerification(metrics.OutcomeVerified)
}

func toVerification(c *models.Certificate, now time.Time) *models.Verification {
	return &models.Verification{
		CanonicalNumber: c.CanonicalNumber,
		Status:          c.Status,
		MarriageDate:    c.MarriageDate.Format(models.DateLayout),
		RegisteredAt:    c.RegisteredAt,
		PartyOneMasked:  privacy.MaskName(c.PartyOne),
		PartyTwoMasked:  privacy.MaskName(c.PartyTwo),
		CheckedAt:       now,
	}
}
