package service

import (
	"context"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"marriage-registry/internal/certificate/events"
	"marriage-registry/internal/certificate/models"
	"marriage-registry/internal/certificate/tracer"
	"marriage-registry/pkg/certno"
	id "marriage-registry/pkg/domain"
	dErrors "marriage-registry/pkg/domain-errors"
	"marriage-registry/pkg/requestcontext"
	"marriage-registry/pkg/validation"
)

// Issue registers a new certificate. The canonical number is the compact
// encoding of cmd.Number and must not already be registered.
func (s *Service) Issue(ctx context.Context, cmd models.IssueCommand) (cert *models.Certificate, err error) {
	now := requestcontext.Now(ctx)
	cmd.PartyOne = strings.TrimSpace(cmd.PartyOne)
	cmd.PartyTwo = strings.TrimSpace(cmd.PartyTwo)
	if err := validateIssue(cmd, now); err != nil {
		return nil, err
	}

	canonical := certno.Format(cmd.Number)
	ctx, span := s.tracer.Start(ctx, tracer.SpanIssue, tracer.String(tracer.AttrCanonicalNumber, canonical))
	defer func() { span.End(err) }()

	cert = &models.Certificate{
		ID:              id.NewCertificateID(),
		Number:          cmd.Number,
		CanonicalNumber: canonical,
		PartyOne:        cmd.PartyOne,
		PartyTwo:        cmd.PartyTwo,
		MarriageDate:    cmd.MarriageDate.UTC(),
		RegisteredAt:    now.UTC(),
		Status:          models.StatusActive,
		IssuedBy:        requestcontext.Actor(ctx),
	}
	if err := s.store.Save(ctx, cert); err != nil {
		return nil, translateStoreError(err, "save certificate")
	}
	s.metrics.IncrementIssued()

	s.logger.InfoContext(ctx, "certificate issued",
		"certificate_id", cert.ID,
		"canonical_number", canonical,
		"issued_by", cert.IssuedBy,
		"request_id", requestcontext.RequestID(ctx),
	)

	s.publish(ctx, span, events.Event{
		Type:            events.TypeIssued,
		CertificateID:   cert.ID,
		CanonicalNumber: canonical,
		OccurredAt:      now,
		Actor:           cert.IssuedBy,
		RequestID:       requestcontext.RequestID(ctx),
	})
	return cert, nil
}

func (s *Service) Get(ctx context.Context, certID id.CertificateID) (*models.Certificate, error) {
	cert, err := s.store.FindByID(ctx, certID)
	if err != nil {
		return nil, translateStoreError(err, "load certificate")
	}
	return cert, nil
}

// List returns certificates in registration order. The limit is clamped to
// the list bounds and a negative offset is treated as zero.
func (s *Service) List(ctx context.Context, offset, limit int) (*models.Page, error) {
	if offset < 0 {
		offset = 0
	}
	limit = validation.ClampLimit(limit)

	certs, total, err := s.store.List(ctx, offset, limit)
	if err != nil {
		return nil, translateStoreError(err, "list certificates")
	}
	if certs == nil {
		certs = []*models.Certificate{}
	}
	return &models.Page{Certificates: certs, Offset: offset, Limit: limit, Total: total}, nil
}

// Revoke withdraws an active certificate. Any cached verification for it is
// dropped so the public lookup reports the new status.
func (s *Service) Revoke(ctx context.Context, certID id.CertificateID, reason string) (cert *models.Certificate, err error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "reason is required")
	}
	if utf8.RuneCountInString(reason) > validation.MaxReasonLength {
		return nil, dErrors.New(dErrors.CodeValidation, "reason is too long")
	}

	ctx, span := s.tracer.Start(ctx, tracer.SpanRevoke)
	defer func() { span.End(err) }()

	now := requestcontext.Now(ctx)
	err = s.revokeLocks.WithLock(certID.String(), func() error {
		found, err := s.store.FindByID(ctx, certID)
		if err != nil {
			return translateStoreError(err, "load certificate")
		}
		if found.IsRevoked() {
			return dErrors.New(dErrors.CodeConflict, "certificate is already revoked")
		}
		found.Revoke(reason, now.UTC())
		if err := s.store.Revoke(ctx, found); err != nil {
			return translateStoreError(err, "revoke certificate")
		}
		cert = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(tracer.String(tracer.AttrCanonicalNumber, cert.CanonicalNumber))
	s.metrics.IncrementRevoked()

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, cert.CanonicalNumber); err != nil {
			s.logger.WarnContext(ctx, "failed to invalidate verification cache",
				"canonical_number", cert.CanonicalNumber,
				"error", err,
			)
		}
	}

	actor := requestcontext.Actor(ctx)
	s.logger.InfoContext(ctx, "certificate revoked",
		"certificate_id", cert.ID,
		"canonical_number", cert.CanonicalNumber,
		"revoked_by", actor,
		"request_id", requestcontext.RequestID(ctx),
	)

	s.publish(ctx, span, events.Event{
		Type:            events.TypeRevoked,
		CertificateID:   cert.ID,
		CanonicalNumber: cert.CanonicalNumber,
		OccurredAt:      now,
		Actor:           actor,
		RequestID:       requestcontext.RequestID(ctx),
	})
	return cert, nil
}

// validateIssue enforces the rules an issued number and its parties must
// satisfy. Parties are expected to be trimmed already.
func validateIssue(cmd models.IssueCommand, now time.Time) error {
	if err := ValidateNumber(cmd.Number); err != nil {
		return err
	}
	for _, p := range []struct{ field, value string }{
		{"party_one", cmd.PartyOne},
		{"party_two", cmd.PartyTwo},
	} {
		if p.value == "" {
			return dErrors.New(dErrors.CodeValidation, p.field+" is required")
		}
		if utf8.RuneCountInString(p.value) > validation.MaxPartyNameLength {
			return dErrors.New(dErrors.CodeValidation, p.field+" is too long")
		}
	}
	if cmd.MarriageDate.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "marriage_date is required")
	}
	if cmd.MarriageDate.After(now) {
		return dErrors.New(dErrors.CodeValidation, "marriage_date must not be after the registration date")
	}
	return nil
}

// ValidateNumber checks that n is fit to be issued: a book between I and L,
// four digit years, an alphabetic volume letter, no separators inside any
// field, and at least one field besides the book.
func ValidateNumber(n certno.Number) error {
	if _, ok := certno.BookOrdinal(n.Book); !ok {
		return dErrors.New(dErrors.CodeValidation, "book_number must be a book numeral between I and L")
	}
	fields := []struct{ name, value string }{
		{"volume_number", n.Volume},
		{"volume_letter", n.VolumeLetter},
		{"volume_year", n.VolumeYear},
		{"serial_number", n.Serial},
		{"serial_year", n.SerialYear},
		{"page_number", n.Page},
	}
	present := 0
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		present++
		if strings.ContainsFunc(f.value, func(r rune) bool { return r == '-' || unicode.IsSpace(r) }) {
			return dErrors.New(dErrors.CodeValidation, f.name+" must not contain hyphens or spaces")
		}
	}
	if present == 0 {
		return dErrors.New(dErrors.CodeValidation, "at least one field besides book_number is required")
	}
	if n.VolumeLetter != "" && !certno.IsAlpha(n.VolumeLetter) {
		return dErrors.New(dErrors.CodeValidation, "volume_letter must contain letters only")
	}
	if n.VolumeYear != "" && !certno.IsYear(n.VolumeYear) {
		return dErrors.New(dErrors.CodeValidation, "volume_year must be a four digit year")
	}
	if n.SerialYear != "" && !certno.IsYear(n.SerialYear) {
		return dErrors.New(dErrors.CodeValidation, "serial_year must be a four digit year")
	}
	return nil
}
