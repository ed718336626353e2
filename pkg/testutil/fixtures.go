package testutil

import (
	"time"

	"github.com/google/uuid"

	"marriage-registry/internal/certificate/models"
	"marriage-registry/pkg/certno"
	id "marriage-registry/pkg/domain"
)

// TestIDs provides fixed certificate IDs for deterministic test data.
var TestIDs = struct {
	CertificateID1 id.CertificateID
	CertificateID2 id.CertificateID
}{
	CertificateID1: id.CertificateID(uuid.MustParse("c0000000-0000-0000-0000-000000000001")),
	CertificateID2: id.CertificateID(uuid.MustParse("c0000000-0000-0000-0000-000000000002")),
}

// FixedTime is the registration time used by builders unless overridden.
var FixedTime = time.Date(2024, 2, 14, 10, 30, 0, 0, time.UTC)

// CertificateBuilder provides a fluent interface for building test certificates.
type CertificateBuilder struct {
	cert *models.Certificate
}

// NewCertificateBuilder starts from an active certificate numbered
// WB-MSD-BRW-I-1-16-21.
func NewCertificateBuilder() *CertificateBuilder {
	n := certno.Number{Book: "I", Volume: "1", Serial: "16", Page: "21"}
	return &CertificateBuilder{
		cert: &models.Certificate{
			ID:              id.NewCertificateID(),
			Number:          n,
			CanonicalNumber: certno.Format(n),
			PartyOne:        "Asha Devi Roy",
			PartyTwo:        "Rahul Sen",
			MarriageDate:    time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC),
			RegisteredAt:    FixedTime,
			Status:          models.StatusActive,
			IssuedBy:        "registrar-1",
		},
	}
}

func (b *CertificateBuilder) WithID(certID id.CertificateID) *CertificateBuilder {
	b.cert.ID = certID
	return b
}

// WithNumber sets the number and recomputes the canonical key.
func (b *CertificateBuilder) WithNumber(n certno.Number) *CertificateBuilder {
	b.cert.Number = n
	b.cert.CanonicalNumber = certno.Format(n)
	return b
}

func (b *CertificateBuilder) WithParties(one, two string) *CertificateBuilder {
	b.cert.PartyOne = one
	b.cert.PartyTwo = two
	return b
}

func (b *CertificateBuilder) WithRegisteredAt(t time.Time) *CertificateBuilder {
	b.cert.RegisteredAt = t
	return b
}

func (b *CertificateBuilder) Revoked(reason string, at time.Time) *CertificateBuilder {
	b.cert.Revoke(reason, at)
	return b
}

func (b *CertificateBuilder) Build() *models.Certificate {
	c := *b.cert
	return &c
}
