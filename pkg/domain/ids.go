// Package domain provides type-safe identifiers shared across registry modules.
package domain

import (
	"github.com/google/uuid"

	dErrors "marriage-registry/pkg/domain-errors"
)

// CertificateID identifies an issued certificate record. It is distinct from
// the certificate number printed on the document.
type CertificateID uuid.UUID

// NewCertificateID returns a fresh random identifier.
func NewCertificateID() CertificateID {
	return CertificateID(uuid.New())
}

// ParseCertificateID is used at trust boundaries (path parameters, request bodies).
func ParseCertificateID(s string) (CertificateID, error) {
	if s == "" {
		return CertificateID{}, dErrors.New(dErrors.CodeInvalidInput, "certificate ID cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return CertificateID{}, dErrors.New(dErrors.CodeInvalidInput, "invalid certificate ID format")
	}
	return CertificateID(id), nil
}

func (id CertificateID) String() string { return uuid.UUID(id).String() }

func (id CertificateID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// MarshalText lets CertificateID appear as a string in JSON payloads.
func (id CertificateID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText parses the textual form produced by MarshalText.
func (id *CertificateID) UnmarshalText(b []byte) error {
	parsed, err := ParseCertificateID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
