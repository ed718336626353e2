// Package models holds the registered-certificate records and the public
// verification view derived from them.
package models

import (
	"time"

	"marriage-registry/pkg/certno"
	id "marriage-registry/pkg/domain"
)

// Status is the lifecycle state of a registered certificate.
type Status string

const (
	StatusActive  Status = "active"
	StatusRevoked Status = "revoked"
)

// DateLayout is the wire format of marriage dates.
const DateLayout = "2006-01-02"

// Certificate is one issued marriage registration certificate. CanonicalNumber
// is the compact encoding of Number and the lookup key for verification.
type Certificate struct {
	ID               id.CertificateID `json:"id"`
	Number           certno.Number    `json:"number"`
	CanonicalNumber  string           `json:"canonical_number"`
	PartyOne         string           `json:"party_one"`
	PartyTwo         string           `json:"party_two"`
	MarriageDate     time.Time        `json:"marriage_date"`
	RegisteredAt     time.Time        `json:"registered_at"`
	Status           Status           `json:"status"`
	RevokedAt        *time.Time       `json:"revoked_at,omitempty"`
	RevocationReason string           `json:"revocation_reason,omitempty"`
	IssuedBy         string           `json:"issued_by,omitempty"`
}

// IsRevoked reports whether the certificate has been withdrawn.
func (c *Certificate) IsRevoked() bool {
	return c.Status == StatusRevoked
}

// Revoke marks the certificate withdrawn at now.
func (c *Certificate) Revoke(reason string, now time.Time) {
	c.Status = StatusRevoked
	c.RevocationReason = reason
	c.RevokedAt = &now
}

// Verification is what a member of the public learns when checking a
// certificate number. Party names are masked.
type Verification struct {
	CanonicalNumber string    `json:"canonical_number"`
	Status          Status    `json:"status"`
	MarriageDate    string    `json:"marriage_date"`
	RegisteredAt    time.Time `json:"registered_at"`
	PartyOneMasked  string    `json:"party_one"`
	PartyTwoMasked  string    `json:"party_two"`
	CheckedAt       time.Time `json:"checked_at"`
}

// IssueCommand carries the registrar's input for a new certificate.
type IssueCommand struct {
	Number       certno.Number
	PartyOne     string
	PartyTwo     string
	MarriageDate time.Time
}

// Decoded is the structured view of a raw certificate number string, used to
// pre-populate the certificate form.
type Decoded struct {
	Form      certno.Form     `json:"form"`
	Number    certno.Number   `json:"number"`
	Defaulted bool            `json:"defaulted"`
	Canonical string          `json:"canonical,omitempty"`
	Compact   *certno.Compact `json:"compact,omitempty"`
}

// Page is one slice of the certificate listing.
type Page struct {
	Certificates []*Certificate `json:"certificates"`
	Offset       int            `json:"offset"`
	Limit        int            `json:"limit"`
	Total        int            `json:"total"`
}
