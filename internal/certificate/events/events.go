// Package events announces certificate lifecycle changes on the message bus
// and reacts to them.
package events

import (
	"context"
	"time"

	id "marriage-registry/pkg/domain"
)

// Type names a certificate lifecycle event.
type Type string

const (
	TypeIssued  Type = "certificate.issued"
	TypeRevoked Type = "certificate.revoked"
)

// Event is the JSON payload published for every lifecycle change. It carries
// no party names.
type Event struct {
	Type            Type             `json:"type"`
	CertificateID   id.CertificateID `json:"certificate_id"`
	CanonicalNumber string           `json:"canonical_number"`
	OccurredAt      time.Time        `json:"occurred_at"`
	Actor           string           `json:"actor,omitempty"`
	RequestID       string           `json:"request_id,omitempty"`
}

// Publisher delivers events. Implementations report delivery failures to the
// caller, which decides whether they matter.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NoopPublisher drops every event. It is used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
