// Package tracer is a small tracing facade for the certificate module so the
// service does not depend on OpenTelemetry directly.
//
// Implementations:
//   - NoopTracer: for tests and when tracing is off
//   - OTelTracer: OpenTelemetry adapter for production
package tracer

import (
	"context"
	"time"
)

// Span represents an active trace span. End must be called exactly once.
type Span interface {
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
//
//	ctx, span := tracer.Start(ctx, tracer.SpanVerify,
//	    tracer.String(tracer.AttrCanonicalNumber, canonical),
//	)
//	defer func() { span.End(err) }()
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// Span names used by the certificate module.
const (
	SpanVerify = "certificate.verify"
	SpanIssue  = "certificate.issue"
	SpanRevoke = "certificate.revoke"
)

// Attribute keys used by the certificate module.
const (
	AttrCanonicalNumber = "certificate.canonical_number"
	AttrForm            = "certificate.form"
	AttrStatus          = "certificate.status"
	AttrCacheHit        = "cache.hit"
)

// Event names used by the certificate module.
const (
	EventCacheFilled    = "cache.filled"
	EventEventPublished = "event.published"
)
