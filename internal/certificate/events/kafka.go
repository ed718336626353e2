package events

import (
	"context"
	"encoding/json"
	"fmt"

	"marriage-registry/internal/certificate/metrics"
	"marriage-registry/internal/platform/kafka/producer"
)

// Producer is the slice of the platform producer the publisher needs.
type Producer interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

// KafkaPublisher writes events to a topic, keyed by canonical number so every
// event for one certificate lands on the same partition in order.
type KafkaPublisher struct {
	producer Producer
	topic    string
	metrics  *metrics.Metrics
}

func NewKafkaPublisher(p Producer, topic string, m *metrics.Metrics) *KafkaPublisher {
	return &KafkaPublisher{producer: p, topic: topic, metrics: m}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode certificate event: %w", err)
	}
	msg := &producer.Message{
		Topic: p.topic,
		Key:   []byte(event.CanonicalNumber),
		Value: payload,
		Headers: map[string]string{
			"event_type": string(event.Type),
		},
	}
	if event.RequestID != "" {
		msg.Headers["request_id"] = event.RequestID
	}
	if err := p.producer.Produce(ctx, msg); err != nil {
		p.metrics.RecordEventFailed(string(event.Type))
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	p.metrics.RecordEventPublished(string(event.Type))
	return nil
}
