// Package consumer runs a franz-go consumer group and hands records to a
// Handler, retrying failed records with bounded backoff.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/twmb/franz-go/pkg/kgo"

	"marriage-registry/internal/platform/kafka"
)

// Message is one consumed record.
type Message struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// Handler processes consumed messages. A returned error is retried in place
// according to the consumer's RetryPolicy. A record that still fails after
// the last retry is logged and committed so its partition keeps moving; it is
// not redelivered. Handlers must tolerate seeing a record more than once.
type Handler interface {
	Handle(ctx context.Context, msg *Message) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, msg *Message) error

func (f HandlerFunc) Handle(ctx context.Context, msg *Message) error {
	return f(ctx, msg)
}

// RetryPolicy bounds the in-place retries of a failing record.
type RetryPolicy struct {
	Retries      uint64 // after the first attempt
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Retries:      3,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     2 * time.Second,
	}
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialDelay
	b.MaxInterval = p.MaxDelay
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, p.Retries), ctx)
}

// Config holds consumer configuration. A zero Retry uses DefaultRetryPolicy.
type Config struct {
	Brokers string
	GroupID string
	Topics  []string
	Retry   RetryPolicy
}

// Consumer polls a consumer group until its context is cancelled.
type Consumer struct {
	client  *kgo.Client
	commit  func(ctx context.Context, rs ...*kgo.Record) error
	handler Handler
	retry   RetryPolicy
	logger  *slog.Logger
}

// New joins the consumer group. Offsets are committed manually after each
// handled record.
func New(cfg Config, handler Handler, logger *slog.Logger) (*Consumer, error) {
	brokers := kafka.SplitBrokers(cfg.Brokers)
	if len(brokers) == 0 {
		return nil, kafka.ErrNoBrokers
	}
	if cfg.GroupID == "" {
		return nil, fmt.Errorf("kafka consumer group ID not configured")
	}
	if len(cfg.Topics) == 0 {
		return nil, fmt.Errorf("kafka consumer topics not configured")
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup(cfg.GroupID),
		kgo.ConsumeTopics(cfg.Topics...),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtEnd()),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}

	retry := cfg.Retry
	if retry == (RetryPolicy{}) {
		retry = DefaultRetryPolicy()
	}

	return &Consumer{
		client:  client,
		commit:  client.CommitRecords,
		handler: handler,
		retry:   retry,
		logger:  logger,
	}, nil
}

// Run polls until ctx is done and then leaves the group. It is meant to be
// run under an errgroup.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.client.Close()

	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return nil
		}

		fetches.EachError(func(topic string, partition int32, err error) {
			if errors.Is(err, context.Canceled) {
				return
			}
			c.logger.ErrorContext(ctx, "kafka fetch error",
				"topic", topic,
				"partition", partition,
				"error", err,
			)
		})

		fetches.EachRecord(func(r *kgo.Record) {
			c.handleRecord(ctx, r)
		})
	}
}

// handleRecord runs the handler until it succeeds or the retries run out,
// then commits. On shutdown the offset is left uncommitted.
func (c *Consumer) handleRecord(ctx context.Context, r *kgo.Record) {
	msg := toMessage(r)
	err := backoff.RetryNotify(func() error {
		return c.handler.Handle(ctx, msg)
	}, c.retry.backOff(ctx), func(err error, wait time.Duration) {
		c.logger.WarnContext(ctx, "retrying message",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"retry_in", wait,
			"error", err,
		)
	})
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		c.logger.ErrorContext(ctx, "skipping message after retries",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"retries", c.retry.Retries,
			"error", err,
		)
	}
	if err := c.commit(ctx, r); err != nil {
		c.logger.ErrorContext(ctx, "failed to commit offset",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"error", err,
		)
	}
}

func toMessage(r *kgo.Record) *Message {
	headers := make(map[string]string, len(r.Headers))
	for _, h := range r.Headers {
		headers[h.Key] = string(h.Value)
	}
	return &Message{
		Topic:     r.Topic,
		Partition: r.Partition,
		Offset:    r.Offset,
		Key:       r.Key,
		Value:     r.Value,
		Headers:   headers,
		Timestamp: r.Timestamp,
	}
}
