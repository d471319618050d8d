package kafka

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/SscSPs/exchanger/internal/apperrors"
	"github.com/SscSPs/exchanger/internal/core/ports/queue"
	"github.com/SscSPs/exchanger/internal/platform/metrics"
	"github.com/segmentio/kafka-go"
	"github.com/sethvargo/go-retry"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer runs queued backfill jobs. Offsets are committed only after a job is done
// or has been given up on, so a crash redelivers the job.
type Consumer struct {
	reader     messageReader
	handler    queue.JobHandler
	jobTimeout time.Duration
	maxRetries uint64
	baseDelay  time.Duration
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// ConsumerOption is a function that configures a Consumer.
type ConsumerOption func(*Consumer)

func WithJobTimeout(d time.Duration) ConsumerOption {
	return func(c *Consumer) { c.jobTimeout = d }
}

// WithRetry sets how often a failing job is retried and the first backoff delay.
func WithRetry(maxRetries uint64, baseDelay time.Duration) ConsumerOption {
	return func(c *Consumer) {
		c.maxRetries = maxRetries
		c.baseDelay = baseDelay
	}
}

func WithLogger(logger *slog.Logger) ConsumerOption {
	return func(c *Consumer) { c.logger = logger }
}

func WithMetrics(m *metrics.Metrics) ConsumerOption {
	return func(c *Consumer) { c.metrics = m }
}

func NewConsumer(brokers []string, topic, groupID string, handler queue.JobHandler, opts ...ConsumerOption) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
	})
	return newConsumer(reader, handler, opts...)
}

func newConsumer(reader messageReader, handler queue.JobHandler, opts ...ConsumerOption) *Consumer {
	c := &Consumer{
		reader:     reader,
		handler:    handler,
		jobTimeout: 360 * time.Second,
		maxRetries: 3,
		baseDelay:  time.Second,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run fetches and processes messages until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		if err := c.processMessage(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

// processMessage returns an error only when the message must not be committed.
func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) error {
	job, err := decodeJob(msg)
	if err != nil {
		c.logger.Error("Dropping undecodable backfill job",
			slog.Int64("offset", msg.Offset),
			slog.String("error", err.Error()),
		)
		c.metrics.BackfillJob(metrics.OutcomePoison)
		return nil
	}

	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.baseDelay))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		jobCtx, cancel := context.WithTimeout(ctx, c.jobTimeout)
		defer cancel()

		err := c.handler(jobCtx, job)
		switch {
		case err == nil:
			return nil
		case isPermanent(err):
			return err
		default:
			return retry.RetryableError(err)
		}
	})

	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		c.logger.Error("Giving up on backfill job",
			slog.String("key", job.Key()),
			slog.String("error", err.Error()),
		)
		c.metrics.BackfillJob(metrics.OutcomeFailure)
		return nil
	}
}

// isPermanent reports errors that no retry can fix.
func isPermanent(err error) bool {
	return errors.Is(err, apperrors.ErrValidation) ||
		errors.Is(err, apperrors.ErrInvalidRate) ||
		errors.Is(err, apperrors.ErrMalformedInput) ||
		errors.Is(err, apperrors.ErrNotFound)
}
