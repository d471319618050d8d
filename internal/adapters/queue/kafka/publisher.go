package kafka

import (
	"context"
	"fmt"

	"github.com/SscSPs/exchanger/internal/core/domain"
	"github.com/SscSPs/exchanger/internal/core/ports/queue"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher enqueues backfill jobs on a topic, keyed by rate cell.
type Publisher struct {
	writer messageWriter
}

var _ queue.BackfillQueue = (*Publisher)(nil)

func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
	}
}

// Enqueue writes all jobs in one batch. Either the whole batch is accepted or an error is returned.
func (p *Publisher) Enqueue(ctx context.Context, jobs ...domain.BackfillJob) error {
	if len(jobs) == 0 {
		return nil
	}

	messages := make([]kafka.Message, 0, len(jobs))
	for _, job := range jobs {
		msg, err := encodeJob(job)
		if err != nil {
			return err
		}
		messages = append(messages, msg)
	}

	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		return fmt.Errorf("failed to write %d backfill jobs: %w", len(messages), err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
