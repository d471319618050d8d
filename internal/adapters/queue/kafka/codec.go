// Package kafka carries backfill jobs over a Kafka topic.
package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/SscSPs/exchanger/internal/core/domain"
	"github.com/segmentio/kafka-go"
)

func encodeJob(job domain.BackfillJob) (kafka.Message, error) {
	value, err := json.Marshal(job)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to encode backfill job %s: %w", job.Key(), err)
	}
	return kafka.Message{
		Key:   []byte(job.Key()),
		Value: value,
		Time:  time.Now(),
	}, nil
}

func decodeJob(msg kafka.Message) (domain.BackfillJob, error) {
	var job domain.BackfillJob
	if err := json.Unmarshal(msg.Value, &job); err != nil {
		return domain.BackfillJob{}, fmt.Errorf("failed to decode backfill job at offset %d: %w", msg.Offset, err)
	}
	job.SourceCurrency = domain.NormalizeCode(job.SourceCurrency)
	job.TargetCurrency = domain.NormalizeCode(job.TargetCurrency)
	job.Date = domain.NormalizeDate(job.Date)
	if len(job.SourceCurrency) != 3 || len(job.TargetCurrency) != 3 || job.Date.IsZero() {
		return domain.BackfillJob{}, fmt.Errorf("backfill job at offset %d is incomplete: %q", msg.Offset, msg.Value)
	}
	return job, nil
}
