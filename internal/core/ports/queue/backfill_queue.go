package queue

import (
	"context"

	"github.com/SscSPs/exchanger/internal/core/domain"
)

// BackfillQueue hands backfill jobs to an external task queue with at-least-once delivery.
// Enqueue returns once the queue has accepted the jobs; execution order is not guaranteed.
type BackfillQueue interface {
	Enqueue(ctx context.Context, jobs ...domain.BackfillJob) error
}

// JobHandler executes one backfill job. Returning an error means the job was not done
// and may be redelivered.
type JobHandler func(ctx context.Context, job domain.BackfillJob) error
