package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SscSPs/exchanger/internal/apperrors"
	"github.com/SscSPs/exchanger/internal/core/domain"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	written []kafka.Message
	err     error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.written = append(w.written, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

// fakeReader serves a fixed list of messages, then blocks until the context ends.
type fakeReader struct {
	messages  []kafka.Message
	committed []kafka.Message
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.messages) == 0 {
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	msg := r.messages[0]
	r.messages = r.messages[1:]
	return msg, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error { return nil }

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func job(target string) domain.BackfillJob {
	return domain.BackfillJob{
		JobID:          "job-" + target,
		SourceCurrency: "EUR",
		TargetCurrency: target,
		Date:           time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
	}
}

func TestCodec_RoundTripKeepsCell(t *testing.T) {
	msg, err := encodeJob(job("USD"))
	require.NoError(t, err)
	assert.Equal(t, "EUR|USD|2024-02-29", string(msg.Key))

	decoded, err := decodeJob(msg)
	require.NoError(t, err)
	assert.Equal(t, job("USD").Key(), decoded.Key())
	assert.Equal(t, "job-USD", decoded.JobID)
}

func TestCodec_RejectsIncompleteJobs(t *testing.T) {
	for _, value := range []string{`not json`, `{"sourceCurrency":"EUR"}`, `{"sourceCurrency":"EUR","targetCurrency":"USD"}`} {
		_, err := decodeJob(kafka.Message{Value: []byte(value)})
		assert.Error(t, err, value)
	}
}

func TestPublisher_Enqueue(t *testing.T) {
	w := &fakeWriter{}
	p := &Publisher{writer: w}

	require.NoError(t, p.Enqueue(context.Background()))
	assert.Empty(t, w.written)

	require.NoError(t, p.Enqueue(context.Background(), job("USD"), job("GBP")))
	require.Len(t, w.written, 2)
	assert.Equal(t, "EUR|GBP|2024-02-29", string(w.written[1].Key))

	w.err = errors.New("broker down")
	assert.ErrorContains(t, p.Enqueue(context.Background(), job("CHF")), "broker down")
}

func TestConsumer_CommitsAfterHandling(t *testing.T) {
	ok, err := encodeJob(job("USD"))
	require.NoError(t, err)
	reader := &fakeReader{messages: []kafka.Message{ok, {Offset: 7, Value: []byte("garbage")}}}

	var handled []string
	c := newConsumer(reader, func(_ context.Context, j domain.BackfillJob) error {
		handled = append(handled, j.Key())
		return nil
	}, WithLogger(quietLogger), WithRetry(1, time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	require.NoError(t, c.Run(ctx))
	assert.Equal(t, []string{"EUR|USD|2024-02-29"}, handled)
	assert.Len(t, reader.committed, 2, "poison messages are committed too")
}

func TestConsumer_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	c := newConsumer(&fakeReader{}, func(_ context.Context, _ domain.BackfillJob) error {
		if calls.Add(1) < 3 {
			return fmt.Errorf("%w: flaky", apperrors.ErrNoDataAvailable)
		}
		return nil
	}, WithLogger(quietLogger), WithRetry(5, time.Millisecond))

	msg, err := encodeJob(job("USD"))
	require.NoError(t, err)

	require.NoError(t, c.processMessage(context.Background(), msg))
	assert.Equal(t, int32(3), calls.Load())
}

func TestConsumer_DoesNotRetryPermanentFailures(t *testing.T) {
	var calls atomic.Int32
	c := newConsumer(&fakeReader{}, func(_ context.Context, _ domain.BackfillJob) error {
		calls.Add(1)
		return apperrors.NewInvalidRateError("rate -1 must be positive")
	}, WithLogger(quietLogger), WithRetry(5, time.Millisecond))

	msg, err := encodeJob(job("USD"))
	require.NoError(t, err)

	require.NoError(t, c.processMessage(context.Background(), msg))
	assert.Equal(t, int32(1), calls.Load())
}

func TestConsumer_AppliesJobTimeout(t *testing.T) {
	c := newConsumer(&fakeReader{}, func(ctx context.Context, _ domain.BackfillJob) error {
		deadline, ok := ctx.Deadline()
		require.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
		return nil
	}, WithLogger(quietLogger), WithJobTimeout(time.Minute))

	msg, err := encodeJob(job("USD"))
	require.NoError(t, err)
	require.NoError(t, c.processMessage(context.Background(), msg))
}

func TestConsumer_CancelledContextIsNotCommitted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := newConsumer(&fakeReader{}, func(context.Context, domain.BackfillJob) error {
		cancel()
		return errors.New("interrupted")
	}, WithLogger(quietLogger), WithRetry(5, 50*time.Millisecond))

	msg, err := encodeJob(job("USD"))
	require.NoError(t, err)
	assert.ErrorIs(t, c.processMessage(ctx, msg), context.Canceled)
}
