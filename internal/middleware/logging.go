package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/SscSPs/exchanger/internal/core/domain"
	"github.com/SscSPs/exchanger/internal/core/ports/queue"
	"github.com/google/uuid"
)

// contextKey is the type of the keys this package stores in a context.
// Using a custom type prevents collisions.
type contextKey string

const loggerKey = contextKey("logger")

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// GetLoggerFromCtx retrieves the scoped logger from the context.
// It returns the default logger if none is found.
func GetLoggerFromCtx(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return slog.Default()
	}
	logger, ok := ctx.Value(loggerKey).(*slog.Logger)
	if !ok || logger == nil {
		return slog.Default()
	}
	return logger
}

// StructuredLoggingMiddleware wraps a backfill job handler so that every job runs with
// a job-scoped logger in its context and logs its outcome once it completes.
func StructuredLoggingMiddleware(baseLogger *slog.Logger) func(queue.JobHandler) queue.JobHandler {
	return func(next queue.JobHandler) queue.JobHandler {
		return func(ctx context.Context, job domain.BackfillJob) error {
			start := time.Now()
			jobID := job.JobID
			if jobID == "" {
				jobID = uuid.NewString()
				job.JobID = jobID
			}

			jobLogger := baseLogger.With(
				slog.String("job_id", jobID),
				slog.String("source_currency", job.SourceCurrency),
				slog.String("target_currency", job.TargetCurrency),
				slog.String("date", domain.FormatDate(job.Date)),
			)

			err := next(WithLogger(ctx, jobLogger), job)

			latency := time.Since(start)
			if err != nil {
				jobLogger.Error("Job failed",
					slog.Duration("latency", latency),
					slog.String("error", err.Error()),
				)
				return err
			}
			jobLogger.Info("Job completed", slog.Duration("latency", latency))
			return nil
		}
	}
}
