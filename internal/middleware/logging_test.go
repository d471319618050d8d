package middleware_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/SscSPs/exchanger/internal/core/domain"
	"github.com/SscSPs/exchanger/internal/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLoggerFromCtx_FallsBackToDefault(t *testing.T) {
	assert.Same(t, slog.Default(), middleware.GetLoggerFromCtx(context.Background()))

	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
	ctx := middleware.WithLogger(context.Background(), logger)
	assert.Same(t, logger, middleware.GetLoggerFromCtx(ctx))
}

func TestGetActorFromCtx(t *testing.T) {
	assert.Equal(t, middleware.SystemActor, middleware.GetActorFromCtx(context.Background()))
	assert.Equal(t, "importer", middleware.GetActorFromCtx(middleware.WithActor(context.Background(), "importer")))
}

func TestStructuredLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	job := domain.BackfillJob{
		SourceCurrency: "EUR",
		TargetCurrency: "USD",
		Date:           time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}

	var seen domain.BackfillJob
	var scoped *slog.Logger
	handler := middleware.StructuredLoggingMiddleware(base)(func(ctx context.Context, j domain.BackfillJob) error {
		seen = j
		scoped = middleware.GetLoggerFromCtx(ctx)
		return nil
	})

	require.NoError(t, handler(context.Background(), job))
	assert.NotEmpty(t, seen.JobID)
	assert.NotSame(t, base, scoped)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "Job completed", line["msg"])
	assert.Equal(t, seen.JobID, line["job_id"])
	assert.Equal(t, "2024-01-02", line["date"])
}

func TestStructuredLoggingMiddleware_PropagatesError(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))
	boom := errors.New("boom")

	handler := middleware.StructuredLoggingMiddleware(base)(func(context.Context, domain.BackfillJob) error {
		return boom
	})

	err := handler(context.Background(), domain.BackfillJob{JobID: "job-1"})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, buf.String(), `"job_id":"job-1"`)
	assert.Contains(t, buf.String(), `"level":"ERROR"`)
}
