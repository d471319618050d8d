package services

import (
	"context"

	"github.com/SscSPs/exchanger/internal/core/domain"
	"github.com/SscSPs/exchanger/internal/dto"
)

// BackfillSvc fills rate tables over a date range.
type BackfillSvc interface {
	// FillRange returns a rate for every (date, currency) cell, resolving missing ones inline.
	FillRange(ctx context.Context, req dto.FillRangeRequest) (domain.RateTable, error)

	// FillRangeAsync enqueues one job per missing (currency, date) cell and returns the job count.
	FillRangeAsync(ctx context.Context, req dto.FillRangeRequest) (int, error)

	// ProcessBackfillJob is the worker entry point for one queued job.
	ProcessBackfillJob(ctx context.Context, job domain.BackfillJob) error
}
