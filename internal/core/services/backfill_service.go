package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/exchanger/internal/apperrors"
	"github.com/SscSPs/exchanger/internal/core/domain"
	"github.com/SscSPs/exchanger/internal/core/ports/queue"
	portsrepo "github.com/SscSPs/exchanger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/exchanger/internal/core/ports/services"
	"github.com/SscSPs/exchanger/internal/dto"
	"github.com/SscSPs/exchanger/internal/platform/metrics"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// ErrAsyncBackfillDisabled is returned by FillRangeAsync when no queue is configured.
var ErrAsyncBackfillDisabled = errors.New("asynchronous backfill is not configured")

type backfillService struct {
	BaseService
	rateRepo    portsrepo.ExchangeRateReader
	resolver    portssvc.ExchangeRateResolverSvc
	currencySvc portssvc.CurrencyReaderSvc
	queue       queue.BackfillQueue
	workers     int
	maxDays     int
	metrics     *metrics.Metrics
	clock       Clock
}

// BackfillServiceOption is a functional option for configuring the backfill service
type BackfillServiceOption func(*backfillService)

// WithBackfillQueue enables FillRangeAsync.
func WithBackfillQueue(q queue.BackfillQueue) BackfillServiceOption {
	return func(s *backfillService) {
		s.queue = q
	}
}

// WithBackfillWorkers bounds how many currencies are filled concurrently.
func WithBackfillWorkers(n int) BackfillServiceOption {
	return func(s *backfillService) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithBackfillMaxDays bounds the length of a requested range.
func WithBackfillMaxDays(n int) BackfillServiceOption {
	return func(s *backfillService) {
		s.maxDays = n
	}
}

func WithBackfillMetrics(m *metrics.Metrics) BackfillServiceOption {
	return func(s *backfillService) {
		s.metrics = m
	}
}

func WithBackfillClock(c Clock) BackfillServiceOption {
	return func(s *backfillService) {
		s.clock = c
	}
}

// NewBackfillService creates the backfill engine. currencySvc supplies the currency list
// when a request names none.
func NewBackfillService(
	rateRepo portsrepo.ExchangeRateReader,
	resolver portssvc.ExchangeRateResolverSvc,
	currencySvc portssvc.CurrencyReaderSvc,
	options ...BackfillServiceOption,
) portssvc.BackfillSvc {
	svc := &backfillService{
		rateRepo:    rateRepo,
		resolver:    resolver,
		currencySvc: currencySvc,
		workers:     4,
		clock:       utcNow,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.BackfillSvc = (*backfillService)(nil)

// FillRange resolves every (date, currency) cell of the range. Cells no provider could
// answer are present as invalid NullDecimals rather than failing the whole table.
func (s *backfillService) FillRange(ctx context.Context, req dto.FillRangeRequest) (domain.RateTable, error) {
	q, err := req.Parse(s.maxDays)
	if err != nil {
		return nil, err
	}
	currencies, err := s.targetCurrencies(ctx, q)
	if err != nil {
		return nil, err
	}
	known, err := s.storedWindow(ctx, q)
	if err != nil {
		return nil, err
	}

	days := domain.DaysInRange(q.DateFrom, q.DateTo)
	columns := make([][]decimal.NullDecimal, len(currencies))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, currency := range currencies {
		g.Go(func() error {
			column := make([]decimal.NullDecimal, len(days))
			for j, day := range days {
				cell, err := s.fillCell(gctx, q.SourceCurrency, currency, day, known)
				if err != nil {
					return err
				}
				column[j] = cell
			}
			columns[i] = column
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.LogError(ctx, err, "Backfill aborted", slog.String("source_currency", q.SourceCurrency))
		return nil, err
	}

	table := make(domain.RateTable, len(days))
	for j, day := range days {
		row := make(map[string]decimal.NullDecimal, len(currencies))
		for i, currency := range currencies {
			row[currency] = columns[i][j]
		}
		table[domain.FormatDate(day)] = row
	}
	return table, nil
}

// fillCell returns a stored or freshly resolved rate. known is read-only here.
func (s *backfillService) fillCell(ctx context.Context, source, target string, day time.Time, known map[string]decimal.Decimal) (decimal.NullDecimal, error) {
	if source == target {
		return decimal.NewNullDecimal(decimal.NewFromInt(1)), nil
	}
	if rate, ok := known[cellKey(target, day)]; ok {
		s.metrics.BackfillCell(metrics.OutcomeCached)
		return decimal.NewNullDecimal(rate), nil
	}

	stored, err := s.resolver.ResolveAndPersist(ctx, source, target, day)
	switch {
	case err == nil:
		s.metrics.BackfillCell(metrics.OutcomeSuccess)
		return decimal.NewNullDecimal(stored.Rate), nil
	case errors.Is(err, apperrors.ErrNoDataAvailable):
		s.metrics.BackfillCell(metrics.OutcomeUnknown)
		s.LogDebug(ctx, "No rate available for cell",
			slog.String("source_currency", source),
			slog.String("target_currency", target),
			slog.String("date", domain.FormatDate(day)))
		return decimal.NullDecimal{}, nil
	default:
		return decimal.NullDecimal{}, err
	}
}

// FillRangeAsync enqueues a job for every cell that is not stored yet.
func (s *backfillService) FillRangeAsync(ctx context.Context, req dto.FillRangeRequest) (int, error) {
	if s.queue == nil {
		return 0, ErrAsyncBackfillDisabled
	}
	q, err := req.Parse(s.maxDays)
	if err != nil {
		return 0, err
	}
	currencies, err := s.targetCurrencies(ctx, q)
	if err != nil {
		return 0, err
	}
	known, err := s.storedWindow(ctx, q)
	if err != nil {
		return 0, err
	}

	now := s.clock()
	var jobs []domain.BackfillJob
	for _, currency := range currencies {
		if currency == q.SourceCurrency {
			continue
		}
		// Every currency walks the whole range.
		for _, day := range domain.DaysInRange(q.DateFrom, q.DateTo) {
			if _, ok := known[cellKey(currency, day)]; ok {
				continue
			}
			jobs = append(jobs, domain.BackfillJob{
				JobID:          uuid.NewString(),
				SourceCurrency: q.SourceCurrency,
				TargetCurrency: currency,
				Date:           day,
				EnqueuedAt:     now,
			})
		}
	}

	if err := s.queue.Enqueue(ctx, jobs...); err != nil {
		s.LogError(ctx, err, "Failed to enqueue backfill jobs", slog.Int("jobs", len(jobs)))
		return 0, fmt.Errorf("failed to enqueue backfill: %w", err)
	}

	s.LogInfo(ctx, "Backfill enqueued",
		slog.String("source_currency", q.SourceCurrency),
		slog.Int("jobs", len(jobs)))
	return len(jobs), nil
}

// ProcessBackfillJob resolves one queued cell. A cell no provider can answer is done, not failed.
// Failures are counted by the queue consumer, which decides about retries.
func (s *backfillService) ProcessBackfillJob(ctx context.Context, job domain.BackfillJob) error {
	_, err := s.resolver.ResolveAndPersist(ctx, job.SourceCurrency, job.TargetCurrency, job.Date)
	switch {
	case err == nil:
		s.metrics.BackfillJob(metrics.OutcomeSuccess)
		return nil
	case errors.Is(err, apperrors.ErrNoDataAvailable):
		s.LogInfo(ctx, "No rate available for backfill job", slog.String("key", job.Key()))
		s.metrics.BackfillJob(metrics.OutcomeNoData)
		return nil
	default:
		return err
	}
}

// targetCurrencies validates the request's codes, expanding an empty list to every configured currency.
func (s *backfillService) targetCurrencies(ctx context.Context, q dto.FillRangeQuery) ([]string, error) {
	if err := s.requireCurrencies(ctx, s.currencySvc, append([]string{q.SourceCurrency}, q.Currencies...)...); err != nil {
		return nil, err
	}
	if len(q.Currencies) > 0 {
		return q.Currencies, nil
	}

	all, err := s.currencySvc.ListCurrencies(ctx)
	if err != nil {
		return nil, err
	}
	codes := make([]string, 0, len(all))
	for _, c := range all {
		codes = append(codes, c.CurrencyCode)
	}
	return codes, nil
}

// storedWindow loads every stored rate of the range in one query, keyed by cellKey.
func (s *backfillService) storedWindow(ctx context.Context, q dto.FillRangeQuery) (map[string]decimal.Decimal, error) {
	stored, err := s.rateRepo.ListExchangeRates(ctx, q.SourceCurrency, q.DateFrom, q.DateTo)
	if err != nil {
		return nil, fmt.Errorf("failed to load stored rates: %w", err)
	}
	known := make(map[string]decimal.Decimal, len(stored))
	for _, r := range stored {
		known[cellKey(r.ToCurrencyCode, r.DateEffective)] = r.Rate
	}
	return known, nil
}

func cellKey(currency string, day time.Time) string {
	return currency + "|" + domain.FormatDate(day)
}
