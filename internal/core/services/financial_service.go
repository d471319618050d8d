package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/exchanger/internal/apperrors"
	"github.com/SscSPs/exchanger/internal/core/domain"
	portsrepo "github.com/SscSPs/exchanger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/exchanger/internal/core/ports/services"
	"github.com/SscSPs/exchanger/internal/dto"
	"github.com/shopspring/decimal"
)

// DefaultConvertLookbackDays is how many days Convert walks back when nothing is stored for a pair.
const DefaultConvertLookbackDays = 30

var hundred = decimal.NewFromInt(100)

type financialService struct {
	BaseService
	rateRepo     portsrepo.ExchangeRateReader
	resolver     portssvc.ExchangeRateResolverSvc
	currencySvc  portssvc.CurrencyReaderSvc
	lookbackDays int
	clock        Clock
}

// FinancialServiceOption is a functional option for configuring the financial service
type FinancialServiceOption func(*financialService)

// WithConvertLookbackDays sets how far back Convert searches for a rate.
func WithConvertLookbackDays(days int) FinancialServiceOption {
	return func(s *financialService) {
		if days > 0 {
			s.lookbackDays = days
		}
	}
}

// WithClock pins "today" for Convert and TimeWeightedReturn.
func WithClock(c Clock) FinancialServiceOption {
	return func(s *financialService) {
		s.clock = c
	}
}

// NewFinancialService creates a new financial service.
func NewFinancialService(
	rateRepo portsrepo.ExchangeRateReader,
	resolver portssvc.ExchangeRateResolverSvc,
	currencySvc portssvc.CurrencyReaderSvc,
	options ...FinancialServiceOption,
) portssvc.FinancialSvc {
	svc := &financialService{
		rateRepo:     rateRepo,
		resolver:     resolver,
		currencySvc:  currencySvc,
		lookbackDays: DefaultConvertLookbackDays,
		clock:        utcNow,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.FinancialSvc = (*financialService)(nil)

// Convert converts at the most recent stored rate. With nothing stored it asks the
// providers for today, then each earlier day of the lookback window.
func (s *financialService) Convert(ctx context.Context, req dto.ConvertRequest) (*domain.Conversion, error) {
	q, err := req.Parse()
	if err != nil {
		return nil, err
	}
	if err := s.requireCurrencies(ctx, s.currencySvc, q.SourceCurrency, q.TargetCurrency); err != nil {
		return nil, err
	}

	result := &domain.Conversion{
		SourceCurrency: q.SourceCurrency,
		TargetCurrency: q.TargetCurrency,
		Amount:         q.Amount,
	}

	rate, err := s.latestRate(ctx, q.SourceCurrency, q.TargetCurrency)
	if err != nil {
		return nil, err
	}
	if rate == nil {
		s.LogInfo(ctx, "No exchange rate available for conversion",
			slog.String("source_currency", q.SourceCurrency),
			slog.String("target_currency", q.TargetCurrency),
			slog.Int("lookback_days", s.lookbackDays))
		return result, nil
	}

	asOf := rate.DateEffective
	result.Rate = rate.Rate
	result.ConvertedAmount = q.Amount.Mul(rate.Rate).Round(domain.RateScale)
	result.AsOfDate = &asOf
	result.Available = true
	return result, nil
}

// latestRate returns nil, nil when the lookback window is exhausted.
func (s *financialService) latestRate(ctx context.Context, source, target string) (*domain.ExchangeRate, error) {
	today := domain.NormalizeDate(s.clock())
	if source == target {
		return domain.IdentityRate(source, today), nil
	}

	stored, err := s.rateRepo.FindLatestExchangeRate(ctx, source, target, nil)
	if err == nil {
		return stored, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	for back := 0; back < s.lookbackDays; back++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		day := today.AddDate(0, 0, -back)
		resolved, err := s.resolver.ResolveAndPersist(ctx, source, target, day)
		if err == nil {
			return resolved, nil
		}
		if !errors.Is(err, apperrors.ErrNoDataAvailable) {
			return nil, err
		}
	}
	return nil, nil
}

// TimeWeightedReturn converts Amount into the target on StartDate and back at today's rate.
// The percentage is relative to Amount.
func (s *financialService) TimeWeightedReturn(ctx context.Context, req dto.TimeWeightedReturnRequest) (*domain.TimeWeightedReturn, error) {
	q, err := req.Parse()
	if err != nil {
		return nil, err
	}
	if err := s.requireCurrencies(ctx, s.currencySvc, q.SourceCurrency, q.TargetCurrency); err != nil {
		return nil, err
	}

	today := domain.NormalizeDate(s.clock())
	if q.StartDate.After(today) {
		return nil, apperrors.NewValidationError("start date cannot be in the future")
	}

	start, err := s.rateOn(ctx, q.SourceCurrency, q.TargetCurrency, q.StartDate)
	if err != nil {
		return nil, err
	}
	current, err := s.rateOn(ctx, q.SourceCurrency, q.TargetCurrency, today)
	if err != nil {
		return nil, err
	}

	if !start.IsPositive() || !current.IsPositive() {
		return nil, apperrors.NewInvalidRateError(fmt.Sprintf("rates for %s/%s must be positive, got %s and %s",
			q.SourceCurrency, q.TargetCurrency, start, current))
	}

	amountInTarget := q.Amount.Mul(start)
	final := amountInTarget.DivRound(current, domain.RateScale)
	twr := final.Sub(q.Amount).Div(q.Amount).Mul(hundred)

	s.LogDebug(ctx, "Computed time-weighted return",
		slog.String("source_currency", q.SourceCurrency),
		slog.String("target_currency", q.TargetCurrency),
		slog.String("twr", twr.StringFixed(2)))

	return &domain.TimeWeightedReturn{
		SourceCurrency:      q.SourceCurrency,
		TargetCurrency:      q.TargetCurrency,
		StartDate:           q.StartDate,
		EndDate:             today,
		InitialAmount:       q.Amount,
		AmountInTarget:      amountInTarget,
		FinalAmount:         final,
		InitialExchangeRate: start,
		CurrentExchangeRate: current,
		TWRPercentage:       twr,
	}, nil
}

// rateOn returns the stored rate for the exact date, resolving it on a miss.
func (s *financialService) rateOn(ctx context.Context, source, target string, date time.Time) (decimal.Decimal, error) {
	if source == target {
		return decimal.NewFromInt(1), nil
	}
	stored, err := s.rateRepo.FindExchangeRate(ctx, source, target, date)
	if err == nil {
		return stored.Rate, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return decimal.Zero, err
	}
	resolved, err := s.resolver.ResolveAndPersist(ctx, source, target, date)
	if err != nil {
		return decimal.Zero, err
	}
	return resolved.Rate, nil
}
