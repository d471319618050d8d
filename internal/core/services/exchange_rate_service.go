package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/exchanger/internal/apperrors"
	"github.com/SscSPs/exchanger/internal/core/domain"
	portsproviders "github.com/SscSPs/exchanger/internal/core/ports/providers"
	portsrepo "github.com/SscSPs/exchanger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/exchanger/internal/core/ports/services"
	"github.com/SscSPs/exchanger/internal/dto"
	"github.com/SscSPs/exchanger/internal/middleware"
	"github.com/SscSPs/exchanger/internal/platform/metrics"
	"github.com/shopspring/decimal"
)

// exchangeRateService is the Rate Resolver: the only writer of resolved rates.
type exchangeRateService struct {
	BaseService
	rateRepo        portsrepo.ExchangeRateRepositoryFacade
	providerRepo    portsrepo.ProviderReader
	adapters        portsproviders.AdapterFactory
	currencySvc     portssvc.CurrencyReaderSvc
	providerTimeout time.Duration
	metrics         *metrics.Metrics
}

// ExchangeRateServiceOption is a functional option for configuring the exchange rate service
type ExchangeRateServiceOption func(*exchangeRateService)

// WithProviderTimeout bounds every single provider call.
func WithProviderTimeout(d time.Duration) ExchangeRateServiceOption {
	return func(s *exchangeRateService) {
		s.providerTimeout = d
	}
}

// WithCurrencyValidation makes boundary operations reject unknown currency codes.
func WithCurrencyValidation(currencySvc portssvc.CurrencyReaderSvc) ExchangeRateServiceOption {
	return func(s *exchangeRateService) {
		s.currencySvc = currencySvc
	}
}

// WithExchangeRateMetrics records provider calls and persisted rates.
func WithExchangeRateMetrics(m *metrics.Metrics) ExchangeRateServiceOption {
	return func(s *exchangeRateService) {
		s.metrics = m
	}
}

// NewExchangeRateService creates the resolver over the rate store, the provider table and the adapter factory.
func NewExchangeRateService(
	rateRepo portsrepo.ExchangeRateRepositoryFacade,
	providerRepo portsrepo.ProviderReader,
	adapters portsproviders.AdapterFactory,
	options ...ExchangeRateServiceOption,
) portssvc.ExchangeRateSvcFacade {
	svc := &exchangeRateService{
		rateRepo:        rateRepo,
		providerRepo:    providerRepo,
		adapters:        adapters,
		providerTimeout: 10 * time.Second,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.ExchangeRateSvcFacade = (*exchangeRateService)(nil)

func (s *exchangeRateService) ResolveAndPersist(ctx context.Context, sourceCurrency, targetCurrency string, date time.Time) (*domain.ExchangeRate, error) {
	sourceCurrency, targetCurrency = domain.NormalizeCode(sourceCurrency), domain.NormalizeCode(targetCurrency)
	date = domain.NormalizeDate(date)
	if sourceCurrency == targetCurrency {
		return domain.IdentityRate(sourceCurrency, date), nil
	}

	// Re-read on every resolution so configuration changes apply without a restart.
	providers, err := s.providerRepo.ListProviders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}

	attrs := []any{
		slog.String("source_currency", sourceCurrency),
		slog.String("target_currency", targetCurrency),
		slog.String("date", domain.FormatDate(date)),
	}

	for _, provider := range providers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rate, err := s.callProvider(ctx, provider, sourceCurrency, targetCurrency, date)
		if err != nil {
			s.LogDebug(ctx, "Provider could not resolve rate",
				append(attrs, slog.String("provider", provider.Name), slog.String("error", err.Error()))...)
			continue
		}

		actor := middleware.GetActorFromCtx(ctx)
		stored, err := s.rateRepo.UpsertExchangeRate(ctx, domain.ExchangeRate{
			FromCurrencyCode: sourceCurrency,
			ToCurrencyCode:   targetCurrency,
			Rate:             rate,
			DateEffective:    date,
			AuditFields: domain.AuditFields{
				CreatedBy:     actor,
				LastUpdatedBy: actor,
			},
		})
		if err != nil {
			s.LogError(ctx, err, "Failed to persist resolved rate", append(attrs, slog.String("provider", provider.Name))...)
			return nil, fmt.Errorf("failed to persist rate from provider '%s': %w", provider.Name, err)
		}

		s.metrics.RatePersisted()
		s.LogDebug(ctx, "Rate resolved", append(attrs, slog.String("provider", provider.Name), slog.String("rate", stored.Rate.String()))...)
		return stored, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: no provider could resolve %s/%s on %s",
		apperrors.ErrNoDataAvailable, sourceCurrency, targetCurrency, domain.FormatDate(date))
}

// callProvider runs one provider under the per-provider timeout.
func (s *exchangeRateService) callProvider(ctx context.Context, provider domain.Provider, sourceCurrency, targetCurrency string, date time.Time) (decimal.Decimal, error) {
	start := time.Now()
	outcome := metrics.OutcomeFailure
	defer func() {
		s.metrics.ObserveProviderCall(provider.Name, outcome, time.Since(start))
	}()

	adapter, err := s.adapters.AdapterFor(provider)
	if err != nil {
		return decimal.Zero, err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.providerTimeout)
	defer cancel()

	rate, err := adapter.Resolve(callCtx, sourceCurrency, targetCurrency, date)
	if err != nil {
		return decimal.Zero, err
	}
	outcome = metrics.OutcomeSuccess
	return rate, nil
}

func (s *exchangeRateService) GetExchangeRate(ctx context.Context, req dto.GetExchangeRateRequest) (*domain.ExchangeRate, error) {
	q, err := req.Parse()
	if err != nil {
		return nil, err
	}
	if err := s.requireCurrencies(ctx, s.currencySvc, q.SourceCurrency, q.TargetCurrency); err != nil {
		return nil, err
	}
	if q.SourceCurrency == q.TargetCurrency {
		return domain.IdentityRate(q.SourceCurrency, q.Date), nil
	}

	rate, err := s.rateRepo.FindExchangeRate(ctx, q.SourceCurrency, q.TargetCurrency, q.Date)
	if err == nil {
		return rate, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to get exchange rate in service: %w", err)
	}
	return s.ResolveAndPersist(ctx, q.SourceCurrency, q.TargetCurrency, q.Date)
}

func (s *exchangeRateService) ImportExchangeRates(ctx context.Context, rows []dto.ImportExchangeRateRow, importedBy string) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	rates := make([]domain.ExchangeRate, 0, len(rows))
	codes := make([]string, 0, 2*len(rows))
	for i, row := range rows {
		rate, err := row.Parse()
		if err != nil {
			return 0, fmt.Errorf("import row %d: %w", i+1, err)
		}
		rate.AuditFields = domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     importedBy,
			LastUpdatedAt: now,
			LastUpdatedBy: importedBy,
		}
		rates = append(rates, rate)
		codes = append(codes, rate.FromCurrencyCode, rate.ToCurrencyCode)
	}
	if err := s.requireCurrencies(ctx, s.currencySvc, codes...); err != nil {
		return 0, err
	}

	n, err := s.rateRepo.ImportExchangeRates(ctx, rates)
	if err != nil {
		s.LogError(ctx, err, "Exchange rate import failed", slog.Int("rows", len(rates)))
		return 0, err
	}

	s.LogInfo(ctx, "Exchange rates imported", slog.Int("rows", n), slog.String("imported_by", importedBy))
	return n, nil
}
