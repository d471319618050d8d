package services

import (
	portsproviders "github.com/SscSPs/exchanger/internal/core/ports/providers"
	"github.com/SscSPs/exchanger/internal/core/ports/queue"
	portsrepo "github.com/SscSPs/exchanger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/exchanger/internal/core/ports/services"
	"github.com/SscSPs/exchanger/internal/platform/config"
	"github.com/SscSPs/exchanger/internal/platform/metrics"
)

// NewServiceContainer creates a new service container with properly initialized dependencies.
// backfillQueue may be nil, which disables asynchronous backfill.
func NewServiceContainer(
	cfg *config.Config,
	repos portsrepo.RepositoryProvider,
	adapters portsproviders.AdapterFactory,
	backfillQueue queue.BackfillQueue,
	m *metrics.Metrics,
) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// Currency service first: every other service validates codes against it
	container.Currency = NewCurrencyService(repos.CurrencyRepo)
	container.Provider = NewProviderService(repos.ProviderRepo)

	container.ExchangeRate = NewExchangeRateService(
		repos.ExchangeRateRepo,
		repos.ProviderRepo,
		adapters,
		WithProviderTimeout(cfg.ProviderTimeout),
		WithCurrencyValidation(container.Currency),
		WithExchangeRateMetrics(m),
	)

	backfillOpts := []BackfillServiceOption{
		WithBackfillWorkers(cfg.BackfillWorkers),
		WithBackfillMaxDays(cfg.BackfillMaxDays),
		WithBackfillMetrics(m),
	}
	if backfillQueue != nil {
		backfillOpts = append(backfillOpts, WithBackfillQueue(backfillQueue))
	}
	container.Backfill = NewBackfillService(repos.ExchangeRateRepo, container.ExchangeRate, container.Currency, backfillOpts...)

	container.Financial = NewFinancialService(
		repos.ExchangeRateRepo,
		container.ExchangeRate,
		container.Currency,
		WithConvertLookbackDays(cfg.ConvertLookbackDays),
	)

	return container
}
