// Package providers implements the rate strategies behind ports/providers.RateAdapter.
package providers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/SscSPs/exchanger/internal/apperrors"
	"github.com/SscSPs/exchanger/internal/core/domain"
	portsproviders "github.com/SscSPs/exchanger/internal/core/ports/providers"
	portsrepo "github.com/SscSPs/exchanger/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
)

// DefaultBaseRates are the baseline rates against EUR used when nothing is stored for a pair.
var DefaultBaseRates = map[string]decimal.Decimal{
	"EUR": decimal.NewFromInt(1),
	"USD": decimal.RequireFromString("1.15"),
	"GBP": decimal.RequireFromString("0.80"),
	"CHF": decimal.RequireFromString("1.10"),
}

// Factory builds the adapter for a provider by dispatching on its Kind.
// It owns the state that outlives a single resolution: the HTTP client and the
// per-provider outbound quotas.
type Factory struct {
	rates      portsrepo.ExchangeRateReader
	httpClient *http.Client
	baseRates  map[string]decimal.Decimal
	timeout    time.Duration
	throttle   *Throttle
}

// FactoryOption is a function that configures a Factory.
type FactoryOption func(*Factory)

// WithHTTPClient sets the client used by remote adapters.
func WithHTTPClient(c *http.Client) FactoryOption {
	return func(f *Factory) {
		f.httpClient = c
	}
}

// WithBaseRates overrides the baseline table used by mock and custom adapters.
func WithBaseRates(base map[string]decimal.Decimal) FactoryOption {
	return func(f *Factory) {
		if len(base) > 0 {
			f.baseRates = base
		}
	}
}

// WithTimeout sets the per-call deadline applied by remote and custom adapters.
func WithTimeout(d time.Duration) FactoryOption {
	return func(f *Factory) {
		f.timeout = d
	}
}

// NewFactory creates a Factory. rates is read by the mock strategy only.
func NewFactory(rates portsrepo.ExchangeRateReader, opts ...FactoryOption) *Factory {
	f := &Factory{
		rates:     rates,
		baseRates: DefaultBaseRates,
		timeout:   10 * time.Second,
		throttle:  NewThrottle(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.httpClient == nil {
		f.httpClient = &http.Client{Timeout: f.timeout}
	}
	return f
}

var _ portsproviders.AdapterFactory = (*Factory)(nil)

// AdapterFor returns a fresh adapter for the provider.
func (f *Factory) AdapterFor(provider domain.Provider) (portsproviders.RateAdapter, error) {
	switch provider.Kind {
	case domain.ProviderKindMock:
		return NewMockAdapter(f.rates, f.baseRates), nil
	case domain.ProviderKindRemote:
		return NewFixerAdapter(f.httpClient, provider.Endpoint, provider.APIKey,
			f.throttle.For(provider.Name, provider.RequestsPerMinute)), nil
	case domain.ProviderKindCustom:
		return NewExpressionAdapter(provider.Expression, f.baseRates, f.timeout)
	default:
		return nil, fmt.Errorf("%w: provider %q has unknown kind %q", apperrors.ErrProviderUnavailable, provider.Name, provider.Kind)
	}
}

// checkRate rejects outputs that can never be stored.
func checkRate(strategy string, rate decimal.Decimal) (decimal.Decimal, error) {
	if !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s returned non-positive rate %s", apperrors.ErrProviderUnavailable, strategy, rate)
	}
	return rate.Round(domain.RateScale), nil
}

func unavailable(strategy, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", apperrors.ErrProviderUnavailable, strategy, fmt.Sprintf(format, args...))
}
