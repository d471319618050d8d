package services_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/SscSPs/exchanger/internal/apperrors"
	"github.com/SscSPs/exchanger/internal/core/domain"
	portsproviders "github.com/SscSPs/exchanger/internal/core/ports/providers"
	portsrepo "github.com/SscSPs/exchanger/internal/core/ports/repositories"
	"github.com/SscSPs/exchanger/internal/repositories/database/boltdb"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mock RateAdapter ---
type MockRateAdapter struct {
	mock.Mock
}

func (m *MockRateAdapter) Resolve(ctx context.Context, sourceCurrency, targetCurrency string, date time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, sourceCurrency, targetCurrency, date)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// failAll makes every remaining call fail the way a real adapter does.
func (m *MockRateAdapter) failAll() {
	m.On("Resolve", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(decimal.Zero, fmt.Errorf("%w: test adapter", apperrors.ErrProviderUnavailable))
}

// fakeFactory hands out a fixed adapter per provider name.
type fakeFactory struct {
	adapters map[string]portsproviders.RateAdapter
}

func (f *fakeFactory) AdapterFor(provider domain.Provider) (portsproviders.RateAdapter, error) {
	a, ok := f.adapters[provider.Name]
	if !ok {
		return nil, fmt.Errorf("%w: no adapter for %s", apperrors.ErrProviderUnavailable, provider.Name)
	}
	return a, nil
}

// rateEnv is a bbolt-backed store seeded with EUR, USD and GBP and two ranked providers,
// "primary" then "secondary", each backed by its own mock adapter.
type rateEnv struct {
	repos     portsrepo.RepositoryProvider
	factory   *fakeFactory
	primary   *MockRateAdapter
	secondary *MockRateAdapter
}

func newRateEnv(t *testing.T) *rateEnv {
	t.Helper()
	ctx := context.Background()

	db, err := boltdb.Open(filepath.Join(t.TempDir(), "rates.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repos := boltdb.NewRepositoryProvider(db)
	for _, code := range []string{"EUR", "USD", "GBP"} {
		require.NoError(t, repos.CurrencyRepo.SaveCurrency(ctx, domain.Currency{CurrencyCode: code, Symbol: code, Name: code}))
	}
	require.NoError(t, repos.ProviderRepo.ReplaceProviders(ctx, []domain.Provider{
		{Name: "primary", Priority: 1, Kind: domain.ProviderKindRemote},
		{Name: "secondary", Priority: 2, Kind: domain.ProviderKindMock},
	}))

	env := &rateEnv{
		repos:     repos,
		primary:   new(MockRateAdapter),
		secondary: new(MockRateAdapter),
	}
	env.factory = &fakeFactory{adapters: map[string]portsproviders.RateAdapter{
		"primary":   env.primary,
		"secondary": env.secondary,
	}}
	return env
}

func (e *rateEnv) seed(t *testing.T, rates ...domain.ExchangeRate) {
	t.Helper()
	_, err := e.repos.ExchangeRateRepo.ImportExchangeRates(context.Background(), rates)
	require.NoError(t, err)
}

func day(s string) time.Time {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func rate(from, to, value, date string) domain.ExchangeRate {
	return domain.ExchangeRate{
		FromCurrencyCode: from,
		ToCurrencyCode:   to,
		Rate:             dec(value),
		DateEffective:    day(date),
	}
}

func fixedClock(date string) func() time.Time {
	t := day(date).Add(15 * time.Hour)
	return func() time.Time { return t }
}
