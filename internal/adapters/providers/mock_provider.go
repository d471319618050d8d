package providers

import (
	"context"
	"errors"
	"time"

	"github.com/SscSPs/exchanger/internal/apperrors"
	"github.com/SscSPs/exchanger/internal/core/domain"
	portsrepo "github.com/SscSPs/exchanger/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
)

// mockMarkup is applied to the last stored rate of a pair.
var mockMarkup = decimal.RequireFromString("1.03")

// MockAdapter derives a rate from stored history, falling back to a baseline cross rate.
type MockAdapter struct {
	rates     portsrepo.ExchangeRateReader
	baseRates map[string]decimal.Decimal
}

func NewMockAdapter(rates portsrepo.ExchangeRateReader, baseRates map[string]decimal.Decimal) *MockAdapter {
	return &MockAdapter{rates: rates, baseRates: baseRates}
}

func (a *MockAdapter) Resolve(ctx context.Context, sourceCurrency, targetCurrency string, date time.Time) (decimal.Decimal, error) {
	sourceCurrency, targetCurrency = domain.NormalizeCode(sourceCurrency), domain.NormalizeCode(targetCurrency)
	if sourceCurrency == targetCurrency {
		return decimal.NewFromInt(1), nil
	}

	if a.rates != nil {
		last, err := a.rates.FindLatestExchangeRate(ctx, sourceCurrency, targetCurrency, &date)
		switch {
		case err == nil:
			return checkRate("mock", last.Rate.Mul(mockMarkup))
		case !errors.Is(err, apperrors.ErrNotFound):
			return decimal.Zero, unavailable("mock", "reading history: %v", err)
		}
	}

	source, okS := a.baseRates[sourceCurrency]
	target, okT := a.baseRates[targetCurrency]
	if !okS || !okT || !source.IsPositive() {
		return decimal.Zero, unavailable("mock", "no baseline rate for %s/%s", sourceCurrency, targetCurrency)
	}
	return checkRate("mock", target.DivRound(source, domain.RateScale))
}
