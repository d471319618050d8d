package providers

import (
	"context"
	"time"

	"github.com/SscSPs/exchanger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// RateAdapter computes a rate for a (source, target, date) triple using one strategy.
// Implementations are stateless with respect to the rate store: they may read history
// but never write it. Any failure is reported as an error wrapping
// apperrors.ErrProviderUnavailable.
type RateAdapter interface {
	Resolve(ctx context.Context, sourceCurrency, targetCurrency string, date time.Time) (decimal.Decimal, error)
}

// AdapterFactory builds the RateAdapter for a configured Provider, dispatching on its Kind.
type AdapterFactory interface {
	AdapterFor(provider domain.Provider) (RateAdapter, error)
}
