package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/exchanger/internal/core/domain"
)

// ExchangeRateReader defines read operations for exchange rate data
type ExchangeRateReader interface {
	// FindExchangeRate retrieves the rate for an exact (from, to, date) key.
	// Returns apperrors.ErrNotFound when no row exists.
	FindExchangeRate(ctx context.Context, fromCurrencyCode, toCurrencyCode string, date time.Time) (*domain.ExchangeRate, error)

	// FindLatestExchangeRate retrieves the most recent rate for a pair dated on or before
	// onOrBefore. A nil onOrBefore applies no date filter.
	FindLatestExchangeRate(ctx context.Context, fromCurrencyCode, toCurrencyCode string, onOrBefore *time.Time) (*domain.ExchangeRate, error)

	// ListExchangeRates retrieves every rate from one source currency dated within [dateFrom, dateTo].
	ListExchangeRates(ctx context.Context, fromCurrencyCode string, dateFrom, dateTo time.Time) ([]domain.ExchangeRate, error)
}

// ExchangeRateWriter defines write operations for exchange rate data
type ExchangeRateWriter interface {
	// UpsertExchangeRate atomically writes the rate and its inverse, overwriting existing rows
	// for either key. Returns the stored forward row.
	UpsertExchangeRate(ctx context.Context, rate domain.ExchangeRate) (*domain.ExchangeRate, error)

	// ImportExchangeRates upserts every rate (and its inverse) in a single transaction.
	// Any failing row aborts the whole batch.
	ImportExchangeRates(ctx context.Context, rates []domain.ExchangeRate) (int, error)
}

// ExchangeRateRepositoryFacade combines all exchange rate-related repository interfaces
// This is a facade for clients that need access to all operations
type ExchangeRateRepositoryFacade interface {
	ExchangeRateReader
	ExchangeRateWriter
}
