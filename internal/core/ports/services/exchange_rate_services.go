package services

import (
	"context"
	"time"

	"github.com/SscSPs/exchanger/internal/core/domain"
	"github.com/SscSPs/exchanger/internal/dto"
)

// ExchangeRateResolverSvc resolves rates through the ranked providers.
type ExchangeRateResolverSvc interface {
	// ResolveAndPersist asks each provider in priority order and stores the first answer.
	// It returns apperrors.ErrNoDataAvailable when every provider fails.
	ResolveAndPersist(ctx context.Context, sourceCurrency, targetCurrency string, date time.Time) (*domain.ExchangeRate, error)
}

// ExchangeRateReaderSvc defines read operations for exchange rate data
type ExchangeRateReaderSvc interface {
	// GetExchangeRate returns the stored rate for the key, resolving it on a miss.
	GetExchangeRate(ctx context.Context, req dto.GetExchangeRateRequest) (*domain.ExchangeRate, error)
}

// ExchangeRateWriterSvc defines write operations for exchange rate data
type ExchangeRateWriterSvc interface {
	// ImportExchangeRates validates every row and upserts them all in one transaction.
	ImportExchangeRates(ctx context.Context, rows []dto.ImportExchangeRateRow, importedBy string) (int, error)
}

// ExchangeRateSvcFacade combines all exchange rate-related service interfaces
type ExchangeRateSvcFacade interface {
	ExchangeRateResolverSvc
	ExchangeRateReaderSvc
	ExchangeRateWriterSvc
}
