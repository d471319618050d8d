package repositories

import (
	"context"

	"github.com/SscSPs/exchanger/internal/core/domain"
)

// ProviderReader defines read operations for rate provider configuration
type ProviderReader interface {
	// ListProviders retrieves all providers ordered by ascending priority.
	ListProviders(ctx context.Context) ([]domain.Provider, error)
}

// ProviderWriter defines write operations for rate provider configuration
type ProviderWriter interface {
	// ReplaceProviders atomically replaces the whole provider table.
	ReplaceProviders(ctx context.Context, providers []domain.Provider) error
}

// ProviderRepositoryFacade combines all provider-related repository interfaces
type ProviderRepositoryFacade interface {
	ProviderReader
	ProviderWriter
}
