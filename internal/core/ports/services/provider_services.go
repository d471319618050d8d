package services

import (
	"context"

	"github.com/SscSPs/exchanger/internal/core/domain"
	"github.com/SscSPs/exchanger/internal/dto"
)

// ProviderReaderSvc defines read operations for the provider configuration
type ProviderReaderSvc interface {
	// ListProviders retrieves all providers ordered by priority.
	ListProviders(ctx context.Context) ([]domain.Provider, error)
}

// ProviderWriterSvc defines write operations for the provider configuration
type ProviderWriterSvc interface {
	// SyncProviders validates the configured providers and replaces the stored set with them.
	SyncProviders(ctx context.Context, reqs []dto.ProviderConfigRequest, updatedBy string) ([]domain.Provider, error)
}

// ProviderSvcFacade combines all provider-related service interfaces
type ProviderSvcFacade interface {
	ProviderReaderSvc
	ProviderWriterSvc
}
