package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/exchanger/internal/apperrors"
	"github.com/SscSPs/exchanger/internal/core/domain"
	portsrepo "github.com/SscSPs/exchanger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/exchanger/internal/core/ports/services"
	"github.com/SscSPs/exchanger/internal/dto"
)

type providerService struct {
	BaseService
	providerRepo portsrepo.ProviderRepositoryFacade
}

// NewProviderService creates a new provider configuration service.
func NewProviderService(providerRepo portsrepo.ProviderRepositoryFacade) portssvc.ProviderSvcFacade {
	return &providerService{providerRepo: providerRepo}
}

var _ portssvc.ProviderSvcFacade = (*providerService)(nil)

func (s *providerService) ListProviders(ctx context.Context) ([]domain.Provider, error) {
	providers, err := s.providerRepo.ListProviders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list providers in service: %w", err)
	}
	return providers, nil
}

// SyncProviders rejects the whole set if any entry is invalid or names/priorities repeat.
func (s *providerService) SyncProviders(ctx context.Context, reqs []dto.ProviderConfigRequest, updatedBy string) ([]domain.Provider, error) {
	now := time.Now().UTC()
	names := make(map[string]struct{}, len(reqs))
	priorities := make(map[int]string, len(reqs))
	providers := make([]domain.Provider, 0, len(reqs))

	for i := range reqs {
		req := reqs[i]
		if err := req.Validate(); err != nil {
			return nil, fmt.Errorf("provider %d (%s): %w", i+1, req.Name, err)
		}
		if _, dup := names[req.Name]; dup {
			return nil, fmt.Errorf("%w: provider name '%s' is configured twice", apperrors.ErrDuplicate, req.Name)
		}
		if other, dup := priorities[req.Priority]; dup {
			return nil, fmt.Errorf("%w: providers '%s' and '%s' share priority %d", apperrors.ErrDuplicate, other, req.Name, req.Priority)
		}
		names[req.Name] = struct{}{}
		priorities[req.Priority] = req.Name

		p := req.ToDomain()
		p.AuditFields = domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     updatedBy,
			LastUpdatedAt: now,
			LastUpdatedBy: updatedBy,
		}
		providers = append(providers, p)
	}

	if err := s.providerRepo.ReplaceProviders(ctx, providers); err != nil {
		s.LogError(ctx, err, "Failed to replace providers", slog.Int("count", len(providers)))
		return nil, fmt.Errorf("failed to sync providers in service: %w", err)
	}

	s.LogInfo(ctx, "Providers synced", slog.Int("count", len(providers)))
	return s.ListProviders(ctx)
}
