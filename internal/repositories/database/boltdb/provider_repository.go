package boltdb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SscSPs/exchanger/internal/apperrors"
	"github.com/SscSPs/exchanger/internal/core/domain"
	portsrepo "github.com/SscSPs/exchanger/internal/core/ports/repositories"
	"github.com/SscSPs/exchanger/internal/models"
	"github.com/SscSPs/exchanger/internal/utils/mapping"
	"github.com/google/uuid"
	"go.etcd.io/bbolt"
)

// ProviderRepository keys providers by zero-padded priority so a cursor walk is priority order.
type ProviderRepository struct {
	db *bbolt.DB
}

var _ portsrepo.ProviderRepositoryFacade = (*ProviderRepository)(nil)

func priorityKey(priority int) []byte {
	return fmt.Appendf(nil, "%010d", priority)
}

// ListProviders retrieves all providers ordered by ascending priority.
func (r *ProviderRepository) ListProviders(_ context.Context) ([]domain.Provider, error) {
	providers := []domain.Provider{}
	err := r.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(ProvidersBucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var m models.Provider
			if err := json.Unmarshal(v, &m); err != nil {
				return err
			}
			providers = append(providers, mapping.ToDomainProvider(m))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}
	return providers, nil
}

// ReplaceProviders swaps the bucket contents for the given set in one transaction.
func (r *ProviderRepository) ReplaceProviders(_ context.Context, providers []domain.Provider) error {
	now := time.Now().UTC()
	return r.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(ProvidersBucket); err != nil {
			return fmt.Errorf("failed to clear providers: %w", err)
		}
		b, err := tx.CreateBucket(ProvidersBucket)
		if err != nil {
			return fmt.Errorf("failed to clear providers: %w", err)
		}

		names := make(map[string]struct{}, len(providers))
		for _, p := range providers {
			key := priorityKey(p.Priority)
			if _, dup := names[p.Name]; dup || b.Get(key) != nil {
				return fmt.Errorf("%w: provider names and priorities must be unique", apperrors.ErrDuplicate)
			}
			names[p.Name] = struct{}{}

			m := mapping.ToModelProvider(p)
			if m.ProviderID == "" {
				m.ProviderID = uuid.NewString()
			}
			if m.CreatedAt.IsZero() {
				m.CreatedAt = now
			}
			m.LastUpdatedAt = now
			if err := put(b, key, m); err != nil {
				return fmt.Errorf("failed to insert provider %s: %w", p.Name, err)
			}
		}
		return nil
	})
}
