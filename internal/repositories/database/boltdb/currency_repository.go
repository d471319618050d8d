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
	"go.etcd.io/bbolt"
)

type CurrencyRepository struct {
	db *bbolt.DB
}

var _ portsrepo.CurrencyRepositoryFacade = (*CurrencyRepository)(nil)

// SaveCurrency inserts or updates a currency keyed by its code.
func (r *CurrencyRepository) SaveCurrency(_ context.Context, currency domain.Currency) error {
	m := mapping.ToModelCurrency(currency)
	m.CurrencyCode = domain.NormalizeCode(m.CurrencyCode)
	now := time.Now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.LastUpdatedAt = now

	return r.db.Update(func(tx *bbolt.Tx) error {
		if err := put(tx.Bucket(CurrenciesBucket), []byte(m.CurrencyCode), m); err != nil {
			return fmt.Errorf("failed to save currency %s: %w", m.CurrencyCode, err)
		}
		return nil
	})
}

// FindCurrencyByCode retrieves a currency by its 3-letter code.
func (r *CurrencyRepository) FindCurrencyByCode(_ context.Context, currencyCode string) (*domain.Currency, error) {
	var found *domain.Currency
	err := r.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(CurrenciesBucket).Get([]byte(domain.NormalizeCode(currencyCode)))
		if data == nil {
			return nil
		}
		var m models.Currency
		if err := json.Unmarshal(data, &m); err != nil {
			return err
		}
		d := mapping.ToDomainCurrency(m)
		found = &d
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find currency by code %s: %w", currencyCode, err)
	}
	if found == nil {
		return nil, apperrors.ErrNotFound
	}
	return found, nil
}

// ListCurrencies retrieves all currencies ordered by code.
func (r *CurrencyRepository) ListCurrencies(_ context.Context) ([]domain.Currency, error) {
	var ms []models.Currency
	err := r.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(CurrenciesBucket).ForEach(func(_, v []byte) error {
			var m models.Currency
			if err := json.Unmarshal(v, &m); err != nil {
				return err
			}
			ms = append(ms, m)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list currencies: %w", err)
	}
	return mapping.ToDomainCurrencySlice(ms), nil
}
