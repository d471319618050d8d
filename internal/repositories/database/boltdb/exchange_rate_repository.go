package boltdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/SscSPs/exchanger/internal/apperrors"
	"github.com/SscSPs/exchanger/internal/core/domain"
	portsrepo "github.com/SscSPs/exchanger/internal/core/ports/repositories"
	"github.com/SscSPs/exchanger/internal/models"
	"github.com/SscSPs/exchanger/internal/utils/mapping"
	"github.com/google/uuid"
	"go.etcd.io/bbolt"
)

// ExchangeRateRepository keys rows as FROM|TO|YYYY-MM-DD, so the dates of one pair
// are contiguous and sorted inside the bucket.
type ExchangeRateRepository struct {
	db *bbolt.DB
}

var _ portsrepo.ExchangeRateRepositoryFacade = (*ExchangeRateRepository)(nil)

func pairPrefix(from, to string) []byte {
	return []byte(from + "|" + to + "|")
}

func rateKey(from, to string, date time.Time) []byte {
	return append(pairPrefix(from, to), domain.FormatDate(date)...)
}

// UpsertExchangeRate writes the rate and its inverse in one bbolt transaction.
func (r *ExchangeRateRepository) UpsertExchangeRate(_ context.Context, rate domain.ExchangeRate) (*domain.ExchangeRate, error) {
	var stored *domain.ExchangeRate
	err := r.db.Update(func(tx *bbolt.Tx) error {
		var err error
		stored, err = upsertPair(tx.Bucket(ExchangeRatesBucket), rate, time.Now().UTC())
		return err
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// ImportExchangeRates upserts every rate in a single bbolt transaction.
func (r *ExchangeRateRepository) ImportExchangeRates(_ context.Context, rates []domain.ExchangeRate) (int, error) {
	now := time.Now().UTC()
	err := r.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(ExchangeRatesBucket)
		for i, rate := range rates {
			if _, err := upsertPair(b, rate, now); err != nil {
				return fmt.Errorf("import row %d (%s/%s %s): %w", i+1,
					rate.FromCurrencyCode, rate.ToCurrencyCode, domain.FormatDate(rate.DateEffective), err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(rates), nil
}

func upsertPair(b *bbolt.Bucket, rate domain.ExchangeRate, now time.Time) (*domain.ExchangeRate, error) {
	rate, inverse, err := rate.InversePair()
	if err != nil {
		return nil, err
	}

	forward, err := upsertRow(b, rate, now)
	if err != nil {
		return nil, err
	}
	if _, err := upsertRow(b, inverse, now); err != nil {
		return nil, err
	}
	return forward, nil
}

func upsertRow(b *bbolt.Bucket, rate domain.ExchangeRate, now time.Time) (*domain.ExchangeRate, error) {
	key := rateKey(rate.FromCurrencyCode, rate.ToCurrencyCode, rate.DateEffective)
	m := mapping.ToModelExchangeRate(rate)

	if existing := b.Get(key); existing != nil {
		var prev models.ExchangeRate
		if err := json.Unmarshal(existing, &prev); err != nil {
			return nil, fmt.Errorf("failed to decode exchange rate %s: %w", key, err)
		}
		m.ExchangeRateID = prev.ExchangeRateID
		m.CreatedAt = prev.CreatedAt
		m.CreatedBy = prev.CreatedBy
	}
	if m.ExchangeRateID == "" {
		m.ExchangeRateID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.LastUpdatedAt = now
	if m.LastUpdatedBy == "" {
		m.LastUpdatedBy = m.CreatedBy
	}

	if err := put(b, key, m); err != nil {
		return nil, fmt.Errorf("failed to upsert exchange rate: %w", err)
	}
	d := mapping.ToDomainExchangeRate(m)
	return &d, nil
}

// FindExchangeRate retrieves the rate stored for an exact (from, to, date) key.
func (r *ExchangeRateRepository) FindExchangeRate(_ context.Context, fromCurrencyCode, toCurrencyCode string, date time.Time) (*domain.ExchangeRate, error) {
	key := rateKey(domain.NormalizeCode(fromCurrencyCode), domain.NormalizeCode(toCurrencyCode), domain.NormalizeDate(date))

	var found *domain.ExchangeRate
	err := r.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(ExchangeRatesBucket).Get(key)
		if data == nil {
			return nil
		}
		var err error
		found, err = decodeRate(data)
		return err
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, apperrors.NewNotFoundError("exchange rate not found")
	}
	return found, nil
}

// FindLatestExchangeRate retrieves the most recent rate for the pair, optionally bounded by a date.
func (r *ExchangeRateRepository) FindLatestExchangeRate(_ context.Context, fromCurrencyCode, toCurrencyCode string, onOrBefore *time.Time) (*domain.ExchangeRate, error) {
	prefix := pairPrefix(domain.NormalizeCode(fromCurrencyCode), domain.NormalizeCode(toCurrencyCode))

	// "~" sorts after every digit, so seeking to it lands past the last date of the pair.
	seek := append(bytes.Clone(prefix), '~')
	if onOrBefore != nil {
		seek = append(bytes.Clone(prefix), domain.FormatDate(domain.NormalizeDate(*onOrBefore))...)
	}

	var found *domain.ExchangeRate
	err := r.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(ExchangeRatesBucket).Cursor()

		k, v := c.Seek(seek)
		if k == nil || !bytes.Equal(k, seek) {
			// Seek lands on the first key >= seek (or past the end); step back to the one before it.
			if k == nil {
				k, v = c.Last()
			} else {
				k, v = c.Prev()
			}
		}
		if k == nil || !bytes.HasPrefix(k, prefix) {
			return nil
		}

		var err error
		found, err = decodeRate(v)
		return err
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, apperrors.NewNotFoundError("exchange rate not found")
	}
	return found, nil
}

// ListExchangeRates retrieves every rate from one source currency within an inclusive date range.
func (r *ExchangeRateRepository) ListExchangeRates(_ context.Context, fromCurrencyCode string, dateFrom, dateTo time.Time) ([]domain.ExchangeRate, error) {
	prefix := []byte(domain.NormalizeCode(fromCurrencyCode) + "|")
	dateFrom, dateTo = domain.NormalizeDate(dateFrom), domain.NormalizeDate(dateTo)

	rates := []domain.ExchangeRate{}
	err := r.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(ExchangeRatesBucket).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			rate, err := decodeRate(v)
			if err != nil {
				return err
			}
			if rate.DateEffective.Before(dateFrom) || rate.DateEffective.After(dateTo) {
				continue
			}
			rates = append(rates, *rate)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(rates, func(i, j int) bool {
		if !rates[i].DateEffective.Equal(rates[j].DateEffective) {
			return rates[i].DateEffective.Before(rates[j].DateEffective)
		}
		return rates[i].ToCurrencyCode < rates[j].ToCurrencyCode
	})
	return rates, nil
}

func decodeRate(data []byte) (*domain.ExchangeRate, error) {
	var m models.ExchangeRate
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode exchange rate: %w", err)
	}
	d := mapping.ToDomainExchangeRate(m)
	return &d, nil
}
