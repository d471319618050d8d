package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/exchanger/internal/apperrors"
	"github.com/SscSPs/exchanger/internal/core/domain"
	portsrepo "github.com/SscSPs/exchanger/internal/core/ports/repositories"
	"github.com/SscSPs/exchanger/internal/models"
	"github.com/SscSPs/exchanger/internal/utils/mapping"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxExchangeRateRepository implements the exchange rate store on PostgreSQL.
// The unique index on (from_currency_code, to_currency_code, date_effective) backs the
// one-row-per-key invariant; every write updates both directions in one transaction.
type PgxExchangeRateRepository struct {
	BaseRepository
}

// newPgxExchangeRateRepository creates a new PgxExchangeRateRepository.
func newPgxExchangeRateRepository(db *pgxpool.Pool) *PgxExchangeRateRepository {
	return &PgxExchangeRateRepository{
		BaseRepository: BaseRepository{Pool: db},
	}
}

var _ portsrepo.ExchangeRateRepositoryFacade = (*PgxExchangeRateRepository)(nil)

const exchangeRateColumns = `
	exchange_rate_id, from_currency_code, to_currency_code, rate, date_effective,
	created_at, created_by, last_updated_at, last_updated_by`

const upsertExchangeRateQuery = `
	INSERT INTO exchange_rates (` + exchangeRateColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (from_currency_code, to_currency_code, date_effective) DO UPDATE SET
		rate = EXCLUDED.rate,
		last_updated_at = EXCLUDED.last_updated_at,
		last_updated_by = EXCLUDED.last_updated_by
	RETURNING ` + exchangeRateColumns + `;`

// UpsertExchangeRate writes the rate and its inverse in one transaction.
func (r *PgxExchangeRateRepository) UpsertExchangeRate(ctx context.Context, rate domain.ExchangeRate) (*domain.ExchangeRate, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Rollback(ctx, tx) }()

	stored, err := r.upsertPair(ctx, tx, rate, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return stored, nil
}

// ImportExchangeRates upserts every rate in a single transaction; the first failure rolls back the batch.
func (r *PgxExchangeRateRepository) ImportExchangeRates(ctx context.Context, rates []domain.ExchangeRate) (int, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = r.Rollback(ctx, tx) }()

	now := time.Now().UTC()
	for i, rate := range rates {
		if _, err := r.upsertPair(ctx, tx, rate, now); err != nil {
			return 0, fmt.Errorf("import row %d (%s/%s %s): %w", i+1,
				rate.FromCurrencyCode, rate.ToCurrencyCode, domain.FormatDate(rate.DateEffective), err)
		}
	}

	if err := r.Commit(ctx, tx); err != nil {
		return 0, err
	}
	return len(rates), nil
}

// upsertPair validates both directions, then writes the forward and the inverse row inside tx.
// Rows are written in key order so concurrent upserts of (a, b) and (b, a) lock them the same way.
func (r *PgxExchangeRateRepository) upsertPair(ctx context.Context, tx pgx.Tx, rate domain.ExchangeRate, now time.Time) (*domain.ExchangeRate, error) {
	rate, inverse, err := rate.InversePair()
	if err != nil {
		return nil, err
	}

	first, second := rate, inverse
	if first.FromCurrencyCode > second.FromCurrencyCode {
		first, second = second, first
	}
	storedFirst, err := r.upsertRow(ctx, tx, first, now)
	if err != nil {
		return nil, err
	}
	storedSecond, err := r.upsertRow(ctx, tx, second, now)
	if err != nil {
		return nil, err
	}
	if storedFirst.FromCurrencyCode == rate.FromCurrencyCode {
		return storedFirst, nil
	}
	return storedSecond, nil
}

func (r *PgxExchangeRateRepository) upsertRow(ctx context.Context, tx pgx.Tx, rate domain.ExchangeRate, now time.Time) (*domain.ExchangeRate, error) {
	m := mapping.ToModelExchangeRate(rate)
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

	var stored models.ExchangeRate
	err := tx.QueryRow(ctx, upsertExchangeRateQuery,
		m.ExchangeRateID, m.FromCurrencyCode, m.ToCurrencyCode, m.Rate, m.DateEffective,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	).Scan(
		&stored.ExchangeRateID, &stored.FromCurrencyCode, &stored.ToCurrencyCode,
		&stored.Rate, &stored.DateEffective, &stored.CreatedAt,
		&stored.CreatedBy, &stored.LastUpdatedAt, &stored.LastUpdatedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert exchange rate: %w", err)
	}

	d := mapping.ToDomainExchangeRate(stored)
	return &d, nil
}

// FindExchangeRate retrieves the rate stored for an exact (from, to, date) key.
func (r *PgxExchangeRateRepository) FindExchangeRate(ctx context.Context, fromCurrencyCode, toCurrencyCode string, date time.Time) (*domain.ExchangeRate, error) {
	query := `SELECT ` + exchangeRateColumns + `
		FROM exchange_rates
		WHERE from_currency_code = $1 AND to_currency_code = $2 AND date_effective = $3;`

	return r.queryOne(ctx, query,
		domain.NormalizeCode(fromCurrencyCode), domain.NormalizeCode(toCurrencyCode), domain.NormalizeDate(date))
}

// FindLatestExchangeRate retrieves the most recent rate for the pair, optionally bounded by a date.
func (r *PgxExchangeRateRepository) FindLatestExchangeRate(ctx context.Context, fromCurrencyCode, toCurrencyCode string, onOrBefore *time.Time) (*domain.ExchangeRate, error) {
	query := `SELECT ` + exchangeRateColumns + `
		FROM exchange_rates
		WHERE from_currency_code = $1 AND to_currency_code = $2`
	args := []any{domain.NormalizeCode(fromCurrencyCode), domain.NormalizeCode(toCurrencyCode)}

	if onOrBefore != nil {
		query += ` AND date_effective <= $3`
		args = append(args, domain.NormalizeDate(*onOrBefore))
	}
	query += ` ORDER BY date_effective DESC LIMIT 1;`

	return r.queryOne(ctx, query, args...)
}

// ListExchangeRates retrieves every rate from one source currency within an inclusive date range.
func (r *PgxExchangeRateRepository) ListExchangeRates(ctx context.Context, fromCurrencyCode string, dateFrom, dateTo time.Time) ([]domain.ExchangeRate, error) {
	query := `SELECT ` + exchangeRateColumns + `
		FROM exchange_rates
		WHERE from_currency_code = $1 AND date_effective >= $2 AND date_effective <= $3
		ORDER BY date_effective, to_currency_code;`

	rows, err := r.Pool.Query(ctx, query,
		domain.NormalizeCode(fromCurrencyCode), domain.NormalizeDate(dateFrom), domain.NormalizeDate(dateTo))
	if err != nil {
		return nil, fmt.Errorf("failed to list exchange rates: %w", err)
	}
	defer rows.Close()

	modelRates, err := pgx.CollectRows(rows, scanExchangeRate)
	if err != nil {
		return nil, fmt.Errorf("failed to scan exchange rates: %w", err)
	}

	rates := make([]domain.ExchangeRate, len(modelRates))
	for i, m := range modelRates {
		rates[i] = mapping.ToDomainExchangeRate(m)
	}
	return rates, nil
}

func (r *PgxExchangeRateRepository) queryOne(ctx context.Context, query string, args ...any) (*domain.ExchangeRate, error) {
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find exchange rate: %w", err)
	}
	modelRate, err := pgx.CollectExactlyOneRow(rows, scanExchangeRate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("exchange rate not found")
		}
		return nil, fmt.Errorf("failed to find exchange rate: %w", err)
	}

	domainRate := mapping.ToDomainExchangeRate(modelRate)
	return &domainRate, nil
}

func scanExchangeRate(row pgx.CollectableRow) (models.ExchangeRate, error) {
	var m models.ExchangeRate
	err := row.Scan(
		&m.ExchangeRateID, &m.FromCurrencyCode, &m.ToCurrencyCode,
		&m.Rate, &m.DateEffective, &m.CreatedAt,
		&m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	return m, err
}
