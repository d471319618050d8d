package pgsql

import (
	"context"
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

// PgxProviderRepository stores the ranked provider configuration.
type PgxProviderRepository struct {
	BaseRepository
}

func newPgxProviderRepository(pool *pgxpool.Pool) *PgxProviderRepository {
	return &PgxProviderRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.ProviderRepositoryFacade = (*PgxProviderRepository)(nil)

// ListProviders retrieves all providers ordered by ascending priority.
func (r *PgxProviderRepository) ListProviders(ctx context.Context) ([]domain.Provider, error) {
	query := `
		SELECT provider_id, name, priority, kind, endpoint, api_key, expression, requests_per_minute,
			created_at, created_by, last_updated_at, last_updated_by
		FROM providers
		ORDER BY priority ASC;
	`
	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query providers: %w", err)
	}
	defer rows.Close()

	modelProviders, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Provider, error) {
		var p models.Provider
		err := row.Scan(
			&p.ProviderID, &p.Name, &p.Priority, &p.Kind, &p.Endpoint, &p.APIKey, &p.Expression,
			&p.RequestsPerMinute, &p.CreatedAt, &p.CreatedBy, &p.LastUpdatedAt, &p.LastUpdatedBy,
		)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan providers: %w", err)
	}

	providers := make([]domain.Provider, len(modelProviders))
	for i, m := range modelProviders {
		providers[i] = mapping.ToDomainProvider(m)
	}
	return providers, nil
}

// ReplaceProviders deletes every provider row and inserts the given set in one transaction.
// Duplicate names or priorities abort the replacement with ErrDuplicate.
func (r *PgxProviderRepository) ReplaceProviders(ctx context.Context, providers []domain.Provider) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = r.Rollback(ctx, tx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM providers;`); err != nil {
		return fmt.Errorf("failed to clear providers: %w", err)
	}

	insert := `
		INSERT INTO providers (provider_id, name, priority, kind, endpoint, api_key, expression, requests_per_minute,
			created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	now := time.Now().UTC()
	batch := &pgx.Batch{}
	for _, p := range providers {
		m := mapping.ToModelProvider(p)
		if m.ProviderID == "" {
			m.ProviderID = uuid.NewString()
		}
		if m.CreatedAt.IsZero() {
			m.CreatedAt = now
		}
		batch.Queue(insert,
			m.ProviderID, m.Name, m.Priority, m.Kind, m.Endpoint, m.APIKey, m.Expression, m.RequestsPerMinute,
			m.CreatedAt, m.CreatedBy, now, m.CreatedBy,
		)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: provider names and priorities must be unique", apperrors.ErrDuplicate)
		}
		return fmt.Errorf("failed to insert providers: %w", err)
	}

	return r.Commit(ctx, tx)
}
