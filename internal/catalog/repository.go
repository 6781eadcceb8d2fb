package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxPool is the pool surface the repository needs.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repository provides persistence for providers and services.
type Repository struct {
	pool PgxPool
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool PgxPool) *Repository {
	if pool == nil {
		panic("catalog: pgx pool required")
	}
	return &Repository{pool: pool}
}

// CreateProvider inserts a provider row. Called by the registration flow.
func (r *Repository) CreateProvider(ctx context.Context, displayName, email string) (*Provider, error) {
	if displayName == "" || email == "" {
		return nil, fmt.Errorf("catalog: display name and email required: %w", ErrValidation)
	}
	query := `
		INSERT INTO providers (id, display_name, email)
		VALUES ($1, $2, $3)
		RETURNING id, display_name, email, created_at`
	var p Provider
	err := r.pool.QueryRow(ctx, query, uuid.New(), displayName, email).
		Scan(&p.ID, &p.DisplayName, &p.Email, &p.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("catalog: provider email taken: %w", ErrConflict)
		}
		return nil, fmt.Errorf("catalog: create provider: %w", err)
	}
	return &p, nil
}

// GetProvider loads a provider by id.
func (r *Repository) GetProvider(ctx context.Context, id uuid.UUID) (*Provider, error) {
	var p Provider
	err := r.pool.QueryRow(ctx,
		`SELECT id, display_name, email, created_at FROM providers WHERE id = $1`, id,
	).Scan(&p.ID, &p.DisplayName, &p.Email, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("catalog: provider %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("catalog: get provider: %w", err)
	}
	return &p, nil
}

// CreateService inserts a service for a provider.
func (r *Repository) CreateService(ctx context.Context, providerID uuid.UUID, name, description string, priceCents, durationMinutes int) (*Service, error) {
	if name == "" {
		return nil, fmt.Errorf("catalog: service name required: %w", ErrValidation)
	}
	if durationMinutes <= 0 {
		return nil, fmt.Errorf("catalog: duration must be positive: %w", ErrValidation)
	}
	query := `
		INSERT INTO services (id, provider_id, name, description, price_cents, duration_minutes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, provider_id, name, description, price_cents, duration_minutes, created_at`
	svc, err := scanService(r.pool.QueryRow(ctx, query, uuid.New(), providerID, name, description, priceCents, durationMinutes))
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("catalog: provider %s: %w", providerID, ErrNotFound)
		}
		return nil, fmt.Errorf("catalog: create service: %w", err)
	}
	return svc, nil
}

// GetService loads a service by id.
func (r *Repository) GetService(ctx context.Context, id uuid.UUID) (*Service, error) {
	query := `
		SELECT id, provider_id, name, description, price_cents, duration_minutes, created_at
		FROM services WHERE id = $1`
	svc, err := scanService(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("catalog: service %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("catalog: get service: %w", err)
	}
	return svc, nil
}

// ListServicesByProvider returns a provider's services, newest first.
func (r *Repository) ListServicesByProvider(ctx context.Context, providerID uuid.UUID) ([]*Service, error) {
	query := `
		SELECT id, provider_id, name, description, price_cents, duration_minutes, created_at
		FROM services
		WHERE provider_id = $1
		ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, providerID)
	if err != nil {
		return nil, fmt.Errorf("catalog: list services: %w", err)
	}
	defer rows.Close()

	var services []*Service
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("catalog: scan service: %w", err)
		}
		services = append(services, svc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: list services: %w", err)
	}
	return services, nil
}

// DeleteService removes a service, refusing while slots still reference it
// so slots are never silently orphaned. Guard and delete share one
// transaction, and a foreign key violation raised by the delete itself
// (appointment history keeps its service reference) reads as a conflict.
func (r *Repository) DeleteService(ctx context.Context, id uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("catalog: begin service delete: %w", err)
	}
	defer tx.Rollback(ctx)

	var slots int
	if err := tx.QueryRow(ctx, `SELECT count(*) FROM time_slots WHERE service_id = $1`, id).Scan(&slots); err != nil {
		return fmt.Errorf("catalog: count slots: %w", err)
	}
	if slots > 0 {
		return fmt.Errorf("catalog: service %s still has slots: %w", id, ErrConflict)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM services WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("catalog: service %s is referenced by appointment history: %w", id, ErrConflict)
		}
		return fmt.Errorf("catalog: delete service: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("catalog: service %s: %w", id, ErrNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("catalog: commit service delete: %w", err)
	}
	return nil
}

func scanService(row pgx.Row) (*Service, error) {
	var svc Service
	err := row.Scan(
		&svc.ID,
		&svc.ProviderID,
		&svc.Name,
		&svc.Description,
		&svc.PriceCents,
		&svc.DurationMinutes,
		&svc.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &svc, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
