package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// SlotStore persists provider time slots in Postgres.
type SlotStore struct {
	pool PgxPool
}

// NewSlotStore creates a slot store backed by a pgx pool.
func NewSlotStore(pool PgxPool) *SlotStore {
	if pool == nil {
		panic("scheduling: pgx pool required")
	}
	return &SlotStore{pool: pool}
}

const slotColumns = `id, provider_id, service_id, day, start_time, end_time, is_available, created_at`

// CreateSlot inserts a new available slot. The window must be well-formed
// and no identical (provider, day, start, end) tuple may already exist.
func (s *SlotStore) CreateSlot(ctx context.Context, providerID, serviceID uuid.UUID, day, start, end time.Time) (*TimeSlot, error) {
	if !start.Before(end) {
		return nil, fmt.Errorf("scheduling: slot start %s must precede end %s: %w", start, end, ErrValidation)
	}
	query := `
		INSERT INTO time_slots (id, provider_id, service_id, day, start_time, end_time, is_available)
		VALUES ($1, $2, $3, $4, $5, $6, true)
		RETURNING ` + slotColumns
	row := s.pool.QueryRow(ctx, query, uuid.New(), providerID, serviceID, day, start, end)
	slot, err := scanSlot(row)
	if err != nil {
		return nil, classifyPgError("create slot", err)
	}
	return slot, nil
}

// GetSlot loads a slot by id.
func (s *SlotStore) GetSlot(ctx context.Context, q Querier, id uuid.UUID) (*TimeSlot, error) {
	if q == nil {
		q = s.pool
	}
	query := `SELECT ` + slotColumns + ` FROM time_slots WHERE id = $1`
	slot, err := scanSlot(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("scheduling: slot %s: %w", id, ErrNotFound)
		}
		return nil, classifyPgError("get slot", err)
	}
	return slot, nil
}

// GetSlotForUpdate loads a slot under a row lock, serializing concurrent
// bookings of the same slot. Must be called inside a transaction.
func (s *SlotStore) GetSlotForUpdate(ctx context.Context, q Querier, id uuid.UUID) (*TimeSlot, error) {
	query := `SELECT ` + slotColumns + ` FROM time_slots WHERE id = $1 FOR UPDATE`
	slot, err := scanSlot(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("scheduling: slot %s: %w", id, ErrNotFound)
		}
		return nil, classifyPgError("lock slot", err)
	}
	return slot, nil
}

// ListByProvider returns all slots owned by a provider, ordered by day then
// start time. Each call runs a fresh query.
func (s *SlotStore) ListByProvider(ctx context.Context, providerID uuid.UUID) ([]*TimeSlot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM time_slots
		WHERE provider_id = $1
		ORDER BY day, start_time`
	rows, err := s.pool.Query(ctx, query, providerID)
	if err != nil {
		return nil, classifyPgError("list slots", err)
	}
	defer rows.Close()

	var slots []*TimeSlot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, classifyPgError("scan slot", err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyPgError("list slots", err)
	}
	return slots, nil
}

// Reserve atomically claims the slot for a booking. The conditional update
// only succeeds while is_available is still true; a zero row count means a
// concurrent booking won the race.
func (s *SlotStore) Reserve(ctx context.Context, q Querier, slotID uuid.UUID) error {
	if q == nil {
		q = s.pool
	}
	tag, err := q.Exec(ctx, `UPDATE time_slots SET is_available = false WHERE id = $1 AND is_available = true`, slotID)
	if err != nil {
		return classifyPgError("reserve slot", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("scheduling: slot %s already booked: %w", slotID, ErrConflict)
	}
	return nil
}

// Release makes the slot bookable again after a cancellation.
func (s *SlotStore) Release(ctx context.Context, q Querier, slotID uuid.UUID) error {
	if q == nil {
		q = s.pool
	}
	tag, err := q.Exec(ctx, `UPDATE time_slots SET is_available = true WHERE id = $1`, slotID)
	if err != nil {
		return classifyPgError("release slot", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("scheduling: slot %s: %w", slotID, ErrNotFound)
	}
	return nil
}

// DeleteSlot removes a slot, refusing while any appointment still
// references it. The guard and the delete run in one transaction so a
// booking racing the delete cannot slip between them, and a foreign
// key violation raised by the delete itself (cancelled appointments
// keep their slot reference) surfaces as a conflict, not a missing
// slot.
func (s *SlotStore) DeleteSlot(ctx context.Context, slotID uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return classifyPgError("begin slot delete", err)
	}
	defer tx.Rollback(ctx)

	var active int
	err = tx.QueryRow(ctx,
		`SELECT count(*) FROM appointments WHERE slot_id = $1 AND status <> 'cancelled'`, slotID,
	).Scan(&active)
	if err != nil {
		return classifyPgError("count active appointments", err)
	}
	if active > 0 {
		return fmt.Errorf("scheduling: slot %s has an active appointment: %w", slotID, ErrConflict)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM time_slots WHERE id = $1`, slotID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgCodeForeignKeyViolation {
			return fmt.Errorf("scheduling: slot %s is referenced by appointment history: %w", slotID, ErrConflict)
		}
		return classifyPgError("delete slot", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("scheduling: slot %s: %w", slotID, ErrNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return classifyPgError("commit slot delete", err)
	}
	return nil
}

func scanSlot(row pgx.Row) (*TimeSlot, error) {
	var slot TimeSlot
	err := row.Scan(
		&slot.ID,
		&slot.ProviderID,
		&slot.ServiceID,
		&slot.Day,
		&slot.StartTime,
		&slot.EndTime,
		&slot.IsAvailable,
		&slot.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &slot, nil
}
