package scheduling

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AppointmentStore persists appointments in Postgres.
type AppointmentStore struct {
	pool PgxPool
}

// NewAppointmentStore creates an appointment store backed by a pgx pool.
func NewAppointmentStore(pool PgxPool) *AppointmentStore {
	if pool == nil {
		panic("scheduling: pgx pool required")
	}
	return &AppointmentStore{pool: pool}
}

const appointmentColumns = `id, client_id, slot_id, service_id, provider_id, status, created_at, updated_at`

// Create inserts an appointment row. A missing slot surfaces as ErrNotFound
// via the foreign key, so no appointment can ever reference a slot that does
// not exist.
func (s *AppointmentStore) Create(ctx context.Context, q Querier, clientID, slotID, serviceID, providerID uuid.UUID, status AppointmentStatus) (*Appointment, error) {
	if q == nil {
		q = s.pool
	}
	query := `
		INSERT INTO appointments (id, client_id, slot_id, service_id, provider_id, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + appointmentColumns
	appt, err := scanAppointment(q.QueryRow(ctx, query, uuid.New(), clientID, slotID, serviceID, providerID, status))
	if err != nil {
		return nil, classifyPgError("create appointment", err)
	}
	return appt, nil
}

// GetByID loads an appointment by id.
func (s *AppointmentStore) GetByID(ctx context.Context, q Querier, id uuid.UUID) (*Appointment, error) {
	if q == nil {
		q = s.pool
	}
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`
	appt, err := scanAppointment(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("scheduling: appointment %s: %w", id, ErrNotFound)
		}
		return nil, classifyPgError("get appointment", err)
	}
	return appt, nil
}

// GetForUpdate loads an appointment under a row lock. Must run inside a
// transaction.
func (s *AppointmentStore) GetForUpdate(ctx context.Context, q Querier, id uuid.UUID) (*Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1 FOR UPDATE`
	appt, err := scanAppointment(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("scheduling: appointment %s: %w", id, ErrNotFound)
		}
		return nil, classifyPgError("lock appointment", err)
	}
	return appt, nil
}

// Cancel soft-deletes the appointment. Cancelling an already-cancelled row
// reports ErrNotFound so a double cancel can never release the slot twice.
func (s *AppointmentStore) Cancel(ctx context.Context, q Querier, id uuid.UUID) (*Appointment, error) {
	if q == nil {
		q = s.pool
	}
	query := `
		UPDATE appointments
		SET status = 'cancelled', updated_at = now()
		WHERE id = $1 AND status <> 'cancelled'
		RETURNING ` + appointmentColumns
	appt, err := scanAppointment(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("scheduling: appointment %s not active: %w", id, ErrNotFound)
		}
		return nil, classifyPgError("cancel appointment", err)
	}
	return appt, nil
}

// ListByUser returns appointments where the user is the client or the owning
// provider depending on role, newest first.
func (s *AppointmentStore) ListByUser(ctx context.Context, userID uuid.UUID, role Role) ([]*Appointment, error) {
	column := "client_id"
	if role == RoleProvider {
		column = "provider_id"
	}
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE ` + column + ` = $1
		ORDER BY created_at DESC`
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, classifyPgError("list appointments", err)
	}
	defer rows.Close()

	var appts []*Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, classifyPgError("scan appointment", err)
		}
		appts = append(appts, appt)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyPgError("list appointments", err)
	}
	return appts, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var appt Appointment
	err := row.Scan(
		&appt.ID,
		&appt.ClientID,
		&appt.SlotID,
		&appt.ServiceID,
		&appt.ProviderID,
		&appt.Status,
		&appt.CreatedAt,
		&appt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &appt, nil
}
