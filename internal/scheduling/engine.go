package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/slotwise/bookingd/internal/observability/metrics"
	"github.com/slotwise/bookingd/pkg/logging"
)

var tracer = otel.Tracer("bookingd/scheduling")

// Event types published after successful state transitions.
const (
	EventBooked    = "appointment.booked"
	EventCancelled = "appointment.cancelled"
)

// Event is broadcast to connected listeners after a commit. Delivery is
// best-effort, at-most-once.
type Event struct {
	Type        string       `json:"type"`
	Appointment *Appointment `json:"appointment"`
}

// Publisher fans events out to connected listeners. Implementations must not
// block the caller.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Engine is the transactional core of the booking lifecycle. All slot and
// appointment writes flow through it; request handlers never touch the
// tables directly.
type Engine struct {
	pool      PgxPool
	slots     *SlotStore
	appts     *AppointmentStore
	publisher Publisher
	metrics   *metrics.BookingMetrics
	logger    *logging.Logger
	timeout   time.Duration
}

// EngineConfig bundles the engine's collaborators. Publisher and Metrics are
// optional; Timeout falls back to 5s.
type EngineConfig struct {
	Pool      PgxPool
	Slots     *SlotStore
	Appts     *AppointmentStore
	Publisher Publisher
	Metrics   *metrics.BookingMetrics
	Logger    *logging.Logger
	Timeout   time.Duration
}

// NewEngine creates the booking engine.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.Pool == nil {
		panic("scheduling: pgx pool required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Engine{
		pool:      cfg.Pool,
		slots:     cfg.Slots,
		appts:     cfg.Appts,
		publisher: cfg.Publisher,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
		timeout:   cfg.Timeout,
	}
}

// Book creates an appointment for the slot if and only if the slot is still
// available. The row lock plus the conditional availability flip run in one
// transaction, so at most one concurrent Book can succeed per slot; every
// loser gets ErrConflict.
func (e *Engine) Book(ctx context.Context, clientID, providerID, serviceID, slotID uuid.UUID) (*Appointment, error) {
	ctx, span := tracer.Start(ctx, "scheduling.book")
	defer span.End()
	span.SetAttributes(
		attribute.String("slot_id", slotID.String()),
		attribute.String("provider_id", providerID.String()),
	)

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	appt, err := e.bookTx(ctx, clientID, providerID, serviceID, slotID)
	e.metrics.ObserveBooking(outcome(err), time.Since(start).Seconds())
	if err != nil {
		failSpan(span, err)
		return nil, err
	}

	e.logger.Info("slot booked",
		"appointment_id", appt.ID,
		"slot_id", slotID,
		"client_id", clientID,
	)
	e.publish(ctx, Event{Type: EventBooked, Appointment: appt})
	return appt, nil
}

func (e *Engine) bookTx(ctx context.Context, clientID, providerID, serviceID, slotID uuid.UUID) (*Appointment, error) {
	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return nil, classifyPgError("begin booking", err)
	}
	defer tx.Rollback(ctx)

	slot, err := e.slots.GetSlotForUpdate(ctx, tx, slotID)
	if err != nil {
		return nil, err
	}
	if slot.ProviderID != providerID {
		return nil, fmt.Errorf("scheduling: slot %s not owned by provider %s: %w", slotID, providerID, ErrForbidden)
	}
	if slot.ServiceID != serviceID {
		return nil, fmt.Errorf("scheduling: slot %s belongs to a different service: %w", slotID, ErrValidation)
	}

	if err := e.slots.Reserve(ctx, tx, slotID); err != nil {
		return nil, err
	}

	appt, err := e.appts.Create(ctx, tx, clientID, slotID, serviceID, providerID, StatusConfirmed)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, classifyPgError("commit booking", err)
	}
	return appt, nil
}

// Cancel marks the appointment cancelled and releases its slot in one
// transaction. The requester must be the client or the owning provider.
// A second cancel of the same appointment reports ErrNotFound and never
// releases the slot again.
func (e *Engine) Cancel(ctx context.Context, appointmentID, requesterID uuid.UUID) (*Appointment, error) {
	ctx, span := tracer.Start(ctx, "scheduling.cancel")
	defer span.End()
	span.SetAttributes(attribute.String("appointment_id", appointmentID.String()))

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	appt, err := e.cancelTx(ctx, appointmentID, requesterID)
	e.metrics.ObserveCancellation(outcome(err))
	if err != nil {
		failSpan(span, err)
		return nil, err
	}

	e.logger.Info("appointment cancelled",
		"appointment_id", appt.ID,
		"slot_id", appt.SlotID,
		"requester_id", requesterID,
	)
	e.publish(ctx, Event{Type: EventCancelled, Appointment: appt})
	return appt, nil
}

func (e *Engine) cancelTx(ctx context.Context, appointmentID, requesterID uuid.UUID) (*Appointment, error) {
	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return nil, classifyPgError("begin cancel", err)
	}
	defer tx.Rollback(ctx)

	appt, err := e.appts.GetForUpdate(ctx, tx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appt.ClientID != requesterID && appt.ProviderID != requesterID {
		return nil, fmt.Errorf("scheduling: appointment %s not owned by requester %s: %w", appointmentID, requesterID, ErrForbidden)
	}

	cancelled, err := e.appts.Cancel(ctx, tx, appointmentID)
	if err != nil {
		return nil, err
	}
	if err := e.slots.Release(ctx, tx, cancelled.SlotID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, classifyPgError("commit cancel", err)
	}
	return cancelled, nil
}

// Reschedule cancels the old appointment and books the new slot for the same
// client and provider inside a single transaction. If the new slot was taken
// concurrently the whole operation rolls back and the original appointment
// survives untouched.
func (e *Engine) Reschedule(ctx context.Context, appointmentID, newSlotID, requesterID uuid.UUID) (*Appointment, error) {
	ctx, span := tracer.Start(ctx, "scheduling.reschedule")
	defer span.End()
	span.SetAttributes(
		attribute.String("appointment_id", appointmentID.String()),
		attribute.String("new_slot_id", newSlotID.String()),
	)

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	old, replacement, err := e.rescheduleTx(ctx, appointmentID, newSlotID, requesterID)
	e.metrics.ObserveBooking(outcome(err), time.Since(start).Seconds())
	if err != nil {
		failSpan(span, err)
		return nil, err
	}

	e.logger.Info("appointment rescheduled",
		"old_appointment_id", old.ID,
		"new_appointment_id", replacement.ID,
		"new_slot_id", newSlotID,
	)
	e.publish(ctx, Event{Type: EventCancelled, Appointment: old})
	e.publish(ctx, Event{Type: EventBooked, Appointment: replacement})
	return replacement, nil
}

func (e *Engine) rescheduleTx(ctx context.Context, appointmentID, newSlotID, requesterID uuid.UUID) (*Appointment, *Appointment, error) {
	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return nil, nil, classifyPgError("begin reschedule", err)
	}
	defer tx.Rollback(ctx)

	appt, err := e.appts.GetForUpdate(ctx, tx, appointmentID)
	if err != nil {
		return nil, nil, err
	}
	if appt.ClientID != requesterID && appt.ProviderID != requesterID {
		return nil, nil, fmt.Errorf("scheduling: appointment %s not owned by requester %s: %w", appointmentID, requesterID, ErrForbidden)
	}

	newSlot, err := e.slots.GetSlotForUpdate(ctx, tx, newSlotID)
	if err != nil {
		return nil, nil, err
	}
	if newSlot.ProviderID != appt.ProviderID {
		return nil, nil, fmt.Errorf("scheduling: slot %s belongs to a different provider: %w", newSlotID, ErrForbidden)
	}
	if newSlot.ServiceID != appt.ServiceID {
		return nil, nil, fmt.Errorf("scheduling: slot %s belongs to a different service: %w", newSlotID, ErrValidation)
	}

	old, err := e.appts.Cancel(ctx, tx, appointmentID)
	if err != nil {
		return nil, nil, err
	}
	if err := e.slots.Release(ctx, tx, old.SlotID); err != nil {
		return nil, nil, err
	}

	if err := e.slots.Reserve(ctx, tx, newSlotID); err != nil {
		return nil, nil, err
	}
	replacement, err := e.appts.Create(ctx, tx, old.ClientID, newSlotID, newSlot.ServiceID, old.ProviderID, StatusConfirmed)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, classifyPgError("commit reschedule", err)
	}
	return old, replacement, nil
}

// ListForUser returns the caller's appointments, newest first.
func (e *Engine) ListForUser(ctx context.Context, userID uuid.UUID, role Role) ([]*Appointment, error) {
	return e.appts.ListByUser(ctx, userID, role)
}

func (e *Engine) publish(ctx context.Context, event Event) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.Publish(ctx, event); err != nil {
		e.logger.Warn("event publish failed", "type", event.Type, "error", err)
	}
}

func failSpan(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	return "error"
}
