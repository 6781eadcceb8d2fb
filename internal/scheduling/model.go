package scheduling

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentStatus is the lifecycle state of an appointment.
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCancelled AppointmentStatus = "cancelled"
)

// TimeSlot is the unit of bookable capacity: one provider-defined window
// tied to a single service. IsAvailable is true iff no non-cancelled
// appointment references the slot; it is mutated only by the engine.
type TimeSlot struct {
	ID          uuid.UUID `json:"id"`
	ProviderID  uuid.UUID `json:"provider_id"`
	ServiceID   uuid.UUID `json:"service_id"`
	Day         time.Time `json:"day"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	IsAvailable bool      `json:"is_available"`
	CreatedAt   time.Time `json:"created_at"`
}

// Appointment links a client to a booked slot. Rows are never hard-deleted;
// cancellation flips Status to cancelled so the history survives.
type Appointment struct {
	ID         uuid.UUID         `json:"id"`
	ClientID   uuid.UUID         `json:"client_id"`
	SlotID     uuid.UUID         `json:"slot_id"`
	ServiceID  uuid.UUID         `json:"service_id"`
	ProviderID uuid.UUID         `json:"provider_id"`
	Status     AppointmentStatus `json:"status"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// Role distinguishes the two sides of an appointment when scoping queries.
type Role string

const (
	RoleClient   Role = "client"
	RoleProvider Role = "provider"
)
