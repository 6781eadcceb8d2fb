package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/slotwise/bookingd/internal/identity"
	"github.com/slotwise/bookingd/internal/notify"
	"github.com/slotwise/bookingd/internal/scheduling"
	"github.com/slotwise/bookingd/pkg/logging"
)

// BookingEngine is the engine surface the appointment handler consumes.
type BookingEngine interface {
	Book(ctx context.Context, clientID, providerID, serviceID, slotID uuid.UUID) (*scheduling.Appointment, error)
	Cancel(ctx context.Context, appointmentID, requesterID uuid.UUID) (*scheduling.Appointment, error)
	Reschedule(ctx context.Context, appointmentID, newSlotID, requesterID uuid.UUID) (*scheduling.Appointment, error)
	ListForUser(ctx context.Context, userID uuid.UUID, role scheduling.Role) ([]*scheduling.Appointment, error)
}

// SlotReader loads slots for confirmation emails.
type SlotReader interface {
	GetSlot(ctx context.Context, q scheduling.Querier, id uuid.UUID) (*scheduling.TimeSlot, error)
}

// AppointmentsHandler serves the booking lifecycle endpoints.
type AppointmentsHandler struct {
	engine BookingEngine
	slots  SlotReader
	notify *notify.Service
	logger *logging.Logger
}

// NewAppointmentsHandler creates the appointments handler. The notify
// service is optional.
func NewAppointmentsHandler(engine BookingEngine, slots SlotReader, notifySvc *notify.Service, logger *logging.Logger) *AppointmentsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AppointmentsHandler{engine: engine, slots: slots, notify: notifySvc, logger: logger}
}

type createAppointmentRequest struct {
	ProviderID uuid.UUID `json:"provider_id"`
	ServiceID  uuid.UUID `json:"service_id"`
	SlotID     uuid.UUID `json:"slot_id"`
}

// Create handles POST /appointments.
func (h *AppointmentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req createAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.ProviderID == uuid.Nil || req.ServiceID == uuid.Nil || req.SlotID == uuid.Nil {
		http.Error(w, "provider_id, service_id and slot_id are required", http.StatusBadRequest)
		return
	}

	appt, err := h.engine.Book(r.Context(), id.UserID, req.ProviderID, req.ServiceID, req.SlotID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	if h.notify != nil && id.Email != "" {
		if slot, err := h.slots.GetSlot(r.Context(), nil, appt.SlotID); err == nil {
			h.notify.AppointmentBooked(r.Context(), id.Email, appt, slot)
		}
	}

	respondJSON(w, http.StatusCreated, appt)
}

// Cancel handles DELETE /appointments/{id}.
func (h *AppointmentsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	apptID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid appointment id", http.StatusBadRequest)
		return
	}

	appt, err := h.engine.Cancel(r.Context(), apptID, id.UserID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	if h.notify != nil && id.Email != "" {
		h.notify.AppointmentCancelled(r.Context(), id.Email, appt)
	}
	respondJSON(w, http.StatusOK, appt)
}

type rescheduleRequest struct {
	NewSlotID uuid.UUID `json:"new_slot_id"`
}

// Reschedule handles POST /appointments/{id}/reschedule.
func (h *AppointmentsHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	apptID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid appointment id", http.StatusBadRequest)
		return
	}

	var req rescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.NewSlotID == uuid.Nil {
		http.Error(w, "new_slot_id is required", http.StatusBadRequest)
		return
	}

	appt, err := h.engine.Reschedule(r.Context(), apptID, req.NewSlotID, id.UserID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	if h.notify != nil && id.Email != "" {
		if slot, err := h.slots.GetSlot(r.Context(), nil, appt.SlotID); err == nil {
			h.notify.AppointmentBooked(r.Context(), id.Email, appt, slot)
		}
	}

	respondJSON(w, http.StatusOK, appt)
}

type listAppointmentsResponse struct {
	Appointments []*scheduling.Appointment `json:"appointments"`
	Count        int                       `json:"count"`
}

// List handles GET /appointments, scoped to the caller.
func (h *AppointmentsHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	role := scheduling.RoleClient
	if id.Role == identity.RoleProvider {
		role = scheduling.RoleProvider
	}
	appts, err := h.engine.ListForUser(r.Context(), id.UserID, role)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, listAppointmentsResponse{Appointments: appts, Count: len(appts)})
}
