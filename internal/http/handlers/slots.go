package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/slotwise/bookingd/internal/catalog"
	"github.com/slotwise/bookingd/internal/identity"
	"github.com/slotwise/bookingd/internal/scheduling"
	"github.com/slotwise/bookingd/pkg/logging"
)

// SlotWriter is the slot store surface the handler consumes.
type SlotWriter interface {
	SlotReader
	CreateSlot(ctx context.Context, providerID, serviceID uuid.UUID, day, start, end time.Time) (*scheduling.TimeSlot, error)
	ListByProvider(ctx context.Context, providerID uuid.UUID) ([]*scheduling.TimeSlot, error)
	DeleteSlot(ctx context.Context, slotID uuid.UUID) error
}

// SlotsHandler serves slot management endpoints.
type SlotsHandler struct {
	slots   SlotWriter
	catalog catalog.ServiceReader
	logger  *logging.Logger
}

// NewSlotsHandler creates the slots handler.
func NewSlotsHandler(slots SlotWriter, serviceCatalog catalog.ServiceReader, logger *logging.Logger) *SlotsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &SlotsHandler{slots: slots, catalog: serviceCatalog, logger: logger}
}

type createSlotRequest struct {
	ServiceID uuid.UUID `json:"service_id"`
	Day       string    `json:"day"`        // YYYY-MM-DD
	StartTime time.Time `json:"start_time"` // RFC 3339
	EndTime   time.Time `json:"end_time"`   // RFC 3339
}

// Create handles POST /slots (provider only). The slot window must match the
// service duration exactly so denormalized durations never drift.
func (h *SlotsHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req createSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.ServiceID == uuid.Nil {
		http.Error(w, "service_id is required", http.StatusBadRequest)
		return
	}
	day, err := time.Parse("2006-01-02", req.Day)
	if err != nil {
		http.Error(w, "day must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	svc, err := h.catalog.GetService(r.Context(), req.ServiceID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if svc.ProviderID != id.UserID {
		respondError(w, h.logger, fmt.Errorf("service %s not owned by caller: %w", svc.ID, scheduling.ErrForbidden))
		return
	}
	if want := time.Duration(svc.DurationMinutes) * time.Minute; req.EndTime.Sub(req.StartTime) != want {
		respondError(w, h.logger, fmt.Errorf("slot window must equal the %d minute service duration: %w", svc.DurationMinutes, scheduling.ErrValidation))
		return
	}

	slot, err := h.slots.CreateSlot(r.Context(), id.UserID, req.ServiceID, day, req.StartTime, req.EndTime)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	h.logger.Info("slot created", "slot_id", slot.ID, "provider_id", id.UserID)
	respondJSON(w, http.StatusCreated, slot)
}

type listSlotsResponse struct {
	Slots []*scheduling.TimeSlot `json:"slots"`
	Count int                    `json:"count"`
}

// ListByProvider handles GET /slots/{providerID}, public.
func (h *SlotsHandler) ListByProvider(w http.ResponseWriter, r *http.Request) {
	providerID, err := uuid.Parse(chi.URLParam(r, "providerID"))
	if err != nil {
		http.Error(w, "invalid provider id", http.StatusBadRequest)
		return
	}

	slots, err := h.slots.ListByProvider(r.Context(), providerID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, listSlotsResponse{Slots: slots, Count: len(slots)})
}

// Delete handles DELETE /slots/{id} (provider only, own slots, never while
// an active appointment references the slot).
func (h *SlotsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	slotID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid slot id", http.StatusBadRequest)
		return
	}

	slot, err := h.slots.GetSlot(r.Context(), nil, slotID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if slot.ProviderID != id.UserID {
		respondError(w, h.logger, fmt.Errorf("slot %s not owned by caller: %w", slotID, scheduling.ErrForbidden))
		return
	}

	if err := h.slots.DeleteSlot(r.Context(), slotID); err != nil {
		respondError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
