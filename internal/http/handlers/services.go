package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/slotwise/bookingd/internal/catalog"
	"github.com/slotwise/bookingd/internal/identity"
	"github.com/slotwise/bookingd/internal/scheduling"
	"github.com/slotwise/bookingd/pkg/logging"
)

// CatalogStore is the catalog surface the services handler consumes.
type CatalogStore interface {
	CreateService(ctx context.Context, providerID uuid.UUID, name, description string, priceCents, durationMinutes int) (*catalog.Service, error)
	GetService(ctx context.Context, id uuid.UUID) (*catalog.Service, error)
	ListServicesByProvider(ctx context.Context, providerID uuid.UUID) ([]*catalog.Service, error)
	DeleteService(ctx context.Context, id uuid.UUID) error
}

// CacheInvalidator evicts cached service entries after writes.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, serviceID uuid.UUID)
}

// ServicesHandler serves the provider service catalog endpoints.
type ServicesHandler struct {
	store  CatalogStore
	cache  CacheInvalidator
	logger *logging.Logger
}

// NewServicesHandler creates the services handler. cache may be nil.
func NewServicesHandler(store CatalogStore, cache CacheInvalidator, logger *logging.Logger) *ServicesHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ServicesHandler{store: store, cache: cache, logger: logger}
}

type createServiceRequest struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	PriceCents      int    `json:"price_cents"`
	DurationMinutes int    `json:"duration_minutes"`
}

// Create handles POST /services (provider only).
func (h *ServicesHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req createServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	svc, err := h.store.CreateService(r.Context(), id.UserID, req.Name, req.Description, req.PriceCents, req.DurationMinutes)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	h.logger.Info("service created", "service_id", svc.ID, "provider_id", id.UserID)
	respondJSON(w, http.StatusCreated, svc)
}

type listServicesResponse struct {
	Services []*catalog.Service `json:"services"`
	Count    int                `json:"count"`
}

// ListByProvider handles GET /providers/{id}/services, public.
func (h *ServicesHandler) ListByProvider(w http.ResponseWriter, r *http.Request) {
	providerID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid provider id", http.StatusBadRequest)
		return
	}

	services, err := h.store.ListServicesByProvider(r.Context(), providerID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, listServicesResponse{Services: services, Count: len(services)})
}

// Delete handles DELETE /services/{id} (provider only, own services, never
// while a slot still references the service).
func (h *ServicesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	serviceID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid service id", http.StatusBadRequest)
		return
	}

	svc, err := h.store.GetService(r.Context(), serviceID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if svc.ProviderID != id.UserID {
		respondError(w, h.logger, fmt.Errorf("service %s not owned by caller: %w", serviceID, scheduling.ErrForbidden))
		return
	}

	if err := h.store.DeleteService(r.Context(), serviceID); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if h.cache != nil {
		h.cache.Invalidate(r.Context(), serviceID)
	}
	w.WriteHeader(http.StatusNoContent)
}
