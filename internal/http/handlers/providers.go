package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/slotwise/bookingd/internal/catalog"
	"github.com/slotwise/bookingd/pkg/logging"
)

// ProviderStore is the provider surface the handler consumes.
type ProviderStore interface {
	CreateProvider(ctx context.Context, displayName, email string) (*catalog.Provider, error)
	GetProvider(ctx context.Context, id uuid.UUID) (*catalog.Provider, error)
}

// ProvidersHandler serves provider registration and lookup.
type ProvidersHandler struct {
	store  ProviderStore
	logger *logging.Logger
}

func NewProvidersHandler(store ProviderStore, logger *logging.Logger) *ProvidersHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ProvidersHandler{store: store, logger: logger}
}

type createProviderRequest struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

// Create handles POST /providers.
func (h *ProvidersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createProviderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	provider, err := h.store.CreateProvider(r.Context(), req.DisplayName, req.Email)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	h.logger.Info("provider registered", "provider_id", provider.ID)
	respondJSON(w, http.StatusCreated, provider)
}

// Get handles GET /providers/{id}.
func (h *ProvidersHandler) Get(w http.ResponseWriter, r *http.Request) {
	providerID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid provider id", http.StatusBadRequest)
		return
	}

	provider, err := h.store.GetProvider(r.Context(), providerID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, provider)
}
