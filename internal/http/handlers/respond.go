package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/slotwise/bookingd/internal/catalog"
	"github.com/slotwise/bookingd/internal/scheduling"
	"github.com/slotwise/bookingd/pkg/logging"
)

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respondError maps the domain error taxonomy onto HTTP status codes:
// validation 400, not-found 404, forbidden 403, conflict 409, transient 503.
func respondError(w http.ResponseWriter, logger *logging.Logger, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, scheduling.ErrValidation), errors.Is(err, catalog.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, scheduling.ErrNotFound), errors.Is(err, catalog.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, scheduling.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, scheduling.ErrConflict), errors.Is(err, catalog.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, scheduling.ErrTransient):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError && logger != nil {
		logger.Error("unhandled error", "error", err)
	}
	respondJSON(w, status, errorResponse{Error: err.Error()})
}
