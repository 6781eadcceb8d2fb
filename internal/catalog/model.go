package catalog

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound indicates a missing provider or service.
	ErrNotFound = errors.New("catalog: not found")

	// ErrConflict indicates the service is still referenced by slots.
	ErrConflict = errors.New("catalog: conflict")

	// ErrValidation indicates malformed input.
	ErrValidation = errors.New("catalog: validation failed")
)

// Provider is a bookable business. Created at registration; only profile
// fields change afterwards.
type Provider struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	CreatedAt   time.Time `json:"created_at"`
}

// Service belongs to exactly one provider and fixes the duration every slot
// for it must match.
type Service struct {
	ID              uuid.UUID `json:"id"`
	ProviderID      uuid.UUID `json:"provider_id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	PriceCents      int       `json:"price_cents"`
	DurationMinutes int       `json:"duration_minutes"`
	CreatedAt       time.Time `json:"created_at"`
}
