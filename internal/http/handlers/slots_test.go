package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slotwise/bookingd/internal/catalog"
	"github.com/slotwise/bookingd/internal/identity"
	"github.com/slotwise/bookingd/internal/scheduling"
)

type fakeSlotStore struct {
	fakeSlotReader
	createFn func(ctx context.Context, providerID, serviceID uuid.UUID, day, start, end time.Time) (*scheduling.TimeSlot, error)
	listFn   func(ctx context.Context, providerID uuid.UUID) ([]*scheduling.TimeSlot, error)
	deleteFn func(ctx context.Context, slotID uuid.UUID) error
}

func (f *fakeSlotStore) CreateSlot(ctx context.Context, providerID, serviceID uuid.UUID, day, start, end time.Time) (*scheduling.TimeSlot, error) {
	return f.createFn(ctx, providerID, serviceID, day, start, end)
}

func (f *fakeSlotStore) ListByProvider(ctx context.Context, providerID uuid.UUID) ([]*scheduling.TimeSlot, error) {
	return f.listFn(ctx, providerID)
}

func (f *fakeSlotStore) DeleteSlot(ctx context.Context, slotID uuid.UUID) error {
	return f.deleteFn(ctx, slotID)
}

type fakeServiceCatalog struct {
	svc *catalog.Service
	err error
}

func (f *fakeServiceCatalog) GetService(_ context.Context, _ uuid.UUID) (*catalog.Service, error) {
	return f.svc, f.err
}

func testSlot(providerID, serviceID uuid.UUID) *scheduling.TimeSlot {
	day := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	return &scheduling.TimeSlot{
		ID:          uuid.New(),
		ProviderID:  providerID,
		ServiceID:   serviceID,
		Day:         day,
		StartTime:   day.Add(9 * time.Hour),
		EndTime:     day.Add(9*time.Hour + 30*time.Minute),
		IsAvailable: true,
		CreatedAt:   time.Now(),
	}
}

func TestCreateSlotReturns201(t *testing.T) {
	providerID := uuid.New()
	serviceID := uuid.New()
	slot := testSlot(providerID, serviceID)

	store := &fakeSlotStore{
		createFn: func(_ context.Context, gotProvider, gotService uuid.UUID, _, start, end time.Time) (*scheduling.TimeSlot, error) {
			assert.Equal(t, providerID, gotProvider)
			assert.Equal(t, serviceID, gotService)
			assert.Equal(t, 30*time.Minute, end.Sub(start))
			return slot, nil
		},
	}
	cat := &fakeServiceCatalog{svc: &catalog.Service{ID: serviceID, ProviderID: providerID, DurationMinutes: 30}}
	h := NewSlotsHandler(store, cat, nil)

	body, _ := json.Marshal(map[string]any{
		"service_id": serviceID.String(),
		"day":        "2026-09-14",
		"start_time": slot.StartTime.Format(time.RFC3339),
		"end_time":   slot.EndTime.Format(time.RFC3339),
	})
	req := authedRequest(http.MethodPost, "/slots", body, identity.Identity{UserID: providerID, Role: identity.RoleProvider})
	rr := httptest.NewRecorder()
	h.Create(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	var got scheduling.TimeSlot
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	assert.Equal(t, slot.ID, got.ID)
	assert.True(t, got.IsAvailable)
}

func TestCreateSlotRejectsDurationMismatch(t *testing.T) {
	providerID := uuid.New()
	serviceID := uuid.New()
	slot := testSlot(providerID, serviceID)

	cat := &fakeServiceCatalog{svc: &catalog.Service{ID: serviceID, ProviderID: providerID, DurationMinutes: 45}}
	h := NewSlotsHandler(&fakeSlotStore{}, cat, nil)

	body, _ := json.Marshal(map[string]any{
		"service_id": serviceID.String(),
		"day":        "2026-09-14",
		"start_time": slot.StartTime.Format(time.RFC3339),
		"end_time":   slot.EndTime.Format(time.RFC3339), // 30m window, 45m service
	})
	req := authedRequest(http.MethodPost, "/slots", body, identity.Identity{UserID: providerID, Role: identity.RoleProvider})
	rr := httptest.NewRecorder()
	h.Create(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreateSlotForbiddenForForeignService(t *testing.T) {
	providerID := uuid.New()
	serviceID := uuid.New()
	slot := testSlot(providerID, serviceID)

	cat := &fakeServiceCatalog{svc: &catalog.Service{ID: serviceID, ProviderID: uuid.New(), DurationMinutes: 30}}
	h := NewSlotsHandler(&fakeSlotStore{}, cat, nil)

	body, _ := json.Marshal(map[string]any{
		"service_id": serviceID.String(),
		"day":        "2026-09-14",
		"start_time": slot.StartTime.Format(time.RFC3339),
		"end_time":   slot.EndTime.Format(time.RFC3339),
	})
	req := authedRequest(http.MethodPost, "/slots", body, identity.Identity{UserID: providerID, Role: identity.RoleProvider})
	rr := httptest.NewRecorder()
	h.Create(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestCreateSlotRejectsBadDay(t *testing.T) {
	h := NewSlotsHandler(&fakeSlotStore{}, &fakeServiceCatalog{}, nil)

	body, _ := json.Marshal(map[string]any{
		"service_id": uuid.NewString(),
		"day":        "14/09/2026",
	})
	req := authedRequest(http.MethodPost, "/slots", body, identity.Identity{UserID: uuid.New(), Role: identity.RoleProvider})
	rr := httptest.NewRecorder()
	h.Create(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestListSlotsByProvider(t *testing.T) {
	providerID := uuid.New()
	store := &fakeSlotStore{
		listFn: func(_ context.Context, gotProvider uuid.UUID) ([]*scheduling.TimeSlot, error) {
			assert.Equal(t, providerID, gotProvider)
			return []*scheduling.TimeSlot{testSlot(providerID, uuid.New()), testSlot(providerID, uuid.New())}, nil
		},
	}
	h := NewSlotsHandler(store, &fakeServiceCatalog{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/slots/"+providerID.String(), nil)
	req = withURLParam(req, "providerID", providerID.String())
	rr := httptest.NewRecorder()
	h.ListByProvider(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp listSlotsResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, 2, resp.Count)
}

func TestListSlotsRejectsBadProviderID(t *testing.T) {
	h := NewSlotsHandler(&fakeSlotStore{}, &fakeServiceCatalog{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/slots/not-a-uuid", nil)
	req = withURLParam(req, "providerID", "not-a-uuid")
	rr := httptest.NewRecorder()
	h.ListByProvider(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDeleteSlotForbiddenForStranger(t *testing.T) {
	slot := testSlot(uuid.New(), uuid.New())
	store := &fakeSlotStore{fakeSlotReader: fakeSlotReader{slot: slot}}
	h := NewSlotsHandler(store, &fakeServiceCatalog{}, nil)

	req := authedRequest(http.MethodDelete, "/slots/"+slot.ID.String(), nil, identity.Identity{UserID: uuid.New(), Role: identity.RoleProvider})
	req = withURLParam(req, "id", slot.ID.String())
	rr := httptest.NewRecorder()
	h.Delete(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestDeleteSlotWithActiveBookingIs409(t *testing.T) {
	providerID := uuid.New()
	slot := testSlot(providerID, uuid.New())
	store := &fakeSlotStore{
		fakeSlotReader: fakeSlotReader{slot: slot},
		deleteFn: func(_ context.Context, _ uuid.UUID) error {
			return fmt.Errorf("scheduling: slot has active appointments: %w", scheduling.ErrConflict)
		},
	}
	h := NewSlotsHandler(store, &fakeServiceCatalog{}, nil)

	req := authedRequest(http.MethodDelete, "/slots/"+slot.ID.String(), nil, identity.Identity{UserID: providerID, Role: identity.RoleProvider})
	req = withURLParam(req, "id", slot.ID.String())
	rr := httptest.NewRecorder()
	h.Delete(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestDeleteSlotSucceeds(t *testing.T) {
	providerID := uuid.New()
	slot := testSlot(providerID, uuid.New())
	deleted := false
	store := &fakeSlotStore{
		fakeSlotReader: fakeSlotReader{slot: slot},
		deleteFn: func(_ context.Context, gotID uuid.UUID) error {
			assert.Equal(t, slot.ID, gotID)
			deleted = true
			return nil
		},
	}
	h := NewSlotsHandler(store, &fakeServiceCatalog{}, nil)

	req := authedRequest(http.MethodDelete, "/slots/"+slot.ID.String(), nil, identity.Identity{UserID: providerID, Role: identity.RoleProvider})
	req = withURLParam(req, "id", slot.ID.String())
	rr := httptest.NewRecorder()
	h.Delete(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.True(t, deleted)
}
