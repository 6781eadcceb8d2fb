package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAppointmentStore(t *testing.T) (*AppointmentStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewAppointmentStore(mock), mock
}

func TestCreateAppointmentMissingSlot(t *testing.T) {
	store, mock := newAppointmentStore(t)
	clientID, slotID, serviceID, providerID := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	// The slot FK rejects inserts against a nonexistent slot, so no
	// appointment row can ever be orphaned.
	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs(pgxmock.AnyArg(), clientID, slotID, serviceID, providerID, StatusConfirmed).
		WillReturnError(&pgconn.PgError{Code: pgCodeForeignKeyViolation})

	_, err := store.Create(context.Background(), nil, clientID, slotID, serviceID, providerID, StatusConfirmed)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByUserScopesByRole(t *testing.T) {
	store, mock := newAppointmentStore(t)
	userID := uuid.New()
	now := time.Now()

	clientRows := pgxmock.NewRows([]string{
		"id", "client_id", "slot_id", "service_id", "provider_id", "status", "created_at", "updated_at",
	}).AddRow(uuid.New(), userID, uuid.New(), uuid.New(), uuid.New(), StatusConfirmed, now, now)

	mock.ExpectQuery("(?s)SELECT .+ FROM appointments.+WHERE client_id = .+ ORDER BY created_at DESC").
		WithArgs(userID).
		WillReturnRows(clientRows)

	appts, err := store.ListByUser(context.Background(), userID, RoleClient)
	require.NoError(t, err)
	require.Len(t, appts, 1)
	assert.Equal(t, userID, appts[0].ClientID)

	providerRows := pgxmock.NewRows([]string{
		"id", "client_id", "slot_id", "service_id", "provider_id", "status", "created_at", "updated_at",
	}).
		AddRow(uuid.New(), uuid.New(), uuid.New(), uuid.New(), userID, StatusConfirmed, now, now).
		AddRow(uuid.New(), uuid.New(), uuid.New(), uuid.New(), userID, StatusCancelled, now.Add(-time.Hour), now)

	mock.ExpectQuery("(?s)SELECT .+ FROM appointments.+WHERE provider_id = .+ ORDER BY created_at DESC").
		WithArgs(userID).
		WillReturnRows(providerRows)

	appts, err = store.ListByUser(context.Background(), userID, RoleProvider)
	require.NoError(t, err)
	require.Len(t, appts, 2)
	assert.Equal(t, userID, appts[0].ProviderID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDNotFound(t *testing.T) {
	store, mock := newAppointmentStore(t)
	id := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM appointments WHERE id = ").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "client_id", "slot_id", "service_id", "provider_id", "status", "created_at", "updated_at",
		}))

	_, err := store.GetByID(context.Background(), nil, id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
