package catalog

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCacheFixture(t *testing.T) (pgxmock.PgxPoolIface, *miniredis.Miniredis, *CachedCatalog) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cached := NewCachedCatalog(NewRepository(mock), client, time.Minute, nil)
	return mock, mr, cached
}

func TestCachedGetServiceLoadsAndCaches(t *testing.T) {
	mock, mr, cached := newCacheFixture(t)
	svc := &Service{ID: uuid.New(), ProviderID: uuid.New(), Name: "Massage", PriceCents: 9500, DurationMinutes: 60, CreatedAt: time.Now().UTC()}

	mock.ExpectQuery(`(?s)SELECT .+ FROM services WHERE id = \$1`).
		WithArgs(svc.ID).
		WillReturnRows(serviceRow(svc))

	got, err := cached.GetService(context.Background(), svc.ID)
	require.NoError(t, err)
	assert.Equal(t, svc.ID, got.ID)

	// Second read must come from redis: no further query expectations.
	got, err = cached.GetService(context.Background(), svc.ID)
	require.NoError(t, err)
	assert.Equal(t, svc.Name, got.Name)
	assert.Equal(t, svc.DurationMinutes, got.DurationMinutes)

	require.NoError(t, mock.ExpectationsWereMet())
	assert.True(t, mr.Exists("catalog:service:"+svc.ID.String()))
}

func TestCachedGetServiceSurvivesCorruptEntry(t *testing.T) {
	mock, mr, cached := newCacheFixture(t)
	svc := &Service{ID: uuid.New(), ProviderID: uuid.New(), Name: "Facial", PriceCents: 8000, DurationMinutes: 45, CreatedAt: time.Now().UTC()}

	require.NoError(t, mr.Set("catalog:service:"+svc.ID.String(), "{not json"))

	mock.ExpectQuery(`(?s)SELECT .+ FROM services WHERE id = \$1`).
		WithArgs(svc.ID).
		WillReturnRows(serviceRow(svc))

	got, err := cached.GetService(context.Background(), svc.ID)
	require.NoError(t, err)
	assert.Equal(t, svc.ID, got.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedGetServicePropagatesNotFound(t *testing.T) {
	mock, _, cached := newCacheFixture(t)
	id := uuid.New()

	mock.ExpectQuery(`(?s)SELECT .+ FROM services WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"id", "provider_id", "name", "description", "price_cents", "duration_minutes", "created_at"}))

	_, err := cached.GetService(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInvalidateDropsEntry(t *testing.T) {
	_, mr, cached := newCacheFixture(t)
	id := uuid.New()

	data, err := json.Marshal(&Service{ID: id, Name: "Massage"})
	require.NoError(t, err)
	require.NoError(t, mr.Set("catalog:service:"+id.String(), string(data)))

	cached.Invalidate(context.Background(), id)
	assert.False(t, mr.Exists("catalog:service:"+id.String()))
}

func TestNilRedisReadsStraightThrough(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	cached := NewCachedCatalog(NewRepository(mock), nil, time.Minute, nil)
	svc := &Service{ID: uuid.New(), ProviderID: uuid.New(), Name: "Massage", PriceCents: 9500, DurationMinutes: 60, CreatedAt: time.Now().UTC()}

	mock.ExpectQuery(`(?s)SELECT .+ FROM services WHERE id = \$1`).
		WithArgs(svc.ID).
		WillReturnRows(serviceRow(svc))

	got, err := cached.GetService(context.Background(), svc.ID)
	require.NoError(t, err)
	assert.Equal(t, svc.ID, got.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
