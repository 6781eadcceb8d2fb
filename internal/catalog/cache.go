package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/slotwise/bookingd/pkg/logging"
)

// ServiceReader is the lookup surface consumed by the rest of the system:
// (serviceID) -> provider, duration, price.
type ServiceReader interface {
	GetService(ctx context.Context, id uuid.UUID) (*Service, error)
}

// CachedCatalog fronts the repository with a redis read-through cache for
// service lookups. Service rows change rarely and are read on every booking,
// so a short TTL is enough; cache failures fall back to Postgres.
type CachedCatalog struct {
	repo   *Repository
	redis  *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewCachedCatalog creates the cache layer. A nil redis client disables
// caching and every read goes straight to the repository.
func NewCachedCatalog(repo *Repository, redisClient *redis.Client, ttl time.Duration, logger *logging.Logger) *CachedCatalog {
	if logger == nil {
		logger = logging.Default()
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CachedCatalog{repo: repo, redis: redisClient, ttl: ttl, logger: logger}
}

func (c *CachedCatalog) key(id uuid.UUID) string {
	return fmt.Sprintf("catalog:service:%s", id)
}

// GetService returns the service from cache when present, loading and
// caching it otherwise.
func (c *CachedCatalog) GetService(ctx context.Context, id uuid.UUID) (*Service, error) {
	if c.redis != nil {
		data, err := c.redis.Get(ctx, c.key(id)).Bytes()
		if err == nil {
			var svc Service
			if err := json.Unmarshal(data, &svc); err == nil {
				return &svc, nil
			}
			// Corrupt entry; fall through to the repository.
		} else if err != redis.Nil {
			c.logger.Warn("service cache read failed", "service_id", id, "error", err)
		}
	}

	svc, err := c.repo.GetService(ctx, id)
	if err != nil {
		return nil, err
	}

	if c.redis != nil {
		if data, err := json.Marshal(svc); err == nil {
			if err := c.redis.Set(ctx, c.key(id), data, c.ttl).Err(); err != nil {
				c.logger.Warn("service cache write failed", "service_id", id, "error", err)
			}
		}
	}
	return svc, nil
}

// Invalidate drops a cached service entry after an update or delete.
func (c *CachedCatalog) Invalidate(ctx context.Context, id uuid.UUID) {
	if c.redis == nil {
		return
	}
	if err := c.redis.Del(ctx, c.key(id)).Err(); err != nil {
		c.logger.Warn("service cache invalidate failed", "service_id", id, "error", err)
	}
}
