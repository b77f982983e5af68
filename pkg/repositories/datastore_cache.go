package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/datalith-ai/datastore-engine/pkg/models"
)

const datastoreCachePrefix = "datastore:"

// cachedDatastoreRepository is a read-through Redis cache in front of a
// DatastoreRepository. Datastore records (including API keys) change rarely
// but are read on every request, so a short TTL takes most of the load off
// the database. Negative lookups are not cached: a freshly created tenant
// must become visible immediately.
type cachedDatastoreRepository struct {
	inner  DatastoreRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedDatastoreRepository wraps inner with a Redis cache. A nil client
// returns inner unchanged (caching disabled).
func NewCachedDatastoreRepository(inner DatastoreRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) DatastoreRepository {
	if client == nil {
		return inner
	}
	return &cachedDatastoreRepository{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: logger.Named("datastore_cache"),
	}
}

// GetByID retrieves a datastore, consulting the cache first.
func (r *cachedDatastoreRepository) GetByID(ctx context.Context, id string) (*models.Datastore, error) {
	cacheKey := datastoreCachePrefix + id

	raw, err := r.client.Get(ctx, cacheKey).Bytes()
	if err == nil {
		var ds models.Datastore
		if err := json.Unmarshal(raw, &ds); err == nil {
			return &ds, nil
		}
		// Corrupt entry: fall through to the database and overwrite it.
		r.logger.Warn("Discarding undecodable cache entry", zap.String("key", cacheKey))
	} else if !errors.Is(err, redis.Nil) {
		// Cache trouble must not take the request down.
		r.logger.Warn("Cache read failed", zap.String("key", cacheKey), zap.Error(err))
	}

	ds, err := r.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(ds); err == nil {
		if err := r.client.Set(ctx, cacheKey, raw, r.ttl).Err(); err != nil {
			r.logger.Warn("Cache write failed", zap.String("key", cacheKey), zap.Error(err))
		}
	}

	return ds, nil
}

// Ensure cachedDatastoreRepository implements DatastoreRepository at compile time.
var _ DatastoreRepository = (*cachedDatastoreRepository)(nil)
