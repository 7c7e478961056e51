package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"benchmark-server/src/interfaces"
	"benchmark-server/src/logger"
	"benchmark-server/src/models"
)

// Compile-time interface check.
var _ interfaces.IResponseCache = (*RedisCache)(nil)

// -----------------------------------------------------------------------------

// RedisCache stores computed historical series in Redis with the TTL applied
// as key expiry, so eviction needs no sweep at all.
type RedisCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

// NewRedisCache creates a RedisCache and pings the server to ensure it is
// reachable before the first request needs it.
func NewRedisCache(ctx context.Context, cfg *models.MConfig, log *logger.Logger) (*RedisCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Cache.RedisAddr,
		Password: cfg.Cache.RedisPassword,
		DB:       cfg.Cache.RedisDB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisCache{
		rdb:    rdb,
		ttl:    time.Duration(cfg.Cache.TTLSeconds) * time.Second,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func historyKey(symbol, period string) string {
	return fmt.Sprintf("history:%s:%s", symbol, period)
}

// -----------------------------------------------------------------------------

func (r *RedisCache) Get(ctx context.Context, symbol, period string) ([]models.MHistoricalPoint, bool) {
	data, err := r.rdb.Get(ctx, historyKey(symbol, period)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		r.Logger.Warning("Redis get failed for %s/%s: %v", symbol, period, err)
		return nil, false
	}

	var points []models.MHistoricalPoint
	if err := json.Unmarshal(data, &points); err != nil {
		r.Logger.Warning("Corrupt cache entry for %s/%s: %v", symbol, period, err)
		return nil, false
	}

	return points, true
}

// -----------------------------------------------------------------------------

func (r *RedisCache) Put(ctx context.Context, symbol, period string, points []models.MHistoricalPoint) {
	data, err := json.Marshal(points)
	if err != nil {
		r.Logger.Warning("Failed to marshal cache entry for %s/%s: %v", symbol, period, err)
		return
	}

	if err := r.rdb.Set(ctx, historyKey(symbol, period), data, r.ttl).Err(); err != nil {
		r.Logger.Warning("Redis set failed for %s/%s: %v", symbol, period, err)
	}
}

// -----------------------------------------------------------------------------

func (r *RedisCache) Close() error {
	return r.rdb.Close()
}
