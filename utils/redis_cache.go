package utils

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisHealthInterval = 30 * time.Second

// RedisCache is the shared Cache used when several instances sit behind one balancer.
// It stops talking to Redis after the first failure until a background ping succeeds.
type RedisCache struct {
	client   redis.Cmdable
	healthy  bool
	mu       sync.RWMutex
	stop     chan struct{}
	stopOnce sync.Once
}

// NewRedisCache pings the server once and then keeps checking in the background.
func NewRedisCache(client redis.Cmdable) *RedisCache {
	rc := &RedisCache{
		client: client,
		stop:   make(chan struct{}),
	}
	rc.checkHealth(true)
	go rc.startHealthChecker()
	return rc
}

// Get retrieves a value from Redis cache
func (rc *RedisCache) Get(ctx context.Context, key string) (CacheResult, error) {
	if !rc.IsHealthy() {
		return CacheResult{Found: false}, nil
	}

	cacheResult, err := rc.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		return CacheResult{Data: cacheResult, Found: true}, nil
	case errors.Is(err, redis.Nil):
		return CacheResult{Found: false}, nil
	default:
		rc.setHealthy(false)
		return CacheResult{Found: false}, err
	}
}

// Set stores a value; an expiration of zero means the key never expires.
func (rc *RedisCache) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	if !rc.IsHealthy() {
		return nil
	}
	if err := rc.client.Set(ctx, key, value, expiration).Err(); err != nil {
		rc.setHealthy(false)
		return err
	}
	return nil
}

// IsHealthy returns the health status of Redis connection
func (rc *RedisCache) IsHealthy() bool {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.healthy
}

// Close stops the background health checker. The client is owned by the caller.
func (rc *RedisCache) Close() {
	rc.stopOnce.Do(func() { close(rc.stop) })
}

func (rc *RedisCache) setHealthy(healthy bool) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.healthy = healthy
}

func (rc *RedisCache) checkHealth(isInitial bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	wasHealthy := rc.IsHealthy()
	if err := rc.client.Ping(ctx).Err(); err != nil {
		rc.setHealthy(false)
		// only log transitions so a dead Redis does not flood the log
		if isInitial {
			zap.L().Warn("redis unavailable, using memory cache", zap.Error(err))
		} else if wasHealthy {
			zap.L().Warn("redis connection lost", zap.Error(err))
		}
		return
	}
	rc.setHealthy(true)
	if !isInitial && !wasHealthy {
		zap.L().Info("redis connection restored")
	}
}

func (rc *RedisCache) startHealthChecker() {
	ticker := time.NewTicker(redisHealthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rc.checkHealth(false)
		case <-rc.stop:
			return
		}
	}
}
