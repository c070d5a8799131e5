package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// CacheKeyPrefix namespaces lookup results in a shared store.
const CacheKeyPrefix = "whois:"

// CacheResult represents the result of a cache operation
type CacheResult struct {
	Data  string
	Found bool
}

// LookupCacheKey builds the store key for a query exactly as the caller typed it.
func LookupCacheKey(query string) string {
	return CacheKeyPrefix + query
}

// GetFromCache reads key and decodes the stored JSON into out.
// found is false on a miss. A payload that no longer decodes counts as a miss.
func GetFromCache(ctx context.Context, cache Cache, key string, out interface{}) (bool, error) {
	if cache == nil {
		return false, nil
	}
	res, err := cache.Get(ctx, key)
	if err != nil {
		CacheEvents.WithLabelValues("error").Inc()
		return false, err
	}
	if !res.Found {
		CacheEvents.WithLabelValues("miss").Inc()
		return false, nil
	}
	if err := json.Unmarshal([]byte(res.Data), out); err != nil {
		zap.L().Warn("discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
		CacheEvents.WithLabelValues("miss").Inc()
		return false, nil
	}
	CacheEvents.WithLabelValues("hit").Inc()
	zap.L().Debug("serving cached result", zap.String("key", key))
	return true, nil
}

// SetToCache stores data under key. Strings are written as-is, anything else as JSON.
// An expiration of zero keeps the entry until it is evicted.
func SetToCache(ctx context.Context, cache Cache, key string, data interface{}, expiration time.Duration) error {
	if cache == nil {
		return nil
	}
	var dataStr string

	switch v := data.(type) {
	case string:
		dataStr = v
	default:
		resultBytes, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to marshal data for caching: %w", err)
		}
		dataStr = string(resultBytes)
	}

	if err := cache.Set(ctx, key, dataStr, expiration); err != nil {
		zap.L().Warn("failed to cache result", zap.String("key", key), zap.Error(err))
		CacheEvents.WithLabelValues("error").Inc()
		return err
	}
	return nil
}
