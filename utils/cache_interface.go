package utils

import (
	"context"
	"sync"
	"time"
)

// Cache is the key/value store behind the lookup service.
type Cache interface {
	Get(ctx context.Context, key string) (CacheResult, error)
	Set(ctx context.Context, key string, value string, expiration time.Duration) error
	IsHealthy() bool
}

type cacheEntry struct {
	Value     string
	ExpiresAt time.Time // zero means no expiry
}

func (e cacheEntry) expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

// MemoryCache is a bounded in-process Cache. When full it first drops expired
// entries and then refuses new keys.
type MemoryCache struct {
	data          sync.Map
	maxSize       int
	cleanInterval time.Duration
	mu            sync.RWMutex
	size          int
	stop          chan struct{}
	stopOnce      sync.Once
}

// NewMemoryCache creates a memory cache and starts its janitor.
func NewMemoryCache(maxSize int, cleanInterval time.Duration) *MemoryCache {
	mc := &MemoryCache{
		maxSize:       maxSize,
		cleanInterval: cleanInterval,
		stop:          make(chan struct{}),
	}
	if cleanInterval > 0 {
		go mc.startCleaner()
	}
	return mc
}

// Get retrieves a value from memory cache
func (mc *MemoryCache) Get(ctx context.Context, key string) (CacheResult, error) {
	value, ok := mc.data.Load(key)
	if !ok {
		return CacheResult{Found: false}, nil
	}

	entry := value.(cacheEntry)
	if entry.expired(time.Now()) {
		if _, loaded := mc.data.LoadAndDelete(key); loaded {
			mc.decrementSize()
		}
		return CacheResult{Found: false}, nil
	}
	return CacheResult{Data: entry.Value, Found: true}, nil
}

// Set stores a value. A non-positive expiration keeps it until eviction.
func (mc *MemoryCache) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	if _, exists := mc.data.Load(key); !exists && mc.Len() >= mc.maxSize {
		mc.cleanExpired()
		if mc.Len() >= mc.maxSize {
			return nil
		}
	}

	entry := cacheEntry{Value: value}
	if expiration > 0 {
		entry.ExpiresAt = time.Now().Add(expiration)
	}

	if _, existed := mc.data.Swap(key, entry); !existed {
		mc.incrementSize()
	}
	return nil
}

// IsHealthy always returns true for memory cache
func (mc *MemoryCache) IsHealthy() bool {
	return true
}

// Len returns the number of stored entries, expired ones included until swept.
func (mc *MemoryCache) Len() int {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.size
}

// Close stops the janitor goroutine.
func (mc *MemoryCache) Close() {
	mc.stopOnce.Do(func() { close(mc.stop) })
}

func (mc *MemoryCache) incrementSize() {
	mc.mu.Lock()
	mc.size++
	mc.mu.Unlock()
}

func (mc *MemoryCache) decrementSize() {
	mc.mu.Lock()
	if mc.size > 0 {
		mc.size--
	}
	mc.mu.Unlock()
}

func (mc *MemoryCache) startCleaner() {
	ticker := time.NewTicker(mc.cleanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			mc.cleanExpired()
		case <-mc.stop:
			return
		}
	}
}

func (mc *MemoryCache) cleanExpired() {
	now := time.Now()
	mc.data.Range(func(key, value interface{}) bool {
		if value.(cacheEntry).expired(now) {
			if _, loaded := mc.data.LoadAndDelete(key); loaded {
				mc.decrementSize()
			}
		}
		return true
	})
}

// FallbackCache writes to both stores and reads from the primary while it is healthy.
type FallbackCache struct {
	primary  Cache
	fallback Cache
}

// NewFallbackCache creates a new fallback cache
func NewFallbackCache(primary, fallback Cache) *FallbackCache {
	return &FallbackCache{
		primary:  primary,
		fallback: fallback,
	}
}

// Get tries primary cache first, then fallback
func (fc *FallbackCache) Get(ctx context.Context, key string) (CacheResult, error) {
	if fc.primary.IsHealthy() {
		result, err := fc.primary.Get(ctx, key)
		if err == nil {
			// dual-write means a primary miss is authoritative
			return result, nil
		}
	}
	return fc.fallback.Get(ctx, key)
}

// Set attempts to write to both caches
func (fc *FallbackCache) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	var primaryErr error
	if fc.primary.IsHealthy() {
		primaryErr = fc.primary.Set(ctx, key, value, expiration)
	}
	fallbackErr := fc.fallback.Set(ctx, key, value, expiration)

	if primaryErr != nil {
		return primaryErr
	}
	return fallbackErr
}

// IsHealthy returns true if either cache is healthy
func (fc *FallbackCache) IsHealthy() bool {
	return fc.primary.IsHealthy() || fc.fallback.IsHealthy()
}

// IsPrimaryHealthy reports whether the shared store (Redis) is reachable.
func (fc *FallbackCache) IsPrimaryHealthy() bool {
	return fc.primary.IsHealthy()
}
