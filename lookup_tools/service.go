package lookup_tools

import (
	"context"
	"strings"
	"time"

	"github.com/KincaidYang/next-whois/rdap_tools/structs"
	"github.com/KincaidYang/next-whois/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Lookuper resolves one query into an envelope.
type Lookuper interface {
	Lookup(ctx context.Context, query string) structs.LookupEnvelope
}

// Service puts the result cache in front of an Orchestrator.
type Service struct {
	Lookuper Lookuper
	Cache    utils.Cache
	// Expiration is passed to the cache backend; zero leaves eviction to the backend.
	Expiration time.Duration

	group singleflight.Group
}

// NewService returns a Service that caches successful envelopes in cache.
func NewService(l Lookuper, cache utils.Cache, expiration time.Duration) *Service {
	return &Service{Lookuper: l, Cache: cache, Expiration: expiration}
}

// Lookup answers from the cache when it can and otherwise runs a fresh lookup.
// Concurrent callers asking the same query share one orchestration.
// The only error is ErrQueryRequired; lookup failures are reported inside the envelope.
func (s *Service) Lookup(ctx context.Context, query string) (structs.LookupEnvelope, error) {
	if strings.TrimSpace(query) == "" {
		return structs.LookupEnvelope{}, utils.ErrQueryRequired
	}
	key := utils.LookupCacheKey(query)

	var cached structs.LookupEnvelope
	found, err := utils.GetFromCache(ctx, s.Cache, key, &cached)
	if err != nil {
		zap.L().Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}
	if found {
		cached.Cached = true
		cached.Time = 0
		return cached, nil
	}

	v, _, _ := s.group.Do(key, func() (interface{}, error) {
		// the shared lookup outlives the caller that started it
		lctx := context.WithoutCancel(ctx)
		env := s.Lookuper.Lookup(lctx, strings.TrimSpace(query))
		if env.Status {
			if err := utils.SetToCache(lctx, s.Cache, key, env, s.Expiration); err != nil {
				zap.L().Warn("cache write failed", zap.String("key", key), zap.Error(err))
			}
		}
		return env, nil
	})
	return v.(structs.LookupEnvelope), nil
}
