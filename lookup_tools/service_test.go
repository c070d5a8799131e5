package lookup_tools

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/KincaidYang/next-whois/rdap_tools/structs"
	"github.com/KincaidYang/next-whois/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingLookuper struct {
	calls   atomic.Int32
	status  bool
	release chan struct{}
}

func (c *countingLookuper) Lookup(ctx context.Context, query string) structs.LookupEnvelope {
	c.calls.Add(1)
	if c.release != nil {
		<-c.release
	}
	if !c.status {
		return structs.LookupEnvelope{Time: 0.2, Error: "No match for " + query}
	}
	r := structs.NewWhoisResult()
	r.Domain = query
	r.Registrar = "Example Registrar"
	return structs.LookupEnvelope{Time: 1.25, Status: true, Source: structs.SourceRDAP, Result: &r}
}

type brokenCache struct{}

func (brokenCache) Get(ctx context.Context, key string) (utils.CacheResult, error) {
	return utils.CacheResult{}, errors.New("connection reset")
}

func (brokenCache) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	return errors.New("connection reset")
}

func (brokenCache) IsHealthy() bool { return false }

func TestServiceCachesSuccessfulLookups(t *testing.T) {
	cache := utils.NewMemoryCache(100, 0)
	defer cache.Close()
	l := &countingLookuper{status: true}
	s := NewService(l, cache, time.Hour)

	first, err := s.Lookup(context.Background(), "example.com")
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, 1.25, first.Time)

	second, err := s.Lookup(context.Background(), "example.com")
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, 0.0, second.Time)
	assert.Equal(t, first.Result, second.Result)
	assert.Equal(t, first.Source, second.Source)
	assert.Equal(t, int32(1), l.calls.Load())
}

func TestServiceKeyIsOriginalQuery(t *testing.T) {
	cache := utils.NewMemoryCache(100, 0)
	defer cache.Close()
	s := NewService(&countingLookuper{status: true}, cache, 0)

	_, err := s.Lookup(context.Background(), "Example.COM")
	require.NoError(t, err)

	res, err := cache.Get(context.Background(), "whois:Example.COM")
	require.NoError(t, err)
	assert.True(t, res.Found)

	res, err = cache.Get(context.Background(), "whois:example.com")
	require.NoError(t, err)
	assert.False(t, res.Found)
}

func TestServiceDoesNotCacheFailures(t *testing.T) {
	cache := utils.NewMemoryCache(100, 0)
	defer cache.Close()
	l := &countingLookuper{status: false}
	s := NewService(l, cache, time.Hour)

	for i := 0; i < 2; i++ {
		env, err := s.Lookup(context.Background(), "missing.example")
		require.NoError(t, err)
		assert.False(t, env.Status)
		assert.False(t, env.Cached)
	}
	assert.Equal(t, int32(2), l.calls.Load())
	assert.Equal(t, 0, cache.Len())
}

func TestServiceRequiresQuery(t *testing.T) {
	l := &countingLookuper{status: true}
	s := NewService(l, nil, 0)

	_, err := s.Lookup(context.Background(), "   ")
	assert.ErrorIs(t, err, utils.ErrQueryRequired)
	assert.Equal(t, int32(0), l.calls.Load())
}

func TestServiceSurvivesBrokenCache(t *testing.T) {
	l := &countingLookuper{status: true}
	s := NewService(l, brokenCache{}, time.Hour)

	env, err := s.Lookup(context.Background(), "example.com")
	require.NoError(t, err)
	assert.True(t, env.Status)
	assert.False(t, env.Cached)
}

func TestServiceSharesInFlightLookups(t *testing.T) {
	l := &countingLookuper{status: true, release: make(chan struct{})}
	s := NewService(l, nil, 0)

	const callers = 5
	var wg sync.WaitGroup
	results := make([]structs.LookupEnvelope, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = s.Lookup(context.Background(), "example.com")
		}(i)
	}
	time.Sleep(100 * time.Millisecond)
	close(l.release)
	wg.Wait()

	assert.Equal(t, int32(1), l.calls.Load())
	for _, r := range results {
		assert.True(t, r.Status)
	}
}
