package cache

import (
	"context"

	"github.com/dgraph-io/ristretto"
	"golang.org/x/sync/singleflight"

	"github.com/turtacn/molmatch/internal/config"
	"github.com/turtacn/molmatch/pkg/errors"
)

type memoryCache struct {
	store  *ristretto.Cache
	cfg    config.CacheConfig
	flight singleflight.Group
}

// NewMemory returns an in-process cache.  Every verdict costs one unit, so
// cfg.MaxCost bounds the number of entries.
func NewMemory(cfg config.CacheConfig) (VerdictCache, error) {
	store, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCacheError, "failed to create memory cache")
	}
	return &memoryCache{store: store, cfg: cfg}, nil
}

func (c *memoryCache) Get(_ context.Context, key string) (Verdict, bool, error) {
	raw, ok := c.store.Get(key)
	if !ok {
		return Verdict{}, false, nil
	}
	v, ok := raw.(Verdict)
	if !ok {
		return Verdict{}, false, nil
	}
	v.Mapping = append([]int(nil), v.Mapping...)
	return v, true, nil
}

// Set waits for the write buffer so that a following Get observes the entry.
// Ristretto may still reject the entry under admission pressure, which only
// costs a future recomputation.
func (c *memoryCache) Set(_ context.Context, key string, v Verdict) error {
	v.Mapping = append([]int(nil), v.Mapping...)
	c.store.SetWithTTL(key, v, 1, expiry(c.cfg.TTL))
	c.store.Wait()
	return nil
}

func (c *memoryCache) GetOrLoad(ctx context.Context, key string, load Loader) (Verdict, bool, error) {
	if v, ok, _ := c.Get(ctx, key); ok {
		return v, true, nil
	}
	ran := false
	val, err, _ := c.flight.Do(key, func() (interface{}, error) {
		ran = true
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		_ = c.Set(ctx, key, v)
		return v, nil
	})
	if err != nil {
		if ran {
			return Verdict{}, false, err
		}
		v, err := load(ctx)
		return v, false, err
	}
	v := val.(Verdict)
	v.Mapping = append([]int(nil), v.Mapping...)
	return v, !ran, nil
}

func (c *memoryCache) Backend() string { return BackendMemory }

func (c *memoryCache) Close() error {
	c.store.Close()
	return nil
}

//Personal.AI order the ending
