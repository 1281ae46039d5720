// Package cache stores screening verdicts keyed by query and target so that
// repeated screens of the same pair skip the matcher.
package cache

import (
	"context"
	"encoding/hex"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/turtacn/molmatch/internal/config"
	"github.com/turtacn/molmatch/internal/infrastructure/database/redis"
	"github.com/turtacn/molmatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molmatch/pkg/errors"
)

// Backend names.
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Verdict is the cached outcome of matching one query against one target.
type Verdict struct {
	Matched    bool    `json:"matched"`
	Embeddings int     `json:"embeddings,omitempty"`
	Score      float64 `json:"score,omitempty"`
	Mapping    []int   `json:"mapping,omitempty"`
	// Prefiltered marks targets rejected by the fingerprint screen without
	// running a matcher.
	Prefiltered bool `json:"prefiltered,omitempty"`
}

// VerdictCache is safe for concurrent use.
type VerdictCache interface {
	Get(ctx context.Context, key string) (Verdict, bool, error)
	Set(ctx context.Context, key string, v Verdict) error
	Backend() string
	Close() error
}

// Loader computes the verdict of a key that is not cached.
type Loader func(ctx context.Context) (Verdict, error)

// Loading is implemented by caches that run one Loader per key across
// concurrent callers.  cached is false when the caller's own load produced
// the verdict.  Errors from load are returned unchanged and nothing is
// stored; failures of the cache itself are logged and load runs uncached.
type Loading interface {
	GetOrLoad(ctx context.Context, key string, load Loader) (v Verdict, cached bool, err error)
}

// QueryKey digests everything that determines a verdict apart from the
// target: the query notation, the search mode and its conditions.
func QueryKey(notation, mode, conditions string) string {
	d := xxhash.New()
	for _, part := range []string{notation, mode, conditions} {
		_, _ = d.WriteString(part)
		_, _ = d.Write([]byte{0})
	}
	var buf [8]byte
	return hex.EncodeToString(d.Sum(buf[:0]))
}

// TargetKey scopes a query key to one target.
func TargetKey(queryKey, targetID string) string {
	var b strings.Builder
	b.Grow(len(queryKey) + 1 + len(targetID))
	b.WriteString(queryKey)
	b.WriteByte(':')
	b.WriteString(targetID)
	return b.String()
}

// New builds the cache selected by cfg.Backend.
func New(cfg config.CacheConfig, rc config.RedisConfig, log logging.Logger) (VerdictCache, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	switch cfg.Backend {
	case BackendNone, "":
		return Noop(), nil
	case BackendMemory:
		return NewMemory(cfg)
	case BackendRedis:
		client, err := redis.NewClient(&redis.RedisConfig{
			Mode:         rc.Mode,
			Addr:         rc.Addr,
			Addrs:        rc.Addrs,
			MasterName:   rc.MasterName,
			Password:     rc.Password,
			DB:           rc.DB,
			PoolSize:     rc.PoolSize,
			DialTimeout:  rc.DialTimeout,
			ReadTimeout:  rc.ReadTimeout,
			WriteTimeout: rc.WriteTimeout,
		}, log.Named("redis"))
		if err != nil {
			return nil, err
		}
		return NewRedis(client, cfg, log), nil
	default:
		return nil, errors.Newf(errors.ErrCodeValidation, "unknown cache backend %q", cfg.Backend)
	}
}

type noopCache struct{}

// Noop returns a cache that never holds anything.
func Noop() VerdictCache { return noopCache{} }

func (noopCache) Get(context.Context, string) (Verdict, bool, error) { return Verdict{}, false, nil }
func (noopCache) Set(context.Context, string, Verdict) error         { return nil }
func (noopCache) Backend() string                                    { return BackendNone }
func (noopCache) Close() error                                       { return nil }

type redisVerdictCache struct {
	client *redis.Client
	cache  redis.Cache
	log    logging.Logger
}

// NewRedis stores verdicts in Redis under cfg.KeyPrefix with cfg.TTL.
func NewRedis(client *redis.Client, cfg config.CacheConfig, log logging.Logger) VerdictCache {
	if log == nil {
		log = logging.NewNopLogger()
	}
	opts := []redis.CacheOption{redis.WithPrefix(cfg.KeyPrefix)}
	if cfg.TTL > 0 {
		opts = append(opts, redis.WithDefaultTTL(cfg.TTL))
	}
	if j := cfg.TTLJitter; j != 0 {
		if j < 0 {
			j = 0
		}
		opts = append(opts, redis.WithTTLJitter(j))
	}
	return &redisVerdictCache{
		client: client,
		cache:  redis.NewRedisCache(client, log, opts...),
		log:    log,
	}
}

func (c *redisVerdictCache) Get(ctx context.Context, key string) (Verdict, bool, error) {
	var v Verdict
	err := c.cache.Get(ctx, key, &v)
	if errors.IsCode(err, errors.ErrCodeCacheMiss) {
		return Verdict{}, false, nil
	}
	if err != nil {
		return Verdict{}, false, err
	}
	return v, true, nil
}

func (c *redisVerdictCache) Set(ctx context.Context, key string, v Verdict) error {
	return c.cache.Set(ctx, key, v, 0)
}

// GetOrLoad shares one load per key between concurrent callers of this
// process through the cache's singleflight group.
func (c *redisVerdictCache) GetOrLoad(ctx context.Context, key string, load Loader) (Verdict, bool, error) {
	var (
		v       Verdict
		ran     bool
		loadErr error
	)
	err := c.cache.GetOrSet(ctx, key, &v, 0, func(ctx context.Context) (interface{}, error) {
		ran = true
		lv, err := load(ctx)
		if err != nil {
			loadErr = err
			return nil, err
		}
		return lv, nil
	})
	switch {
	case loadErr != nil:
		return Verdict{}, false, loadErr
	case err == nil:
		return v, !ran, nil
	}
	// the server failed, or the shared load of another caller did
	c.log.Warn("verdict cache lookup failed", logging.String("key", key), logging.Err(err))
	v, err = load(ctx)
	return v, false, err
}

func (c *redisVerdictCache) Backend() string { return BackendRedis }

func (c *redisVerdictCache) Close() error { return c.client.Close() }

// expiry returns ttl, or zero for entries that never expire.
func expiry(ttl time.Duration) time.Duration {
	if ttl < 0 {
		return 0
	}
	return ttl
}

//Personal.AI order the ending
