package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"keyword-intel/pkg/logger"
	"keyword-intel/pkg/model"
	"keyword-intel/pkg/utils"
)

const resultKeyPrefix = "kwi:result:"

// NewCache builds the configured backend. An empty backend disables caching.
func NewCache(ctx context.Context, cfg Config) (Cache, error) {
	switch cfg.Backend {
	case "", BackendNone:
		return NoopCache{}, nil
	case BackendMemory:
		return NewMemoryCache(cfg.MaxEntries, time.Minute), nil
	case BackendRedis:
		return NewRedisCache(ctx, cfg.Redis)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// ResultCache stores finished KeywordIntelligenceResults keyed by request.
// Cache failures are logged and treated as misses.
type ResultCache struct {
	cache Cache
	ttl   time.Duration
	log   *logger.Logger
}

// NewResultCache wraps cache. A nil cache disables caching.
func NewResultCache(cache Cache, ttl time.Duration, log *logger.Logger) *ResultCache {
	if cache == nil {
		cache = NoopCache{}
	}
	return &ResultCache{
		cache: cache,
		ttl:   ttl,
		log:   logger.OrNop(log).WithField("component", "result_cache"),
	}
}

// Key returns the cache key for req.
func (rc *ResultCache) Key(req model.MetricRequest) string {
	return resultKeyPrefix + utils.Hash(req.CacheKeyParts()...)
}

// Get returns a cached result for req.
func (rc *ResultCache) Get(ctx context.Context, req model.MetricRequest) (*model.KeywordIntelligenceResult, bool) {
	key := rc.Key(req)

	raw, err := rc.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			rc.log.WithError(err).Warn("Result cache read failed")
		}
		return nil, false
	}

	var result model.KeywordIntelligenceResult
	if err := json.Unmarshal(raw, &result); err != nil {
		rc.log.WithError(err).Warn("Discarding undecodable cached result")
		_ = rc.cache.Delete(ctx, key)
		return nil, false
	}
	return &result, true
}

// Put stores result for req.
func (rc *ResultCache) Put(ctx context.Context, req model.MetricRequest, result *model.KeywordIntelligenceResult) {
	raw, err := json.Marshal(result)
	if err != nil {
		rc.log.WithError(err).Warn("Result not cacheable")
		return
	}
	if err := rc.cache.Set(ctx, rc.Key(req), raw, rc.ttl); err != nil {
		rc.log.WithError(err).Warn("Result cache write failed")
	}
}

// Close releases the backend.
func (rc *ResultCache) Close() error {
	return rc.cache.Close()
}
