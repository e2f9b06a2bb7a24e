package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/spotsync/backend/domain"
	"github.com/spotsync/backend/internal/metrics"
	"github.com/spotsync/backend/repository"
)

const (
	cacheKeyPrefix  = "search:"
	DefaultCacheTTL = time.Minute
)

// CachedEngine is a read-through cache around another engine. Coordinates
// and radius are quantized in the key so that nearby requests share entries.
// Every cache failure fails open to the inner engine.
type CachedEngine struct {
	next    Engine
	cache   repository.QueryCache
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewCachedEngine(next Engine, cache repository.QueryCache, ttl time.Duration,
	m *metrics.Metrics, logger *zap.Logger) *CachedEngine {

	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if m == nil {
		m = metrics.NewNop()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedEngine{next: next, cache: cache, ttl: ttl, metrics: m, logger: logger}
}

func (e *CachedEngine) Search(ctx context.Context, req Request) ([]Result, error) {
	key := CacheKey(req)

	cached, err := e.cache.Get(ctx, key)
	switch {
	case err == nil:
		var results []Result
		if err := json.Unmarshal(cached, &results); err == nil {
			e.metrics.CacheHits.Inc()
			return results, nil
		}
		// Treat a corrupt entry as a miss; it expires on its own.
		e.metrics.CacheErrors.Inc()
	case errors.Is(err, domain.ErrCacheMiss):
		e.metrics.CacheMisses.Inc()
	default:
		e.metrics.CacheErrors.Inc()
		e.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}

	results, err := e.next.Search(ctx, req)
	if err != nil {
		return nil, err
	}

	// Empty pages are not cached: they are usually transient index warmup
	// states and would pin "no results" for the whole TTL.
	if len(results) == 0 {
		return results, nil
	}

	payload, err := json.Marshal(results)
	if err != nil {
		return results, nil
	}
	if err := e.cache.Set(ctx, key, payload, e.ttl); err != nil {
		e.metrics.CacheErrors.Inc()
		e.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	return results, nil
}

// Evict drops every cached result page. Operator-triggered only.
func (e *CachedEngine) Evict(ctx context.Context) (int, error) {
	return e.cache.DeleteByPattern(ctx, cacheKeyPrefix+"*")
}

// CacheKey builds the cache key for a normalized request. Coordinates round
// to three decimals (~110m) and the radius to half-kilometre steps, so the
// hit rate survives GPS jitter.
func CacheKey(req Request) string {
	center := "none"
	if req.HasCenter() {
		center = fmt.Sprintf("%.3f:%.3f",
			math.Round(*req.Lat*1000)/1000,
			math.Round(*req.Lng*1000)/1000)
	}
	radius := math.Round(req.RadiusKm*2) / 2

	kind := "*"
	switch req.Kind {
	case domain.KindParking:
		kind = "P"
	case domain.KindCharging:
		kind = "C"
	}
	avail := "-"
	if req.AvailableOnly {
		avail = "A"
	}
	free := "-"
	if req.FreeOnly {
		free = "F"
	}

	return fmt.Sprintf("%s%s:%.1f:%s%s%s:%d:%d",
		cacheKeyPrefix, center, radius, kind, avail, free, req.Page, req.Size)
}
