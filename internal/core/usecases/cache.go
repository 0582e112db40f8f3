package usecases

import (
	"context"
	"encoding/json"

	"github.com/samirrijal/cragtopo/internal/core/ports"
	"github.com/samirrijal/cragtopo/internal/pkg/metrics"
)

// readThrough returns the cached JSON value for key or loads, stores and returns it.
// A nil cache always loads.
func readThrough[T any](ctx context.Context, cache ports.CacheService, op, key string, ttlSeconds int, load func() (T, error)) (T, error) {
	if cache != nil {
		if data, err := cache.Get(ctx, key); err == nil {
			var v T
			if err := json.Unmarshal(data, &v); err == nil {
				metrics.CacheHits.WithLabelValues(op).Inc()
				return v, nil
			}
		}
		metrics.CacheMisses.WithLabelValues(op).Inc()
	}

	v, err := load()
	if err != nil {
		return v, err
	}

	if cache != nil {
		if data, err := json.Marshal(v); err == nil {
			_ = cache.Set(ctx, key, data, ttlSeconds)
		}
	}
	return v, nil
}

// invalidate drops keys, ignoring cache errors.
func invalidate(ctx context.Context, cache ports.CacheService, keys ...string) {
	if cache == nil {
		return
	}
	for _, k := range keys {
		_ = cache.Delete(ctx, k)
	}
}
