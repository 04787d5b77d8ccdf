package usecases

import (
	"context"
	"encoding/json"

	"github.com/samirrijal/wayfinder/internal/core/ports"
)

// Collaborator response TTLs, in seconds. Geocoding results are stable,
// isochrones and matrices drift with traffic, POI data churns the fastest.
const (
	ttlGeocodeSeconds   = 86400
	ttlIsochroneSeconds = 1800
	ttlMatrixSeconds    = 900
	ttlPOISeconds       = 300
)

// cacheLookup fetches and decodes a cached value into out. A nil cache, a
// miss or a decode failure all report false; the cache is never a source
// of errors.
func cacheLookup[T any](ctx context.Context, cache ports.CacheService, key string, out *T) bool {
	if cache == nil {
		return false
	}
	data, err := cache.Get(ctx, key)
	if err != nil || len(data) == 0 {
		return false
	}
	return json.Unmarshal(data, out) == nil
}

// cacheStore encodes and stores a value, best-effort.
func cacheStore(ctx context.Context, cache ports.CacheService, key string, v any, ttlSeconds int) {
	if cache == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = cache.Set(ctx, key, data, ttlSeconds)
}
