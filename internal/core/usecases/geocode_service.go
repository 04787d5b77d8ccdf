package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/samirrijal/wayfinder/internal/core/domain"
	"github.com/samirrijal/wayfinder/internal/core/ports"
)

const defaultGeocodeLimit = 5

// GeocodeService resolves free-text place names to coordinates.
type GeocodeService struct {
	geocoder ports.Geocoder
	cache    ports.CacheService
}

// NewGeocodeService creates a GeocodeService. cache may be nil.
func NewGeocodeService(geocoder ports.Geocoder, cache ports.CacheService) *GeocodeService {
	return &GeocodeService{geocoder: geocoder, cache: cache}
}

// Geocode resolves text to candidate locations, best match first. An empty
// result is not an error; callers decide whether "no match" is fatal.
func (s *GeocodeService) Geocode(ctx context.Context, text string, opts ports.GeocodeOptions) ([]domain.Location, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.NewError(domain.ErrInvalidInput, "geocode text must not be empty")
	}
	if opts.Limit <= 0 {
		opts.Limit = defaultGeocodeLimit
	}

	key := fmt.Sprintf("geocode:%s:%s:%d", strings.ToLower(text), opts.CountryCode, opts.Limit)
	var cached []domain.Location
	if cacheLookup(ctx, s.cache, key, &cached) {
		return cached, nil
	}

	locations, err := s.geocoder.Search(ctx, text, opts)
	if err != nil {
		return nil, domain.WrapError(domain.ErrGeocodingFailed, "geocoding failed", err)
	}
	cacheStore(ctx, s.cache, key, locations, ttlGeocodeSeconds)
	return locations, nil
}
