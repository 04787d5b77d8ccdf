package usecases_test

import (
	"context"
	"errors"
	"sync"

	"github.com/samirrijal/wayfinder/internal/core/domain"
	"github.com/samirrijal/wayfinder/internal/core/ports"
)

// --- Mock RoutingService ---

type mockRouting struct {
	isochronesFn func(ctx context.Context, origin domain.Location, mode domain.TransportMode, rangeSeconds []int) (*domain.Isochrone, error)
	directionsFn func(ctx context.Context, coords []domain.Location, mode domain.TransportMode, opts ports.DirectionsOptions) ([]domain.RouteInfo, error)
	matrixFn     func(ctx context.Context, locations []domain.Location, mode domain.TransportMode, metrics []string) (*domain.MatrixResult, error)
	optimizeFn   func(ctx context.Context, jobs []ports.OptimizationJob, vehicles []ports.OptimizationVehicle) (*domain.OptimizationResult, error)
}

func (m *mockRouting) Isochrones(ctx context.Context, origin domain.Location, mode domain.TransportMode, rangeSeconds []int) (*domain.Isochrone, error) {
	if m.isochronesFn != nil {
		return m.isochronesFn(ctx, origin, mode, rangeSeconds)
	}
	return nil, errors.New("isochrones not stubbed")
}

func (m *mockRouting) Directions(ctx context.Context, coords []domain.Location, mode domain.TransportMode, opts ports.DirectionsOptions) ([]domain.RouteInfo, error) {
	if m.directionsFn != nil {
		return m.directionsFn(ctx, coords, mode, opts)
	}
	return nil, errors.New("directions not stubbed")
}

func (m *mockRouting) Matrix(ctx context.Context, locations []domain.Location, mode domain.TransportMode, metrics []string) (*domain.MatrixResult, error) {
	if m.matrixFn != nil {
		return m.matrixFn(ctx, locations, mode, metrics)
	}
	return nil, errors.New("matrix not stubbed")
}

func (m *mockRouting) Optimize(ctx context.Context, jobs []ports.OptimizationJob, vehicles []ports.OptimizationVehicle) (*domain.OptimizationResult, error) {
	if m.optimizeFn != nil {
		return m.optimizeFn(ctx, jobs, vehicles)
	}
	return nil, errors.New("optimize not stubbed")
}

// --- Mock POISearcher ---

type mockPlaces struct {
	findPOIsFn func(ctx context.Context, q ports.POIQuery) ([]domain.POI, error)
	calls      int
}

func (m *mockPlaces) FindPOIs(ctx context.Context, q ports.POIQuery) ([]domain.POI, error) {
	m.calls++
	if m.findPOIsFn != nil {
		return m.findPOIsFn(ctx, q)
	}
	return nil, nil
}

// --- Mock Geocoder ---

type mockGeocoder struct {
	searchFn func(ctx context.Context, text string, opts ports.GeocodeOptions) ([]domain.Location, error)
	calls    int
}

func (m *mockGeocoder) Search(ctx context.Context, text string, opts ports.GeocodeOptions) ([]domain.Location, error) {
	m.calls++
	if m.searchFn != nil {
		return m.searchFn(ctx, text, opts)
	}
	return nil, nil
}

// --- Mock CacheService ---

type mockCache struct {
	mu    sync.Mutex
	store map[string][]byte
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.store[key]
	if !ok {
		return nil, errors.New("cache miss")
	}
	return data, nil
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.store == nil {
		m.store = make(map[string][]byte)
	}
	m.store[key] = value
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, key)
	return nil
}

// --- Shared fixtures ---

var houston = domain.Location{Lat: 29.76, Lng: -95.37}

func intPtr(v int) *int { return &v }

func poiAt(id, name string, cat domain.POICategory, lat, lng float64) domain.POI {
	return domain.POI{ID: id, Name: name, Category: cat, Lat: lat, Lng: lng}
}

func domainCode(t interface{ Fatalf(string, ...any) }, err error) domain.ErrorCode {
	var derr *domain.Error
	if !errors.As(err, &derr) {
		t.Fatalf("expected domain error, got %T: %v", err, err)
	}
	return derr.Code
}
