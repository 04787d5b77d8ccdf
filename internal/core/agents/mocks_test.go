package agents_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/samirrijal/wayfinder/internal/core/domain"
	"github.com/samirrijal/wayfinder/internal/core/ports"
)

// --- Mock RoutingService ---

type mockRouting struct {
	isochronesFn func(ctx context.Context, origin domain.Location, mode domain.TransportMode, rangeSeconds []int) (*domain.Isochrone, error)
	directionsFn func(ctx context.Context, coords []domain.Location, mode domain.TransportMode, opts ports.DirectionsOptions) ([]domain.RouteInfo, error)
	matrixFn     func(ctx context.Context, locations []domain.Location, mode domain.TransportMode, metrics []string) (*domain.MatrixResult, error)
	optimizeFn   func(ctx context.Context, jobs []ports.OptimizationJob, vehicles []ports.OptimizationVehicle) (*domain.OptimizationResult, error)

	optimizeCalls int
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
	m.optimizeCalls++
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
	return nil, errors.New("find pois not stubbed")
}

// --- Mock Geocoder ---

type mockGeocoder struct {
	searchFn func(ctx context.Context, text string, opts ports.GeocodeOptions) ([]domain.Location, error)
	queries  []string
}

func (m *mockGeocoder) Search(ctx context.Context, text string, opts ports.GeocodeOptions) ([]domain.Location, error) {
	m.queries = append(m.queries, text)
	if m.searchFn != nil {
		return m.searchFn(ctx, text, opts)
	}
	return nil, errors.New("search not stubbed")
}

// --- Mock LLMClient ---

type mockLLM struct {
	generateFn func(ctx context.Context, prompt string, opts ports.GenerateOptions) (string, error)
}

func (m *mockLLM) Generate(ctx context.Context, prompt string, opts ports.GenerateOptions) (string, error) {
	if m.generateFn != nil {
		return m.generateFn(ctx, prompt, opts)
	}
	return "", errors.New("generate not stubbed")
}

// --- Mock MemoryStore ---

type mockMemory struct {
	mu        sync.Mutex
	contextFn func(ctx context.Context, userID string) (*domain.MemoryContext, error)
	addErr    error
	added     []domain.MemoryRecord
}

func (m *mockMemory) GetContext(ctx context.Context, userID string) (*domain.MemoryContext, error) {
	if m.contextFn != nil {
		return m.contextFn(ctx, userID)
	}
	return &domain.MemoryContext{UserID: userID}, nil
}

func (m *mockMemory) AddMemory(ctx context.Context, userID string, rec domain.MemoryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.addErr != nil {
		return m.addErr
	}
	m.added = append(m.added, rec)
	return nil
}

// --- Mock EventPublisher ---

type mockEvents struct {
	mu         sync.Mutex
	publishErr error
	published  []*domain.QueryEvent
}

func (m *mockEvents) PublishQueryResolved(ctx context.Context, evt *domain.QueryEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.publishErr != nil {
		return m.publishErr
	}
	m.published = append(m.published, evt)
	return nil
}

func (m *mockEvents) PublishBroadcast(ctx context.Context, data []byte) error {
	return nil
}

// --- Mock Agent ---

type mockAgent struct {
	executeFn func(ctx context.Context, cq domain.ClassifiedQuery, userLoc *domain.Location) domain.AgentResult
	calls     int
}

func (m *mockAgent) Execute(ctx context.Context, cq domain.ClassifiedQuery, userLoc *domain.Location) domain.AgentResult {
	m.calls++
	if m.executeFn != nil {
		return m.executeFn(ctx, cq, userLoc)
	}
	return domain.AgentResult{Success: true, Agent: "mock"}
}

// --- Fixtures ---

var houston = domain.Location{Lat: 29.76, Lng: -95.37}

func intPtr(v int) *int { return &v }

func locPtr(l domain.Location) *domain.Location { return &l }

func poiAt(id, name string, cat domain.POICategory, lat, lng float64) domain.POI {
	return domain.POI{ID: id, Name: name, Category: cat, Lat: lat, Lng: lng}
}

// isochroneAround builds a square isochrone centred on the given origin, so
// mocks can serve whatever origin a nested search asks about.
func isochroneAround(origin domain.Location, mode domain.TransportMode, rangeSeconds []int) *domain.Isochrone {
	const d = 0.02
	ring := []domain.Coordinate{
		{Lat: origin.Lat - d, Lng: origin.Lng - d},
		{Lat: origin.Lat - d, Lng: origin.Lng + d},
		{Lat: origin.Lat + d, Lng: origin.Lng + d},
		{Lat: origin.Lat + d, Lng: origin.Lng - d},
		{Lat: origin.Lat - d, Lng: origin.Lng - d},
	}
	return &domain.Isochrone{
		Polygons: [][]domain.Coordinate{ring},
		Bounds: domain.Bounds{
			MinLat: origin.Lat - d, MinLng: origin.Lng - d,
			MaxLat: origin.Lat + d, MaxLng: origin.Lng + d,
		},
		Mode:         mode,
		RangeSeconds: rangeSeconds,
	}
}

func agentError(t *testing.T, res domain.AgentResult) *domain.Error {
	t.Helper()
	if res.Success {
		t.Fatal("expected a failed result")
	}
	if res.Error == nil {
		t.Fatal("expected an error on the result")
	}
	return res.Error
}
