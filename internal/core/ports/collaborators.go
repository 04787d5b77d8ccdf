package ports

import (
	"context"

	"github.com/samirrijal/wayfinder/internal/core/domain"
)

// GenerateOptions tunes a single LLM completion.
type GenerateOptions struct {
	Temperature float64
	MaxTokens   int
	Format      string // "json" constrains the reply to a JSON object
}

// LLMClient produces completions. Replies may contain malformed or partial
// JSON; callers must tolerate that.
type LLMClient interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}

// DirectionsOptions tunes a directions request.
type DirectionsOptions struct {
	Alternatives bool
	Elevation    bool
	Instructions bool
}

// OptimizationJob is a stop the optimizer must place.
type OptimizationJob struct {
	ID             int
	Location       domain.Location
	ServiceSeconds int
}

// OptimizationVehicle is a vehicle with fixed start and end positions.
type OptimizationVehicle struct {
	ID    int
	Start domain.Location
	End   domain.Location
}

// Matrix metric names accepted by RoutingService.Matrix.
const (
	MetricDuration = "duration"
	MetricDistance = "distance"
)

// RoutingService is the isochrone/routing collaborator.
type RoutingService interface {
	// Isochrones returns the reachable area around origin for each range.
	Isochrones(ctx context.Context, origin domain.Location, mode domain.TransportMode, rangeSeconds []int) (*domain.Isochrone, error)

	// Directions routes through the given coordinates in order and returns
	// one or more route alternatives.
	Directions(ctx context.Context, coords []domain.Location, mode domain.TransportMode, opts DirectionsOptions) ([]domain.RouteInfo, error)

	// Matrix returns pairwise durations/distances between all locations.
	Matrix(ctx context.Context, locations []domain.Location, mode domain.TransportMode, metrics []string) (*domain.MatrixResult, error)

	// Optimize orders vehicles through jobs minimizing total duration.
	Optimize(ctx context.Context, jobs []OptimizationJob, vehicles []OptimizationVehicle) (*domain.OptimizationResult, error)
}

// POIQuery scopes a POI search to a bounding box and category.
type POIQuery struct {
	Category   domain.POICategory
	Bounds     domain.Bounds
	Cuisine    string
	MaxResults int
}

// POISearcher is the POI search collaborator. The category taxonomy is
// fixed; results are bbox-scoped and unordered.
type POISearcher interface {
	FindPOIs(ctx context.Context, q POIQuery) ([]domain.POI, error)
}

// GeocodeOptions tunes a geocoding request.
type GeocodeOptions struct {
	CountryCode string
	Limit       int
}

// Geocoder resolves free text to locations. An empty slice means no match,
// which is not an error.
type Geocoder interface {
	Search(ctx context.Context, text string, opts GeocodeOptions) ([]domain.Location, error)
}
