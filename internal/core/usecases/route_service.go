package usecases

import (
	"context"
	"fmt"

	"github.com/samirrijal/wayfinder/internal/core/domain"
	"github.com/samirrijal/wayfinder/internal/core/ports"
)

// RouteService computes point-to-point directions.
type RouteService struct {
	routing ports.RoutingService
}

// NewRouteService creates a RouteService.
func NewRouteService(routing ports.RoutingService) *RouteService {
	return &RouteService{routing: routing}
}

// RouteInput describes a directions request. Waypoints are visited in
// order between origin and destination.
type RouteInput struct {
	Origin      domain.Location
	Destination domain.Location
	Waypoints   []domain.Location
	Transport   domain.TransportMode
	Elevation   bool
}

// GetRoute asks the routing collaborator for routes and returns the
// fastest. Elevation gain/loss and average speed are derived from the
// geometry when the collaborator does not supply them.
func (s *RouteService) GetRoute(ctx context.Context, in RouteInput) (*domain.RouteInfo, error) {
	if err := validateOrigin(in.Origin); err != nil {
		return nil, err
	}
	if in.Destination.IsZero() {
		return nil, domain.NewError(domain.ErrMissingRequiredField, "destination location is required")
	}
	if !in.Destination.Valid() {
		return nil, domain.NewError(domain.ErrInvalidCoordinates,
			fmt.Sprintf("coordinates (%v, %v) are out of range", in.Destination.Lat, in.Destination.Lng))
	}
	for _, wp := range in.Waypoints {
		if !wp.Valid() || wp.IsZero() {
			return nil, domain.NewError(domain.ErrInvalidCoordinates,
				fmt.Sprintf("waypoint (%v, %v) is invalid", wp.Lat, wp.Lng))
		}
	}
	transport := normalizeTransport(in.Transport)

	coords := make([]domain.Location, 0, len(in.Waypoints)+2)
	coords = append(coords, in.Origin)
	coords = append(coords, in.Waypoints...)
	coords = append(coords, in.Destination)

	// Routing engines reject alternative routes on multi-waypoint requests.
	routes, err := s.routing.Directions(ctx, coords, transport, ports.DirectionsOptions{
		Alternatives: len(in.Waypoints) == 0,
		Elevation:    in.Elevation,
		Instructions: true,
	})
	if err != nil {
		return nil, domain.WrapError(domain.ErrRoutingFailed, "directions request failed", err)
	}
	best := pickFastest(routes)
	if best == nil {
		return nil, domain.NewError(domain.ErrNoResultsFound, "no route between the given points")
	}

	route := *best
	enrichRoute(&route)
	return &route, nil
}

// pickFastest returns the lowest-duration route, or nil for an empty set.
func pickFastest(routes []domain.RouteInfo) *domain.RouteInfo {
	var best *domain.RouteInfo
	for i := range routes {
		if best == nil || routes[i].DurationMinutes < best.DurationMinutes {
			best = &routes[i]
		}
	}
	return best
}

// enrichRoute fills derived fields the collaborator left empty.
func enrichRoute(route *domain.RouteInfo) {
	if route.AverageSpeedKmh == nil && route.DurationMinutes > 0 {
		kmh := (route.DistanceMeters / 1000) / (route.DurationMinutes / 60)
		route.AverageSpeedKmh = &kmh
	}
	if route.ElevationGain == nil && route.ElevationLoss == nil {
		if gain, loss, ok := elevationFromGeometry(route.Geometry); ok {
			route.ElevationGain = &gain
			route.ElevationLoss = &loss
		}
	}
}

// elevationFromGeometry accumulates climb and descent across consecutive
// 3D vertices. ok is false when fewer than two vertices carry elevation.
func elevationFromGeometry(geometry []domain.Coordinate) (gain, loss float64, ok bool) {
	var prev *float64
	seen := 0
	for _, c := range geometry {
		if c.Elevation == nil {
			continue
		}
		seen++
		if prev != nil {
			delta := *c.Elevation - *prev
			if delta > 0 {
				gain += delta
			} else {
				loss -= delta
			}
		}
		prev = c.Elevation
	}
	return gain, loss, seen >= 2
}
