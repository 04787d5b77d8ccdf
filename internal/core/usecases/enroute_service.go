package usecases

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/samirrijal/wayfinder/internal/core/domain"
	"github.com/samirrijal/wayfinder/internal/core/ports"
	"github.com/samirrijal/wayfinder/internal/pkg/geospatial"
)

const (
	// Corridor search: the route bbox grows by the buffer, then candidates
	// must sit within the offset of the route line itself.
	corridorBufferMeters    = 2000
	maxCorridorOffsetMeters = 1500

	maxEnrouteCandidates    = 5
	defaultMaxDetourMinutes = 10
)

// EnrouteService finds a stopover along a route without blowing the
// caller's time budget.
type EnrouteService struct {
	routing ports.RoutingService
	places  ports.POISearcher
	cache   ports.CacheService
}

// NewEnrouteService creates an EnrouteService. cache may be nil.
func NewEnrouteService(routing ports.RoutingService, places ports.POISearcher, cache ports.CacheService) *EnrouteService {
	return &EnrouteService{routing: routing, places: places, cache: cache}
}

// EnrouteInput asks for a category stopover between origin and destination.
// BudgetMinutes bounds the whole trip; MaxDetourMinutes bounds the extra
// time the stopover may add (zero means the default).
type EnrouteInput struct {
	Origin           domain.Location
	Destination      domain.Location
	Category         domain.POICategory
	Transport        domain.TransportMode
	BudgetMinutes    *int
	MaxDetourMinutes float64
	Cuisine          string
}

// EnrouteOutput carries the chosen stopover, both routes and the detour it
// costs. Evaluated reports how many candidates got a three-point route.
type EnrouteOutput struct {
	Stopover      *domain.POI       `json:"stopover,omitempty"`
	DirectRoute   domain.RouteInfo  `json:"direct_route"`
	StopoverRoute *domain.RouteInfo `json:"stopover_route,omitempty"`
	DetourMinutes float64           `json:"detour_minutes"`
	Evaluated     int               `json:"evaluated"`
}

// FindEnroute computes the direct route first and fails fast when it
// already exceeds the budget. Otherwise candidates inside the route
// corridor are evaluated with three-point routes, and the feasible one
// with the smallest detour wins.
func (s *EnrouteService) FindEnroute(ctx context.Context, in EnrouteInput) (*EnrouteOutput, error) {
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
	if err := validateCategory(in.Category); err != nil {
		return nil, err
	}
	transport := normalizeTransport(in.Transport)

	routes, err := s.routing.Directions(ctx, []domain.Location{in.Origin, in.Destination}, transport, ports.DirectionsOptions{})
	if err != nil {
		return nil, domain.WrapError(domain.ErrRoutingFailed, "direct route failed", err)
	}
	direct := pickFastest(routes)
	if direct == nil {
		return nil, domain.NewError(domain.ErrNoResultsFound, "no route between origin and destination")
	}

	if in.BudgetMinutes != nil && direct.DurationMinutes > float64(*in.BudgetMinutes) {
		return nil, domain.NewError(domain.ErrTimeConstraintExceeded,
			fmt.Sprintf("the direct route already takes %.0f minutes, over the %d minute budget",
				direct.DurationMinutes, *in.BudgetMinutes)).
			WithDetail("direct_minutes", direct.DurationMinutes).
			WithDetail("budget_minutes", *in.BudgetMinutes)
	}

	line := routeLine(direct.Geometry)
	if len(line) < 2 {
		line = []geospatial.Point{
			{Lat: in.Origin.Lat, Lng: in.Origin.Lng},
			{Lat: in.Destination.Lat, Lng: in.Destination.Lng},
		}
	}
	minLat, minLng, maxLat, maxLng := geospatial.PolylineBounds(line)
	minLat, minLng, maxLat, maxLng = geospatial.ExpandBox(minLat, minLng, maxLat, maxLng, corridorBufferMeters)

	pois, err := searchPOIs(ctx, s.places, s.cache, ports.POIQuery{
		Category:   in.Category,
		Bounds:     domain.Bounds{MinLat: minLat, MinLng: minLng, MaxLat: maxLat, MaxLng: maxLng},
		Cuisine:    in.Cuisine,
		MaxResults: areaFanout,
	})
	if err != nil {
		return nil, domain.AsDomainError(err)
	}

	candidates := corridorCandidates(pois, line, in.Origin)
	if len(candidates) == 0 {
		return nil, domain.NewError(domain.ErrNoResultsFound,
			fmt.Sprintf("no %s along the route", in.Category))
	}
	if len(candidates) > maxEnrouteCandidates {
		candidates = candidates[:maxEnrouteCandidates]
	}

	evals := s.evaluateStopovers(ctx, in.Origin, in.Destination, candidates, transport)

	maxDetour := in.MaxDetourMinutes
	if maxDetour <= 0 {
		maxDetour = defaultMaxDetourMinutes
	}

	bestIdx := -1
	bestDetour := 0.0
	succeeded := 0
	var lastErr error
	for i, ev := range evals {
		if ev.err != nil {
			lastErr = ev.err
			continue
		}
		if ev.route == nil {
			continue
		}
		succeeded++
		detour := ev.route.DurationMinutes - direct.DurationMinutes
		if detour > maxDetour {
			continue
		}
		if bestIdx == -1 || detour < bestDetour {
			bestIdx, bestDetour = i, detour
		}
	}

	if bestIdx == -1 {
		if succeeded == 0 && lastErr != nil {
			return nil, domain.WrapError(domain.ErrRoutingFailed, "stopover evaluation failed", lastErr)
		}
		return nil, domain.NewError(domain.ErrNoResultsFound,
			fmt.Sprintf("no %s reachable within a %.0f minute detour", in.Category, maxDetour)).
			WithDetail("evaluated", len(candidates))
	}

	stopover := candidates[bestIdx]
	return &EnrouteOutput{
		Stopover:      &stopover,
		DirectRoute:   *direct,
		StopoverRoute: evals[bestIdx].route,
		DetourMinutes: bestDetour,
		Evaluated:     succeeded,
	}, nil
}

type stopoverEval struct {
	route *domain.RouteInfo
	err   error
}

// evaluateStopovers runs a three-point route per candidate. The calls are
// read-only and independent, so they fan out concurrently; each result
// lands in its own slot.
func (s *EnrouteService) evaluateStopovers(ctx context.Context, origin, destination domain.Location, candidates []domain.POI, transport domain.TransportMode) []stopoverEval {
	evals := make([]stopoverEval, len(candidates))

	var wg sync.WaitGroup
	for i, cand := range candidates {
		wg.Add(1)
		go func(i int, stop domain.Location) {
			defer wg.Done()
			routes, err := s.routing.Directions(ctx,
				[]domain.Location{origin, stop, destination}, transport, ports.DirectionsOptions{})
			if err != nil {
				evals[i].err = err
				return
			}
			evals[i].route = pickFastest(routes)
		}(i, cand.Location())
	}
	wg.Wait()
	return evals
}

// corridorCandidates keeps POIs within the allowed offset of the route
// line, ordered closest-to-route first. Point-to-line distance, not
// point-to-point: a POI near the midpoint of a long leg still qualifies.
func corridorCandidates(pois []domain.POI, line []geospatial.Point, origin domain.Location) []domain.POI {
	type scored struct {
		poi    domain.POI
		offset float64
	}
	var within []scored
	for _, poi := range pois {
		offset := geospatial.DistanceToPolylineMeters(geospatial.Point{Lat: poi.Lat, Lng: poi.Lng}, line)
		if offset > maxCorridorOffsetMeters {
			continue
		}
		d := geospatial.Haversine(origin.Lat, origin.Lng, poi.Lat, poi.Lng)
		poi.Distance = &d
		within = append(within, scored{poi: poi, offset: offset})
	}
	sort.Slice(within, func(i, j int) bool { return within[i].offset < within[j].offset })

	out := make([]domain.POI, len(within))
	for i, s := range within {
		out[i] = s.poi
	}
	return out
}

func routeLine(geometry []domain.Coordinate) []geospatial.Point {
	line := make([]geospatial.Point, len(geometry))
	for i, c := range geometry {
		line[i] = geospatial.Point{Lat: c.Lat, Lng: c.Lng}
	}
	return line
}
