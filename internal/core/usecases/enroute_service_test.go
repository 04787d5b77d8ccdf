package usecases_test

import (
	"context"
	"testing"

	"github.com/samirrijal/wayfinder/internal/core/domain"
	"github.com/samirrijal/wayfinder/internal/core/ports"
	"github.com/samirrijal/wayfinder/internal/core/usecases"
)

var enrouteDest = domain.Location{Lat: 29.9, Lng: -95.2}

// directRoute is a three-vertex line from houston to enrouteDest.
func directRoute(durationMinutes float64) domain.RouteInfo {
	return domain.RouteInfo{
		DistanceMeters:  20000,
		DurationMinutes: durationMinutes,
		Geometry: []domain.Coordinate{
			{Lat: houston.Lat, Lng: houston.Lng},
			{Lat: 29.83, Lng: -95.285},
			{Lat: enrouteDest.Lat, Lng: enrouteDest.Lng},
		},
	}
}

func TestEnrouteService_FindEnroute_PicksSmallestDetour(t *testing.T) {
	routing := &mockRouting{directionsFn: func(_ context.Context, coords []domain.Location, _ domain.TransportMode, _ ports.DirectionsOptions) ([]domain.RouteInfo, error) {
		if len(coords) == 2 {
			return []domain.RouteInfo{directRoute(30)}, nil
		}
		// Three-point evaluation: the on-route candidate costs a 15 minute
		// detour, the slightly offset one only 5.
		switch coords[1].DisplayName {
		case "On Route Fuel":
			return []domain.RouteInfo{{DistanceMeters: 24000, DurationMinutes: 45}}, nil
		case "Offset Fuel":
			return []domain.RouteInfo{{DistanceMeters: 22000, DurationMinutes: 35}}, nil
		}
		t.Fatalf("unexpected stopover %q", coords[1].DisplayName)
		return nil, nil
	}}
	places := &mockPlaces{findPOIsFn: func(context.Context, ports.POIQuery) ([]domain.POI, error) {
		return []domain.POI{
			poiAt("on", "On Route Fuel", domain.CategoryFuel, 29.83, -95.285),
			poiAt("off", "Offset Fuel", domain.CategoryFuel, 29.8372, -95.285),
		}, nil
	}}
	svc := usecases.NewEnrouteService(routing, places, nil)

	out, err := svc.FindEnroute(context.Background(), usecases.EnrouteInput{
		Origin:           houston,
		Destination:      enrouteDest,
		Category:         domain.CategoryFuel,
		Transport:        domain.TransportDriving,
		MaxDetourMinutes: 20,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Stopover == nil || out.Stopover.ID != "off" {
		t.Fatalf("expected the smallest-detour candidate even though another sits closer to the route, got %+v", out.Stopover)
	}
	if out.DetourMinutes != 5 {
		t.Errorf("expected 5 minute detour, got %v", out.DetourMinutes)
	}
	if out.Evaluated != 2 {
		t.Errorf("expected 2 evaluated candidates, got %d", out.Evaluated)
	}
	if out.StopoverRoute == nil || out.StopoverRoute.DurationMinutes != 35 {
		t.Errorf("expected the winning three-point route, got %+v", out.StopoverRoute)
	}
	if out.DirectRoute.DurationMinutes != 30 {
		t.Errorf("expected direct route preserved, got %v", out.DirectRoute.DurationMinutes)
	}
}

func TestEnrouteService_FindEnroute_BudgetFailFast(t *testing.T) {
	routing := &mockRouting{directionsFn: func(_ context.Context, coords []domain.Location, _ domain.TransportMode, _ ports.DirectionsOptions) ([]domain.RouteInfo, error) {
		return []domain.RouteInfo{directRoute(45)}, nil
	}}
	places := &mockPlaces{}
	svc := usecases.NewEnrouteService(routing, places, nil)

	_, err := svc.FindEnroute(context.Background(), usecases.EnrouteInput{
		Origin:        houston,
		Destination:   enrouteDest,
		Category:      domain.CategoryFuel,
		Transport:     domain.TransportDriving,
		BudgetMinutes: intPtr(30),
	})
	if code := domainCode(t, err); code != domain.ErrTimeConstraintExceeded {
		t.Fatalf("expected TIME_CONSTRAINT_EXCEEDED, got %s", code)
	}
	if places.calls != 0 {
		t.Errorf("expected no poi search after budget fail-fast, got %d calls", places.calls)
	}
}

func TestEnrouteService_FindEnroute_DetourOverMaxNotSelectable(t *testing.T) {
	routing := &mockRouting{directionsFn: func(_ context.Context, coords []domain.Location, _ domain.TransportMode, _ ports.DirectionsOptions) ([]domain.RouteInfo, error) {
		if len(coords) == 2 {
			return []domain.RouteInfo{directRoute(30)}, nil
		}
		// Every candidate costs more than the detour cap.
		return []domain.RouteInfo{{DistanceMeters: 30000, DurationMinutes: 55}}, nil
	}}
	places := &mockPlaces{findPOIsFn: func(context.Context, ports.POIQuery) ([]domain.POI, error) {
		return []domain.POI{
			poiAt("on", "On Route Fuel", domain.CategoryFuel, 29.83, -95.285),
		}, nil
	}}
	svc := usecases.NewEnrouteService(routing, places, nil)

	_, err := svc.FindEnroute(context.Background(), usecases.EnrouteInput{
		Origin:           houston,
		Destination:      enrouteDest,
		Category:         domain.CategoryFuel,
		Transport:        domain.TransportDriving,
		MaxDetourMinutes: 10,
	})
	if code := domainCode(t, err); code != domain.ErrNoResultsFound {
		t.Errorf("expected NO_RESULTS_FOUND when every detour exceeds the cap, got %s", code)
	}
}

func TestEnrouteService_FindEnroute_CorridorExcludesFarPOIs(t *testing.T) {
	routing := &mockRouting{directionsFn: func(_ context.Context, coords []domain.Location, _ domain.TransportMode, _ ports.DirectionsOptions) ([]domain.RouteInfo, error) {
		if len(coords) == 2 {
			return []domain.RouteInfo{directRoute(30)}, nil
		}
		t.Fatal("no candidate should reach evaluation")
		return nil, nil
	}}
	places := &mockPlaces{findPOIsFn: func(context.Context, ports.POIQuery) ([]domain.POI, error) {
		// ~5 km north of the corridor line.
		return []domain.POI{
			poiAt("far", "Far Fuel", domain.CategoryFuel, 29.875, -95.285),
		}, nil
	}}
	svc := usecases.NewEnrouteService(routing, places, nil)

	_, err := svc.FindEnroute(context.Background(), usecases.EnrouteInput{
		Origin:      houston,
		Destination: enrouteDest,
		Category:    domain.CategoryFuel,
		Transport:   domain.TransportDriving,
	})
	if code := domainCode(t, err); code != domain.ErrNoResultsFound {
		t.Errorf("expected NO_RESULTS_FOUND for an empty corridor, got %s", code)
	}
}

func TestEnrouteService_FindEnroute_ValidatesDestination(t *testing.T) {
	svc := usecases.NewEnrouteService(&mockRouting{}, &mockPlaces{}, nil)

	_, err := svc.FindEnroute(context.Background(), usecases.EnrouteInput{
		Origin:   houston,
		Category: domain.CategoryFuel,
	})
	if code := domainCode(t, err); code != domain.ErrMissingRequiredField {
		t.Errorf("expected MISSING_REQUIRED_FIELD for unset destination, got %s", code)
	}
}
