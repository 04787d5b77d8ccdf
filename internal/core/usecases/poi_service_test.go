package usecases_test

import (
	"context"
	"testing"

	"github.com/samirrijal/wayfinder/internal/core/domain"
	"github.com/samirrijal/wayfinder/internal/core/ports"
	"github.com/samirrijal/wayfinder/internal/core/usecases"
)

func TestPOIService_FindNearest_PicksClosest(t *testing.T) {
	places := &mockPlaces{findPOIsFn: func(_ context.Context, q ports.POIQuery) ([]domain.POI, error) {
		// 0.001 deg of latitude is roughly 111 m.
		return []domain.POI{
			poiAt("far", "Far Cafe", domain.CategoryCafe, houston.Lat+0.004, houston.Lng),
			poiAt("near", "Near Cafe", domain.CategoryCafe, houston.Lat+0.001, houston.Lng),
			poiAt("mid", "Mid Cafe", domain.CategoryCafe, houston.Lat+0.002, houston.Lng),
		}, nil
	}}
	svc := usecases.NewPOIService(&mockRouting{}, places, nil)

	out, err := svc.FindNearest(context.Background(), usecases.NearestPOIInput{
		Origin:   houston,
		Category: domain.CategoryCafe,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Best.ID != "near" {
		t.Errorf("expected closest poi, got %s", out.Best.ID)
	}
	if out.Best.Distance == nil {
		t.Fatal("expected distance annotation")
	}
	if len(out.Alternatives) != 2 {
		t.Errorf("expected 2 alternatives, got %d", len(out.Alternatives))
	}
	if out.Alternatives[0].ID != "mid" {
		t.Errorf("expected alternatives sorted by distance, got %s first", out.Alternatives[0].ID)
	}
	want := usecases.SearchStrategy{Transport: domain.TransportWalking, Minutes: 10}
	if out.Strategy != want {
		t.Errorf("expected first rung %+v, got %+v", want, out.Strategy)
	}
}

func TestPOIService_FindNearest_EscalatesToDriving(t *testing.T) {
	// A POI ~30 km out: beyond every walking rung and the 10/20/30 minute
	// driving rungs, inside the 60 minute driving rung.
	places := &mockPlaces{findPOIsFn: func(_ context.Context, q ports.POIQuery) ([]domain.POI, error) {
		return []domain.POI{
			poiAt("remote", "Remote Hospital", domain.CategoryHospital, houston.Lat+0.27, houston.Lng),
		}, nil
	}}
	svc := usecases.NewPOIService(&mockRouting{}, places, nil)

	out, err := svc.FindNearest(context.Background(), usecases.NearestPOIInput{
		Origin:   houston,
		Category: domain.CategoryHospital,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := usecases.SearchStrategy{Transport: domain.TransportDriving, Minutes: 60}
	if out.Strategy != want {
		t.Errorf("expected winning strategy %+v, got %+v", want, out.Strategy)
	}
	if places.calls != 8 {
		t.Errorf("expected the full ladder to be walked, got %d calls", places.calls)
	}
}

func TestPOIService_FindNearest_NoResults(t *testing.T) {
	places := &mockPlaces{findPOIsFn: func(context.Context, ports.POIQuery) ([]domain.POI, error) {
		return nil, nil
	}}
	svc := usecases.NewPOIService(&mockRouting{}, places, nil)

	_, err := svc.FindNearest(context.Background(), usecases.NearestPOIInput{
		Origin:   houston,
		Category: domain.CategoryCafe,
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if code := domainCode(t, err); code != domain.ErrNoResultsFound {
		t.Errorf("expected NO_RESULTS_FOUND, got %s", code)
	}
	if places.calls != 8 {
		t.Errorf("expected all 8 rungs tried, got %d", places.calls)
	}
}

func TestPOIService_FindNearest_ValidatesInput(t *testing.T) {
	svc := usecases.NewPOIService(&mockRouting{}, &mockPlaces{}, nil)

	_, err := svc.FindNearest(context.Background(), usecases.NearestPOIInput{
		Origin:   domain.Location{},
		Category: domain.CategoryCafe,
	})
	if code := domainCode(t, err); code != domain.ErrMissingRequiredField {
		t.Errorf("expected MISSING_REQUIRED_FIELD for unset origin, got %s", code)
	}

	_, err = svc.FindNearest(context.Background(), usecases.NearestPOIInput{
		Origin:   domain.Location{Lat: 95, Lng: -200},
		Category: domain.CategoryCafe,
	})
	if code := domainCode(t, err); code != domain.ErrInvalidCoordinates {
		t.Errorf("expected INVALID_COORDINATES, got %s", code)
	}

	_, err = svc.FindNearest(context.Background(), usecases.NearestPOIInput{
		Origin:   houston,
		Category: "spaceport",
	})
	if code := domainCode(t, err); code != domain.ErrInvalidInput {
		t.Errorf("expected INVALID_INPUT for unknown category, got %s", code)
	}
}

// isochrone fixture: a tight polygon well inside a generous bbox, so bbox
// membership alone is not enough to pass the filter.
func squareIsochrone(center domain.Location, polyDeg, boxDeg float64) *domain.Isochrone {
	ring := []domain.Coordinate{
		{Lat: center.Lat - polyDeg, Lng: center.Lng - polyDeg},
		{Lat: center.Lat - polyDeg, Lng: center.Lng + polyDeg},
		{Lat: center.Lat + polyDeg, Lng: center.Lng + polyDeg},
		{Lat: center.Lat + polyDeg, Lng: center.Lng - polyDeg},
	}
	return &domain.Isochrone{
		Polygons: [][]domain.Coordinate{ring},
		Bounds: domain.Bounds{
			MinLat: center.Lat - boxDeg, MinLng: center.Lng - boxDeg,
			MaxLat: center.Lat + boxDeg, MaxLng: center.Lng + boxDeg,
		},
	}
}

func TestPOIService_FindWithinTime_PolygonIsAuthoritative(t *testing.T) {
	routing := &mockRouting{isochronesFn: func(_ context.Context, origin domain.Location, mode domain.TransportMode, rangeSeconds []int) (*domain.Isochrone, error) {
		if len(rangeSeconds) != 1 || rangeSeconds[0] != 900 {
			t.Errorf("expected a single 900s range, got %v", rangeSeconds)
		}
		return squareIsochrone(origin, 0.01, 0.05), nil
	}}
	places := &mockPlaces{findPOIsFn: func(context.Context, ports.POIQuery) ([]domain.POI, error) {
		return []domain.POI{
			poiAt("in", "Inside Cafe", domain.CategoryCafe, houston.Lat+0.005, houston.Lng),
			poiAt("out", "Corner Cafe", domain.CategoryCafe, houston.Lat+0.03, houston.Lng),
		}, nil
	}}
	svc := usecases.NewPOIService(routing, places, nil)

	out, err := svc.FindWithinTime(context.Background(), usecases.WithinTimeInput{
		Origin:    houston,
		Category:  domain.CategoryCafe,
		Transport: domain.TransportWalking,
		Minutes:   15,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.POIs) != 1 {
		t.Fatalf("expected 1 poi after polygon filter, got %d", len(out.POIs))
	}
	if out.POIs[0].ID != "in" {
		t.Errorf("expected the in-polygon poi, got %s", out.POIs[0].ID)
	}
	if len(out.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", out.Warnings)
	}
}

func TestPOIService_FindWithinTime_BboxFallbackWarns(t *testing.T) {
	routing := &mockRouting{isochronesFn: func(_ context.Context, origin domain.Location, _ domain.TransportMode, _ []int) (*domain.Isochrone, error) {
		iso := squareIsochrone(origin, 0.01, 0.05)
		iso.Polygons = nil
		return iso, nil
	}}
	places := &mockPlaces{findPOIsFn: func(context.Context, ports.POIQuery) ([]domain.POI, error) {
		return []domain.POI{
			poiAt("a", "Cafe A", domain.CategoryCafe, houston.Lat+0.005, houston.Lng),
			poiAt("b", "Cafe B", domain.CategoryCafe, houston.Lat+0.03, houston.Lng),
		}, nil
	}}
	svc := usecases.NewPOIService(routing, places, nil)

	out, err := svc.FindWithinTime(context.Background(), usecases.WithinTimeInput{
		Origin:    houston,
		Category:  domain.CategoryCafe,
		Transport: domain.TransportWalking,
		Minutes:   15,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.POIs) != 2 {
		t.Fatalf("expected bbox-only filtering to keep both, got %d", len(out.POIs))
	}
	if len(out.Warnings) != 1 {
		t.Fatalf("expected a degraded-filter warning, got %v", out.Warnings)
	}
}

func TestPOIService_FindWithinTime_TooManyResults(t *testing.T) {
	routing := &mockRouting{isochronesFn: func(_ context.Context, origin domain.Location, _ domain.TransportMode, _ []int) (*domain.Isochrone, error) {
		return squareIsochrone(origin, 0.05, 0.05), nil
	}}
	places := &mockPlaces{findPOIsFn: func(context.Context, ports.POIQuery) ([]domain.POI, error) {
		pois := make([]domain.POI, 0, 101)
		for i := 0; i < 101; i++ {
			pois = append(pois, poiAt("p", "Cafe", domain.CategoryCafe,
				houston.Lat+float64(i%10)*0.001, houston.Lng+float64(i/10)*0.001))
		}
		return pois, nil
	}}
	svc := usecases.NewPOIService(routing, places, nil)

	_, err := svc.FindWithinTime(context.Background(), usecases.WithinTimeInput{
		Origin:    houston,
		Category:  domain.CategoryCafe,
		Transport: domain.TransportWalking,
		Minutes:   15,
	})
	if code := domainCode(t, err); code != domain.ErrTooManyResults {
		t.Errorf("expected TOO_MANY_RESULTS, got %s", code)
	}
}

func TestPOIService_FindWithinTime_InvalidMinutes(t *testing.T) {
	svc := usecases.NewPOIService(&mockRouting{}, &mockPlaces{}, nil)

	for _, minutes := range []int{0, -5, 500} {
		_, err := svc.FindWithinTime(context.Background(), usecases.WithinTimeInput{
			Origin:    houston,
			Category:  domain.CategoryCafe,
			Transport: domain.TransportWalking,
			Minutes:   minutes,
		})
		if code := domainCode(t, err); code != domain.ErrInvalidTimeConstraint {
			t.Errorf("minutes=%d: expected INVALID_TIME_CONSTRAINT, got %s", minutes, code)
		}
	}
}

func TestPOIService_FindWithinTime_SortsByRating(t *testing.T) {
	routing := &mockRouting{isochronesFn: func(_ context.Context, origin domain.Location, _ domain.TransportMode, _ []int) (*domain.Isochrone, error) {
		return squareIsochrone(origin, 0.05, 0.05), nil
	}}
	places := &mockPlaces{findPOIsFn: func(context.Context, ports.POIQuery) ([]domain.POI, error) {
		low := poiAt("low", "Low", domain.CategoryRestaurant, houston.Lat+0.001, houston.Lng)
		low.Tags = map[string]string{"rating": "3.1"}
		high := poiAt("high", "High", domain.CategoryRestaurant, houston.Lat+0.01, houston.Lng)
		high.Tags = map[string]string{"rating": "4.8"}
		return []domain.POI{low, high}, nil
	}}
	svc := usecases.NewPOIService(routing, places, nil)

	out, err := svc.FindWithinTime(context.Background(), usecases.WithinTimeInput{
		Origin:    houston,
		Category:  domain.CategoryRestaurant,
		Transport: domain.TransportWalking,
		Minutes:   20,
		SortBy:    usecases.SortByRating,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.POIs[0].ID != "high" {
		t.Errorf("expected rating sort to put the 4.8 first, got %s", out.POIs[0].ID)
	}
}

func TestPOIService_FindNearPOI_AnnotatesBothDistances(t *testing.T) {
	anchorLoc := domain.Location{Lat: houston.Lat + 0.008, Lng: houston.Lng}
	routing := &mockRouting{isochronesFn: func(_ context.Context, origin domain.Location, _ domain.TransportMode, rangeSeconds []int) (*domain.Isochrone, error) {
		if len(rangeSeconds) != 1 || rangeSeconds[0] != 900 {
			t.Errorf("expected the default 15 minute sub-radius, got %v", rangeSeconds)
		}
		return squareIsochrone(origin, 0.02, 0.05), nil
	}}
	places := &mockPlaces{findPOIsFn: func(_ context.Context, q ports.POIQuery) ([]domain.POI, error) {
		switch q.Category {
		case domain.CategoryHospital:
			return []domain.POI{
				poiAt("h1", "Memorial Hospital", domain.CategoryHospital, anchorLoc.Lat, anchorLoc.Lng),
				poiAt("h2", "Far Hospital", domain.CategoryHospital, houston.Lat+0.02, houston.Lng),
			}, nil
		case domain.CategoryCafe:
			return []domain.POI{
				poiAt("c1", "Anchor Cafe", domain.CategoryCafe, anchorLoc.Lat+0.002, anchorLoc.Lng),
			}, nil
		}
		return nil, nil
	}}
	svc := usecases.NewPOIService(routing, places, nil)

	out, err := svc.FindNearPOI(context.Background(), usecases.NearPOIInput{
		Origin:            houston,
		PrimaryCategory:   domain.CategoryCafe,
		SecondaryCategory: domain.CategoryHospital,
		Transport:         domain.TransportWalking,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Anchor.ID != "h1" {
		t.Errorf("expected the closest hospital as anchor, got %s", out.Anchor.ID)
	}
	if len(out.POIs) != 1 {
		t.Fatalf("expected 1 cafe, got %d", len(out.POIs))
	}
	poi := out.POIs[0]
	if poi.Distance == nil || poi.DistanceFromAnchor == nil || poi.TravelTimeFromAnchor == nil {
		t.Fatal("expected distance-from-user, distance-from-anchor and travel-time annotations")
	}
	if *poi.DistanceFromAnchor >= *poi.Distance {
		t.Errorf("cafe should be closer to the anchor than to the user: anchor=%v user=%v",
			*poi.DistanceFromAnchor, *poi.Distance)
	}
}

func TestPOIService_FindNearPOI_NoAnchor(t *testing.T) {
	places := &mockPlaces{findPOIsFn: func(context.Context, ports.POIQuery) ([]domain.POI, error) {
		return nil, nil
	}}
	svc := usecases.NewPOIService(&mockRouting{}, places, nil)

	_, err := svc.FindNearPOI(context.Background(), usecases.NearPOIInput{
		Origin:            houston,
		PrimaryCategory:   domain.CategoryCafe,
		SecondaryCategory: domain.CategoryHospital,
	})
	if code := domainCode(t, err); code != domain.ErrNoResultsFound {
		t.Errorf("expected NO_RESULTS_FOUND when no anchor exists, got %s", code)
	}
}

func TestPOIService_RankByTravelTime_UsesMatrix(t *testing.T) {
	routing := &mockRouting{matrixFn: func(_ context.Context, locations []domain.Location, _ domain.TransportMode, _ []string) (*domain.MatrixResult, error) {
		if len(locations) != 3 {
			t.Fatalf("expected anchor + 2 candidates, got %d locations", len(locations))
		}
		// Anchor row: the second candidate is quicker to reach.
		return &domain.MatrixResult{
			Durations: [][]float64{{0, 600, 300}},
			Distances: [][]float64{{0, 4000, 2500}},
		}, nil
	}}
	svc := usecases.NewPOIService(routing, &mockPlaces{}, nil)

	pois := []domain.POI{
		poiAt("slow", "Slow", domain.CategoryCafe, houston.Lat+0.001, houston.Lng),
		poiAt("fast", "Fast", domain.CategoryCafe, houston.Lat+0.03, houston.Lng),
	}
	ranked, usedMatrix := svc.RankByTravelTime(context.Background(), houston, pois, domain.TransportDriving)
	if !usedMatrix {
		t.Fatal("expected matrix ranking")
	}
	if ranked[0].ID != "fast" {
		t.Errorf("expected matrix duration to win over haversine, got %s first", ranked[0].ID)
	}
	if ranked[0].TravelTimeFromAnchor == nil || *ranked[0].TravelTimeFromAnchor != 5 {
		t.Errorf("expected 5 minute travel time, got %v", ranked[0].TravelTimeFromAnchor)
	}
}

func TestPOIService_RankByTravelTime_FallsBackToEstimate(t *testing.T) {
	routing := &mockRouting{matrixFn: func(context.Context, []domain.Location, domain.TransportMode, []string) (*domain.MatrixResult, error) {
		return nil, context.DeadlineExceeded
	}}
	svc := usecases.NewPOIService(routing, &mockPlaces{}, nil)

	pois := []domain.POI{
		poiAt("far", "Far", domain.CategoryCafe, houston.Lat+0.03, houston.Lng),
		poiAt("near", "Near", domain.CategoryCafe, houston.Lat+0.001, houston.Lng),
	}
	ranked, usedMatrix := svc.RankByTravelTime(context.Background(), houston, pois, domain.TransportWalking)
	if usedMatrix {
		t.Fatal("expected estimate fallback")
	}
	if ranked[0].ID != "near" {
		t.Errorf("expected haversine order, got %s first", ranked[0].ID)
	}
	if ranked[0].TravelTimeFromAnchor == nil || ranked[0].DistanceFromAnchor == nil {
		t.Fatal("expected estimate annotations")
	}
}

func TestPOIService_SearchResultsCached(t *testing.T) {
	places := &mockPlaces{findPOIsFn: func(context.Context, ports.POIQuery) ([]domain.POI, error) {
		return []domain.POI{
			poiAt("c", "Cafe", domain.CategoryCafe, houston.Lat+0.001, houston.Lng),
		}, nil
	}}
	cache := &mockCache{}
	svc := usecases.NewPOIService(&mockRouting{}, places, cache)

	in := usecases.NearestPOIInput{Origin: houston, Category: domain.CategoryCafe}
	if _, err := svc.FindNearest(context.Background(), in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first := places.calls
	if _, err := svc.FindNearest(context.Background(), in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if places.calls != first {
		t.Errorf("expected second search served from cache, got %d extra calls", places.calls-first)
	}
}
