package usecases

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/samirrijal/wayfinder/internal/core/domain"
	"github.com/samirrijal/wayfinder/internal/core/ports"
	"github.com/samirrijal/wayfinder/internal/pkg/geospatial"
)

const (
	maxAlternatives   = 3
	defaultMaxResults = 20
	hardResultCap     = 100

	// Collaborator fan-out per bbox query. Nearest searches need few
	// results; area searches need headroom to detect oversized result sets.
	nearestFanout = 50
	areaFanout    = 150

	anchorSearchMinutes = 30
	defaultNearMinutes  = 15
	maxBudgetMinutes    = 120
)

// Sort orders accepted by FindWithinTime.
const (
	SortByDistance = "distance"
	SortByRating   = "rating"
)

// POIService implements the nearest, within-time and near-anchor searches.
type POIService struct {
	routing ports.RoutingService
	places  ports.POISearcher
	cache   ports.CacheService
}

// NewPOIService creates a POIService. cache may be nil.
func NewPOIService(routing ports.RoutingService, places ports.POISearcher, cache ports.CacheService) *POIService {
	return &POIService{routing: routing, places: places, cache: cache}
}

// NearestPOIInput asks for the closest POI of a category around an origin.
type NearestPOIInput struct {
	Origin   domain.Location
	Category domain.POICategory
	Cuisine  string
}

// NearestPOIOutput carries the winner, up to 3 runners-up and the ladder
// rung that found them.
type NearestPOIOutput struct {
	Best         domain.POI     `json:"best"`
	Alternatives []domain.POI   `json:"alternatives,omitempty"`
	Strategy     SearchStrategy `json:"strategy"`
}

// FindNearest walks the escalation ladder from a 10-minute walk out to a
// 60-minute drive and returns the closest match of the first rung that
// yields any. NO_RESULTS_FOUND is returned only after the whole ladder is
// exhausted.
func (s *POIService) FindNearest(ctx context.Context, in NearestPOIInput) (*NearestPOIOutput, error) {
	if err := validateOrigin(in.Origin); err != nil {
		return nil, err
	}
	if err := validateCategory(in.Category); err != nil {
		return nil, err
	}

	found, winning, lastErr := FirstSuccess(ctx, nearestLadder,
		func(ctx context.Context, rung SearchStrategy) ([]domain.POI, error) {
			return s.searchReachable(ctx, in.Origin, in.Category, in.Cuisine, rung)
		})
	if len(found) == 0 {
		if lastErr != nil {
			return nil, domain.AsDomainError(lastErr)
		}
		return nil, domain.NewError(domain.ErrNoResultsFound,
			fmt.Sprintf("no %s found within a 60 minute drive", in.Category))
	}

	sortByDistance(found)
	out := &NearestPOIOutput{Best: found[0], Strategy: winning}
	if len(found) > 1 {
		out.Alternatives = found[1:min(len(found), 1+maxAlternatives)]
	}
	return out, nil
}

// WithinTimeInput asks for every POI of a category reachable within a time
// budget. SortBy is SortByDistance (default) or SortByRating.
type WithinTimeInput struct {
	Origin     domain.Location
	Category   domain.POICategory
	Transport  domain.TransportMode
	Minutes    int
	Cuisine    string
	SortBy     string
	MaxResults int
}

// WithinTimeOutput carries the matches and the isochrone they were
// filtered against. Warnings flag degraded filtering.
type WithinTimeOutput struct {
	POIs      []domain.POI      `json:"pois"`
	Isochrone *domain.Isochrone `json:"isochrone,omitempty"`
	Warnings  []string          `json:"warnings,omitempty"`
}

// FindWithinTime requests a single isochrone at the caller's exact
// (transport, time), pre-filters POIs by its bbox and then applies the
// authoritative polygon test. When the isochrone carries no usable polygon
// the bbox filter stands alone and a warning is attached instead of
// failing the request.
func (s *POIService) FindWithinTime(ctx context.Context, in WithinTimeInput) (*WithinTimeOutput, error) {
	if err := validateOrigin(in.Origin); err != nil {
		return nil, err
	}
	if err := validateCategory(in.Category); err != nil {
		return nil, err
	}
	if in.Minutes <= 0 || in.Minutes > maxBudgetMinutes {
		return nil, domain.NewError(domain.ErrInvalidTimeConstraint,
			fmt.Sprintf("time constraint must be between 1 and %d minutes", maxBudgetMinutes))
	}
	transport := normalizeTransport(in.Transport)

	iso, err := s.isochrone(ctx, in.Origin, transport, in.Minutes*60)
	if err != nil {
		return nil, domain.AsDomainError(err)
	}

	bounds := isochroneSearchBounds(iso, in.Origin, transport, in.Minutes)
	pois, err := searchPOIs(ctx, s.places, s.cache, ports.POIQuery{
		Category:   in.Category,
		Bounds:     bounds,
		Cuisine:    in.Cuisine,
		MaxResults: areaFanout,
	})
	if err != nil {
		return nil, domain.AsDomainError(err)
	}

	out := &WithinTimeOutput{Isochrone: iso}

	rings := isochroneRings(iso)
	if len(rings) == 0 {
		out.Warnings = append(out.Warnings, "isochrone polygon unavailable, results filtered by bounding box only")
	}

	var kept []domain.POI
	for _, poi := range pois {
		if len(rings) > 0 && !geospatial.PointInIsochrone(geospatial.Point{Lat: poi.Lat, Lng: poi.Lng}, rings) {
			continue
		}
		d := geospatial.Haversine(in.Origin.Lat, in.Origin.Lng, poi.Lat, poi.Lng)
		poi.Distance = &d
		kept = append(kept, poi)
	}

	if len(kept) > hardResultCap {
		return nil, domain.NewError(domain.ErrTooManyResults,
			fmt.Sprintf("%d places match, narrow the category or shrink the time budget", len(kept))).
			WithDetail("count", len(kept))
	}

	if in.SortBy == SortByRating {
		sortByRating(kept)
	} else {
		sortByDistance(kept)
	}

	maxResults := in.MaxResults
	if maxResults <= 0 || maxResults > hardResultCap {
		maxResults = defaultMaxResults
	}
	if len(kept) > maxResults {
		kept = kept[:maxResults]
	}
	out.POIs = kept
	return out, nil
}

// NearPOIInput asks for primary-category POIs around the nearest
// secondary-category anchor. Minutes bounds the search around the anchor;
// zero means the default sub-radius.
type NearPOIInput struct {
	Origin            domain.Location
	PrimaryCategory   domain.POICategory
	SecondaryCategory domain.POICategory
	Transport         domain.TransportMode
	Minutes           int
	Cuisine           string
	MaxResults        int
}

// NearPOIOutput carries the anchor that was resolved and the candidates
// around it, annotated with distance from both the anchor and the caller.
type NearPOIOutput struct {
	Anchor   domain.POI   `json:"anchor"`
	POIs     []domain.POI `json:"pois"`
	Warnings []string     `json:"warnings,omitempty"`
}

// FindNearPOI resolves the nearest secondary-category anchor with a
// 30-minute walking/driving search, then runs an isochrone-bounded search
// for the primary category around that anchor.
func (s *POIService) FindNearPOI(ctx context.Context, in NearPOIInput) (*NearPOIOutput, error) {
	if err := validateOrigin(in.Origin); err != nil {
		return nil, err
	}
	if err := validateCategory(in.PrimaryCategory); err != nil {
		return nil, err
	}
	if in.SecondaryCategory == "" {
		return nil, domain.NewError(domain.ErrMissingRequiredField, "anchor category is required")
	}
	if !in.SecondaryCategory.Valid() {
		return nil, domain.NewError(domain.ErrInvalidInput,
			fmt.Sprintf("unknown poi category %q", in.SecondaryCategory))
	}

	anchor, err := s.findAnchor(ctx, in.Origin, in.SecondaryCategory)
	if err != nil {
		return nil, domain.AsDomainError(err)
	}

	minutes := in.Minutes
	if minutes <= 0 {
		minutes = defaultNearMinutes
	}
	transport := normalizeTransport(in.Transport)

	around, err := s.FindWithinTime(ctx, WithinTimeInput{
		Origin:     anchor.Location(),
		Category:   in.PrimaryCategory,
		Transport:  transport,
		Minutes:    minutes,
		Cuisine:    in.Cuisine,
		MaxResults: in.MaxResults,
	})
	if err != nil {
		return nil, domain.AsDomainError(err)
	}

	out := &NearPOIOutput{Anchor: *anchor, Warnings: around.Warnings}
	for _, poi := range around.POIs {
		fromAnchor := geospatial.Haversine(anchor.Lat, anchor.Lng, poi.Lat, poi.Lng)
		travel := geospatial.EstimateTravelMinutes(fromAnchor, string(transport))
		fromUser := geospatial.Haversine(in.Origin.Lat, in.Origin.Lng, poi.Lat, poi.Lng)
		poi.DistanceFromAnchor = &fromAnchor
		poi.TravelTimeFromAnchor = &travel
		poi.Distance = &fromUser
		out.POIs = append(out.POIs, poi)
	}
	if len(out.POIs) == 0 {
		return nil, domain.NewError(domain.ErrNoResultsFound,
			fmt.Sprintf("no %s found near the closest %s", in.PrimaryCategory, in.SecondaryCategory)).
			WithDetail("anchor", anchor.Name)
	}
	return out, nil
}

// findAnchor returns the closest POI of the anchor category, trying a
// 30-minute walk first and a 30-minute drive second.
func (s *POIService) findAnchor(ctx context.Context, origin domain.Location, category domain.POICategory) (*domain.POI, error) {
	ladder := []SearchStrategy{
		{Transport: domain.TransportWalking, Minutes: anchorSearchMinutes},
		{Transport: domain.TransportDriving, Minutes: anchorSearchMinutes},
	}
	found, _, lastErr := FirstSuccess(ctx, ladder,
		func(ctx context.Context, rung SearchStrategy) ([]domain.POI, error) {
			return s.searchReachable(ctx, origin, category, "", rung)
		})
	if len(found) == 0 {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, domain.NewError(domain.ErrNoResultsFound,
			fmt.Sprintf("no %s found within a 30 minute drive", category))
	}
	sortByDistance(found)
	return &found[0], nil
}

// RankByTravelTime orders candidates by travel time from the anchor using
// the routing matrix, annotating travel time and distance on each POI. On
// matrix failure the candidates are ranked by haversine estimate instead;
// the boolean reports whether real matrix durations were used.
func (s *POIService) RankByTravelTime(ctx context.Context, anchor domain.Location, pois []domain.POI, mode domain.TransportMode) ([]domain.POI, bool) {
	if len(pois) == 0 {
		return pois, false
	}

	locations := make([]domain.Location, 0, len(pois)+1)
	locations = append(locations, anchor)
	for _, p := range pois {
		locations = append(locations, p.Location())
	}

	matrix, err := s.matrix(ctx, locations, mode)
	if err != nil || len(matrix.Durations) == 0 || len(matrix.Durations[0]) != len(locations) {
		return rankByEstimate(anchor, pois, mode), false
	}

	durations := matrix.Durations[0]
	var distances []float64
	if len(matrix.Distances) > 0 && len(matrix.Distances[0]) == len(locations) {
		distances = matrix.Distances[0]
	}

	ranked := make([]domain.POI, len(pois))
	copy(ranked, pois)
	for i := range ranked {
		minutes := durations[i+1] / 60
		ranked[i].TravelTimeFromAnchor = &minutes
		if distances != nil {
			d := distances[i+1]
			ranked[i].DistanceFromAnchor = &d
		} else {
			d := geospatial.Haversine(anchor.Lat, anchor.Lng, ranked[i].Lat, ranked[i].Lng)
			ranked[i].DistanceFromAnchor = &d
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		return *ranked[i].TravelTimeFromAnchor < *ranked[j].TravelTimeFromAnchor
	})
	return ranked, true
}

// rankByEstimate is the degraded ranking path: haversine distance plus the
// mode speed constant.
func rankByEstimate(anchor domain.Location, pois []domain.POI, mode domain.TransportMode) []domain.POI {
	ranked := make([]domain.POI, len(pois))
	copy(ranked, pois)
	for i := range ranked {
		d := geospatial.Haversine(anchor.Lat, anchor.Lng, ranked[i].Lat, ranked[i].Lng)
		t := geospatial.EstimateTravelMinutes(d, string(mode))
		ranked[i].DistanceFromAnchor = &d
		ranked[i].TravelTimeFromAnchor = &t
	}
	sort.Slice(ranked, func(i, j int) bool {
		return *ranked[i].TravelTimeFromAnchor < *ranked[j].TravelTimeFromAnchor
	})
	return ranked
}

// searchReachable queries the POI collaborator over the bbox reachable
// within one ladder rung and keeps only POIs whose estimated travel time
// actually fits the budget. The bbox is a superset of the true reachable
// area, so the local travel-time filter is what enforces the rung.
func (s *POIService) searchReachable(ctx context.Context, origin domain.Location, category domain.POICategory, cuisine string, rung SearchStrategy) ([]domain.POI, error) {
	radius := geospatial.ReachableRadiusMeters(float64(rung.Minutes), string(rung.Transport))
	minLat, minLng, maxLat, maxLng := geospatial.BoundingBox(origin.Lat, origin.Lng, radius)

	pois, err := searchPOIs(ctx, s.places, s.cache, ports.POIQuery{
		Category:   category,
		Bounds:     domain.Bounds{MinLat: minLat, MinLng: minLng, MaxLat: maxLat, MaxLng: maxLng},
		Cuisine:    cuisine,
		MaxResults: nearestFanout,
	})
	if err != nil {
		return nil, err
	}

	var within []domain.POI
	for _, poi := range pois {
		d := geospatial.Haversine(origin.Lat, origin.Lng, poi.Lat, poi.Lng)
		if geospatial.EstimateTravelMinutes(d, string(rung.Transport)) > float64(rung.Minutes) {
			continue
		}
		poi.Distance = &d
		within = append(within, poi)
	}
	return within, nil
}

// searchPOIs is the cached POI collaborator call, shared by every search
// use case.
func searchPOIs(ctx context.Context, places ports.POISearcher, cache ports.CacheService, q ports.POIQuery) ([]domain.POI, error) {
	key := fmt.Sprintf("poi:%s:%s:%.5f,%.5f,%.5f,%.5f:%d",
		q.Category, q.Cuisine, q.Bounds.MinLat, q.Bounds.MinLng, q.Bounds.MaxLat, q.Bounds.MaxLng, q.MaxResults)
	var cached []domain.POI
	if cacheLookup(ctx, cache, key, &cached) {
		return cached, nil
	}

	pois, err := places.FindPOIs(ctx, q)
	if err != nil {
		return nil, domain.WrapError(domain.ErrPOISearchFailed, "poi search failed", err)
	}
	cacheStore(ctx, cache, key, pois, ttlPOISeconds)
	return pois, nil
}

// normalizeTransport mirrors the classifier default: anything unknown
// degrades to walking.
func normalizeTransport(m domain.TransportMode) domain.TransportMode {
	if !m.Valid() {
		return domain.TransportWalking
	}
	return m
}

// isochrone is the cached isochrone collaborator call.
func (s *POIService) isochrone(ctx context.Context, origin domain.Location, mode domain.TransportMode, rangeSeconds int) (*domain.Isochrone, error) {
	key := fmt.Sprintf("iso:%.5f,%.5f:%s:%d", origin.Lat, origin.Lng, mode, rangeSeconds)
	var cached domain.Isochrone
	if cacheLookup(ctx, s.cache, key, &cached) {
		return &cached, nil
	}

	iso, err := s.routing.Isochrones(ctx, origin, mode, []int{rangeSeconds})
	if err != nil {
		return nil, domain.WrapError(domain.ErrIsochroneFailed, "isochrone request failed", err)
	}
	cacheStore(ctx, s.cache, key, iso, ttlIsochroneSeconds)
	return iso, nil
}

// matrix is the cached travel-matrix collaborator call.
func (s *POIService) matrix(ctx context.Context, locations []domain.Location, mode domain.TransportMode) (*domain.MatrixResult, error) {
	key := fmt.Sprintf("matrix:%s:%s", mode, locationsKey(locations))
	var cached domain.MatrixResult
	if cacheLookup(ctx, s.cache, key, &cached) {
		return &cached, nil
	}

	result, err := s.routing.Matrix(ctx, locations, mode, []string{ports.MetricDuration, ports.MetricDistance})
	if err != nil {
		return nil, domain.WrapError(domain.ErrRoutingFailed, "matrix request failed", err)
	}
	cacheStore(ctx, s.cache, key, result, ttlMatrixSeconds)
	return result, nil
}

func locationsKey(locations []domain.Location) string {
	var b []byte
	for _, l := range locations {
		b = fmt.Appendf(b, "%.5f,%.5f;", l.Lat, l.Lng)
	}
	return string(b)
}

// isochroneSearchBounds prefers the collaborator's bbox, then the polygon
// extent, then the locally estimated reachable radius.
func isochroneSearchBounds(iso *domain.Isochrone, origin domain.Location, mode domain.TransportMode, minutes int) domain.Bounds {
	if !iso.Bounds.IsZero() {
		return iso.Bounds
	}

	var b domain.Bounds
	first := true
	for _, ring := range iso.Polygons {
		for _, c := range ring {
			if first {
				b = domain.Bounds{MinLat: c.Lat, MinLng: c.Lng, MaxLat: c.Lat, MaxLng: c.Lng}
				first = false
				continue
			}
			b.MinLat = min(b.MinLat, c.Lat)
			b.MinLng = min(b.MinLng, c.Lng)
			b.MaxLat = max(b.MaxLat, c.Lat)
			b.MaxLng = max(b.MaxLng, c.Lng)
		}
	}
	if !first {
		return b
	}

	radius := geospatial.ReachableRadiusMeters(float64(minutes), string(mode))
	minLat, minLng, maxLat, maxLng := geospatial.BoundingBox(origin.Lat, origin.Lng, radius)
	return domain.Bounds{MinLat: minLat, MinLng: minLng, MaxLat: maxLat, MaxLng: maxLng}
}

// isochroneRings converts isochrone polygons into rings for membership
// tests. Degenerate rings (fewer than 3 vertices) are dropped.
func isochroneRings(iso *domain.Isochrone) [][]geospatial.Point {
	var rings [][]geospatial.Point
	for _, ring := range iso.Polygons {
		if len(ring) < 3 {
			continue
		}
		pts := make([]geospatial.Point, len(ring))
		for i, c := range ring {
			pts[i] = geospatial.Point{Lat: c.Lat, Lng: c.Lng}
		}
		rings = append(rings, pts)
	}
	return rings
}

func validateOrigin(loc domain.Location) error {
	if loc.IsZero() {
		return domain.NewError(domain.ErrMissingRequiredField, "origin location is required")
	}
	if !loc.Valid() {
		return domain.NewError(domain.ErrInvalidCoordinates,
			fmt.Sprintf("coordinates (%v, %v) are out of range", loc.Lat, loc.Lng))
	}
	return nil
}

func validateCategory(cat domain.POICategory) error {
	if cat == "" {
		return domain.NewError(domain.ErrMissingRequiredField, "poi category is required")
	}
	if !cat.Valid() {
		return domain.NewError(domain.ErrInvalidInput, fmt.Sprintf("unknown poi category %q", cat))
	}
	return nil
}

func sortByDistance(pois []domain.POI) {
	sort.Slice(pois, func(i, j int) bool {
		return derefDistance(pois[i].Distance) < derefDistance(pois[j].Distance)
	})
}

func sortByRating(pois []domain.POI) {
	sort.Slice(pois, func(i, j int) bool {
		return poiRating(pois[i]) > poiRating(pois[j])
	})
}

func poiRating(p domain.POI) float64 {
	r, err := strconv.ParseFloat(p.Tags["rating"], 64)
	if err != nil {
		return 0
	}
	return r
}

func derefDistance(d *float64) float64 {
	if d == nil {
		return math.MaxFloat64
	}
	return *d
}
