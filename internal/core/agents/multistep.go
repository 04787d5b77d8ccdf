package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/samirrijal/wayfinder/internal/core/domain"
	"github.com/samirrijal/wayfinder/internal/core/ports"
	"github.com/samirrijal/wayfinder/internal/core/usecases"
	"github.com/samirrijal/wayfinder/internal/pkg/geospatial"
)

const (
	// midpointSearchMinutes bounds the stopover candidate search around the
	// route midpoint.
	midpointSearchMinutes = 15
	// maxStopoverCandidates caps how many candidates get an optimization run.
	maxStopoverCandidates = 5
)

// Locale is the regional context used to enrich ambiguous geocode queries.
type Locale struct {
	City        string
	State       string
	CountryCode string
}

// MultiStepAgent executes compound queries as fixed plans of use-case
// calls, recording a per-step trace. Plan shape is selected by which
// secondary entity the classifier resolved.
type MultiStepAgent struct {
	pois    *usecases.POIService
	routes  *usecases.RouteService
	geocode *usecases.GeocodeService
	routing ports.RoutingService
	locale  Locale
}

// NewMultiStepAgent creates a MultiStepAgent.
func NewMultiStepAgent(
	pois *usecases.POIService,
	routes *usecases.RouteService,
	geocode *usecases.GeocodeService,
	routing ports.RoutingService,
	locale Locale,
) *MultiStepAgent {
	return &MultiStepAgent{pois: pois, routes: routes, geocode: geocode, routing: routing, locale: locale}
}

// NearPOIPlanData is the find-near-poi plan output: the resolved anchor
// and the candidates around it, ranked by travel time from the anchor.
type NearPOIPlanData struct {
	Anchor     domain.POI              `json:"anchor"`
	POIs       []domain.POI            `json:"pois"`
	Strategy   usecases.SearchStrategy `json:"strategy"`
	MatrixUsed bool                    `json:"matrix_used"`
}

// EnroutePlanData is the find-enroute plan output. Optimized is false when
// the stopover comes from the raw-candidate fallback.
type EnroutePlanData struct {
	Destination  domain.Location   `json:"destination"`
	DirectRoute  *domain.RouteInfo `json:"direct_route"`
	Stopover     *domain.POI       `json:"stopover,omitempty"`
	TotalMinutes float64           `json:"total_minutes,omitempty"`
	Optimized    bool              `json:"optimized"`
}

// Execute selects the plan: a resolved destination drives the enroute
// plan, a secondary category the near-poi plan.
func (a *MultiStepAgent) Execute(ctx context.Context, cq domain.ClassifiedQuery, userLoc *domain.Location) domain.AgentResult {
	if userLoc == nil || userLoc.IsZero() {
		return failResult(domain.AgentMultiStep, domain.NewError(domain.ErrMissingRequiredField, "user location is required"))
	}

	switch {
	case cq.Intent == domain.IntentFindEnroute && cq.Entities.Destination != "":
		return a.enroutePlan(ctx, cq, *userLoc)
	case cq.Entities.SecondaryPOI != "":
		return a.nearPOIPlan(ctx, cq, *userLoc)
	case cq.Entities.Destination != "":
		return a.enroutePlan(ctx, cq, *userLoc)
	default:
		return failResult(domain.AgentMultiStep,
			domain.NewError(domain.ErrMissingRequiredField, "a landmark or destination is required for a multi-step search"))
	}
}

// nearPOIPlan: resolve the nearest secondary-category anchor, escalate a
// primary-category search around it, then rank candidates by travel time
// from the anchor.
func (a *MultiStepAgent) nearPOIPlan(ctx context.Context, cq domain.ClassifiedQuery, origin domain.Location) domain.AgentResult {
	e := cq.Entities
	tools := []string{toolFindNearest}
	reasoning := []string{fmt.Sprintf("locating the nearest %s as the anchor", e.SecondaryPOI)}

	anchorOut, err := a.pois.FindNearest(ctx, usecases.NearestPOIInput{Origin: origin, Category: e.SecondaryPOI})
	if err != nil {
		return tracedFailure(domain.AgentMultiStep, tools, reasoning, err)
	}
	anchor := anchorOut.Best
	reasoning = append(reasoning, fmt.Sprintf("anchor resolved: %s", anchor.Name))

	tools = append(tools, toolFindWithinTime)
	reasoning = append(reasoning, fmt.Sprintf("searching for %s around the anchor", e.PrimaryPOI))

	candidates, rung, err := usecases.FirstSuccess(ctx, usecases.AnchorLadder(e.TimeConstraint),
		func(ctx context.Context, s usecases.SearchStrategy) ([]domain.POI, error) {
			out, err := a.pois.FindWithinTime(ctx, usecases.WithinTimeInput{
				Origin:    anchor.Location(),
				Category:  e.PrimaryPOI,
				Transport: s.Transport,
				Minutes:   s.Minutes,
				Cuisine:   e.Cuisine,
			})
			if err != nil {
				return nil, err
			}
			return out.POIs, nil
		})
	if err != nil {
		return tracedFailure(domain.AgentMultiStep, tools, reasoning, err)
	}
	if len(candidates) == 0 {
		reasoning = append(reasoning, "no candidates at any escalation level")
		return tracedFailure(domain.AgentMultiStep, tools, reasoning,
			domain.NewError(domain.ErrNoResultsFound, fmt.Sprintf("no %s found near %s", e.PrimaryPOI, anchor.Name)))
	}
	reasoning = append(reasoning, fmt.Sprintf("%d candidates from a %d minute %s search",
		len(candidates), rung.Minutes, rung.Transport))

	tools = append(tools, toolTravelMatrix)
	ranked, matrixUsed := a.pois.RankByTravelTime(ctx, anchor.Location(), candidates, e.Transport)
	if matrixUsed {
		reasoning = append(reasoning, "ranked by matrix travel time from the anchor")
	} else {
		reasoning = append(reasoning, "matrix unavailable, ranked by estimated travel time")
	}

	return domain.AgentResult{
		Success:   true,
		Agent:     domain.AgentMultiStep,
		Tools:     tools,
		Reasoning: reasoning,
		Data:      NearPOIPlanData{Anchor: anchor, POIs: ranked, Strategy: rung, MatrixUsed: matrixUsed},
	}
}

// enroutePlan: resolve the destination with progressive geocoding, compute
// the direct route, search stopover candidates near the route midpoint and
// pick the one the optimizer schedules with the lowest total duration.
func (a *MultiStepAgent) enroutePlan(ctx context.Context, cq domain.ClassifiedQuery, origin domain.Location) domain.AgentResult {
	e := cq.Entities
	tools := []string{toolGeocode}
	reasoning := []string{fmt.Sprintf("resolving destination %q", e.Destination)}

	dest, attempts, err := a.geocodeProgressive(ctx, e.Destination)
	if err != nil {
		return tracedFailure(domain.AgentMultiStep, tools, reasoning, err)
	}
	reasoning = append(reasoning, fmt.Sprintf("destination resolved to %s on attempt %d", dest.DisplayName, attempts))

	tools = append(tools, toolGetRoute)
	direct, err := a.routes.GetRoute(ctx, usecases.RouteInput{
		Origin:      origin,
		Destination: dest,
		Transport:   e.Transport,
	})
	if err != nil {
		return tracedFailure(domain.AgentMultiStep, tools, reasoning, err)
	}
	reasoning = append(reasoning, fmt.Sprintf("direct route: %.0f minutes", direct.DurationMinutes))

	if e.TimeConstraint != nil && direct.DurationMinutes > float64(*e.TimeConstraint) {
		reasoning = append(reasoning, "direct route alone exceeds the time budget, skipping the stopover search")
		return tracedFailure(domain.AgentMultiStep, tools, reasoning,
			domain.NewError(domain.ErrTimeConstraintExceeded,
				fmt.Sprintf("the direct route takes %.0f minutes, over the %d minute budget", direct.DurationMinutes, *e.TimeConstraint)).
				WithDetail("direct_minutes", direct.DurationMinutes).
				WithDetail("budget_minutes", *e.TimeConstraint))
	}

	mid := routeMidpoint(direct.Geometry, origin, dest)
	tools = append(tools, toolFindWithinTime)
	reasoning = append(reasoning, fmt.Sprintf("searching for %s near the route midpoint", e.PrimaryPOI))

	found, err := a.pois.FindWithinTime(ctx, usecases.WithinTimeInput{
		Origin:     mid,
		Category:   e.PrimaryPOI,
		Transport:  e.Transport,
		Minutes:    midpointSearchMinutes,
		Cuisine:    e.Cuisine,
		MaxResults: maxStopoverCandidates,
	})
	if err != nil {
		return tracedFailure(domain.AgentMultiStep, tools, reasoning, err)
	}
	if len(found.POIs) == 0 {
		return tracedFailure(domain.AgentMultiStep, tools, reasoning,
			domain.NewError(domain.ErrNoResultsFound, fmt.Sprintf("no %s near the route to %s", e.PrimaryPOI, dest.DisplayName)))
	}
	candidates := found.POIs
	reasoning = append(reasoning, fmt.Sprintf("%d stopover candidates near the midpoint", len(candidates)))

	tools = append(tools, toolOptimize)
	best, total, err := a.optimizeStopovers(ctx, origin, dest, candidates)
	if err != nil {
		// The candidates are already distance-sorted; the nearest raw one
		// and the un-optimized direct route are still a useful answer.
		reasoning = append(reasoning, "stopover optimization failed, returning the nearest candidate un-optimized")
		stop := candidates[0]
		return domain.AgentResult{
			Success:   true,
			Agent:     domain.AgentMultiStep,
			Tools:     tools,
			Reasoning: reasoning,
			Data:      EnroutePlanData{Destination: dest, DirectRoute: direct, Stopover: &stop, Optimized: false},
		}
	}

	reasoning = append(reasoning, fmt.Sprintf("optimized stopover: %s, %.0f minutes total", best.Name, total))
	return domain.AgentResult{
		Success:   true,
		Agent:     domain.AgentMultiStep,
		Tools:     tools,
		Reasoning: reasoning,
		Data:      EnroutePlanData{Destination: dest, DirectRoute: direct, Stopover: best, TotalMinutes: total, Optimized: true},
	}
}

// geocodeVariants builds the retry list: the raw text, then the raw text
// qualified with the configured city and state, then downtown forms when
// the text mentions downtown.
func (a *MultiStepAgent) geocodeVariants(raw string) []string {
	raw = strings.TrimSpace(raw)
	variants := []string{raw}
	if a.locale.City != "" && a.locale.State != "" {
		variants = append(variants, fmt.Sprintf("%s, %s, %s", raw, a.locale.City, a.locale.State))
	}
	if a.locale.City != "" {
		variants = append(variants, fmt.Sprintf("%s, %s", raw, a.locale.City))
	}
	if strings.Contains(strings.ToLower(raw), "downtown") && a.locale.City != "" {
		variants = append(variants,
			fmt.Sprintf("downtown %s", a.locale.City),
			fmt.Sprintf("%s downtown", a.locale.City))
	}
	return variants
}

// geocodeProgressive tries each variant until one resolves. An attempt that
// cleanly finds nothing clears the previous attempt's error, mirroring the
// ladder semantics of the POI searches.
func (a *MultiStepAgent) geocodeProgressive(ctx context.Context, raw string) (domain.Location, int, error) {
	variants := a.geocodeVariants(raw)

	var lastErr error
	for i, v := range variants {
		locs, err := a.geocode.Geocode(ctx, v, ports.GeocodeOptions{CountryCode: a.locale.CountryCode, Limit: 1})
		if err != nil {
			lastErr = err
			continue
		}
		if len(locs) > 0 {
			return locs[0], i + 1, nil
		}
		lastErr = nil
	}

	if lastErr != nil {
		return domain.Location{}, len(variants), domain.AsDomainError(lastErr)
	}
	return domain.Location{}, len(variants),
		domain.NewError(domain.ErrNoResultsFound, fmt.Sprintf("could not locate %q with any context variant", raw))
}

// optimizeStopovers runs one single-vehicle optimization per candidate and
// keeps the assignment with the lowest total duration. An error is returned
// only when no candidate could be scheduled at all.
func (a *MultiStepAgent) optimizeStopovers(ctx context.Context, origin, dest domain.Location, candidates []domain.POI) (*domain.POI, float64, error) {
	var (
		best      *domain.POI
		bestTotal float64
		lastErr   error
	)

	for i := range candidates {
		c := candidates[i]
		res, err := a.routing.Optimize(ctx,
			[]ports.OptimizationJob{{ID: i + 1, Location: c.Location()}},
			[]ports.OptimizationVehicle{{ID: 1, Start: origin, End: dest}})
		if err != nil {
			lastErr = err
			continue
		}
		if len(res.Routes) == 0 || len(res.Unassigned) > 0 {
			continue
		}

		total := res.Routes[0].DurationSeconds / 60
		if best == nil || total < bestTotal {
			best = &c
			bestTotal = total
		}
	}

	if best == nil {
		if lastErr != nil {
			return nil, 0, domain.WrapError(domain.ErrOptimizationFailed, "stopover optimization failed", lastErr)
		}
		return nil, 0, domain.NewError(domain.ErrOptimizationFailed, "no stopover could be scheduled")
	}
	return best, bestTotal, nil
}

// routeMidpoint picks the half-length point of the route geometry, falling
// back to the straight-line midpoint when no geometry was returned.
func routeMidpoint(geometry []domain.Coordinate, origin, dest domain.Location) domain.Location {
	if len(geometry) >= 2 {
		pts := make([]geospatial.Point, len(geometry))
		for i, c := range geometry {
			pts[i] = geospatial.Point{Lat: c.Lat, Lng: c.Lng}
		}
		mid := geospatial.PolylineMidpoint(pts)
		return domain.Location{Lat: mid.Lat, Lng: mid.Lng}
	}
	return domain.Location{
		Lat: (origin.Lat + dest.Lat) / 2,
		Lng: (origin.Lng + dest.Lng) / 2,
	}
}
