package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/samirrijal/wayfinder/internal/core/domain"
	"github.com/samirrijal/wayfinder/internal/core/ports"
	"github.com/samirrijal/wayfinder/internal/core/usecases"
)

// Tool names reported in agent traces. Dispatch is a closed switch over
// these operations; nothing is looked up by name at runtime.
const (
	toolFindNearest    = "find-nearest-poi"
	toolFindWithinTime = "find-pois-within-time"
	toolGeocode        = "geocode"
	toolGetRoute       = "get-route"
	toolTravelMatrix   = "travel-time-matrix"
	toolOptimize       = "optimize-stopover"
)

// Agent executes one classified query and reports a traced result.
type Agent interface {
	Execute(ctx context.Context, cq domain.ClassifiedQuery, userLoc *domain.Location) domain.AgentResult
}

// SimpleAgent is the single-step executor: one use case per query, no
// intermediate planning.
type SimpleAgent struct {
	pois    *usecases.POIService
	routes  *usecases.RouteService
	geocode *usecases.GeocodeService
}

// NewSimpleAgent creates a SimpleAgent.
func NewSimpleAgent(pois *usecases.POIService, routes *usecases.RouteService, geocode *usecases.GeocodeService) *SimpleAgent {
	return &SimpleAgent{pois: pois, routes: routes, geocode: geocode}
}

// DirectionsData pairs the resolved destination with the route to it.
type DirectionsData struct {
	Destination domain.Location   `json:"destination"`
	Route       *domain.RouteInfo `json:"route"`
}

// Execute dispatches on the classification: directions are their own
// branch, everything else is within-time when a time constraint is present
// and nearest when it is not.
func (a *SimpleAgent) Execute(ctx context.Context, cq domain.ClassifiedQuery, userLoc *domain.Location) domain.AgentResult {
	if userLoc == nil || userLoc.IsZero() {
		return failResult(domain.AgentSimple, domain.NewError(domain.ErrMissingRequiredField, "user location is required"))
	}

	if cq.Intent == domain.IntentGetDirections {
		return a.directions(ctx, cq, *userLoc)
	}
	if cq.Entities.TimeConstraint != nil {
		return a.withinTime(ctx, cq, *userLoc)
	}
	return a.nearest(ctx, cq, *userLoc)
}

func (a *SimpleAgent) nearest(ctx context.Context, cq domain.ClassifiedQuery, origin domain.Location) domain.AgentResult {
	e := cq.Entities
	tools := []string{toolFindNearest}
	reasoning := []string{fmt.Sprintf("searching for the nearest %s", e.PrimaryPOI)}

	out, err := a.pois.FindNearest(ctx, usecases.NearestPOIInput{
		Origin:   origin,
		Category: e.PrimaryPOI,
		Cuisine:  e.Cuisine,
	})
	if err != nil {
		return tracedFailure(domain.AgentSimple, tools, reasoning, err)
	}

	reasoning = append(reasoning, fmt.Sprintf("found %s with a %d minute %s search",
		out.Best.Name, out.Strategy.Minutes, out.Strategy.Transport))
	return domain.AgentResult{
		Success:   true,
		Agent:     domain.AgentSimple,
		Tools:     tools,
		Reasoning: reasoning,
		Data:      out,
	}
}

func (a *SimpleAgent) withinTime(ctx context.Context, cq domain.ClassifiedQuery, origin domain.Location) domain.AgentResult {
	e := cq.Entities
	tools := []string{toolFindWithinTime}
	reasoning := []string{fmt.Sprintf("searching for %s within %d minutes by %s",
		e.PrimaryPOI, *e.TimeConstraint, e.Transport)}

	out, err := a.pois.FindWithinTime(ctx, usecases.WithinTimeInput{
		Origin:    origin,
		Category:  e.PrimaryPOI,
		Transport: e.Transport,
		Minutes:   *e.TimeConstraint,
		Cuisine:   e.Cuisine,
	})
	if err != nil {
		return tracedFailure(domain.AgentSimple, tools, reasoning, err)
	}

	reasoning = append(reasoning, fmt.Sprintf("%d matches inside the isochrone", len(out.POIs)))
	return domain.AgentResult{
		Success:   true,
		Agent:     domain.AgentSimple,
		Tools:     tools,
		Reasoning: reasoning,
		Data:      out,
	}
}

func (a *SimpleAgent) directions(ctx context.Context, cq domain.ClassifiedQuery, origin domain.Location) domain.AgentResult {
	dest := strings.TrimSpace(cq.Entities.Destination)
	if dest == "" {
		return failResult(domain.AgentSimple, domain.NewError(domain.ErrMissingRequiredField, "a destination is required for directions"))
	}

	tools := []string{toolGeocode}
	reasoning := []string{fmt.Sprintf("geocoding %q", dest)}

	locs, err := a.geocode.Geocode(ctx, dest, ports.GeocodeOptions{Limit: 1})
	if err != nil {
		return tracedFailure(domain.AgentSimple, tools, reasoning, err)
	}
	if len(locs) == 0 {
		return tracedFailure(domain.AgentSimple, tools, reasoning,
			domain.NewError(domain.ErrNoResultsFound, fmt.Sprintf("could not locate %q", dest)))
	}

	tools = append(tools, toolGetRoute)
	reasoning = append(reasoning, fmt.Sprintf("routing to %s", locs[0].DisplayName))

	route, err := a.routes.GetRoute(ctx, usecases.RouteInput{
		Origin:      origin,
		Destination: locs[0],
		Transport:   cq.Entities.Transport,
	})
	if err != nil {
		return tracedFailure(domain.AgentSimple, tools, reasoning, err)
	}

	reasoning = append(reasoning, fmt.Sprintf("route found: %.1f km, %.0f minutes",
		route.DistanceMeters/1000, route.DurationMinutes))
	return domain.AgentResult{
		Success:   true,
		Agent:     domain.AgentSimple,
		Tools:     tools,
		Reasoning: reasoning,
		Data:      DirectionsData{Destination: locs[0], Route: route},
	}
}

func failResult(agent string, err error) domain.AgentResult {
	return domain.AgentResult{Agent: agent, Error: domain.AsDomainError(err)}
}

func tracedFailure(agent string, tools, reasoning []string, err error) domain.AgentResult {
	return domain.AgentResult{
		Agent:     agent,
		Tools:     tools,
		Reasoning: reasoning,
		Error:     domain.AsDomainError(err),
	}
}
