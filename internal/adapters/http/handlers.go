package http

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/wayfinder/internal/core/domain"
	"github.com/samirrijal/wayfinder/internal/core/ports"
	"github.com/samirrijal/wayfinder/internal/core/usecases"
	"github.com/samirrijal/wayfinder/internal/pkg/metrics"
)

// QueryHandler runs a natural-language query through the agent pipeline.
// The body is always the full pipeline response; on failure the status
// code mirrors the structured error inside it.
func QueryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req domain.QueryRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		if strings.TrimSpace(req.Query) == "" {
			return errBadRequest(c, "query is required")
		}
		if len(req.Query) > 1000 {
			return errBadRequest(c, "query too long (max 1000 characters)")
		}

		start := time.Now()
		resp := deps.Orchestrator.HandleQuery(c.Context(), req)

		intent := "unknown"
		if resp.Classification != nil {
			intent = string(resp.Classification.Intent)
			metrics.ClassificationsTotal.WithLabelValues(
				string(resp.Classification.Source), intent).Inc()
		}
		metrics.ObserveQuery(intent, resp.AgentUsed, resp.Success, time.Since(start))

		if !resp.Success && resp.Error != nil {
			return c.Status(statusForCode(resp.Error.Code)).JSON(resp)
		}
		return c.JSON(resp)
	}
}

// ClassifyRequest is the body of POST /v1/classify.
type ClassifyRequest struct {
	Query   string                    `json:"query"`
	History []domain.ConversationTurn `json:"conversation_history,omitempty"`
}

// ClassifyHandler exposes the two-stage classifier without dispatching
// any agent. Useful for debugging prompts and the rule fallback.
func ClassifyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req ClassifyRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		if strings.TrimSpace(req.Query) == "" {
			return errBadRequest(c, "query is required")
		}

		cq, err := deps.Classifier.Classify(c.Context(), req.Query, req.History)
		if err != nil {
			return errFromDomain(c, err)
		}
		metrics.ClassificationsTotal.WithLabelValues(
			string(cq.Source), string(cq.Intent)).Inc()
		return c.JSON(cq)
	}
}

// NearestPOIHandler returns the closest place of a category, escalating
// the search area until something is found.
func NearestPOIHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat := c.QueryFloat("lat", 0)
		lng := c.QueryFloat("lng", 0)
		if lat == 0 || lng == 0 {
			return errBadRequest(c, "lat and lng are required")
		}
		category := c.Query("category")
		if category == "" {
			return errBadRequest(c, "category is required")
		}

		out, err := deps.POIs.FindNearest(c.Context(), usecases.NearestPOIInput{
			Origin:   domain.Location{Lat: lat, Lng: lng},
			Category: domain.POICategory(category),
			Cuisine:  c.Query("cuisine"),
		})
		if err != nil {
			return errFromDomain(c, err)
		}

		c.Set("Cache-Control", "public, max-age=300")
		return c.JSON(out)
	}
}

// WithinTimeResponse pages the ranked matches and carries the isochrone
// they were filtered against.
type WithinTimeResponse struct {
	PaginatedResponse
	Isochrone *domain.Isochrone `json:"isochrone,omitempty"`
	Warnings  []string          `json:"warnings,omitempty"`
}

// POIsWithinTimeHandler returns places reachable within a travel-time
// budget, ranked and paginated.
func POIsWithinTimeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat := c.QueryFloat("lat", 0)
		lng := c.QueryFloat("lng", 0)
		if lat == 0 || lng == 0 {
			return errBadRequest(c, "lat and lng are required")
		}
		category := c.Query("category")
		if category == "" {
			return errBadRequest(c, "category is required")
		}
		transport, err := transportParam(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		out, err := deps.POIs.FindWithinTime(c.Context(), usecases.WithinTimeInput{
			Origin:     domain.Location{Lat: lat, Lng: lng},
			Category:   domain.POICategory(category),
			Transport:  transport,
			Minutes:    c.QueryInt("minutes", 15),
			Cuisine:    c.Query("cuisine"),
			SortBy:     c.Query("sort_by"),
			MaxResults: c.QueryInt("max_results", 0),
		})
		if err != nil {
			return errFromDomain(c, err)
		}

		// Apply offset/limit pagination on the ranked list
		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 50)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 100 {
			limit = 50
		}

		pois := out.POIs
		total := len(pois)
		if offset >= total {
			pois = nil
		} else {
			end := offset + limit
			if end > total {
				end = total
			}
			pois = pois[offset:end]
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		c.Set("Cache-Control", "public, max-age=300")
		return c.JSON(WithinTimeResponse{
			PaginatedResponse: PaginatedResponse{Data: pois, Pagination: pg},
			Isochrone:         out.Isochrone,
			Warnings:          out.Warnings,
		})
	}
}

// POIsNearPOIHandler resolves an anchor place first, then searches the
// primary category around it.
func POIsNearPOIHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat := c.QueryFloat("lat", 0)
		lng := c.QueryFloat("lng", 0)
		if lat == 0 || lng == 0 {
			return errBadRequest(c, "lat and lng are required")
		}
		category := c.Query("category")
		near := c.Query("near")
		if category == "" || near == "" {
			return errBadRequest(c, "category and near are required")
		}
		transport, err := transportParam(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		out, err := deps.POIs.FindNearPOI(c.Context(), usecases.NearPOIInput{
			Origin:            domain.Location{Lat: lat, Lng: lng},
			PrimaryCategory:   domain.POICategory(category),
			SecondaryCategory: domain.POICategory(near),
			Transport:         transport,
			Minutes:           c.QueryInt("minutes", 0),
			Cuisine:           c.Query("cuisine"),
			MaxResults:        c.QueryInt("max_results", 0),
		})
		if err != nil {
			return errFromDomain(c, err)
		}

		c.Set("Cache-Control", "public, max-age=300")
		return c.JSON(out)
	}
}

// EnrouteHandler finds a stopover along the way to a destination that
// costs the least extra travel time.
func EnrouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		origin, destination, err := endpointsParam(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		category := c.Query("category")
		if category == "" {
			return errBadRequest(c, "category is required")
		}
		transport, err := transportParam(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		var budget *int
		if v := c.QueryInt("budget_minutes", 0); v > 0 {
			budget = &v
		}

		out, err := deps.Enroute.FindEnroute(c.Context(), usecases.EnrouteInput{
			Origin:           origin,
			Destination:      destination,
			Category:         domain.POICategory(category),
			Transport:        transport,
			BudgetMinutes:    budget,
			MaxDetourMinutes: c.QueryFloat("max_detour_minutes", 0),
			Cuisine:          c.Query("cuisine"),
		})
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(out)
	}
}

// RouteHandler returns the fastest route between two points, optionally
// via waypoints.
func RouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		origin, destination, err := endpointsParam(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		transport, err := transportParam(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		waypoints, err := parseWaypoints(c.Query("waypoints"))
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		route, err := deps.Routes.GetRoute(c.Context(), usecases.RouteInput{
			Origin:      origin,
			Destination: destination,
			Waypoints:   waypoints,
			Transport:   transport,
			Elevation:   c.QueryBool("elevation", false),
		})
		if err != nil {
			return errFromDomain(c, err)
		}

		c.Set("Cache-Control", "public, max-age=60")
		return c.JSON(route)
	}
}

// GeocodeResponse carries the candidate locations for a free-text place.
type GeocodeResponse struct {
	Query   string            `json:"query"`
	Results []domain.Location `json:"results"`
}

// GeocodeHandler resolves free text to coordinates. An empty result list
// is a valid answer, not an error.
func GeocodeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := strings.TrimSpace(c.Query("q"))
		if q == "" {
			return errBadRequest(c, "q query parameter is required")
		}
		if len(q) > 200 {
			return errBadRequest(c, "query too long (max 200 characters)")
		}

		limit := c.QueryInt("limit", 1)
		if limit <= 0 || limit > 10 {
			limit = 1
		}

		locs, err := deps.Geocoder.Geocode(c.Context(), q, ports.GeocodeOptions{
			CountryCode: c.Query("country"),
			Limit:       limit,
		})
		if err != nil {
			return errFromDomain(c, err)
		}

		c.Set("Cache-Control", "public, max-age=3600")
		return c.JSON(GeocodeResponse{Query: q, Results: locs})
	}
}

// transportParam reads the transport query parameter. REST callers send
// canonical modes; fuzzy synonyms are the classifier's concern.
func transportParam(c *fiber.Ctx) (domain.TransportMode, error) {
	s := c.Query("transport")
	if s == "" {
		return domain.TransportWalking, nil
	}
	mode := domain.TransportMode(s)
	if !mode.Valid() {
		return "", fmt.Errorf("unknown transport mode %q", s)
	}
	return mode, nil
}

// endpointsParam reads the from_/to_ coordinate pairs shared by the route
// and enroute endpoints.
func endpointsParam(c *fiber.Ctx) (domain.Location, domain.Location, error) {
	fromLat := c.QueryFloat("from_lat", 0)
	fromLng := c.QueryFloat("from_lng", 0)
	toLat := c.QueryFloat("to_lat", 0)
	toLng := c.QueryFloat("to_lng", 0)
	if fromLat == 0 || fromLng == 0 {
		return domain.Location{}, domain.Location{}, fmt.Errorf("from_lat and from_lng are required")
	}
	if toLat == 0 || toLng == 0 {
		return domain.Location{}, domain.Location{}, fmt.Errorf("to_lat and to_lng are required")
	}
	return domain.Location{Lat: fromLat, Lng: fromLng}, domain.Location{Lat: toLat, Lng: toLng}, nil
}

// parseWaypoints parses a "lat,lng|lat,lng" list.
func parseWaypoints(s string) ([]domain.Location, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, "|")
	if len(parts) > 10 {
		return nil, fmt.Errorf("too many waypoints (max 10)")
	}
	pts := make([]domain.Location, 0, len(parts))
	for _, part := range parts {
		coords := strings.SplitN(part, ",", 2)
		if len(coords) != 2 {
			return nil, fmt.Errorf("waypoint %q must be lat,lng", part)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(coords[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("waypoint %q must be lat,lng", part)
		}
		lng, err := strconv.ParseFloat(strings.TrimSpace(coords[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("waypoint %q must be lat,lng", part)
		}
		pts = append(pts, domain.Location{Lat: lat, Lng: lng})
	}
	return pts, nil
}
