package ors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/samirrijal/wayfinder/internal/core/domain"
	"github.com/samirrijal/wayfinder/internal/core/ports"
	"github.com/samirrijal/wayfinder/internal/pkg/metrics"
)

// alternativeCount is the number of route alternatives requested when the
// caller asks for them. The service supports alternatives only between two
// coordinates.
const alternativeCount = 3

// Client implements ports.RoutingService against an OpenRouteService-shaped
// HTTP API (isochrones, directions, matrix, optimization).
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// profile maps a transport mode to a routing profile. Public transport
// routing is not offered by the service; driving is the closest estimate.
func profile(mode domain.TransportMode) string {
	switch mode {
	case domain.TransportDriving, domain.TransportPublicTransport:
		return "driving-car"
	case domain.TransportCycling:
		return "cycling-regular"
	default:
		return "foot-walking"
	}
}

func (c *Client) Isochrones(ctx context.Context, origin domain.Location, mode domain.TransportMode, rangeSeconds []int) (*domain.Isochrone, error) {
	payload := map[string]any{
		"locations":  [][]float64{{origin.Lng, origin.Lat}},
		"range":      rangeSeconds,
		"range_type": "time",
	}

	var out struct {
		BBox     []float64 `json:"bbox"`
		Features []struct {
			Geometry struct {
				Coordinates [][][]float64 `json:"coordinates"`
			} `json:"geometry"`
		} `json:"features"`
	}
	if err := c.post(ctx, "/v2/isochrones/"+profile(mode), "isochrones", payload, &out); err != nil {
		return nil, err
	}
	if len(out.Features) == 0 {
		return nil, fmt.Errorf("isochrones: no features in response")
	}

	iso := &domain.Isochrone{
		Mode:         mode,
		RangeSeconds: rangeSeconds,
	}
	for _, f := range out.Features {
		if len(f.Geometry.Coordinates) == 0 {
			continue
		}
		ring := make([]domain.Coordinate, 0, len(f.Geometry.Coordinates[0]))
		for _, pos := range f.Geometry.Coordinates[0] {
			if len(pos) < 2 {
				continue
			}
			ring = append(ring, domain.Coordinate{Lat: pos[1], Lng: pos[0]})
		}
		iso.Polygons = append(iso.Polygons, ring)
	}
	if len(iso.Polygons) == 0 {
		return nil, fmt.Errorf("isochrones: empty geometry")
	}

	if len(out.BBox) >= 4 {
		iso.Bounds = domain.Bounds{MinLng: out.BBox[0], MinLat: out.BBox[1], MaxLng: out.BBox[2], MaxLat: out.BBox[3]}
	} else {
		iso.Bounds = ringBounds(iso.Polygons)
	}
	return iso, nil
}

func (c *Client) Directions(ctx context.Context, coords []domain.Location, mode domain.TransportMode, opts ports.DirectionsOptions) ([]domain.RouteInfo, error) {
	positions := make([][]float64, len(coords))
	for i, l := range coords {
		positions[i] = []float64{l.Lng, l.Lat}
	}
	payload := map[string]any{
		"coordinates":  positions,
		"elevation":    opts.Elevation,
		"instructions": opts.Instructions,
	}
	if opts.Alternatives {
		payload["alternative_routes"] = map[string]any{"target_count": alternativeCount}
	}

	var out struct {
		Features []struct {
			Properties struct {
				Summary struct {
					Distance float64 `json:"distance"`
					Duration float64 `json:"duration"`
				} `json:"summary"`
				Ascent   *float64 `json:"ascent"`
				Descent  *float64 `json:"descent"`
				Segments []struct {
					Steps []struct {
						Distance    float64 `json:"distance"`
						Duration    float64 `json:"duration"`
						Instruction string  `json:"instruction"`
						Name        string  `json:"name"`
					} `json:"steps"`
				} `json:"segments"`
				Warnings []struct {
					Message string `json:"message"`
				} `json:"warnings"`
			} `json:"properties"`
			Geometry struct {
				Coordinates [][]float64 `json:"coordinates"`
			} `json:"geometry"`
		} `json:"features"`
	}
	if err := c.post(ctx, "/v2/directions/"+profile(mode)+"/geojson", "directions", payload, &out); err != nil {
		return nil, err
	}

	routes := make([]domain.RouteInfo, 0, len(out.Features))
	for _, f := range out.Features {
		route := domain.RouteInfo{
			DistanceMeters:  f.Properties.Summary.Distance,
			DurationMinutes: f.Properties.Summary.Duration / 60,
			ElevationGain:   f.Properties.Ascent,
			ElevationLoss:   f.Properties.Descent,
		}
		for _, pos := range f.Geometry.Coordinates {
			if len(pos) < 2 {
				continue
			}
			coord := domain.Coordinate{Lat: pos[1], Lng: pos[0]}
			if len(pos) >= 3 {
				ele := pos[2]
				coord.Elevation = &ele
			}
			route.Geometry = append(route.Geometry, coord)
		}
		for _, seg := range f.Properties.Segments {
			for _, st := range seg.Steps {
				route.Steps = append(route.Steps, domain.RouteStep{
					Instruction:     st.Instruction,
					Name:            st.Name,
					DistanceMeters:  st.Distance,
					DurationMinutes: st.Duration / 60,
				})
			}
		}
		for _, w := range f.Properties.Warnings {
			route.Warnings = append(route.Warnings, w.Message)
		}
		routes = append(routes, route)
	}
	return routes, nil
}

func (c *Client) Matrix(ctx context.Context, locations []domain.Location, mode domain.TransportMode, matrixMetrics []string) (*domain.MatrixResult, error) {
	positions := make([][]float64, len(locations))
	for i, l := range locations {
		positions[i] = []float64{l.Lng, l.Lat}
	}
	payload := map[string]any{
		"locations": positions,
		"metrics":   matrixMetrics,
	}

	var out domain.MatrixResult
	if err := c.post(ctx, "/v2/matrix/"+profile(mode), "matrix", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Optimize(ctx context.Context, jobs []ports.OptimizationJob, vehicles []ports.OptimizationVehicle) (*domain.OptimizationResult, error) {
	jobList := make([]map[string]any, len(jobs))
	for i, j := range jobs {
		entry := map[string]any{
			"id":       j.ID,
			"location": []float64{j.Location.Lng, j.Location.Lat},
		}
		if j.ServiceSeconds > 0 {
			entry["service"] = j.ServiceSeconds
		}
		jobList[i] = entry
	}
	vehicleList := make([]map[string]any, len(vehicles))
	for i, v := range vehicles {
		vehicleList[i] = map[string]any{
			"id":      v.ID,
			"profile": "driving-car",
			"start":   []float64{v.Start.Lng, v.Start.Lat},
			"end":     []float64{v.End.Lng, v.End.Lat},
		}
	}
	payload := map[string]any{"jobs": jobList, "vehicles": vehicleList}

	var out struct {
		Routes []struct {
			Vehicle  int     `json:"vehicle"`
			Duration float64 `json:"duration"`
			Distance float64 `json:"distance"`
			Steps    []struct {
				Type     string    `json:"type"`
				Job      int       `json:"job"`
				Location []float64 `json:"location"`
				Arrival  float64   `json:"arrival"`
			} `json:"steps"`
		} `json:"routes"`
		Unassigned []struct {
			ID int `json:"id"`
		} `json:"unassigned"`
	}
	if err := c.post(ctx, "/optimization", "optimize", payload, &out); err != nil {
		return nil, err
	}

	result := &domain.OptimizationResult{}
	for _, r := range out.Routes {
		route := domain.OptimizedRoute{
			VehicleID:       r.Vehicle,
			DurationSeconds: r.Duration,
			DistanceMeters:  r.Distance,
		}
		for _, s := range r.Steps {
			stop := domain.OptimizedStop{
				Type:           s.Type,
				JobID:          s.Job,
				ArrivalSeconds: s.Arrival,
			}
			if len(s.Location) >= 2 {
				stop.Location = domain.Location{Lat: s.Location[1], Lng: s.Location[0]}
			}
			route.Steps = append(route.Steps, stop)
		}
		result.Routes = append(result.Routes, route)
	}
	for _, u := range out.Unassigned {
		result.Unassigned = append(result.Unassigned, u.ID)
	}
	return result, nil
}

// post sends a JSON payload and decodes a JSON reply.
func (c *Client) post(ctx context.Context, path, op string, payload, out any) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveCollaborator("ors", op, err, time.Since(start)) }()

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: marshal: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read body: %w", op, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: HTTP %d: %s", op, resp.StatusCode, snippet(data))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decode: %w", op, err)
	}
	return nil
}

// snippet trims an error body for log-friendly messages.
func snippet(data []byte) string {
	const max = 200
	if len(data) > max {
		data = data[:max]
	}
	return string(bytes.TrimSpace(data))
}

// ringBounds computes a bounding box over all polygon vertices, for
// responses that omit a bbox.
func ringBounds(polygons [][]domain.Coordinate) domain.Bounds {
	b := domain.Bounds{MinLat: 90, MinLng: 180, MaxLat: -90, MaxLng: -180}
	for _, ring := range polygons {
		for _, p := range ring {
			if p.Lat < b.MinLat {
				b.MinLat = p.Lat
			}
			if p.Lat > b.MaxLat {
				b.MaxLat = p.Lat
			}
			if p.Lng < b.MinLng {
				b.MinLng = p.Lng
			}
			if p.Lng > b.MaxLng {
				b.MaxLng = p.Lng
			}
		}
	}
	return b
}
