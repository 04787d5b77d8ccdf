package domain

// Isochrone is the reachable area around an origin for a transport mode and
// one or more time ranges. Consumed read-only: the bbox is a cheap
// pre-filter, the polygons are the authoritative boundary.
type Isochrone struct {
	Polygons     [][]Coordinate `json:"polygons"`
	Bounds       Bounds         `json:"bounds"`
	Mode         TransportMode  `json:"mode"`
	RangeSeconds []int          `json:"range_seconds"`
}

// RouteStep is a single turn instruction within a route leg.
type RouteStep struct {
	Instruction     string  `json:"instruction"`
	Name            string  `json:"name,omitempty"`
	DistanceMeters  float64 `json:"distance_meters"`
	DurationMinutes float64 `json:"duration_minutes"`
}

// RouteInfo is one leg of a journey. A multi-stop journey is an ordered
// sequence of legs, never a merged object. Elevation and average speed are
// derived from geometry when the routing collaborator omits them.
type RouteInfo struct {
	DistanceMeters  float64      `json:"distance_meters"`
	DurationMinutes float64      `json:"duration_minutes"`
	Geometry        []Coordinate `json:"geometry,omitempty"`
	Steps           []RouteStep  `json:"steps,omitempty"`
	Warnings        []string     `json:"warnings,omitempty"`

	ElevationGain   *float64 `json:"elevation_gain,omitempty"` // meters
	ElevationLoss   *float64 `json:"elevation_loss,omitempty"` // meters
	AverageSpeedKmh *float64 `json:"average_speed_kmh,omitempty"`
}

// MatrixResult holds pairwise durations (seconds) and distances (meters)
// between a set of locations. Rows are sources, columns destinations.
type MatrixResult struct {
	Durations [][]float64 `json:"durations,omitempty"`
	Distances [][]float64 `json:"distances,omitempty"`
}

// OptimizedStop is one visit in an optimized vehicle route.
type OptimizedStop struct {
	Type           string   `json:"type"` // "start", "job" or "end"
	JobID          int      `json:"job_id,omitempty"`
	Location       Location `json:"location"`
	ArrivalSeconds float64  `json:"arrival_seconds"`
}

// OptimizedRoute is the ordered plan for a single vehicle.
type OptimizedRoute struct {
	VehicleID       int             `json:"vehicle_id"`
	DurationSeconds float64         `json:"duration_seconds"`
	DistanceMeters  float64         `json:"distance_meters"`
	Steps           []OptimizedStop `json:"steps"`
}

// OptimizationResult is the output of a stopover-optimization call.
// Unassigned lists job IDs the optimizer could not place.
type OptimizationResult struct {
	Routes     []OptimizedRoute `json:"routes"`
	Unassigned []int            `json:"unassigned,omitempty"`
}
