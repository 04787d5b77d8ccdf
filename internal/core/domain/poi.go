package domain

// POI is a point of interest returned by the search collaborator.
// The distance/travel-time fields are computed per search, relative to the
// origin or anchor used for that search — never authoritative.
type POI struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Category POICategory       `json:"category"`
	Lat      float64           `json:"lat"`
	Lng      float64           `json:"lng"`
	Tags     map[string]string `json:"tags,omitempty"`

	Distance             *float64 `json:"distance,omitempty"`                // meters from the search origin
	TravelTimeFromAnchor *float64 `json:"travel_time_from_anchor,omitempty"` // minutes
	DistanceFromAnchor   *float64 `json:"distance_from_anchor,omitempty"`    // meters
}

// Location returns the POI position as a Location.
func (p POI) Location() Location {
	return Location{Lat: p.Lat, Lng: p.Lng, DisplayName: p.Name}
}
