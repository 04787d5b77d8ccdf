package geospatial

// Point is a latitude/longitude pair used by the pure geometry helpers.
type Point struct {
	Lat float64
	Lng float64
}

// PointInPolygon tests ring membership with the ray-casting algorithm.
// The ring may be open or closed; rings with fewer than 3 vertices contain
// nothing.
func PointInPolygon(p Point, ring []Point) bool {
	if len(ring) < 3 {
		return false
	}

	inside := false
	j := len(ring) - 1
	for i := 0; i < len(ring); i++ {
		yi, xi := ring[i].Lat, ring[i].Lng
		yj, xj := ring[j].Lat, ring[j].Lng

		if (yi > p.Lat) != (yj > p.Lat) &&
			p.Lng < (xj-xi)*(p.Lat-yi)/(yj-yi)+xi {
			inside = !inside
		}
		j = i
	}
	return inside
}

// PointInIsochrone reports whether the point is inside any polygon of an
// isochrone set. Isochrones for multiple ranges or centers may be unioned,
// so membership in a single polygon is enough.
func PointInIsochrone(p Point, polygons [][]Point) bool {
	for _, ring := range polygons {
		if PointInPolygon(p, ring) {
			return true
		}
	}
	return false
}
