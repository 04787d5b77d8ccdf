package geospatial

import "math"

// PointToSegmentMeters returns the perpendicular distance in meters from p
// to the segment a-b. Points are projected onto a local flat plane centered
// at p, which is accurate at the corridor scales used for route filtering.
func PointToSegmentMeters(p, a, b Point) float64 {
	mPerDegLat := 111320.0
	mPerDegLng := 111320.0 * math.Cos(toRad(p.Lat))

	ax := (a.Lng - p.Lng) * mPerDegLng
	ay := (a.Lat - p.Lat) * mPerDegLat
	bx := (b.Lng - p.Lng) * mPerDegLng
	by := (b.Lat - p.Lat) * mPerDegLat

	dx, dy := bx-ax, by-ay
	if dx == 0 && dy == 0 {
		return math.Hypot(ax, ay)
	}

	// Parameter of the projection of the origin (p) onto the segment.
	t := -(ax*dx + ay*dy) / (dx*dx + dy*dy)
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	return math.Hypot(ax+t*dx, ay+t*dy)
}

// DistanceToPolylineMeters returns the minimum distance from p to any
// segment of the line. A single-point line degenerates to point distance.
func DistanceToPolylineMeters(p Point, line []Point) float64 {
	switch len(line) {
	case 0:
		return math.Inf(1)
	case 1:
		return Haversine(p.Lat, p.Lng, line[0].Lat, line[0].Lng)
	}

	min := math.Inf(1)
	for i := 1; i < len(line); i++ {
		if d := PointToSegmentMeters(p, line[i-1], line[i]); d < min {
			min = d
		}
	}
	return min
}

// PolylineLengthMeters sums the haversine lengths of all segments.
func PolylineLengthMeters(line []Point) float64 {
	var total float64
	for i := 1; i < len(line); i++ {
		total += Haversine(line[i-1].Lat, line[i-1].Lng, line[i].Lat, line[i].Lng)
	}
	return total
}

// PolylineMidpoint returns the point at half the cumulative length of the
// line, interpolating linearly within the bracketing segment.
func PolylineMidpoint(line []Point) Point {
	if len(line) == 0 {
		return Point{}
	}
	if len(line) == 1 {
		return line[0]
	}

	half := PolylineLengthMeters(line) / 2
	var walked float64
	for i := 1; i < len(line); i++ {
		seg := Haversine(line[i-1].Lat, line[i-1].Lng, line[i].Lat, line[i].Lng)
		if walked+seg >= half && seg > 0 {
			f := (half - walked) / seg
			return Point{
				Lat: line[i-1].Lat + (line[i].Lat-line[i-1].Lat)*f,
				Lng: line[i-1].Lng + (line[i].Lng-line[i-1].Lng)*f,
			}
		}
		walked += seg
	}
	return line[len(line)-1]
}

// PolylineBounds returns the bounding box of the line.
func PolylineBounds(line []Point) (minLat, minLng, maxLat, maxLng float64) {
	if len(line) == 0 {
		return 0, 0, 0, 0
	}
	minLat, maxLat = line[0].Lat, line[0].Lat
	minLng, maxLng = line[0].Lng, line[0].Lng
	for _, p := range line[1:] {
		minLat = math.Min(minLat, p.Lat)
		maxLat = math.Max(maxLat, p.Lat)
		minLng = math.Min(minLng, p.Lng)
		maxLng = math.Max(maxLng, p.Lng)
	}
	return minLat, minLng, maxLat, maxLng
}

// ExpandBox grows a bounding box outward by the given number of meters on
// every side.
func ExpandBox(minLat, minLng, maxLat, maxLng, meters float64) (float64, float64, float64, float64) {
	latDelta := meters / 111320.0
	midLat := (minLat + maxLat) / 2
	lngDelta := meters / (111320.0 * math.Cos(toRad(midLat)))

	return minLat - latDelta, minLng - lngDelta, maxLat + latDelta, maxLng + lngDelta
}
