package geospatial

// Average speeds in meters per second, used to estimate travel time when a
// routing-service time is unavailable. The estimate is a fallback, never a
// substitute for a real routed duration.
const (
	SpeedWalkingMS         = 1.4
	SpeedDrivingMS         = 13.9
	SpeedCyclingMS         = 4.2
	SpeedPublicTransportMS = 8.3
)

// ModeSpeedMS returns the average speed for a transport mode name. Unknown
// modes fall back to walking, the most conservative estimate.
func ModeSpeedMS(mode string) float64 {
	switch mode {
	case "driving":
		return SpeedDrivingMS
	case "cycling":
		return SpeedCyclingMS
	case "public_transport":
		return SpeedPublicTransportMS
	default:
		return SpeedWalkingMS
	}
}

// EstimateTravelMinutes converts a straight-line distance into an estimated
// travel time in minutes for the given mode.
func EstimateTravelMinutes(distanceMeters float64, mode string) float64 {
	if distanceMeters <= 0 {
		return 0
	}
	return distanceMeters / ModeSpeedMS(mode) / 60
}

// ReachableRadiusMeters is the inverse estimate: how far one can travel in
// the given number of minutes at the mode's average speed.
func ReachableRadiusMeters(minutes float64, mode string) float64 {
	if minutes <= 0 {
		return 0
	}
	return minutes * 60 * ModeSpeedMS(mode)
}
