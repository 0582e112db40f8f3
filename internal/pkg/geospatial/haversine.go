package geospatial

import "math"

const earthRadiusM = 6371000.0

// metersPerDegreeLat is the length of one degree of latitude.
const metersPerDegreeLat = 111320.0

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusM * c
}

// BoundingBox returns a bounding box around a point with the given radius in meters.
// Near the poles the longitude span widens to the whole range.
func BoundingBox(lat, lon, radiusMeters float64) (minLat, minLon, maxLat, maxLon float64) {
	latDelta := radiusMeters / metersPerDegreeLat

	cos := math.Cos(toRad(lat))
	if cos < 1e-6 {
		return math.Max(lat-latDelta, -90), -180, math.Min(lat+latDelta, 90), 180
	}
	lonDelta := radiusMeters / (metersPerDegreeLat * cos)

	return math.Max(lat-latDelta, -90), lon - lonDelta, math.Min(lat+latDelta, 90), lon + lonDelta
}

// WalkingMinutes estimates an approach walk over rough ground at 3 km/h, rounded up.
func WalkingMinutes(meters float64) int {
	if meters <= 0 {
		return 0
	}
	return int(math.Ceil(meters / 50))
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
