package geo

import "math"

const earthRadiusMeters = 6_371_000.0

// ProjectLocal converts (lat, lon) to a local tangent-plane (x, y) in
// meters relative to (originLat, originLon): x grows east, y grows north.
// Accurate for regions small enough that earth curvature is negligible
// (a few tens of kilometers); larger extents need a proper UTM projection.
func ProjectLocal(originLat, originLon, lat, lon float64) (x, y float64) {
	cosLat := math.Cos(originLat * math.Pi / 180)
	x = (lon - originLon) * cosLat * math.Pi / 180 * earthRadiusMeters
	y = (lat - originLat) * math.Pi / 180 * earthRadiusMeters
	return x, y
}
