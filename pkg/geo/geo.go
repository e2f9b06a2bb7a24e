// Package geo holds the spherical-distance arithmetic shared by the query
// engines and the search index.
package geo

import "math"

const (
	earthRadiusKm = 6371.0

	// One degree of latitude is ~111km everywhere; one degree of longitude
	// shrinks with cos(lat).
	kmPerDegree = 111.0

	// Keeps the longitude delta finite near the poles. Facility data is
	// urban, but the formula must not divide by zero.
	minCosLat = 0.01
)

// DistanceKm computes the great-circle distance between two coordinates
// using the haversine formula.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Pow(math.Sin(dLat/2), 2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Pow(math.Sin(dLng/2), 2)

	return earthRadiusKm * 2 * math.Asin(math.Sqrt(a))
}

// Box is an axis-aligned coordinate range used as a cheap prefilter before
// exact distance computation.
type Box struct {
	MinLat float64
	MaxLat float64
	MinLng float64
	MaxLng float64
}

// BoundingBox computes the box enclosing the circle of radiusKm around the
// center. The box over-approximates; callers still filter by exact distance.
func BoundingBox(lat, lng, radiusKm float64) Box {
	latDelta := radiusKm / kmPerDegree

	cosLat := math.Cos(toRadians(lat))
	if cosLat < minCosLat {
		cosLat = minCosLat
	}
	lngDelta := radiusKm / (kmPerDegree * cosLat)

	return Box{
		MinLat: lat - latDelta,
		MaxLat: lat + latDelta,
		MinLng: lng - lngDelta,
		MaxLng: lng + lngDelta,
	}
}

// Contains reports whether the coordinate falls inside the box.
func (b Box) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// ValidCoordinates reports whether the pair is a plausible position: inside
// the coordinate ranges and not the (0,0) null island that feeds use for
// "unknown".
func ValidCoordinates(lat, lng float64) bool {
	if lat == 0 && lng == 0 {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
