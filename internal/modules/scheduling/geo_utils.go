// README: Distance estimator; great-circle distance scaled by the urban multiplier.
package scheduling

import (
	"math"

	"slotwise/internal/types"
)

const earthRadiusKm = 6371.0

// haversineKm returns the great-circle distance in kilometres between two
// points specified in decimal degrees.
func haversineKm(a, b types.Point) float64 {
	dLat := degreesToRadians(b.Lat - a.Lat)
	dLng := degreesToRadians(b.Lng - a.Lng)

	rLat1 := degreesToRadians(a.Lat)
	rLat2 := degreesToRadians(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	h = math.Min(1, math.Max(0, h))
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// EstimateDistanceKm is the straight-line distance corrected by the urban
// routing multiplier. No routing service is consulted.
func (p Policy) EstimateDistanceKm(a, b types.Point) float64 {
	return haversineKm(a, b) * p.UrbanMultiplier
}
