// README: Heuristic confidence score for a request's travel estimate.
package scheduling

import "math"

// Confidence starts at 1, subtracts the unknown-origin penalty and a distance
// penalty of min(km/DistancePenaltyKm, MaxDistancePenalty), then floors the
// result at ConfidenceFloor.
func (p Policy) Confidence(source OriginSource, distanceKm float64) float64 {
	score := 1.0
	if source == OriginUnknown {
		score -= p.UnknownOriginPenalty
	}
	score -= math.Min(math.Max(distanceKm, 0)/p.DistancePenaltyKm, p.MaxDistancePenalty)
	return math.Min(1, math.Max(score, p.ConfidenceFloor))
}
