// README: Travel-time and risk buffer model.
package scheduling

import "math"

// TravelMinutes converts a distance into whole minutes at the policy speed,
// always rounding up.
func (p Policy) TravelMinutes(distanceKm float64) int {
	if !(distanceKm > 0) {
		return 0
	}
	return int(math.Ceil(distanceKm / p.AverageSpeedKmh * 60))
}

// BufferMinutes is ceil(travel × (1+pct)) clamped to MaxBufferMinutes.
// The percentage is applied in integer arithmetic so that e.g. 10 × 1.1 is
// exactly 11 and not 12.
func (p Policy) BufferMinutes(travelMinutes int, risk RiskTier) int {
	if travelMinutes <= 0 {
		return 0
	}
	if travelMinutes >= p.MaxBufferMinutes {
		return p.MaxBufferMinutes
	}
	pct := p.RiskBufferPct[risk]
	buf := (travelMinutes*(100+pct) + 99) / 100
	if buf > p.MaxBufferMinutes {
		return p.MaxBufferMinutes
	}
	return buf
}
