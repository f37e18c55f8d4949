// README: Scheduling policy (immutable tunables) shared by every stage of the slot pipeline.
package scheduling

import (
	"errors"
	"fmt"
	"time"
)

type RiskTier string

const (
	RiskLow  RiskTier = "low"
	RiskMed  RiskTier = "med"
	RiskHigh RiskTier = "high"
)

// RiskTiers lists the tiers in increasing order of tolerance.
var RiskTiers = []RiskTier{RiskLow, RiskMed, RiskHigh}

func ParseRiskTier(s string) (RiskTier, bool) {
	switch RiskTier(s) {
	case RiskLow, RiskMed, RiskHigh:
		return RiskTier(s), true
	}
	return "", false
}

// Policy holds the tunables of the travel and slot model. A Policy is treated
// as immutable once handed to a Service; the Service keeps its own copy.
type Policy struct {
	// UrbanMultiplier corrects great-circle distance for street routing.
	UrbanMultiplier float64
	// AverageSpeedKmh is the effective in-city speed including stops.
	AverageSpeedKmh float64
	// RiskBufferPct maps each tier to the percentage added on top of travel time.
	RiskBufferPct map[RiskTier]int
	// MaxBufferMinutes caps the buffer regardless of distance.
	MaxBufferMinutes int

	// WorkStart and WorkEnd are wall-clock offsets from local midnight.
	WorkStart time.Duration
	WorkEnd   time.Duration
	Location  *time.Location
	// StartOffsets are added to the work-day start to form candidate starts.
	StartOffsets []time.Duration

	UnknownOriginPenalty float64
	DistancePenaltyKm    float64
	MaxDistancePenalty   float64
	ConfidenceFloor      float64
}

// DefaultPolicy returns the stock tunables: 1.35 urban multiplier, 28 km/h,
// 10/20/30% risk buffers capped at 45 minutes, 08:00-17:00 UTC and the
// +0h/+2h/+5h/+7h start offsets.
func DefaultPolicy() Policy {
	return Policy{
		UrbanMultiplier: 1.35,
		AverageSpeedKmh: 28,
		RiskBufferPct: map[RiskTier]int{
			RiskLow:  10,
			RiskMed:  20,
			RiskHigh: 30,
		},
		MaxBufferMinutes: 45,
		WorkStart:        8 * time.Hour,
		WorkEnd:          17 * time.Hour,
		Location:         time.UTC,
		StartOffsets: []time.Duration{
			0,
			2 * time.Hour,
			5 * time.Hour,
			7 * time.Hour,
		},
		UnknownOriginPenalty: 0.2,
		DistancePenaltyKm:    30,
		MaxDistancePenalty:   0.4,
		ConfidenceFloor:      0.4,
	}
}

// Validate checks internal consistency. The risk table must be non-decreasing
// from low to high so that the buffer stays monotonic in risk.
func (p Policy) Validate() error {
	if !(p.UrbanMultiplier > 0) {
		return errors.New("urban multiplier must be positive")
	}
	if !(p.AverageSpeedKmh > 0) {
		return errors.New("average speed must be positive")
	}
	prev := 0
	for _, tier := range RiskTiers {
		pct, ok := p.RiskBufferPct[tier]
		if !ok {
			return fmt.Errorf("risk buffer for tier %q is missing", tier)
		}
		if pct < prev {
			return fmt.Errorf("risk buffer for tier %q (%d%%) is lower than the previous tier", tier, pct)
		}
		prev = pct
	}
	if p.MaxBufferMinutes < 0 {
		return errors.New("max buffer must not be negative")
	}
	if p.WorkStart < 0 || p.WorkEnd > 24*time.Hour || p.WorkStart >= p.WorkEnd {
		return fmt.Errorf("invalid work window %s-%s", FormatClock(p.WorkStart), FormatClock(p.WorkEnd))
	}
	if p.WorkStart%time.Minute != 0 || p.WorkEnd%time.Minute != 0 {
		return errors.New("work window must be aligned to whole minutes")
	}
	if p.Location == nil {
		return errors.New("time zone is required")
	}
	if len(p.StartOffsets) == 0 {
		return errors.New("at least one start offset is required")
	}
	for i, off := range p.StartOffsets {
		if off < 0 {
			return fmt.Errorf("start offset %s is negative", off)
		}
		if i > 0 && off <= p.StartOffsets[i-1] {
			return errors.New("start offsets must be strictly ascending")
		}
	}
	if p.UnknownOriginPenalty < 0 || p.UnknownOriginPenalty > 1 {
		return errors.New("unknown-origin penalty must be within [0,1]")
	}
	if !(p.DistancePenaltyKm > 0) {
		return errors.New("distance penalty divisor must be positive")
	}
	if p.MaxDistancePenalty < 0 || p.MaxDistancePenalty > 1 {
		return errors.New("max distance penalty must be within [0,1]")
	}
	if p.ConfidenceFloor < 0 || p.ConfidenceFloor > 1 {
		return errors.New("confidence floor must be within [0,1]")
	}
	return nil
}

func (p Policy) clone() Policy {
	c := p
	c.RiskBufferPct = make(map[RiskTier]int, len(p.RiskBufferPct))
	for k, v := range p.RiskBufferPct {
		c.RiskBufferPct[k] = v
	}
	c.StartOffsets = append([]time.Duration(nil), p.StartOffsets...)
	return c
}

// ParseClock parses an "HH:MM" wall-clock value into an offset from midnight.
// "24:00" is accepted as the end of the day.
func ParseClock(s string) (time.Duration, error) {
	if s == "24:00" {
		return 24 * time.Hour, nil
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q, want HH:MM", s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

func FormatClock(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(d/time.Hour), int((d%time.Hour)/time.Minute))
}
