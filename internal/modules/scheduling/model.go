// README: Request, origin and candidate types for slot suggestion.
package scheduling

import (
	"time"

	"slotwise/internal/types"
)

type OriginSource string

const (
	OriginLastJob OriginSource = "last_job"
	OriginBase    OriginSource = "base"
	OriginUnknown OriginSource = "unknown"
)

type Origin struct {
	Point  types.Point
	Source OriginSource
}

// Request is one slot-suggestion call. Day is a calendar date in YYYY-MM-DD
// form interpreted in the policy time zone.
type Request struct {
	OrgID           types.ID
	Day             string
	DurationMinutes int
	Risk            RiskTier
	Base            *types.Point
	LastJob         *types.Point
	Target          types.Point
}

// SlotCandidate is a proposed window. Every candidate of one response shares
// BufferMinutes and Confidence.
type SlotCandidate struct {
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	BufferMinutes int       `json:"bufferMinutes"`
	Confidence    float64   `json:"confidence"`
	Rationale     string    `json:"rationale"`
}

// resolveOrigin prefers the last job location, then the base, and falls back
// to (0,0) tagged unknown.
func resolveOrigin(req Request) Origin {
	switch {
	case req.LastJob != nil:
		return Origin{Point: *req.LastJob, Source: OriginLastJob}
	case req.Base != nil:
		return Origin{Point: *req.Base, Source: OriginBase}
	default:
		return Origin{Point: types.Point{}, Source: OriginUnknown}
	}
}
