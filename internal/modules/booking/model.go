// README: Booking aggregate (a confirmed slot candidate) and status definitions.
package booking

import (
	"time"

	"slotwise/internal/types"
)

type Status string

const (
	StatusNone      Status = "none"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

type Booking struct {
	ID            types.ID    `json:"id"`
	OrgID         types.ID    `json:"org_id"`
	TechnicianID  types.ID    `json:"technician_id"`
	Status        Status      `json:"status"`
	StatusVersion int         `json:"status_version"`
	Target        types.Point `json:"target"`
	Start         time.Time   `json:"start"`
	End           time.Time   `json:"end"`
	BufferMinutes int         `json:"buffer_minutes"`
	Confidence    float64     `json:"confidence"`
	Rationale     string      `json:"rationale"`
	CreatedAt     time.Time   `json:"created_at"`
	CancelledAt   *time.Time  `json:"cancelled_at,omitempty"`
	CancelReason  *string     `json:"cancel_reason,omitempty"`
}

type Event struct {
	ID         int64
	BookingID  types.ID
	FromStatus Status
	ToStatus   Status
	ActorType  string
	ActorID    *types.ID
	CreatedAt  time.Time
}

// AllowedTransitions represents the booking state flow as code.
var AllowedTransitions = map[Status][]Status{
	StatusNone:      {StatusConfirmed},
	StatusConfirmed: {StatusCancelled},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}
