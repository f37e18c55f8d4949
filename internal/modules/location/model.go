// README: Technician position snapshot used as the travel origin for the next job.
package location

import (
	"time"

	"slotwise/internal/types"
)

// Snapshot is where a technician finished their most recent job.
type Snapshot struct {
	TechnicianID types.ID
	Position     types.Point
	RecordedAt   time.Time
}
