// README: Candidate generation over the fixed start offsets of a work day.
package scheduling

import "time"

type slot struct {
	index int
	start time.Time
	end   time.Time
}

// workWindow returns the business-hours bounds for the calendar day of day
// in the policy zone. Bounds are built from wall-clock fields so DST days
// still open at the configured local time.
func (p Policy) workWindow(day time.Time) (time.Time, time.Time) {
	y, m, d := day.In(p.Location).Date()
	at := func(off time.Duration) time.Time {
		return time.Date(y, m, d, int(off/time.Hour), int((off%time.Hour)/time.Minute), 0, 0, p.Location)
	}
	return at(p.WorkStart), at(p.WorkEnd)
}

// generateCandidates applies each start offset to workStart and keeps the
// slots whose end (job plus buffer) does not pass workEnd. The result keeps
// offset order, which is chronological.
func (p Policy) generateCandidates(workStart, workEnd time.Time, durationMinutes, bufferMinutes int) []slot {
	window := int(workEnd.Sub(workStart) / time.Minute)
	// Checked in minutes first so huge durations never overflow time.Duration.
	if durationMinutes > window-bufferMinutes {
		return nil
	}
	length := time.Duration(durationMinutes+bufferMinutes) * time.Minute

	var out []slot
	for i, off := range p.StartOffsets {
		start := workStart.Add(off)
		end := start.Add(length)
		if end.After(workEnd) {
			continue
		}
		out = append(out, slot{index: i, start: start, end: end})
	}
	return out
}

// WithinWorkWindow reports whether [start, end] lies inside the business hours
// of start's calendar day in the policy zone.
func (p Policy) WithinWorkWindow(start, end time.Time) bool {
	if !end.After(start) {
		return false
	}
	ws, we := p.workWindow(start)
	return !start.Before(ws) && !end.After(we)
}
