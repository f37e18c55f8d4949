// README: Request validation; runs before any computation.
package scheduling

import (
	"time"

	"slotwise/internal/types"
)

const (
	dayLayout      = "2006-01-02"
	maxOrgIDLength = 64
)

// IsValidOrgID accepts 1-64 characters of letters, digits, '-' and '_'.
func IsValidOrgID(v types.ID) bool {
	if len(v) == 0 || len(v) > maxOrgIDLength {
		return false
	}
	for _, c := range v {
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '-' || c == '_' {
			continue
		}
		return false
	}
	return true
}

func validateOrgID(id types.ID) error {
	if !IsValidOrgID(id) {
		return invalid("org_id", "must be 1-%d characters of [A-Za-z0-9_-]", maxOrgIDLength)
	}
	return nil
}

type validRequest struct {
	day  time.Time
	risk RiskTier
}

// validateRequest checks every field except the organization id, which the
// caller validates first to pick the policy.
func validateRequest(req Request, loc *time.Location) (validRequest, error) {
	var v validRequest

	day, err := time.ParseInLocation(dayLayout, req.Day, loc)
	if err != nil {
		return v, invalid("day", "%q is not a YYYY-MM-DD date", req.Day)
	}
	if req.DurationMinutes <= 0 {
		return v, invalid("duration_minutes", "must be a positive number of minutes, got %d", req.DurationMinutes)
	}
	risk, ok := ParseRiskTier(string(req.Risk))
	if !ok {
		return v, invalid("risk", "%q is not one of low, med, high", req.Risk)
	}
	if err := req.Target.Validate(); err != nil {
		return v, invalid("target", "%v", err)
	}
	if req.Base != nil {
		if err := req.Base.Validate(); err != nil {
			return v, invalid("base", "%v", err)
		}
	}
	if req.LastJob != nil {
		if err := req.LastJob.Validate(); err != nil {
			return v, invalid("last_job", "%v", err)
		}
	}

	v.day = day
	v.risk = risk
	return v, nil
}
