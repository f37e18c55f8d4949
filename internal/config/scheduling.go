// README: Scheduling policy config; default policy plus per-organization overrides.
package config

import (
	"fmt"
	"time"

	"slotwise/internal/modules/scheduling"
	"slotwise/internal/types"
)

// SchedulingConfig is the file/env form of scheduling.Policy. Clock values are
// "HH:MM" and offsets are Go durations ("2h", "90m").
type SchedulingConfig struct {
	UrbanMultiplier  float64                    `json:"urban_multiplier"`
	AverageSpeedKmh  float64                    `json:"average_speed_kmh"`
	RiskBufferPct    map[string]int             `json:"risk_buffer_pct"`
	MaxBufferMinutes *int                       `json:"max_buffer_minutes"`
	WorkStart        string                     `json:"work_start"`
	WorkEnd          string                     `json:"work_end"`
	TimeZone         string                     `json:"time_zone"`
	StartOffsets     []string                   `json:"start_offsets"`
	Orgs             map[string]OrgPolicyConfig `json:"orgs"`
}

// OrgPolicyConfig overrides travel tunables for one organization. Unset
// fields inherit the deployment-wide value.
type OrgPolicyConfig struct {
	UrbanMultiplier  float64        `json:"urban_multiplier"`
	AverageSpeedKmh  float64        `json:"average_speed_kmh"`
	RiskBufferPct    map[string]int `json:"risk_buffer_pct"`
	MaxBufferMinutes *int           `json:"max_buffer_minutes"`
}

func (s *SchedulingConfig) SetDefaults() {
	def := scheduling.DefaultPolicy()
	if s.UrbanMultiplier == 0 {
		s.UrbanMultiplier = def.UrbanMultiplier
	}
	if s.AverageSpeedKmh == 0 {
		s.AverageSpeedKmh = def.AverageSpeedKmh
	}
	if s.RiskBufferPct == nil {
		s.RiskBufferPct = map[string]int{}
	}
	for tier, pct := range def.RiskBufferPct {
		if _, ok := s.RiskBufferPct[string(tier)]; !ok {
			s.RiskBufferPct[string(tier)] = pct
		}
	}
	if s.MaxBufferMinutes == nil {
		v := def.MaxBufferMinutes
		s.MaxBufferMinutes = &v
	}
	if s.WorkStart == "" {
		s.WorkStart = scheduling.FormatClock(def.WorkStart)
	}
	if s.WorkEnd == "" {
		s.WorkEnd = scheduling.FormatClock(def.WorkEnd)
	}
	if s.TimeZone == "" {
		s.TimeZone = "UTC"
	}
	if len(s.StartOffsets) == 0 {
		for _, off := range def.StartOffsets {
			s.StartOffsets = append(s.StartOffsets, off.String())
		}
	}
}

// Policy builds the deployment-wide policy. SetDefaults must have run.
func (s SchedulingConfig) Policy() (scheduling.Policy, error) {
	p := scheduling.DefaultPolicy()
	p.UrbanMultiplier = s.UrbanMultiplier
	p.AverageSpeedKmh = s.AverageSpeedKmh
	if s.MaxBufferMinutes != nil {
		p.MaxBufferMinutes = *s.MaxBufferMinutes
	}
	if err := applyRiskTable(&p, s.RiskBufferPct); err != nil {
		return p, err
	}

	var err error
	if p.WorkStart, err = scheduling.ParseClock(s.WorkStart); err != nil {
		return p, fmt.Errorf("work_start: %w", err)
	}
	if p.WorkEnd, err = scheduling.ParseClock(s.WorkEnd); err != nil {
		return p, fmt.Errorf("work_end: %w", err)
	}
	if p.Location, err = time.LoadLocation(s.TimeZone); err != nil {
		return p, fmt.Errorf("time_zone: %w", err)
	}
	offsets := make([]time.Duration, 0, len(s.StartOffsets))
	for _, raw := range s.StartOffsets {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return p, fmt.Errorf("start_offsets: %w", err)
		}
		offsets = append(offsets, d)
	}
	p.StartOffsets = offsets

	return p, p.Validate()
}

// OrgPolicies derives one policy per configured organization from the
// deployment-wide policy.
func (s SchedulingConfig) OrgPolicies() (map[types.ID]scheduling.Policy, error) {
	base, err := s.Policy()
	if err != nil {
		return nil, err
	}
	out := make(map[types.ID]scheduling.Policy, len(s.Orgs))
	for id, o := range s.Orgs {
		p := base
		p.RiskBufferPct = make(map[scheduling.RiskTier]int, len(base.RiskBufferPct))
		for k, v := range base.RiskBufferPct {
			p.RiskBufferPct[k] = v
		}
		if o.UrbanMultiplier != 0 {
			p.UrbanMultiplier = o.UrbanMultiplier
		}
		if o.AverageSpeedKmh != 0 {
			p.AverageSpeedKmh = o.AverageSpeedKmh
		}
		if o.MaxBufferMinutes != nil {
			p.MaxBufferMinutes = *o.MaxBufferMinutes
		}
		if err := applyRiskTable(&p, o.RiskBufferPct); err != nil {
			return nil, fmt.Errorf("org %s: %w", id, err)
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("org %s: %w", id, err)
		}
		out[types.ID(id)] = p
	}
	return out, nil
}

func applyRiskTable(p *scheduling.Policy, table map[string]int) error {
	for name, pct := range table {
		tier, ok := scheduling.ParseRiskTier(name)
		if !ok {
			return fmt.Errorf("unknown risk tier %q", name)
		}
		p.RiskBufferPct[tier] = pct
	}
	return nil
}
